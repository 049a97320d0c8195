package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/capitalpay/capitalpay-api/middleware"
	"github.com/capitalpay/capitalpay-api/models"
	"github.com/capitalpay/capitalpay-api/utils"
)

// AuthController handles registration, login and principal lookup.
type AuthController struct {
	db *gorm.DB
}

// NewAuthController creates an AuthController.
func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{db: db}
}

// Register handles public account registration with bcrypt hashing.
// Registered accounts always start with the regular user role.
func (a *AuthController) Register(ctx *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required,max=100"`
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required,min=6"`
	}

	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, "Please provide name, email and password")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !models.ValidEmail(email) {
		utils.Error(ctx, http.StatusBadRequest, "Please enter a valid email")
		return
	}

	var existing models.User
	if err := a.db.Where("email = ?", email).First(&existing).Error; err == nil {
		utils.Error(ctx, http.StatusBadRequest, "User with this email already exists")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.InternalError(ctx, "failed to check existing user", err)
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.InternalError(ctx, "failed to hash password", err)
		return
	}

	user := models.User{
		Name:         utils.SanitizeStrict(strings.TrimSpace(req.Name)),
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleUser,
		IsActive:     true,
	}
	if err := a.db.Create(&user).Error; err != nil {
		utils.InternalError(ctx, "failed to create user", err)
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Role)
	if err != nil {
		utils.InternalError(ctx, "failed to issue token", err)
		return
	}

	utils.Created(ctx, "User registered successfully", gin.H{"token": token, "user": user})
}

// Login authenticates by email and password and issues a JWT.
func (a *AuthController) Login(ctx *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, "Please provide email and password")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var user models.User
	if err := a.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		utils.InternalError(ctx, "failed to load user", err)
		return
	}

	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		utils.Error(ctx, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if !user.IsActive {
		utils.Error(ctx, http.StatusUnauthorized, "Account has been deactivated")
		return
	}

	now := time.Now()
	user.LastLogin = &now
	if err := a.db.Model(&user).UpdateColumn("last_login", now).Error; err != nil {
		// login still succeeds; the timestamp is best-effort
		if utils.Sugar != nil {
			utils.Sugar.Warnf("failed to record last login for user %d: %v", user.ID, err)
		}
	}

	token, err := utils.GenerateToken(user.ID, user.Role)
	if err != nil {
		utils.InternalError(ctx, "failed to issue token", err)
		return
	}

	utils.SuccessMessage(ctx, "Logged in successfully", gin.H{"token": token, "user": user})
}

// Me returns the authenticated principal.
func (a *AuthController) Me(ctx *gin.Context) {
	user, ok := middleware.CurrentUser(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, "Not authorized to access this route")
		return
	}
	utils.Success(ctx, user)
}
