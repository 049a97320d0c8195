package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/capitalpay/capitalpay-api/models"
	"github.com/capitalpay/capitalpay-api/utils"
)

// UserController manages the admin-only user administration endpoints.
type UserController struct {
	db *gorm.DB
}

// NewUserController creates a new UserController instance.
func NewUserController(db *gorm.DB) *UserController {
	return &UserController{db: db}
}

// ListUsers returns paginated users with role/isActive/search filters.
func (u *UserController) ListUsers(ctx *gin.Context) {
	page, limit := utils.ParsePageLimit(ctx.Query("page"), ctx.Query("limit"), 20)
	role := strings.TrimSpace(ctx.Query("role"))
	isActive := ctx.Query("isActive")
	search := strings.TrimSpace(ctx.Query("search"))

	query := u.db.Model(&models.User{})
	if role != "" {
		query = query.Where("role = ?", role)
	}
	if isActive != "" {
		query = query.Where("is_active = ?", isActive == "true")
	}
	if search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.InternalError(ctx, "failed to count users", err)
		return
	}

	pagination := utils.NewPagination(page, limit, total)

	var users []models.User
	if err := query.Order("created_at DESC").
		Offset(pagination.Offset()).
		Limit(limit).
		Find(&users).Error; err != nil {
		utils.InternalError(ctx, "failed to list users", err)
		return
	}

	utils.List(ctx, users, len(users), pagination)
}

// UserStats returns aggregate account counters for the admin dashboard.
func (u *UserController) UserStats(ctx *gin.Context) {
	var totalUsers, activeUsers, adminUsers, moderatorUsers, newUsers int64

	if err := u.db.Model(&models.User{}).Count(&totalUsers).Error; err != nil {
		utils.InternalError(ctx, "failed to count users", err)
		return
	}
	if err := u.db.Model(&models.User{}).Where("is_active = ?", true).Count(&activeUsers).Error; err != nil {
		utils.InternalError(ctx, "failed to count active users", err)
		return
	}
	if err := u.db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&adminUsers).Error; err != nil {
		utils.InternalError(ctx, "failed to count admins", err)
		return
	}
	if err := u.db.Model(&models.User{}).Where("role = ?", models.RoleModerator).Count(&moderatorUsers).Error; err != nil {
		utils.InternalError(ctx, "failed to count moderators", err)
		return
	}
	lastMonth := time.Now().AddDate(0, 0, -30)
	if err := u.db.Model(&models.User{}).Where("created_at >= ?", lastMonth).Count(&newUsers).Error; err != nil {
		utils.InternalError(ctx, "failed to count new users", err)
		return
	}

	type roleCount struct {
		Role  string
		Count int64
	}
	var rows []roleCount
	if err := u.db.Model(&models.User{}).
		Select("role, COUNT(*) as count").
		Group("role").
		Scan(&rows).Error; err != nil {
		utils.InternalError(ctx, "failed to aggregate roles", err)
		return
	}
	usersByRole := make(map[string]int64, len(rows))
	for _, row := range rows {
		usersByRole[row.Role] = row.Count
	}

	utils.Success(ctx, gin.H{
		"totalUsers":     totalUsers,
		"activeUsers":    activeUsers,
		"inactiveUsers":  totalUsers - activeUsers,
		"adminUsers":     adminUsers,
		"moderatorUsers": moderatorUsers,
		"regularUsers":   totalUsers - adminUsers - moderatorUsers,
		"newUsers":       newUsers,
		"usersByRole":    usersByRole,
	})
}

// CreateUser creates an account from the admin dashboard.
func (u *UserController) CreateUser(ctx *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required,max=100"`
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required,min=6"`
		Role     string `json:"role"`
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

	role := req.Role
	if role == "" {
		role = models.RoleUser
	}
	if !models.ValidRole(role) {
		utils.Error(ctx, http.StatusBadRequest, "Valid role is required (user, admin, moderator)")
		return
	}

	var existing models.User
	if err := u.db.Where("email = ?", email).First(&existing).Error; err == nil {
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
		Role:         role,
		IsActive:     true,
	}
	if err := u.db.Create(&user).Error; err != nil {
		utils.InternalError(ctx, "failed to create user", err)
		return
	}

	utils.Created(ctx, "User created successfully", user)
}

// GetUser returns one user plus their authoring activity.
func (u *UserController) GetUser(ctx *gin.Context) {
	var user models.User
	if err := u.db.First(&user, ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, "User not found")
			return
		}
		utils.InternalError(ctx, "failed to load user", err)
		return
	}

	var blogPostsCount int64
	if err := u.db.Model(&models.BlogPost{}).Where("author_id = ?", user.ID).Count(&blogPostsCount).Error; err != nil {
		utils.InternalError(ctx, "failed to count blog posts", err)
		return
	}

	type recentBlog struct {
		ID        uint      `json:"id"`
		Title     string    `json:"title"`
		Status    string    `json:"status"`
		CreatedAt time.Time `json:"createdAt"`
	}
	var recentBlogs []recentBlog
	if err := u.db.Model(&models.BlogPost{}).
		Select("id", "title", "status", "created_at").
		Where("author_id = ?", user.ID).
		Order("created_at DESC").
		Limit(5).
		Scan(&recentBlogs).Error; err != nil {
		utils.InternalError(ctx, "failed to load recent blog posts", err)
		return
	}

	utils.Success(ctx, gin.H{
		"user": user,
		"stats": gin.H{
			"blogPostsCount": blogPostsCount,
			"recentBlogs":    recentBlogs,
		},
	})
}

// UpdateUser applies partial updates to profile and administrative fields.
// Demoting or deactivating an admin here runs the same last-admin guards as
// the dedicated endpoints.
func (u *UserController) UpdateUser(ctx *gin.Context) {
	var req struct {
		Name     *string `json:"name"`
		Email    *string `json:"email"`
		Role     *string `json:"role"`
		IsActive *bool   `json:"isActive"`
		Avatar   *string `json:"avatar"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, "Invalid request payload")
		return
	}

	var user models.User
	if err := u.db.First(&user, ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, "User not found")
			return
		}
		utils.InternalError(ctx, "failed to load user", err)
		return
	}

	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if !models.ValidEmail(email) {
			utils.Error(ctx, http.StatusBadRequest, "Please enter a valid email")
			return
		}
		var other models.User
		if err := u.db.Where("email = ? AND id <> ?", email, user.ID).First(&other).Error; err == nil {
			utils.Error(ctx, http.StatusBadRequest, "Email is already taken by another user")
			return
		}
		user.Email = email
	}
	if req.Role != nil {
		if !models.ValidRole(*req.Role) {
			utils.Error(ctx, http.StatusBadRequest, "Valid role is required (user, admin, moderator)")
			return
		}
		if user.IsAdmin() && *req.Role != models.RoleAdmin {
			if msg := u.lastAdminGuard(user.ID); msg != "" {
				utils.Error(ctx, http.StatusBadRequest, msg)
				return
			}
		}
		user.Role = *req.Role
	}
	if req.IsActive != nil {
		if user.IsAdmin() && user.IsActive && !*req.IsActive {
			if msg := u.lastActiveAdminGuard(user.ID); msg != "" {
				utils.Error(ctx, http.StatusBadRequest, msg)
				return
			}
		}
		user.IsActive = *req.IsActive
	}
	if req.Name != nil {
		name := utils.SanitizeStrict(strings.TrimSpace(*req.Name))
		if name == "" {
			utils.Error(ctx, http.StatusBadRequest, "Name cannot be empty")
			return
		}
		user.Name = name
	}
	if req.Avatar != nil {
		user.Avatar = strings.TrimSpace(*req.Avatar)
	}

	if err := u.db.Save(&user).Error; err != nil {
		utils.InternalError(ctx, "failed to update user", err)
		return
	}

	utils.SuccessMessage(ctx, "User updated successfully", user)
}

// DeleteUser removes an account. The last admin can never be deleted; an
// author's posts are reassigned to another admin first so they are not
// orphaned.
func (u *UserController) DeleteUser(ctx *gin.Context) {
	var user models.User
	if err := u.db.First(&user, ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, "User not found")
			return
		}
		utils.InternalError(ctx, "failed to load user", err)
		return
	}

	if user.IsAdmin() {
		if msg := u.lastAdminGuard(user.ID); msg != "" {
			utils.Error(ctx, http.StatusBadRequest, "Cannot delete the last admin user")
			return
		}
	}

	var blogPostsCount int64
	if err := u.db.Model(&models.BlogPost{}).Where("author_id = ?", user.ID).Count(&blogPostsCount).Error; err != nil {
		utils.InternalError(ctx, "failed to count blog posts", err)
		return
	}

	if blogPostsCount > 0 {
		var heir models.User
		if err := u.db.Where("role = ? AND id <> ?", models.RoleAdmin, user.ID).First(&heir).Error; err == nil {
			if err := u.db.Model(&models.BlogPost{}).
				Where("author_id = ?", user.ID).
				Update("author_id", heir.ID).Error; err != nil {
				utils.InternalError(ctx, "failed to reassign blog posts", err)
				return
			}
			utils.InvalidateByPrefix(blogCachePrefix)
		}
	}

	if err := u.db.Delete(&user).Error; err != nil {
		utils.InternalError(ctx, "failed to delete user", err)
		return
	}

	var data interface{}
	if blogPostsCount > 0 {
		data = gin.H{"transferredPosts": blogPostsCount}
	}
	utils.SuccessMessage(ctx, "User deleted successfully", data)
}

// ToggleStatus flips isActive. Deactivating the last active admin is rejected.
func (u *UserController) ToggleStatus(ctx *gin.Context) {
	var user models.User
	if err := u.db.First(&user, ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, "User not found")
			return
		}
		utils.InternalError(ctx, "failed to load user", err)
		return
	}

	if user.IsAdmin() && user.IsActive {
		if msg := u.lastActiveAdminGuard(user.ID); msg != "" {
			utils.Error(ctx, http.StatusBadRequest, msg)
			return
		}
	}

	user.IsActive = !user.IsActive
	if err := u.db.Model(&user).UpdateColumn("is_active", user.IsActive).Error; err != nil {
		utils.InternalError(ctx, "failed to update user", err)
		return
	}

	verb := "deactivated"
	if user.IsActive {
		verb = "activated"
	}
	utils.SuccessMessage(ctx, "User "+verb+" successfully", gin.H{
		"id":       user.ID,
		"name":     user.Name,
		"email":    user.Email,
		"isActive": user.IsActive,
	})
}

// ChangeRole assigns a new role. Demoting the last admin is rejected.
func (u *UserController) ChangeRole(ctx *gin.Context) {
	var req struct {
		Role string `json:"role"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil || !models.ValidRole(req.Role) {
		utils.Error(ctx, http.StatusBadRequest, "Valid role is required (user, admin, moderator)")
		return
	}

	var user models.User
	if err := u.db.First(&user, ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, "User not found")
			return
		}
		utils.InternalError(ctx, "failed to load user", err)
		return
	}

	if user.IsAdmin() && req.Role != models.RoleAdmin {
		if msg := u.lastAdminGuard(user.ID); msg != "" {
			utils.Error(ctx, http.StatusBadRequest, "Cannot remove admin role from the last admin user")
			return
		}
	}

	user.Role = req.Role
	if err := u.db.Model(&user).UpdateColumn("role", user.Role).Error; err != nil {
		utils.InternalError(ctx, "failed to update user", err)
		return
	}

	utils.SuccessMessage(ctx, "User role changed to "+req.Role+" successfully", gin.H{
		"id":    user.ID,
		"name":  user.Name,
		"email": user.Email,
		"role":  user.Role,
	})
}

// lastAdminGuard returns a rejection message when no admin besides userID
// remains. Read-then-write without a transaction: two concurrent demotions
// of two different admins can still race past this check.
func (u *UserController) lastAdminGuard(userID uint) string {
	var otherAdmins int64
	if err := u.db.Model(&models.User{}).
		Where("role = ? AND id <> ?", models.RoleAdmin, userID).
		Count(&otherAdmins).Error; err != nil {
		return "Failed to verify admin count"
	}
	if otherAdmins == 0 {
		return "Cannot remove admin role from the last admin user"
	}
	return ""
}

// lastActiveAdminGuard rejects deactivating userID when no other active
// admin remains.
func (u *UserController) lastActiveAdminGuard(userID uint) string {
	var otherActiveAdmins int64
	if err := u.db.Model(&models.User{}).
		Where("role = ? AND is_active = ? AND id <> ?", models.RoleAdmin, true, userID).
		Count(&otherActiveAdmins).Error; err != nil {
		return "Failed to verify admin count"
	}
	if otherActiveAdmins == 0 {
		return "Cannot deactivate the last active admin user"
	}
	return ""
}
