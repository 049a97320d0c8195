package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/capitalpay/capitalpay-api/config"
	"github.com/capitalpay/capitalpay-api/controllers"
	"github.com/capitalpay/capitalpay-api/middleware"
	"github.com/capitalpay/capitalpay-api/models"
	"github.com/capitalpay/capitalpay-api/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RequestID())

	// Replace default console logger with file-based zap logger
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl))
	} else {
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	authController := controllers.NewAuthController(db)
	blogController := controllers.NewBlogController(db)
	contactController := controllers.NewContactController(db)
	userController := controllers.NewUserController(db)

	api := r.Group("/api")
	api.Use(middleware.RateLimitMiddleware())

	api.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{
			"success":     true,
			"message":     "CapitalPay API is running!",
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
			"environment": cfg.Environment,
		})
	})

	auth := api.Group("/auth")
	auth.POST("/register", authController.Register)
	auth.POST("/login", authController.Login)
	auth.GET("/me", middleware.AuthRequired(db), authController.Me)

	blogs := api.Group("/blogs")
	blogs.GET("", middleware.OptionalAuth(db), blogController.ListBlogs)
	blogs.GET("/featured", blogController.FeaturedBlogs)
	blogs.GET("/categories", blogController.BlogCategories)
	blogs.GET("/admin/all", middleware.AuthRequired(db), middleware.RequireRoles(models.RoleAdmin), blogController.AdminListBlogs)
	blogs.POST("", middleware.AuthRequired(db), middleware.RequireRoles(models.RoleAdmin, models.RoleModerator), blogController.CreateBlog)
	blogs.PATCH("/:slugOrId/featured", middleware.AuthRequired(db), middleware.RequireRoles(models.RoleAdmin), blogController.ToggleFeatured)
	blogs.GET("/:slugOrId", middleware.OptionalAuth(db), blogController.GetBlog)
	blogs.PUT("/:slugOrId", middleware.AuthRequired(db), blogController.UpdateBlog)
	blogs.DELETE("/:slugOrId", middleware.AuthRequired(db), blogController.DeleteBlog)

	contact := api.Group("/contact")
	contact.POST("", contactController.SubmitContact)
	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleModerator)
	contact.GET("", middleware.AuthRequired(db), staff, contactController.ListContacts)
	contact.GET("/stats", middleware.AuthRequired(db), staff, contactController.ContactStats)
	contact.PATCH("/bulk/mark-read", middleware.AuthRequired(db), staff, contactController.BulkMarkRead)
	contact.GET("/:id", middleware.AuthRequired(db), staff, contactController.GetContact)
	contact.PATCH("/:id", middleware.AuthRequired(db), staff, contactController.UpdateContact)
	contact.POST("/:id/notes", middleware.AuthRequired(db), staff, contactController.AddNote)
	contact.DELETE("/:id", middleware.AuthRequired(db), middleware.RequireRoles(models.RoleAdmin), contactController.DeleteContact)

	users := api.Group("/users")
	users.Use(middleware.AuthRequired(db), middleware.RequireRoles(models.RoleAdmin))
	users.GET("", userController.ListUsers)
	users.GET("/stats", userController.UserStats)
	users.POST("", userController.CreateUser)
	users.GET("/:id", userController.GetUser)
	users.PUT("/:id", userController.UpdateUser)
	users.DELETE("/:id", userController.DeleteUser)
	users.PATCH("/:id/toggle-status", userController.ToggleStatus)
	users.PATCH("/:id/role", userController.ChangeRole)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, "API endpoint not found")
	})

	return r
}
