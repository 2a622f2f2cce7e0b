package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskflow/internal/cache"
	"github.com/yukikurage/taskflow/internal/middleware"
	"github.com/yukikurage/taskflow/internal/repository"
	"github.com/yukikurage/taskflow/internal/services"
	"gorm.io/gorm"
)

// Services bundles what the HTTP layer is built from.
type Services struct {
	Auth   *services.AuthService
	Tasks  *services.TaskService
	Stats  *services.StatsService
	Tokens *services.TokenManager
}

// Options are the optional collaborators of the services.
type Options struct {
	StatsCache cache.Store
	AI         *services.AIService
	Logger     *slog.Logger
}

// NewServices wires repositories and services over db.
func NewServices(db *gorm.DB, tokens *services.TokenManager, opts Options) Services {
	taskRepo := repository.NewTaskRepository(db)
	statsService := services.NewStatsService(taskRepo, opts.StatsCache, opts.Logger)

	return Services{
		Auth:   services.NewAuthService(repository.NewUserRepository(db)),
		Tasks:  services.NewTaskService(taskRepo, statsService, opts.AI, opts.Logger),
		Stats:  statsService,
		Tokens: tokens,
	}
}

// RegisterRoutes mounts the API on r. Session middleware must already be installed.
func RegisterRoutes(r *gin.Engine, svc Services) {
	authHandler := NewAuthHandler(svc.Auth, svc.Tokens)
	taskHandler := NewTaskHandler(svc.Tasks, svc.Stats)
	requireAuth := middleware.RequireAuth(svc.Tokens)
	requireOwner := middleware.RequireTaskOwner(svc.Tasks)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "taskflow API is running",
		})
	})

	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", requireAuth, authHandler.GetCurrentUser)
		}

		// Task routes (protected)
		tasks := api.Group("/tasks")
		tasks.Use(requireAuth)
		{
			tasks.GET("", taskHandler.ListTasks)
			tasks.POST("", taskHandler.CreateTask)
			tasks.GET("/view", taskHandler.ViewTasks)
			tasks.GET("/stats", taskHandler.GetStats)
			tasks.POST("/generate", taskHandler.GenerateTasks)
			tasks.GET("/:id", requireOwner, taskHandler.GetTask)
			tasks.PATCH("/:id", requireOwner, taskHandler.UpdateTask)
			tasks.POST("/:id/toggle", requireOwner, taskHandler.ToggleTask)
			tasks.DELETE("/:id", requireOwner, taskHandler.DeleteTask)
		}
	}
}
