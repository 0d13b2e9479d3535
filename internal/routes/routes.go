package routes

import (
	"log/slog"

	"task-tracker-api/internal/auth"
	"task-tracker-api/internal/handlers"
	"task-tracker-api/internal/middleware"
	"task-tracker-api/internal/models"

	"github.com/gin-gonic/gin"
)

type Options struct {
	Handler    *handlers.Handler
	Tokens     *auth.Manager
	Categories middleware.CategoryLookup
	APIKey     string
	Logger     *slog.Logger
}

func SetupRoutes(o Options) *gin.Engine {
	h := o.Handler
	log := o.Logger
	if log == nil {
		log = slog.Default()
	}

	ginRouter := gin.Default()
	ginRouter.Use(middleware.RequestID(log))

	// CORS middleware (for frontend integration)
	ginRouter.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, X-API-Key, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	ginRouter.GET("/health", handlers.Health)

	// Public routes (no authentication required)
	api := ginRouter.Group("/api")
	{
		api.POST("/login", h.Login)
	}

	// Path-parameter API for external systems
	external := api.Group("")
	external.Use(middleware.APIKey(o.APIKey))
	{
		external.GET("/create-task/:assigned_by_email/:assigned_to_email/:deadline/:ticket_type/:priority/:department/:subject/:request_details", h.APICreateTask)
		external.GET("/update-task/:task_id/:updated_by_email/:status", h.APIUpdateTask)
		external.GET("/update-task/:task_id/:updated_by_email/:status/:revised_deadline", h.APIUpdateTask)
		external.GET("/update-task/:task_id/:updated_by_email/:status/:revised_deadline/:subject/:request_details", h.APIUpdateTask)
		external.GET("/reassign-task/:task_id/:reassigned_by_email", h.APIReassignTask)
	}

	// Protected routes (authentication required)
	protectedRoutes := api.Group("")
	protectedRoutes.Use(middleware.JWTAuthMiddleware(o.Tokens))
	{
		protectedRoutes.GET("/dashboard", h.Dashboard)
		protectedRoutes.GET("/ws", h.WebSocket)
		protectedRoutes.GET("/update-viewers/:task_id/*viewer_emails", h.APIUpdateViewers)

		// Task endpoints
		protectedRoutes.GET("/tasks", h.SearchTasks)
		protectedRoutes.GET("/tasks/assigned-to-me", h.AssignedToMe)
		protectedRoutes.GET("/tasks/assigned-by-me", h.AssignedByMe)
		protectedRoutes.GET("/tasks/viewing", h.Viewing)
		protectedRoutes.GET("/tasks/home", h.DepartmentHome)
		protectedRoutes.POST("/tasks", h.CreateTask)
		protectedRoutes.GET("/tasks/:task_id", h.GetTask)
		protectedRoutes.PUT("/tasks/:task_id", h.UpdateTask)
		protectedRoutes.POST("/tasks/:task_id/status", h.UpdateTaskStatus)
		protectedRoutes.POST("/tasks/:task_id/reassign", h.ReassignTask)
		protectedRoutes.POST("/tasks/:task_id/reassign-within-department", h.ReassignWithinDepartment)
		protectedRoutes.GET("/tasks/:task_id/chat", h.ListMessages)
		protectedRoutes.POST("/tasks/:task_id/chat", h.PostMessage)

		// Metrics
		protectedRoutes.GET("/metrics", h.Metrics)
		protectedRoutes.GET("/metrics/download", h.DownloadMetrics)
		protectedRoutes.GET("/metrics/departments/:department", h.DepartmentMetrics)

		// Users endpoint
		protectedRoutes.GET("/users", h.GetAllUsers)
		protectedRoutes.POST("/users", h.CreateUser)
		protectedRoutes.PUT("/users/:id", h.UpdateUser)
		protectedRoutes.DELETE("/users/:id", h.DeleteUser)
		protectedRoutes.GET("/departments", h.ListDepartments)
		protectedRoutes.POST("/departments", h.CreateDepartment)
	}

	// System Manager routes
	admin := protectedRoutes.Group("")
	admin.Use(middleware.RequireCategory(o.Categories, string(models.CategorySystemManager)))
	{
		admin.GET("/activity", h.Activity)
		admin.GET("/activity/download", h.DownloadActivity)
		admin.POST("/reminders/deadline", h.SendDeadlineReminders)
		admin.POST("/reminders/overdue", h.NotifyOverdue)
	}

	return ginRouter
}
