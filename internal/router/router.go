package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/techsynergy/campus-backend/internal/config"
	"github.com/techsynergy/campus-backend/internal/handler"
	"github.com/techsynergy/campus-backend/internal/middleware"
	"github.com/techsynergy/campus-backend/internal/response"
	"github.com/techsynergy/campus-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth         *handler.AuthHandler
	Wizard       *handler.WizardHandler
	Assignment   *handler.AssignmentHandler
	Tools        *handler.ToolsHandler
	Media        *handler.MediaHandler
	CodingExam   *handler.CodingExamHandler
	StudyGroup   *handler.StudyGroupHandler
	Portal       *handler.PortalHandler
	Notification *handler.NotificationHandler
	WS           *handler.WSHandler
	System       *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	rdb *redis.Client,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.Brotli())

	// Upload keys are never rewritten; cache for a year.
	uploadsGroup := router.Group("/uploads")
	uploadsGroup.Use(middleware.CacheControl(31536000))
	{
		uploadsGroup.Static("/", cfg.UploadDir)
	}

	router.GET("/health", handlers.System.Health)

	// ─── 1. Auth (public, rate limited) ────────────────────────────────
	auth := router.Group("/api/v1/auth")
	if cfg.AuthRateLimit > 0 {
		auth.Use(middleware.NewRateLimiter(rdb, "auth", cfg.AuthRateLimit, time.Minute).Middleware())
	}
	{
		auth.POST("/login", handlers.Auth.Login)

		authed := auth.Group("")
		authed.Use(middleware.RequireJWT(authService), middleware.CheckSingleDeviceSession(authService))
		authed.POST("/logout", handlers.Auth.Logout)
		authed.GET("/current-user", handlers.Auth.CurrentUser)
	}

	// ─── 2. API (JWT + single device) ──────────────────────────────────
	api := router.Group("/api/v1")
	api.Use(
		middleware.NoStore(),
		middleware.RequireJWT(authService),
		middleware.CheckSingleDeviceSession(authService),
	)
	if cfg.APIRateLimit > 0 {
		api.Use(middleware.NewRateLimiter(rdb, "api", cfg.APIRateLimit, time.Minute).Middleware())
	}

	faculty := middleware.RequireFaculty()
	student := middleware.RequireStudent()

	// Wizards: profile, assignment, exam. Flow access is checked by
	// the service so one route set serves every flow.
	wizards := api.Group("/wizards/:flow")
	{
		wizards.GET("/definition", handlers.Wizard.Definition)
		wizards.POST("", handlers.Wizard.Start)
		wizards.GET("", handlers.Wizard.Get)
		wizards.DELETE("", handlers.Wizard.Discard)
		wizards.PATCH("/fields", handlers.Wizard.SetFields)
		wizards.POST("/advance", handlers.Wizard.Advance)
		wizards.POST("/retreat", handlers.Wizard.Retreat)
		wizards.POST("/finalize", handlers.Wizard.Finalize)
		wizards.POST("/generate", handlers.Wizard.Generate)
	}

	assignments := api.Group("/assignments")
	{
		assignments.GET("", handlers.Assignment.List)
		assignments.GET("/:id", handlers.Assignment.Get)
		assignments.PATCH("/:id", faculty, handlers.Assignment.Update)
		assignments.DELETE("/:id", faculty, handlers.Assignment.Delete)
		assignments.POST("/:id/publish", faculty, handlers.Assignment.Publish)
		assignments.POST("/:id/resources", faculty, handlers.Assignment.AddResources)
		assignments.GET("/:id/submissions", faculty, handlers.Assignment.ListSubmissions)
		assignments.POST("/:id/submit", student, handlers.Assignment.Submit)
	}

	submissions := api.Group("/submissions")
	{
		submissions.GET("", student, handlers.Assignment.ListMySubmissions)
		submissions.GET("/:id", handlers.Assignment.GetSubmission)
		submissions.POST("/:id/grade", faculty, handlers.Assignment.Grade)
	}

	api.POST("/plagiarism/check", handlers.Tools.CheckPlagiarism)
	api.POST("/ai/generate", handlers.Tools.Generate)
	api.POST("/files/process", handlers.Tools.ProcessFile)
	api.POST("/uploads", handlers.Media.Upload)

	exams := api.Group("/coding-exams")
	{
		exams.GET("", handlers.CodingExam.List)
		exams.GET("/:id", handlers.CodingExam.Get)
		exams.POST("/:id/cancel", faculty, handlers.CodingExam.Cancel)
		exams.DELETE("/:id", faculty, handlers.CodingExam.Delete)
	}

	study := api.Group("/study")
	{
		study.GET("/classes", handlers.StudyGroup.ListClasses)
		study.POST("/classes", faculty, handlers.StudyGroup.CreateClass)
		study.GET("/classes/:classId", handlers.StudyGroup.GetClass)

		study.GET("/classes/:classId/groups", handlers.StudyGroup.ListGroups)
		study.POST("/classes/:classId/groups", student, handlers.StudyGroup.CreateStudentGroup)
		study.POST("/classes/:classId/groups/bulk", faculty, handlers.StudyGroup.BulkCreate)
		study.GET("/classes/:classId/groups/:groupId", handlers.StudyGroup.GetGroup)
		study.DELETE("/classes/:classId/groups/:groupId", handlers.StudyGroup.DeleteGroup)
		study.POST("/classes/:classId/groups/:groupId/members", handlers.StudyGroup.AddMember)
		study.DELETE("/classes/:classId/groups/:groupId/members/:memberId", handlers.StudyGroup.RemoveMember)
		study.GET("/classes/:classId/groups/:groupId/tasks", handlers.StudyGroup.ListTasks)
		study.POST("/classes/:classId/groups/:groupId/tasks", faculty, handlers.StudyGroup.AssignTask)

		study.GET("/tasks", faculty, handlers.StudyGroup.ListAssignedTasks)
	}

	portals := api.Group("/portals/:portal")
	{
		portals.GET("/definition", handlers.Portal.Definition)
		portals.GET("", handlers.Portal.List)
		portals.POST("", handlers.Portal.Create)
		portals.GET("/:id", handlers.Portal.Get)
		portals.DELETE("/:id", handlers.Portal.Delete)
		portals.PATCH("/:id/status", handlers.Portal.UpdateStatus)
		portals.POST("/:id/comments", handlers.Portal.AddComment)
	}

	notifications := api.Group("/notifications")
	{
		notifications.GET("", handlers.Notification.List)
		notifications.POST("/read-all", handlers.Notification.MarkAllRead)
		notifications.PATCH("/:id/read", handlers.Notification.MarkRead)
	}

	api.GET("/system/metrics", faculty, handlers.System.SystemMetricsSSE)

	// ─── 3. WebSocket (token via query string) ─────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireWSAuth(authService), middleware.CheckSingleDeviceSession(authService))
	{
		ws.GET("/notifications", handlers.WS.NotificationStream)
	}

	return router
}
