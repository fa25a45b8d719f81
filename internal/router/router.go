package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-proctor/internal/config"
	"github.com/stemsi/exstem-proctor/internal/handler"
	"github.com/stemsi/exstem-proctor/internal/metrics"
	"github.com/stemsi/exstem-proctor/internal/middleware"
	"github.com/stemsi/exstem-proctor/internal/model"
	"github.com/stemsi/exstem-proctor/internal/response"
	"github.com/stemsi/exstem-proctor/internal/telemetry"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth          *handler.AuthHandler
	Exam          *handler.ExamHandler
	StudentPortal *handler.StudentPortalHandler
	Evaluation    *handler.EvaluationHandler
	Attendance    *handler.AttendanceHandler
	Media         *handler.MediaHandler
}

// uploadCacheSeconds is how long browsers may keep an answer sheet.
const uploadCacheSeconds = 3600

// SetupRouter configures all Gin route groups with appropriate middlewares.
// loginLimiter may be nil, which disables login rate limiting.
func SetupRouter(
	cfg *config.Config,
	auth middleware.TokenValidator,
	handlers *Handlers,
	loginLimiter *middleware.RateLimiter,
	log zerolog.Logger,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.MaxMultipartMemory = cfg.MaxUploadBytes

	if cfg.TracingEnabled {
		router.Use(otelgin.Middleware(telemetry.ServiceName))
	}

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PATCH", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID", handler.ProctorCodeHeader}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Retry-After"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Request ID first so the logger and every response carry it.
	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.RequestLogger(log))
	router.Use(metrics.Middleware())
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Uploaded answer sheets, for any signed-in role.
	uploadsGroup := router.Group("/uploads")
	uploadsGroup.Use(middleware.RequireRoles(auth), middleware.PrivateCache(uploadCacheSeconds))
	{
		uploadsGroup.Static("/", cfg.UploadDir)
	}

	api := router.Group("/api/v1")
	api.Use(middleware.RequestTimeout(cfg.RequestTimeout))

	// ─── 1. Auth Group ─────────────────────────────────────────────────
	authAPI := api.Group("/auth")
	{
		loginChain := []gin.HandlerFunc{}
		if loginLimiter != nil {
			loginChain = append(loginChain, loginLimiter.Middleware())
		}
		loginChain = append(loginChain, handlers.Auth.Login)

		authAPI.POST("/register", handlers.Auth.Register)
		authAPI.POST("/login", loginChain...)
		authAPI.POST("/logout", middleware.RequireRoles(auth), handlers.Auth.Logout)
		authAPI.GET("/me", middleware.RequireRoles(auth), handlers.Auth.Me)
	}

	// ─── 2. Admin Group ────────────────────────────────────────────────
	adminAPI := api.Group("/admin")
	{
		adminOnly := middleware.RequireRoles(auth, model.RoleAdmin)
		graders := middleware.RequireRoles(auth, model.RoleAdmin, model.RoleEvaluator)

		// Exam management
		adminAPI.POST("/createexam", adminOnly, handlers.Exam.CreateExam)
		adminAPI.PATCH("/updateexam/:examId", adminOnly, handlers.Exam.UpdateExam)
		adminAPI.GET("/exams", adminOnly, handlers.Exam.ListExams)
		adminAPI.GET("/exam/:examId", adminOnly, handlers.Exam.GetExam)

		// Assignment
		adminAPI.GET("/students", adminOnly, handlers.Exam.ListStudents)
		adminAPI.POST("/assignexam/:examId", adminOnly, handlers.Exam.AssignExam)
		adminAPI.PATCH("/addstudents/:examId", adminOnly, handlers.Exam.AddStudents)

		// Evaluation
		adminAPI.GET("/pendingresults", graders, handlers.Evaluation.ListPending)
		adminAPI.GET("/evaluate/:resultId", graders, handlers.Evaluation.GetForEvaluation)
		adminAPI.POST("/evaluate/:resultId", graders, handlers.Evaluation.Evaluate)

		// Attendance
		adminAPI.GET("/attendance/:examId", adminOnly, handlers.Attendance.ListAttendance)
		adminAPI.GET("/attendancereport/:examId", adminOnly, handlers.Attendance.Report)
	}

	// ─── 3. Student Group ──────────────────────────────────────────────
	studentAPI := api.Group("/student")
	studentAPI.Use(middleware.RequireRoles(auth, model.RoleStudent))
	{
		studentAPI.GET("/exams", handlers.StudentPortal.ListExams)
		studentAPI.POST("/verify-proctor/:examId", handlers.StudentPortal.VerifyProctorCode)
		studentAPI.GET("/exam/:examId", handlers.StudentPortal.GetExam)
		studentAPI.POST("/upload-answer/:examId/:questionId", handlers.Media.UploadAnswer)
		studentAPI.POST("/submit/:examId", handlers.StudentPortal.SubmitExam)
		studentAPI.POST("/attendance/:examId", handlers.StudentPortal.MarkAttendance)
		studentAPI.GET("/results", handlers.StudentPortal.ListResults)
	}

	return router
}
