package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/quizhall/quizhall-backend/internal/config"
	"github.com/quizhall/quizhall-backend/internal/handler"
	"github.com/quizhall/quizhall-backend/internal/middleware"
	"github.com/quizhall/quizhall-backend/internal/response"
	"github.com/quizhall/quizhall-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth          *handler.AuthHandler
	StudentPortal *handler.StudentPortalHandler
	Exam          *handler.ExamHandler
	Session       *handler.SessionHandler
	Roster        *handler.RosterHandler
	AttemptAdmin  *handler.AttemptAdminHandler
	WS            *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/student/login", handlers.Auth.StudentLogin)
		auth.POST("/teacher/login", handlers.Auth.TeacherLogin)
	}

	// ─── 2. Student Group (JWT + Single Device) ────────────────────────
	studentAPI := router.Group("/api/v1/student")
	studentAPI.Use(
		middleware.RequireStudentJWT(authService),
		middleware.CheckSingleDeviceSession(authService),
	)
	{
		studentAPI.GET("/me", handlers.Auth.GetStudentProfile)
		studentAPI.POST("/logout", handlers.Auth.StudentLogout)
		studentAPI.GET("/lobby", handlers.StudentPortal.GetLobby)
		studentAPI.POST("/sessions/:id/attempt", handlers.StudentPortal.ResolveAttempt)
		studentAPI.POST("/sessions/:id/start", handlers.StudentPortal.StartAttempt)
		studentAPI.GET("/sessions/:id/state", handlers.StudentPortal.GetState)
		studentAPI.GET("/sessions/:id/paper", handlers.StudentPortal.GetPaper)
		studentAPI.POST("/sessions/:id/submit", handlers.StudentPortal.SubmitAttempt)
	}

	// ─── 3. WebSocket Group (Student WS Auth) ──────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireStudentWSAuth(authService))
	{
		ws.GET("/student/sessions/:id/stream", handlers.WS.AttemptStream)
	}

	// ─── 4. Teacher Group (JWT) ────────────────────────────────────────
	teacherAPI := router.Group("/api/v1/teacher")
	teacherAPI.Use(middleware.RequireTeacherJWT(authService))
	{
		teacherAPI.GET("/me", handlers.Auth.GetTeacherProfile)

		// Roster management
		teacherAPI.GET("/students", handlers.Roster.ListStudents)
		teacherAPI.POST("/students", handlers.Roster.CreateStudent)
		teacherAPI.PUT("/students/:id", handlers.Roster.UpdateStudent)
		teacherAPI.DELETE("/students/:id", handlers.Roster.DeleteStudent)
		teacherAPI.POST("/students/:id/reset-login", handlers.Roster.ResetStudentLogin)

		// Exam management
		teacherAPI.GET("/exams", handlers.Exam.ListExams)
		teacherAPI.POST("/exams", handlers.Exam.CreateExam)
		teacherAPI.GET("/exams/:id", handlers.Exam.GetExam)
		teacherAPI.PUT("/exams/:id", handlers.Exam.UpdateExam)
		teacherAPI.DELETE("/exams/:id", handlers.Exam.DeleteExam)
		teacherAPI.GET("/exams/:id/questions", handlers.Exam.ListQuestions)
		teacherAPI.PUT("/exams/:id/questions", handlers.Exam.ReplaceQuestions)

		// Session scheduling
		teacherAPI.GET("/sessions", handlers.Session.ListSessions)
		teacherAPI.POST("/sessions", handlers.Session.ScheduleSession)
		teacherAPI.DELETE("/sessions/:id", handlers.Session.DeleteSession)

		// Attempt monitor and results
		teacherAPI.GET("/sessions/:id/attempts", handlers.AttemptAdmin.ListAttempts)
		teacherAPI.GET("/sessions/:id/results", handlers.AttemptAdmin.ListResults)
		teacherAPI.PATCH("/attempts/:id/status", handlers.AttemptAdmin.SetAttemptStatus)
		teacherAPI.GET("/attempts/:id/result", handlers.AttemptAdmin.GetAttemptResult)
	}

	return router
}
