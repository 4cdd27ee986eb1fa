package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stemsi/quizguard-backend/internal/config"
	"github.com/stemsi/quizguard-backend/internal/handler"
	"github.com/stemsi/quizguard-backend/internal/middleware"
	"github.com/stemsi/quizguard-backend/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Quiz    *handler.QuizHandler
	Teacher *handler.TeacherHandler
	Monitor *handler.MonitorHandler
	WS      *handler.WSHandler
	System  *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// tabSwitchLimit guards the tab-switch endpoint; nil disables it.
func SetupRouter(
	handlers *Handlers,
	tabSwitchLimit gin.HandlerFunc,
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
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Retry-After"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())

	// Health check.
	if handlers.System != nil {
		router.GET("/health", handlers.System.Health)
	} else {
		router.GET("/health", func(c *gin.Context) {
			response.Success(c, http.StatusOK, gin.H{"status": "ok"})
		})
	}

	// ─── 1. Student Quiz Group ─────────────────────────────────────────
	quizAPI := router.Group("/api/quiz")
	{
		tabSwitch := []gin.HandlerFunc{handlers.Quiz.RecordTabSwitch}
		if tabSwitchLimit != nil {
			tabSwitch = append([]gin.HandlerFunc{tabSwitchLimit}, tabSwitch...)
		}
		quizAPI.POST("/:quizId/tab-switch", tabSwitch...)
		quizAPI.POST("/:quizId/resume-request", handlers.Quiz.CreateResumeRequest)
		quizAPI.POST("/:quizId/submit", handlers.Quiz.SubmitAttempt)
		quizAPI.GET("/:quizId", middleware.CacheControl(60), handlers.Quiz.GetQuiz)
		quizAPI.GET("/:quizId/student/:studentId/status", middleware.NoStore(), handlers.Quiz.GetAttemptStatus)
	}

	// ─── 2. Teacher Group ──────────────────────────────────────────────
	teacherAPI := router.Group("/api/teacher")
	teacherAPI.Use(middleware.NoStore())
	{
		// List endpoints can grow large; the monitor stream must stay unbuffered.
		compress := middleware.Compress(middleware.DefaultCompressMinLength)

		teacherAPI.GET("/resume-requests", compress, handlers.Teacher.ListResumeRequests)
		teacherAPI.GET("/resume-requests/export", handlers.Teacher.ExportResumeRequests)
		teacherAPI.GET("/requests-summary", handlers.Teacher.RequestsSummary)
		teacherAPI.POST("/resume-requests/:id/approve", handlers.Teacher.ApproveResumeRequest)
		teacherAPI.POST("/resume-requests/:id/reject", handlers.Teacher.RejectResumeRequest)
		teacherAPI.GET("/activity", compress, handlers.Teacher.ListActivity)
		if handlers.Monitor != nil {
			teacherAPI.GET("/monitor", handlers.Monitor.MonitorSSE)
		}
	}

	// ─── 3. WebSocket Group ────────────────────────────────────────────
	if handlers.WS != nil {
		ws := router.Group("/ws")
		{
			ws.GET("/quiz/:quizId/student/:studentId/stream", handlers.WS.StudentStream)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	})

	return router
}
