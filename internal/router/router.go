package router

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/studymate/studymate-backend/internal/config"
	"github.com/studymate/studymate-backend/internal/handler"
	"github.com/studymate/studymate-backend/internal/middleware"
	"github.com/studymate/studymate-backend/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth       *handler.AuthHandler
	Note       *handler.NoteHandler
	Moderation *handler.ModerationHandler
	Exam       *handler.ExamHandler
	WS         *handler.WSHandler
	Report     *handler.ReportHandler
	System     *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// ctx bounds background work such as the rate limiter cleanup.
func SetupRouter(
	ctx context.Context,
	auth middleware.TokenValidator,
	handlers *Handlers,
	cfg *config.Config,
	log zerolog.Logger,
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
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Content-Disposition"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Every response carries a request ID and every handler a logger tagged with it.
	router.Use(response.RequestIDMiddleware(log.With().Str("component", "http").Logger()))

	// Spreadsheets are already zip-compressed; streams flush per event.
	brotliConfig := middleware.DefaultBrotliConfig
	brotliConfig.Skipper = middleware.SkipPathSuffix("/export", "/stream", "/metrics")
	router.Use(middleware.BrotliWithConfig(brotliConfig))

	router.GET("/health", handlers.System.Health)

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(ctx, 30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	authAPI := router.Group("/api/v1/auth")
	{
		authAPI.POST("/login", authLimiter.Middleware(), handlers.Auth.Login)
		authAPI.GET("/me", middleware.RequireJWT(auth), handlers.Auth.Me)
	}

	api := router.Group("/api/v1")
	api.Use(middleware.RequireJWT(auth))

	// ─── 2. Notes ──────────────────────────────────────────────────────
	notes := api.Group("/notes")
	{
		notes.GET("", handlers.Note.ListMine)
		notes.POST("", handlers.Note.Create)
		notes.GET("/shared", handlers.Note.ListShared)
		notes.GET("/:id", handlers.Note.Get)
		notes.PUT("/:id", handlers.Note.Update)
		notes.DELETE("/:id", handlers.Note.Delete)
		notes.POST("/:id/exam", middleware.NoStore(), handlers.Exam.StartExam)
	}

	// ─── 3. Moderation ─────────────────────────────────────────────────
	moderation := api.Group("/moderation")
	{
		moderation.GET("/flagged", handlers.Moderation.ListFlagged)
		moderation.GET("/questions", handlers.Moderation.ListQuestions)
		moderation.PATCH("/questions/:id", handlers.Moderation.Moderate)
	}

	// ─── 4. Exam Sessions ──────────────────────────────────────────────
	exams := api.Group("/exams")
	exams.Use(middleware.NoStore())
	{
		exams.GET("/:session_id", handlers.Exam.GetSession)
		exams.PUT("/:session_id/selections", handlers.Exam.RecordSelection)
		exams.POST("/:session_id/submit", handlers.Exam.Submit)
		exams.DELETE("/:session_id", handlers.Exam.Abandon)
	}

	// ─── 5. Reports ────────────────────────────────────────────────────
	reports := api.Group("/reports")
	{
		reports.POST("", handlers.Report.Create)
		reports.GET("", handlers.Report.List)
		reports.GET("/export", handlers.Report.Export)
	}

	// ─── 6. Admin ──────────────────────────────────────────────────────
	admin := api.Group("/admin")
	admin.Use(middleware.RequireAdmin())
	{
		admin.GET("/system/metrics", handlers.System.SystemMetricsSSE)
	}

	// ─── 7. WebSocket Group (Query Token Auth) ─────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireWSAuth(auth))
	{
		ws.GET("/exams/:session_id/stream", handlers.WS.ExamWebSocketStream)
	}

	return router
}
