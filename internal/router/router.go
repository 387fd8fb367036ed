package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stemsi/quizrunner/internal/config"
	"github.com/stemsi/quizrunner/internal/handler"
	"github.com/stemsi/quizrunner/internal/middleware"
	"github.com/stemsi/quizrunner/internal/response"
	"github.com/stemsi/quizrunner/internal/view"
)

// sessionCookieName is the cookie holding the browser's handoff and session ids.
const sessionCookieName = "quizrunner"

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Page    *handler.PageHandler
	Quiz    *handler.QuizHandler
	Session *handler.SessionHandler
	WS      *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// ctx bounds background goroutines owned by the router, such as the rate
// limiter's cleanup loop.
func SetupRouter(ctx context.Context, handlers *Handlers, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
		corsConfig.AllowCredentials = true
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", response.HeaderRequestID}
	corsConfig.ExposeHeaders = []string{response.HeaderRequestID}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	// ─── Cookie Session ────────────────────────────────────────────────
	// The cookie only carries opaque ids; quiz data never leaves the server.
	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.SessionIdle.Seconds()),
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	router.Use(sessions.Sessions(sessionCookieName, store))

	router.SetHTMLTemplate(view.Templates())

	// Embedded stylesheet, cached for a day.
	staticGroup := router.Group("/static")
	staticGroup.Use(middleware.CacheControl(86400))
	{
		staticGroup.StaticFS("/", view.Static())
	}

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Every landing visit hits the upstream quiz source, so it is rate limited
	// per client IP.
	loaderLimiter := middleware.NewRateLimiter(ctx, cfg.LoaderRatePerMinute, time.Minute)

	// ─── 1. Browser Pages (Cookie Session) ─────────────────────────────
	pages := router.Group("/")
	pages.Use(middleware.NoStore())
	{
		pages.GET("/", loaderLimiter.Middleware(), handlers.Page.Landing)
		pages.POST("/start", handlers.Page.Start)
		pages.GET("/quiz", handlers.Page.Quiz)
		pages.POST("/quiz/answer", handlers.Page.Answer)
		pages.POST("/quiz/next", handlers.Page.Next)
		pages.POST("/quiz/retake", handlers.Page.Retake)
		pages.POST("/quiz/panel", handlers.Page.OpenPanel)
		pages.POST("/quiz/panel/close", handlers.Page.ClosePanel)
		pages.POST("/quiz/home", handlers.Page.Home)
		pages.GET("/quiz/stream", handlers.WS.PageStream)
	}

	// ─── 2. JSON API ───────────────────────────────────────────────────
	api := router.Group("/api/v1")
	api.Use(middleware.NoStore())
	{
		api.GET("/quiz", loaderLimiter.Middleware(), handlers.Quiz.GetQuiz)

		api.POST("/sessions", handlers.Session.CreateSession)
		api.GET("/sessions/:id", handlers.Session.GetSession)
		api.DELETE("/sessions/:id", handlers.Session.EndSession)
		api.POST("/sessions/:id/answer", handlers.Session.Answer)
		api.POST("/sessions/:id/advance", handlers.Session.Advance)
		api.POST("/sessions/:id/retake", handlers.Session.Retake)
		api.POST("/sessions/:id/panel", handlers.Session.OpenPanel)
		api.DELETE("/sessions/:id/panel", handlers.Session.ClosePanel)
		api.GET("/sessions/:id/panels/:panel", handlers.Session.GetPanel)
	}

	// ─── 3. WebSocket Group ────────────────────────────────────────────
	ws := router.Group("/ws/v1")
	{
		ws.GET("/sessions/:id/stream", handlers.WS.SessionStream)
	}

	return router
}
