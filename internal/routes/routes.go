package routes

import (
	"net/http"
	"time"

	"github.com/synapsocial/synapsocial/internal/app"
	"github.com/synapsocial/synapsocial/internal/handler"
	"github.com/synapsocial/synapsocial/internal/middleware"
)

// SetupRoutes builds the JSON API. The returned limiter must be closed on shutdown.
func SetupRoutes(app *app.App) (http.Handler, *middleware.RateLimiter) {
	// Handlers
	health := handler.NewHealthHandler(app.DB)
	ai := handler.NewAIHandler(app.GenerateService)
	publish := handler.NewPublishHandler(app.PublishService, app.Cfg.UploadDir)
	engagement := handler.NewEngagementHandler(app.EngagementService)
	platforms := handler.NewPlatformHandler(app.AccountService, app.Gate)

	// AI and publish calls reach paid or quota-limited upstreams
	limiter := middleware.NewRateLimiter(30, time.Minute)
	limited := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.RequireAuth(limiter.Middleware(h))
	}

	mux := http.NewServeMux()

	// ============================================================================
	// PUBLIC ROUTES
	// ============================================================================

	mux.HandleFunc("GET /api/health", health.Health)

	// ============================================================================
	// PROTECTED ROUTES (/api/*)
	// ============================================================================

	// AI
	mux.HandleFunc("POST /api/ai/chat", limited(ai.Chat))

	// Publishing
	mux.HandleFunc("POST /api/publish/{platform}", limited(publish.Publish))
	mux.HandleFunc("POST /api/publish/{platform}/upload", limited(publish.Upload))

	// Engagement
	mux.HandleFunc("GET /api/engagement/{platform}/comments", middleware.RequireAuth(engagement.Comments))
	mux.HandleFunc("POST /api/engagement/{platform}/suggest", limited(engagement.Suggest))
	mux.HandleFunc("POST /api/engagement/{platform}/reply", middleware.RequireAuth(engagement.Reply))

	// Platforms
	mux.HandleFunc("GET /api/platforms/status", middleware.RequireAuth(platforms.Status))
	mux.HandleFunc("POST /api/platforms/permissions", middleware.RequireAuth(platforms.SetPermission))
	mux.HandleFunc("POST /api/platforms/{platform}/disconnect", middleware.RequireAuth(platforms.Disconnect))

	// ============================================================================
	// FALLBACK
	// ============================================================================

	mux.HandleFunc("/{path...}", handler.NotFound)

	// Global middleware - executed in order (top to bottom)
	h := middleware.Chain(
		mux,
		middleware.Config(app.Cfg), // Config must be first (CSRF reads APP_ENV for the cookie flag)
		middleware.Auth(app.AuthService),
		middleware.RequestLogging, // after Auth so requests are logged with the user id
		middleware.CSRFProtection,
	)

	return h, limiter
}
