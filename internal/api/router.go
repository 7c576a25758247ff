package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"casematch-lab/internal/api/handlers"
	apimiddleware "casematch-lab/internal/api/middleware"
	"casematch-lab/internal/config"
	"casematch-lab/internal/infrastructure/cache"
	"casematch-lab/pkg/logger"
)

// Router holds dependencies for the API router
type Router struct {
	config   config.Config
	handlers *handlers.Handlers
	cache    *cache.RedisCache
	logger   *logger.Logger
}

// NewRouter creates a new Router instance
func NewRouter(cfg config.Config, h *handlers.Handlers, c *cache.RedisCache, log *logger.Logger) *Router {
	return &Router{
		config:   cfg,
		handlers: h,
		cache:    c,
		logger:   log.WithComponent("router"),
	}
}

// Setup sets up the Chi router with all routes and middleware
func (r *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Core middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(apimiddleware.Logger(r.logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(30 * time.Second))

	// CORS
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   r.config.CORS.AllowedOrigins,
		AllowedMethods:   r.config.CORS.AllowedMethods,
		AllowedHeaders:   r.config.CORS.AllowedHeaders,
		AllowCredentials: r.config.CORS.AllowCredentials,
		MaxAge:           r.config.CORS.MaxAge,
	}))

	// Public routes
	router.Group(func(pub chi.Router) {
		pub.Get("/health", r.handlers.Health.Check)
		pub.Get("/ready", r.handlers.Health.Ready)
	})

	// API v1 routes (authenticated)
	router.Route("/api/v1", func(api chi.Router) {
		api.Use(apimiddleware.APIKeyAuth(r.config.Auth.APIKey))

		if r.config.RateLimit.Enabled && r.cache != nil {
			api.Use(apimiddleware.RateLimiter(r.cache, r.config.RateLimit))
		}

		api.Get("/stats", r.handlers.Stats.Get)

		// Case store endpoints
		api.Route("/cases", func(cases chi.Router) {
			cases.Post("/", r.handlers.Cases.Create)
			cases.Get("/", r.handlers.Cases.List)
			cases.Get("/{id}", r.handlers.Cases.Get)
			cases.Post("/prune", r.handlers.Cases.Prune)
		})

		// Similarity query
		api.Post("/match", r.handlers.Match.Find)
	})

	return router
}
