package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	corslib "github.com/rs/cors"

	"leaguedash/internal/cache"
	"leaguedash/internal/config"
	"leaguedash/internal/repository"
)

// NewRouter creates and configures the chi router with all middleware and
// routes
func NewRouter(svc Provider, redisCache *cache.RedisCache, db *repository.Database, cfg *config.Config) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(TimingMiddleware)
	r.Use(MetricsMiddleware)
	r.Use(middleware.Compress(5)) // gzip

	c := corslib.New(corslib.Options{
		AllowedOrigins:   cfg.CORSAllowOrigins,
		AllowedMethods:   []string{"GET", "POST", "HEAD", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Encoding", "Content-Type", "Cache-Control"},
		ExposedHeaders:   []string{"X-Process-Time", "Retry-After"},
		AllowCredentials: false,
	})
	r.Use(c.Handler)

	if cfg.RateLimitEnabled {
		r.Use(RateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst))
	}

	h := NewHandler(svc, redisCache, db, cfg)

	r.Get("/", h.Root)

	r.Route("/health", func(r chi.Router) {
		r.Get("/", h.HealthCheck)
		r.Get("/db", h.HealthCheckDB)
		r.Get("/cache", h.HealthCheckCache)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/seasons", h.ListSeasons)
		r.Get("/seasons/{season}/standings", h.GetStandings)
		r.Get("/seasons/{season}/scores", h.GetScores)
		r.Get("/rivalries", h.GetRivalries)
		r.Get("/compare", h.CompareSeasons)
		r.Post("/seasons/{season}/refresh", h.TriggerRefresh)
	})

	return r
}
