package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"orgsite-client/internal/domain"
	"orgsite-client/internal/middleware"
	"orgsite-client/internal/repository/memory"
)

// RouterConfig tunes the mock backend router.
type RouterConfig struct {
	AllowedOrigins []string
	// Per-IP limits; zero disables the limiter.
	AuthRate  float64
	AuthBurst int
	APIRate   float64
	APIBurst  int
	// RequestLog enables chi's request logger.
	RequestLog bool
}

// DefaultRouterConfig mirrors the limits of a small public deployment.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		AllowedOrigins: []string{"*"},
		AuthRate:       5,
		AuthBurst:      10,
		APIRate:        20,
		APIBurst:       50,
		RequestLog:     true,
	}
}

// NewRouter wires the backend routes onto store. ctx bounds the rate
// limiter cleanup goroutines.
func NewRouter(ctx context.Context, store *memory.Store, cfg RouterConfig) (http.Handler, error) {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	if cfg.RequestLog {
		r.Use(chimiddleware.Logger)
	}
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.Metrics())

	r.Get("/", Health(store))
	r.Handle("/metrics", promhttp.Handler())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteDetail(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	auth := NewAuthHandler(store.Accounts)
	r.Group(func(r chi.Router) {
		if cfg.AuthRate > 0 {
			r.Use(middleware.NewRateLimiter(ctx, cfg.AuthRate, cfg.AuthBurst).Middleware())
		}
		r.Post("/login", auth.Login)
		r.Post("/register", auth.Register)
	})

	requireToken := middleware.Bearer(store.Accounts)
	var limit func(http.Handler) http.Handler
	if cfg.APIRate > 0 {
		limit = middleware.NewRateLimiter(ctx, cfg.APIRate, cfg.APIBurst).Middleware()
	}

	for _, kind := range domain.AllKinds {
		records, err := store.Collection(kind)
		if err != nil {
			return nil, err
		}
		h := NewResourceHandler(kind, records)
		collection, item := kind.Path(), kind.ItemPath("{id}")

		r.Group(func(r chi.Router) {
			if limit != nil {
				r.Use(limit)
			}

			r.Group(func(r chi.Router) {
				if kind.RequiresSession() {
					r.Use(requireToken)
				}
				r.Get(collection, h.List)
				r.Get(item, h.Get)
			})

			r.Group(func(r chi.Router) {
				r.Use(requireToken)
				r.Post(collection, h.Create)
				r.Put(item, h.Update)
				r.Delete(item, h.Delete)
			})
		})
	}

	return r, nil
}
