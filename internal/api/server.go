// Package api provides the HTTP API server and handlers for the tree menu server.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/treemenu/treemenu-server/internal/auth"
	"github.com/treemenu/treemenu-server/internal/config"
	"github.com/treemenu/treemenu-server/internal/id"
	"github.com/treemenu/treemenu-server/internal/metrics"
	"github.com/treemenu/treemenu-server/internal/ratelimit"
	"github.com/treemenu/treemenu-server/internal/routes"
	"github.com/treemenu/treemenu-server/internal/search"
	"github.com/treemenu/treemenu-server/internal/service"
)

// Services groups everything the handlers depend on.
// Search and Metrics may be nil.
type Services struct {
	Menu    *service.MenuService
	Search  *search.SearchIndex
	Routes  *routes.Registry
	Tokens  *auth.TokenService
	Metrics *metrics.Metrics
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	api          huma.API
	router       chi.Router
	services     *Services
	writeLimiter *ratelimit.KeyedRateLimiter
	logger       *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(cfg *config.Config, services *Services, logger *slog.Logger) *Server {
	router := chi.NewRouter()

	s := &Server{
		router:       router,
		services:     services,
		writeLimiter: ratelimit.New(cfg.RateLimit.WriteRPS, cfg.RateLimit.WriteBurst),
		logger:       logger,
	}

	// chi middleware must be registered before any route.
	s.setupMiddleware(cfg)

	humaConfig := huma.DefaultConfig("Tree Menu API", "1.0.0")
	humaConfig.Info.Description = "Named hierarchical menus with active item tracking"
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	s.api = humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s.registerHealthRoutes()
	s.registerMenuRoutes()
	s.registerItemRoutes()
	s.registerSearchRoutes()
	s.registerRouteRoutes()
	s.registerAdminRoutes()

	if services.Metrics != nil {
		router.Handle("/metrics", services.Metrics.Handler())
	}

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API exposes the huma API, mainly for tests and OpenAPI export.
func (s *Server) API() huma.API {
	return s.api
}

// Close stops background work owned by the server.
func (s *Server) Close() {
	s.writeLimiter.Stop()
}

func (s *Server) setupMiddleware(cfg *config.Config) {
	s.router.Use(requestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	if s.services.Metrics != nil {
		s.router.Use(s.services.Metrics.InstrumentHandler)
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "Retry-After"},
		MaxAge:         300,
	}))
}

// requestID tags each request with a short id, reusing one sent by the client.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(middleware.RequestIDHeader)
		if reqID == "" {
			generated, err := id.Short(id.PrefixRequest)
			if err == nil {
				reqID = generated
			}
		}
		w.Header().Set(middleware.RequestIDHeader, reqID)
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
