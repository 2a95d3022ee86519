package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"gagyebu/internal/core"
	"gagyebu/internal/log"
	"gagyebu/internal/services"
	"gagyebu/internal/sheets"
)

type Server struct {
	http.Server
	records  *services.RecordService
	applier  *services.RecurringApplier
	exporter sheets.Exporter
	logger   *log.Logger
	now      func() time.Time

	rateLimit    int
	rateLimiter  *rateLimiter
	metrics      *securityMetrics
	shutdownOnce sync.Once
}

type Option func(*Server)

// WithExporter enables POST /api/export/sheets.
func WithExporter(e sheets.Exporter) Option {
	return func(s *Server) { s.exporter = e }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l.WithComponent(log.ComponentHTTP)
		}
	}
}

// WithClock replaces time.Now when resolving "today".
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithRateLimit sets the per-client requests per minute; 0 disables limiting.
func WithRateLimit(perMinute int) Option {
	return func(s *Server) { s.rateLimit = perMinute }
}

func WithTimeouts(read, write time.Duration) Option {
	return func(s *Server) {
		s.ReadTimeout = read
		s.WriteTimeout = write
	}
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, records *services.RecordService, applier *services.RecurringApplier, opts ...Option) *Server {
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       60 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			MaxHeaderBytes:    1 << 16,
		},
		records:   records,
		applier:   applier,
		logger:    log.Discard(),
		now:       time.Now,
		rateLimit: DefaultRequestsPerMinute,
		metrics:   &securityMetrics{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rateLimit > 0 {
		s.rateLimiter = newRateLimiter(s.rateLimit)
	}

	s.Handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(log.Middleware(s.logger))
	r.Use(log.RequestIDMiddleware(func(r *http.Request) string {
		return middleware.GetReqID(r.Context())
	}))
	r.Use(log.AccessLog)
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders)
	r.Use(s.guard)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		NotFoundError("not found").Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		ErrorResponse(http.StatusMethodNotAllowed, "method not allowed").Write(w)
	})

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/records", func(r chi.Router) {
			r.Get("/", s.handleListRecords)
			r.Post("/", s.handleCreateRecord)
			r.Get("/{id}", s.handleGetRecord)
			r.Patch("/{id}", s.handleUpdateRecord)
			r.Delete("/{id}", s.handleDeleteRecord)
		})
		r.Route("/recurring", func(r chi.Router) {
			r.Get("/", s.handleListRecurring)
			r.Post("/", s.handleCreateRecurring)
			r.Post("/apply", s.handleApplyAllRecurring)
			r.Patch("/{id}", s.handleUpdateRecurring)
			r.Delete("/{id}", s.handleDeleteRecurring)
			r.Post("/{id}/apply", s.handleApplyRecurring)
		})
		r.Get("/stats", s.handleStats)
		r.Get("/categories", s.handleCategories)
		r.Post("/export/sheets", s.handleExportSheets)
	})
	return r
}

func (s *Server) today() core.Date {
	return core.Today(s.now())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	NewJSONResponse().Payload(map[string]string{"status": "ok"}).Write(w)
}

// Shutdown stops the rate limiter and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
