// Package server exposes the expenditure service over HTTP.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"gitlab.com/yelinaung/expense-splitter/internal/auth"
	"gitlab.com/yelinaung/expense-splitter/internal/service"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Options tunes the HTTP layer.
type Options struct {
	// RequestTimeout bounds every request. Zero disables the timeout.
	RequestTimeout time.Duration
	// Development adds error details to 500 responses.
	Development bool
}

// Server routes HTTP requests to the service.
type Server struct {
	svc      *service.Service
	verifier *auth.Verifier
	opts     Options
	now      func() time.Time
}

// New creates a Server.
func New(svc *service.Service, verifier *auth.Verifier, opts Options) *Server {
	return &Server{
		svc:      svc,
		verifier: verifier,
		opts:     opts,
		now:      time.Now,
	}
}

// Handler returns the root handler, instrumented with OpenTelemetry.
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.routes(), "http.server",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestID)
	r.Use(requestLogger)
	r.Use(recoverer)
	if s.opts.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.opts.RequestTimeout))
	}

	r.Get("/healthz", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(s.verifier, s.svc.Users()))

		r.Route("/expenditures", func(r chi.Router) {
			r.Post("/", s.handleCreate)
			r.Get("/", s.handleList)
			r.Get("/statistics", s.handleStatistics)
			r.Get("/statistics/chart", s.handleStatisticsChart)
			r.Get("/settlements", s.handleSettlements)
			r.Get("/export", s.handleExport)
			r.Post("/suggest-category", s.handleSuggestCategory)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGet)
				r.Patch("/", s.handleUpdate)
				r.Delete("/", s.handleDelete)
				r.Post("/mark-paid", s.handleMarkPaid)
			})
		})
	})

	return r
}
