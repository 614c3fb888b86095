package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/invoicesheet/internal/config"
	"github.com/dgallion1/invoicesheet/internal/metrics"
	"github.com/dgallion1/invoicesheet/internal/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP front end: the upload pages, the download endpoint
// and the JSON API.
type Server struct {
	router    chi.Router
	converter *pipeline.Converter
	metrics   *metrics.Metrics
	log       *slog.Logger
	cfg       config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(conv *pipeline.Converter, m *metrics.Metrics, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		converter: conv,
		metrics:   m,
		log:       log,
		cfg:       cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", s.metrics.Handler())

	// Browser pages.
	r.Get("/", s.handleIndex)
	r.Post("/convert", s.handleConvertPage)
	r.Get("/download/{resultID}", s.handleDownload)

	// JSON API, behind a bearer token when one is configured.
	r.Group(func(r chi.Router) {
		if s.cfg.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
		}
		r.Post("/api/convert", s.handleConvertAPI)
		r.Get("/api/stats", s.handleStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
