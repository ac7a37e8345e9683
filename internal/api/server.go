// Package api is the HTTP surface of the art service.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/dyluth/easel/internal/metrics"
	"github.com/dyluth/easel/pkg/gallery"
	"github.com/gorilla/mux"
)

// Records is the record store the handlers call into.
type Records interface {
	CreateRecord(ctx context.Context, req gallery.CreateRequest) (*gallery.ArtRecord, error)
	ListRecords(ctx context.Context, opts gallery.ListOptions) (*gallery.ListResult, error)
	GetRecord(ctx context.Context, id string) (*gallery.ArtRecord, bool, error)
	DeleteRecord(ctx context.Context, id string) (bool, error)
	Ping(ctx context.Context) error
}

// Options configures a Server.
type Options struct {
	Addr         string
	StaticDir    string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Logger       *slog.Logger
	Metrics      *metrics.Metrics
}

// Server routes HTTP requests to the record store.
type Server struct {
	records   Records
	logger    *slog.Logger
	metrics   *metrics.Metrics
	staticDir string
	router    *mux.Router
	server    *http.Server
}

// NewServer creates a server. It does not listen until ListenAndServe or
// Serve is called.
func NewServer(records Records, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.StaticDir == "" {
		opts.StaticDir = "."
	}

	s := &Server{
		records:   records,
		logger:    opts.Logger.With("component", "api"),
		metrics:   opts.Metrics,
		staticDir: opts.StaticDir,
		router:    mux.NewRouter(),
	}
	s.registerRoutes()

	s.server = &http.Server{
		Addr:         opts.Addr,
		Handler:      s.router,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	}
	return s
}

func (s *Server) registerRoutes() {
	s.router.Use(s.logRequests)

	s.router.HandleFunc("/api/art", s.createArt).Methods(http.MethodPost)
	s.router.HandleFunc("/api/art", s.listArt).Methods(http.MethodGet)
	s.router.HandleFunc("/api/art/{id}", s.getArt).Methods(http.MethodGet)
	s.router.HandleFunc("/api/art/{id}", s.deleteArt).Methods(http.MethodDelete)

	s.router.HandleFunc("/", s.servePage("index.html")).Methods(http.MethodGet)
	s.router.HandleFunc("/parse", s.servePage("parse.html")).Methods(http.MethodGet)

	s.router.HandleFunc("/healthz", s.healthCheck).Methods(http.MethodGet)
	s.router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe listens on the configured address. It returns nil after
// Shutdown.
func (s *Server) ListenAndServe() error {
	s.logger.Info("listening", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Serve accepts connections on l. It returns nil after Shutdown.
func (s *Server) Serve(l net.Listener) error {
	s.logger.Info("listening", "addr", l.Addr().String())
	if err := s.server.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
