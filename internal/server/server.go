// Package server exposes the synth control operations over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cwbudde/algo-synth/internal/audio"
	"github.com/cwbudde/algo-synth/internal/store"
)

const maxBodyBytes = 1 << 20

// Config holds server configuration.
type Config struct {
	Addr string
	// Store backs the /store routes. Nil disables them.
	Store  *store.Store
	Logger *slog.Logger
}

// Server is the HTTP control surface.
type Server struct {
	config Config
	router *chi.Mux
	player *audio.Player
	logger *slog.Logger
}

// New returns a server controlling p.
func New(p *audio.Player, cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		config: cfg,
		router: chi.NewRouter(),
		player: p,
		logger: logger,
	}
	s.setupRoutes()
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) setupRoutes() {
	r := s.router

	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  slog.NewLogLogger(s.logger.Handler(), slog.LevelDebug),
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestSize(maxBodyBytes))

	r.Get("/health", s.handleHealth)

	r.Get("/settings", s.handleGetSettings)
	r.Patch("/settings", s.handlePatchSettings)

	r.Route("/notes/{note}", func(r chi.Router) {
		r.Post("/on", s.handleNoteOn)
		r.Post("/off", s.handleNoteOff)
	})
	r.Delete("/notes", s.handleReleaseAll)

	r.Get("/scale", s.handleGetScale)
	r.Post("/scale/{pc}/toggle", s.handleToggleScale)
	r.Delete("/scale", s.handleResetScale)

	r.Put("/reverb/time", s.handleReverbTime)

	r.Get("/preset", s.handleExport)
	r.Put("/preset", s.handleImport)

	r.Get("/presets", s.handleListPresets)
	r.Post("/presets/voice/{name}", s.handleVoicePreset)
	r.Post("/presets/style/{name}", s.handleStylePreset)

	if s.config.Store != nil {
		r.Route("/store", func(r chi.Router) {
			r.Get("/", s.handleStoreKeys)
			r.Post("/{key}/save", s.handleStoreSave)
			r.Post("/{key}/load", s.handleStoreLoad)
			r.Delete("/{key}", s.handleStoreDelete)
		})
	}
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", s.config.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan error, 1)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		done <- srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("control server listening", "addr", ln.Addr().String())
	if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: %w", err)
	}
	if err := <-done; err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
