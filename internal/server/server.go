// Package server wires the daemon together: it is the composition root where
// every dependency is constructed once and passed down explicitly. Nothing in
// the layers below reaches for a process-global — a test (or a second daemon
// in one process) builds its own graph.
//
// DEPENDENCY GRAPH:
//
//	state store → secret vault → credential store ┐
//	remote store factory ─────────────────────────┼→ sync engine → auto-sync
//	spotify / assistant adapters ─────────────────┘
//	service layer → handlers → router
package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/zenjispace/zenjid/internal/auth"
	"github.com/zenjispace/zenjid/internal/config"
	"github.com/zenjispace/zenjid/internal/handler"
	"github.com/zenjispace/zenjid/internal/integrations/assistant"
	"github.com/zenjispace/zenjid/internal/integrations/spotify"
	"github.com/zenjispace/zenjid/internal/middleware"
	"github.com/zenjispace/zenjid/internal/remote"
	"github.com/zenjispace/zenjid/internal/secrets"
	"github.com/zenjispace/zenjid/internal/service"
	"github.com/zenjispace/zenjid/internal/state"
	"github.com/zenjispace/zenjid/internal/sync"
)

// Server owns the HTTP router and every long-lived resource behind it. Start
// blocks until shutdown and releases the resources in reverse order.
type Server struct {
	router *chi.Mux
	cfg    *config.Config
	logger *slog.Logger

	local    state.Store
	remote   remote.Store
	autosync *sync.AutoSync
}

// New builds the full dependency graph from the configuration.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	// === local storage ===
	if dir := filepath.Dir(cfg.StatePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}
	local, err := state.NewSQLite(cfg.StatePath)
	if err != nil {
		return nil, fmt.Errorf("opening state store: %w", err)
	}

	vault, err := secrets.New(local, cfg.KeyPath)
	if err != nil {
		local.Close()
		return nil, fmt.Errorf("opening secret store: %w", err)
	}

	// === identity ===
	jwtSecret := cfg.JWTSecret
	if jwtSecret == "" {
		// Ephemeral secret: the dashboard just logs in again after a restart.
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			local.Close()
			return nil, fmt.Errorf("generating JWT secret: %w", err)
		}
		jwtSecret = hex.EncodeToString(buf)
		logger.Warn("no JWT secret configured; using an ephemeral one")
	}
	tokens, err := auth.NewTokenService(jwtSecret)
	if err != nil {
		local.Close()
		return nil, err
	}

	provider := auth.NewGitHubProvider(cfg.GitHub.ClientID, cfg.GitHub.ClientSecret, cfg.GitHub.CallbackURL)
	sessions := auth.NewStore(provider, local, logger)

	// === remote store ===
	remoteStore, err := remote.New(cfg.Remote)
	if err != nil {
		local.Close()
		return nil, fmt.Errorf("configuring remote store: %w", err)
	}

	// === integration adapters ===
	// The mock and real Spotify variants are deliberate alternatives behind
	// one interface; the choice is a deployment switch, never a runtime merge.
	var spotifyAdapter spotify.Adapter
	if cfg.Spotify.Mock || cfg.Spotify.ClientID == "" {
		spotifyAdapter = spotify.NewMock(logger)
	} else {
		spotifyAdapter = spotify.NewReal(cfg.Spotify, vault, logger)
	}
	assistantAdapter := assistant.New(cfg.Assistant, vault, logger)

	// === sync ===
	events := handler.NewEventHub(logger)
	engine, err := sync.New(local, remoteStore, sessions, spotifyAdapter, events, logger)
	if err != nil {
		local.Close()
		return nil, fmt.Errorf("creating sync engine: %w", err)
	}
	autosync := sync.NewAutoSync(engine, sessions, cfg.AutoSyncDebounce, logger)

	// === service and handlers ===
	dashboard := service.NewDashboard(local, assistantAdapter, autosync, logger)

	authHandler := handler.NewAuthHandler(provider, sessions, tokens, logger)
	dashboardHandler := handler.NewDashboardHandler(dashboard, logger)
	spotifyHandler := handler.NewSpotifyHandler(spotifyAdapter, logger)
	syncHandler := handler.NewSyncHandler(engine, logger)

	s := &Server{
		router:   chi.NewRouter(),
		cfg:      cfg,
		logger:   logger,
		local:    local,
		remote:   remoteStore,
		autosync: autosync,
	}
	s.routes(authHandler, dashboardHandler, spotifyHandler, syncHandler, events, tokens)

	return s, nil
}

// routes registers middleware and every endpoint of the message contract.
func (s *Server) routes(
	authHandler *handler.AuthHandler,
	dashboardHandler *handler.DashboardHandler,
	spotifyHandler *handler.SpotifyHandler,
	syncHandler *handler.SyncHandler,
	events *handler.EventHub,
	tokens *auth.TokenService,
) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	// Auth dance — public by nature.
	s.router.Get("/auth/github/login", authHandler.HandleLogin)
	s.router.Get("/auth/github/callback", authHandler.HandleCallback)
	s.router.Get("/auth/spotify/callback", spotifyHandler.HandleCallback)
	s.router.Post("/auth/logout", authHandler.HandleLogout)

	s.router.Route("/api", func(r chi.Router) {
		// Public probe: the dashboard polls this before it has a token.
		r.Get("/session", authHandler.HandleSession)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))

			r.Get("/user-data", dashboardHandler.HandleGetUserData)
			r.Put("/profile", dashboardHandler.HandleUpdateProfile)
			r.Put("/journal", dashboardHandler.HandleSaveJournal)
			r.Put("/sound", dashboardHandler.HandleUpdateSound)
			r.Put("/tabs", dashboardHandler.HandleTabs)
			r.Post("/sessions", dashboardHandler.HandleRecordSession)
			r.Post("/chat", dashboardHandler.HandleChat)
			r.Delete("/data", dashboardHandler.HandleClearData)

			r.Post("/spotify/connection", spotifyHandler.HandleConnect)
			r.Delete("/spotify/connection", spotifyHandler.HandleDisconnect)
			r.Get("/spotify/playlists", spotifyHandler.HandlePlaylists)
			r.Post("/spotify/playback", spotifyHandler.HandlePlayback)

			r.Post("/sync/push", syncHandler.HandlePush)
			r.Post("/sync/pull", syncHandler.HandlePull)

			r.Get("/events", events.HandleEvents)
		})
	})
}

// Start runs the daemon until SIGINT/SIGTERM and shuts down gracefully:
// stop accepting requests, drain in-flight ones, stop the auto-sync worker,
// then close the remote and local stores.
func (s *Server) Start() error {
	defer s.local.Close()

	s.autosync.Start(context.Background())
	defer s.autosync.Stop()

	// No global read/write timeouts: the /api/events websocket stream stays
	// open for the dashboard's whole lifetime.
	srv := &http.Server{
		Addr:              fmt.Sprintf("localhost:%d", s.cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("daemon listening",
			slog.Int("port", s.cfg.Port),
			slog.String("remoteBackend", s.cfg.Remote.Backend),
			slog.String("statePath", s.cfg.StatePath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		if err := s.remote.Close(ctx); err != nil {
			s.logger.Warn("closing remote store", slog.String("error", err.Error()))
		}
		s.logger.Info("daemon stopped gracefully")
	}

	return nil
}
