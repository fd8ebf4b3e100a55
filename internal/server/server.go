package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/TRIADBLUE/consoleblue/internal/assembly"
	"github.com/TRIADBLUE/consoleblue/internal/db"
	"github.com/TRIADBLUE/consoleblue/internal/fragment"
	"github.com/TRIADBLUE/consoleblue/internal/generator"
	"github.com/TRIADBLUE/consoleblue/internal/notification"
	"github.com/TRIADBLUE/consoleblue/internal/project"
	"github.com/TRIADBLUE/consoleblue/internal/publish"
	"github.com/TRIADBLUE/consoleblue/internal/server/events"
)

// Config holds server configuration
type Config struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Deps are the services the API is built on
type Deps struct {
	DB            *db.DB
	Projects      *project.Service
	Fragments     *fragment.Service
	Assembler     *assembly.Assembler
	Publisher     *publish.Publisher
	Generator     *generator.Service
	Notifications *notification.Service
	Events        *events.Publisher
	Logger        *slog.Logger
}

// Server is the ConsoleBlue HTTP API
type Server struct {
	config Config
	deps   Deps
	log    *slog.Logger
	srv    *http.Server
}

// NewServer creates a new server
func NewServer(config Config, deps Deps) *Server {
	if config.ReadTimeout == 0 {
		config.ReadTimeout = 10 * time.Second
	}
	if config.WriteTimeout == 0 {
		config.WriteTimeout = 30 * time.Second
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{config: config, deps: deps, log: logger}
	s.srv = &http.Server{
		Addr:         fmt.Sprintf(":%d", config.Port),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}
	return s
}

// Handler returns the API with all middleware applied
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", s.handleHealth)

	s.RegisterProjectRoutes(mux)
	s.RegisterDocRoutes(mux)
	s.RegisterPushRoutes(mux)
	s.RegisterNotificationRoutes(mux)
	s.RegisterSSERoutes(mux)

	return s.requestID(s.logRequests(s.corsMiddleware(s.withOperator(mux))))
}

// Start serves until Stop is called
func (s *Server) Start() error {
	if sse := s.deps.Events.SSEServer(); sse != nil {
		sse.Start()
	}

	s.srv.Handler = s.Handler()
	s.log.Info("ConsoleBlue API listening", "addr", s.srv.Addr, "events", "/api/events")
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully stops the server
func (s *Server) Stop(ctx context.Context) error {
	if sse := s.deps.Events.SSEServer(); sse != nil {
		sse.Stop()
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	dbOK := s.deps.DB.PingContext(ctx) == nil
	status := "ok"
	if !dbOK {
		status = "degraded"
	}

	version, _ := s.deps.DB.GetVersion()

	sseClients := 0
	if sse := s.deps.Events.SSEServer(); sse != nil {
		sseClients = sse.ClientCount()
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status":        status,
		"database":      dbOK,
		"schemaVersion": version,
		"vcsConfigured": s.deps.Publisher.Configured(),
		"sseClients":    sseClients,
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
	})
}
