// Package relay implements the same-origin API relay daemon.
//
// The seller hub rejects API calls from any origin but its own, so the
// calls must be issued from wherever the hub session lives. relayd runs
// there, holds nothing but a websocket endpoint, and executes hub API
// requests on behalf of bus clients, answering each with a response
// correlated by request id.
package relay

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/sellertools/labelassist/internal/bus"
)

// Config holds relay server configuration
type Config struct {
	ListenAddr    string
	VendorBaseURL string
	VendorTimeout time.Duration
}

// Server is the relay HTTP/websocket server
type Server struct {
	config     Config
	router     chi.Router
	httpServer *http.Server
	logger     *slog.Logger
	upgrader   websocket.Upgrader
}

// NewServer creates a relay server for the given vendor API base URL
func NewServer(cfg Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.VendorTimeout <= 0 {
		cfg.VendorTimeout = 30 * time.Second
	}

	s := &Server{
		config: cfg,
		router: chi.NewRouter(),
		logger: logger,
		upgrader: websocket.Upgrader{
			// The bus client is a local process, not a browser page
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/ws", s.handleWS)
}

// Router exposes the chi router, mainly for tests
func (s *Server) Router() chi.Router {
	return s.router
}

// Start begins listening. Blocks until the server stops.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:    s.config.ListenAddr,
		Handler: s.router,
	}

	s.logger.Info("Relay listening", "addr", s.config.ListenAddr, "vendor_url", s.config.VendorBaseURL)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// handleWS upgrades the connection and serves the message loop.
// Request handling errors are answered, never fatal to the loop.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	s.logger.Info("Bus client connected", "remote", conn.RemoteAddr().String())

	for {
		var req bus.Request
		if err := conn.ReadJSON(&req); err != nil {
			s.logger.Info("Bus client disconnected", "error", err)
			return
		}

		result := s.dispatch(r.Context(), req)

		reply := bus.Envelope{
			Type:      bus.ResponseType,
			RequestID: req.RequestID,
			Result:    result,
		}
		if err := conn.WriteJSON(reply); err != nil {
			s.logger.Error("Failed to write relay response", "error", err)
			return
		}
	}
}
