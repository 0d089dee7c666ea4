package gateway

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"greenlife/internal/domain"
)

// ErrInvalidPort is returned when the gateway port is not in 0..65535.
var ErrInvalidPort = errors.New("gateway port must be 0-65535")

// Server is the WebSocket gateway: it accepts client connections, gives each
// one isolated sessions, and optionally enforces Bearer token auth.
type Server struct {
	cfg         domain.GatewayConfig
	sessions    *SessionRegistry
	queue       *TurnQueue
	server      *http.Server
	addr        string
	addrMu      sync.RWMutex
	listenErr   error
	listenErrMu sync.Mutex
	listener    net.Listener
}

// NewServer builds a gateway server. Port 0 means pick a random port.
// The factory builds a fresh assistant per session; it must not be nil.
// Returns ErrInvalidPort if the port is not in 0..65535.
func NewServer(cfg domain.GatewayConfig, factory AssistantFactory) (*Server, error) {
	if cfg.Port < 0 || cfg.Port > 65535 {
		return nil, ErrInvalidPort
	}
	s := &Server{
		cfg:      cfg,
		sessions: NewSessionRegistry(factory, nil),
		queue:    NewTurnQueue(),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		HandleWS(w, r, s.sessions, s.queue)
	})
	s.server = &http.Server{
		Handler:           BearerAuth(cfg.AuthToken)(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Sessions returns the server's session registry, for wiring the idle sweep.
func (s *Server) Sessions() *SessionRegistry {
	return s.sessions
}

// Addr returns the bound address (e.g. "127.0.0.1:8080") after Run has
// started. Empty before Run.
func (s *Server) Addr() string {
	s.addrMu.RLock()
	defer s.addrMu.RUnlock()
	return s.addr
}

// ListenErr returns the error from the initial Listen in Run(), if any.
// Used when Addr() is still empty after Run() has been started.
func (s *Server) ListenErr() error {
	s.listenErrMu.Lock()
	defer s.listenErrMu.Unlock()
	return s.listenErr
}

// Handler returns the HTTP handler used by the server (BearerAuth + routes).
// For testing without binding.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// netListen is the function used to listen; tests may replace it to force
// Listen errors.
var netListen = func(network, address string) (net.Listener, error) {
	return net.Listen(network, address)
}

// Run listens on the configured port and serves until shutdown is closed.
// Returns nil when shut down.
func (s *Server) Run(shutdown <-chan struct{}) error {
	addr := ":" + strconv.Itoa(s.cfg.Port)
	ln, err := netListen("tcp", addr)
	if err != nil {
		s.listenErrMu.Lock()
		s.listenErr = err
		s.listenErrMu.Unlock()
		return err
	}
	s.addrMu.Lock()
	s.listener = ln
	s.addr = ln.Addr().String()
	s.addrMu.Unlock()

	done := make(chan error, 1)
	go func() {
		done <- s.server.Serve(ln)
	}()

	<-shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = serverShutdown(s.server, ctx)
	if err != nil {
		return err
	}
	<-done
	return nil
}

// serverShutdown is the function used to shut down the server; tests may
// replace it.
var serverShutdown = func(srv *http.Server, ctx context.Context) error {
	return srv.Shutdown(ctx)
}
