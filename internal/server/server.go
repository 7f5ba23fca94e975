package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/MattHedgcorth/net-shepherd/internal/inventory"
	"github.com/MattHedgcorth/net-shepherd/internal/poller"
	"github.com/MattHedgcorth/net-shepherd/internal/probe"
)

const (
	// sseWriteTimeout is the maximum time allowed for a single SSE write operation.
	// Must be <= shutdownTimeout to ensure clean shutdown.
	sseWriteTimeout = 5 * time.Second

	shutdownTimeout = 5 * time.Second

	// defaultTitle is used when no custom title is configured.
	defaultTitle = "NetShepherd"

	// titlePlaceholder is the marker in HTML that gets replaced with the actual title.
	titlePlaceholder = "{{.Title}}"
)

// Inventory is the read side of the inventory store plus its update feed.
type Inventory interface {
	Servers() []inventory.Server
	Server(id string) (inventory.Server, bool)
	Subscribe() <-chan inventory.StatusUpdate
	Unsubscribe(ch <-chan inventory.StatusUpdate)
}

// Checker probes a single URL. *probe.Prober satisfies it.
type Checker interface {
	Check(ctx context.Context, url string) probe.Result
}

// Controller is the polling control surface. *poller.Orchestrator satisfies it.
type Controller interface {
	Start(ctx context.Context, scope poller.Scope) (string, error)
	TogglePause() bool
	Stop() bool
	State() poller.State
}

// RateLimit bounds requests per client IP on the probe endpoint.
// A zero Requests disables limiting.
type RateLimit struct {
	Requests int
	Window   time.Duration
}

// Config configures a [Server].
type Config struct {
	// Port is the TCP port to listen on. Zero lets the OS pick one.
	Port int

	// Title is shown on the dashboard. Default: "NetShepherd"
	Title string

	// Assets holds assets/index.html. Nil disables the dashboard route.
	Assets fs.FS

	RateLimit RateLimit

	Logger *slog.Logger
}

// Server handles HTTP requests for the NetShepherd API and dashboard.
type Server struct {
	inv     Inventory
	checker Checker
	ctrl    Controller
	cfg     Config
	logger  *slog.Logger
	router  chi.Router

	mu         sync.Mutex
	baseCtx    context.Context
	httpServer *http.Server
	addr       net.Addr
}

// New creates a [Server]. The server is not listening until
// [Server.Start] is called; [Server.Handler] is usable immediately.
func New(inv Inventory, checker Checker, ctrl Controller, cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Title == "" {
		cfg.Title = defaultTitle
	}
	s := &Server{
		inv:     inv,
		checker: checker,
		ctrl:    ctrl,
		cfg:     cfg,
		logger:  cfg.Logger,
		baseCtx: context.Background(),
	}
	s.router = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(chimiddleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.With(rateLimitByIP(s.cfg.RateLimit)).Get("/WebsiteStatus/check", s.handleCheck)

		r.Get("/servers", s.handleServers)
		r.Get("/servers/{id}", s.handleServer)

		r.Route("/polling", func(r chi.Router) {
			r.Get("/", s.handlePollingState)
			r.Post("/", s.handleStartPolling)
			r.Post("/pause", s.handleTogglePause)
			r.Post("/stop", s.handleStopPolling)
		})

		r.Get("/sse", s.handleSSE)
	})

	if s.cfg.Assets != nil {
		r.Get("/", s.handleDashboard)
	}
	return r
}

// Start begins serving HTTP requests in a background goroutine.
//
// Start is non-blocking and returns immediately after confirming the server
// is listening. Runs started through the API live as long as ctx. When ctx
// is cancelled the server shuts down gracefully.
//
// Returns an error if the server fails to bind to the configured port.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind to port %d: %w", s.cfg.Port, err)
	}

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		// request contexts derive from ctx so SSE handlers exit on shutdown
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	s.mu.Lock()
	s.baseCtx = ctx
	s.httpServer = srv
	s.addr = ln.Addr()
	s.mu.Unlock()

	s.logger.Info("http server listening", "addr", ln.Addr().String())

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http server shutdown error", "error", err)
		}
	}()

	return nil
}

// Addr returns the listening address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// runContext is the parent context for runs started over HTTP.
func (s *Server) runContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.baseCtx
}
