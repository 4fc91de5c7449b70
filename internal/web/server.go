package web

import (
	"context"
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"basicswap-orderbook-go/internal/dashboard"
	"basicswap-orderbook-go/internal/offerbook"
	"basicswap-orderbook-go/internal/presenter"
	"go.uber.org/zap"
)

//go:embed templates static
var assets embed.FS

// Dashboard is the page state the server renders.
type Dashboard interface {
	View(session string) presenter.View
	Update(session string, fn func(*offerbook.Store)) presenter.View
	Snapshot() dashboard.Snapshot
}

// Server serves the landing page and its API.
type Server struct {
	logger      *zap.Logger
	dash        Dashboard
	broadcaster *Broadcaster
	page        *template.Template
	mux         *http.ServeMux
	server      *http.Server
}

// NewServer creates a Server with all routes registered.
func NewServer(addr string, logger *zap.Logger, dash Dashboard, broadcaster *Broadcaster) (*Server, error) {
	page, err := template.New("index.html").Funcs(template.FuncMap{
		"arrow": sortArrow,
	}).ParseFS(assets, "templates/index.html")
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	s := &Server{
		logger:      logger.Named("web"),
		dash:        dash,
		broadcaster: broadcaster,
		page:        page,
		mux:         mux,
		server: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
	if err := s.registerRoutes(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) registerRoutes() error {
	static, err := fs.Sub(assets, "static")
	if err != nil {
		return err
	}

	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("POST /filter", s.handleFilter)
	s.mux.HandleFunc("POST /filter/clear", s.handleClearFilters)
	s.mux.HandleFunc("POST /sort", s.handleSort)
	s.mux.HandleFunc("POST /page/prev", s.handlePrevPage)
	s.mux.HandleFunc("POST /page/next", s.handleNextPage)

	s.mux.HandleFunc("GET /api/view", s.handleView)
	s.mux.HandleFunc("GET /api/status", s.handleStatus)
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(static)))
	if s.broadcaster != nil {
		s.mux.HandleFunc("GET /ws", s.broadcaster.Handler())
	}
	return nil
}

// Handle registers an extra route, such as /metrics.
func (s *Server) Handle(pattern string, h http.Handler) {
	s.mux.Handle(pattern, h)
}

// ServeHTTP lets tests drive the mux directly.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.logger.Info("Starting web server", zap.String("address", s.server.Addr))
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server and closes websocket clients.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.broadcaster != nil {
		s.broadcaster.Close()
	}
	return s.server.Shutdown(ctx)
}

func sortArrow(c presenter.Column) string {
	if !c.Active {
		return ""
	}
	if c.Direction == offerbook.Desc {
		return "▼"
	}
	return "▲"
}
