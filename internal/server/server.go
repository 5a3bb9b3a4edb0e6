// Package server provides the HTTP and websocket surface of AirBoard.
package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/ayusman/airboard/internal/app"
	"github.com/ayusman/airboard/internal/gesture"
	"github.com/ayusman/airboard/internal/log"
	"github.com/ayusman/airboard/internal/notepad"
	"github.com/ayusman/airboard/internal/plugin"
	"github.com/ayusman/airboard/internal/server/api"
	"github.com/ayusman/airboard/internal/store"
)

// Controller is the pipeline as seen by the server. *app.App satisfies it.
type Controller interface {
	Status() (app.Status, error)
	SetTracking(on bool) error
	SetMode(m gesture.Mode) error
	SetLayout(keys []gesture.KeyRect) error
	Layout() ([]gesture.KeyRect, error)
	Tuning() (gesture.Config, error)
	SetTuning(cfg gesture.Config) error
	Reset() error
	Submit(f gesture.Frame) error
	Preview() ([]byte, bool)
}

// Config holds the server configuration. Every field is optional; routes
// whose dependencies are missing are not mounted.
type Config struct {
	StaticDir string
	Store     *store.Store
	App       Controller
	Hub       *Hub
	Notepad   *notepad.Buffer
	Plugins   *plugin.Manager
}

// Server represents the HTTP server for the AirBoard application.
type Server struct {
	config Config
	router *mux.Router
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		router: mux.NewRouter(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	r := s.router
	r.HandleFunc("/api/health", s.handleHealth).Methods(http.MethodGet)

	var plugins api.PluginCatalog
	if s.config.Plugins != nil {
		plugins = s.config.Plugins
		api.NewPluginHandler(plugins).Register(r)
	}

	if s.config.Store != nil {
		api.NewBindingHandler(s.config.Store, plugins).Register(r)
	}

	if s.config.Notepad != nil {
		api.NewNotesHandler(s.config.Notepad, s.config.Store).Register(r)
	}

	if ctrl := s.config.App; ctrl != nil {
		r.HandleFunc("/api/state", s.handleState).Methods(http.MethodGet)
		r.HandleFunc("/api/tracking", s.handleState).Methods(http.MethodGet)
		r.HandleFunc("/api/tracking", s.handleSetTracking).Methods(http.MethodPut)
		r.HandleFunc("/api/mode", s.handleState).Methods(http.MethodGet)
		r.HandleFunc("/api/mode", s.handleSetMode).Methods(http.MethodPut)
		r.HandleFunc("/api/layout", s.handleLayout).Methods(http.MethodGet)
		r.HandleFunc("/api/layout", s.handleSetLayout).Methods(http.MethodPut)
		r.HandleFunc("/api/reset", s.handleReset).Methods(http.MethodPost)
		r.Handle("/api/stream", NewStreamHandler(ctrl)).Methods(http.MethodGet)

		if s.config.Store != nil {
			api.NewSettingsHandler(s.config.Store, ctrl).Register(r)
		}
		if s.config.Hub != nil {
			r.Handle("/api/session", NewSessionHandler(s.config.Hub, ctrl))
		}
	}

	var static http.Handler
	if s.config.StaticDir != "" {
		static = http.FileServer(http.Dir(s.config.StaticDir))
	}

	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		api.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	// Unmatched paths fall through here rather than to a catch-all route so
	// that method mismatches on API routes still answer 405.
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		switch {
		case strings.HasPrefix(req.URL.Path, "/api/"):
			api.WriteError(w, http.StatusNotFound, "Not found")
		case static != nil:
			static.ServeHTTP(w, req)
		default:
			http.NotFound(w, req)
		}
	})
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).Round(time.Second).String(),
	}
	if s.config.Hub != nil {
		response["clients"] = s.config.Hub.Clients()
	}
	api.WriteJSON(w, http.StatusOK, response)
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
