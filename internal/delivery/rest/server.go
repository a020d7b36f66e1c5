// Path: internal/delivery/rest/server.go
package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"pastry-portal/internal/config"
	"pastry-portal/internal/metrics"
)

// RouteRegistrar adds routes to the portal router.
type RouteRegistrar interface {
	RegisterRoutes(r *mux.Router)
}

// Server is the HTTP server for the portal API and pages.
type Server struct {
	httpServer *http.Server
}

// NewServer creates and configures a new server. Extra registrars, such as
// the HTML pages, share the router with the API.
func NewServer(cfg config.ServerConfig, service dataService, extra ...RouteRegistrar) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         ":" + cfg.Port,
			Handler:      NewRouter(cfg, service, extra...),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// NewRouter builds the portal's HTTP handler.
func NewRouter(cfg config.ServerConfig, service dataService, extra ...RouteRegistrar) http.Handler {
	r := mux.NewRouter()
	r.Use(metrics.InstrumentHandler)

	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	NewHandlers(service).RegisterRoutes(r)
	for _, reg := range extra {
		reg.RegisterRoutes(r)
	}

	// CORS wraps the router so preflight requests reach it before method matching.
	return RequestLogger(CORS(cfg.AllowedOrigins)(r))
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
