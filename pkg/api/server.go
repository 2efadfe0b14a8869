// Package api is the HTTP surface of the wiki. Handlers stay thin: they
// parse the request, run the relevant guard, call into the domain services
// and translate domain errors onto status codes.
package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/orgwiki/orgwiki/pkg/auth"
	"github.com/orgwiki/orgwiki/pkg/directory"
	"github.com/orgwiki/orgwiki/pkg/observability"
	"github.com/orgwiki/orgwiki/pkg/pages"
	"github.com/orgwiki/orgwiki/pkg/permissions"
	"github.com/orgwiki/orgwiki/pkg/users"
)

// Server represents our API server
type Server struct {
	router      *mux.Router
	dir         directory.Client
	resolver    *pages.Resolver
	store       *pages.Store
	perms       *permissions.Service
	users       *users.Service
	adminEmails []string
	logger      *logrus.Logger
}

// Options carries the optional collaborators of the server. Any of them
// may be nil (or empty), in which case the corresponding middleware or
// endpoint is simply not installed.
type Options struct {
	AuthMiddleware *auth.Middleware
	Metrics        *observability.Metrics
	Registry       *prometheus.Registry
	Health         *observability.HealthChecker
	CORSOrigins    []string
}

// NewServer creates the API server and wires its routes and middleware.
// adminEmails are attached as fallback admins to every page created.
func NewServer(
	dir directory.Client,
	resolver *pages.Resolver,
	store *pages.Store,
	perms *permissions.Service,
	userSvc *users.Service,
	adminEmails []string,
	logger *logrus.Logger,
	opts Options,
) *Server {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	s := &Server{
		router:      mux.NewRouter(),
		dir:         dir,
		resolver:    resolver,
		store:       store,
		perms:       perms,
		users:       userSvc,
		adminEmails: adminEmails,
		logger:      logger,
	}

	s.setupRoutes(opts)
	s.setupMiddleware(opts)
	return s
}

// setupRoutes configures all the API routes
func (s *Server) setupRoutes(opts Options) {
	// User routes. Registered before the page routes so the catch-all page
	// path patterns cannot shadow them.
	s.router.HandleFunc("/users/me", s.getUserMe).Methods("GET")
	s.router.HandleFunc("/users/me", s.patchUserMe).Methods("PATCH")
	s.router.HandleFunc("/users/email/{email}", s.getUserByEmail).Methods("GET")
	s.router.HandleFunc("/users/phone/{phone}", s.getUserByPhone).Methods("GET")
	s.router.HandleFunc("/users/id/{user_id}", s.getUserByID).Methods("GET")

	// Admin routes
	s.router.HandleFunc("/admin/{page_path:.*}", s.getPageSettings).Methods("GET")
	s.router.HandleFunc("/admin/{page_path:.*}", s.patchPageSettings).Methods("PATCH")

	// Page routes
	s.router.HandleFunc("/pages/{page_path:.*}", s.getPage).Methods("GET")
	s.router.HandleFunc("/pages/{page_path:.*}", s.putPage).Methods("PUT")
	s.router.HandleFunc("/pages/{page_path:.*}", s.postPage).Methods("POST")
	s.router.HandleFunc("/pages/{page_path:.*}", s.deletePage).Methods("DELETE")

	// Preflight requests need a matching route for the middleware chain to
	// run; the CORS middleware answers them before this handler is reached.
	s.router.PathPrefix("/").Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	// Operational endpoints
	if opts.Health != nil {
		s.router.HandleFunc("/health", opts.Health.Readiness).Methods("GET")
		s.router.HandleFunc("/health/live", opts.Health.Liveness).Methods("GET")
		s.router.HandleFunc("/health/ready", opts.Health.Readiness).Methods("GET")
	}
	if opts.Registry != nil {
		s.router.Handle("/metrics", observability.MetricsHandler(opts.Registry)).Methods("GET")
	}
}

// setupMiddleware installs the middleware chain. Order matters: request id
// and logging first so everything downstream is attributed, then CORS and
// metrics, then auth so handlers see the verified user.
func (s *Server) setupMiddleware(opts Options) {
	s.router.Use(observability.RecoveryMiddleware(s.logger))
	s.router.Use(requestIDMiddleware)
	s.router.Use(requestLoggingMiddleware(s.logger))
	if len(opts.CORSOrigins) > 0 {
		s.router.Use(corsMiddleware(opts.CORSOrigins))
	}
	if opts.Metrics != nil {
		s.router.Use(observability.HTTPMetricsMiddleware(opts.Metrics, muxRouteName))
	}
	if opts.AuthMiddleware != nil {
		s.router.Use(opts.AuthMiddleware.Handler)
	}
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// muxRouteName returns the route template for metric labels, so every
// concrete page path does not become its own label value.
func muxRouteName(r *http.Request) string {
	route := mux.CurrentRoute(r)
	if route == nil {
		return "unmatched"
	}
	if tmpl, err := route.GetPathTemplate(); err == nil {
		return tmpl
	}
	return "unmatched"
}
