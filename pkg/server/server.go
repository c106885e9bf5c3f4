package server

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/plateng/service-accounts-api/pkg/authgw"
	"github.com/plateng/service-accounts-api/pkg/config"
	"github.com/plateng/service-accounts-api/pkg/server/middleware"
	"github.com/plateng/service-accounts-api/pkg/service"
)

// Version is the service version reported in the X-Service-Version header.
// Overridden at build time via -ldflags.
var Version = "dev"

// Server wires the router, the accounts service and the auth middleware
// together behind one http.Server.
type Server struct {
	Router  *mux.Router
	Service *service.AccountsService
	Auth    *middleware.BearerAuthenticator
	srv     *http.Server
}

// NewServer creates a Server from configuration and collaborators.
func NewServer(cfg *config.Config, svc *service.AccountsService, gateway authgw.Client) *Server {
	router := mux.NewRouter().UseEncodedPath()

	var handler http.Handler = router
	handler = middleware.VersionHeader("service-accounts-api/" + Version)(handler)
	if len(cfg.CORS.AllowedOrigins) > 0 {
		handler = handlers.CORS(
			handlers.AllowedOrigins(cfg.CORS.AllowedOrigins),
			handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
			handlers.AllowedMethods([]string{"GET", "POST", "DELETE", "OPTIONS"}),
			handlers.AllowCredentials(),
		)(handler)
	}
	handler = handlers.LoggingHandler(os.Stdout, handler)

	srv := &http.Server{
		Handler: handler,
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		// Good practice: enforce timeouts for servers you create!
		WriteTimeout: cfg.Server.WriteTimeout,
		ReadTimeout:  cfg.Server.ReadTimeout,
	}

	return &Server{
		Router:  router,
		Service: svc,
		Auth:    middleware.NewBearerAuthenticator(gateway),
		srv:     srv,
	}
}

// Start runs the HTTP server until it fails or is shut down.
func (s *Server) Start() error {
	return s.srv.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
