package endpoints

import (
	"github.com/plateng/service-accounts-api/pkg/server"
)

// RegisterAll registers all API endpoints on the server
func RegisterAll(srv *server.Server) {
	RegisterServiceAccountsEndpoints(srv)
	RegisterStatusEndpoints(srv)
}
