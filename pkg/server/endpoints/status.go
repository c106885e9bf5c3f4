package endpoints

import (
	"net/http"

	"github.com/plateng/service-accounts-api/pkg/server"
)

// RegisterStatusEndpoints adds the liveness probes. /ping is open,
// /secured-ping additionally proves the auth chain works end to end.
func RegisterStatusEndpoints(s *server.Server) {
	s.Router.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("Pong"))
	}).Methods("GET")

	s.Router.Handle(
		"/secured-ping",
		s.Auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("Secured Pong"))
		})),
	).Methods("GET")
}
