// Package server provides the HTTP server for the service accounts API.
//
// This package implements the core HTTP server that handles all REST API
// requests. It uses gorilla/mux for routing and provides middleware for
// authentication and request handling.
//
// # Server Setup
//
//	s := server.NewServer(cfg, svc, gateway)
//	endpoints.RegisterAll(s)
//	if err := s.Start(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Components
//
// The Server struct holds:
//
//   - Router: HTTP request router
//   - Service: Account orchestration across the record store and gateway
//   - Auth: Bearer authentication middleware
//
// Requests pass through response-version and logging middleware before
// reaching the router; /service_accounts routes additionally require a
// bearer token resolvable by the auth gateway.
package server
