// Package main provides the service accounts API server and its control tool.
//
// The service manages service accounts: durable records paired with a role
// provisioned in an external authorization gateway and an opaque bearer
// token minted at creation time.
//
// # Architecture
//
// The server is organized into several packages:
//
//   - pkg/server: HTTP server and routing
//   - pkg/server/endpoints: REST API endpoint handlers
//   - pkg/server/middleware: Bearer auth and response headers
//   - pkg/server/store: Record store abstraction (memory and postgres)
//   - pkg/service: Account orchestration across store and gateway
//   - pkg/authgw: Auth gateway REST client
//   - pkg/identity: Caller identity extraction and propagation
//   - pkg/model: Domain types
//   - pkg/db: Database connection utilities
//   - pkg/config: Configuration management
//
// # Quick Start
//
//	# Run database migrations
//	saactl db migrate
//
//	# Start the server
//	saactl server
//
// # Environment Variables
//
//   - SA_API_BASE_URL: Public URL of this API, embedded in issued tokens
//   - SA_AUTH_URL: Auth gateway base URL
//   - SA_AUTH_TOKEN / SA_AUTH_TOKEN_FILE: Gateway service credential
//   - SA_POSTGRES_DSN: PostgreSQL connection string
//   - SA_STORAGE_BACKEND: postgres (default) or memory
//   - SA_CONFIG_FILE: Optional YAML configuration file
//   - PORT: Server port (default: 8080)
package main
