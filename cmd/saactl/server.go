package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/plateng/service-accounts-api/pkg/authgw"
	"github.com/plateng/service-accounts-api/pkg/config"
	"github.com/plateng/service-accounts-api/pkg/db"
	"github.com/plateng/service-accounts-api/pkg/server"
	"github.com/plateng/service-accounts-api/pkg/server/endpoints"
	"github.com/plateng/service-accounts-api/pkg/server/store"
	gormstore "github.com/plateng/service-accounts-api/pkg/server/store/gorm"
	"github.com/plateng/service-accounts-api/pkg/server/store/memory"
	"github.com/plateng/service-accounts-api/pkg/service"
)

func defaultBindAddress() string {
	if addr := os.Getenv("BIND_ADDRESS"); addr != "" {
		return addr
	}
	return "0.0.0.0"
}

func defaultPort() string {
	if port := os.Getenv("PORT"); port != "" {
		return port
	}
	return "8080"
}

func defaultPortInt() int {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			return p
		}
	}
	return 8080
}

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the service accounts API server",
	Long: `Run the service accounts API server.

Configuration is read from an optional YAML file (SA_CONFIG_FILE) and
SA_-prefixed environment variables. The server requires SA_API_BASE_URL,
SA_AUTH_URL and a gateway token (SA_AUTH_TOKEN or SA_AUTH_TOKEN_FILE);
the postgres backend additionally requires SA_POSTGRES_DSN.

By default, database migrations are run on startup. Use --no-migrate to skip.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintln(os.Stderr, "Invalid configuration:", err)
			os.Exit(1)
		}

		if host, _ := cmd.Flags().GetString("bind-address"); cmd.Flags().Changed("bind-address") {
			cfg.Server.Host = host
		}
		if port, _ := cmd.Flags().GetString("port"); cmd.Flags().Changed("port") {
			p, err := strconv.Atoi(port)
			if err != nil {
				fmt.Fprintln(os.Stderr, "Bad port:", err)
				os.Exit(1)
			}
			cfg.Server.Port = p
		}

		// Run migrations unless --no-migrate is set
		noMigrate, _ := cmd.Flags().GetBool("no-migrate")
		if cfg.StorageBackend == config.BackendPostgres && !noMigrate {
			log.Println("Running database migrations...")
			if err := runMigrations(); err != nil {
				fmt.Fprintf(os.Stderr, "Migration failed: %v\n", err)
				os.Exit(1)
			}
		}

		storage, err := buildStorage(cfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Unable to initialize storage:", err)
			os.Exit(1)
		}

		tokens, err := buildTokenSource(cfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Unable to load gateway token:", err)
			os.Exit(1)
		}

		gateway := authgw.NewHTTPClient(cfg.AuthGateway.URL, tokens)
		svc := service.NewAccountsService(storage, gateway, cfg.APIBaseURL, cfg.ProbeRoleOnRead)

		s := server.NewServer(cfg, svc, gateway)
		endpoints.RegisterAll(s)

		log.Printf("Running server at http://%s:%d...\n", cfg.Server.Host, cfg.Server.Port)
		log.Fatal(s.Start())
	},
}

func buildStorage(cfg *config.Config) (store.AccountsStore, error) {
	switch cfg.StorageBackend {
	case config.BackendMemory:
		return memory.NewAccountsStore(), nil
	case config.BackendPostgres:
		gormDB, err := db.Connect(cfg.Postgres)
		if err != nil {
			return nil, err
		}
		return gormstore.NewAccountsStore(gormDB), nil
	}
	return nil, fmt.Errorf("unknown storage backend: %s", cfg.StorageBackend)
}

func buildTokenSource(cfg *config.Config) (authgw.TokenSource, error) {
	if cfg.AuthGateway.TokenFile != "" {
		return authgw.NewFileTokenSource(cfg.AuthGateway.TokenFile)
	}
	return authgw.StaticTokenSource(cfg.AuthGateway.Token), nil
}

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().StringP("port", "p", defaultPort(), "server listen port")
	serverCmd.Flags().StringP("bind-address", "b", defaultBindAddress(), "server bind address")
	serverCmd.Flags().Bool("no-migrate", false, "skip running database migrations on start")
}
