// Package integration spins up real backing services for end-to-end tests.
package integration

import (
	"context"
	"fmt"
	"io/fs"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/plateng/service-accounts-api/db"
)

// TestContext holds the containers and connections shared by a test run.
type TestContext struct {
	pgContainer *tcpostgres.PostgresContainer
	ConnStr     string
	DB          *gorm.DB
}

// NewTestContext starts a postgres container and migrates its schema.
func NewTestContext(ctx context.Context) (*TestContext, error) {
	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("accounts_test"),
		tcpostgres.WithUsername("accounts"),
		tcpostgres.WithPassword("accounts"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	host, err := pgContainer.Host(ctx)
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}
	port, err := pgContainer.MappedPort(ctx, "5432")
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}
	connStr := fmt.Sprintf("postgres://accounts:accounts@%s:%s/accounts_test?sslmode=disable", host, port.Port())

	if err := runMigrations(connStr); err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{
		DSN:                  connStr,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &TestContext{
		pgContainer: pgContainer,
		ConnStr:     connStr,
		DB:          gormDB,
	}, nil
}

// Close tears down the containers.
func (tc *TestContext) Close(ctx context.Context) {
	if tc.pgContainer != nil {
		_ = tc.pgContainer.Terminate(ctx)
	}
}

func runMigrations(connStr string) error {
	migrationsFS, err := fs.Sub(db.Migrations, "migrations")
	if err != nil {
		return err
	}
	d, err := iofs.New(migrationsFS, ".")
	if err != nil {
		return err
	}
	m, err := migrate.NewWithSourceInstance("iofs", d, connStr)
	if err != nil {
		return err
	}
	defer func() { _, _ = m.Close() }()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}
