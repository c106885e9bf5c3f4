// Package db establishes the shared database connection.
package db

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/plateng/service-accounts-api/pkg/config"
)

// Connect opens a gorm connection using the given postgres settings and
// applies the configured pool bounds. The pool is shared by all concurrent
// requests; serialization for correctness lives in the schema's unique
// index, not here.
func Connect(cfg config.PostgresConfig) (*gorm.DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}

	// Default to silent logging unless SA_LOG_LEVEL=debug is set
	logMode := logger.Silent
	if os.Getenv("SA_LOG_LEVEL") == "debug" {
		logMode = logger.Info
	}

	db, err := gorm.Open(
		postgres.New(postgres.Config{
			DSN:                  dsnWithTimeouts(cfg),
			PreferSimpleProtocol: true, // disables implicit prepared statement usage
		}),
		&gorm.Config{
			Logger: logger.Default.LogMode(logMode),
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.PoolMinSize)
	sqlDB.SetMaxOpenConns(cfg.PoolMaxSize)
	sqlDB.SetConnMaxLifetime(0)

	return db, nil
}

// dsnWithTimeouts folds the configured timeouts into the DSN so they bound
// every connection and statement. Settings already present in the DSN win.
func dsnWithTimeouts(cfg config.PostgresConfig) string {
	dsn := cfg.DSN
	isURL := strings.Contains(dsn, "://")

	add := func(key, value string) {
		if strings.Contains(dsn, key+"=") {
			return
		}
		if isURL {
			sep := "?"
			if strings.Contains(dsn, "?") {
				sep = "&"
			}
			dsn += sep + key + "=" + value
		} else {
			dsn += " " + key + "=" + value
		}
	}

	if cfg.ConnectTimeout > 0 {
		add("connect_timeout", strconv.Itoa(int(cfg.ConnectTimeout.Seconds())))
	}
	if cfg.CommandTimeout > 0 {
		add("statement_timeout", strconv.Itoa(int(cfg.CommandTimeout.Milliseconds())))
	}
	return dsn
}
