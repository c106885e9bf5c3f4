// Package db carries the embedded database migrations.
package db

import "embed"

// Migrations holds the SQL migration files compiled into the binary.
//
//go:embed migrations
var Migrations embed.FS
