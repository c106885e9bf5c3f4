// Package gorm provides the relational AccountsStore backend. Records live
// in a single service_accounts table with indexed columns for the lookup
// keys and a jsonb payload for everything else; the unique index on
// (name, owner) is what resolves concurrent duplicate creates.
package gorm

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgconn"
	"gorm.io/gorm"

	"github.com/plateng/service-accounts-api/pkg/model"
	"github.com/plateng/service-accounts-api/pkg/server/store"
)

// Ensure AccountsStore implements store.AccountsStore
var _ store.AccountsStore = (*AccountsStore)(nil)

// AccountsStore implements store.AccountsStore using GORM
type AccountsStore struct {
	db *gorm.DB
}

// NewAccountsStore creates a new AccountsStore
func NewAccountsStore(db *gorm.DB) *AccountsStore {
	return &AccountsStore{db: db}
}

// accountPayload holds the fields stored in the jsonb payload column.
type accountPayload struct {
	Role           string `json:"role"`
	DefaultCluster string `json:"default_cluster"`
	DefaultProject string `json:"default_project"`
	DefaultOrg     string `json:"default_org,omitempty"`
}

func (s *AccountsStore) Create(ctx context.Context, data model.AccountData) (*model.Account, error) {
	account := model.NewAccount(model.NewAccountID(), data)

	payload, err := json.Marshal(accountPayload{
		Role:           data.Role,
		DefaultCluster: data.DefaultCluster,
		DefaultProject: data.DefaultProject,
		DefaultOrg:     data.DefaultOrg,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode account payload: %w", err)
	}

	// Unnamed accounts store NULL so the unique index never collides them.
	var name interface{}
	if data.Name != "" {
		name = data.Name
	}

	tx := s.db.WithContext(ctx).Exec(`
		INSERT INTO service_accounts (id, name, owner, created_at, payload)
		VALUES (?, ?, ?, ?, ?)
	`, account.ID, name, data.Owner, data.CreatedAt, payload)
	if tx.Error != nil {
		if isUniqueViolation(tx.Error) {
			return nil, store.ErrExists
		}
		return nil, tx.Error
	}

	return account, nil
}

func (s *AccountsStore) Get(ctx context.Context, id string) (*model.Account, error) {
	row := s.db.WithContext(ctx).Raw(`
		SELECT id, name, owner, created_at, payload
		FROM service_accounts
		WHERE id = ?
	`, id).Row()
	return scanAccount(row)
}

func (s *AccountsStore) GetByName(ctx context.Context, name, owner string) (*model.Account, error) {
	row := s.db.WithContext(ctx).Raw(`
		SELECT id, name, owner, created_at, payload
		FROM service_accounts
		WHERE owner = ? AND name = ?
	`, owner, name).Row()
	return scanAccount(row)
}

// List opens a streaming cursor so unbounded result sets are never
// materialized in memory.
func (s *AccountsStore) List(ctx context.Context, owner string) (store.Iterator, error) {
	query := `SELECT id, name, owner, created_at, payload FROM service_accounts`
	args := []interface{}{}
	if owner != "" {
		query += ` WHERE owner = ?`
		args = append(args, owner)
	}

	rows, err := s.db.WithContext(ctx).Raw(query, args...).Rows()
	if err != nil {
		return nil, err
	}
	return &rowsIterator{rows: rows}, nil
}

func (s *AccountsStore) Delete(ctx context.Context, id string) error {
	tx := s.db.WithContext(ctx).Exec(`DELETE FROM service_accounts WHERE id = ?`, id)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return store.ErrNotExists
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAccount(row rowScanner) (*model.Account, error) {
	var (
		id        string
		name      sql.NullString
		owner     string
		createdAt time.Time
		raw       []byte
	)
	if err := row.Scan(&id, &name, &owner, &createdAt, &raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotExists
		}
		return nil, err
	}

	var payload accountPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse account payload: %w", err)
	}

	return &model.Account{
		ID: id,
		AccountData: model.AccountData{
			Name:           name.String,
			Owner:          owner,
			CreatedAt:      createdAt,
			Role:           payload.Role,
			DefaultCluster: payload.DefaultCluster,
			DefaultProject: payload.DefaultProject,
			DefaultOrg:     payload.DefaultOrg,
		},
	}, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	// Fallback for drivers that don't expose structured errors
	return strings.Contains(err.Error(), "duplicate key value violates unique constraint")
}

// rowsIterator streams accounts off an open sql.Rows cursor.
type rowsIterator struct {
	rows    *sql.Rows
	current *model.Account
	err     error
}

func (it *rowsIterator) Next() bool {
	if it.err != nil {
		return false
	}
	if !it.rows.Next() {
		it.err = it.rows.Err()
		return false
	}
	account, err := scanAccount(it.rows)
	if err != nil {
		it.err = err
		return false
	}
	it.current = account
	return true
}

func (it *rowsIterator) Account() *model.Account { return it.current }

func (it *rowsIterator) Err() error { return it.err }

func (it *rowsIterator) Close() error { return it.rows.Close() }
