package store

import (
	"context"
	"errors"

	"github.com/plateng/service-accounts-api/pkg/model"
)

var (
	// ErrExists is returned by Create when a named account already exists
	// for the same owner.
	ErrExists = errors.New("service account already exists")

	// ErrNotExists is returned when no account matches the lookup.
	ErrNotExists = errors.New("service account does not exist")
)

// AccountsStore abstracts durable CRUD over service account records.
// Records are keyed by generated id with a secondary unique lookup on
// (name, owner) for named accounts.
type AccountsStore interface {
	// Create persists a new account, generating its id. Fails with
	// ErrExists when a named account already exists for the owner; under
	// concurrent duplicate creates exactly one succeeds.
	Create(ctx context.Context, data model.AccountData) (*model.Account, error)

	// Get fetches an account by id. Fails with ErrNotExists when absent.
	Get(ctx context.Context, id string) (*model.Account, error)

	// GetByName fetches a named account for an owner. Unnamed accounts are
	// never matched. Fails with ErrNotExists when absent.
	GetByName(ctx context.Context, name, owner string) (*model.Account, error)

	// List streams accounts, filtered to one owner when owner is non-empty.
	// The sequence is finite and stable within a single call. The caller
	// must Close the iterator.
	List(ctx context.Context, owner string) (Iterator, error)

	// Delete removes an account by id. Deleting a missing id is not
	// guaranteed to be idempotent; callers needing existence confirmation
	// should Get first.
	Delete(ctx context.Context, id string) error
}

// Iterator lazily yields accounts from a single List call.
//
//	it, err := store.List(ctx, owner)
//	...
//	defer it.Close()
//	for it.Next() {
//		account := it.Account()
//	}
//	err = it.Err()
type Iterator interface {
	// Next advances the iterator, returning false when exhausted or failed.
	Next() bool

	// Account returns the current record. Only valid after Next returns true.
	Account() *model.Account

	// Err returns the error that stopped iteration, if any.
	Err() error

	// Close releases resources held by the iterator.
	Close() error
}

// SliceIterator adapts an in-memory snapshot to the Iterator contract.
type SliceIterator struct {
	accounts []*model.Account
	pos      int
}

// NewSliceIterator wraps a snapshot of accounts in an Iterator.
func NewSliceIterator(accounts []*model.Account) *SliceIterator {
	return &SliceIterator{accounts: accounts, pos: -1}
}

func (it *SliceIterator) Next() bool {
	if it.pos+1 >= len(it.accounts) {
		return false
	}
	it.pos++
	return true
}

func (it *SliceIterator) Account() *model.Account {
	return it.accounts[it.pos]
}

func (it *SliceIterator) Err() error { return nil }

func (it *SliceIterator) Close() error { return nil }

// Collect drains an iterator into a slice, closing it afterwards.
func Collect(it Iterator) ([]*model.Account, error) {
	defer it.Close()
	var accounts []*model.Account
	for it.Next() {
		accounts = append(accounts, it.Account())
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return accounts, nil
}
