// Package memory provides an in-memory AccountsStore, used in tests and as
// a lightweight backend when no database is available.
package memory

import (
	"context"
	"sync"

	"github.com/plateng/service-accounts-api/pkg/model"
	"github.com/plateng/service-accounts-api/pkg/server/store"
)

// Ensure AccountsStore implements store.AccountsStore
var _ store.AccountsStore = (*AccountsStore)(nil)

// AccountsStore keeps accounts in a map keyed by id. A single mutex makes
// check-then-insert atomic, so concurrent duplicate creates behave like the
// relational backend's unique index.
type AccountsStore struct {
	mu    sync.RWMutex
	items map[string]*model.Account
	order []string
}

// NewAccountsStore creates an empty in-memory store.
func NewAccountsStore() *AccountsStore {
	return &AccountsStore{items: map[string]*model.Account{}}
}

func (s *AccountsStore) Create(ctx context.Context, data model.AccountData) (*model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if data.Name != "" {
		for _, item := range s.items {
			if item.Name == data.Name && item.Owner == data.Owner {
				return nil, store.ErrExists
			}
		}
	}

	account := model.NewAccount(model.NewAccountID(), data)
	s.items[account.ID] = account
	s.order = append(s.order, account.ID)
	return account, nil
}

func (s *AccountsStore) Get(ctx context.Context, id string) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.items[id]
	if !ok {
		return nil, store.ErrNotExists
	}
	return account, nil
}

func (s *AccountsStore) GetByName(ctx context.Context, name, owner string) (*model.Account, error) {
	if name == "" {
		return nil, store.ErrNotExists
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, item := range s.items {
		if item.Name == name && item.Owner == owner {
			return item, nil
		}
	}
	return nil, store.ErrNotExists
}

// List snapshots matching accounts in insertion order, so the sequence is
// stable for the duration of the call.
func (s *AccountsStore) List(ctx context.Context, owner string) (store.Iterator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts := make([]*model.Account, 0, len(s.order))
	for _, id := range s.order {
		item := s.items[id]
		if owner != "" && item.Owner != owner {
			continue
		}
		accounts = append(accounts, item)
	}
	return store.NewSliceIterator(accounts), nil
}

func (s *AccountsStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return store.ErrNotExists
	}
	delete(s.items, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}
