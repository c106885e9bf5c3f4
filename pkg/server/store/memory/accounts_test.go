package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plateng/service-accounts-api/pkg/model"
	"github.com/plateng/service-accounts-api/pkg/server/store"
)

func testData(name, owner string) model.AccountData {
	return model.AccountData{
		Name:           name,
		Owner:          owner,
		Role:           model.RoleName(owner, name),
		DefaultCluster: "prod-1",
		DefaultProject: "billing",
		CreatedAt:      time.Now().UTC(),
	}
}

func TestAccountsStoreCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("assigns a fresh id", func(t *testing.T) {
		s := NewAccountsStore()

		account, err := s.Create(ctx, testData("reports", "alice"))
		require.NoError(t, err)
		assert.NotEmpty(t, account.ID)
		assert.Equal(t, "reports", account.Name)
		assert.Equal(t, "alice", account.Owner)
	})

	t.Run("rejects a duplicate name for the same owner", func(t *testing.T) {
		s := NewAccountsStore()

		_, err := s.Create(ctx, testData("reports", "alice"))
		require.NoError(t, err)

		_, err = s.Create(ctx, testData("reports", "alice"))
		assert.ErrorIs(t, err, store.ErrExists)
	})

	t.Run("allows the same name for different owners", func(t *testing.T) {
		s := NewAccountsStore()

		_, err := s.Create(ctx, testData("reports", "alice"))
		require.NoError(t, err)

		_, err = s.Create(ctx, testData("reports", "bob"))
		assert.NoError(t, err)
	})

	t.Run("allows many unnamed accounts per owner", func(t *testing.T) {
		s := NewAccountsStore()

		for i := 0; i < 3; i++ {
			_, err := s.Create(ctx, testData("", "alice"))
			require.NoError(t, err)
		}

		it, err := s.List(ctx, "alice")
		require.NoError(t, err)
		accounts, err := store.Collect(it)
		require.NoError(t, err)
		assert.Len(t, accounts, 3)
	})
}

func TestAccountsStoreGet(t *testing.T) {
	ctx := context.Background()
	s := NewAccountsStore()

	created, err := s.Create(ctx, testData("reports", "alice"))
	require.NoError(t, err)

	t.Run("round trips a record by id", func(t *testing.T) {
		got, err := s.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created, got)
	})

	t.Run("round trips a record by name", func(t *testing.T) {
		got, err := s.GetByName(ctx, "reports", "alice")
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
	})

	t.Run("misses on unknown id", func(t *testing.T) {
		_, err := s.Get(ctx, "service-account-nope")
		assert.ErrorIs(t, err, store.ErrNotExists)
	})

	t.Run("misses on the wrong owner", func(t *testing.T) {
		_, err := s.GetByName(ctx, "reports", "bob")
		assert.ErrorIs(t, err, store.ErrNotExists)
	})

	t.Run("never matches unnamed accounts by name", func(t *testing.T) {
		_, err := s.Create(ctx, testData("", "alice"))
		require.NoError(t, err)

		_, err = s.GetByName(ctx, "", "alice")
		assert.ErrorIs(t, err, store.ErrNotExists)
	})
}

func TestAccountsStoreList(t *testing.T) {
	ctx := context.Background()
	s := NewAccountsStore()

	owners := []string{"alice", "bob", "carol", "dave", "erin"}
	for i := 0; i < 25; i++ {
		owner := owners[i%len(owners)]
		_, err := s.Create(ctx, testData(fmt.Sprintf("svc-%d", i), owner))
		require.NoError(t, err)
	}

	t.Run("filters by owner", func(t *testing.T) {
		it, err := s.List(ctx, "alice")
		require.NoError(t, err)

		accounts, err := store.Collect(it)
		require.NoError(t, err)
		require.Len(t, accounts, 5)
		for _, account := range accounts {
			assert.Equal(t, "alice", account.Owner)
		}
	})

	t.Run("returns everything when owner is empty", func(t *testing.T) {
		it, err := s.List(ctx, "")
		require.NoError(t, err)

		accounts, err := store.Collect(it)
		require.NoError(t, err)
		assert.Len(t, accounts, 25)
	})

	t.Run("keeps insertion order", func(t *testing.T) {
		it, err := s.List(ctx, "alice")
		require.NoError(t, err)

		accounts, err := store.Collect(it)
		require.NoError(t, err)
		for i := 1; i < len(accounts); i++ {
			assert.True(t, accounts[i-1].CreatedAt.Before(accounts[i].CreatedAt) ||
				accounts[i-1].CreatedAt.Equal(accounts[i].CreatedAt))
		}
	})
}

func TestAccountsStoreDelete(t *testing.T) {
	ctx := context.Background()
	s := NewAccountsStore()

	created, err := s.Create(ctx, testData("reports", "alice"))
	require.NoError(t, err)

	t.Run("removes the record", func(t *testing.T) {
		require.NoError(t, s.Delete(ctx, created.ID))

		_, err := s.Get(ctx, created.ID)
		assert.ErrorIs(t, err, store.ErrNotExists)
	})

	t.Run("frees the name for reuse", func(t *testing.T) {
		_, err := s.Create(ctx, testData("reports", "alice"))
		assert.NoError(t, err)
	})

	t.Run("fails on a missing id", func(t *testing.T) {
		err := s.Delete(ctx, "service-account-nope")
		assert.ErrorIs(t, err, store.ErrNotExists)
	})
}
