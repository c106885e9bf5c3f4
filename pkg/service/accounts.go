// Package service implements the accounts orchestration core: the only
// component coordinating multiple independently-failing resources (the
// record store, the auth gateway, and the minted token).
package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/plateng/service-accounts-api/pkg/authgw"
	"github.com/plateng/service-accounts-api/pkg/model"
	"github.com/plateng/service-accounts-api/pkg/server/store"
)

// ErrNoAccessToRole is returned when the caller lacks permission over the
// auth gateway role backing an account.
var ErrNoAccessToRole = errors.New("no access to service account role")

// CreateData is the caller-supplied input for account creation.
type CreateData struct {
	Name           string
	Owner          string
	DefaultCluster string
	DefaultProject string
	DefaultOrg     string
}

// AccountsService orchestrates account CRUD across the record store and the
// auth gateway. Collaborators are injected; the service holds no ambient
// state.
type AccountsService struct {
	storage    store.AccountsStore
	gateway    authgw.Client
	apiBaseURL string

	// probeRoleOnRead re-checks the gateway on every read to report
	// whether the backing role still exists. Off by default; the probe
	// costs one gateway round trip per record.
	probeRoleOnRead bool
}

// NewAccountsService creates an AccountsService.
func NewAccountsService(storage store.AccountsStore, gateway authgw.Client, apiBaseURL string, probeRoleOnRead bool) *AccountsService {
	return &AccountsService{
		storage:         storage,
		gateway:         gateway,
		apiBaseURL:      apiBaseURL,
		probeRoleOnRead: probeRoleOnRead,
	}
}

// Create runs the multi-resource creation protocol:
//
//  1. derive the gateway role name
//  2. persist the record (uniqueness races resolve here; ErrExists
//     propagates with nothing external to clean up)
//  3. provision the gateway principal
//  4. mint its token
//  5. encode the token bundle
//
// Failure after step 2 triggers the compensating delete of the persisted
// record. Compensation is best-effort: its own failure is logged and the
// root cause still reaches the caller.
func (s *AccountsService) Create(ctx context.Context, data CreateData) (*model.AccountWithToken, error) {
	role := model.RoleName(data.Owner, data.Name)

	account, err := s.storage.Create(ctx, model.AccountData{
		Name:           data.Name,
		Owner:          data.Owner,
		Role:           role,
		DefaultCluster: data.DefaultCluster,
		DefaultProject: data.DefaultProject,
		DefaultOrg:     data.DefaultOrg,
		CreatedAt:      time.Now().UTC().Truncate(time.Microsecond),
	})
	if err != nil {
		return nil, err
	}

	var rollbacks []func() error
	rollbacks = append(rollbacks, func() error {
		return s.storage.Delete(ctx, account.ID)
	})
	compensate := func(cause error) error {
		for i := len(rollbacks) - 1; i >= 0; i-- {
			if rerr := rollbacks[i](); rerr != nil {
				log.Printf("Compensation failed for service account %s (cause: %v): %v", account.ID, cause, rerr)
			}
		}
		return cause
	}

	if err := s.gateway.AddUser(ctx, role); err != nil {
		return nil, compensate(s.mapGatewayError(err))
	}

	authToken, err := s.gateway.GetUserToken(ctx, role)
	if err != nil {
		return nil, compensate(s.mapGatewayError(err))
	}

	token, err := model.TokenBundle{
		Token:       authToken,
		Cluster:     account.DefaultCluster,
		URL:         s.apiBaseURL,
		ProjectName: account.DefaultProject,
	}.Encode()
	if err != nil {
		return nil, compensate(err)
	}

	return &model.AccountWithToken{Account: *account, Token: token}, nil
}

// Get fetches an account by id.
func (s *AccountsService) Get(ctx context.Context, id string) (*model.Account, error) {
	account, err := s.storage.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.maybeProbeRole(ctx, account)
}

// GetByName fetches a named account for an owner.
func (s *AccountsService) GetByName(ctx context.Context, name, owner string) (*model.Account, error) {
	account, err := s.storage.GetByName(ctx, name, owner)
	if err != nil {
		return nil, err
	}
	return s.maybeProbeRole(ctx, account)
}

// List lazily streams accounts for an owner (all accounts when owner is
// empty). The caller must Close the iterator.
func (s *AccountsService) List(ctx context.Context, owner string) (store.Iterator, error) {
	it, err := s.storage.List(ctx, owner)
	if err != nil {
		return nil, err
	}
	if !s.probeRoleOnRead {
		return it, nil
	}
	return &probeIterator{inner: it, svc: s, ctx: ctx}, nil
}

// Delete removes an account. The gateway principal is deprovisioned before
// the record is removed so an unexpected gateway failure leaves the record
// behind for a retry; a principal that is already gone counts as success.
func (s *AccountsService) Delete(ctx context.Context, id string) error {
	account, err := s.storage.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.gateway.DeleteUser(ctx, account.Role); err != nil && !errors.Is(err, authgw.ErrUserNotFound) {
		return s.mapGatewayError(err)
	}

	return s.storage.Delete(ctx, id)
}

func (s *AccountsService) mapGatewayError(err error) error {
	if errors.Is(err, authgw.ErrNoAccess) {
		return ErrNoAccessToRole
	}
	return err
}

func (s *AccountsService) maybeProbeRole(ctx context.Context, account *model.Account) (*model.Account, error) {
	if !s.probeRoleOnRead {
		return account, nil
	}
	deleted, err := s.roleDeleted(ctx, account.Role)
	if err != nil {
		return nil, err
	}
	probed := *account
	probed.RoleDeleted = deleted
	return &probed, nil
}

func (s *AccountsService) roleDeleted(ctx context.Context, role string) (bool, error) {
	_, err := s.gateway.GetUser(ctx, role)
	switch {
	case err == nil:
		return false, nil
	case errors.Is(err, authgw.ErrUserNotFound):
		return true, nil
	default:
		return false, err
	}
}

// probeIterator decorates a storage iterator with the role liveness probe.
type probeIterator struct {
	inner   store.Iterator
	svc     *AccountsService
	ctx     context.Context
	current *model.Account
	err     error
}

func (it *probeIterator) Next() bool {
	if it.err != nil {
		return false
	}
	if !it.inner.Next() {
		return false
	}
	account, err := it.svc.maybeProbeRole(it.ctx, it.inner.Account())
	if err != nil {
		it.err = err
		return false
	}
	it.current = account
	return true
}

func (it *probeIterator) Account() *model.Account { return it.current }

func (it *probeIterator) Err() error {
	if it.err != nil {
		return it.err
	}
	return it.inner.Err()
}

func (it *probeIterator) Close() error { return it.inner.Close() }
