package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/plateng/service-accounts-api/pkg/authgw"
	"github.com/plateng/service-accounts-api/pkg/model"
	"github.com/plateng/service-accounts-api/pkg/server/store"
)

// MockAccountsStore implements store.AccountsStore for testing using testify/mock
type MockAccountsStore struct {
	mock.Mock
}

func (m *MockAccountsStore) Create(ctx context.Context, data model.AccountData) (*model.Account, error) {
	args := m.Called(ctx, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Account), args.Error(1)
}

func (m *MockAccountsStore) Get(ctx context.Context, id string) (*model.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Account), args.Error(1)
}

func (m *MockAccountsStore) GetByName(ctx context.Context, name, owner string) (*model.Account, error) {
	args := m.Called(ctx, name, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Account), args.Error(1)
}

func (m *MockAccountsStore) List(ctx context.Context, owner string) (store.Iterator, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(store.Iterator), args.Error(1)
}

func (m *MockAccountsStore) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockGatewayClient implements authgw.Client for testing using testify/mock
type MockGatewayClient struct {
	mock.Mock
}

func (m *MockGatewayClient) AddUser(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

func (m *MockGatewayClient) DeleteUser(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

func (m *MockGatewayClient) GetUser(ctx context.Context, name string) (*authgw.User, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authgw.User), args.Error(1)
}

func (m *MockGatewayClient) GetUserToken(ctx context.Context, name string) (string, error) {
	args := m.Called(ctx, name)
	return args.String(0), args.Error(1)
}
