package endpoints

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/plateng/service-accounts-api/pkg/authgw"
)

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
