// Package authgw is the consumer-side contract for the external
// authorization gateway: the service that owns principals ("roles") and
// mints the bearer credentials handed out with new service accounts. The
// gateway is an unreliable network collaborator; callers must be prepared
// for any call to fail.
package authgw

import (
	"context"
	"errors"
)

var (
	// ErrUserNotFound is returned when the gateway has no such principal.
	ErrUserNotFound = errors.New("auth gateway user not found")

	// ErrNoAccess is returned when the caller lacks permission over the
	// requested principal.
	ErrNoAccess = errors.New("no access to auth gateway user")
)

// User is a principal known to the auth gateway.
type User struct {
	Name string `json:"name"`
}

// Client is the capability interface consumed by the accounts service.
type Client interface {
	// AddUser provisions a principal.
	AddUser(ctx context.Context, name string) error

	// DeleteUser deprovisions a principal. Deleting an already-absent
	// principal returns ErrUserNotFound; callers that treat that as
	// success must swallow it themselves.
	DeleteUser(ctx context.Context, name string) error

	// GetUser probes for a principal's existence.
	GetUser(ctx context.Context, name string) (*User, error)

	// GetUserToken mints a bearer credential for a principal. Assumed to
	// succeed once the principal exists.
	GetUserToken(ctx context.Context, name string) (string, error)
}
