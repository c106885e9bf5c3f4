package model

import (
	"crypto/rand"
	"encoding/hex"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// IDPrefix is prepended to every generated service account id.
const IDPrefix = "service-account"

// NamePattern matches valid service account names: one or more dot-separated
// segments, each lowercase alphanumeric with optional internal hyphens.
var NamePattern = regexp.MustCompile(
	`^[a-z0-9](?:[-a-z0-9]*[a-z0-9])?(?:\.[a-z0-9](?:[-a-z0-9]*[a-z0-9])?)*$`,
)

// AccountData holds the write-side fields of a service account, before an
// identity has been assigned. An empty Name means the account is unnamed;
// unnamed accounts are exempt from the (name, owner) uniqueness constraint.
type AccountData struct {
	Name           string    `json:"name,omitempty"`
	Owner          string    `json:"owner"`
	Role           string    `json:"role"`
	DefaultCluster string    `json:"default_cluster"`
	DefaultProject string    `json:"default_project"`
	DefaultOrg     string    `json:"default_org,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Account is a persisted service account. RoleDeleted is computed on read
// when the role probe is enabled; it is never persisted.
type Account struct {
	AccountData
	ID          string `json:"id"`
	RoleDeleted bool   `json:"role_deleted"`
}

// AccountWithToken is returned only from account creation. The token is
// never persisted and cannot be retrieved again.
type AccountWithToken struct {
	Account
	Token string `json:"token"`
}

// ValidName reports whether name is a valid service account name.
func ValidName(name string) bool {
	return NamePattern.MatchString(name)
}

// NewAccountID generates a fresh globally unique account id.
func NewAccountID() string {
	return IDPrefix + "-" + uuid.NewString()
}

// RoleName derives the auth gateway role for an account. Unnamed accounts
// get a random hex placeholder so the role is still unique enough.
func RoleName(owner, name string) string {
	if name == "" {
		name = randomHex(8)
	}
	return owner + "/service-accounts/" + name
}

func randomHex(n int) string {
	buf := make([]byte, n)
	// rand.Read never fails on supported platforms
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

// NewAccount assigns an id to account data, producing a persistable record.
func NewAccount(id string, data AccountData) *Account {
	return &Account{AccountData: data, ID: id}
}
