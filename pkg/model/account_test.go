package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidName(t *testing.T) {
	valid := []string{
		"billing",
		"billing-reports",
		"billing.reports",
		"a",
		"a1",
		"team-a.svc-1.prod",
	}
	for _, name := range valid {
		t.Run("accepts "+name, func(t *testing.T) {
			assert.True(t, ValidName(name))
		})
	}

	invalid := []string{
		"",
		"Billing",
		"-billing",
		"billing-",
		"billing..reports",
		".billing",
		"billing.",
		"bill ing",
		"billing_reports",
	}
	for _, name := range invalid {
		t.Run("rejects "+strings.ReplaceAll(name, " ", "_"), func(t *testing.T) {
			assert.False(t, ValidName(name))
		})
	}
}

func TestNewAccountID(t *testing.T) {
	id := NewAccountID()
	assert.True(t, strings.HasPrefix(id, "service-account-"))
	assert.NotEqual(t, id, NewAccountID())
}

func TestRoleName(t *testing.T) {
	t.Run("uses the account name when present", func(t *testing.T) {
		assert.Equal(t, "alice/service-accounts/test", RoleName("alice", "test"))
	})

	t.Run("generates a hex placeholder for unnamed accounts", func(t *testing.T) {
		role := RoleName("alice", "")
		assert.True(t, strings.HasPrefix(role, "alice/service-accounts/"))

		suffix := strings.TrimPrefix(role, "alice/service-accounts/")
		assert.Len(t, suffix, 16)
		assert.NotEqual(t, role, RoleName("alice", ""))
	})
}
