package authgw

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClient(t *testing.T) {
	ctx := context.Background()

	t.Run("AddUser posts the principal name", func(t *testing.T) {
		var gotPath, gotAuth string
		var gotBody User
		gw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.Method + " " + r.URL.Path
			gotAuth = r.Header.Get("Authorization")
			_ = json.NewDecoder(r.Body).Decode(&gotBody)
			w.WriteHeader(http.StatusCreated)
		}))
		defer gw.Close()

		client := NewHTTPClient(gw.URL, StaticTokenSource("svc-token"))
		require.NoError(t, client.AddUser(ctx, "alice/service-accounts/test"))

		assert.Equal(t, "POST /users", gotPath)
		assert.Equal(t, "Bearer svc-token", gotAuth)
		assert.Equal(t, "alice/service-accounts/test", gotBody.Name)
	})

	t.Run("DeleteUser escapes the principal name", func(t *testing.T) {
		var gotPath string
		gw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.EscapedPath()
			w.WriteHeader(http.StatusNoContent)
		}))
		defer gw.Close()

		client := NewHTTPClient(gw.URL, StaticTokenSource("svc-token"))
		require.NoError(t, client.DeleteUser(ctx, "alice/service-accounts/test"))

		assert.Equal(t, "/users/alice%2Fservice-accounts%2Ftest", gotPath)
	})

	t.Run("maps 404 to ErrUserNotFound", func(t *testing.T) {
		gw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer gw.Close()

		client := NewHTTPClient(gw.URL, StaticTokenSource("svc-token"))
		err := client.DeleteUser(ctx, "ghost")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("maps 403 to ErrNoAccess", func(t *testing.T) {
		gw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer gw.Close()

		client := NewHTTPClient(gw.URL, StaticTokenSource("svc-token"))
		err := client.AddUser(ctx, "alice/service-accounts/test")
		assert.ErrorIs(t, err, ErrNoAccess)
	})

	t.Run("GetUser retries transient failures", func(t *testing.T) {
		var calls atomic.Int32
		gw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			_ = json.NewEncoder(w).Encode(User{Name: "alice"})
		}))
		defer gw.Close()

		client := NewHTTPClient(gw.URL, StaticTokenSource("svc-token"))
		user, err := client.GetUser(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "alice", user.Name)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("GetUser does not retry a missing principal", func(t *testing.T) {
		var calls atomic.Int32
		gw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusNotFound)
		}))
		defer gw.Close()

		client := NewHTTPClient(gw.URL, StaticTokenSource("svc-token"))
		_, err := client.GetUser(ctx, "ghost")
		assert.ErrorIs(t, err, ErrUserNotFound)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("GetUserToken parses the minted credential", func(t *testing.T) {
		var gotPath string
		gw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.Method + " " + r.URL.EscapedPath()
			_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "minted"})
		}))
		defer gw.Close()

		client := NewHTTPClient(gw.URL, StaticTokenSource("svc-token"))
		token, err := client.GetUserToken(ctx, "alice/service-accounts/test")
		require.NoError(t, err)
		assert.Equal(t, "minted", token)
		assert.Equal(t, "POST /users/alice%2Fservice-accounts%2Ftest/token", gotPath)
	})

	t.Run("reports unexpected statuses with context", func(t *testing.T) {
		gw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
			_, _ = w.Write([]byte("short and stout"))
		}))
		defer gw.Close()

		client := NewHTTPClient(gw.URL, StaticTokenSource("svc-token"))
		err := client.AddUser(ctx, "alice")

		var statusErr *StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusTeapot, statusErr.Status)
		assert.Contains(t, err.Error(), "short and stout")
	})
}
