package endpoints

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusEndpoints(t *testing.T) {
	t.Run("ping is open", func(t *testing.T) {
		env := newTestEnv(t)

		req := httptest.NewRequest("GET", "/ping", nil)
		w := httptest.NewRecorder()
		env.server.Router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Pong", w.Body.String())
	})

	t.Run("secured ping requires auth", func(t *testing.T) {
		env := newTestEnv(t)

		req := httptest.NewRequest("GET", "/secured-ping", nil)
		w := httptest.NewRecorder()
		env.server.Router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("secured ping answers an authenticated caller", func(t *testing.T) {
		env := newTestEnv(t)
		env.authenticate("alice")

		req := httptest.NewRequest("GET", "/secured-ping", nil)
		req.Header.Set("Authorization", "Bearer "+bearerToken(t, "alice"))
		w := httptest.NewRecorder()
		env.server.Router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Secured Pong", w.Body.String())
	})
}
