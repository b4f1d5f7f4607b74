package adapter_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/startzen/pkg/adapter"
	"github.com/m-mizutani/startzen/pkg/model"
)

func newKratosServer(t *testing.T, handler http.HandlerFunc) *adapter.Kratos {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return adapter.NewKratos(server.URL, 5*time.Second)
}

func TestKratosSession(t *testing.T) {
	ctx := context.Background()

	t.Run("active session returns user", func(t *testing.T) {
		k := newKratosServer(t, func(w http.ResponseWriter, r *http.Request) {
			gt.Equal(t, r.URL.Path, "/sessions/whoami")
			gt.S(t, r.Header.Get("Cookie")).Contains("ory_kratos_session=valid")

			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id":     "session-1",
				"active": true,
				"identity": map[string]any{
					"id":         "user-1",
					"schema_id":  "default",
					"schema_url": "http://kratos/schemas/default.json",
					"traits": map[string]any{
						"email": "ada@example.com",
						"name":  map[string]any{"first": "Ada", "last": "Lovelace"},
					},
				},
			})
		})

		user, err := k.Session(ctx, "ory_kratos_session=valid")
		gt.NoError(t, err)
		gt.V(t, user).NotNil()
		gt.Equal(t, user.ID, model.UserID("user-1"))
		gt.Equal(t, user.Email, "ada@example.com")
		gt.Equal(t, user.DisplayName, "Ada Lovelace")
	})

	t.Run("unauthorized session is anonymous", func(t *testing.T) {
		k := newKratosServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"code":401,"message":"no session"}}`))
		})

		user, err := k.Session(ctx, "ory_kratos_session=expired")
		gt.NoError(t, err)
		gt.V(t, user).Nil()
	})

	t.Run("empty cookie skips the provider", func(t *testing.T) {
		called := false
		k := newKratosServer(t, func(w http.ResponseWriter, r *http.Request) {
			called = true
		})

		user, err := k.Session(ctx, "")
		gt.NoError(t, err)
		gt.V(t, user).Nil()
		gt.False(t, called)
	})

	t.Run("server error is reported", func(t *testing.T) {
		k := newKratosServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

		_, err := k.Session(ctx, "ory_kratos_session=x")
		gt.Error(t, err)
	})

	t.Run("email is used when name is missing", func(t *testing.T) {
		k := newKratosServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id":     "session-2",
				"active": true,
				"identity": map[string]any{
					"id":         "user-2",
					"schema_id":  "default",
					"schema_url": "http://kratos/schemas/default.json",
					"traits":     map[string]any{"email": "bob@example.com"},
				},
			})
		})

		user, err := k.Session(ctx, "ory_kratos_session=valid")
		gt.NoError(t, err)
		gt.Equal(t, user.DisplayName, "bob@example.com")
	})
}

func TestKratosLoginURL(t *testing.T) {
	k := adapter.NewKratos("https://auth.example.com/", time.Second)
	loginURL := k.LoginURL("https://acme.example.com/app")
	gt.True(t, strings.HasPrefix(loginURL, "https://auth.example.com/self-service/login/browser?return_to="))
	gt.S(t, loginURL).Contains("https%3A%2F%2Facme.example.com%2Fapp")
}

func logoutFlowHandler(t *testing.T, revoke http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gt.S(t, r.Header.Get("Cookie")).Contains("ory_kratos_session=valid")
		switch r.URL.Path {
		case "/self-service/logout/browser":
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"logout_token": "token-1",
				"logout_url":   "https://auth.example.com/self-service/logout?token=token-1",
			})
		case "/self-service/logout":
			gt.Equal(t, r.URL.Query().Get("token"), "token-1")
			revoke(w, r)
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func TestKratosLogout(t *testing.T) {
	ctx := context.Background()

	t.Run("session is revoked server side", func(t *testing.T) {
		var revoked atomic.Bool
		k := newKratosServer(t, logoutFlowHandler(t, func(w http.ResponseWriter, r *http.Request) {
			revoked.Store(true)
			w.WriteHeader(http.StatusNoContent)
		}))

		logoutURL, err := k.Logout(ctx, "ory_kratos_session=valid")
		gt.NoError(t, err)
		gt.Equal(t, logoutURL, "")
		gt.True(t, revoked.Load())
	})

	t.Run("failed revocation returns the flow URL", func(t *testing.T) {
		k := newKratosServer(t, logoutFlowHandler(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":{"code":500,"message":"unavailable"}}`))
		}))

		logoutURL, err := k.Logout(ctx, "ory_kratos_session=valid")
		gt.Error(t, err)
		gt.Equal(t, logoutURL, "https://auth.example.com/self-service/logout?token=token-1")
	})

	t.Run("no session needs no flow", func(t *testing.T) {
		called := false
		k := newKratosServer(t, func(w http.ResponseWriter, r *http.Request) {
			called = true
		})

		logoutURL, err := k.Logout(ctx, "")
		gt.NoError(t, err)
		gt.Equal(t, logoutURL, "")
		gt.False(t, called)
	})
}
