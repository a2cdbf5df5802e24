package authclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hybridui/suite/api/transport"
	"github.com/hybridui/suite/domain"
)

func newServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, 2*time.Second)
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, body interface{}) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(body))
}

func TestLoginSuccess(t *testing.T) {
	expires := time.Now().Add(30 * time.Minute).UTC()
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/login", r.URL.Path)

		var req transport.LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "admin", req.Username)
		require.Equal(t, "admin", req.Password)

		writeJSON(t, w, http.StatusOK, transport.LoginResponse{
			SessionToken: "tok-1",
			User:         domain.UserProfile{Username: "admin", Email: "admin@example.com", Role: "admin"},
			ExpiresAt:    expires,
		})
	})

	resp, err := client.Login(context.Background(), "admin", "admin")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", resp.SessionToken)
	assert.Equal(t, "admin", resp.User.Username)
	assert.True(t, expires.Equal(resp.ExpiresAt))
}

func TestLoginBadCredentials(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusUnauthorized, transport.ErrorResponse{Error: "invalid credentials"})
	})

	_, err := client.Login(context.Background(), "admin", "wrong")
	assert.True(t, errors.Is(err, domain.ErrInvalidCredentials))
}

func TestLoginUnreachableIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := New(url, 500*time.Millisecond)
	_, err := client.Login(context.Background(), "admin", "admin")
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrInvalidCredentials))
}

func TestValidatePositiveAndNegative(t *testing.T) {
	expires := time.Now().Add(10 * time.Minute).UTC()
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req transport.TokenRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		if req.SessionToken == "tok-good" {
			writeJSON(t, w, http.StatusOK, transport.NewValidateSuccess(
				domain.UserProfile{Username: "user", Email: "user@example.com", Role: "user"}, expires))
			return
		}
		writeJSON(t, w, http.StatusOK, transport.NewValidateFailure())
	})

	resp, err := client.Validate(context.Background(), "tok-good")
	require.NoError(t, err)
	require.True(t, resp.Valid)
	assert.Equal(t, "user", resp.User.Username)

	resp, err = client.Validate(context.Background(), "tok-stale")
	require.NoError(t, err)
	assert.False(t, resp.Valid)
	assert.Nil(t, resp.User)
}

func TestValidateTransportErrorIsNotANegative(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := New(url, 500*time.Millisecond)
	resp, err := client.Validate(context.Background(), "tok-good")
	require.Error(t, err)
	assert.Nil(t, resp)
}

func TestLogout(t *testing.T) {
	var gotToken string
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req transport.TokenRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotToken = req.SessionToken
		writeJSON(t, w, http.StatusOK, transport.LogoutResponse{Success: true})
	})

	require.NoError(t, client.Logout(context.Background(), "tok-1"))
	assert.Equal(t, "tok-1", gotToken)
}

func TestRefresh(t *testing.T) {
	expires := time.Now().Add(30 * time.Minute).UTC()
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req transport.TokenRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		if req.SessionToken != "tok-1" {
			writeJSON(t, w, http.StatusUnauthorized, transport.NewValidateFailure())
			return
		}
		writeJSON(t, w, http.StatusOK, transport.RefreshResponse{SessionToken: "tok-1", ExpiresAt: expires})
	})

	resp, err := client.Refresh(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.True(t, expires.Equal(resp.ExpiresAt))

	_, err = client.Refresh(context.Background(), "tok-unknown")
	assert.True(t, errors.Is(err, domain.ErrSessionNotFound))
}

func TestHealthy(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/health", r.URL.Path)
		writeJSON(t, w, http.StatusOK, transport.HealthResponse{Status: "ok", Timestamp: time.Now().UTC()})
	})
	assert.True(t, client.Healthy(context.Background()))

	// The health endpoint stays 200 during a session store outage; the
	// degraded state is carried in the status field.
	degraded := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, transport.HealthResponse{Status: "degraded", Timestamp: time.Now().UTC()})
	})
	assert.False(t, degraded.Healthy(context.Background()))

	srv := httptest.NewServer(http.NotFoundHandler())
	downURL := srv.URL
	srv.Close()
	assert.False(t, New(downURL, time.Second).Healthy(context.Background()))
}
