package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type backend struct {
	mu      sync.Mutex
	devices map[string]string // path -> X-Device-ID seen
	logouts int
}

func newBackend(t *testing.T) (*httptest.Server, *backend) {
	t.Helper()
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"dfp": "cli-device"}).SignedString([]byte("k"))
	require.NoError(t, err)

	b := &backend{devices: map[string]string{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.devices[r.URL.Path] = r.Header.Get("X-Device-ID")
		b.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch r.Method + " " + r.URL.Path {
		case "POST /auth/login/", "POST /auth/token/refresh/":
			_ = json.NewEncoder(w).Encode(map[string]string{"access_token": access, "refresh_token": "r1"})
		case "GET /auth/profile/":
			if r.Header.Get("Authorization") != "Bearer "+access {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte(`{"id":"u1","username":"ada","is_verified":true}`))
		case "GET /stores/":
			_, _ = w.Write([]byte(`{"results":[{"id":"s1","name":"Ada - Main Store","is_active":true}]}`))
		case "POST /auth/logout/":
			b.mu.Lock()
			b.logouts++
			b.mu.Unlock()
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, b
}

func setEnv(t *testing.T, apiURL, redisURL string) {
	t.Helper()
	t.Setenv("NEXT_PUBLIC_API_BASE_URL", apiURL)
	t.Setenv("REDIS_URL", redisURL)
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("SESSION_NAMESPACE", "cli")
	t.Setenv("EXECUTION_CONTEXT", "browser")
}

func exec(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(context.Background(), args, &out)
	return out.String(), err
}

func TestRun_SessionLifecycle(t *testing.T) {
	srv, b := newBackend(t)
	mr := miniredis.RunT(t)
	setEnv(t, srv.URL, "redis://"+mr.Addr())

	out, err := exec(t, "login", "-u", "ada", "-p", "secret")
	require.NoError(t, err)
	assert.Equal(t, "signed in as ada (device cli-device)\n", out)

	out, err = exec(t, "whoami", "--check-stores")
	require.NoError(t, err)
	var who whoami
	require.NoError(t, json.Unmarshal([]byte(out), &who))
	assert.Equal(t, "ada", who.User.Username)
	assert.Equal(t, "cli-device", who.DeviceID)
	assert.True(t, who.HasStores)
	assert.True(t, who.IsBusiness)

	out, err = exec(t, "stores")
	require.NoError(t, err)
	assert.Contains(t, out, "Ada - Main Store")

	_, err = exec(t, "refresh")
	require.NoError(t, err)

	out, err = exec(t, "logout")
	require.NoError(t, err)
	assert.Equal(t, "signed out\n", out)

	_, err = exec(t, "whoami")
	assert.EqualError(t, err, "not signed in")

	b.mu.Lock()
	defer b.mu.Unlock()
	assert.Equal(t, 1, b.logouts)
	// The terminal always runs as a server, so the device header is sent.
	assert.Equal(t, "cli-device", b.devices["/stores/"])
	assert.Equal(t, "cli-device", b.devices["/auth/logout/"])
}

func TestRun_Usage(t *testing.T) {
	_, err := exec(t)
	assert.EqualError(t, err, "no command given")

	_, err = exec(t, "nope")
	assert.EqualError(t, err, `unknown command "nope"`)

	_, err = exec(t, "whoami", "extra")
	assert.EqualError(t, err, "unexpected argument: extra")

	_, err = exec(t, "--help")
	assert.NoError(t, err)
}

func TestRun_LoginRequiresUsername(t *testing.T) {
	srv, _ := newBackend(t)
	setEnv(t, srv.URL, "")

	_, err := exec(t, "login", "-p", "secret")
	assert.Error(t, err)
}
