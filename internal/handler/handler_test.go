package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"piaxe-console/internal/config"
	"piaxe-console/internal/container"
	"piaxe-console/internal/session"
	"piaxe-console/pkg/logger"
)

func newContainer(t *testing.T, redisURL string) *container.Container {
	t.Helper()
	return newContainerFor(t, "http://localhost:8000", redisURL)
}

func newContainerFor(t *testing.T, apiURL, redisURL string) *container.Container {
	t.Helper()
	cfg := &config.Config{
		Environment:      "test",
		APIBaseURL:       apiURL,
		SiteURL:          "http://localhost:8080",
		ProxyPrefix:      "/api/proxy",
		HTTPTimeout:      time.Second,
		RedisURL:         redisURL,
		SessionNamespace: "test",
		RefreshInterval:  time.Minute,
	}
	c, err := container.New(cfg, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestHealthHandler_Check(t *testing.T) {
	t.Run("without redis", func(t *testing.T) {
		rec := httptest.NewRecorder()
		NewHealthHandler(newContainer(t, "")).Check(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		var resp HealthResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "healthy", resp.Status)
		assert.Equal(t, "piaxe-console", resp.Service)
		assert.Equal(t, "disabled", resp.Checks["redis"])
	})

	t.Run("redis down degrades", func(t *testing.T) {
		mr := miniredis.NewMiniRedis()
		require.NoError(t, mr.Start())
		c := newContainer(t, "redis://"+mr.Addr())
		require.True(t, c.HasRedis())
		mr.Close()

		rec := httptest.NewRecorder()
		NewHealthHandler(c).Check(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp HealthResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "degraded", resp.Status)
		assert.Equal(t, "unhealthy", resp.Checks["redis"])
	})
}

func TestSessionHandler_Get(t *testing.T) {
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"dfp": "dev-1"}).SignedString([]byte("k"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	req.AddCookie(&http.Cookie{Name: session.KeyAuthToken, Value: access})
	req.AddCookie(&http.Cookie{Name: session.KeyDeviceID, Value: "dev-2"})
	rec := httptest.NewRecorder()

	NewSessionHandler(session.CookieOptions{}, logger.NewNop()).Get(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), access)

	var resp SessionResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, SessionResponse{
		Authenticated: true,
		DeviceID:      "dev-2",
		TokenDeviceID: "dev-1",
		DeviceMatches: false,
	}, resp)
}

func TestSessionHandler_Delete(t *testing.T) {
	rec := httptest.NewRecorder()
	NewSessionHandler(session.CookieOptions{Secure: true}, logger.NewNop()).
		Delete(rec, httptest.NewRequest(http.MethodDelete, "/api/session", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, len(session.CookieNames))
	for _, c := range cookies {
		assert.Contains(t, session.CookieNames, c.Name)
		assert.Less(t, c.MaxAge, 0)
		assert.True(t, c.Secure)
	}
}
