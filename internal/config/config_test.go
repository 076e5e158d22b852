package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"piaxe-console/internal/device"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("NEXT_PUBLIC_API_BASE_URL", "")
	t.Setenv("API_BASE_URL", "")
	t.Setenv("NEXT_PUBLIC_SEND_DEVICE_HEADER_IN_BROWSER", "")
	t.Setenv("SEND_DEVICE_HEADER_IN_BROWSER", "")
	t.Setenv("EXECUTION_CONTEXT", "")
	t.Setenv("REFRESH_INTERVAL", "")
	t.Setenv("PROXY_PREFIX", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", cfg.APIBaseURL)
	assert.Equal(t, "/api/proxy", cfg.ProxyPrefix)
	assert.Equal(t, device.Server, cfg.ExecutionContext)
	assert.False(t, cfg.SendDeviceHeaderInBrowser)
	assert.Equal(t, 15*time.Minute, cfg.RefreshInterval)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("NEXT_PUBLIC_API_BASE_URL", "https://api.piaxe.test/v1/")
	t.Setenv("NEXT_PUBLIC_SEND_DEVICE_HEADER_IN_BROWSER", "true")
	t.Setenv("EXECUTION_CONTEXT", "browser")
	t.Setenv("SITE_URL", "https://console.piaxe.test/")
	t.Setenv("PROXY_PREFIX", "api/proxy/")
	t.Setenv("REFRESH_INTERVAL", "300")
	t.Setenv("HTTP_TIMEOUT", "5s")
	t.Setenv("ALLOWED_ORIGINS", "https://a.test, https://b.test ,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.piaxe.test/v1", cfg.APIBaseURL)
	assert.Equal(t, device.Browser, cfg.ExecutionContext)
	assert.True(t, cfg.SendDeviceHeaderInBrowser)
	assert.Equal(t, 5*time.Minute, cfg.RefreshInterval)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.AllowedOrigins)
	assert.Equal(t, "https://console.piaxe.test/api/proxy", cfg.ProxyBaseURL())

	policy := cfg.DevicePolicy()
	assert.Equal(t, device.Browser, policy.Context)
	assert.True(t, policy.SendInBrowser)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "relative api base", key: "NEXT_PUBLIC_API_BASE_URL", value: "/api"},
		{name: "unknown execution context", key: "EXECUTION_CONTEXT", value: "edge"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			cfg, err := Load()
			assert.Error(t, err)
			assert.Nil(t, cfg)
		})
	}
}

func TestGetDurationEnv(t *testing.T) {
	t.Setenv("TEST_DURATION", "garbage")
	assert.Equal(t, time.Second, getDurationEnv("TEST_DURATION", time.Second))

	t.Setenv("TEST_DURATION", "2m")
	assert.Equal(t, 2*time.Minute, getDurationEnv("TEST_DURATION", time.Second))
}
