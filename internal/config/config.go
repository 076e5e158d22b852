package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"piaxe-console/internal/device"
)

// Config holds all configuration values for the console
type Config struct {
	Port           string
	Environment    string
	LogLevel       string
	AllowedOrigins []string

	// Backend and proxy
	APIBaseURL  string
	SiteURL     string // public origin of the console, used to build proxy URLs
	ProxyPrefix string
	LoginPath   string
	HTTPTimeout time.Duration

	// Device binding
	ExecutionContext          device.ExecutionContext
	SendDeviceHeaderInBrowser bool

	// Session persistence
	RedisURL         string
	SessionNamespace string
	RefreshInterval  time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	execCtx, err := device.ParseExecutionContext(getEnv("EXECUTION_CONTEXT", "server"))
	if err != nil {
		return nil, fmt.Errorf("invalid EXECUTION_CONTEXT: %w", err)
	}

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		Environment:    getEnv("ENVIRONMENT", "production"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AllowedOrigins: parseOrigins(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),

		APIBaseURL:  strings.TrimRight(getEnv("NEXT_PUBLIC_API_BASE_URL", getEnv("API_BASE_URL", "http://localhost:8000")), "/"),
		SiteURL:     strings.TrimRight(getEnv("SITE_URL", "http://localhost:8080"), "/"),
		ProxyPrefix: "/" + strings.Trim(getEnv("PROXY_PREFIX", "/api/proxy"), "/"),
		LoginPath:   getEnv("LOGIN_PATH", "/login"),
		HTTPTimeout: getDurationEnv("HTTP_TIMEOUT", 30*time.Second),

		ExecutionContext: execCtx,
		SendDeviceHeaderInBrowser: getBoolEnv("NEXT_PUBLIC_SEND_DEVICE_HEADER_IN_BROWSER",
			getBoolEnv("SEND_DEVICE_HEADER_IN_BROWSER", false)),

		RedisURL:         getEnv("REDIS_URL", ""),
		SessionNamespace: getEnv("SESSION_NAMESPACE", "default"),
		RefreshInterval:  getDurationEnv("REFRESH_INTERVAL", 15*time.Minute),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values that would otherwise fail late
func (c *Config) Validate() error {
	var problems []string

	if !strings.HasPrefix(c.APIBaseURL, "http://") && !strings.HasPrefix(c.APIBaseURL, "https://") {
		problems = append(problems, "API base URL must be absolute")
	}
	if c.RefreshInterval <= 0 {
		problems = append(problems, "REFRESH_INTERVAL must be positive")
	}
	if c.HTTPTimeout <= 0 {
		problems = append(problems, "HTTP_TIMEOUT must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(problems, "; "))
	}
	return nil
}

// DevicePolicy returns the header policy for this process
func (c *Config) DevicePolicy() device.Policy {
	return device.Policy{
		Context:       c.ExecutionContext,
		SendInBrowser: c.SendDeviceHeaderInBrowser,
	}
}

// ProxyBaseURL is the same-origin base browser clients call instead of the backend
func (c *Config) ProxyBaseURL() string {
	return c.SiteURL + c.ProxyPrefix
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// parseOrigins parses comma-separated origins into a slice
func parseOrigins(origins string) []string {
	if origins == "" {
		return []string{}
	}

	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))

	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// getBoolEnv gets a boolean environment variable with a fallback value
func getBoolEnv(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

// getDurationEnv accepts Go durations ("15m") or plain seconds ("900")
func getDurationEnv(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
