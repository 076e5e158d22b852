package middleware

import (
	"net/http"

	"github.com/go-chi/cors"

	"piaxe-console/internal/device"
	"piaxe-console/pkg/logger"
)

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

// DefaultCORSConfig returns a default CORS configuration. The device header
// is only allowed when browsers are configured to send it; otherwise it
// would invite preflights the backend never expects.
func DefaultCORSConfig(origins []string, allowDeviceHeader bool) *CORSConfig {
	headers := []string{
		"Accept",
		"Content-Type",
		"Content-Length",
		"Accept-Encoding",
		"Authorization",
		"X-Requested-With",
	}
	if allowDeviceHeader {
		headers = append(headers, device.HeaderDeviceID)
	}

	return &CORSConfig{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: headers,
		ExposedHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}
}

// CORS creates a CORS middleware backed by go-chi/cors
func CORS(config *CORSConfig, log *logger.Logger) func(http.Handler) http.Handler {
	if config == nil {
		config = DefaultCORSConfig(nil, false)
	}

	log.WithFields(map[string]interface{}{
		"origins": config.AllowedOrigins,
		"headers": config.AllowedHeaders,
	}).Debug("CORS configured")

	return cors.Handler(cors.Options{
		AllowedOrigins:   config.AllowedOrigins,
		AllowedMethods:   config.AllowedMethods,
		AllowedHeaders:   config.AllowedHeaders,
		ExposedHeaders:   config.ExposedHeaders,
		AllowCredentials: config.AllowCredentials,
		MaxAge:           config.MaxAge,
	})
}
