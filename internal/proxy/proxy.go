// Package proxy forwards browser calls made against the console's own origin
// to the backend, attaching the credentials the browser could not send
// cross-origin without a preflight.
package proxy

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"piaxe-console/internal/device"
	"piaxe-console/internal/session"
	"piaxe-console/pkg/errors"
	"piaxe-console/pkg/logger"
)

// Handler is a reverse proxy from prefix to the backend base URL
type Handler struct {
	prefix string
	target *url.URL
	policy device.Policy
	proxy  *httputil.ReverseProxy
	log    *logger.Logger
}

// New creates a proxy for requests under prefix. The server-side policy is
// always used when forwarding, since the hop to the backend is not subject
// to CORS.
func New(prefix, backendBaseURL string, transport http.RoundTripper, log *logger.Logger) (*Handler, error) {
	target, err := url.Parse(backendBaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid backend URL: %w", err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("backend URL must be absolute: %q", backendBaseURL)
	}

	h := &Handler{
		prefix: "/" + strings.Trim(prefix, "/"),
		target: target,
		policy: device.Policy{Context: device.Server},
		log:    log.Named("proxy"),
	}
	h.proxy = &httputil.ReverseProxy{
		Rewrite:      h.rewrite,
		Transport:    transport,
		ErrorHandler: h.handleError,
	}
	return h, nil
}

// Mount registers the proxy on r
func (h *Handler) Mount(r chi.Router) {
	r.Handle(h.prefix+"/*", h)
}

// Prefix returns the path prefix the proxy serves
func (h *Handler) Prefix() string {
	return h.prefix
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.proxy.ServeHTTP(w, r)
}

func (h *Handler) rewrite(pr *httputil.ProxyRequest) {
	in := pr.In
	out := pr.Out

	out.URL.Path = strings.TrimPrefix(in.URL.Path, h.prefix)
	out.URL.RawPath = ""
	if out.URL.Path == "" {
		out.URL.Path = "/"
	}
	pr.SetURL(h.target)
	pr.SetXForwarded()

	cookies := session.FromRequest(in)

	bearer := ""
	if auth := in.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		bearer = strings.TrimPrefix(auth, "Bearer ")
	} else if cookies.Authenticated() {
		bearer = cookies.AccessToken
		out.Header.Set("Authorization", "Bearer "+bearer)
	}

	if out.Header.Get(device.HeaderDeviceID) == "" {
		if id, ok := h.policy.Headers(bearer)[device.HeaderDeviceID]; ok {
			out.Header.Set(device.HeaderDeviceID, id)
		} else if cookies.DeviceID != "" {
			out.Header.Set(device.HeaderDeviceID, cookies.DeviceID)
		}
	}

	// Session cookies belong to the console origin, not the backend.
	out.Header.Del("Cookie")

	h.log.WithFields(map[string]interface{}{
		"method": in.Method,
		"path":   out.URL.Path,
		"device": out.Header.Get(device.HeaderDeviceID) != "",
	}).Debug("Proxying request")
}

func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	h.log.WithError(err).WithField("path", r.URL.Path).Error("Backend unreachable")

	appErr := errors.NewExternalError("Backend unavailable", err)
	response := &errors.ErrorResponse{}
	response.Error.Type = appErr.Type
	response.Error.Message = appErr.Message
	response.Error.Timestamp = time.Now().UTC().Format(time.RFC3339)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode)
	_ = json.NewEncoder(w).Encode(response)
}
