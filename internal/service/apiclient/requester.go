package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"piaxe-console/internal/device"
	apperrors "piaxe-console/pkg/errors"
	"piaxe-console/pkg/logger"
)

// Options configures a Requester
type Options struct {
	BaseURL      string // absolute backend base
	ProxyBaseURL string // same-origin proxy base used by browser clients
	Policy       device.Policy
	TokenSource  oauth2.TokenSource
	HTTPClient   *http.Client
	Logger       *logger.Logger
}

// Requester is the request core shared by the domain clients. It picks the
// base URL, attaches the bearer token and device headers, and maps failed
// responses onto AppErrors.
type Requester struct {
	baseURL      string
	proxyBaseURL string
	policy       device.Policy
	tokens       oauth2.TokenSource
	httpClient   *http.Client
	logger       *logger.Logger
}

// New creates a Requester
func New(opts Options) *Requester {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}
	return &Requester{
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		proxyBaseURL: strings.TrimRight(opts.ProxyBaseURL, "/"),
		policy:       opts.Policy,
		tokens:       opts.TokenSource,
		httpClient:   httpClient,
		logger:       log,
	}
}

// WithTokenSource returns a copy that authenticates with ts
func (r *Requester) WithTokenSource(ts oauth2.TokenSource) *Requester {
	cp := *r
	cp.tokens = ts
	return &cp
}

// WithToken returns a copy bound to a fixed access token
func (r *Requester) WithToken(accessToken string) *Requester {
	return r.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}))
}

// BaseURL is the base requests are sent to under the current policy
func (r *Requester) BaseURL() string {
	if r.policy.UseProxy() && r.proxyBaseURL != "" {
		return r.proxyBaseURL
	}
	return r.baseURL
}

// Get issues a GET and decodes the JSON response into out
func (r *Requester) Get(ctx context.Context, path string, query url.Values, out interface{}) error {
	return r.Do(ctx, http.MethodGet, path, query, nil, out)
}

// Post issues a POST with a JSON body
func (r *Requester) Post(ctx context.Context, path string, body, out interface{}) error {
	return r.Do(ctx, http.MethodPost, path, nil, body, out)
}

// Patch issues a PATCH with a JSON body
func (r *Requester) Patch(ctx context.Context, path string, body, out interface{}) error {
	return r.Do(ctx, http.MethodPatch, path, nil, body, out)
}

// Do performs one request. out may be nil when the response body is not needed.
func (r *Requester) Do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	endpoint := r.BaseURL() + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if r.tokens != nil {
		tok, err := r.tokens.Token()
		if err != nil {
			return fmt.Errorf("failed to obtain access token: %w", err)
		}
		tok.SetAuthHeader(req)
		for name, value := range r.policy.Headers(tok.AccessToken) {
			req.Header.Set(name, value)
		}
	}

	start := time.Now()
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return apperrors.NewExternalError("Backend request failed", err)
	}
	defer resp.Body.Close()

	r.logger.WithFields(map[string]interface{}{
		"method":   method,
		"path":     path,
		"status":   resp.StatusCode,
		"duration": time.Since(start).String(),
		"proxied":  r.policy.UseProxy(),
	}).Debug("Backend request completed")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperrors.FromResponse(resp, fmt.Sprintf("Request failed with status %d", resp.StatusCode))
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		r.logger.WithFields(map[string]interface{}{
			"path":        path,
			"status_code": resp.StatusCode,
		}).Error("Failed to parse backend response")
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// DecodeList accepts either a bare JSON array or a paginated envelope with
// "results" or "items".
func DecodeList[T any](raw json.RawMessage) ([]T, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []T{}, nil
	}

	if trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("failed to parse list: %w", err)
		}
		return items, nil
	}

	var envelope struct {
		Results []T `json:"results"`
		Items   []T `json:"items"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse list envelope: %w", err)
	}
	if envelope.Results != nil {
		return envelope.Results, nil
	}
	if envelope.Items != nil {
		return envelope.Items, nil
	}
	return []T{}, nil
}
