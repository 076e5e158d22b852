package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"piaxe-console/internal/device"
	"piaxe-console/internal/domain"
	"piaxe-console/internal/service/store"
	apperrors "piaxe-console/pkg/errors"
	"piaxe-console/pkg/logger"
	"piaxe-console/pkg/utils"
)

const (
	pathLogin               = "/auth/login/"
	pathRegister            = "/auth/register/"
	pathRefresh             = "/auth/token/refresh/"
	pathLogout              = "/auth/logout/"
	pathProfile             = "/auth/profile/"
	pathVerifyEmail         = "/auth/verify-email/"
	pathPasswordReset       = "/auth/password-reset/"
	pathPasswordResetDone   = "/auth/password-reset/confirm/"
	pathDeveloperRegister   = "/developers/register/"
	pathDeveloperCreds      = "/developers/credentials/"
	pathDeveloperCredsRegen = "/developers/credentials/regenerate/"
	pathBusinessProfile     = "/business/profile/"

	defaultLogoutTimeout = 10 * time.Second
)

// Client talks to the authentication endpoints. It remembers the device id
// of the session it serves and sends it on every call; unlike the domain
// clients it does not apply the browser header rule.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	stores        *store.Client
	logger        *logger.Logger
	logoutTimeout time.Duration

	mu       sync.RWMutex
	deviceID string

	pending sync.WaitGroup
}

// NewClient creates an auth API client. stores is used by
// CreateBusinessAccount and may be nil when that operation is not needed.
func NewClient(baseURL string, httpClient *http.Client, stores *store.Client, log *logger.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		httpClient:    httpClient,
		stores:        stores,
		logger:        log.Named("authapi"),
		logoutTimeout: defaultLogoutTimeout,
	}
}

// SetDeviceID sets the device id sent with subsequent calls
func (c *Client) SetDeviceID(id string) {
	c.mu.Lock()
	c.deviceID = id
	c.mu.Unlock()
}

// DeviceID returns the current device id
func (c *Client) DeviceID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.deviceID
}

func (c *Client) headers(accessToken string) http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	if accessToken != "" {
		h.Set("Authorization", "Bearer "+accessToken)
	}
	if id := c.DeviceID(); id != "" {
		h.Set(device.HeaderDeviceID, id)
	}
	return h
}

func (c *Client) do(ctx context.Context, method, path, accessToken string, body, out interface{}, fallback string) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header = c.headers(accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.NewExternalError(fallback, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		appErr := apperrors.FromResponse(resp, fallback)
		c.logger.WithFields(map[string]interface{}{
			"path":        path,
			"status_code": resp.StatusCode,
			"body_kind":   appErr.Details["body_kind"],
		}).Debug("Auth request rejected")
		return appErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse %s response: %w", path, err)
	}
	return nil
}

// validationError turns ozzo field errors into an AppError
func validationError(message string, err error) error {
	details := map[string]interface{}{}
	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		for field, fe := range fieldErrs {
			details[field] = fe.Error()
		}
	} else {
		details["error"] = err.Error()
	}
	return apperrors.NewValidationError(message, details)
}

// Login exchanges credentials for a token pair
func (c *Client) Login(ctx context.Context, creds domain.Credentials) (*domain.TokenResponse, error) {
	if err := creds.Validate(); err != nil {
		return nil, validationError("Invalid login details", err)
	}
	var resp domain.TokenResponse
	if err := c.do(ctx, http.MethodPost, pathLogin, "", creds, &resp, "Login failed"); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register creates an account and returns its first token pair
func (c *Client) Register(ctx context.Context, data domain.RegisterData) (*domain.TokenResponse, error) {
	if err := data.Validate(); err != nil {
		return nil, validationError("Invalid registration details", err)
	}
	var resp domain.TokenResponse
	if err := c.do(ctx, http.MethodPost, pathRegister, "", data, &resp, "Registration failed"); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RefreshToken exchanges a refresh token for a new pair
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*domain.TokenResponse, error) {
	if refreshToken == "" {
		return nil, apperrors.NewAuthenticationError("No refresh token available")
	}
	var resp domain.TokenResponse
	body := map[string]string{"refresh_token": refreshToken}
	if err := c.do(ctx, http.MethodPost, pathRefresh, "", body, &resp, "Token refresh failed"); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Logout notifies the backend in the background and returns immediately.
// Failures are logged only.
func (c *Client) Logout(ctx context.Context, accessToken, refreshToken string) {
	if accessToken == "" && refreshToken == "" {
		return
	}

	bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.logoutTimeout)
	c.pending.Add(1)
	go func() {
		defer c.pending.Done()
		defer cancel()

		body := map[string]string{"refresh_token": refreshToken}
		if err := c.do(bg, http.MethodPost, pathLogout, accessToken, body, nil, "Logout failed"); err != nil {
			c.logger.WithError(err).Warn("Backend logout failed")
			return
		}
		c.logger.Debug("Backend logout acknowledged")
	}()
}

// Wait blocks until background logout calls have finished
func (c *Client) Wait() {
	c.pending.Wait()
}

// GetProfile returns the profile of the token's account
func (c *Client) GetProfile(ctx context.Context, accessToken string) (*domain.UserProfile, error) {
	var user domain.UserProfile
	if err := c.do(ctx, http.MethodGet, pathProfile, accessToken, nil, &user, "Failed to load user profile"); err != nil {
		return nil, err
	}
	return &user, nil
}

// VerifyEmail confirms an email verification token
func (c *Client) VerifyEmail(ctx context.Context, verificationToken string) error {
	if verificationToken == "" {
		return apperrors.NewValidationError("Verification token is required", nil)
	}
	body := map[string]string{"token": verificationToken}
	return c.do(ctx, http.MethodPost, pathVerifyEmail, "", body, nil, "Email verification failed")
}

// RequestPasswordReset asks the backend to email a reset link
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	if err := validation.Validate(email, validation.Required, is.Email); err != nil {
		return validationError("Invalid email address", err)
	}
	body := map[string]string{"email": email}
	return c.do(ctx, http.MethodPost, pathPasswordReset, "", body, nil, "Password reset request failed")
}

// ResetPassword completes a reset with the emailed token
func (c *Client) ResetPassword(ctx context.Context, data domain.PasswordResetData) error {
	if err := data.Validate(); err != nil {
		return validationError("Invalid password reset details", err)
	}
	return c.do(ctx, http.MethodPost, pathPasswordResetDone, "", data, nil, "Password reset failed")
}

// CreateDeveloperAccount registers the token's account as a developer
func (c *Client) CreateDeveloperAccount(ctx context.Context, accessToken string, data domain.DeveloperAccountData) (*domain.DeveloperProfile, error) {
	if err := data.Validate(); err != nil {
		return nil, validationError("Invalid developer account details", err)
	}
	var profile domain.DeveloperProfile
	if err := c.do(ctx, http.MethodPost, pathDeveloperRegister, accessToken, data, &profile, "Failed to create developer account"); err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetDeveloperCredentials returns the developer API credentials
func (c *Client) GetDeveloperCredentials(ctx context.Context, accessToken string) (*domain.DeveloperCredentials, error) {
	var creds domain.DeveloperCredentials
	if err := c.do(ctx, http.MethodGet, pathDeveloperCreds, accessToken, nil, &creds, "Failed to load developer credentials"); err != nil {
		return nil, err
	}
	return &creds, nil
}

// RegenerateDeveloperCredentials rotates the developer API credentials
func (c *Client) RegenerateDeveloperCredentials(ctx context.Context, accessToken string) (*domain.DeveloperCredentials, error) {
	var creds domain.DeveloperCredentials
	if err := c.do(ctx, http.MethodPost, pathDeveloperCredsRegen, accessToken, nil, &creds, "Failed to regenerate developer credentials"); err != nil {
		return nil, err
	}
	return &creds, nil
}

// CreateBusinessAccount makes the account a business by creating its first
// store. There is no dedicated backend endpoint for this.
func (c *Client) CreateBusinessAccount(ctx context.Context, accessToken string, data domain.BusinessAccountData) (*domain.Store, error) {
	if err := data.Validate(); err != nil {
		return nil, validationError("Invalid business details", err)
	}
	if c.stores == nil {
		return nil, apperrors.NewInternalError("Store client is not configured", nil)
	}

	req := MainStoreRequest(data)
	created, err := c.stores.WithToken(accessToken).CreateStore(ctx, req)
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(map[string]interface{}{
		"store_id":      created.ID,
		"business_type": data.BusinessType,
	}).Info("Business account created")
	return created, nil
}

// MainStoreRequest builds the default store created for a new business
func MainStoreRequest(data domain.BusinessAccountData) domain.CreateStoreRequest {
	description := data.Description
	if description == "" {
		description = fmt.Sprintf("Main store for %s", data.BusinessName)
	}
	return domain.CreateStoreRequest{
		Name:                    data.BusinessName + " - Main Store",
		Description:             description,
		Email:                   data.BusinessEmail,
		Phone:                   utils.NormalizeOrKeep(data.BusinessPhone),
		Address:                 data.BusinessAddress,
		Category:                data.BusinessType,
		BusinessHours:           domain.DefaultBusinessHours(),
		NotificationPreferences: domain.DefaultNotificationPreferences(),
	}
}

// GetBusinessProfile returns the business profile of the token's account
func (c *Client) GetBusinessProfile(ctx context.Context, accessToken string) (*domain.BusinessProfile, error) {
	var profile domain.BusinessProfile
	if err := c.do(ctx, http.MethodGet, pathBusinessProfile, accessToken, nil, &profile, "Failed to load business profile"); err != nil {
		return nil, err
	}
	return &profile, nil
}
