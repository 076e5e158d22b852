package authapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"piaxe-console/internal/domain"
	"piaxe-console/internal/service/apiclient"
	"piaxe-console/internal/service/store"
	apperrors "piaxe-console/pkg/errors"
)

type call struct {
	method string
	path   string
	header http.Header
	body   map[string]interface{}
}

type fakeBackend struct {
	mu     sync.Mutex
	calls  []call
	routes map[string]func(w http.ResponseWriter)
}

func newFakeBackend(t *testing.T, routes map[string]func(w http.ResponseWriter)) (*httptest.Server, *fakeBackend) {
	t.Helper()
	fb := &fakeBackend{routes: routes}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := call{method: r.Method, path: r.URL.Path, header: r.Header.Clone()}
		_ = json.NewDecoder(r.Body).Decode(&c.body)
		fb.mu.Lock()
		fb.calls = append(fb.calls, c)
		fb.mu.Unlock()

		if h, ok := fb.routes[r.Method+" "+r.URL.Path]; ok {
			h(w)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)
	return srv, fb
}

func (fb *fakeBackend) callsTo(method, path string) []call {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	var out []call
	for _, c := range fb.calls {
		if c.method == method && c.path == path {
			out = append(out, c)
		}
	}
	return out
}

func (fb *fakeBackend) count() int {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return len(fb.calls)
}

func jsonResponse(status int, body string) func(w http.ResponseWriter) {
	return func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func TestClient_LoginHeaders(t *testing.T) {
	srv, fb := newFakeBackend(t, map[string]func(http.ResponseWriter){
		"POST /auth/login/": jsonResponse(http.StatusOK, `{"access_token":"t1","refresh_token":"r1","device_id":"d1","token_type":"bearer"}`),
	})
	c := NewClient(srv.URL, srv.Client(), nil, nil)

	resp, err := c.Login(context.Background(), domain.Credentials{Username: "alice", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "t1", resp.AccessToken)
	assert.Equal(t, "r1", resp.RefreshToken)
	assert.Equal(t, "d1", resp.DeviceID)

	calls := fb.callsTo(http.MethodPost, "/auth/login/")
	require.Len(t, calls, 1)
	assert.Equal(t, "application/json", calls[0].header.Get("Content-Type"))
	assert.Empty(t, calls[0].header.Get("Authorization"))
	assert.Empty(t, calls[0].header.Get("X-Device-ID"))
	assert.Equal(t, "alice", calls[0].body["username"])
}

func TestClient_DeviceIDHeaderAlwaysSentWhenSet(t *testing.T) {
	srv, fb := newFakeBackend(t, map[string]func(http.ResponseWriter){
		"GET /auth/profile/": jsonResponse(http.StatusOK, `{"id":"1","account_id":"a1","username":"alice"}`),
	})
	c := NewClient(srv.URL, srv.Client(), nil, nil)
	c.SetDeviceID("d1")

	user, err := c.GetProfile(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	calls := fb.callsTo(http.MethodGet, "/auth/profile/")
	require.Len(t, calls, 1)
	assert.Equal(t, "Bearer t1", calls[0].header.Get("Authorization"))
	assert.Equal(t, "d1", calls[0].header.Get("X-Device-ID"))
}

func TestClient_DeviceIDIsPerInstance(t *testing.T) {
	a := NewClient("http://a.invalid", nil, nil, nil)
	b := NewClient("http://b.invalid", nil, nil, nil)
	a.SetDeviceID("d1")

	assert.Equal(t, "d1", a.DeviceID())
	assert.Empty(t, b.DeviceID())
}

func TestClient_ErrorBodies(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantType    apperrors.ErrorType
		wantMessage string
	}{
		{"detail", http.StatusUnauthorized, `{"detail":"Invalid credentials"}`, apperrors.ErrorTypeAuthentication, "Invalid credentials"},
		{"message", http.StatusBadRequest, `{"message":"Account locked"}`, apperrors.ErrorTypeValidation, "Account locked"},
		{"validation list", http.StatusUnprocessableEntity, `{"detail":[{"msg":"field required"}]}`, apperrors.ErrorTypeValidation, "field required"},
		{"text", http.StatusBadGateway, `gateway down`, apperrors.ErrorTypeExternal, "gateway down"},
		{"unknown", http.StatusInternalServerError, `{"foo":"bar"}`, apperrors.ErrorTypeExternal, "Login failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newFakeBackend(t, map[string]func(http.ResponseWriter){
				"POST /auth/login/": jsonResponse(tt.status, tt.body),
			})
			c := NewClient(srv.URL, srv.Client(), nil, nil)

			_, err := c.Login(context.Background(), domain.Credentials{Username: "alice", Password: "pw"})
			require.Error(t, err)
			appErr, ok := apperrors.As(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantType, appErr.Type)
			assert.Equal(t, tt.wantMessage, appErr.Message)
		})
	}
}

func TestClient_ValidationHappensBeforeNetwork(t *testing.T) {
	srv, fb := newFakeBackend(t, nil)
	c := NewClient(srv.URL, srv.Client(), nil, nil)
	ctx := context.Background()

	_, err := c.Login(ctx, domain.Credentials{Username: "alice"})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	appErr, _ := apperrors.As(err)
	assert.Contains(t, appErr.Details, "password")

	_, err = c.Register(ctx, domain.RegisterData{Username: "bob", Email: "not-an-email", Password: "pw"})
	require.Error(t, err)

	err = c.RequestPasswordReset(ctx, "nope")
	require.Error(t, err)

	_, err = c.RefreshToken(ctx, "")
	require.Error(t, err)

	assert.Equal(t, 0, fb.count())
}

func TestClient_LogoutIsFireAndForget(t *testing.T) {
	release := make(chan struct{})
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		<-release
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.Client(), nil, nil)

	start := time.Now()
	c.Logout(context.Background(), "t1", "r1")
	assert.Less(t, time.Since(start), time.Second)

	close(release)
	c.Wait()
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestClient_LogoutSurvivesUnreachableBackend(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", nil, nil, nil)
	c.Logout(context.Background(), "t1", "r1")
	c.Wait()
}

func TestClient_LogoutOutlivesCallerContext(t *testing.T) {
	srv, fb := newFakeBackend(t, map[string]func(http.ResponseWriter){
		"POST /auth/logout/": jsonResponse(http.StatusNoContent, ``),
	})
	c := NewClient(srv.URL, srv.Client(), nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	c.Logout(ctx, "t1", "r1")
	cancel()
	c.Wait()

	calls := fb.callsTo(http.MethodPost, "/auth/logout/")
	require.Len(t, calls, 1)
	assert.Equal(t, "Bearer t1", calls[0].header.Get("Authorization"))
	assert.Equal(t, "r1", calls[0].body["refresh_token"])
}

func TestClient_CreateBusinessAccount(t *testing.T) {
	srv, fb := newFakeBackend(t, map[string]func(http.ResponseWriter){
		"POST /stores/": jsonResponse(http.StatusCreated, `{"id":"s1","name":"Acme - Main Store","is_active":true}`),
	})
	stores := store.NewClient(apiclient.New(apiclient.Options{BaseURL: srv.URL, HTTPClient: srv.Client()}))
	c := NewClient(srv.URL, srv.Client(), stores, nil)

	created, err := c.CreateBusinessAccount(context.Background(), "t1", domain.BusinessAccountData{
		BusinessName:    "Acme",
		BusinessType:    "Retail",
		BusinessEmail:   "a@b.com",
		BusinessPhone:   "+1",
		BusinessAddress: "X",
	})
	require.NoError(t, err)
	assert.Equal(t, "s1", created.ID)

	calls := fb.callsTo(http.MethodPost, "/stores/")
	require.Len(t, calls, 1)
	assert.Equal(t, 1, fb.count())
	assert.Equal(t, "Bearer t1", calls[0].header.Get("Authorization"))

	body := calls[0].body
	assert.Regexp(t, `- Main Store$`, body["name"])
	assert.Equal(t, "a@b.com", body["email"])
	assert.Equal(t, "+1", body["phone"])

	hours, ok := body["business_hours"].(map[string]interface{})
	require.True(t, ok)
	assert.Len(t, hours, 7)
	for _, day := range []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"} {
		assert.Contains(t, hours, day)
	}
	sunday := hours["sunday"].(map[string]interface{})
	assert.Equal(t, true, sunday["closed"])
	monday := hours["monday"].(map[string]interface{})
	assert.Equal(t, false, monday["closed"])
	assert.Equal(t, "09:00", monday["open"])
	assert.Equal(t, "17:00", monday["close"])

	prefs, ok := body["notification_preferences"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, prefs["order_notifications"])
}

func TestClient_CreateBusinessAccountValidation(t *testing.T) {
	srv, fb := newFakeBackend(t, nil)
	stores := store.NewClient(apiclient.New(apiclient.Options{BaseURL: srv.URL}))
	c := NewClient(srv.URL, srv.Client(), stores, nil)

	_, err := c.CreateBusinessAccount(context.Background(), "t1", domain.BusinessAccountData{BusinessType: "Retail"})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	assert.Equal(t, 0, fb.count())
}

func TestMainStoreRequest(t *testing.T) {
	req := MainStoreRequest(domain.BusinessAccountData{BusinessName: "Acme", BusinessType: "Retail"})
	assert.Equal(t, "Acme - Main Store", req.Name)
	assert.Equal(t, "Main store for Acme", req.Description)
	assert.Equal(t, "Retail", req.Category)
	assert.Equal(t, domain.DayHours{Open: "10:00", Close: "14:00"}, req.BusinessHours.Saturday)
	assert.True(t, req.BusinessHours.Sunday.Closed)

	req = MainStoreRequest(domain.BusinessAccountData{BusinessName: "Acme", BusinessPhone: "+1 (555) 010-0123"})
	assert.Equal(t, "+15550100123", req.Phone)
}

func TestClient_DeveloperCredentials(t *testing.T) {
	srv, fb := newFakeBackend(t, map[string]func(http.ResponseWriter){
		"POST /developers/register/":               jsonResponse(http.StatusCreated, `{"id":"dev1","company_name":"Acme Labs"}`),
		"GET /developers/credentials/":             jsonResponse(http.StatusOK, `{"client_id":"c1","api_key":"k1"}`),
		"POST /developers/credentials/regenerate/": jsonResponse(http.StatusOK, `{"client_id":"c1","api_key":"k2"}`),
	})
	c := NewClient(srv.URL, srv.Client(), nil, nil)
	ctx := context.Background()

	profile, err := c.CreateDeveloperAccount(ctx, "t1", domain.DeveloperAccountData{CompanyName: "Acme Labs", Website: "https://acme.dev"})
	require.NoError(t, err)
	assert.Equal(t, "dev1", profile.ID)

	creds, err := c.GetDeveloperCredentials(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "k1", creds.APIKey)

	creds, err = c.RegenerateDeveloperCredentials(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "k2", creds.APIKey)

	assert.Len(t, fb.callsTo(http.MethodPost, "/developers/register/"), 1)
}

func TestClient_AccountRecovery(t *testing.T) {
	srv, fb := newFakeBackend(t, map[string]func(http.ResponseWriter){
		"POST /auth/verify-email/":           jsonResponse(http.StatusOK, `{}`),
		"POST /auth/password-reset/":         jsonResponse(http.StatusOK, `{}`),
		"POST /auth/password-reset/confirm/": jsonResponse(http.StatusOK, `{}`),
		"GET /business/profile/":             jsonResponse(http.StatusOK, `{"id":"b1","business_name":"Acme"}`),
	})
	c := NewClient(srv.URL, srv.Client(), nil, nil)
	ctx := context.Background()

	require.NoError(t, c.VerifyEmail(ctx, "v1"))
	require.NoError(t, c.RequestPasswordReset(ctx, "alice@example.com"))
	require.NoError(t, c.ResetPassword(ctx, domain.PasswordResetData{Token: "p1", NewPassword: "new"}))

	bp, err := c.GetBusinessProfile(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "Acme", bp.BusinessName)

	reset := fb.callsTo(http.MethodPost, "/auth/password-reset/")
	require.Len(t, reset, 1)
	assert.Equal(t, "alice@example.com", reset[0].body["email"])
}
