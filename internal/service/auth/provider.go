package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"piaxe-console/internal/domain"
	"piaxe-console/internal/service"
	"piaxe-console/internal/session"
	"piaxe-console/internal/token"
	"piaxe-console/pkg/logger"
)

var (
	// ErrProfileLoad is returned when tokens were issued but the profile
	// could not be fetched; the session is cleared.
	ErrProfileLoad = errors.New("Failed to load user profile")
	// ErrNoRefreshToken is returned by RefreshAuth when nothing is stored
	ErrNoRefreshToken = errors.New("no refresh token available")
	// ErrNotAuthenticated is returned by operations that need a session
	ErrNotAuthenticated = errors.New("not authenticated")
)

const (
	// DefaultRefreshInterval is how often an authenticated session is refreshed
	DefaultRefreshInterval = 15 * time.Minute

	tickTimeout = 30 * time.Second
)

// State is the lifecycle stage of a Provider
type State int

const (
	Unloaded State = iota
	Hydrating
	Authenticated
	Unauthenticated
)

func (s State) String() string {
	switch s {
	case Unloaded:
		return "unloaded"
	case Hydrating:
		return "hydrating"
	case Authenticated:
		return "authenticated"
	case Unauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Options configures a Provider
type Options struct {
	API         service.AuthAPI
	Persistence *session.Persistence
	// Stores builds the store lister used by CheckStores from the provider's
	// own token source. Optional.
	Stores          func(oauth2.TokenSource) service.StoreLister
	Logger          *logger.Logger
	RefreshInterval time.Duration
	NewTicker       TickerFactory
	// NoBackgroundRefresh disables the refresh timer, for providers that
	// live only as long as one request.
	NoBackgroundRefresh bool
}

// Provider owns the authenticated session of one runtime context. All
// mutations run one at a time under ops; readers only take mu, so they never
// wait on a network call.
type Provider struct {
	api         service.AuthAPI
	persistence *session.Persistence
	stores      service.StoreLister
	logger      *logger.Logger
	interval    time.Duration
	newTicker   TickerFactory
	noTimer     bool

	ops sync.Mutex

	mu          sync.RWMutex
	state       State
	accessToken string
	deviceID    string
	user        *domain.UserProfile
	hasStores   bool

	// guarded by ops
	timerGen  uint64
	timerStop chan struct{}
	timerDone chan struct{}
}

// NewProvider creates a Provider in the Unloaded state
func NewProvider(opts Options) *Provider {
	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}
	interval := opts.RefreshInterval
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	newTicker := opts.NewTicker
	if newTicker == nil {
		newTicker = NewRealTicker
	}

	p := &Provider{
		api:         opts.API,
		persistence: opts.Persistence,
		logger:      log.Named("auth"),
		interval:    interval,
		newTicker:   newTicker,
		noTimer:     opts.NoBackgroundRefresh,
		state:       Unloaded,
	}
	if opts.Stores != nil {
		p.stores = opts.Stores(p.TokenSource())
	}
	return p
}

// Hydrate restores the persisted session. A stored token is trusted
// optimistically, then verified against the profile endpoint; if that fails
// a silent refresh is attempted. Only storage read failures are returned.
func (p *Provider) Hydrate(ctx context.Context) error {
	p.ops.Lock()
	defer p.ops.Unlock()

	p.setState(Hydrating)

	snap, err := p.persistence.Load(ctx)
	if err != nil {
		p.setState(Unauthenticated)
		return fmt.Errorf("failed to read persisted session: %w", err)
	}

	if snap.DeviceID != "" {
		p.api.SetDeviceID(snap.DeviceID)
	}

	if snap.AccessToken == "" {
		p.mu.Lock()
		p.state = Unauthenticated
		p.deviceID = snap.DeviceID
		p.mu.Unlock()
		p.logger.Debug("No persisted session")
		return nil
	}

	p.mu.Lock()
	p.accessToken = snap.AccessToken
	p.deviceID = snap.DeviceID
	p.user = snap.User
	p.mu.Unlock()

	user, err := p.api.GetProfile(ctx, snap.AccessToken)
	if err == nil {
		if err := p.persistence.SaveUser(ctx, user); err != nil {
			p.logger.WithError(err).Warn("Failed to cache verified profile")
		}
		p.mu.Lock()
		p.user = user
		p.state = Authenticated
		p.mu.Unlock()
		p.startTimerLocked()
		p.logger.WithField("username", user.Username).Info("Session restored")
		return nil
	}

	p.logger.WithError(err).Info("Stored token rejected, attempting refresh")
	if err := p.refreshLocked(ctx); err != nil {
		p.logger.WithError(err).Info("Session could not be restored")
	}
	return nil
}

// Login exchanges credentials for a session. Any failure leaves the
// provider fully cleared.
func (p *Provider) Login(ctx context.Context, creds domain.Credentials) error {
	p.ops.Lock()
	defer p.ops.Unlock()

	resp, err := p.api.Login(ctx, creds)
	if err != nil {
		p.clearLocked(ctx)
		return err
	}
	if err := p.storeSessionLocked(ctx, resp); err != nil {
		p.clearLocked(ctx)
		return err
	}

	p.logger.WithField("username", creds.Username).Info("Logged in")
	return nil
}

// Register creates an account and signs it in, with the same contract as Login
func (p *Provider) Register(ctx context.Context, data domain.RegisterData) error {
	p.ops.Lock()
	defer p.ops.Unlock()

	resp, err := p.api.Register(ctx, data)
	if err != nil {
		p.clearLocked(ctx)
		return err
	}
	if err := p.storeSessionLocked(ctx, resp); err != nil {
		p.clearLocked(ctx)
		return err
	}

	p.logger.WithField("username", data.Username).Info("Registered")
	return nil
}

// Logout clears the local session first, then tells the backend without
// waiting. A persistence failure is returned but memory is cleared anyway.
func (p *Provider) Logout(ctx context.Context) error {
	p.ops.Lock()
	defer p.ops.Unlock()

	accessToken := p.AccessToken()
	refreshToken, err := p.persistence.RefreshToken(ctx)
	if err != nil {
		p.logger.WithError(err).Warn("Failed to read refresh token for logout")
	}

	clearErr := p.clearLocked(ctx)
	p.api.Logout(ctx, accessToken, refreshToken)

	p.logger.Info("Logged out")
	return clearErr
}

// RefreshAuth swaps the stored refresh token for a new pair and reloads the
// profile. Failure clears the session.
func (p *Provider) RefreshAuth(ctx context.Context) error {
	p.ops.Lock()
	defer p.ops.Unlock()

	return p.refreshLocked(ctx)
}

// CreateDeveloperAccount registers the account as a developer and reloads the profile
func (p *Provider) CreateDeveloperAccount(ctx context.Context, data domain.DeveloperAccountData) (*domain.DeveloperProfile, error) {
	p.ops.Lock()
	defer p.ops.Unlock()

	accessToken := p.AccessToken()
	if accessToken == "" {
		return nil, ErrNotAuthenticated
	}

	profile, err := p.api.CreateDeveloperAccount(ctx, accessToken, data)
	if err != nil {
		return nil, err
	}
	if err := p.refreshProfileLocked(ctx); err != nil {
		return profile, err
	}
	return profile, nil
}

// CreateBusinessAccount creates the account's main store, reloads the
// profile and rechecks store ownership.
func (p *Provider) CreateBusinessAccount(ctx context.Context, data domain.BusinessAccountData) (*domain.Store, error) {
	p.ops.Lock()
	defer p.ops.Unlock()

	accessToken := p.AccessToken()
	if accessToken == "" {
		return nil, ErrNotAuthenticated
	}

	created, err := p.api.CreateBusinessAccount(ctx, accessToken, data)
	if err != nil {
		return nil, err
	}
	if err := p.refreshProfileLocked(ctx); err != nil {
		return created, err
	}
	if _, err := p.checkStoresLocked(ctx); err != nil {
		p.logger.WithError(err).Warn("Store check after business creation failed")
	}
	return created, nil
}

// RefreshProfileStatus refetches and re-caches the profile. Tokens are untouched.
func (p *Provider) RefreshProfileStatus(ctx context.Context) error {
	p.ops.Lock()
	defer p.ops.Unlock()

	return p.refreshProfileLocked(ctx)
}

// CheckStores records whether the account owns at least one store
func (p *Provider) CheckStores(ctx context.Context) (bool, error) {
	p.ops.Lock()
	defer p.ops.Unlock()

	return p.checkStoresLocked(ctx)
}

// Close stops the refresh timer and waits for it to exit
func (p *Provider) Close() error {
	p.ops.Lock()
	done := p.stopTimerLocked()
	p.ops.Unlock()

	if done != nil {
		<-done
	}
	return nil
}

// State returns the current lifecycle stage
func (p *Provider) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// User returns a copy of the cached profile, nil when signed out
func (p *Provider) User() *domain.UserProfile {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.user == nil {
		return nil
	}
	u := *p.user
	return &u
}

// AccessToken returns the current access token
func (p *Provider) AccessToken() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.accessToken
}

// DeviceID returns the device id bound to the session
func (p *Provider) DeviceID() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.deviceID
}

// IsAuthenticated reports whether both a user and a token are held
func (p *Provider) IsAuthenticated() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.user != nil && p.accessToken != ""
}

// IsDeveloper reports whether the profile carries a developer profile
func (p *Provider) IsDeveloper() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.user != nil && p.user.DeveloperProfile != nil
}

// IsBusiness is satisfied by either a business profile or store ownership
func (p *Provider) IsBusiness() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return (p.user != nil && p.user.BusinessProfile != nil) || p.hasStores
}

// HasStores returns the result of the last store check
func (p *Provider) HasStores() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.hasStores
}

// TokenSource exposes the current access token to domain clients. It reads
// the snapshot only, so it is safe to call from inside provider operations.
func (p *Provider) TokenSource() oauth2.TokenSource {
	return providerTokenSource{p: p}
}

type providerTokenSource struct {
	p *Provider
}

func (ts providerTokenSource) Token() (*oauth2.Token, error) {
	accessToken := ts.p.AccessToken()
	if accessToken == "" {
		return nil, ErrNotAuthenticated
	}
	return &oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}, nil
}

func (p *Provider) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

// storeSessionLocked persists a fresh token pair, binds the device and
// loads the profile.
func (p *Provider) storeSessionLocked(ctx context.Context, resp *domain.TokenResponse) error {
	if resp == nil || resp.AccessToken == "" {
		return errors.New("token response has no access token")
	}

	deviceID := resp.DeviceID
	if deviceID == "" {
		deviceID = token.DeviceID(resp.AccessToken)
	}
	if deviceID == "" {
		deviceID = p.DeviceID()
	}
	if deviceID != "" {
		p.api.SetDeviceID(deviceID)
	}

	if err := p.persistence.SaveTokens(ctx, resp.AccessToken, resp.RefreshToken, deviceID); err != nil {
		return err
	}

	p.mu.Lock()
	p.accessToken = resp.AccessToken
	p.deviceID = deviceID
	p.mu.Unlock()

	user, err := p.api.GetProfile(ctx, resp.AccessToken)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrProfileLoad, err)
	}
	if err := p.persistence.SaveUser(ctx, user); err != nil {
		return err
	}

	p.mu.Lock()
	p.user = user
	p.state = Authenticated
	p.mu.Unlock()

	p.startTimerLocked()
	return nil
}

func (p *Provider) refreshLocked(ctx context.Context) error {
	refreshToken, err := p.persistence.RefreshToken(ctx)
	if err != nil {
		p.clearLocked(ctx)
		return fmt.Errorf("failed to read refresh token: %w", err)
	}
	if refreshToken == "" {
		p.clearLocked(ctx)
		return ErrNoRefreshToken
	}

	resp, err := p.api.RefreshToken(ctx, refreshToken)
	if err != nil {
		p.clearLocked(ctx)
		return fmt.Errorf("token refresh failed: %w", err)
	}
	if resp.RefreshToken == "" {
		resp.RefreshToken = refreshToken
	}

	if err := p.storeSessionLocked(ctx, resp); err != nil {
		p.clearLocked(ctx)
		return err
	}

	p.logger.Debug("Session refreshed")
	return nil
}

func (p *Provider) refreshProfileLocked(ctx context.Context) error {
	accessToken := p.AccessToken()
	if accessToken == "" {
		return ErrNotAuthenticated
	}

	user, err := p.api.GetProfile(ctx, accessToken)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrProfileLoad, err)
	}
	if err := p.persistence.SaveUser(ctx, user); err != nil {
		return err
	}

	p.mu.Lock()
	p.user = user
	p.mu.Unlock()
	return nil
}

func (p *Provider) checkStoresLocked(ctx context.Context) (bool, error) {
	if p.stores == nil {
		return false, errors.New("store listing is not configured")
	}
	if p.AccessToken() == "" {
		return false, ErrNotAuthenticated
	}

	stores, err := p.stores.ListStores(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check stores: %w", err)
	}

	has := len(stores) > 0
	p.mu.Lock()
	p.hasStores = has
	p.mu.Unlock()
	return has, nil
}

// clearLocked drops the in-memory session, stops the timer and wipes both
// persistence surfaces. The device id bound to the API client is kept.
func (p *Provider) clearLocked(ctx context.Context) error {
	p.stopTimerLocked()

	p.mu.Lock()
	p.state = Unauthenticated
	p.accessToken = ""
	p.deviceID = ""
	p.user = nil
	p.hasStores = false
	p.mu.Unlock()

	if err := p.persistence.Clear(context.WithoutCancel(ctx)); err != nil {
		p.logger.WithError(err).Error("Failed to clear persisted session")
		return err
	}
	return nil
}

func (p *Provider) startTimerLocked() {
	if p.noTimer || p.timerStop != nil {
		return
	}

	p.timerGen++
	gen := p.timerGen
	stop := make(chan struct{})
	done := make(chan struct{})
	p.timerStop = stop
	p.timerDone = done

	t := p.newTicker(p.interval)
	go p.runTimer(t, gen, stop, done)

	p.logger.WithField("interval", p.interval.String()).Debug("Refresh timer started")
}

// stopTimerLocked signals the timer to exit and returns its done channel.
// It must not wait: the timer goroutine may itself be waiting on ops.
func (p *Provider) stopTimerLocked() <-chan struct{} {
	if p.timerStop == nil {
		return nil
	}
	close(p.timerStop)
	done := p.timerDone
	p.timerStop = nil
	p.timerDone = nil
	p.timerGen++
	return done
}

func (p *Provider) runTimer(t *Ticker, gen uint64, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	defer t.Stop()

	for {
		select {
		case <-t.C:
			p.tick(gen)
		case <-stop:
			p.logger.Debug("Refresh timer stopped")
			return
		}
	}
}

func (p *Provider) tick(gen uint64) {
	p.ops.Lock()
	defer p.ops.Unlock()

	// the session this timer belonged to is gone
	if p.timerGen != gen || p.timerStop == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), tickTimeout)
	defer cancel()

	if err := p.refreshLocked(ctx); err != nil {
		p.logger.WithError(err).Warn("Background token refresh failed")
	}
}
