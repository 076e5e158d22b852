package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"piaxe-console/internal/domain"
	"piaxe-console/pkg/logger"
)

// Snapshot is what hydration reads back
type Snapshot struct {
	AccessToken  string
	RefreshToken string
	DeviceID     string
	User         *domain.UserProfile
}

// Persistence keeps storage and cookies in step. Every write touches both
// surfaces under one lock; Clear always removes both.
type Persistence struct {
	mu      sync.Mutex
	storage Storage
	cookies CookieSink
	opts    CookieOptions
	logger  *logger.Logger
}

// NewPersistence creates a persistence over storage and cookies.
// A nil cookies sink disables cookie mirroring.
func NewPersistence(storage Storage, cookies CookieSink, opts CookieOptions, log *logger.Logger) *Persistence {
	if log == nil {
		log = logger.NewNop()
	}
	return &Persistence{
		storage: storage,
		cookies: cookies,
		opts:    opts,
		logger:  log.Named("session"),
	}
}

// SaveTokens persists the token pair and, when known, the device id
func (p *Persistence) SaveTokens(ctx context.Context, accessToken, refreshToken, deviceID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	values := map[string]string{
		KeyAuthToken:    accessToken,
		KeyRefreshToken: refreshToken,
	}
	if deviceID != "" {
		values[KeyDeviceID] = deviceID
	}

	if err := p.storage.SetMany(ctx, values); err != nil {
		return fmt.Errorf("failed to persist tokens: %w", err)
	}

	if p.cookies != nil {
		for _, name := range CookieNames {
			if v, ok := values[name]; ok {
				p.cookies.SetCookie(p.opts.live(name, v))
			}
		}
	}
	return nil
}

// SaveUser caches the profile as JSON
func (p *Persistence) SaveUser(ctx context.Context, user *domain.UserProfile) error {
	if user == nil {
		return errors.New("user profile is nil")
	}
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user profile: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.storage.SetMany(ctx, map[string]string{KeyUser: string(raw)}); err != nil {
		return fmt.Errorf("failed to persist user profile: %w", err)
	}
	return nil
}

// Load reads the persisted session. A corrupt cached profile is dropped
// rather than failing hydration.
func (p *Persistence) Load(ctx context.Context) (Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var snap Snapshot
	var err error

	if snap.AccessToken, _, err = p.storage.Get(ctx, KeyAuthToken); err != nil {
		return Snapshot{}, err
	}
	if snap.RefreshToken, _, err = p.storage.Get(ctx, KeyRefreshToken); err != nil {
		return Snapshot{}, err
	}
	if snap.DeviceID, _, err = p.storage.Get(ctx, KeyDeviceID); err != nil {
		return Snapshot{}, err
	}

	rawUser, ok, err := p.storage.Get(ctx, KeyUser)
	if err != nil {
		return Snapshot{}, err
	}
	if ok && rawUser != "" {
		var user domain.UserProfile
		if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
			p.logger.WithError(err).Warn("Discarding unreadable cached profile")
		} else {
			snap.User = &user
		}
	}

	return snap, nil
}

// RefreshToken returns the stored refresh token, empty when absent
func (p *Persistence) RefreshToken(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	v, _, err := p.storage.Get(ctx, KeyRefreshToken)
	return v, err
}

// Clear removes all four keys and expires all three cookies. Cookies are
// expired even when the storage delete fails.
func (p *Persistence) Clear(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := p.storage.Delete(ctx, StorageKeys...)
	if p.cookies != nil {
		ExpireAll(p.cookies, p.opts)
	}
	if err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
