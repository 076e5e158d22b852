package session

import (
	"net/http"

	"piaxe-console/internal/token"
)

// CookieSession is the session as seen by server-side request handling,
// read from the mirrored cookies without any backend round trip.
type CookieSession struct {
	AccessToken  string
	RefreshToken string
	DeviceID     string
}

// FromRequest reads the session cookies of r
func FromRequest(r *http.Request) CookieSession {
	var s CookieSession
	if c, err := r.Cookie(KeyAuthToken); err == nil {
		s.AccessToken = c.Value
	}
	if c, err := r.Cookie(KeyRefreshToken); err == nil {
		s.RefreshToken = c.Value
	}
	if c, err := r.Cookie(KeyDeviceID); err == nil {
		s.DeviceID = c.Value
	}
	return s
}

// Authenticated reports whether an access token cookie is present
func (s CookieSession) Authenticated() bool {
	return s.AccessToken != ""
}

// TokenDeviceID is the device claim carried by the access token
func (s CookieSession) TokenDeviceID() string {
	return token.DeviceID(s.AccessToken)
}

// DeviceMatches reports whether the device cookie agrees with the token
// claim. A token without a claim matches any cookie.
func (s CookieSession) DeviceMatches() bool {
	claim := s.TokenDeviceID()
	if claim == "" {
		return true
	}
	return claim == s.DeviceID
}

// EffectiveDeviceID prefers the token claim over the cookie
func (s CookieSession) EffectiveDeviceID() string {
	if claim := s.TokenDeviceID(); claim != "" {
		return claim
	}
	return s.DeviceID
}

// Storage returns an in-memory storage seeded with the cookie values, for a
// session that lives as long as one request.
func (s CookieSession) Storage() *MemoryStorage {
	m := NewMemoryStorage()
	for key, v := range map[string]string{
		KeyAuthToken:    s.AccessToken,
		KeyRefreshToken: s.RefreshToken,
		KeyDeviceID:     s.DeviceID,
	} {
		if v != "" {
			m.values[key] = v
		}
	}
	return m
}
