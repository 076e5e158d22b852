package session

import (
	"net/http"
	"sort"
	"sync"
	"time"
)

// CookieSink receives the cookies the session mirrors
type CookieSink interface {
	SetCookie(c *http.Cookie)
}

// CookieJar is an in-memory sink. Expired cookies are removed, the way a
// browser drops them.
type CookieJar struct {
	mu      sync.RWMutex
	cookies map[string]*http.Cookie
}

// NewCookieJar creates an empty jar
func NewCookieJar() *CookieJar {
	return &CookieJar{cookies: make(map[string]*http.Cookie)}
}

func (j *CookieJar) SetCookie(c *http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if c.MaxAge < 0 {
		delete(j.cookies, c.Name)
		return
	}
	cp := *c
	j.cookies[c.Name] = &cp
}

// Get returns the value of a live cookie
func (j *CookieJar) Get(name string) (string, bool) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	c, ok := j.cookies[name]
	if !ok {
		return "", false
	}
	return c.Value, true
}

// Cookie returns a copy of the stored cookie with its attributes
func (j *CookieJar) Cookie(name string) (*http.Cookie, bool) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	c, ok := j.cookies[name]
	if !ok {
		return nil, false
	}
	cp := *c
	return &cp, true
}

// Names lists live cookie names in sorted order
func (j *CookieJar) Names() []string {
	j.mu.RLock()
	defer j.mu.RUnlock()
	names := make([]string, 0, len(j.cookies))
	for name := range j.cookies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResponseCookies writes Set-Cookie headers on an HTTP response
type ResponseCookies struct {
	W http.ResponseWriter
}

func (r ResponseCookies) SetCookie(c *http.Cookie) {
	http.SetCookie(r.W, c)
}

// CookieOptions are the attributes shared by every session cookie
type CookieOptions struct {
	Secure   bool
	SameSite http.SameSite
}

func (o CookieOptions) live(name, value string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   CookieMaxAge,
		Expires:  time.Now().Add(CookieMaxAge * time.Second),
		Secure:   o.Secure,
		SameSite: o.sameSite(),
	}
}

func (o CookieOptions) expired(name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		Secure:   o.Secure,
		SameSite: o.sameSite(),
	}
}

func (o CookieOptions) sameSite() http.SameSite {
	if o.SameSite == 0 {
		return http.SameSiteLaxMode
	}
	return o.SameSite
}

// ExpireAll writes expired copies of every session cookie to sink
func ExpireAll(sink CookieSink, opts CookieOptions) {
	for _, name := range CookieNames {
		sink.SetCookie(opts.expired(name))
	}
}
