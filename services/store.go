// ABOUTME: Session store abstraction with a cookie-backed implementation
// ABOUTME: Holds the access/refresh token pair as HttpOnly cookies with fixed TTLs

package services

import (
	"net/http"
	"time"
)

// Cookie names and lifetimes of the session token pair
const (
	AccessCookie  = "access"
	RefreshCookie = "refresh"

	AccessTTL  = 15 * time.Minute
	RefreshTTL = 7 * 24 * time.Hour
)

// Store is per-client key-value state with expiration. The session manager
// only ever talks to a Store, never to cookies directly.
type Store interface {
	Get(name string) (string, bool)
	Set(name, value string, ttl time.Duration)
	Clear(name string)
}

// CookieStore is a Store scoped to a single request/response pair.
// Values written during the request are visible to later Gets.
type CookieStore struct {
	w       http.ResponseWriter
	r       *http.Request
	secure  bool
	written map[string]string
}

// NewCookieStore creates a store reading cookies from r and writing to w
func NewCookieStore(w http.ResponseWriter, r *http.Request, secure bool) *CookieStore {
	return &CookieStore{
		w:       w,
		r:       r,
		secure:  secure,
		written: make(map[string]string),
	}
}

// Get returns the cookie value, preferring anything set earlier in this request
func (s *CookieStore) Get(name string) (string, bool) {
	if value, ok := s.written[name]; ok {
		return value, value != ""
	}

	cookie, err := s.r.Cookie(name)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

// Set issues an HttpOnly cookie with Max-Age equal to ttl
func (s *CookieStore) Set(name, value string, ttl time.Duration) {
	s.written[name] = value
	http.SetCookie(s.w, s.cookie(name, value, int(ttl/time.Second)))
}

// Clear expires the cookie immediately (Max-Age=0)
func (s *CookieStore) Clear(name string) {
	s.written[name] = ""
	// net/http renders a negative MaxAge as "Max-Age=0"
	http.SetCookie(s.w, s.cookie(name, "", -1))
}

func (s *CookieStore) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   maxAge,
	}
}
