// ABOUTME: Test helpers for e2e tests
// ABOUTME: Provides env management, a mock forum upstream, and the full BFF stack

package e2e

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/communityforum/bff/config"
	"github.com/communityforum/bff/handlers"
	"github.com/communityforum/bff/middleware"
)

// withTestEnv points the BFF at upstreamURL plus any extra vars. Values are
// restored when the test ends.
//
// Example:
//
//	func TestSomething(t *testing.T) {
//	    withTestEnv(t, upstream.URL, map[string]string{
//	        "CORS_ALLOWED_ORIGINS": "https://example.com",
//	    })
//	}
func withTestEnv(t *testing.T, upstreamURL string, extra map[string]string) {
	t.Helper()

	t.Setenv("UPSTREAM_API_BASE", upstreamURL)
	t.Setenv("DJANGO_API_BASE", "")
	t.Setenv("UPSTREAM_TIMEOUT", "5")
	t.Setenv("COOKIE_SECURE", "false")
	t.Setenv("RATE_LIMIT_ENABLED", "false")
	for key, value := range extra {
		t.Setenv(key, value)
	}
}

// loadStack loads config from the environment and serves the BFF with the
// same middleware order the serve command uses.
func loadStack(t *testing.T) *httptest.Server {
	t.Helper()

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}

	var limits *middleware.Limits
	if cfg.RateLimitEnabled {
		limits = middleware.NewLimits(cfg.RateLimitDefault, map[string]int{handlers.TierAuth: cfg.RateLimitAuth})
	}
	cors := middleware.CORS(cfg.CORSAllowedOrigins)

	h := handlers.NewHandler(cfg, nil)
	mux := http.NewServeMux()
	for _, route := range h.Routes() {
		mux.HandleFunc(route.Method+" "+route.Path, middleware.Chain(route.Handler,
			middleware.LogRequest,
			middleware.Recover,
			cors,
			limits.For(route.RateLimit),
		))
	}
	mux.HandleFunc("OPTIONS /api/", middleware.Chain(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}, cors))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// browser returns a client that keeps cookies like a browser would
func browser(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	return &http.Client{Jar: jar}
}

// forumUpstream is a mock of the upstream REST API. Access tokens in valid
// are accepted; refresh token "R0" mints "A1".
type forumUpstream struct {
	*httptest.Server

	mu       sync.Mutex
	valid    map[string]bool
	bearers  map[string][]string
	logouts  []string
	refreshN int
}

func newForumUpstream(t *testing.T) *forumUpstream {
	t.Helper()
	u := &forumUpstream{
		valid:   map[string]bool{},
		bearers: map[string][]string{},
	}
	u.Server = httptest.NewServer(http.HandlerFunc(u.serve))
	t.Cleanup(u.Close)
	return u
}

// expire makes the upstream reject token from now on
func (u *forumUpstream) expire(token string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.valid, token)
}

func (u *forumUpstream) bearersFor(path string) []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.bearers[path]...)
}

func (u *forumUpstream) refreshCalls() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.refreshN
}

func (u *forumUpstream) revoked() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.logouts...)
}

func (u *forumUpstream) serve(w http.ResponseWriter, r *http.Request) {
	u.mu.Lock()
	u.bearers[r.URL.Path] = append(u.bearers[r.URL.Path], r.Header.Get("Authorization"))
	u.mu.Unlock()

	bearer := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.URL.Path == "/api/auth/login/":
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, `{"detail":"No active account found with the given credentials"}`)
			return
		}
		u.mu.Lock()
		u.valid["A0"] = true
		u.mu.Unlock()
		io.WriteString(w, `{"access":"A0","refresh":"R0"}`)

	case r.URL.Path == "/api/auth/me/":
		u.mu.Lock()
		ok := u.valid[bearer]
		u.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, `{"detail":"Given token not valid for any token type"}`)
			return
		}
		io.WriteString(w, `{"id":42,"email":"ada@example.com","username":"ada","first_name":"Ada","last_name":"Lovelace","image_url":null}`)

	case r.URL.Path == "/api/auth/refresh/":
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		u.mu.Lock()
		u.refreshN++
		u.mu.Unlock()
		if body["refresh"] != "R0" {
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, `{"detail":"Token is invalid or expired"}`)
			return
		}
		u.mu.Lock()
		u.valid["A1"] = true
		u.mu.Unlock()
		io.WriteString(w, `{"access":"A1"}`)

	case r.URL.Path == "/api/auth/logout/":
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		u.mu.Lock()
		u.logouts = append(u.logouts, body["refresh"])
		u.mu.Unlock()
		w.WriteHeader(http.StatusResetContent)

	case r.URL.Path == "/api/posts/" && r.Method == http.MethodGet:
		io.WriteString(w, `{"count":3,"next":"`+u.URL+`/api/posts/?page=2","previous":null,"results":[{"id":1,"title":"hello"}]}`)

	case r.URL.Path == "/api/communities/" && r.Method == http.MethodPost:
		if bearer == "" {
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, `{"detail":"Authentication credentials were not provided."}`)
			return
		}
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"id":5,"slug":"gophers","name":"Gophers"}`)

	case strings.HasPrefix(r.URL.Path, "/media/"):
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Write([]byte("\x89PNG fake image bytes"))

	default:
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"detail":"Not found."}`)
	}
}

// cookieByName returns the named Set-Cookie from resp, or nil
func cookieByName(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func decodeJSON(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}
