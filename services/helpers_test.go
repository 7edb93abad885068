// ABOUTME: Shared test fixtures for the services package
// ABOUTME: In-memory session store and a scriptable fake identity upstream

package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// memStore is a Store backed by a map. Cleared names are remembered.
type memStore struct {
	values  map[string]string
	ttls    map[string]time.Duration
	cleared map[string]bool
}

func newMemStore(kv ...string) *memStore {
	s := &memStore{
		values:  make(map[string]string),
		ttls:    make(map[string]time.Duration),
		cleared: make(map[string]bool),
	}
	for i := 0; i+1 < len(kv); i += 2 {
		s.values[kv[i]] = kv[i+1]
	}
	return s
}

func (s *memStore) Get(name string) (string, bool) {
	v, ok := s.values[name]
	return v, ok && v != ""
}

func (s *memStore) Set(name, value string, ttl time.Duration) {
	s.values[name] = value
	s.ttls[name] = ttl
}

func (s *memStore) Clear(name string) {
	delete(s.values, name)
	s.cleared[name] = true
}

// fakeIdentity is an upstream that accepts a fixed set of access tokens,
// refresh tokens, and credentials, and counts every call by path.
type fakeIdentity struct {
	mu          sync.Mutex
	calls       map[string]int
	validAccess map[string]bool
	refreshes   map[string]string // refresh token -> issued access token
	meStatus    int               // forced status for /me when non-zero
	logoutFail  bool
	bearers     []string
}

func newFakeIdentity() *fakeIdentity {
	return &fakeIdentity{
		calls:       make(map[string]int),
		validAccess: make(map[string]bool),
		refreshes:   make(map[string]string),
	}
}

func (f *fakeIdentity) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[path]
}

func (f *fakeIdentity) server(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.calls[r.URL.Path]++
		f.bearers = append(f.bearers, r.Header.Get("Authorization"))
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case loginPath:
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			if body["email"] == "ada@example.com" && body["password"] == "secret" {
				w.Write([]byte(`{"access":"A0","refresh":"R0"}`))
				return
			}
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"detail":"No active account found with the given credentials"}`))

		case mePath:
			if f.meStatus != 0 {
				w.WriteHeader(f.meStatus)
				w.Write([]byte(`{"detail":"forced"}`))
				return
			}
			token := r.Header.Get("Authorization")
			if len(token) > 7 && f.validAccess[token[7:]] {
				w.Write([]byte(`{"id":7,"email":"ada@example.com","username":"ada","first_name":"Ada","last_name":"L","image_url":null}`))
				return
			}
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"detail":"Given token not valid for any token type"}`))

		case refreshPath:
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			if access, ok := f.refreshes[body["refresh"]]; ok {
				w.Write([]byte(`{"access":"` + access + `"}`))
				return
			}
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"detail":"Token is invalid or expired"}`))

		case logoutPath:
			if f.logoutFail {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			w.WriteHeader(http.StatusResetContent)

		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}
