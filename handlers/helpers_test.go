// ABOUTME: Shared fixtures for handler tests
// ABOUTME: Builds a Handler against a mock upstream and a mux with the full route table

package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/communityforum/bff/config"
	"github.com/communityforum/bff/services"
)

// testConfig returns a config pointing at upstreamURL
func testConfig(upstreamURL string) *config.Config {
	return &config.Config{
		Port:             "8080",
		UpstreamAPIBase:  upstreamURL,
		UpstreamTimeout:  5 * time.Second,
		MaxUploadMB:      1,
		RateLimitAuth:    5,
		RateLimitDefault: 300,
	}
}

// newTestServer starts a mock upstream and returns a mux routing to a
// Handler configured against it
func newTestServer(t *testing.T, upstream http.HandlerFunc) *http.ServeMux {
	t.Helper()
	srv := httptest.NewServer(upstream)
	t.Cleanup(srv.Close)
	return newMux(NewHandler(testConfig(srv.URL), nil))
}

func newMux(h *Handler) *http.ServeMux {
	mux := http.NewServeMux()
	for _, route := range h.Routes() {
		mux.HandleFunc(route.Method+" "+route.Path, route.Handler)
	}
	return mux
}

func serve(mux http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func withSession(req *http.Request, access, refresh string) *http.Request {
	if access != "" {
		req.AddCookie(&http.Cookie{Name: services.AccessCookie, Value: access})
	}
	if refresh != "" {
		req.AddCookie(&http.Cookie{Name: services.RefreshCookie, Value: refresh})
	}
	return req
}

func responseCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// assertCleared fails unless both session cookies were expired
func assertCleared(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()
	for _, name := range []string{services.AccessCookie, services.RefreshCookie} {
		c := responseCookie(rec, name)
		if c == nil {
			t.Errorf("Expected %s cookie to be cleared, none set", name)
			continue
		}
		if c.MaxAge >= 0 || c.Value != "" {
			t.Errorf("Expected %s cleared with Max-Age=0, got value %q max-age %d", name, c.Value, c.MaxAge)
		}
	}
}

func urlEscape(s string) string {
	return url.QueryEscape(s)
}
