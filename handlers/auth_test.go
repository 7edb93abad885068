// ABOUTME: Tests for session endpoints against a mock identity upstream
// ABOUTME: Verifies cookie issuance, silent refresh, expiry, logout, and account deletion

package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/communityforum/bff/models"
	"github.com/communityforum/bff/services"
)

// identityUpstream accepts access token "A1" (and "A0" when a0Valid) and
// refresh token "R0"; it counts refresh calls.
func identityUpstream(a0Valid bool, refreshes *int32) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/auth/login/":
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			if body["password"] != "secret" {
				w.WriteHeader(http.StatusUnauthorized)
				io.WriteString(w, `{"detail":"No active account found with the given credentials"}`)
				return
			}
			io.WriteString(w, `{"access":"A0","refresh":"R0"}`)
		case "/api/auth/me/":
			auth := r.Header.Get("Authorization")
			if auth == "Bearer A1" || (a0Valid && auth == "Bearer A0") {
				io.WriteString(w, `{"id":7,"email":"ada@example.com","username":"ada","first_name":"","last_name":"","image_url":null}`)
				return
			}
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, `{"detail":"token not valid"}`)
		case "/api/auth/refresh/":
			if refreshes != nil {
				atomic.AddInt32(refreshes, 1)
			}
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			if body["refresh"] != "R0" {
				w.WriteHeader(http.StatusUnauthorized)
				io.WriteString(w, `{"detail":"Token is invalid or expired"}`)
				return
			}
			io.WriteString(w, `{"access":"A1"}`)
		case "/api/auth/logout/":
			w.WriteHeader(http.StatusResetContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func TestLogin_SetsCookies(t *testing.T) {
	mux := newTestServer(t, identityUpstream(true, nil))

	rec := serve(mux, httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email":"ada@example.com","password":"secret"}`)))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp models.SuccessResponse
	json.NewDecoder(rec.Body).Decode(&resp)
	if !resp.Success {
		t.Error("Expected success true")
	}

	for _, tc := range []struct {
		name   string
		value  string
		maxAge int
	}{
		{services.AccessCookie, "A0", 900},
		{services.RefreshCookie, "R0", 604800},
	} {
		c := responseCookie(rec, tc.name)
		if c == nil {
			t.Fatalf("Expected %s cookie", tc.name)
		}
		if c.Value != tc.value || c.MaxAge != tc.maxAge {
			t.Errorf("%s: expected %q/%d, got %q/%d", tc.name, tc.value, tc.maxAge, c.Value, c.MaxAge)
		}
		if !c.HttpOnly || c.SameSite != http.SameSiteLaxMode || c.Path != "/" {
			t.Errorf("%s: unexpected flags %+v", tc.name, c)
		}
	}
}

func TestLogin_RejectedRelaysUpstream(t *testing.T) {
	mux := newTestServer(t, identityUpstream(true, nil))

	rec := serve(mux, httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email":"ada@example.com","password":"wrong"}`)))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "No active account") {
		t.Errorf("Expected upstream message relayed, got %s", rec.Body.String())
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Error("Expected no cookies on failed login")
	}
}

func TestLogin_Validation(t *testing.T) {
	mux := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("Upstream must not be called")
	})

	for _, body := range []string{`not json`, `{"email":"","password":"x"}`, `{"email":"a@b.c"}`} {
		rec := serve(mux, httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body)))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("Body %s: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestMe_NoCookie(t *testing.T) {
	var calls int32
	mux := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	})

	rec := serve(mux, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", rec.Code)
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Error("Expected no upstream call without an access cookie")
	}
}

func TestMe_ValidToken(t *testing.T) {
	var refreshes int32
	mux := newTestServer(t, identityUpstream(true, &refreshes))

	rec := serve(mux, withSession(httptest.NewRequest(http.MethodGet, "/api/auth/me", nil), "A0", "R0"))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp models.IdentityResponse
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp.User.ID != 7 || resp.Access != "A0" {
		t.Errorf("Unexpected response %+v", resp)
	}
	if atomic.LoadInt32(&refreshes) != 0 {
		t.Errorf("Expected no refresh, got %d", refreshes)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Error("Expected no cookies re-issued")
	}
}

func TestMe_SilentRefresh(t *testing.T) {
	var refreshes int32
	mux := newTestServer(t, identityUpstream(false, &refreshes))

	rec := serve(mux, withSession(httptest.NewRequest(http.MethodGet, "/api/auth/me", nil), "A0", "R0"))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp models.IdentityResponse
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp.Access != "A1" {
		t.Errorf("Expected refreshed access A1 in body, got %q", resp.Access)
	}
	if atomic.LoadInt32(&refreshes) != 1 {
		t.Errorf("Expected exactly one refresh, got %d", refreshes)
	}

	access := responseCookie(rec, services.AccessCookie)
	if access == nil || access.Value != "A1" || access.MaxAge != 900 {
		t.Errorf("Expected access cookie re-issued as A1, got %+v", access)
	}
	if responseCookie(rec, services.RefreshCookie) != nil {
		t.Error("Expected refresh cookie untouched")
	}
}

func TestMe_RefreshRejected(t *testing.T) {
	var refreshes int32
	mux := newTestServer(t, identityUpstream(false, &refreshes))

	rec := serve(mux, withSession(httptest.NewRequest(http.MethodGet, "/api/auth/me", nil), "A0", "stale"))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401, got %d", rec.Code)
	}
	assertCleared(t, rec)
	if atomic.LoadInt32(&refreshes) != 1 {
		t.Errorf("Expected exactly one refresh attempt, got %d", refreshes)
	}
}

func TestMe_UpstreamErrorKeepsCookies(t *testing.T) {
	mux := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		io.WriteString(w, `{"detail":"maintenance"}`)
	})

	rec := serve(mux, withSession(httptest.NewRequest(http.MethodGet, "/api/auth/me", nil), "A0", "R0"))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 relayed, got %d", rec.Code)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Error("Expected cookies untouched on transient error")
	}
}

func TestLogout_ClearsCookies(t *testing.T) {
	tests := []struct {
		name     string
		upstream http.HandlerFunc
	}{
		{"upstream ok", identityUpstream(true, nil)},
		{"upstream fails", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := newTestServer(t, tt.upstream)

			rec := serve(mux, withSession(httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil), "A0", "R0"))

			if rec.Code != http.StatusOK {
				t.Fatalf("Expected 200, got %d", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), `"success":true`) {
				t.Errorf("Unexpected body %s", rec.Body.String())
			}
			assertCleared(t, rec)
		})
	}
}

func TestDeleteAccount(t *testing.T) {
	var gotAuth string
	mux := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/api/auth/delete-account/" {
			t.Errorf("Unexpected upstream request %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	})

	rec := serve(mux, withSession(httptest.NewRequest(http.MethodDelete, "/api/account", nil), "A0", "R0"))

	if rec.Code != http.StatusNoContent {
		t.Fatalf("Expected 204, got %d", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("Expected empty body, got %q", rec.Body.String())
	}
	if gotAuth != "Bearer A0" {
		t.Errorf("Expected session bearer, got %q", gotAuth)
	}
	assertCleared(t, rec)
}

func TestDeleteAccount_FailureKeepsSession(t *testing.T) {
	mux := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"password":["wrong"]}`)
	})

	rec := serve(mux, withSession(httptest.NewRequest(http.MethodDelete, "/api/account", nil), "A0", "R0"))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 relayed, got %d", rec.Code)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Error("Expected cookies untouched")
	}
}
