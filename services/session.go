// ABOUTME: Session manager for the cookie-held access/refresh token pair
// ABOUTME: Login, identity resolution with one silent refresh, and logout

package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/communityforum/bff/metrics"
	"github.com/communityforum/bff/models"
)

// Resolution is a successfully resolved identity and the access token that
// produced it. Refreshed is true when the access cookie was re-issued.
type Resolution struct {
	Identity    *models.Identity
	AccessToken string
	Refreshed   bool
}

// SessionManager owns the token lifecycle. It holds no per-client state;
// every operation receives the request's Store.
type SessionManager struct {
	auth    AuthAPI
	metrics *metrics.Metrics
}

// NewSessionManager creates a session manager backed by the upstream identity API
func NewSessionManager(auth AuthAPI, m *metrics.Metrics) *SessionManager {
	return &SessionManager{auth: auth, metrics: m}
}

// Login exchanges credentials for a token pair and stores both cookies.
// Upstream rejections are returned as *UpstreamError and never retried.
func (s *SessionManager) Login(ctx context.Context, store Store, email, password string) error {
	pair, err := s.auth.Login(ctx, email, password)
	if err != nil {
		s.metrics.SessionEvent(metrics.EventLoginFailure)
		return err
	}

	store.Set(AccessCookie, pair.Access, AccessTTL)
	store.Set(RefreshCookie, pair.Refresh, RefreshTTL)
	s.metrics.SessionEvent(metrics.EventLoginSuccess)
	return nil
}

// ResolveIdentity returns the current identity or an error. Without an access
// cookie it fails with ErrUnauthenticated before any network call. A 401 from
// the identity call triggers at most one refresh and one retry.
func (s *SessionManager) ResolveIdentity(ctx context.Context, store Store) (*Resolution, error) {
	access, ok := store.Get(AccessCookie)
	if !ok {
		return nil, ErrUnauthenticated
	}

	var renew func(ctx context.Context) (string, error)
	if refresh, ok := store.Get(RefreshCookie); ok {
		renew = func(ctx context.Context) (string, error) {
			return s.auth.Refresh(ctx, refresh)
		}
	}

	outcome, err := callWithRefresh(ctx, access, s.auth.Me, renew)
	if err == nil {
		if outcome.Refreshed {
			store.Set(AccessCookie, outcome.Token, AccessTTL)
			s.metrics.SessionEvent(metrics.EventRefreshSuccess)
		}
		return &Resolution{
			Identity:    outcome.Value,
			AccessToken: outcome.Token,
			Refreshed:   outcome.Refreshed,
		}, nil
	}

	var se *stageError
	if !errors.As(err, &se) {
		return nil, err
	}

	switch se.stage {
	case stageInitial:
		if IsUnauthorized(se.err) {
			// 401 with no refresh cookie to fall back on
			return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, se.err)
		}
		return nil, se.err

	case stageRefresh:
		var tErr *TransportError
		if errors.As(se.err, &tErr) || errors.Is(se.err, ErrNotConfigured) {
			// The refresh token was never judged; keep it for the next attempt
			return nil, se.err
		}
		s.expire(store)
		s.metrics.SessionEvent(metrics.EventRefreshFailure)
		slog.Debug("Session refresh rejected", "error", se.err)
		return nil, fmt.Errorf("%w: %v", ErrSessionExpired, se.err)

	default:
		// Refresh succeeded but the renewed token was still not accepted
		s.expire(store)
		s.metrics.SessionEvent(metrics.EventExpired)
		slog.Debug("Identity retry after refresh failed", "error", se.err)
		return nil, fmt.Errorf("%w: %v", ErrSessionExpired, se.err)
	}
}

// Logout notifies the upstream when a refresh token exists, then clears both
// cookies regardless of the upstream outcome.
func (s *SessionManager) Logout(ctx context.Context, store Store) {
	if refresh, ok := store.Get(RefreshCookie); ok {
		access, _ := store.Get(AccessCookie)
		if err := s.auth.Logout(ctx, access, refresh); err != nil {
			slog.Warn("Upstream logout failed", "error", err)
		}
	}

	s.expire(store)
	s.metrics.SessionEvent(metrics.EventLogout)
}

// Expire clears both cookies without contacting the upstream
func (s *SessionManager) Expire(store Store) {
	s.expire(store)
}

// AccessToken returns the session's access token as stored, without validation
func (s *SessionManager) AccessToken(store Store) (string, bool) {
	return store.Get(AccessCookie)
}

func (s *SessionManager) expire(store Store) {
	store.Clear(AccessCookie)
	store.Clear(RefreshCookie)
}
