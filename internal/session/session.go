// Package session tracks which of the three client modes the user is in:
// unauthenticated, guest, or authenticated. Mode is resolved from persisted
// state on first use and kept consistent with it afterwards.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/vibecheckapp/vibecheck-cli/internal/store"
)

// Mode is the client's session mode. Guest and Authenticated are mutually
// exclusive: entering one always leaves the other.
type Mode int

const (
	ModeUnauthenticated Mode = iota
	ModeGuest
	ModeAuthenticated
)

func (m Mode) String() string {
	switch m {
	case ModeGuest:
		return "guest"
	case ModeAuthenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// Manager resolves and transitions the session mode. All state lives in the
// KV store; the in-memory mode is only a cache of what was last resolved.
type Manager struct {
	kv  store.KV
	log zerolog.Logger
	now func() time.Time

	mu       sync.Mutex
	mode     Mode
	resolved bool
}

// New creates a Manager over kv.
func New(kv store.KV, log zerolog.Logger) *Manager {
	return &Manager{kv: kv, log: log, now: time.Now}
}

// Mode returns the current session mode, resolving it from persisted state on
// first call. Resolution order: an unexpired token wins, then the persisted
// guest flag, then unauthenticated.
func (m *Manager) Mode(ctx context.Context) Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resolve(ctx)
}

// IsAuthenticated reports whether the session holds a usable token.
func (m *Manager) IsAuthenticated(ctx context.Context) bool {
	return m.Mode(ctx) == ModeAuthenticated
}

// IsGuest reports whether the user is browsing as a guest.
func (m *Manager) IsGuest(ctx context.Context) bool {
	return m.Mode(ctx) == ModeGuest
}

// ContinueAsGuest enters guest mode and persists the choice so it survives a
// restart. Any leftover tokens are dropped.
func (m *Manager) ContinueAsGuest(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.clearTokens(ctx); err != nil {
		return err
	}
	if err := m.kv.Set(ctx, store.KeyGuestMode, "true"); err != nil {
		return err
	}
	m.mode = ModeGuest
	m.resolved = true
	return nil
}

// LoginSucceeded stores the token pair and switches to authenticated mode.
// The guest flag is cleared; guest-era local data (device id, usage count,
// cached history) is deliberately left alone.
func (m *Manager) LoginSucceeded(ctx context.Context, accessToken, refreshToken string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.kv.Set(ctx, store.KeyAccessToken, accessToken); err != nil {
		return err
	}
	if err := m.kv.Set(ctx, store.KeyRefreshToken, refreshToken); err != nil {
		return err
	}
	if err := m.kv.Delete(ctx, store.KeyGuestMode); err != nil {
		return err
	}
	m.mode = ModeAuthenticated
	m.resolved = true
	return nil
}

// Logout drops the stored tokens and returns to the unauthenticated mode.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.clearTokens(ctx); err != nil {
		return err
	}
	if err := m.kv.Delete(ctx, store.KeyGuestMode); err != nil {
		return err
	}
	m.mode = ModeUnauthenticated
	m.resolved = true
	return nil
}

// AccessToken returns the stored access token, if any.
func (m *Manager) AccessToken(ctx context.Context) (string, bool, error) {
	return m.kv.Get(ctx, store.KeyAccessToken)
}

// RefreshToken returns the stored refresh token, if any.
func (m *Manager) RefreshToken(ctx context.Context) (string, bool, error) {
	return m.kv.Get(ctx, store.KeyRefreshToken)
}

// StoreTokens replaces the token pair after a refresh rotation.
func (m *Manager) StoreTokens(ctx context.Context, accessToken, refreshToken string) error {
	if err := m.kv.Set(ctx, store.KeyAccessToken, accessToken); err != nil {
		return err
	}
	return m.kv.Set(ctx, store.KeyRefreshToken, refreshToken)
}

// OnboardingComplete reports whether the intro flow has been finished.
func (m *Manager) OnboardingComplete(ctx context.Context) bool {
	raw, ok, err := m.kv.Get(ctx, store.KeyOnboardingComplete)
	if err != nil {
		m.log.Warn().Err(err).Msg("onboarding flag read failed, assuming incomplete")
		return false
	}
	return ok && raw == "true"
}

// SetOnboardingComplete marks the intro flow as finished.
func (m *Manager) SetOnboardingComplete(ctx context.Context) error {
	return m.kv.Set(ctx, store.KeyOnboardingComplete, "true")
}

// clearTokens deletes both tokens. Callers must hold m.mu.
func (m *Manager) clearTokens(ctx context.Context) error {
	if err := m.kv.Delete(ctx, store.KeyAccessToken); err != nil {
		return err
	}
	return m.kv.Delete(ctx, store.KeyRefreshToken)
}

// resolve determines the mode from persisted state, once. Callers must hold
// m.mu.
func (m *Manager) resolve(ctx context.Context) Mode {
	if m.resolved {
		return m.mode
	}
	m.resolved = true
	m.mode = ModeUnauthenticated

	if m.hasLiveToken(ctx) {
		m.mode = ModeAuthenticated
		return m.mode
	}

	raw, ok, err := m.kv.Get(ctx, store.KeyGuestMode)
	if err != nil {
		m.log.Warn().Err(err).Msg("guest mode flag read failed, assuming unauthenticated")
		return m.mode
	}
	if ok && raw == "true" {
		m.mode = ModeGuest
	}
	return m.mode
}

// hasLiveToken reports whether either stored token is still unexpired. An
// expired access token alone is fine as long as the refresh token lives; the
// API layer rotates the pair on the first 401.
func (m *Manager) hasLiveToken(ctx context.Context) bool {
	for _, key := range []string{store.KeyAccessToken, store.KeyRefreshToken} {
		raw, ok, err := m.kv.Get(ctx, key)
		if err != nil {
			m.log.Warn().Err(err).Str("key", key).Msg("token read failed")
			continue
		}
		if ok && m.unexpired(raw) {
			return true
		}
	}
	return false
}

// unexpired inspects the token's exp claim without verifying the signature;
// only the server can verify, the client just needs to know whether sending
// the token is worth trying. Unparseable tokens count as expired.
func (m *Manager) unexpired(raw string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.After(m.now())
}
