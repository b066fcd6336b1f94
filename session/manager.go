// Package session manages the authenticated-user session: the access
// token, the identity derived from it, and the MFA exchange state.
package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/devprozorov/unicorn/credstore"
	"github.com/devprozorov/unicorn/token"
)

// Identity is the authenticated user as the client knows it: a backend
// profile call merged with claims decoded from the access token. Claim
// fields are unverified and fill gaps only.
type Identity struct {
	UserID      string `json:"userId"`
	Login       string `json:"login"`
	DisplayName string `json:"displayName"`
	AccountType string `json:"type"` // user, company or admin
}

// ProfileFunc fetches the server-confirmed profile for the current
// access token.
type ProfileFunc func(ctx context.Context) (Identity, error)

// Manager is the session aggregate. It owns the token store, derives
// the identity at most once per token, and tracks the MFA exchange
// token during a two-step login.
type Manager struct {
	tokens  *TokenStore
	profile ProfileFunc
	logger  *slog.Logger

	// initialized is true once an identity-load attempt has completed
	// for the current token. Any token set resets it.
	initialized atomic.Bool

	mu       sync.Mutex
	identity *Identity
	mfaToken string
	loading  bool

	flights singleflight.Group
}

// NewManager creates a Manager over the given token store.
func NewManager(tokens *TokenStore, profile ProfileFunc, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{tokens: tokens, profile: profile, logger: logger}
	// Every token write invalidates readiness, including writes that
	// bypass the manager.
	tokens.onSet = func() { m.initialized.Store(false) }
	return m
}

// Tokens returns the underlying token store.
func (m *Manager) Tokens() *TokenStore {
	return m.tokens
}

// AccessToken returns the current access token, or "" when anonymous.
func (m *Manager) AccessToken() string {
	return m.tokens.Current()
}

// IsAuthenticated reports whether an access token is present. It does
// not imply the identity has loaded.
func (m *Manager) IsAuthenticated() bool {
	return m.tokens.Current() != ""
}

// Initialized reports whether an identity-load attempt has completed
// for the current token.
func (m *Manager) Initialized() bool {
	return m.initialized.Load()
}

// Ready reports whether the session is initialized and no load is in
// flight.
func (m *Manager) Ready() bool {
	m.mu.Lock()
	loading := m.loading
	m.mu.Unlock()
	return m.initialized.Load() && !loading
}

// Identity returns a copy of the loaded identity, or nil when the
// session is anonymous or not yet initialized.
func (m *Manager) Identity() *Identity {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.identity == nil {
		return nil
	}
	ident := *m.identity
	return &ident
}

// SetAccessToken stores a new access token. Readiness resets even when
// the value is unchanged, and any pending MFA exchange token is
// dropped: an access token supersedes the login attempt that minted it.
func (m *Manager) SetAccessToken(ctx context.Context, tok string) {
	m.tokens.Set(ctx, tok)
	m.mu.Lock()
	m.mfaToken = ""
	m.mu.Unlock()
}

// RequireMFA records the short-lived exchange token of a login that
// needs a second factor.
func (m *Manager) RequireMFA(tok string) {
	m.mu.Lock()
	m.mfaToken = tok
	m.mu.Unlock()
}

// ConfirmMFA drops the pending exchange token.
func (m *Manager) ConfirmMFA() {
	m.mu.Lock()
	m.mfaToken = ""
	m.mu.Unlock()
}

// MFAPending returns the pending exchange token, or "" when none.
func (m *Manager) MFAPending() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mfaToken
}

// Clear wipes the whole session: token, identity, MFA state, readiness.
func (m *Manager) Clear(ctx context.Context, opts ClearOptions) {
	m.tokens.Clear(ctx, opts)
	m.mu.Lock()
	m.identity = nil
	m.mfaToken = ""
	m.loading = false
	m.mu.Unlock()
	m.initialized.Store(false)
}

// MarkInitialized forces the initialized flag. Bootstrap calls it as a
// terminal step so UI gating never blocks on a failed startup.
func (m *Manager) MarkInitialized() {
	m.initialized.Store(true)
}

// Init loads the identity for the current token. It is idempotent and
// single-flight: concurrent callers share one profile fetch, and a
// completed init is a no-op until the token changes. Without a token
// the guest state is terminal and no network call is made.
//
// Authorization failures (the backend rejects the token) clear the
// session and are resolved locally. Transient failures keep the token
// and mark the session initialized anyway, so a flaky backend does not
// log the user out.
func (m *Manager) Init(ctx context.Context) error {
	if m.initialized.Load() {
		return nil
	}
	_, err, _ := m.flights.Do("init", func() (any, error) {
		return nil, m.load(ctx)
	})
	return err
}

func (m *Manager) load(ctx context.Context) error {
	if m.initialized.Load() {
		return nil
	}
	m.setLoading(true)
	defer m.setLoading(false)

	startToken := m.tokens.Current()
	if startToken == "" {
		m.initialized.Store(true)
		return nil
	}

	ident, err := m.profile(ctx)
	switch {
	case err == nil:
		m.finish(startToken, mergeClaims(ident, startToken))
		return nil
	case isAuthError(err):
		m.logger.Info("session rejected by backend; clearing", "error", err)
		m.Clear(ctx, ClearOptions{})
		return nil
	case ctx.Err() != nil:
		// The attempt never completed; leave readiness untouched.
		return ctx.Err()
	default:
		m.logger.Warn("profile load failed; keeping session optimistically", "error", err)
		m.finish(startToken, nil)
		return nil
	}
}

// finish records the load result, but only if the token is still the
// one the load started with; a token swapped mid-flight needs a fresh
// load of its own.
func (m *Manager) finish(startToken string, ident *Identity) {
	if m.tokens.Current() != startToken {
		return
	}
	if ident != nil {
		m.mu.Lock()
		m.identity = ident
		m.mu.Unlock()
	}
	m.initialized.Store(true)
}

// mergeClaims fills identity gaps from unverified token claims. The
// profile call omits the numeric identifier; the token carries it.
func mergeClaims(ident Identity, raw string) *Identity {
	claims, err := token.Decode(raw)
	if err == nil {
		if ident.UserID == "" {
			ident.UserID = claims.Subject
		}
		if ident.AccountType == "" {
			ident.AccountType = claims.AccountType
		}
	}
	return &ident
}

// ReconcileExternal applies a persisted-slot change observed from
// another process. Returns true when the caller should re-run Init.
func (m *Manager) ReconcileExternal(ctx context.Context, ev credstore.Event) bool {
	cur := m.tokens.Current()
	if !ev.Present {
		if cur != "" {
			// The other process already cleared the slot; do not
			// write it again.
			m.Clear(ctx, ClearOptions{KeepPersisted: true})
		}
		return false
	}
	if ev.Token == cur {
		return false
	}
	m.tokens.adopt(ctx, ev.Token)
	m.mu.Lock()
	m.mfaToken = ""
	m.mu.Unlock()
	return true
}

func (m *Manager) setLoading(v bool) {
	m.mu.Lock()
	m.loading = v
	m.mu.Unlock()
}

// statusError lets the manager classify request failures without
// depending on the HTTP client package.
type statusError interface {
	HTTPStatus() int
}

func isAuthError(err error) bool {
	var se statusError
	if errors.As(err, &se) {
		s := se.HTTPStatus()
		return s == http.StatusUnauthorized || s == http.StatusForbidden
	}
	return false
}
