// Package apitest provides a scriptable in-process stand-in for the
// Unicorn backend, implementing its auth contract: the {"ok": ...}
// envelope, bearer access tokens, the HTTP-only refresh cookie, and
// TOTP-based MFA. Tests drive failure modes through the exported knobs.
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// RefreshCookieName is the cookie carrying the refresh credential.
const RefreshCookieName = "unicorn_refresh"

const defaultTokenTTL = 15 * time.Minute

// User is a test account.
type User struct {
	UserID      string
	Login       string
	Password    string
	DisplayName string
	Type        string // user, company or admin

	TOTPSecret  string
	TOTPEnabled bool
	pendingTOTP string

	// StepUpRequired makes protected resource calls answer with the
	// mfa_required marker, simulating an action gated on step-up.
	StepUpRequired bool
}

// Server is the fake backend. The embedded test server is started on
// New and closed via t.Cleanup.
type Server struct {
	*httptest.Server
	Router *chi.Mux

	secret []byte

	mu           sync.Mutex
	users        map[string]*User  // by login
	accessTokens map[string]string // valid token -> login
	mfaTokens    map[string]string // exchange token -> login
	sessions     map[string]string // refresh cookie value -> login
	refreshCalls int
	meCalls      int
	failRefresh  bool
	refreshDelay time.Duration
	tokenTTL     time.Duration
}

// New starts a fake backend.
func New(t *testing.T) *Server {
	t.Helper()
	s := &Server{
		Router:       chi.NewRouter(),
		secret:       []byte("apitest-secret"),
		users:        make(map[string]*User),
		accessTokens: make(map[string]string),
		mfaTokens:    make(map[string]string),
		sessions:     make(map[string]string),
		tokenTTL:     defaultTokenTTL,
	}
	s.routes()
	s.Server = httptest.NewServer(s.Router)
	t.Cleanup(s.Close)
	return s
}

// AddUser registers an account, assigning a UserID when absent.
func (s *Server) AddUser(u User) *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.UserID == "" {
		u.UserID = "u-" + uuid.NewString()[:8]
	}
	if u.Type == "" {
		u.Type = "user"
	}
	s.users[u.Login] = &u
	return &u
}

// IssueToken mints a valid access token for the given login, as if a
// login had happened, without touching the refresh session.
func (s *Server) IssueToken(login string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issueLocked(login, s.tokenTTL)
}

// IssueExpiredToken mints a token whose expiry claim already passed.
// The backend would reject it; bootstrap should discard it locally.
func (s *Server) IssueExpiredToken(login string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	tok := s.mintLocked(login, -time.Minute)
	// Deliberately not added to the valid set.
	return tok
}

// GrantRefreshSession plants a refresh session and returns the cookie
// to install in a client jar, simulating an earlier login.
func (s *Server) GrantRefreshSession(login string) *http.Cookie {
	s.mu.Lock()
	defer s.mu.Unlock()
	val := uuid.NewString()
	s.sessions[val] = login
	return &http.Cookie{Name: RefreshCookieName, Value: val, Path: "/", HttpOnly: true}
}

// InvalidateAccessTokens revokes every outstanding access token, so
// the next protected call answers 401.
func (s *Server) InvalidateAccessTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessTokens = make(map[string]string)
}

// RevokeToken invalidates a single access token.
func (s *Server) RevokeToken(tok string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.accessTokens, tok)
}

// SetFailRefresh makes the refresh endpoint deny all attempts.
func (s *Server) SetFailRefresh(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failRefresh = fail
}

// SetRefreshDelay holds each refresh round trip for d, widening the
// window in which concurrent callers must coalesce.
func (s *Server) SetRefreshDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshDelay = d
}

// RefreshCalls reports how many times the refresh endpoint was hit.
func (s *Server) RefreshCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshCalls
}

// MeCalls reports how many times the profile endpoint was hit.
func (s *Server) MeCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.meCalls
}

func (s *Server) mintLocked(login string, ttl time.Duration) string {
	u := s.users[login]
	if u == nil {
		panic(fmt.Sprintf("apitest: unknown user %q", login))
	}
	now := time.Now()
	tok, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.MapClaims{
		"sub": u.UserID,
		"typ": u.Type,
		"jti": uuid.NewString(),
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}).SignedString(s.secret)
	if err != nil {
		panic(err)
	}
	return tok
}

func (s *Server) issueLocked(login string, ttl time.Duration) string {
	tok := s.mintLocked(login, ttl)
	s.accessTokens[tok] = login
	return tok
}

func (s *Server) routes() {
	r := s.Router
	r.Post("/auth/login", s.handleLogin)
	r.Post("/auth/register", s.handleRegister)
	r.Post("/auth/refresh", s.handleRefresh)
	r.Post("/auth/logout", s.handleLogout)
	r.Post("/auth/totp/verify", s.handleTOTPVerify)

	r.Group(func(r chi.Router) {
		r.Use(s.RequireAuth)
		r.Get("/auth/me", s.handleMe)
		r.Post("/auth/change-password", s.handleChangePassword)
		r.Post("/auth/totp/enroll", s.handleTOTPEnroll)
		r.Post("/auth/totp/enable", s.handleTOTPEnable)
		r.Post("/auth/totp/disable", s.handleTOTPDisable)
		r.Get("/resource", s.handleResource)
	})
}

// RequireAuth guards a route on a valid bearer token. Exposed so tests
// can mount extra protected routes on Router.
func (s *Server) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := s.userFromRequest(r); !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"ok": false, "error": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) userFromRequest(r *http.Request) (*User, bool) {
	auth := r.Header.Get("Authorization")
	tok, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok || tok == "" {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	login, ok := s.accessTokens[tok]
	if !ok {
		return nil, false
	}
	u, ok := s.users[login]
	return u, ok
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Login    string `json:"login"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "bad_request"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[req.Login]
	if u == nil || u.Password != req.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"ok": false, "error": "invalid_credentials"})
		return
	}
	if u.TOTPEnabled {
		mfaTok := uuid.NewString()
		s.mfaTokens[mfaTok] = u.Login
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "mfaRequired": true, "mfaToken": mfaTok})
		return
	}
	s.issueSessionLocked(w, u)
}

func (s *Server) issueSessionLocked(w http.ResponseWriter, u *User) {
	access := s.issueLocked(u.Login, s.tokenTTL)
	val := uuid.NewString()
	s.sessions[val] = u.Login
	http.SetCookie(w, &http.Cookie{Name: RefreshCookieName, Value: val, Path: "/", HttpOnly: true})
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "accessToken": access})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Login       string `json:"login"`
		Password    string `json:"password"`
		DisplayName string `json:"displayName"`
		Type        string `json:"type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Login == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "bad_request"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.users[req.Login] != nil {
		writeJSON(w, http.StatusConflict, map[string]any{"ok": false, "error": "login_taken"})
		return
	}
	u := &User{
		UserID:      "u-" + uuid.NewString()[:8],
		Login:       req.Login,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		Type:        req.Type,
	}
	if u.Type == "" {
		u.Type = "user"
	}
	s.users[u.Login] = u
	s.issueSessionLocked(w, u)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.refreshCalls++
	delay := s.refreshDelay
	fail := s.failRefresh
	s.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if fail {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"ok": false, "error": "unauthorized"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	cookie, err := r.Cookie(RefreshCookieName)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"ok": false, "error": "unauthorized"})
		return
	}
	login, ok := s.sessions[cookie.Value]
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"ok": false, "error": "unauthorized"})
		return
	}
	access := s.issueLocked(login, s.tokenTTL)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "accessToken": access})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cookie, err := r.Cookie(RefreshCookieName); err == nil {
		delete(s.sessions, cookie.Value)
	}
	http.SetCookie(w, &http.Cookie{Name: RefreshCookieName, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleTOTPVerify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MFAToken string `json:"mfaToken"`
		Code     string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "bad_request"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	login, ok := s.mfaTokens[req.MFAToken]
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"ok": false, "error": "unauthorized"})
		return
	}
	u := s.users[login]
	if u == nil || !verifyTOTP(u.TOTPSecret, req.Code, time.Now()) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"ok": false, "error": "invalid_totp"})
		return
	}
	delete(s.mfaTokens, req.MFAToken)
	s.issueSessionLocked(w, u)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u, _ := s.userFromRequest(r)
	s.mu.Lock()
	s.meCalls++
	s.mu.Unlock()
	// The real backend omits the identifier here; clients derive it
	// from token claims.
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "displayName": u.DisplayName, "type": u.Type})
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	u, _ := s.userFromRequest(r)
	var req struct {
		OldPassword string `json:"oldPassword"`
		NewPassword string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "bad_request"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if u.Password != req.OldPassword {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"ok": false, "error": "invalid_credentials"})
		return
	}
	u.Password = req.NewPassword
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleTOTPEnroll(w http.ResponseWriter, r *http.Request) {
	u, _ := s.userFromRequest(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	if u.TOTPEnabled {
		writeJSON(w, http.StatusConflict, map[string]any{"ok": false, "error": "already_enabled"})
		return
	}
	secret := NewTOTPSecret()
	u.pendingTOTP = secret
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":        true,
		"secret":    secret,
		"otpauth":   otpAuthURL(secret, u.Login),
		"expiresIn": int64(600),
	})
}

func (s *Server) handleTOTPEnable(w http.ResponseWriter, r *http.Request) {
	u, _ := s.userFromRequest(r)
	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "bad_request"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if u.pendingTOTP == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "no_pending_totp"})
		return
	}
	if !verifyTOTP(u.pendingTOTP, req.Code, time.Now()) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"ok": false, "error": "invalid_totp"})
		return
	}
	u.TOTPSecret = u.pendingTOTP
	u.pendingTOTP = ""
	u.TOTPEnabled = true
	// Enabling MFA revokes existing refresh sessions.
	for val, login := range s.sessions {
		if login == u.Login {
			delete(s.sessions, val)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleTOTPDisable(w http.ResponseWriter, r *http.Request) {
	u, _ := s.userFromRequest(r)
	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "bad_request"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !u.TOTPEnabled || !verifyTOTP(u.TOTPSecret, req.Code, time.Now()) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"ok": false, "error": "invalid_totp"})
		return
	}
	u.TOTPEnabled = false
	u.TOTPSecret = ""
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleResource(w http.ResponseWriter, r *http.Request) {
	u, _ := s.userFromRequest(r)
	s.mu.Lock()
	stepUp := u.StepUpRequired
	s.mu.Unlock()
	if stepUp {
		writeJSON(w, http.StatusForbidden, map[string]any{"ok": false, "error": "mfa_required"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "value": "hello " + u.DisplayName})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
