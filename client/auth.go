package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/devprozorov/unicorn/internal/util"
	"github.com/devprozorov/unicorn/session"
)

type loginResponse struct {
	OK          bool   `json:"ok"`
	AccessToken string `json:"accessToken"`
	MFARequired bool   `json:"mfaRequired"`
	MFAToken    string `json:"mfaToken"`
}

// LoginResult is the outcome of Login or VerifyTOTP. When MFARequired
// is set the login is half-done: the caller must collect a one-time
// code and call VerifyTOTP.
type LoginResult struct {
	AccessToken string
	MFARequired bool
	Identity    *session.Identity
}

// Login authenticates with login and password. On success the access
// token is stored and the identity loaded. When the account has MFA
// enabled the result reports MFARequired and the exchange token is
// parked on the session until VerifyTOTP completes the login.
func (c *Client) Login(ctx context.Context, login, password string) (*LoginResult, error) {
	body := map[string]string{
		"login":    util.NormalizeLogin(strings.TrimSpace(login)),
		"password": password,
	}
	var res loginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &res, noAuth()); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if res.MFARequired {
		c.session.RequireMFA(res.MFAToken)
		return &LoginResult{MFARequired: true}, nil
	}
	return c.completeLogin(ctx, res.AccessToken)
}

// VerifyTOTP finishes a login that Login reported as MFARequired.
func (c *Client) VerifyTOTP(ctx context.Context, code string) (*LoginResult, error) {
	mfaToken := c.session.MFAPending()
	if mfaToken == "" {
		return nil, ErrNoPendingMFA
	}
	body := map[string]string{"mfaToken": mfaToken, "code": code}
	var res loginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/totp/verify", body, &res, noAuth()); err != nil {
		return nil, fmt.Errorf("verifying one-time code: %w", err)
	}
	c.session.ConfirmMFA()
	return c.completeLogin(ctx, res.AccessToken)
}

func (c *Client) completeLogin(ctx context.Context, accessToken string) (*LoginResult, error) {
	if accessToken == "" {
		return nil, fmt.Errorf("login: response carried no token")
	}
	c.setToken(ctx, accessToken)
	if err := c.session.Init(ctx); err != nil {
		return nil, fmt.Errorf("loading identity: %w", err)
	}
	return &LoginResult{
		AccessToken: accessToken,
		Identity:    c.session.Identity(),
	}, nil
}

// RegisterParams are the fields of a new account.
type RegisterParams struct {
	Login       string `json:"login"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
	Type        string `json:"type"` // user or company
}

// Register creates an account and logs it in.
func (c *Client) Register(ctx context.Context, params RegisterParams) (*LoginResult, error) {
	params.Login = util.NormalizeLogin(strings.TrimSpace(params.Login))
	var res loginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", params, &res, noAuth()); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	return c.completeLogin(ctx, res.AccessToken)
}

// Logout invalidates the refresh credential server-side and clears the
// local session. The local clear happens even when the network call
// fails; a dead backend must not keep the user logged in.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil, noRetry())
	c.session.Clear(ctx, session.ClearOptions{})
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// ChangePassword changes the account password. The backend revokes the
// refresh credential afterwards, so the caller should expect to log in
// again.
func (c *Client) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	body := map[string]string{"oldPassword": oldPassword, "newPassword": newPassword}
	if err := c.do(ctx, http.MethodPost, "/auth/change-password", body, nil); err != nil {
		return fmt.Errorf("changing password: %w", err)
	}
	return nil
}

// Me returns the identity for the current session, loading it first if
// needed.
func (c *Client) Me(ctx context.Context) (*session.Identity, error) {
	if err := c.session.Init(ctx); err != nil {
		return nil, err
	}
	ident := c.session.Identity()
	if ident == nil {
		return nil, fmt.Errorf("me: %w", ErrAuthExpired)
	}
	return ident, nil
}

// fetchProfile is the session manager's profile loader: the backend
// confirms the token and returns display fields. The numeric identifier
// is filled from token claims by the manager.
func (c *Client) fetchProfile(ctx context.Context) (session.Identity, error) {
	var res struct {
		OK          bool   `json:"ok"`
		DisplayName string `json:"displayName"`
		Type        string `json:"type"`
	}
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &res); err != nil {
		return session.Identity{}, err
	}
	return session.Identity{DisplayName: res.DisplayName, AccountType: res.Type}, nil
}

// TOTPEnrollment is the secret material for setting up an
// authenticator app.
type TOTPEnrollment struct {
	Secret     string `json:"secret"`
	OTPAuthURL string `json:"otpauth"`
	ExpiresIn  int64  `json:"expiresIn"`
}

// TOTPEnroll starts MFA enrollment. The pending secret expires unless
// confirmed with TOTPEnable.
func (c *Client) TOTPEnroll(ctx context.Context) (*TOTPEnrollment, error) {
	var res struct {
		OK bool `json:"ok"`
		TOTPEnrollment
	}
	if err := c.do(ctx, http.MethodPost, "/auth/totp/enroll", nil, &res); err != nil {
		return nil, fmt.Errorf("totp enroll: %w", err)
	}
	enrollment := res.TOTPEnrollment
	return &enrollment, nil
}

// TOTPEnable confirms enrollment with a code from the authenticator.
// The backend revokes the refresh credential on success.
func (c *Client) TOTPEnable(ctx context.Context, code string) error {
	if err := c.do(ctx, http.MethodPost, "/auth/totp/enable", map[string]string{"code": code}, nil); err != nil {
		return fmt.Errorf("totp enable: %w", err)
	}
	return nil
}

// TOTPDisable turns MFA off, gated on a valid current code.
func (c *Client) TOTPDisable(ctx context.Context, code string) error {
	if err := c.do(ctx, http.MethodPost, "/auth/totp/disable", map[string]string{"code": code}, nil); err != nil {
		return fmt.Errorf("totp disable: %w", err)
	}
	return nil
}
