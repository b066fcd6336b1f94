package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrRefreshDenied is returned when the backend explicitly rejects
	// the refresh credential.
	ErrRefreshDenied = errors.New("refresh denied")

	// ErrAuthExpired is returned when the session could not be
	// recovered and has been cleared.
	ErrAuthExpired = errors.New("authentication expired")

	// ErrMFARequired marks a protected action that needs a step-up
	// verification first. Match with errors.Is on request errors.
	ErrMFARequired = errors.New("mfa required")

	// ErrNoPendingMFA is returned by VerifyTOTP when no login is
	// waiting on a second factor.
	ErrNoPendingMFA = errors.New("no pending mfa exchange")
)

// mfaRequiredCode is the backend's body marker on a 403 that means
// "step up", as opposed to a plain permission failure.
const mfaRequiredCode = "mfa_required"

// RequestError is a non-2xx response passed through verbatim. The
// gateway does not interpret domain error codes beyond the MFA marker;
// callers inspect Code and Body themselves.
type RequestError struct {
	// Status is the HTTP status code.
	Status int
	// Code is the machine-readable "error" field of the response
	// envelope, when present.
	Code string
	// Body is the raw response body.
	Body []byte
}

func newRequestError(status int, body []byte) *RequestError {
	e := &RequestError{Status: status, Body: body}
	var env struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &env) == nil {
		e.Code = env.Error
	}
	return e
}

func (e *RequestError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("request failed: %d %s", e.Status, e.Code)
	}
	return fmt.Sprintf("request failed: %d", e.Status)
}

// HTTPStatus returns the response status. The session package uses it
// to tell authorization failures from transient ones.
func (e *RequestError) HTTPStatus() int {
	return e.Status
}

// Is maps the backend's step-up marker onto ErrMFARequired so callers
// can branch with errors.Is instead of poking at the body.
func (e *RequestError) Is(target error) bool {
	return target == ErrMFARequired &&
		e.Status == http.StatusForbidden && e.Code == mfaRequiredCode
}
