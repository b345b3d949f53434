package auth

import "errors"

// ErrAuth marks authentication and authorization failures.
// The CLI maps errors wrapping it to the auth exit code.
var ErrAuth = errors.New("auth error")

// ErrNotRefreshable is returned when the stored token has no refresh token.
var ErrNotRefreshable = errors.New("stored token has no refresh token")
