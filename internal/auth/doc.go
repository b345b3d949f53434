// Package auth obtains OAuth2 access tokens for the task backends.
//
// A Manager reuses the token cached by a Store, refreshes it once when a
// refresh token is available, and falls back to the interactive Flow,
// which receives the authorization code on a temporary loopback listener.
package auth
