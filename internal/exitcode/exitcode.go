// Package exitcode defines exit codes for the CLI.
package exitcode

// Process exit codes.
const (
	// Success indicates successful completion.
	Success = 0

	// UserError covers bad arguments, unknown or ambiguous list names and
	// unreadable console input.
	UserError = 1

	// AuthError covers missing client credentials and failed logins.
	AuthError = 2

	// BackendError covers task API and network failures.
	BackendError = 3
)
