// Package commands provides the command interface and implementations.
package commands

import (
	"context"
	"flag"
	"io"

	"todocli/internal/config"
	"todocli/internal/service"
)

// Command is one todocli subcommand. Implementations register themselves
// with Register from an init function.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// NeedsAuth reports whether the dispatcher must obtain an access token
	// and build the backend before Run. login and logout manage tokens
	// themselves and return false.
	NeedsAuth() bool

	// RegisterFlags registers command-specific flags.
	RegisterFlags(fs *flag.FlagSet)

	// Run executes the command and returns its exit code.
	// svc is nil unless NeedsAuth returns true. args holds the positional
	// arguments left after flag parsing.
	Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int
}
