package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"todocli/internal/auth"
	"todocli/internal/config"
	"todocli/internal/exitcode"
	"todocli/internal/service"
)

func init() {
	Register(&LoginCmd{})
}

// ManagerFactory builds the token manager for a config.
type ManagerFactory func(cfg *config.Config, out io.Writer) (*auth.Manager, error)

// LoginCmd implements the login command.
type LoginCmd struct {
	force bool

	// NewManager overrides auth.NewFromConfig (for testing).
	NewManager ManagerFactory
}

// SetForce sets the force flag (for testing).
func (c *LoginCmd) SetForce(force bool) {
	c.force = force
}

func (c *LoginCmd) Name() string      { return "login" }
func (c *LoginCmd) Aliases() []string { return nil }
func (c *LoginCmd) Synopsis() string  { return "Authenticate with the task provider" }
func (c *LoginCmd) Usage() string     { return "todocli login [--force]" }
func (c *LoginCmd) NeedsAuth() bool   { return false }

func (c *LoginCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.force, "force", false, "")
}

func (c *LoginCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	newManager := c.NewManager
	if newManager == nil {
		newManager = auth.NewFromConfig
	}

	manager, err := newManager(cfg, errOut)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		if errors.Is(err, auth.ErrAuth) {
			printCredentialHelp(errOut, cfg)
		}
		return exitcode.AuthError
	}

	// A token that still refreshes needs no new login
	if !c.force {
		if _, err := manager.Cached(ctx); err == nil {
			if !cfg.Quiet {
				fmt.Fprintln(out, "already logged in")
			}
			return exitcode.Success
		}
	}

	if _, err := manager.Login(ctx); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.AuthError
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

func printCredentialHelp(w io.Writer, cfg *config.Config) {
	fmt.Fprintln(w, "")
	if cfg.Provider == config.ProviderGoogle {
		fmt.Fprintln(w, "Save a Google 'Desktop app' OAuth client as:")
		fmt.Fprintf(w, "   %s\n", cfg.OAuthClientPath())
		fmt.Fprintf(w, "or set %s and %s.\n", config.EnvClientID, config.EnvClientSecret)
		return
	}
	fmt.Fprintln(w, "To authenticate with Microsoft To Do, register an app at")
	fmt.Fprintln(w, "https://entra.microsoft.com (App registrations) with:")
	fmt.Fprintln(w, "   - supported accounts: personal Microsoft accounts")
	fmt.Fprintf(w, "   - redirect URI (Web): http://localhost:%d\n", cfg.Port)
	fmt.Fprintln(w, "   - delegated permission: Tasks.ReadWrite")
	fmt.Fprintf(w, "Then set %s and %s in the environment or in a .env file.\n", config.EnvClientID, config.EnvClientSecret)
}
