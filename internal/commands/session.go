package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"todocli/internal/config"
	"todocli/internal/exitcode"
	"todocli/internal/service"
	"todocli/internal/session"
)

func init() {
	Register(&SessionCmd{})
	DefaultRegistry.SetDefault("session")
}

// SessionCmd runs the interactive list browser.
// It is dispatched when todocli is started without a command.
type SessionCmd struct {
	// In supplies answers to the prompts. Nil means os.Stdin.
	In io.Reader
}

func (c *SessionCmd) Name() string      { return "session" }
func (c *SessionCmd) Aliases() []string { return nil }
func (c *SessionCmd) Synopsis() string  { return "Browse lists and add a task interactively" }
func (c *SessionCmd) Usage() string     { return "todocli [session]" }
func (c *SessionCmd) NeedsAuth() bool   { return true }

func (c *SessionCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *SessionCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	in := c.In
	if in == nil {
		in = os.Stdin
	}

	if err := session.New(svc, in, out).Run(ctx); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	return exitcode.Success
}
