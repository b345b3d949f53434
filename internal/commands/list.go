package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"todocli/internal/config"
	"todocli/internal/exitcode"
	"todocli/internal/output"
	"todocli/internal/service"
)

func init() {
	Register(&ListCmd{})
}

// ListCmd implements the list command.
// Without arguments it prints every list with its tasks.
type ListCmd struct{}

func (c *ListCmd) Name() string      { return "list" }
func (c *ListCmd) Aliases() []string { return []string{"ls"} }
func (c *ListCmd) Synopsis() string  { return "List tasks" }
func (c *ListCmd) Usage() string     { return "todocli list [<list-name>]" }
func (c *ListCmd) NeedsAuth() bool   { return true }

func (c *ListCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ListCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	lists, err := svc.ListLists(ctx)
	if err != nil {
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	}

	if len(args) == 0 {
		return c.listAll(ctx, cfg, svc, lists, out, errOut)
	}

	listName := strings.Join(args, " ")
	if strings.TrimSpace(listName) == "" {
		fmt.Fprintln(errOut, "error: list name required")
		return exitcode.UserError
	}
	list, code := resolveList(lists, listName, errOut)
	if code != exitcode.Success {
		return code
	}
	return c.listOne(ctx, svc, list, out, errOut)
}

// listAll prints every list that has tasks.
func (c *ListCmd) listAll(ctx context.Context, cfg *config.Config, svc service.Service, lists []service.TaskList, out, errOut io.Writer) int {
	hasAnyTasks := false
	for _, list := range lists {
		tasks, err := svc.ListTasks(ctx, list.ID)
		if err != nil {
			// Partial failure: keep what was printed, then error
			fmt.Fprintf(errOut, "error: failed to fetch list: %s: %v\n", list.Title, err)
			return exitcode.BackendError
		}
		if len(tasks) == 0 {
			continue
		}

		output.FormatListHeader(out, list.Title)
		for i, task := range tasks {
			output.FormatTask(out, i+1, task)
		}
		hasAnyTasks = true
	}

	if !hasAnyTasks && !cfg.Quiet {
		fmt.Fprintln(out, "no tasks found")
	}
	return exitcode.Success
}

// listOne prints a single list section, even if empty.
func (c *ListCmd) listOne(ctx context.Context, svc service.Service, list service.TaskList, out, errOut io.Writer) int {
	tasks, err := svc.ListTasks(ctx, list.ID)
	if err != nil {
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	}

	output.FormatListHeader(out, list.Title)
	for i, task := range tasks {
		output.FormatTask(out, i+1, task)
	}
	return exitcode.Success
}

// resolveList maps a list name to a list, reporting user errors on errOut.
func resolveList(lists []service.TaskList, name string, errOut io.Writer) (service.TaskList, int) {
	list, err := service.ResolveList(lists, name)
	switch {
	case err == nil:
		return list, exitcode.Success
	case errors.Is(err, service.ErrListNotFound), errors.Is(err, service.ErrAmbiguousList):
		fmt.Fprintf(errOut, "error: %v\n", err)
		return service.TaskList{}, exitcode.UserError
	default:
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return service.TaskList{}, exitcode.BackendError
	}
}
