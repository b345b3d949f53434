// Package session runs the interactive console flow: pick a list, show its
// tasks and optionally append one.
package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"todocli/internal/output"
	"todocli/internal/service"
)

// Console prompts and messages.
const (
	PromptSelectList = "Enter the number of the list to view tasks: "
	PromptAddTask    = "Do you want to add a new task to this list? (yes/no): "
	PromptTaskTitle  = "Enter the task title: "

	MsgNoLists          = "No To-Do lists found."
	MsgInvalidSelection = "Invalid selection."
	MsgNoTasks          = "No tasks found in this list."
	MsgTitleRequired    = "Task title required."
)

// Session drives one interactive run against a task service.
type Session struct {
	svc service.Service
	in  *bufio.Reader
	out io.Writer
}

// New creates a session reading answers from in and writing to out.
func New(svc service.Service, in io.Reader, out io.Writer) *Session {
	return &Session{
		svc: svc,
		in:  bufio.NewReader(in),
		out: out,
	}
}

// Run executes the prompt sequence once. Backend failures and invalid
// answers are reported on the console and end the run without an error;
// only failures to read the console are returned.
func (s *Session) Run(ctx context.Context) error {
	lists, err := s.svc.ListLists(ctx)
	if err != nil {
		fmt.Fprintf(s.out, "Failed to fetch lists: %v\n", err)
	}
	lists = service.Unique(lists)
	if len(lists) == 0 {
		fmt.Fprintln(s.out, MsgNoLists)
		return nil
	}

	fmt.Fprintln(s.out, "\nAvailable To-Do Lists:")
	for i, list := range lists {
		output.FormatMenuItem(s.out, i+1, list)
	}

	answer, err := s.prompt("\n" + PromptSelectList)
	if err != nil {
		return err
	}
	list, ok := pick(lists, answer)
	if !ok {
		fmt.Fprintln(s.out, MsgInvalidSelection)
		return nil
	}

	fmt.Fprintf(s.out, "\nFetching tasks from '%s'...\n\n", list.Title)
	tasks, err := s.svc.ListTasks(ctx, list.ID)
	if err != nil {
		fmt.Fprintf(s.out, "Failed to fetch tasks: %v\n", err)
	}
	if len(tasks) > 0 {
		fmt.Fprintln(s.out, "Tasks in this list:")
		for _, task := range tasks {
			output.FormatTaskBullet(s.out, task)
		}
	} else {
		fmt.Fprintln(s.out, MsgNoTasks)
	}

	answer, err = s.prompt("\n" + PromptAddTask)
	if err != nil {
		return err
	}
	if strings.ToLower(strings.TrimSpace(answer)) != "yes" {
		return nil
	}

	title, err := s.prompt(PromptTaskTitle)
	if err != nil {
		return err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		fmt.Fprintln(s.out, MsgTitleRequired)
		return nil
	}

	if err := s.svc.CreateTask(ctx, list.ID, title); err != nil {
		fmt.Fprintf(s.out, "\nFailed to add task: %v\n", err)
		return nil
	}
	fmt.Fprintf(s.out, "\nTask '%s' added successfully!\n", title)
	return nil
}

// prompt writes text and reads one line. End of input yields what was read
// so far, possibly an empty answer.
func (s *Session) prompt(text string) (string, error) {
	fmt.Fprint(s.out, text)
	line, err := s.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// pick resolves a 1-based menu number.
func pick(lists []service.TaskList, answer string) (service.TaskList, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(answer))
	if err != nil || n < 1 || n > len(lists) {
		return service.TaskList{}, false
	}
	return lists[n-1], true
}
