// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"

	"todocli/internal/service"
)

const (
	// ListSeparator is the separator line for list sections.
	ListSeparator = "------------"
)

// FormatMenuItem formats a numbered list entry of the interactive menu.
// Format: "{N}. {NAME}\n"
func FormatMenuItem(w io.Writer, num int, list service.TaskList) {
	fmt.Fprintf(w, "%d. %s\n", num, normalizeListTitle(list.Title))
}

// FormatTaskBullet formats a task line of the interactive session.
// Format: "- {TITLE}\n"
func FormatTaskBullet(w io.Writer, task service.Task) {
	fmt.Fprintf(w, "- %s\n", normalizeTitle(task.Title))
}

// FormatTask formats a numbered task line.
// Format: "{N:>4}  {TITLE}\n" (4-wide right-aligned number, two spaces, title)
func FormatTask(w io.Writer, num int, task service.Task) {
	fmt.Fprintf(w, "%4d  %s\n", num, normalizeTitle(task.Title))
}

// FormatListHeader formats a list section header.
func FormatListHeader(w io.Writer, title string) {
	fmt.Fprintln(w, ListSeparator)
	fmt.Fprintln(w, normalizeListTitle(title))
	fmt.Fprintln(w, ListSeparator)
}

// FormatListName formats a list name for the lists command.
func FormatListName(w io.Writer, list service.TaskList) {
	fmt.Fprintln(w, normalizeListTitle(list.Title))
}

// normalizeTitle normalizes a task title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")

	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}

// normalizeListTitle normalizes a list title for display.
// Empty or whitespace-only titles become "(untitled)".
func normalizeListTitle(title string) string {
	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}
