// Package service defines the backend-agnostic interface for task operations.
package service

import "context"

// Service defines the interface for task backend operations.
// Commands and the interactive session never import a provider SDK directly.
type Service interface {
	// ListLists returns all task lists in API order.
	ListLists(ctx context.Context) ([]TaskList, error)

	// ListTasks returns the tasks of a list in API order.
	ListTasks(ctx context.Context, listID string) ([]Task, error)

	// CreateTask creates a new task with the given title.
	CreateTask(ctx context.Context, listID, title string) error
}
