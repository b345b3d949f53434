// Package service defines the backend-agnostic interface for task operations.
package service

import (
	"fmt"
	"strings"
)

// Task represents a single task item.
type Task struct {
	ID     string
	Title  string
	Status string
}

// TaskList represents a task list.
type TaskList struct {
	ID    string
	Title string
}

// ByName maps display names to list IDs. When two lists share a name the
// later one wins.
func ByName(lists []TaskList) map[string]string {
	m := make(map[string]string, len(lists))
	for _, l := range lists {
		m[l.Title] = l.ID
	}
	return m
}

// Unique collapses lists with the same display name. Each name keeps the
// position of its first occurrence and the ID of its last.
func Unique(lists []TaskList) []TaskList {
	index := make(map[string]int, len(lists))
	var result []TaskList
	for _, l := range lists {
		if i, ok := index[l.Title]; ok {
			result[i].ID = l.ID
			continue
		}
		index[l.Title] = len(result)
		result = append(result, l)
	}
	return result
}

// ResolveList finds a list by name (case-insensitive, trimmed).
// Returns ErrListNotFound or ErrAmbiguousList when no single list matches.
func ResolveList(lists []TaskList, name string) (TaskList, error) {
	name = strings.TrimSpace(name)
	nameLower := strings.ToLower(name)

	var matches []TaskList
	for _, list := range lists {
		if strings.ToLower(strings.TrimSpace(list.Title)) == nameLower {
			matches = append(matches, list)
		}
	}

	switch len(matches) {
	case 0:
		return TaskList{}, fmt.Errorf("%w: %s", ErrListNotFound, name)
	case 1:
		return matches[0], nil
	default:
		return TaskList{}, fmt.Errorf("%w: %s", ErrAmbiguousList, name)
	}
}
