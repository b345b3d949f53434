package service

import "errors"

var (
	// ErrListNotFound is returned when no list matches a name.
	ErrListNotFound = errors.New("list not found")

	// ErrAmbiguousList is returned when several lists match a name.
	ErrAmbiguousList = errors.New("ambiguous list name")
)
