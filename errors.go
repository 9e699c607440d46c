package tablexport

import "errors"

var (
	// ErrComponentNotFound is returned when a target id does not resolve.
	ErrComponentNotFound = errors.New("component not found in view")
	// ErrUnsupportedTarget is returned when a target is neither a table nor a list.
	ErrUnsupportedTarget = errors.New("unsupported export target, must be a table or list")
	// ErrNoSubTable is returned for sub-table exports of a table without sub-tables.
	ErrNoSubTable = errors.New("table has no sub-table")
	// ErrInvalidFormat is returned for format parameters that do not parse.
	ErrInvalidFormat = errors.New("invalid format")
	// ErrEmptyTarget is returned when the target names no id.
	ErrEmptyTarget = errors.New("no export target given")
)
