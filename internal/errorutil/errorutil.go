package errorutil

import "errors"

// ErrDataIntegrity is a base error type to use for failures that are due to
// unrecoverable data integrity issues.
var ErrDataIntegrity = errors.New("data integrity error")

// ErrNotFound represents lookups of entities that were never registered.
var ErrNotFound = errors.New("not found")
