package store

import "fmt"

// NotFoundError reports a missing row. Entity names the table's domain type
// and Key the lookup value, so callers can surface "item 9 not found".
type NotFoundError struct {
	Entity string
	Key    any
}

func (e *NotFoundError) Error() string {
	if e.Entity == "" {
		return "not found"
	}
	return fmt.Sprintf("%s %v not found", e.Entity, e.Key)
}

// Is makes every *NotFoundError match ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)
	return ok
}

// ErrNotFound is the sentinel for errors.Is checks.
var ErrNotFound error = &NotFoundError{}

// NotFound returns a NotFoundError for entity keyed by key.
func NotFound(entity string, key any) error {
	return &NotFoundError{Entity: entity, Key: key}
}
