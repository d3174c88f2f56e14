package services

import (
	"errors"
	"fmt"
)

// ErrEmptySource marks a pass skipped because the remote returned no
// workflows. It is a policy guard, not a failure.
var ErrEmptySource = errors.New("remote workflow source returned no workflows")

// SourceError wraps a failed call to the remote workflow source.
type SourceError struct {
	Op  string
	Err error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("workflow source %s: %v", e.Op, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// StoreError wraps a failed call to the local workflow store.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("workflow store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
