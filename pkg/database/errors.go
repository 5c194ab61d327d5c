package database

import (
	"errors"
	"fmt"
)

// ErrStorage is matched by every StorageError via errors.Is.
var ErrStorage = errors.New("storage error")

// StorageError wraps a failure from a storage backend (SQL, redis, bbolt).
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// Wrap returns nil for a nil err, otherwise a *StorageError for op.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}
