package ratelimit

import (
	"errors"
	"fmt"
)

// StorageError means the upload log could not be read or written.
// It is a retryable infrastructure fault and is never interpreted as
// "allowed" or "denied" by callers.
type StorageError struct {
	Op  string // "append", "count", "oldest", "lock", "remove"
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("upload log %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsStorageError reports whether err is (or wraps) a StorageError
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

// ErrReleaseUnsupported is returned by ReleaseLatest when the policy
// is disabled or the backing log cannot remove events.
var ErrReleaseUnsupported = errors.New("release-on-failure is not enabled for this limiter")
