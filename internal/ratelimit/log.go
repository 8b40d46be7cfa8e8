// Package ratelimit decides whether a new upload is admissible for a
// (user, community) pair and records admitted uploads, enforcing a
// fixed quota per rolling 24-hour window. It is storage-agnostic: the
// limiter is parameterized over an UploadLog, so the Postgres, Redis
// and in-memory backends all share one implementation of the rules.
package ratelimit

import (
	"context"
	"time"
)

// UploadLog is the append-only record of admitted upload attempts.
//
// Implementations must provide read-your-writes within the same
// backend: CountSince reflects every previously committed Append.
// There is no update or delete in normal operation; events simply age
// past the window and stop counting.
type UploadLog interface {
	// Append inserts a new event. It must never silently fail:
	// storage failures come back as a *StorageError.
	Append(ctx context.Context, userID, communityID string, occurredAt time.Time) error

	// CountSince returns the number of events for the key with
	// occurredAt >= since. The lower bound is inclusive: an event
	// exactly at since still counts.
	CountSince(ctx context.Context, userID, communityID string, since time.Time) (int, error)

	// OldestSince returns the occurrence time of the oldest event
	// still inside the window, or nil when there is none. Used to
	// derive Decision.RetryNotBefore.
	OldestSince(ctx context.Context, userID, communityID string, since time.Time) (*time.Time, error)
}

// ConditionalAppender is implemented by logs that can collapse the
// count check and the append into one atomic storage operation
// (the Redis log does this with a server-side script). When a log
// implements it, the limiter uses it instead of lock-then-append.
type ConditionalAppender interface {
	// TryAppend appends an event at occurredAt only if the count of
	// events with occurredAt >= since is below quota. It returns
	// whether the append happened and the pre-append count.
	TryAppend(ctx context.Context, userID, communityID string, occurredAt, since time.Time, quota int) (allowed bool, count int, err error)
}

// KeyLocker is implemented by logs that can serialize the
// check-then-append sequence for one (user, community) key across
// processes (the Postgres log takes a transaction-scoped advisory
// lock). fn runs with exclusive access to the key and sees a log
// bound to the same transaction.
type KeyLocker interface {
	WithKeyLock(ctx context.Context, userID, communityID string, fn func(UploadLog) error) error
}

// Remover is implemented by logs that support the optional
// release-on-failure policy (Config.ReleaseOnFailure). It is never
// used in normal operation.
type Remover interface {
	// RemoveLatest deletes the most recent event for the key.
	RemoveLatest(ctx context.Context, userID, communityID string) error
}
