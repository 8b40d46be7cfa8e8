package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/clipstream/backend/internal/cache"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// tryAppendScript collapses the window count and the conditional
// append into one server-side operation, so concurrent committers
// cannot both read a stale count. Events live in a sorted set scored
// by occurrence time in unix milliseconds; ZCOUNT's inclusive lower
// bound gives the occurredAt >= since window semantics.
var tryAppendScript = redis.NewScript(`
local count = redis.call('ZCOUNT', KEYS[1], ARGV[1], '+inf')
if tonumber(count) < tonumber(ARGV[2]) then
  redis.call('ZADD', KEYS[1], ARGV[3], ARGV[4])
  return {1, count}
end
return {0, count}
`)

// RedisLog stores upload events in a sorted set per (user, community)
// key. Admission is atomic via tryAppendScript, so this log needs no
// external locking even across instances.
type RedisLog struct {
	client *cache.RedisClient
}

// NewRedisLog creates a log over the shared Redis client
func NewRedisLog(client *cache.RedisClient) *RedisLog {
	return &RedisLog{client: client}
}

func redisKey(userID, communityID string) string {
	return fmt.Sprintf("uploads:%s:%s", userID, communityID)
}

// TryAppend implements ConditionalAppender
func (r *RedisLog) TryAppend(ctx context.Context, userID, communityID string, occurredAt, since time.Time, quota int) (bool, int, error) {
	member := fmt.Sprintf("%d-%s", occurredAt.UnixMilli(), uuid.New().String())

	res, err := r.client.RunScript(ctx, tryAppendScript,
		[]string{redisKey(userID, communityID)},
		since.UnixMilli(), quota, occurredAt.UnixMilli(), member,
	)
	if err != nil {
		return false, 0, &StorageError{Op: "append", Err: err}
	}

	vals, ok := res.([]interface{})
	if !ok || len(vals) != 2 {
		return false, 0, &StorageError{Op: "append", Err: fmt.Errorf("unexpected script reply %v", res)}
	}
	allowed, aok := vals[0].(int64)
	count, cok := vals[1].(int64)
	if !aok || !cok {
		return false, 0, &StorageError{Op: "append", Err: fmt.Errorf("unexpected script reply %v", res)}
	}

	return allowed == 1, int(count), nil
}

// Append records an event unconditionally. The limiter only uses
// TryAppend, but the full UploadLog contract stays available.
func (r *RedisLog) Append(ctx context.Context, userID, communityID string, occurredAt time.Time) error {
	member := fmt.Sprintf("%d-%s", occurredAt.UnixMilli(), uuid.New().String())
	if err := r.client.ZAdd(ctx, redisKey(userID, communityID), float64(occurredAt.UnixMilli()), member); err != nil {
		return &StorageError{Op: "append", Err: err}
	}
	return nil
}

// CountSince counts events with score >= since
func (r *RedisLog) CountSince(ctx context.Context, userID, communityID string, since time.Time) (int, error) {
	count, err := r.client.ZCount(ctx, redisKey(userID, communityID), strconv.FormatInt(since.UnixMilli(), 10), "+inf")
	if err != nil {
		return 0, &StorageError{Op: "count", Err: err}
	}
	return int(count), nil
}

// OldestSince returns the oldest event still inside the window
func (r *RedisLog) OldestSince(ctx context.Context, userID, communityID string, since time.Time) (*time.Time, error) {
	entries, err := r.client.ZRangeByScoreWithScores(ctx, redisKey(userID, communityID),
		strconv.FormatInt(since.UnixMilli(), 10), "+inf", 0, 1)
	if err != nil {
		return nil, &StorageError{Op: "oldest", Err: err}
	}
	if len(entries) == 0 {
		return nil, nil
	}
	t := time.UnixMilli(int64(entries[0].Score)).UTC()
	return &t, nil
}

// RemoveLatest pops the newest event for the key. Only the
// release-on-failure policy calls this.
func (r *RedisLog) RemoveLatest(ctx context.Context, userID, communityID string) error {
	if err := r.client.ZPopMax(ctx, redisKey(userID, communityID)); err != nil {
		return &StorageError{Op: "remove", Err: err}
	}
	return nil
}

var (
	_ UploadLog           = (*RedisLog)(nil)
	_ ConditionalAppender = (*RedisLog)(nil)
	_ Remover             = (*RedisLog)(nil)
)
