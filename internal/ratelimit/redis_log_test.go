package ratelimit

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/clipstream/backend/internal/cache"
	"github.com/clipstream/backend/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// RedisLogTestSuite exercises the Redis-backed log against a real
// Redis instance. Skipped when Redis is not reachable.
type RedisLogTestSuite struct {
	suite.Suite
	client *cache.RedisClient
	log    *RedisLog
}

func (s *RedisLogTestSuite) SetupSuite() {
	_ = logger.Initialize("error", "test.log")

	host := os.Getenv("REDIS_HOST")
	if host == "" {
		host = "localhost"
	}

	client, err := cache.NewRedisClient(host, os.Getenv("REDIS_PORT"), os.Getenv("REDIS_PASSWORD"))
	if err != nil {
		s.T().Skipf("Skipping Redis log tests: Redis not available (%v)", err)
		return
	}
	s.client = client
	s.log = NewRedisLog(client)
}

func (s *RedisLogTestSuite) TearDownSuite() {
	if s.client != nil {
		s.client.Close()
	}
}

// testKey returns unique identifiers per test so runs don't collide
func (s *RedisLogTestSuite) testKey(name string) (string, string) {
	n := time.Now().UnixNano()
	return fmt.Sprintf("test-user-%s-%d", name, n), fmt.Sprintf("test-community-%s-%d", name, n)
}

func (s *RedisLogTestSuite) TestTryAppendEnforcesQuota() {
	t := s.T()
	ctx := context.Background()
	userID, communityID := s.testKey("quota")
	now := time.Now().UTC()
	since := now.Add(-24 * time.Hour)

	allowed, count, err := s.log.TryAppend(ctx, userID, communityID, now, since, 2)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 0, count)

	allowed, count, err = s.log.TryAppend(ctx, userID, communityID, now, since, 2)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 1, count)

	allowed, count, err = s.log.TryAppend(ctx, userID, communityID, now, since, 2)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, 2, count)

	// Denied attempts must not have appended anything
	stored, err := s.log.CountSince(ctx, userID, communityID, since)
	require.NoError(t, err)
	assert.Equal(t, 2, stored)
}

func (s *RedisLogTestSuite) TestCountSinceBoundary() {
	t := s.T()
	ctx := context.Background()
	userID, communityID := s.testKey("boundary")
	at := time.Now().UTC().Truncate(time.Millisecond)

	require.NoError(t, s.log.Append(ctx, userID, communityID, at))

	count, err := s.log.CountSince(ctx, userID, communityID, at)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = s.log.CountSince(ctx, userID, communityID, at.Add(time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func (s *RedisLogTestSuite) TestOldestSince() {
	t := s.T()
	ctx := context.Background()
	userID, communityID := s.testKey("oldest")
	base := time.Now().UTC().Truncate(time.Millisecond)

	oldest, err := s.log.OldestSince(ctx, userID, communityID, base.Add(-time.Hour))
	require.NoError(t, err)
	assert.Nil(t, oldest)

	require.NoError(t, s.log.Append(ctx, userID, communityID, base.Add(-30*time.Minute)))
	require.NoError(t, s.log.Append(ctx, userID, communityID, base))

	oldest, err = s.log.OldestSince(ctx, userID, communityID, base.Add(-time.Hour))
	require.NoError(t, err)
	require.NotNil(t, oldest)
	assert.True(t, oldest.Equal(base.Add(-30*time.Minute)))
}

func (s *RedisLogTestSuite) TestRemoveLatest() {
	t := s.T()
	ctx := context.Background()
	userID, communityID := s.testKey("remove")
	base := time.Now().UTC().Truncate(time.Millisecond)

	require.NoError(t, s.log.Append(ctx, userID, communityID, base.Add(-time.Hour)))
	require.NoError(t, s.log.Append(ctx, userID, communityID, base))

	require.NoError(t, s.log.RemoveLatest(ctx, userID, communityID))

	count, err := s.log.CountSince(ctx, userID, communityID, base.Add(-2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	oldest, err := s.log.OldestSince(ctx, userID, communityID, base.Add(-2*time.Hour))
	require.NoError(t, err)
	require.NotNil(t, oldest)
	assert.True(t, oldest.Equal(base.Add(-time.Hour)))
}

func (s *RedisLogTestSuite) TestLimiterOverRedisLog() {
	t := s.T()
	ctx := context.Background()
	userID, communityID := s.testKey("limiter")

	limiter, err := NewLimiter(s.log, DefaultConfig())
	require.NoError(t, err)

	d, err := limiter.CheckAndRecord(ctx, userID, communityID)
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	d, err = limiter.CheckAndRecord(ctx, userID, communityID)
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	d, err = limiter.CheckAndRecord(ctx, userID, communityID)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	require.NotNil(t, d.RetryNotBefore)
	assert.True(t, d.RetryNotBefore.After(time.Now().UTC().Add(23*time.Hour)))
}

func TestRedisLogTestSuite(t *testing.T) {
	suite.Run(t, new(RedisLogTestSuite))
}
