package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/clipstream/backend/internal/models"
	"gorm.io/gorm"
)

// GormLog stores upload events in the upload_events table. It is the
// production log: multiple server instances share it through the
// database, and WithKeyLock serializes them with a transaction-scoped
// advisory lock keyed on (user, community).
type GormLog struct {
	db *gorm.DB
}

// NewGormLog creates a log over the given gorm handle
func NewGormLog(db *gorm.DB) *GormLog {
	return &GormLog{db: db}
}

// Append inserts one upload event row
func (g *GormLog) Append(ctx context.Context, userID, communityID string, occurredAt time.Time) error {
	event := models.UploadEvent{
		UserID:      userID,
		CommunityID: communityID,
		OccurredAt:  occurredAt,
	}
	if err := g.db.WithContext(ctx).Create(&event).Error; err != nil {
		return &StorageError{Op: "append", Err: err}
	}
	return nil
}

// CountSince counts rows for the key with occurred_at >= since,
// served by the (user_id, community_id, occurred_at) index
func (g *GormLog) CountSince(ctx context.Context, userID, communityID string, since time.Time) (int, error) {
	var count int64
	err := g.db.WithContext(ctx).
		Model(&models.UploadEvent{}).
		Where("user_id = ? AND community_id = ? AND occurred_at >= ?", userID, communityID, since).
		Count(&count).Error
	if err != nil {
		return 0, &StorageError{Op: "count", Err: err}
	}
	return int(count), nil
}

// OldestSince returns the earliest occurred_at still inside the window
func (g *GormLog) OldestSince(ctx context.Context, userID, communityID string, since time.Time) (*time.Time, error) {
	var event models.UploadEvent
	err := g.db.WithContext(ctx).
		Where("user_id = ? AND community_id = ? AND occurred_at >= ?", userID, communityID, since).
		Order("occurred_at ASC").
		First(&event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, &StorageError{Op: "oldest", Err: err}
	}
	t := event.OccurredAt
	return &t, nil
}

// WithKeyLock runs fn inside a transaction holding an advisory lock
// for the key, so check-then-append behaves as if serialized across
// every instance sharing this database. On non-Postgres dialects
// (sqlite in tests) the transaction runs without the advisory lock
// and the limiter's in-process key mutex is the serialization point.
func (g *GormLog) WithKeyLock(ctx context.Context, userID, communityID string, fn func(UploadLog) error) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tx.Dialector.Name() == "postgres" {
			if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", userID+":"+communityID).Error; err != nil {
				return &StorageError{Op: "lock", Err: err}
			}
		}
		return fn(&GormLog{db: tx})
	})
}

// RemoveLatest deletes the newest event for the key. Only the
// release-on-failure policy calls this.
func (g *GormLog) RemoveLatest(ctx context.Context, userID, communityID string) error {
	err := g.db.WithContext(ctx).Exec(
		"DELETE FROM upload_events WHERE id = (SELECT id FROM upload_events WHERE user_id = ? AND community_id = ? ORDER BY occurred_at DESC LIMIT 1)",
		userID, communityID,
	).Error
	if err != nil {
		return &StorageError{Op: "remove", Err: err}
	}
	return nil
}

var (
	_ UploadLog = (*GormLog)(nil)
	_ KeyLocker = (*GormLog)(nil)
	_ Remover   = (*GormLog)(nil)
)
