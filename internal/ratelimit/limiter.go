package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"
)

const (
	// DefaultQuota is the fixed number of admitted uploads per window
	// per (user, community) pair.
	DefaultQuota = 2

	// DefaultWindow is the trailing window duration. An event exactly
	// DefaultWindow old still counts; one millisecond older does not.
	DefaultWindow = 24 * time.Hour
)

// Config holds limiter configuration
type Config struct {
	Quota  int
	Window time.Duration

	// ReleaseOnFailure controls whether a consumed slot can be given
	// back when the downstream upload fails. Product default is that
	// the attempt consumes the slot, so this is off unless the
	// operator turns it on.
	ReleaseOnFailure bool
}

// DefaultConfig returns the production policy: 2 uploads per rolling
// 24 hours per community, attempts consume their slot.
func DefaultConfig() Config {
	return Config{Quota: DefaultQuota, Window: DefaultWindow}
}

// Decision is the outcome of one admission check. CurrentCount is the
// count observed before this call's own append: when Allowed is true
// the recorded event was the CurrentCount+1-th in the window.
type Decision struct {
	Allowed      bool       `json:"allowed"`
	CurrentCount int        `json:"current_count"`
	Quota        int        `json:"quota"`
	// RetryNotBefore is when the oldest counted event leaves the
	// window. Only set on denial; nil when the log had nothing to
	// report.
	RetryNotBefore *time.Time `json:"retry_not_before,omitempty"`
}

// Limiter enforces the upload quota against an injected UploadLog.
//
// Serialization is scoped to the (user, community) key, never global:
// a per-key mutex covers concurrent callers inside this process, and
// logs that implement KeyLocker or ConditionalAppender extend that
// guarantee across processes sharing one store.
type Limiter struct {
	log UploadLog
	cfg Config
	now func() time.Time

	mu   sync.Mutex
	keys map[string]*sync.Mutex
}

// NewLimiter creates a limiter over the given log
func NewLimiter(log UploadLog, cfg Config) (*Limiter, error) {
	if log == nil {
		return nil, fmt.Errorf("upload log is required")
	}
	if cfg.Quota <= 0 {
		return nil, fmt.Errorf("quota must be positive, got %d", cfg.Quota)
	}
	if cfg.Window <= 0 {
		return nil, fmt.Errorf("window must be positive, got %s", cfg.Window)
	}

	return &Limiter{
		log:  log,
		cfg:  cfg,
		now:  time.Now,
		keys: make(map[string]*sync.Mutex),
	}, nil
}

// SetClock overrides the time source. Tests use this to move a fake
// clock through the window.
func (l *Limiter) SetClock(now func() time.Time) {
	l.now = now
}

// Config returns the limiter's configuration
func (l *Limiter) Config() Config {
	return l.cfg
}

// CheckAndRecord decides whether an upload by userID into communityID
// is admissible right now and, if so, records it. The decision and
// the append happen under one serialization point for the key, so two
// concurrent calls cannot both consume the last slot.
//
// "now" is sampled exactly once and used for both the window bound
// and the recorded event.
func (l *Limiter) CheckAndRecord(ctx context.Context, userID, communityID string) (Decision, error) {
	if userID == "" || communityID == "" {
		return Decision{}, fmt.Errorf("user and community identifiers are required")
	}

	now := l.now().UTC()
	since := now.Add(-l.cfg.Window)

	// Atomic conditional insert, when the store supports it. The
	// store performs check-and-append server-side, so no lock is
	// needed at all.
	if ca, ok := l.log.(ConditionalAppender); ok {
		allowed, count, err := ca.TryAppend(ctx, userID, communityID, now, since, l.cfg.Quota)
		if err != nil {
			return Decision{}, err
		}
		d := Decision{Allowed: allowed, CurrentCount: count, Quota: l.cfg.Quota}
		if !d.Allowed {
			if err := l.attachRetry(ctx, l.log, &d, userID, communityID, since); err != nil {
				return Decision{}, err
			}
		}
		return d, nil
	}

	// Otherwise serialize check-then-append ourselves. The in-process
	// key mutex is always taken; a store-level key lock is layered on
	// top when available so instances sharing one store stay safe.
	unlock := l.lockKey(userID, communityID)
	defer unlock()

	if kl, ok := l.log.(KeyLocker); ok {
		var d Decision
		err := kl.WithKeyLock(ctx, userID, communityID, func(log UploadLog) error {
			var innerErr error
			d, innerErr = l.checkAndAppend(ctx, log, userID, communityID, now, since)
			return innerErr
		})
		if err != nil {
			return Decision{}, err
		}
		return d, nil
	}

	return l.checkAndAppend(ctx, l.log, userID, communityID, now, since)
}

// checkAndAppend runs the evaluate-decide-record sequence against the
// given log. Callers must hold the serialization point for the key.
func (l *Limiter) checkAndAppend(ctx context.Context, log UploadLog, userID, communityID string, now, since time.Time) (Decision, error) {
	count, err := log.CountSince(ctx, userID, communityID, since)
	if err != nil {
		return Decision{}, err
	}

	d := Decision{
		Allowed:      count < l.cfg.Quota,
		CurrentCount: count,
		Quota:        l.cfg.Quota,
	}

	if !d.Allowed {
		if err := l.attachRetry(ctx, log, &d, userID, communityID, since); err != nil {
			return Decision{}, err
		}
		return d, nil
	}

	// Append before releasing the serialization point. If the write
	// fails the caller sees the error, never a spurious "allowed".
	if err := log.Append(ctx, userID, communityID, now); err != nil {
		return Decision{}, err
	}

	return d, nil
}

// attachRetry derives RetryNotBefore from the oldest counted event
func (l *Limiter) attachRetry(ctx context.Context, log UploadLog, d *Decision, userID, communityID string, since time.Time) error {
	oldest, err := log.OldestSince(ctx, userID, communityID, since)
	if err != nil {
		return err
	}
	if oldest != nil {
		t := oldest.Add(l.cfg.Window)
		d.RetryNotBefore = &t
	}
	return nil
}

// ReleaseLatest gives back the most recently consumed slot for the
// key. Only available when Config.ReleaseOnFailure is set and the log
// supports removal; everything else gets ErrReleaseUnsupported.
func (l *Limiter) ReleaseLatest(ctx context.Context, userID, communityID string) error {
	if !l.cfg.ReleaseOnFailure {
		return ErrReleaseUnsupported
	}
	rem, ok := l.log.(Remover)
	if !ok {
		return ErrReleaseUnsupported
	}

	unlock := l.lockKey(userID, communityID)
	defer unlock()

	return rem.RemoveLatest(ctx, userID, communityID)
}

// lockKey acquires the in-process mutex for one (user, community)
// pair and returns its unlock func. Distinct keys never contend.
func (l *Limiter) lockKey(userID, communityID string) func() {
	k := userID + "\x00" + communityID

	l.mu.Lock()
	m, ok := l.keys[k]
	if !ok {
		m = &sync.Mutex{}
		l.keys[k] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
