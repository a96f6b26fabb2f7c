package memory

import (
	"context"
	"sync"
	"time"
)

// lockEntry is a held guard with an expiry. The expiry frees guards whose
// holder never released them, e.g. a request goroutine that panicked past
// its deferred release.
type lockEntry struct {
	expiresAt time.Time
}

// LockManager is the in-flight guard for pickup actions. Each action on each
// entity gets its own key ("action:start:order:42"), so a double-tapped
// start is rejected while an arrive on a different order proceeds.
//
// Go Learning Note — Channels for Signaling:
// The `stop` field is a `chan struct{}` used purely for signaling. Closing
// it wakes every receiver at once, which is how Stop() ends the sweeper
// goroutine. stopOnce makes Stop safe to call more than once; closing an
// already-closed channel panics.
type LockManager struct {
	mu       sync.Mutex
	locks    map[string]*lockEntry
	stop     chan struct{}
	stopOnce sync.Once
}

// NewLockManager creates a LockManager and starts a background goroutine
// that sweeps expired guards every sweepInterval.
func NewLockManager(sweepInterval time.Duration) *LockManager {
	lm := &LockManager{
		locks: make(map[string]*lockEntry),
		stop:  make(chan struct{}),
	}
	go lm.cleanupExpiredLocks(sweepInterval)
	return lm
}

// AcquireLock returns (true, nil) if the guard was free (or expired) and is
// now held, and (false, nil) if another caller holds it.
func (lm *LockManager) AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	lm.mu.Lock()
	defer lm.mu.Unlock()

	now := time.Now()
	if entry, exists := lm.locks[key]; exists && now.Before(entry.expiresAt) {
		return false, nil
	}

	lm.locks[key] = &lockEntry{expiresAt: now.Add(ttl)}
	return true, nil
}

func (lm *LockManager) ReleaseLock(ctx context.Context, key string) error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	delete(lm.locks, key)
	return nil
}

// cleanupExpiredLocks periodically removes guards past their TTL.
//
// Go Learning Note — select Statement:
// select blocks until one of its cases can proceed. Here it waits for either
// the ticker (sweep) or the stop signal (exit), the idiomatic shape of a
// cancellable periodic task.
func (lm *LockManager) cleanupExpiredLocks(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			lm.mu.Lock()
			now := time.Now()
			for key, entry := range lm.locks {
				if now.After(entry.expiresAt) {
					delete(lm.locks, key)
				}
			}
			lm.mu.Unlock()
		case <-lm.stop:
			return
		}
	}
}

// Stop ends the sweeper goroutine.
func (lm *LockManager) Stop() {
	lm.stopOnce.Do(func() { close(lm.stop) })
}
