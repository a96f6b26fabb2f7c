package services

import (
	"context"
	"log"
	"sync"
	"time"

	"scrappickup/internal/domain/entities"
)

// LocationReconciler is the read side of live tracking. It polls a live
// location source per subject and remembers the last coordinate it ever
// obtained, which then replaces the subject's static coordinate in every
// derived view. A failed poll never erases a remembered coordinate.
type LocationReconciler struct {
	source   LiveLocationSource
	interval time.Duration

	mu        sync.RWMutex
	lastKnown map[int64]entities.LiveLocation
}

func NewLocationReconciler(source LiveLocationSource, interval time.Duration) *LocationReconciler {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &LocationReconciler{
		source:    source,
		interval:  interval,
		lastKnown: make(map[int64]entities.LiveLocation),
	}
}

// PollLocation fetches the subject's live position once. It returns nil on
// any failure; callers keep using the last-known or static coordinate.
func (r *LocationReconciler) PollLocation(ctx context.Context, subject int64) *entities.LiveLocation {
	if subject <= 0 {
		return nil
	}
	loc, err := r.source.GetLocationByOrder(ctx, subject)
	if err != nil {
		log.Printf("[RECONCILER] Poll for %d failed: %v", subject, err)
		return nil
	}
	if loc == nil || !loc.IsFinite() {
		return nil
	}

	r.mu.Lock()
	r.lastKnown[subject] = *loc
	r.mu.Unlock()

	out := *loc
	return &out
}

func (r *LocationReconciler) LastKnown(subject int64) *entities.LiveLocation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	loc, ok := r.lastKnown[subject]
	if !ok {
		return nil
	}
	return &loc
}

// Current polls the subject and falls back to the last-known coordinate
// when the poll yields nothing.
func (r *LocationReconciler) Current(ctx context.Context, subject int64) *entities.LiveLocation {
	if live := r.PollLocation(ctx, subject); live != nil {
		return live
	}
	return r.LastKnown(subject)
}

// Resolve picks the coordinate a view should use for the subject: the live
// one once obtained, otherwise the static one (which may be nil).
func (r *LocationReconciler) Resolve(subject int64, static *entities.Location) (entities.Location, bool) {
	if live := r.LastKnown(subject); live != nil {
		return live.Location, true
	}
	if static != nil && static.IsFinite() {
		return *static, true
	}
	return entities.Location{}, false
}

// Forget drops the remembered coordinate for a subject. Called once the
// subject's pickup has ended so the map does not grow without bound.
func (r *LocationReconciler) Forget(subject int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.lastKnown, subject)
}

// Subscription is the handle for a polling loop started by Subscribe.
type Subscription struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Cancel stops the loop and waits for it to exit. Safe to call repeatedly.
func (s *Subscription) Cancel() {
	s.cancel()
	<-s.done
}

// Done is closed once the loop has exited, whether cancelled or disarmed.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Subscribe polls the subject immediately and then every poll interval for
// as long as active reports true. onUpdate, if non-nil, receives each
// successful poll. The loop also ends when ctx is cancelled.
//
// Go Learning Note — Cancellable Tasks:
// Returning a handle that owns the goroutine's cancel func makes teardown
// explicit: the caller decides when the loop dies, and Cancel blocks until
// it has, so no update is delivered after Cancel returns.
func (r *LocationReconciler) Subscribe(ctx context.Context, subject int64, active func() bool, onUpdate func(entities.LiveLocation)) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	sub := &Subscription{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(sub.done)
		defer cancel()

		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			if !active() {
				log.Printf("[RECONCILER] Subject %d no longer tracking-relevant, polling disarmed", subject)
				return
			}
			if loc := r.PollLocation(ctx, subject); loc != nil && onUpdate != nil && ctx.Err() == nil {
				onUpdate(*loc)
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	return sub
}
