package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"scrappickup/internal/domain/entities"
)

type storedLocation struct {
	location  entities.LiveLocation
	expiresAt time.Time
}

// LocationRepository is an in-process LocationStore used when no Redis is
// configured and in tests. It keeps the same two views the Redis store does:
// latest position per order and latest position per user, both expiring
// after the configured TTL.
type LocationRepository struct {
	mu      sync.RWMutex
	ttl     time.Duration
	byOrder map[int64]*storedLocation
	byUser  map[string]*storedLocation
	now     func() time.Time
}

func NewLocationRepository(ttl time.Duration) *LocationRepository {
	return &LocationRepository{
		ttl:     ttl,
		byOrder: make(map[int64]*storedLocation),
		byUser:  make(map[string]*storedLocation),
		now:     time.Now,
	}
}

func userKey(userID int64, userType entities.UserType) string {
	return fmt.Sprintf("%d:%s", userID, userType)
}

// SaveLiveLocation overwrites both views and refreshes their expiry.
func (r *LocationRepository) SaveLiveLocation(ctx context.Context, loc *entities.LiveLocation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry := &storedLocation{location: *loc, expiresAt: r.now().Add(r.ttl)}
	r.byOrder[loc.OrderID] = entry
	r.byUser[userKey(loc.UserID, loc.UserType)] = entry
	return nil
}

func (r *LocationRepository) GetOrderLocation(ctx context.Context, orderID int64) (*entities.LiveLocation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.live(r.byOrder[orderID]), nil
}

func (r *LocationRepository) GetUserLocation(ctx context.Context, userID int64, userType entities.UserType) (*entities.LiveLocation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.live(r.byUser[userKey(userID, userType)]), nil
}

// live returns a copy of the entry, or nil if it is missing or expired.
// Expired entries are left for the next write to replace.
func (r *LocationRepository) live(entry *storedLocation) *entities.LiveLocation {
	if entry == nil || !r.now().Before(entry.expiresAt) {
		return nil
	}
	loc := entry.location
	return &loc
}
