package repository

import (
	"context"
	"time"

	"scrappickup/internal/domain/entities"
)

// LocationStore is the key-value store live device positions are written to
// and read from. Reads return (nil, nil) when nothing is stored.
type LocationStore interface {
	SaveLiveLocation(ctx context.Context, loc *entities.LiveLocation) error
	GetOrderLocation(ctx context.Context, orderID int64) (*entities.LiveLocation, error)
	GetUserLocation(ctx context.Context, userID int64, userType entities.UserType) (*entities.LiveLocation, error)
}

// QueryCache holds fetched API results under hierarchical keys so that a
// successful action can invalidate every dependent list at once.
type QueryCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
	InvalidatePrefix(prefixes ...string) int
}

// LockManager guards an action on an entity against concurrent duplicates.
type LockManager interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key string) error
}
