package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"scrappickup/internal/domain/entities"
)

// LocationStore implements repository.LocationStore on Redis. Each write
// sets both the order key and the user key with the same TTL; stopping a
// tracking session never deletes them, they simply expire.
type LocationStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewLocationStore(rdb *redis.Client, ttl time.Duration) *LocationStore {
	if ttl <= 0 {
		ttl = TTLLiveLocation
	}
	return &LocationStore{rdb: rdb, ttl: ttl}
}

func (s *LocationStore) SaveLiveLocation(ctx context.Context, loc *entities.LiveLocation) error {
	payload, err := json.Marshal(loc)
	if err != nil {
		return fmt.Errorf("encode live location: %w", err)
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, OrderLocationKey(loc.OrderID), payload, s.ttl)
		pipe.Set(ctx, UserLocationKey(loc.UserID, loc.UserType), payload, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis set live location: %w", err)
	}
	return nil
}

func (s *LocationStore) GetOrderLocation(ctx context.Context, orderID int64) (*entities.LiveLocation, error) {
	return s.get(ctx, OrderLocationKey(orderID))
}

func (s *LocationStore) GetUserLocation(ctx context.Context, userID int64, userType entities.UserType) (*entities.LiveLocation, error) {
	return s.get(ctx, UserLocationKey(userID, userType))
}

// GetLocationByOrder lets the store act as the reconciler's poll source.
func (s *LocationStore) GetLocationByOrder(ctx context.Context, orderID int64) (*entities.LiveLocation, error) {
	return s.GetOrderLocation(ctx, orderID)
}

func (s *LocationStore) get(ctx context.Context, key string) (*entities.LiveLocation, error) {
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}

	var loc entities.LiveLocation
	if err := json.Unmarshal(raw, &loc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return &loc, nil
}
