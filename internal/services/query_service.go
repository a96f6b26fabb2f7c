package services

import (
	"context"
	"errors"
	"fmt"

	"scrappickup/internal/domain/entities"
	"scrappickup/internal/repository"
)

// QueryService reads order lists and bulk requests through the query cache.
// Values handed out are copies; the cached slices are never mutated in place.
type QueryService struct {
	orders OrderLister
	bulk   BulkAPI
	cache  repository.QueryCache
}

func NewQueryService(orders OrderLister, bulk BulkAPI, cache repository.QueryCache) *QueryService {
	return &QueryService{orders: orders, bulk: bulk, cache: cache}
}

func (q *QueryService) ActivePickups(ctx context.Context, userID int64, userType entities.UserType) ([]entities.Order, error) {
	key := repository.ActivePickupsKey(userID, userType)
	return q.orderList(key, func() ([]entities.Order, error) {
		return q.orders.GetActivePickups(ctx, userID, userType)
	})
}

func (q *QueryService) CompletedPickups(ctx context.Context, userID int64, userType entities.UserType) ([]entities.Order, error) {
	key := repository.CompletedPickupsKey(userID, userType)
	return q.orderList(key, func() ([]entities.Order, error) {
		return q.orders.GetCompletedPickups(ctx, userID, userType)
	})
}

func (q *QueryService) orderList(key string, fetch func() ([]entities.Order, error)) ([]entities.Order, error) {
	if cached, ok := q.cache.Get(key); ok {
		if orders, ok := cached.([]entities.Order); ok {
			return append([]entities.Order(nil), orders...), nil
		}
	}
	orders, err := fetch()
	if err != nil {
		return nil, err
	}
	q.cache.Set(key, orders)
	return append([]entities.Order(nil), orders...), nil
}

// ActiveOrder finds an order among the user's active pickups by id or number.
func (q *QueryService) ActiveOrder(ctx context.Context, userID int64, userType entities.UserType, orderID int64) (*entities.Order, error) {
	orders, err := q.ActivePickups(ctx, userID, userType)
	if err != nil {
		return nil, fmt.Errorf("load active pickups: %w", err)
	}
	if order := findOrder(orders, orderID); order != nil {
		return order, nil
	}
	return nil, ErrOrderNotFound
}

// Order looks in the active pickups first and then in the completed ones.
func (q *QueryService) Order(ctx context.Context, userID int64, userType entities.UserType, orderID int64) (*entities.Order, error) {
	order, err := q.ActiveOrder(ctx, userID, userType, orderID)
	if err == nil || !errors.Is(err, ErrOrderNotFound) {
		return order, err
	}
	completed, err := q.CompletedPickups(ctx, userID, userType)
	if err != nil {
		return nil, fmt.Errorf("load completed pickups: %w", err)
	}
	if order := findOrder(completed, orderID); order != nil {
		return order, nil
	}
	return nil, ErrOrderNotFound
}

func findOrder(orders []entities.Order, orderID int64) *entities.Order {
	for i := range orders {
		if orders[i].Matches(orderID) {
			o := orders[i]
			return &o
		}
	}
	return nil
}

func (q *QueryService) BulkRequests(ctx context.Context, buyerID int64) ([]entities.BulkRequest, error) {
	key := repository.BulkRequestsKey(buyerID)
	if cached, ok := q.cache.Get(key); ok {
		if requests, ok := cached.([]entities.BulkRequest); ok {
			return cloneRequests(requests), nil
		}
	}
	requests, err := q.bulk.GetBulkRequestsByBuyer(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	q.cache.Set(key, requests)
	return cloneRequests(requests), nil
}

func (q *QueryService) BulkRequest(ctx context.Context, buyerID, requestID int64) (*entities.BulkRequest, error) {
	requests, err := q.BulkRequests(ctx, buyerID)
	if err != nil {
		return nil, fmt.Errorf("load bulk requests: %w", err)
	}
	for i := range requests {
		if requests[i].ID == requestID {
			return &requests[i], nil
		}
	}
	return nil, ErrBulkRequestNotFound
}

// StoreBulkRequest replaces one request inside the buyer's cached list. It
// is a no-op when the list is not cached.
func (q *QueryService) StoreBulkRequest(buyerID int64, updated *entities.BulkRequest) {
	key := repository.BulkRequestsKey(buyerID)
	cached, ok := q.cache.Get(key)
	if !ok {
		return
	}
	requests, ok := cached.([]entities.BulkRequest)
	if !ok {
		return
	}
	next := cloneRequests(requests)
	for i := range next {
		if next[i].ID == updated.ID {
			next[i] = *updated.Clone()
		}
	}
	q.cache.Set(key, next)
}

func (q *QueryService) Invalidate(prefixes ...string) {
	q.cache.InvalidatePrefix(prefixes...)
}

func cloneRequests(requests []entities.BulkRequest) []entities.BulkRequest {
	out := make([]entities.BulkRequest, len(requests))
	for i := range requests {
		out[i] = *requests[i].Clone()
	}
	return out
}
