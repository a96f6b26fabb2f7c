package services

import (
	"context"

	"scrappickup/internal/client"
	"scrappickup/internal/domain/entities"
)

// The services depend on these narrow views of the backend rather than on
// *client.Client, so tests can substitute fakes and the read-side location
// source can be either Redis or the REST API.

type OrderAPI interface {
	StartPickup(ctx context.Context, orderID, userID int64, userType entities.UserType) (*client.PickupActionResult, error)
	ArrivedLocation(ctx context.Context, orderID, userID int64, userType entities.UserType) (*client.PickupActionResult, error)
	CompletePickup(ctx context.Context, orderID, userID int64, userType entities.UserType, payments []entities.PaymentDetail) (*client.PickupActionResult, error)
	OrderLister
	ActivePickupChecker
}

type OrderLister interface {
	GetActivePickups(ctx context.Context, userID int64, userType entities.UserType) ([]entities.Order, error)
	GetCompletedPickups(ctx context.Context, userID int64, userType entities.UserType) ([]entities.Order, error)
}

// ActivePickupChecker is what a tracking session polls to learn that its
// order has ended.
type ActivePickupChecker interface {
	GetActivePickup(ctx context.Context, userID int64, userType entities.UserType) (*entities.Order, error)
}

type BulkAPI interface {
	GetBulkRequestsByBuyer(ctx context.Context, buyerID int64) ([]entities.BulkRequest, error)
	StartBulkPickup(ctx context.Context, requestID, buyerID int64, userType entities.UserType) (*client.BulkStartResult, error)
	RemoveVendor(ctx context.Context, requestID, buyerID, vendorID int64, reason string) error
	UpdateBuyerStatus(ctx context.Context, requestID, buyerID int64, status entities.BuyerStatus) error
}

type ProfileAPI interface {
	GetProfile(ctx context.Context, userID int64) (*client.Profile, error)
}

// LiveLocationSource returns the latest live position for an order, or
// (nil, nil) when none has been reported.
type LiveLocationSource interface {
	GetLocationByOrder(ctx context.Context, orderID int64) (*entities.LiveLocation, error)
}

// LocationSaver persists a position to the backend's location history.
type LocationSaver interface {
	SaveLocation(ctx context.Context, loc *entities.LiveLocation) error
}

// PositionSource yields the latest device fix for a user.
type PositionSource interface {
	CurrentPosition(ctx context.Context, userID int64, userType entities.UserType) (entities.Location, error)
}
