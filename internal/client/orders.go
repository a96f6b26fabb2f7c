package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"scrappickup/internal/domain/entities"
)

type pickupActionRequest struct {
	UserID         int64                    `json:"user_id"`
	UserType       entities.UserType        `json:"user_type"`
	PaymentDetails []entities.PaymentDetail `json:"payment_details,omitempty"`
}

// PickupActionResult is the backend's acknowledgement of a pickup action.
type PickupActionResult struct {
	OrderID     int64                `json:"order_id"`
	OrderNumber int64                `json:"order_number"`
	Status      entities.OrderStatus `json:"status"`
}

func (c *Client) pickupAction(ctx context.Context, orderID int64, step string, req pickupActionRequest) (*PickupActionResult, error) {
	var result PickupActionResult
	path := fmt.Sprintf("/v2/orders/pickup-request/%d/%s", orderID, step)
	if err := c.do(ctx, http.MethodPost, path, nil, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) StartPickup(ctx context.Context, orderID, userID int64, userType entities.UserType) (*PickupActionResult, error) {
	return c.pickupAction(ctx, orderID, "start-pickup", pickupActionRequest{UserID: userID, UserType: userType})
}

func (c *Client) ArrivedLocation(ctx context.Context, orderID, userID int64, userType entities.UserType) (*PickupActionResult, error) {
	return c.pickupAction(ctx, orderID, "arrived-location", pickupActionRequest{UserID: userID, UserType: userType})
}

// CompletePickup validates the payment lines locally before sending; an
// invalid line never reaches the backend.
func (c *Client) CompletePickup(ctx context.Context, orderID, userID int64, userType entities.UserType, payments []entities.PaymentDetail) (*PickupActionResult, error) {
	for i := range payments {
		if err := c.validate.Struct(payments[i]); err != nil {
			return nil, fmt.Errorf("payment detail %d: %w", i, err)
		}
	}
	return c.pickupAction(ctx, orderID, "complete-pickup", pickupActionRequest{
		UserID:         userID,
		UserType:       userType,
		PaymentDetails: payments,
	})
}

func userTypeQuery(userType entities.UserType) url.Values {
	return url.Values{"user_type": []string{string(userType)}}
}

// GetActivePickup returns the user's current pickup, or nil when there is none.
func (c *Client) GetActivePickup(ctx context.Context, userID int64, userType entities.UserType) (*entities.Order, error) {
	var order *entities.Order
	path := fmt.Sprintf("/v2/orders/active-pickup/%d", userID)
	if err := c.do(ctx, http.MethodGet, path, userTypeQuery(userType), nil, &order); err != nil {
		return nil, err
	}
	return order, nil
}

func (c *Client) GetActivePickups(ctx context.Context, userID int64, userType entities.UserType) ([]entities.Order, error) {
	var orders []entities.Order
	path := fmt.Sprintf("/v2/orders/active-pickups/%d", userID)
	if err := c.do(ctx, http.MethodGet, path, userTypeQuery(userType), nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *Client) GetCompletedPickups(ctx context.Context, userID int64, userType entities.UserType) ([]entities.Order, error) {
	var orders []entities.Order
	path := fmt.Sprintf("/v2/orders/completed-pickups/%d", userID)
	if err := c.do(ctx, http.MethodGet, path, userTypeQuery(userType), nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}
