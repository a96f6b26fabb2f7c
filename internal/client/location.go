package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"scrappickup/internal/domain/entities"
)

type orderLocationResponse struct {
	OrderID int64 `json:"order_id"`
	Vendor  *struct {
		UserID    int64             `json:"user_id"`
		UserType  entities.UserType `json:"user_type"`
		Latitude  float64           `json:"latitude"`
		Longitude float64           `json:"longitude"`
		Timestamp EpochTime         `json:"timestamp"`
	} `json:"vendor"`
}

// GetLocationByOrder returns the live position of the vendor handling an
// order. A 404 or an error envelope means the vendor has not reported yet
// and yields (nil, nil); transport failures are returned.
func (c *Client) GetLocationByOrder(ctx context.Context, orderID int64) (*entities.LiveLocation, error) {
	var resp orderLocationResponse
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/v2/location/order/%d", orderID), nil, nil, &resp)
	if err != nil {
		var apiErr *APIError
		if errors.Is(err, ErrNotFound) || (errors.As(err, &apiErr) && apiErr.HTTPStatus < 300) {
			return nil, nil
		}
		return nil, err
	}
	if resp.Vendor == nil {
		return nil, nil
	}

	return &entities.LiveLocation{
		Location:  entities.NewLocation(resp.Vendor.Latitude, resp.Vendor.Longitude),
		UserID:    resp.Vendor.UserID,
		UserType:  resp.Vendor.UserType,
		OrderID:   orderID,
		Timestamp: resp.Vendor.Timestamp.Time,
	}, nil
}

// SaveLocation persists a position to the backend's location history.
func (c *Client) SaveLocation(ctx context.Context, loc *entities.LiveLocation) error {
	body := map[string]any{
		"user_id":   loc.UserID,
		"user_type": loc.UserType,
		"latitude":  loc.Latitude,
		"longitude": loc.Longitude,
		"order_id":  loc.OrderID,
	}
	return c.do(ctx, http.MethodPost, "/v2/location/update", nil, body, nil)
}
