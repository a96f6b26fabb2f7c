package client

import (
	"context"
	"fmt"
	"net/http"

	"scrappickup/internal/domain/entities"
)

const DefaultRemovalReason = "Scrap quality not proper"

func (c *Client) GetBulkRequestsByBuyer(ctx context.Context, buyerID int64) ([]entities.BulkRequest, error) {
	var requests []entities.BulkRequest
	path := fmt.Sprintf("/v2/bulk-scrap/requests/by-buyer/%d", buyerID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

// BulkStartResult lists the per-vendor orders the backend created when the
// buyer started the pickup round.
type BulkStartResult struct {
	RequestID     int64            `json:"request_id"`
	OrdersCreated int              `json:"orders_created"`
	Orders        []entities.Order `json:"orders"`
}

func (c *Client) StartBulkPickup(ctx context.Context, requestID, buyerID int64, userType entities.UserType) (*BulkStartResult, error) {
	body := map[string]any{"buyer_id": buyerID, "user_type": userType}
	var result BulkStartResult
	path := fmt.Sprintf("/v2/bulk-scrap/requests/%d/start-pickup", requestID)
	if err := c.do(ctx, http.MethodPost, path, nil, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) RemoveVendor(ctx context.Context, requestID, buyerID, vendorID int64, reason string) error {
	if reason == "" {
		reason = DefaultRemovalReason
	}
	body := map[string]any{
		"buyer_id":       buyerID,
		"vendor_user_id": vendorID,
		"reason":         reason,
	}
	path := fmt.Sprintf("/v2/bulk-scrap/requests/%d/accept/remove-vendor", requestID)
	return c.do(ctx, http.MethodPost, path, nil, body, nil)
}

func (c *Client) UpdateBuyerStatus(ctx context.Context, requestID, buyerID int64, status entities.BuyerStatus) error {
	if !status.Valid() {
		return fmt.Errorf("invalid buyer status %q", status)
	}
	body := map[string]any{"buyer_id": buyerID, "buyer_status": status}
	path := fmt.Sprintf("/v2/bulk-scrap/requests/%d/buyer-status", requestID)
	return c.do(ctx, http.MethodPost, path, nil, body, nil)
}
