package entities

import "errors"

var ErrVendorNotFound = errors.New("vendor not found in bulk request")

// BulkStatus is the aggregate state of a bulk purchase request.
type BulkStatus string

const (
	BulkStatusPending         BulkStatus = "pending"
	BulkStatusActive          BulkStatus = "active"
	BulkStatusOrderFullFilled BulkStatus = "order_full_filled"
	BulkStatusCompleted       BulkStatus = "completed"
)

// BuyerStatus is the buyer-level progress the buyer reports on a request.
type BuyerStatus string

const (
	BuyerStatusNone      BuyerStatus = ""
	BuyerStatusArrived   BuyerStatus = "arrived"
	BuyerStatusCompleted BuyerStatus = "completed"
)

func (s BuyerStatus) Valid() bool {
	return s == BuyerStatusArrived || s == BuyerStatusCompleted
}

// BulkRequest aggregates the vendors that committed scrap to one buyer.
type BulkRequest struct {
	ID                     int64                 `json:"id"`
	BuyerID                int64                 `json:"buyer_id"`
	BuyerName              string                `json:"buyer_name,omitempty"`
	Latitude               *float64              `json:"latitude"`
	Longitude              *float64              `json:"longitude"`
	ScrapType              string                `json:"scrap_type,omitempty"`
	Quantity               float64               `json:"quantity"`
	TotalCommittedQuantity float64               `json:"total_committed_quantity"`
	Status                 BulkStatus            `json:"status"`
	BuyerStatus            BuyerStatus           `json:"buyer_status,omitempty"`
	AcceptedVendors        []VendorParticipation `json:"accepted_vendors"`
	CreatedAt              string                `json:"created_at,omitempty"`
	UpdatedAt              string                `json:"updated_at,omitempty"`
}

// PickupLocation is the buyer's collection point, if the backend has one.
func (r *BulkRequest) PickupLocation() (Location, bool) {
	if r.Latitude == nil || r.Longitude == nil {
		return Location{}, false
	}
	loc := NewLocation(*r.Latitude, *r.Longitude)
	if !loc.IsFinite() {
		return Location{}, false
	}
	return loc, true
}

// Vendor returns a pointer into AcceptedVendors so callers can update the
// record in place.
func (r *BulkRequest) Vendor(userID int64) (*VendorParticipation, bool) {
	for i := range r.AcceptedVendors {
		if r.AcceptedVendors[i].UserID == userID {
			return &r.AcceptedVendors[i], true
		}
	}
	return nil, false
}

// RecomputeCommitted sets TotalCommittedQuantity to the sum over the current
// participants and returns it.
func (r *BulkRequest) RecomputeCommitted() float64 {
	var total float64
	for _, v := range r.AcceptedVendors {
		total += v.CommittedQuantity
	}
	r.TotalCommittedQuantity = total
	return total
}

// RemoveVendor drops a participant, recomputes the committed total and
// reverts a fulfilled request to active when the total no longer covers the
// requested quantity.
func (r *BulkRequest) RemoveVendor(userID int64) (VendorParticipation, error) {
	idx := -1
	for i := range r.AcceptedVendors {
		if r.AcceptedVendors[i].UserID == userID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return VendorParticipation{}, ErrVendorNotFound
	}

	removed := r.AcceptedVendors[idx]
	remaining := make([]VendorParticipation, 0, len(r.AcceptedVendors)-1)
	remaining = append(remaining, r.AcceptedVendors[:idx]...)
	remaining = append(remaining, r.AcceptedVendors[idx+1:]...)
	r.AcceptedVendors = remaining

	total := r.RecomputeCommitted()
	if total < r.Quantity && r.Status == BulkStatusOrderFullFilled {
		r.Status = BulkStatusActive
	}
	return removed, nil
}

// PickupStarted reports whether the buyer already started the pickup round,
// which the backend signals by creating an order for each vendor.
func (r *BulkRequest) PickupStarted() bool {
	if r.BuyerStatus != BuyerStatusNone {
		return true
	}
	for i := range r.AcceptedVendors {
		if _, ok := r.AcceptedVendors[i].OrderRef(); ok {
			return true
		}
	}
	return false
}

// CanStartPickup reports whether a buyer-level start is permitted.
func (r *BulkRequest) CanStartPickup() bool {
	if r.Status == BulkStatusCompleted || r.Status == BulkStatusPending {
		return false
	}
	return len(r.AcceptedVendors) > 0 && !r.PickupStarted()
}

func (r *BulkRequest) CanComplete() bool {
	return r.Status != BulkStatusCompleted && r.BuyerStatus != BuyerStatusCompleted
}

// Clone returns a deep copy so cached requests are never mutated through a
// value handed to a caller.
func (r *BulkRequest) Clone() *BulkRequest {
	out := *r
	out.AcceptedVendors = make([]VendorParticipation, len(r.AcceptedVendors))
	copy(out.AcceptedVendors, r.AcceptedVendors)
	return &out
}
