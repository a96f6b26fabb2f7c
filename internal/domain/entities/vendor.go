package entities

// VendorStatus is the vendor-level participation state inside a bulk request.
type VendorStatus string

const (
	VendorStatusParticipated    VendorStatus = "participated"
	VendorStatusOrderFullFilled VendorStatus = "order_full_filled"
	VendorStatusPickupStarted   VendorStatus = "pickup_started"
	VendorStatusArrived         VendorStatus = "arrived"
	VendorStatusCompleted       VendorStatus = "completed"
)

// VendorParticipation is one vendor's commitment to a bulk request, plus the
// profile and location fields filled in by enrichment.
//
// Go Learning Note — Pointer Fields for Optional Values:
// OrderID, OrderStatus, ShopLocation and LiveLocation are pointers because
// "not yet known" is meaningful here. A nil OrderStatus means the order API
// has not been consulted, which is different from status 0 (pending).
type VendorParticipation struct {
	UserID            int64         `json:"user_id"`
	UserType          UserType      `json:"user_type,omitempty"`
	ShopID            *int64        `json:"shop_id,omitempty"`
	CommittedQuantity float64       `json:"committed_quantity"`
	BiddingPrice      float64       `json:"bidding_price,omitempty"`
	Status            VendorStatus  `json:"status,omitempty"`
	AcceptedAt        string        `json:"accepted_at,omitempty"`
	OrderID           *int64        `json:"order_id,omitempty"`
	OrderNumber       *int64        `json:"order_number,omitempty"`
	OrderStatus       *OrderStatus  `json:"order_status,omitempty"`
	ShopName          string        `json:"shopname,omitempty"`
	Address           string        `json:"address,omitempty"`
	Phone             string        `json:"phone,omitempty"`
	ShopLocation      *Location     `json:"shop_location,omitempty"`
	LiveLocation      *LiveLocation `json:"live_location,omitempty"`
}

// EffectiveStatus resolves the status to display. A known order status of
// 3, 4 or 5 overrides the vendor string; anything else (including 2) keeps
// the string as reported.
func (v *VendorParticipation) EffectiveStatus() VendorStatus {
	status := v.Status
	if status == "" {
		status = VendorStatusParticipated
	}
	if v.OrderStatus == nil {
		return status
	}
	switch *v.OrderStatus {
	case OrderStatusCompleted:
		return VendorStatusCompleted
	case OrderStatusArrived:
		return VendorStatusArrived
	case OrderStatusPickupStarted:
		return VendorStatusPickupStarted
	}
	return status
}

// OrderRef returns the identifier used to address the vendor's order,
// preferring the order id over the order number.
func (v *VendorParticipation) OrderRef() (int64, bool) {
	if v.OrderID != nil && *v.OrderID != 0 {
		return *v.OrderID, true
	}
	if v.OrderNumber != nil && *v.OrderNumber != 0 {
		return *v.OrderNumber, true
	}
	return 0, false
}

// IsTrackingRelevant reports whether the vendor is in a phase where a live
// device position exists.
func (v *VendorParticipation) IsTrackingRelevant() bool {
	switch v.EffectiveStatus() {
	case VendorStatusPickupStarted, VendorStatusArrived, VendorStatusCompleted:
		return true
	}
	return false
}

func (v *VendorParticipation) ShouldFetchLiveLocation() bool {
	_, hasOrder := v.OrderRef()
	return hasOrder && v.IsTrackingRelevant()
}

func (v *VendorParticipation) CanBuyerMarkArrived() bool {
	return v.EffectiveStatus() == VendorStatusPickupStarted
}

func (v *VendorParticipation) CanBuyerComplete() bool {
	return v.EffectiveStatus() == VendorStatusArrived
}

// Position is the coordinate used for distance and routing. A live position,
// once known, supersedes the shop address.
func (v *VendorParticipation) Position() (Location, bool) {
	if v.LiveLocation != nil && v.LiveLocation.IsFinite() {
		return v.LiveLocation.Location, true
	}
	if v.ShopLocation != nil && v.ShopLocation.IsFinite() {
		return *v.ShopLocation, true
	}
	return Location{}, false
}
