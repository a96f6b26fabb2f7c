package entities

import (
	"errors"
	"fmt"
)

var ErrInvalidTransition = errors.New("invalid status transition")

// OrderStatus is the backend's numeric pickup status.
//
// Go Learning Note — State Machines in Go:
// The pickup lifecycle is a finite state machine expressed as a map of valid
// transitions:
//
//	Pending → Accepted → PickupStarted → Arrived → Completed
//	   ↘ AcceptedByOther / Cancelled (only before pickup starts)
//
// Code 1 is an older "accepted" code the backend still emits; it behaves
// like Pending for the purpose of actions.
type OrderStatus int

const (
	OrderStatusPending         OrderStatus = 0
	OrderStatusAcceptedAlt     OrderStatus = 1
	OrderStatusAccepted        OrderStatus = 2
	OrderStatusPickupStarted   OrderStatus = 3
	OrderStatusArrived         OrderStatus = 4
	OrderStatusCompleted       OrderStatus = 5
	OrderStatusAcceptedByOther OrderStatus = 6
	OrderStatusCancelled       OrderStatus = 7
)

const StatusLabelUnknown = "unknown"

var statusLabels = map[OrderStatus]string{
	OrderStatusPending:         "pending",
	OrderStatusAcceptedAlt:     "accepted",
	OrderStatusAccepted:        "accepted",
	OrderStatusPickupStarted:   "pickup_started",
	OrderStatusArrived:         "arrived",
	OrderStatusCompleted:       "completed",
	OrderStatusAcceptedByOther: "accepted_by_other",
	OrderStatusCancelled:       "cancelled",
}

var validTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:         {OrderStatusAcceptedAlt, OrderStatusAccepted, OrderStatusAcceptedByOther, OrderStatusCancelled},
	OrderStatusAcceptedAlt:     {OrderStatusAccepted, OrderStatusPickupStarted, OrderStatusAcceptedByOther, OrderStatusCancelled},
	OrderStatusAccepted:        {OrderStatusPickupStarted, OrderStatusAcceptedByOther, OrderStatusCancelled},
	OrderStatusPickupStarted:   {OrderStatusArrived},
	OrderStatusArrived:         {OrderStatusCompleted},
	OrderStatusCompleted:       {},
	OrderStatusAcceptedByOther: {},
	OrderStatusCancelled:       {},
}

// Label maps a status code to its display key. Unknown codes map to "unknown".
func (s OrderStatus) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return StatusLabelUnknown
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusAcceptedByOther || s == OrderStatusCancelled
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return false
	}
	for _, a := range allowed {
		if a == next {
			return true
		}
	}
	return false
}

// PickupAction is the single action a client may offer for an order.
type PickupAction string

const (
	ActionNone     PickupAction = "none"
	ActionStart    PickupAction = "start"
	ActionArrive   PickupAction = "arrive"
	ActionComplete PickupAction = "complete"
)

// NextAction returns the action the current status permits. Orders taken by
// another vendor or cancelled never offer an action, whatever else is known
// about them.
func (s OrderStatus) NextAction() PickupAction {
	if s == OrderStatusAcceptedByOther || s == OrderStatusCancelled {
		return ActionNone
	}
	switch s {
	case OrderStatusAccepted:
		return ActionStart
	case OrderStatusPickupStarted:
		return ActionArrive
	case OrderStatusArrived:
		return ActionComplete
	default:
		return ActionNone
	}
}

// TargetStatus is the status an action moves an order into.
func (a PickupAction) TargetStatus() (OrderStatus, bool) {
	switch a {
	case ActionStart:
		return OrderStatusPickupStarted, true
	case ActionArrive:
		return OrderStatusArrived, true
	case ActionComplete:
		return OrderStatusCompleted, true
	}
	return 0, false
}

// Order is one pickup instance as returned by the order API.
type Order struct {
	OrderID           int64       `json:"order_id"`
	OrderNumber       int64       `json:"order_number"`
	CustomerID        int64       `json:"customer_id,omitempty"`
	CustomerName      string      `json:"customer_name,omitempty"`
	Address           string      `json:"address,omitempty"`
	Latitude          *float64    `json:"latitude"`
	Longitude         *float64    `json:"longitude"`
	Status            OrderStatus `json:"status"`
	EstimatedWeightKg float64     `json:"estimated_weight_kg,omitempty"`
	EstimatedPrice    float64     `json:"estimated_price,omitempty"`
	BulkRequestID     *int64      `json:"bulk_request_id,omitempty"`
	CreatedAt         string      `json:"created_at,omitempty"`
}

// Matches reports whether id refers to this order by id or by number, the
// way the backend lets clients address orders interchangeably.
func (o *Order) Matches(id int64) bool {
	return o.OrderID == id || o.OrderNumber == id
}

// DestinationLocation is the pickup address the backend stored on the order.
func (o *Order) DestinationLocation() (Location, bool) {
	if o.Latitude == nil || o.Longitude == nil {
		return Location{}, false
	}
	loc := NewLocation(*o.Latitude, *o.Longitude)
	if !loc.IsFinite() {
		return Location{}, false
	}
	return loc, true
}

// Destination resolves where the pickup actually happens. Orders spawned by a
// bulk request are collected at the buyer's location, which supersedes the
// raw order coordinates when known.
func (o *Order) Destination(buyer *Location) (Location, bool) {
	if o.BulkRequestID != nil && buyer != nil && buyer.IsFinite() {
		return *buyer, true
	}
	return o.DestinationLocation()
}

// TransitionTo moves the order along the state machine after the backend
// acknowledged an action.
func (o *Order) TransitionTo(next OrderStatus) error {
	if !o.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, o.Status.Label(), next.Label())
	}
	o.Status = next
	return nil
}

// PaymentDetail is one weighed line item settled at pickup completion.
type PaymentDetail struct {
	CategoryID    int64   `json:"category_id" binding:"required,gt=0" validate:"required,gt=0"`
	SubcategoryID int64   `json:"subcategory_id" binding:"required,gt=0" validate:"required,gt=0"`
	Weight        float64 `json:"weight" binding:"gt=0" validate:"gt=0"`
	Amount        float64 `json:"amount" binding:"gte=0" validate:"gte=0"`
}
