// Package events publishes pickup lifecycle events for downstream consumers
// (push notifications, analytics, the dashboard stats job).
package events

import (
	"context"
	"fmt"
	"log"
	"time"

	"scrappickup/internal/domain/entities"
	"scrappickup/pkg/utils"
)

const DefaultTopic = "pickup.events"

type Type string

const (
	TypePickupStarted     Type = "pickup.started"
	TypePickupArrived     Type = "pickup.arrived"
	TypePickupCompleted   Type = "pickup.completed"
	TypeBulkStarted       Type = "bulk.started"
	TypeBulkArrived       Type = "bulk.arrived"
	TypeBulkCompleted     Type = "bulk.completed"
	TypeBulkVendorRemoved Type = "bulk.vendor_removed"
)

type Event struct {
	ID         string            `json:"id"`
	Type       Type              `json:"type"`
	OrderID    int64             `json:"order_id,omitempty"`
	RequestID  int64             `json:"request_id,omitempty"`
	VendorID   int64             `json:"vendor_id,omitempty"`
	UserID     int64             `json:"user_id"`
	UserType   entities.UserType `json:"user_type"`
	Status     string            `json:"status,omitempty"`
	Reason     string            `json:"reason,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

func New(t Type, userID int64, userType entities.UserType) Event {
	return Event{
		ID:         utils.GenerateID("evt"),
		Type:       t,
		UserID:     userID,
		UserType:   userType,
		OccurredAt: time.Now().UTC(),
	}
}

// Key partitions events so everything about one order (or one bulk request)
// lands on the same partition, in order.
func (e Event) Key() []byte {
	if e.OrderID != 0 {
		return []byte(fmt.Sprintf("order:%d", e.OrderID))
	}
	return []byte(fmt.Sprintf("bulk:%d", e.RequestID))
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// LogPublisher is used when no brokers are configured.
type LogPublisher struct{}

func (LogPublisher) Publish(ctx context.Context, e Event) error {
	log.Printf("[EVENTS] %s key=%s user=%d(%s) status=%s", e.Type, e.Key(), e.UserID, e.UserType, e.Status)
	return nil
}
