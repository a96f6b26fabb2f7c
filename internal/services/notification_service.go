package services

import (
	"context"
	"log"

	"scrappickup/internal/domain/entities"
	"scrappickup/internal/events"
)

// NotificationService announces pickup lifecycle changes. Every notification
// is logged and published as an event; a publish failure is logged and never
// reaches the caller, since the transition it describes already happened.
type NotificationService struct {
	publisher events.Publisher
}

func NewNotificationService(publisher events.Publisher) *NotificationService {
	if publisher == nil {
		publisher = events.LogPublisher{}
	}
	return &NotificationService{publisher: publisher}
}

func (s *NotificationService) publish(ctx context.Context, e events.Event) {
	if err := s.publisher.Publish(ctx, e); err != nil {
		log.Printf("[NOTIFICATION] Failed to publish %s: %v", e.Type, err)
	}
}

// NotifyOrderStatus sends the event matching the action just performed on an
// order.
func (s *NotificationService) NotifyOrderStatus(ctx context.Context, action entities.PickupAction, order *entities.Order, userID int64, userType entities.UserType) {
	var t events.Type
	switch action {
	case entities.ActionStart:
		t = events.TypePickupStarted
	case entities.ActionArrive:
		t = events.TypePickupArrived
	case entities.ActionComplete:
		t = events.TypePickupCompleted
	default:
		return
	}

	log.Printf("[NOTIFICATION] Order %d: %s by user %d (%s)", order.OrderID, order.Status.Label(), userID, userType)
	e := events.New(t, userID, userType)
	e.OrderID = order.OrderID
	if e.OrderID == 0 {
		e.OrderID = order.OrderNumber
	}
	if order.BulkRequestID != nil {
		e.RequestID = *order.BulkRequestID
	}
	e.Status = order.Status.Label()
	s.publish(ctx, e)
}

// NotifyVendorOrderStatus is the buyer-side counterpart of NotifyOrderStatus
// for one vendor of a bulk request.
func (s *NotificationService) NotifyVendorOrderStatus(ctx context.Context, action entities.PickupAction, requestID, vendorID, orderID int64, buyerID int64, buyerType entities.UserType) {
	var t events.Type
	var status entities.OrderStatus
	switch action {
	case entities.ActionArrive:
		t, status = events.TypePickupArrived, entities.OrderStatusArrived
	case entities.ActionComplete:
		t, status = events.TypePickupCompleted, entities.OrderStatusCompleted
	default:
		return
	}

	log.Printf("[NOTIFICATION] Bulk request %d: vendor %d order %d %s", requestID, vendorID, orderID, status.Label())
	e := events.New(t, buyerID, buyerType)
	e.OrderID = orderID
	e.RequestID = requestID
	e.VendorID = vendorID
	e.Status = status.Label()
	s.publish(ctx, e)
}

func (s *NotificationService) NotifyBulkStarted(ctx context.Context, requestID, buyerID int64, buyerType entities.UserType, ordersCreated int) {
	log.Printf("[NOTIFICATION] Bulk request %d: pickup started by buyer %d, %d orders created", requestID, buyerID, ordersCreated)
	e := events.New(events.TypeBulkStarted, buyerID, buyerType)
	e.RequestID = requestID
	e.Status = string(entities.VendorStatusPickupStarted)
	s.publish(ctx, e)
}

func (s *NotificationService) NotifyBulkBuyerStatus(ctx context.Context, requestID, buyerID int64, buyerType entities.UserType, status entities.BuyerStatus) {
	log.Printf("[NOTIFICATION] Bulk request %d: buyer %d %s", requestID, buyerID, status)
	t := events.TypeBulkArrived
	if status == entities.BuyerStatusCompleted {
		t = events.TypeBulkCompleted
	}
	e := events.New(t, buyerID, buyerType)
	e.RequestID = requestID
	e.Status = string(status)
	s.publish(ctx, e)
}

func (s *NotificationService) NotifyVendorRemoved(ctx context.Context, requestID, buyerID int64, buyerType entities.UserType, vendorID int64, reason string) {
	log.Printf("[NOTIFICATION] Vendor %d: removed from bulk request %d (%s)", vendorID, requestID, reason)
	e := events.New(events.TypeBulkVendorRemoved, buyerID, buyerType)
	e.RequestID = requestID
	e.VendorID = vendorID
	e.Reason = reason
	s.publish(ctx, e)
}
