package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"scrappickup/internal/client"
	"scrappickup/internal/domain/entities"
	"scrappickup/internal/repository"
)

// PickupService orchestrates the pickup lifecycle for single orders and for
// the buyer side of bulk requests.
//
// Every action follows the same shape:
//  1. check the caller and ids (no network)
//  2. take the in-flight guard for this action on this entity
//  3. load the current state (cache first) and check the action is allowed
//  4. issue exactly one action call to the backend, never retried
//  5. on success: adjust tracking, invalidate dependent queries, refetch,
//     and publish a lifecycle event
//
// The guard is released by a deferred call whatever the outcome.
type PickupService struct {
	orders     OrderAPI
	bulk       BulkAPI
	queries    *QueryService
	enricher   *VendorEnricher
	reconciler *LocationReconciler
	tracker    *TrackingService
	locks      repository.LockManager
	notifier   *NotificationService
	lockTTL    time.Duration
}

func NewPickupService(
	orders OrderAPI,
	bulk BulkAPI,
	queries *QueryService,
	enricher *VendorEnricher,
	reconciler *LocationReconciler,
	tracker *TrackingService,
	locks repository.LockManager,
	notifier *NotificationService,
	lockTTL time.Duration,
) *PickupService {
	if lockTTL <= 0 {
		lockTTL = time.Minute
	}
	return &PickupService{
		orders:     orders,
		bulk:       bulk,
		queries:    queries,
		enricher:   enricher,
		reconciler: reconciler,
		tracker:    tracker,
		locks:      locks,
		notifier:   notifier,
		lockTTL:    lockTTL,
	}
}

// guard takes the in-flight guard for one action on one entity.
func (s *PickupService) guard(ctx context.Context, action, entity string, id int64) (func(), error) {
	key := repository.ActionLockKey(action, entity, id)
	acquired, err := s.locks.AcquireLock(ctx, key, s.lockTTL)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, fmt.Errorf("%w: %s", ErrActionInProgress, key)
	}
	return func() {
		if err := s.locks.ReleaseLock(context.Background(), key); err != nil {
			log.Printf("[PICKUP] Failed to release %s: %v", key, err)
		}
	}, nil
}

// Start begins the pickup of an accepted order and starts tracking the
// device against it.
func (s *PickupService) Start(ctx context.Context, orderID, userID int64, userType entities.UserType) (*entities.Order, error) {
	return s.orderAction(ctx, entities.ActionStart, orderID, userID, userType, nil)
}

// Arrive marks the vendor as arrived at the pickup location.
func (s *PickupService) Arrive(ctx context.Context, orderID, userID int64, userType entities.UserType) (*entities.Order, error) {
	return s.orderAction(ctx, entities.ActionArrive, orderID, userID, userType, nil)
}

// Complete settles the pickup with the weighed payment lines and stops
// tracking when this order is the one the device is tracking.
func (s *PickupService) Complete(ctx context.Context, orderID, userID int64, userType entities.UserType, payments []entities.PaymentDetail) (*entities.Order, error) {
	return s.orderAction(ctx, entities.ActionComplete, orderID, userID, userType, payments)
}

func (s *PickupService) orderAction(ctx context.Context, action entities.PickupAction, orderID, userID int64, userType entities.UserType, payments []entities.PaymentDetail) (*entities.Order, error) {
	if err := checkCaller(userID, userType); err != nil {
		return nil, err
	}
	if orderID <= 0 {
		return nil, ErrMissingOrderID
	}

	release, err := s.guard(ctx, string(action), "order", orderID)
	if err != nil {
		return nil, err
	}
	defer release()

	order, err := s.queries.ActiveOrder(ctx, userID, userType, orderID)
	if err != nil {
		return nil, err
	}
	if next := order.Status.NextAction(); next != action {
		return nil, fmt.Errorf("%w: order %d is %s, %s not possible", ErrActionNotAllowed, orderID, order.Status.Label(), action)
	}

	var result *client.PickupActionResult
	switch action {
	case entities.ActionStart:
		result, err = s.orders.StartPickup(ctx, orderID, userID, userType)
	case entities.ActionArrive:
		result, err = s.orders.ArrivedLocation(ctx, orderID, userID, userType)
	case entities.ActionComplete:
		result, err = s.orders.CompletePickup(ctx, orderID, userID, userType, payments)
	}
	if err != nil {
		log.Printf("[PICKUP] %s on order %d failed: %v", action, orderID, err)
		return nil, err
	}
	if result != nil {
		log.Printf("[PICKUP] Backend acknowledged %s on order %d with status %s", action, orderID, result.Status.Label())
	}

	trackingID := order.OrderID
	if trackingID == 0 {
		trackingID = orderID
	}
	switch action {
	case entities.ActionStart:
		if err := s.tracker.StartTracking(trackingID, userID, userType); err != nil {
			log.Printf("[PICKUP] Could not start tracking order %d: %v", trackingID, err)
		}
		s.queries.Invalidate(repository.PrefixOrdersActive)
	case entities.ActionArrive:
		s.queries.Invalidate(repository.PrefixOrdersActive)
	case entities.ActionComplete:
		if current, ok := s.tracker.CurrentOrderID(userID, userType); ok && order.Matches(current) {
			s.tracker.StopTracking(userID, userType)
		}
		s.reconciler.Forget(trackingID)
		s.queries.Invalidate(repository.PrefixOrdersActive, repository.PrefixOrdersCompleted, repository.PrefixDashboardStats)
	}

	updated := s.refetchOrder(ctx, order, action, userID, userType)
	log.Printf("[PICKUP] Order %d is now %s", orderID, updated.Status.Label())
	s.notifier.NotifyOrderStatus(ctx, action, updated, userID, userType)
	return updated, nil
}

// refetchOrder reloads the order to confirm its new status. When the
// refetch fails the local copy is advanced to the acknowledged status.
func (s *PickupService) refetchOrder(ctx context.Context, order *entities.Order, action entities.PickupAction, userID int64, userType entities.UserType) *entities.Order {
	ref := order.OrderID
	if ref == 0 {
		ref = order.OrderNumber
	}
	fresh, err := s.queries.Order(ctx, userID, userType, ref)
	if err == nil {
		return fresh
	}
	log.Printf("[PICKUP] Refetch of order %d failed: %v", ref, err)

	local := *order
	target, _ := action.TargetStatus()
	if err := local.TransitionTo(target); err != nil {
		log.Printf("[PICKUP] %v", err)
	}
	return &local
}

func checkBuyer(requestID, buyerID int64, buyerType entities.UserType) error {
	if err := checkCaller(buyerID, buyerType); err != nil {
		return err
	}
	if !buyerType.CanStartBulkPickup() {
		return fmt.Errorf("%w: %s cannot buy bulk scrap", ErrInvalidUserType, buyerType)
	}
	if requestID <= 0 {
		return ErrMissingRequestID
	}
	return nil
}

// StartBulkPickup starts the buyer's pickup round for a bulk request. The
// backend creates one order per vendor; the device is tracked against the
// request id.
func (s *PickupService) StartBulkPickup(ctx context.Context, requestID, buyerID int64, buyerType entities.UserType) (*entities.BulkRequest, error) {
	if err := checkBuyer(requestID, buyerID, buyerType); err != nil {
		return nil, err
	}
	release, err := s.guard(ctx, "start", "bulk", requestID)
	if err != nil {
		return nil, err
	}
	defer release()

	req, err := s.queries.BulkRequest(ctx, buyerID, requestID)
	if err != nil {
		return nil, err
	}
	if !req.CanStartPickup() {
		return nil, fmt.Errorf("%w: bulk request %d is %s", ErrActionNotAllowed, requestID, req.Status)
	}

	result, err := s.bulk.StartBulkPickup(ctx, requestID, buyerID, buyerType)
	if err != nil {
		log.Printf("[PICKUP] Start of bulk request %d failed: %v", requestID, err)
		return nil, err
	}

	if err := s.tracker.StartTracking(requestID, buyerID, buyerType); err != nil {
		log.Printf("[PICKUP] Could not start tracking bulk request %d: %v", requestID, err)
	}
	s.queries.Invalidate(repository.PrefixBulkScrap, repository.PrefixOrdersActive)

	ordersCreated := 0
	if result != nil {
		ordersCreated = result.OrdersCreated
	}
	updated := s.refetchBulkRequest(ctx, req, buyerID)
	s.notifier.NotifyBulkStarted(ctx, requestID, buyerID, buyerType, ordersCreated)
	return updated, nil
}

// MarkVendorArrived records that a vendor reached the buyer.
func (s *PickupService) MarkVendorArrived(ctx context.Context, requestID, buyerID int64, buyerType entities.UserType, vendorID int64) (*entities.BulkRequest, error) {
	return s.vendorAction(ctx, entities.ActionArrive, requestID, buyerID, buyerType, vendorID, nil)
}

// CompleteVendor settles one vendor's part of the bulk request.
func (s *PickupService) CompleteVendor(ctx context.Context, requestID, buyerID int64, buyerType entities.UserType, vendorID int64, payments []entities.PaymentDetail) (*entities.BulkRequest, error) {
	return s.vendorAction(ctx, entities.ActionComplete, requestID, buyerID, buyerType, vendorID, payments)
}

func (s *PickupService) vendorAction(ctx context.Context, action entities.PickupAction, requestID, buyerID int64, buyerType entities.UserType, vendorID int64, payments []entities.PaymentDetail) (*entities.BulkRequest, error) {
	if err := checkBuyer(requestID, buyerID, buyerType); err != nil {
		return nil, err
	}
	if vendorID <= 0 {
		return nil, entities.ErrVendorNotFound
	}
	release, err := s.guard(ctx, string(action), fmt.Sprintf("bulk-%d-vendor", requestID), vendorID)
	if err != nil {
		return nil, err
	}
	defer release()

	req, err := s.queries.BulkRequest(ctx, buyerID, requestID)
	if err != nil {
		return nil, err
	}
	req.AcceptedVendors = s.enricher.ResolveOrderStatuses(ctx, buyerID, buyerType, req.AcceptedVendors)
	vendor, ok := req.Vendor(vendorID)
	if !ok {
		return nil, entities.ErrVendorNotFound
	}

	eligible := vendor.CanBuyerMarkArrived()
	if action == entities.ActionComplete {
		eligible = vendor.CanBuyerComplete()
	}
	orderRef, hasOrder := vendor.OrderRef()
	if !eligible || !hasOrder {
		return nil, fmt.Errorf("%w: vendor %d is %s", ErrVendorNotEligible, vendorID, vendor.EffectiveStatus())
	}

	if action == entities.ActionComplete {
		_, err = s.orders.CompletePickup(ctx, orderRef, buyerID, buyerType, payments)
	} else {
		_, err = s.orders.ArrivedLocation(ctx, orderRef, buyerID, buyerType)
	}
	if err != nil {
		log.Printf("[PICKUP] %s for vendor %d on bulk request %d failed: %v", action, vendorID, requestID, err)
		return nil, err
	}

	if action == entities.ActionComplete {
		s.reconciler.Forget(orderRef)
		s.queries.Invalidate(repository.PrefixBulkScrap, repository.PrefixOrdersActive, repository.PrefixOrdersCompleted, repository.PrefixDashboardStats)
	} else {
		s.queries.Invalidate(repository.PrefixBulkScrap, repository.PrefixOrdersActive)
	}

	updated := s.refetchBulkRequest(ctx, req, buyerID)
	s.notifier.NotifyVendorOrderStatus(ctx, action, requestID, vendorID, orderRef, buyerID, buyerType)
	return updated, nil
}

// MarkBuyerArrived records the buyer-level "arrived" status once the pickup
// round has started.
func (s *PickupService) MarkBuyerArrived(ctx context.Context, requestID, buyerID int64, buyerType entities.UserType) (*entities.BulkRequest, error) {
	return s.buyerStatus(ctx, requestID, buyerID, buyerType, entities.BuyerStatusArrived)
}

// CompleteBulkRequest closes the buyer's side of the request and stops
// tracking when the device is tracking this request.
func (s *PickupService) CompleteBulkRequest(ctx context.Context, requestID, buyerID int64, buyerType entities.UserType) (*entities.BulkRequest, error) {
	return s.buyerStatus(ctx, requestID, buyerID, buyerType, entities.BuyerStatusCompleted)
}

func (s *PickupService) buyerStatus(ctx context.Context, requestID, buyerID int64, buyerType entities.UserType, status entities.BuyerStatus) (*entities.BulkRequest, error) {
	if err := checkBuyer(requestID, buyerID, buyerType); err != nil {
		return nil, err
	}
	release, err := s.guard(ctx, "buyer-"+string(status), "bulk", requestID)
	if err != nil {
		return nil, err
	}
	defer release()

	req, err := s.queries.BulkRequest(ctx, buyerID, requestID)
	if err != nil {
		return nil, err
	}
	allowed := req.CanComplete()
	if status == entities.BuyerStatusArrived {
		allowed = req.PickupStarted() && req.BuyerStatus == entities.BuyerStatusNone && req.Status != entities.BulkStatusCompleted
	}
	if !allowed {
		return nil, fmt.Errorf("%w: bulk request %d is %s", ErrActionNotAllowed, requestID, req.Status)
	}

	if err := s.bulk.UpdateBuyerStatus(ctx, requestID, buyerID, status); err != nil {
		log.Printf("[PICKUP] Buyer status %s on bulk request %d failed: %v", status, requestID, err)
		return nil, err
	}

	if status == entities.BuyerStatusCompleted {
		if current, ok := s.tracker.CurrentOrderID(buyerID, buyerType); ok && current == requestID {
			s.tracker.StopTracking(buyerID, buyerType)
		}
		s.reconciler.Forget(requestID)
		s.queries.Invalidate(repository.PrefixBulkScrap, repository.PrefixOrders, repository.PrefixDashboardStats)
	} else {
		s.queries.Invalidate(repository.PrefixBulkScrap)
	}

	local := req.Clone()
	local.BuyerStatus = status
	updated := s.refetchBulkRequest(ctx, local, buyerID)
	s.notifier.NotifyBulkBuyerStatus(ctx, requestID, buyerID, buyerType, status)
	return updated, nil
}

// RemoveVendor drops a vendor from the buyer's bulk request. The cached
// request is corrected locally (participants, committed total, fulfilled
// status) without waiting for a refetch.
func (s *PickupService) RemoveVendor(ctx context.Context, requestID, buyerID int64, buyerType entities.UserType, vendorID int64, reason string) (*entities.BulkRequest, error) {
	if err := checkBuyer(requestID, buyerID, buyerType); err != nil {
		return nil, err
	}
	if vendorID <= 0 {
		return nil, entities.ErrVendorNotFound
	}
	if reason == "" {
		reason = client.DefaultRemovalReason
	}
	release, err := s.guard(ctx, "remove", fmt.Sprintf("bulk-%d-vendor", requestID), vendorID)
	if err != nil {
		return nil, err
	}
	defer release()

	req, err := s.queries.BulkRequest(ctx, buyerID, requestID)
	if err != nil {
		return nil, err
	}
	if _, ok := req.Vendor(vendorID); !ok {
		return nil, entities.ErrVendorNotFound
	}

	if err := s.bulk.RemoveVendor(ctx, requestID, buyerID, vendorID, reason); err != nil {
		log.Printf("[PICKUP] Removing vendor %d from bulk request %d failed: %v", vendorID, requestID, err)
		return nil, err
	}

	if _, err := req.RemoveVendor(vendorID); err != nil {
		return nil, err
	}
	s.queries.StoreBulkRequest(buyerID, req)
	s.queries.Invalidate(repository.PrefixOrdersActive)

	s.notifier.NotifyVendorRemoved(ctx, requestID, buyerID, buyerType, vendorID, reason)
	return req, nil
}

func (s *PickupService) refetchBulkRequest(ctx context.Context, local *entities.BulkRequest, buyerID int64) *entities.BulkRequest {
	fresh, err := s.queries.BulkRequest(ctx, buyerID, local.ID)
	if err != nil {
		log.Printf("[PICKUP] Refetch of bulk request %d failed: %v", local.ID, err)
		return local
	}
	return fresh
}
