package services

import (
	"context"
	"errors"
	"math"

	"scrappickup/internal/domain/entities"
	"scrappickup/internal/geo"
)

// OrderView is everything a pickup tracking screen shows for one order.
type OrderView struct {
	Order        entities.Order         `json:"order"`
	StatusLabel  string                 `json:"status_label"`
	NextAction   entities.PickupAction  `json:"next_action"`
	Destination  *entities.Location     `json:"destination"`
	LivePosition *entities.LiveLocation `json:"live_position"`
	DistanceKm   *float64               `json:"distance_km"`
	Tracking     bool                   `json:"tracking"`
}

// VendorView is a participant as shown on the buyer's bulk request map.
type VendorView struct {
	entities.VendorParticipation
	EffectiveStatus entities.VendorStatus `json:"effective_status"`
	DistanceKm      *float64              `json:"distance_km"`
	CanMarkArrived  bool                  `json:"can_mark_arrived"`
	CanComplete     bool                  `json:"can_complete"`
}

// BulkRequestMap is the buyer's map of a bulk request.
type BulkRequestMap struct {
	Request       entities.BulkRequest `json:"request"`
	Vendors       []VendorView         `json:"vendors"`
	Markers       []geo.Marker         `json:"markers"`
	Route         []geo.RoutePoint     `json:"route"`
	InitialRegion geo.Region           `json:"initial_region"`
	CanStart      bool                 `json:"can_start"`
	CanComplete   bool                 `json:"can_complete"`
}

// MapService assembles read-only views from cached queries, enrichment and
// the live location reconciler.
type MapService struct {
	queries    *QueryService
	enricher   *VendorEnricher
	reconciler *LocationReconciler
	tracker    *TrackingService
}

func NewMapService(queries *QueryService, enricher *VendorEnricher, reconciler *LocationReconciler, tracker *TrackingService) *MapService {
	return &MapService{
		queries:    queries,
		enricher:   enricher,
		reconciler: reconciler,
		tracker:    tracker,
	}
}

// OrderView resolves where an order is collected and where its vendor is.
// Orders spawned by a bulk request are collected at the buyer, whose device
// reports its position against the bulk request id. That live position
// replaces the static one once known, whoever the caller is.
func (s *MapService) OrderView(ctx context.Context, userID int64, userType entities.UserType, orderID int64) (*OrderView, error) {
	if err := checkCaller(userID, userType); err != nil {
		return nil, err
	}
	if orderID <= 0 {
		return nil, ErrMissingOrderID
	}

	order, err := s.queries.Order(ctx, userID, userType, orderID)
	if err != nil {
		return nil, err
	}

	view := &OrderView{
		Order:       *order,
		StatusLabel: order.Status.Label(),
		NextAction:  order.Status.NextAction(),
	}
	if dest, ok := order.Destination(s.buyerLocation(ctx, userID, userType, order)); ok {
		view.Destination = &dest
	}

	ref := order.OrderID
	if ref == 0 {
		ref = orderID
	}
	if orderTrackingRelevant(order.Status) {
		view.LivePosition = s.reconciler.Current(ctx, ref)
	} else {
		view.LivePosition = s.reconciler.LastKnown(ref)
	}
	if view.LivePosition != nil && view.Destination != nil {
		d := view.Destination.DistanceKm(view.LivePosition.Location)
		view.DistanceKm = &d
	}
	if current, ok := s.tracker.CurrentOrderID(userID, userType); ok {
		view.Tracking = order.Matches(current)
	}
	return view, nil
}

// buyerLocation is where a bulk order is collected, or nil for an ordinary
// order. The static fallback is the request's pickup point when the caller
// owns the request, otherwise the order's own coordinates.
func (s *MapService) buyerLocation(ctx context.Context, userID int64, userType entities.UserType, order *entities.Order) *entities.Location {
	if order.BulkRequestID == nil {
		return nil
	}
	requestID := *order.BulkRequestID

	var static *entities.Location
	if userType.CanStartBulkPickup() {
		if req, err := s.queries.BulkRequest(ctx, userID, requestID); err == nil {
			if loc, ok := req.PickupLocation(); ok {
				static = &loc
			}
		}
	}
	if static == nil {
		if loc, ok := order.DestinationLocation(); ok {
			static = &loc
		}
	}

	if !order.Status.IsTerminal() {
		s.reconciler.PollLocation(ctx, requestID)
	}
	loc, ok := s.reconciler.Resolve(requestID, static)
	if !ok {
		return nil
	}
	return &loc
}

// OrderLocation is the vendor's live position on an order the caller can
// see. A failed or empty poll yields nil, not an error.
func (s *MapService) OrderLocation(ctx context.Context, userID int64, userType entities.UserType, orderID int64) (*entities.LiveLocation, error) {
	if err := checkCaller(userID, userType); err != nil {
		return nil, err
	}
	if orderID <= 0 {
		return nil, ErrMissingOrderID
	}
	ref, err := s.visibleOrderRef(ctx, userID, userType, orderID)
	if err != nil {
		return nil, err
	}
	return s.reconciler.PollLocation(ctx, ref), nil
}

// visibleOrderRef finds the order among the caller's own pickups, or for a
// buyer among the vendor orders of their bulk requests.
func (s *MapService) visibleOrderRef(ctx context.Context, userID int64, userType entities.UserType, orderID int64) (int64, error) {
	order, err := s.queries.Order(ctx, userID, userType, orderID)
	if err == nil {
		if order.OrderID != 0 {
			return order.OrderID, nil
		}
		return orderID, nil
	}
	if !errors.Is(err, ErrOrderNotFound) || !userType.CanStartBulkPickup() {
		return 0, err
	}

	requests, err := s.queries.BulkRequests(ctx, userID)
	if err != nil {
		return 0, err
	}
	for _, req := range requests {
		for _, v := range req.AcceptedVendors {
			if ref, ok := v.OrderRef(); ok && ref == orderID {
				return ref, nil
			}
		}
	}
	return 0, ErrOrderNotFound
}

// orderTrackingRelevant reports whether a live position can exist for an
// order in this status.
func orderTrackingRelevant(status entities.OrderStatus) bool {
	return status == entities.OrderStatusPickupStarted || status == entities.OrderStatusArrived
}

// WatchOrder streams live positions for an order until the order leaves the
// tracking-relevant statuses or ctx ends. The status is read through the
// query cache, so a completed order disarms the watch within one cache
// lifetime.
func (s *MapService) WatchOrder(ctx context.Context, userID int64, userType entities.UserType, orderID int64, onUpdate func(entities.LiveLocation)) (*Subscription, error) {
	if err := checkCaller(userID, userType); err != nil {
		return nil, err
	}
	if orderID <= 0 {
		return nil, ErrMissingOrderID
	}
	if _, err := s.queries.Order(ctx, userID, userType, orderID); err != nil {
		return nil, err
	}

	active := func() bool {
		order, err := s.queries.Order(ctx, userID, userType, orderID)
		if err != nil {
			return !errors.Is(err, ErrOrderNotFound)
		}
		return orderTrackingRelevant(order.Status)
	}
	return s.reconciler.Subscribe(ctx, orderID, active, onUpdate), nil
}

// BulkRequestMap builds the buyer's map: enriched vendors sorted nearest
// first, markers, the hub-and-spoke route and a region framing them all.
func (s *MapService) BulkRequestMap(ctx context.Context, buyerID int64, buyerType entities.UserType, requestID int64) (*BulkRequestMap, error) {
	if err := checkCaller(buyerID, buyerType); err != nil {
		return nil, err
	}
	if requestID <= 0 {
		return nil, ErrMissingRequestID
	}

	req, err := s.queries.BulkRequest(ctx, buyerID, requestID)
	if err != nil {
		return nil, err
	}
	req.AcceptedVendors = s.enricher.Enrich(ctx, buyerID, buyerType, req.AcceptedVendors)

	var origin *entities.Location
	if loc, ok := req.PickupLocation(); ok {
		origin = &loc
	}
	sorted := geo.SortByDistance(req.AcceptedVendors, origin)
	markers := geo.BuildMarkers(req, sorted)

	vendors := make([]VendorView, len(sorted))
	for i := range sorted {
		v := &sorted[i]
		view := VendorView{
			VendorParticipation: *v,
			EffectiveStatus:     v.EffectiveStatus(),
			CanMarkArrived:      v.CanBuyerMarkArrived(),
			CanComplete:         v.CanBuyerComplete(),
		}
		if d := geo.VendorDistance(v, origin); !math.IsInf(d, 1) {
			view.DistanceKm = &d
		}
		vendors[i] = view
	}

	return &BulkRequestMap{
		Request:       *req,
		Vendors:       vendors,
		Markers:       markers,
		Route:         geo.BuildRoutePoints(req, sorted),
		InitialRegion: geo.ComputeBoundingRegion(markers),
		CanStart:      req.CanStartPickup(),
		CanComplete:   req.CanComplete(),
	}, nil
}
