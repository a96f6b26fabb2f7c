package services

import (
	"context"
	"log"

	"golang.org/x/sync/errgroup"

	"scrappickup/internal/domain/entities"
)

// VendorEnricher fills in what the bulk request API leaves out of each
// participant: the order status, the shop's name, address, contact and
// coordinate from the vendor's profile, and the live position while the
// vendor is on the way.
//
// Go Learning Note — Bounded Fan-Out with errgroup:
// errgroup.Group.SetLimit caps how many goroutines run at once, so a request
// with fifty vendors does not open fifty profile requests simultaneously.
// Each goroutine writes only to its own slot of the output slice, so no lock
// is needed, and each returns nil: one vendor's failure is logged and leaves
// that vendor partially filled instead of cancelling the others.
type VendorEnricher struct {
	profiles    ProfileAPI
	queries     *QueryService
	reconciler  *LocationReconciler
	concurrency int
}

func NewVendorEnricher(profiles ProfileAPI, queries *QueryService, reconciler *LocationReconciler, concurrency int) *VendorEnricher {
	if concurrency <= 0 {
		concurrency = 8
	}
	return &VendorEnricher{
		profiles:    profiles,
		queries:     queries,
		reconciler:  reconciler,
		concurrency: concurrency,
	}
}

// Enrich returns an enriched copy of vendors in the same order.
func (e *VendorEnricher) Enrich(ctx context.Context, buyerID int64, buyerType entities.UserType, vendors []entities.VendorParticipation) []entities.VendorParticipation {
	out := e.ResolveOrderStatuses(ctx, buyerID, buyerType, vendors)

	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for i := range out {
		v := &out[i]
		g.Go(func() error {
			e.enrichProfile(ctx, v)
			e.enrichLiveLocation(ctx, v)
			return nil
		})
	}
	g.Wait()
	return out
}

// ResolveOrderStatuses fills OrderStatus for vendors whose order exists but
// whose status the bulk request did not carry, using the buyer's active and
// then completed pickups. Lookup failures leave the status unknown.
func (e *VendorEnricher) ResolveOrderStatuses(ctx context.Context, buyerID int64, buyerType entities.UserType, vendors []entities.VendorParticipation) []entities.VendorParticipation {
	out := append([]entities.VendorParticipation(nil), vendors...)

	pending := false
	for i := range out {
		if _, ok := out[i].OrderRef(); ok && out[i].OrderStatus == nil {
			pending = true
			break
		}
	}
	if !pending || !buyerType.Valid() {
		return out
	}

	var active, completed []entities.Order
	if orders, err := e.queries.ActivePickups(ctx, buyerID, buyerType); err != nil {
		log.Printf("[ENRICH] Active pickups for buyer %d unavailable: %v", buyerID, err)
	} else {
		active = orders
	}
	if orders, err := e.queries.CompletedPickups(ctx, buyerID, buyerType); err != nil {
		log.Printf("[ENRICH] Completed pickups for buyer %d unavailable: %v", buyerID, err)
	} else {
		completed = orders
	}

	for i := range out {
		v := &out[i]
		if v.OrderStatus != nil {
			continue
		}
		if order := matchVendorOrder(v, active); order != nil {
			status := order.Status
			v.OrderStatus = &status
		} else if order := matchVendorOrder(v, completed); order != nil {
			status := order.Status
			v.OrderStatus = &status
		}
	}
	return out
}

func matchVendorOrder(v *entities.VendorParticipation, orders []entities.Order) *entities.Order {
	for i := range orders {
		if v.OrderID != nil && *v.OrderID != 0 && orders[i].Matches(*v.OrderID) {
			return &orders[i]
		}
		if v.OrderNumber != nil && *v.OrderNumber != 0 && orders[i].Matches(*v.OrderNumber) {
			return &orders[i]
		}
	}
	return nil
}

func (e *VendorEnricher) enrichProfile(ctx context.Context, v *entities.VendorParticipation) {
	profile, err := e.profiles.GetProfile(ctx, v.UserID)
	if err != nil {
		log.Printf("[ENRICH] Profile for vendor %d unavailable: %v", v.UserID, err)
		return
	}

	if v.Phone == "" {
		v.Phone = string(profile.MobNum)
	}
	shop := profile.PrimaryShop()
	if shop == nil {
		return
	}
	if v.ShopName == "" {
		v.ShopName = shop.ShopName
	}
	if v.Address == "" {
		v.Address = shop.Address
	}
	if shop.Contact != "" {
		v.Phone = string(shop.Contact)
	}
	if v.ShopLocation == nil && shop.LatLog != "" {
		loc, err := entities.ParseLatLog(shop.LatLog)
		if err != nil {
			log.Printf("[ENRICH] Vendor %d has unusable lat_log %q", v.UserID, shop.LatLog)
			return
		}
		v.ShopLocation = &loc
	}
}

func (e *VendorEnricher) enrichLiveLocation(ctx context.Context, v *entities.VendorParticipation) {
	if !v.ShouldFetchLiveLocation() {
		return
	}
	ref, _ := v.OrderRef()
	v.LiveLocation = e.reconciler.Current(ctx, ref)
}
