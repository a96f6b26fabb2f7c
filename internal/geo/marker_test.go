package geo

import (
	"testing"

	"scrappickup/internal/domain/entities"
)

func f(v float64) *float64 { return &v }
func id(v int64) *int64 { return &v }

func TestBuildMarkers_RequestAndShopAtSamePoint(t *testing.T) {
	request := &entities.BulkRequest{ID: 1, Latitude: f(10), Longitude: f(10), Quantity: 500}
	shop := entities.NewLocation(10, 10)
	vendors := []entities.VendorParticipation{
		{UserID: 5, Status: entities.VendorStatusParticipated, ShopLocation: &shop},
	}

	markers := BuildMarkers(request, vendors)

	if len(markers) != 2 {
		t.Fatalf("expected 2 markers, got %d", len(markers))
	}
	if markers[0].ID != RequestMarkerID || markers[0].PinColor != PinColorRequest {
		t.Errorf("unexpected request marker: %+v", markers[0])
	}
	if markers[1].ID != "vendor-shop-5" || markers[1].PinColor != PinColorVendorShop {
		t.Errorf("unexpected shop marker: %+v", markers[1])
	}
	for _, m := range markers {
		if m.Distance == nil || *m.Distance != 0 {
			t.Errorf("expected distance 0 on %s, got %v", m.ID, m.Distance)
		}
	}
}

func TestBuildMarkers_LiveMarkerOnlyWhenTracking(t *testing.T) {
	request := &entities.BulkRequest{ID: 1, Latitude: f(10), Longitude: f(10)}
	shop := entities.NewLocation(10.1, 10.1)
	live := &entities.LiveLocation{Location: entities.NewLocation(10.05, 10.05)}

	vendors := []entities.VendorParticipation{
		// On the way: shop + live.
		{UserID: 1, Status: entities.VendorStatusPickupStarted, OrderID: id(100), ShopLocation: &shop, LiveLocation: live},
		// Live data present but vendor not started: shop only.
		{UserID: 2, Status: entities.VendorStatusParticipated, OrderID: id(101), ShopLocation: &shop, LiveLocation: live},
		// Started but no live fix yet: shop only.
		{UserID: 3, Status: entities.VendorStatusPickupStarted, OrderID: id(102), ShopLocation: &shop},
		// Nothing known: no marker.
		{UserID: 4},
	}

	markers := BuildMarkers(request, vendors)

	ids := map[string]bool{}
	for _, m := range markers {
		ids[m.ID] = true
	}
	expected := []string{"request", "vendor-shop-1", "vendor-live-1", "vendor-shop-2", "vendor-shop-3"}
	if len(markers) != len(expected) {
		t.Fatalf("expected %d markers, got %d: %+v", len(expected), len(markers), markers)
	}
	for _, e := range expected {
		if !ids[e] {
			t.Errorf("missing marker %s", e)
		}
	}
	if ids["vendor-live-2"] || ids["vendor-live-3"] {
		t.Error("unexpected live marker")
	}
}

func TestBuildMarkers_NoRequestLocation(t *testing.T) {
	shop := entities.NewLocation(10, 10)
	request := &entities.BulkRequest{ID: 1}

	markers := BuildMarkers(request, []entities.VendorParticipation{{UserID: 1, ShopLocation: &shop}})

	if len(markers) != 1 {
		t.Fatalf("expected only the vendor marker, got %d", len(markers))
	}
	if markers[0].Distance != nil {
		t.Error("expected no distance without a request location")
	}
}

func TestBuildMarkers_DoesNotMutateInput(t *testing.T) {
	request := &entities.BulkRequest{ID: 1, Latitude: f(10), Longitude: f(10)}
	shop := entities.NewLocation(11, 11)
	vendors := []entities.VendorParticipation{{UserID: 1, ShopLocation: &shop}}

	BuildMarkers(request, vendors)

	if *vendors[0].ShopLocation != entities.NewLocation(11, 11) || vendors[0].LiveLocation != nil {
		t.Error("BuildMarkers mutated its input")
	}
}
