// Package geo projects bulk-request state into render-ready map geometry:
// markers, a hub-and-spoke route and the region that frames them.
//
// Go Learning Note — Pure Projections:
// Nothing in this package mutates its inputs. Every builder takes values (or
// pointers it only reads) and returns fresh slices, so callers can rebuild the
// map on every refresh without worrying about aliasing between snapshots.
package geo

import (
	"fmt"

	"scrappickup/internal/domain/entities"
)

const (
	RequestMarkerID = "request"

	PinColorRequest    = "#FF6B6B"
	PinColorVendorShop = "#4ECDC4"
	PinColorVendorLive = "#FFD93D"
)

// Marker is a single pin handed to the map renderer.
type Marker struct {
	ID          string   `json:"id"`
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	PinColor    string   `json:"pinColor,omitempty"`
	Distance    *float64 `json:"distance,omitempty"`
}

func (m Marker) Location() entities.Location {
	return entities.NewLocation(m.Latitude, m.Longitude)
}

func ShopMarkerID(vendorID int64) string {
	return fmt.Sprintf("vendor-shop-%d", vendorID)
}

func LiveMarkerID(vendorID int64) string {
	return fmt.Sprintf("vendor-live-%d", vendorID)
}

// BuildMarkers returns one marker for the request location (when known) and
// up to two per vendor: the shop address and, while the vendor is on the
// way, its live position. Each marker carries its distance to the request
// when both ends are known.
func BuildMarkers(request *entities.BulkRequest, vendors []entities.VendorParticipation) []Marker {
	markers := make([]Marker, 0, 1+2*len(vendors))

	var origin *entities.Location
	if request != nil {
		if loc, ok := request.PickupLocation(); ok {
			origin = &loc
			markers = append(markers, Marker{
				ID:          RequestMarkerID,
				Latitude:    loc.Latitude,
				Longitude:   loc.Longitude,
				Title:       "Pickup Location",
				Description: requestDescription(request),
				PinColor:    PinColorRequest,
				Distance:    distanceFrom(origin, loc),
			})
		}
	}

	for i := range vendors {
		v := &vendors[i]
		name := vendorName(v)

		if v.ShopLocation != nil && v.ShopLocation.IsFinite() {
			markers = append(markers, Marker{
				ID:          ShopMarkerID(v.UserID),
				Latitude:    v.ShopLocation.Latitude,
				Longitude:   v.ShopLocation.Longitude,
				Title:       name,
				Description: v.Address,
				PinColor:    PinColorVendorShop,
				Distance:    distanceFrom(origin, *v.ShopLocation),
			})
		}

		if v.ShouldFetchLiveLocation() && v.LiveLocation != nil && v.LiveLocation.IsFinite() {
			markers = append(markers, Marker{
				ID:          LiveMarkerID(v.UserID),
				Latitude:    v.LiveLocation.Latitude,
				Longitude:   v.LiveLocation.Longitude,
				Title:       name + " (Live)",
				Description: string(v.EffectiveStatus()),
				PinColor:    PinColorVendorLive,
				Distance:    distanceFrom(origin, v.LiveLocation.Location),
			})
		}
	}

	return markers
}

func distanceFrom(origin *entities.Location, to entities.Location) *float64 {
	if origin == nil {
		return nil
	}
	d := origin.DistanceKm(to)
	return &d
}

func vendorName(v *entities.VendorParticipation) string {
	if v.ShopName != "" {
		return v.ShopName
	}
	return fmt.Sprintf("Vendor %d", v.UserID)
}

func requestDescription(r *entities.BulkRequest) string {
	if r.ScrapType != "" {
		return fmt.Sprintf("%s, %.0f kg", r.ScrapType, r.Quantity)
	}
	return fmt.Sprintf("%.0f kg requested", r.Quantity)
}
