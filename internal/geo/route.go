package geo

import (
	"math"
	"sort"

	"scrappickup/internal/domain/entities"
)

// RoutePoint is one stop of the hub-and-spoke route drawn on the map.
type RoutePoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Title     string  `json:"title"`
}

// VendorDistance returns the distance from origin to the vendor's current
// position, or +Inf when either end is unknown.
func VendorDistance(v *entities.VendorParticipation, origin *entities.Location) float64 {
	if origin == nil {
		return math.Inf(1)
	}
	pos, ok := v.Position()
	if !ok {
		return math.Inf(1)
	}
	return origin.DistanceKm(pos)
}

// SortByDistance returns a copy of vendors ordered nearest first. Vendors
// without a position sort last and ties keep their input order. Without an
// origin the input order is returned unchanged.
//
// Go Learning Note — sort.SliceStable:
// sort.Slice makes no promise about the relative order of equal elements.
// sort.SliceStable does, at the cost of an extra allocation. Distances are
// computed once up front so the comparator stays cheap.
func SortByDistance(vendors []entities.VendorParticipation, origin *entities.Location) []entities.VendorParticipation {
	sorted := make([]entities.VendorParticipation, len(vendors))
	copy(sorted, vendors)
	if origin == nil {
		return sorted
	}

	type keyed struct {
		vendor   entities.VendorParticipation
		distance float64
	}
	items := make([]keyed, len(sorted))
	for i := range sorted {
		items[i] = keyed{vendor: sorted[i], distance: VendorDistance(&sorted[i], origin)}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].distance < items[j].distance
	})

	for i := range items {
		sorted[i] = items[i].vendor
	}
	return sorted
}

// BuildRoutePoints starts at the request and visits every positioned vendor
// in the order given, which callers obtain from SortByDistance. It is a
// display aid, not an optimised tour.
func BuildRoutePoints(request *entities.BulkRequest, sortedVendors []entities.VendorParticipation) []RoutePoint {
	points := make([]RoutePoint, 0, len(sortedVendors)+1)

	if request != nil {
		if loc, ok := request.PickupLocation(); ok {
			points = append(points, RoutePoint{
				Latitude:  loc.Latitude,
				Longitude: loc.Longitude,
				Title:     "Pickup Location",
			})
		}
	}

	for i := range sortedVendors {
		v := &sortedVendors[i]
		pos, ok := v.Position()
		if !ok {
			continue
		}
		points = append(points, RoutePoint{
			Latitude:  pos.Latitude,
			Longitude: pos.Longitude,
			Title:     vendorName(v),
		})
	}

	return points
}
