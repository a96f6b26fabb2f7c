package geo

import (
	"math"

	"scrappickup/internal/domain/entities"
)

const (
	RegionPadding = 1.5
	MinRegionSpan = 0.01
	DefaultSpan   = 0.1
)

// Region is the initial viewport for the map renderer.
type Region struct {
	Center         entities.Location `json:"center"`
	LatitudeDelta  float64           `json:"latitudeDelta"`
	LongitudeDelta float64           `json:"longitudeDelta"`
}

// ComputeBoundingRegion centers on the midpoint of the markers' extent and
// pads the span by RegionPadding, never going below MinRegionSpan. With no
// usable markers it returns a DefaultSpan region at the zero coordinate.
func ComputeBoundingRegion(markers []Marker) Region {
	minLat, maxLat := math.Inf(1), math.Inf(-1)
	minLng, maxLng := math.Inf(1), math.Inf(-1)
	count := 0

	for _, m := range markers {
		if !m.Location().IsFinite() {
			continue
		}
		count++
		minLat = math.Min(minLat, m.Latitude)
		maxLat = math.Max(maxLat, m.Latitude)
		minLng = math.Min(minLng, m.Longitude)
		maxLng = math.Max(maxLng, m.Longitude)
	}

	if count == 0 {
		return Region{LatitudeDelta: DefaultSpan, LongitudeDelta: DefaultSpan}
	}

	return Region{
		Center:         entities.NewLocation((minLat+maxLat)/2, (minLng+maxLng)/2),
		LatitudeDelta:  math.Max((maxLat-minLat)*RegionPadding, MinRegionSpan),
		LongitudeDelta: math.Max((maxLng-minLng)*RegionPadding, MinRegionSpan),
	}
}
