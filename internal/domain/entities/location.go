package entities

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"scrappickup/pkg/utils"
)

var ErrInvalidLatLog = errors.New("invalid lat_log value")

// Location represents a geographic coordinate pair (latitude/longitude).
//
// Go Learning Note — Value Types vs Reference Types:
// Location is a small, immutable data holder passed by value. Where a
// coordinate is optional (a shop without an address, a request the backend
// has not geocoded) the code uses *Location instead, so "absent" and
// "at 0,0" stay distinguishable.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func NewLocation(lat, lng float64) Location {
	return Location{Latitude: lat, Longitude: lng}
}

// IsFinite reports whether both components are real numbers.
func (l Location) IsFinite() bool {
	return !math.IsNaN(l.Latitude) && !math.IsInf(l.Latitude, 0) &&
		!math.IsNaN(l.Longitude) && !math.IsInf(l.Longitude, 0)
}

// IsValid additionally requires the coordinate to be inside WGS84 bounds.
func (l Location) IsValid() bool {
	return l.IsFinite() &&
		l.Latitude >= -90 && l.Latitude <= 90 &&
		l.Longitude >= -180 && l.Longitude <= 180
}

func (l Location) DistanceKm(other Location) float64 {
	return utils.DistanceKm(l.Latitude, l.Longitude, other.Latitude, other.Longitude)
}

func (l Location) DistanceMeters(other Location) float64 {
	return utils.DistanceMeters(l.Latitude, l.Longitude, other.Latitude, other.Longitude)
}

// ParseLatLog parses the backend's "lat,lng" shop coordinate string.
func ParseLatLog(s string) (Location, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return Location{}, ErrInvalidLatLog
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Location{}, ErrInvalidLatLog
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Location{}, ErrInvalidLatLog
	}
	loc := NewLocation(lat, lng)
	if !loc.IsFinite() {
		return Location{}, ErrInvalidLatLog
	}
	return loc, nil
}

// LiveLocation is a device position reported by a tracked user. It is the
// value stored under location:order:<id> and returned by the location API.
type LiveLocation struct {
	Location
	UserID    int64     `json:"user_id"`
	UserType  UserType  `json:"user_type"`
	OrderID   int64     `json:"order_id"`
	Timestamp time.Time `json:"timestamp"`
}
