package utils

import (
	"math"
	"testing"
)

func TestDistanceKm(t *testing.T) {
	tests := []struct {
		name      string
		lat1      float64
		lon1      float64
		lat2      float64
		lon2      float64
		expected  float64
		tolerance float64
	}{
		{
			name:      "Same location",
			lat1:      19.0760,
			lon1:      72.8777,
			lat2:      19.0760,
			lon2:      72.8777,
			expected:  0,
			tolerance: 0,
		},
		{
			name:      "Mumbai to Pune",
			lat1:      19.0760,
			lon1:      72.8777,
			lat2:      18.5204,
			lon2:      73.8567,
			expected:  120, // approximately 120 km
			tolerance: 5,
		},
		{
			name:      "One degree of latitude",
			lat1:      10,
			lon1:      10,
			lat2:      11,
			lon2:      10,
			expected:  111.19,
			tolerance: 0.1,
		},
		{
			name:      "Antipodal points",
			lat1:      0,
			lon1:      0,
			lat2:      0,
			lon2:      180,
			expected:  math.Pi * EarthRadiusKm,
			tolerance: 0.001,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := DistanceKm(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if math.Abs(result-tt.expected) > tt.tolerance {
				t.Errorf("DistanceKm() = %v, expected %v (+/- %v)", result, tt.expected, tt.tolerance)
			}
		})
	}
}

func TestDistanceKm_Symmetric(t *testing.T) {
	points := [][2]float64{
		{19.0760, 72.8777},
		{-33.8688, 151.2093},
		{51.5074, -0.1278},
		{0, 0},
		{89.9, 179.9},
	}

	for _, a := range points {
		for _, b := range points {
			ab := DistanceKm(a[0], a[1], b[0], b[1])
			ba := DistanceKm(b[0], b[1], a[0], a[1])
			if ab != ba {
				t.Errorf("distance not symmetric for %v/%v: %v vs %v", a, b, ab, ba)
			}
			if ab < 0 || math.IsInf(ab, 0) || math.IsNaN(ab) {
				t.Errorf("expected finite non-negative distance for %v/%v, got %v", a, b, ab)
			}
		}
	}
}

func TestDistanceKm_NaNPropagates(t *testing.T) {
	if d := DistanceKm(math.NaN(), 0, 0, 0); !math.IsNaN(d) {
		t.Errorf("expected NaN, got %v", d)
	}
}

func TestDistanceMeters(t *testing.T) {
	km := DistanceKm(10, 10, 10.001, 10)
	m := DistanceMeters(10, 10, 10.001, 10)
	if math.Abs(m-km*1000) > 1e-9 {
		t.Errorf("DistanceMeters() = %v, expected %v", m, km*1000)
	}
}
