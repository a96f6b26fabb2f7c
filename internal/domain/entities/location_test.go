package entities

import (
	"errors"
	"math"
	"testing"
)

func TestParseLatLog(t *testing.T) {
	tests := []struct {
		input    string
		expected Location
		wantErr  bool
	}{
		{"19.0760,72.8777", NewLocation(19.0760, 72.8777), false},
		{" 18.52 , 73.85 ", NewLocation(18.52, 73.85), false},
		{"-33.86,151.2", NewLocation(-33.86, 151.2), false},
		{"", Location{}, true},
		{"19.07", Location{}, true},
		{"a,b", Location{}, true},
		{"1,2,3", Location{}, true},
		{"NaN,1", Location{}, true},
	}

	for _, tt := range tests {
		got, err := ParseLatLog(tt.input)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidLatLog) {
				t.Errorf("ParseLatLog(%q) expected ErrInvalidLatLog, got %v", tt.input, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseLatLog(%q) unexpected error: %v", tt.input, err)
			continue
		}
		if got != tt.expected {
			t.Errorf("ParseLatLog(%q) = %v, expected %v", tt.input, got, tt.expected)
		}
	}
}

func TestLocation_IsValid(t *testing.T) {
	tests := []struct {
		loc      Location
		expected bool
	}{
		{NewLocation(0, 0), true},
		{NewLocation(90, 180), true},
		{NewLocation(-90, -180), true},
		{NewLocation(90.1, 0), false},
		{NewLocation(0, -180.5), false},
		{NewLocation(math.NaN(), 0), false},
		{NewLocation(0, math.Inf(1)), false},
	}

	for _, tt := range tests {
		if got := tt.loc.IsValid(); got != tt.expected {
			t.Errorf("%v.IsValid() = %v, expected %v", tt.loc, got, tt.expected)
		}
	}
}

func TestParseUserType(t *testing.T) {
	for _, s := range []string{"R", "S", "SR", "D"} {
		if _, err := ParseUserType(s); err != nil {
			t.Errorf("ParseUserType(%q) unexpected error: %v", s, err)
		}
	}
	for _, s := range []string{"", "U", "sr", "X"} {
		if _, err := ParseUserType(s); !errors.Is(err, ErrInvalidUserType) {
			t.Errorf("ParseUserType(%q) expected ErrInvalidUserType, got %v", s, err)
		}
	}
	if UserTypeDelivery.CanStartBulkPickup() {
		t.Error("delivery partners must not start bulk pickups")
	}
	if !UserTypeShopRecycle.CanStartBulkPickup() {
		t.Error("SR accounts may start bulk pickups")
	}
}
