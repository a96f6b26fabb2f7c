// Package utils provides shared utility functions used across the application.
//
// Go Learning Note — "pkg/" Directory Convention:
// Code under pkg/ is intended to be importable by external projects (unlike
// internal/ which is compiler-enforced private). Distance math and id
// generation live here because both the domain layer and the map builder use
// them, and neither should import the other.
package utils

import (
	"github.com/google/uuid"
)

// GenerateID returns a random UUID v4 string, optionally namespaced with a
// prefix such as "evt" or "trk" so ids are recognizable in logs.
//
// Go Learning Note — "github.com/google/uuid":
// uuid.New() panics only if the system's random source fails, which is why
// it is safe to call without an error return. uuid.NewRandom() is the
// variant that returns the error instead.
func GenerateID(prefix string) string {
	id := uuid.New().String()
	if prefix == "" {
		return id
	}
	return prefix + "-" + id
}
