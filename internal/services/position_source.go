package services

import (
	"context"
	"sync"

	"scrappickup/internal/domain/entities"
)

type deviceKey struct {
	userID   int64
	userType entities.UserType
}

// ReportedPositions keeps the latest fix each device reported over HTTP and
// serves it to tracking sessions.
type ReportedPositions struct {
	mu        sync.RWMutex
	positions map[deviceKey]entities.Location
}

func NewReportedPositions() *ReportedPositions {
	return &ReportedPositions{positions: make(map[deviceKey]entities.Location)}
}

// Report records a fix. Out-of-range or NaN coordinates are rejected.
func (p *ReportedPositions) Report(userID int64, userType entities.UserType, loc entities.Location) error {
	if err := checkCaller(userID, userType); err != nil {
		return err
	}
	if !loc.IsValid() {
		return ErrInvalidCoordinate
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.positions[deviceKey{userID, userType}] = loc
	return nil
}

func (p *ReportedPositions) CurrentPosition(ctx context.Context, userID int64, userType entities.UserType) (entities.Location, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	loc, ok := p.positions[deviceKey{userID, userType}]
	if !ok {
		return entities.Location{}, ErrNoPosition
	}
	return loc, nil
}
