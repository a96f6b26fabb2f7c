package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"scrappickup/internal/config"
	"scrappickup/internal/domain/entities"
	"scrappickup/internal/repository/memory"
)

func trackingConfig(statusCheck, storeWrite, backendSave time.Duration) config.TrackingConfig {
	cfg := config.NewDefaultConfig().Tracking
	cfg.StatusCheckInterval = statusCheck
	cfg.RedisUpdateInterval = storeWrite
	cfg.BackendSaveInterval = backendSave
	cfg.MovementThresholdMeters = 200
	return cfg
}

type trackingFixture struct {
	tracker   *TrackingService
	positions *ReportedPositions
	store     *countingStore
	saver     *fakeSaver
	orders    *fakeOrderAPI
}

func setupTracking(t *testing.T, cfg config.TrackingConfig) *trackingFixture {
	t.Helper()
	f := &trackingFixture{
		positions: NewReportedPositions(),
		store:     &countingStore{LocationStore: memory.NewLocationRepository(time.Hour)},
		saver:     &fakeSaver{},
		orders:    newFakeOrderAPI(),
	}
	f.tracker = NewTrackingService(cfg, f.positions, f.store, f.saver, f.orders)
	t.Cleanup(f.tracker.StopAll)
	return f
}

func TestTrackingService_InitialUpdate(t *testing.T) {
	f := setupTracking(t, trackingConfig(time.Hour, time.Hour, time.Hour))
	f.positions.Report(7, entities.UserTypeShop, entities.NewLocation(12.97, 77.59))

	if err := f.tracker.StartTracking(42, 7, entities.UserTypeShop); err != nil {
		t.Fatal(err)
	}

	if !waitFor(t, func() bool { return f.saver.count() == 1 }) {
		t.Fatalf("expected initial backend save, got %d", f.saver.count())
	}
	loc, err := f.store.GetOrderLocation(context.Background(), 42)
	if err != nil || loc == nil {
		t.Fatalf("expected stored order location, got %v, %v", loc, err)
	}
	if loc.UserID != 7 || loc.Latitude != 12.97 {
		t.Errorf("unexpected stored location %+v", loc)
	}
	byUser, _ := f.store.GetUserLocation(context.Background(), 7, entities.UserTypeShop)
	if byUser == nil || byUser.OrderID != 42 {
		t.Errorf("expected user location keyed to order 42, got %+v", byUser)
	}

	if !f.tracker.IsTracking(7, entities.UserTypeShop) {
		t.Error("expected tracking")
	}
	if id, ok := f.tracker.CurrentOrderID(7, entities.UserTypeShop); !ok || id != 42 {
		t.Errorf("expected current order 42, got %d", id)
	}
}

func TestTrackingService_StartReplacesSession(t *testing.T) {
	f := setupTracking(t, trackingConfig(time.Hour, time.Hour, time.Hour))

	f.tracker.StartTracking(1, 7, entities.UserTypeShop)
	first := f.tracker.session(deviceKey{7, entities.UserTypeShop})

	f.tracker.StartTracking(2, 7, entities.UserTypeShop)

	select {
	case <-first.done:
	default:
		t.Fatal("expected previous session to be stopped before the new one starts")
	}
	if id, _ := f.tracker.CurrentOrderID(7, entities.UserTypeShop); id != 2 {
		t.Errorf("expected current order 2, got %d", id)
	}
	f.tracker.mu.Lock()
	n := len(f.tracker.sessions)
	f.tracker.mu.Unlock()
	if n != 1 {
		t.Errorf("expected exactly one session, got %d", n)
	}
}

func TestTrackingService_StartSameOrderIsNoop(t *testing.T) {
	f := setupTracking(t, trackingConfig(time.Hour, time.Hour, time.Hour))

	f.tracker.StartTracking(1, 7, entities.UserTypeShop)
	first := f.tracker.session(deviceKey{7, entities.UserTypeShop})
	f.tracker.StartTracking(1, 7, entities.UserTypeShop)

	if f.tracker.session(deviceKey{7, entities.UserTypeShop}) != first {
		t.Error("expected the running session to be kept")
	}
}

func TestTrackingService_SessionsArePerDevice(t *testing.T) {
	f := setupTracking(t, trackingConfig(time.Hour, time.Hour, time.Hour))

	f.tracker.StartTracking(1, 7, entities.UserTypeShop)
	f.tracker.StartTracking(2, 8, entities.UserTypeRecycler)

	if !f.tracker.IsTracking(7, entities.UserTypeShop) || !f.tracker.IsTracking(8, entities.UserTypeRecycler) {
		t.Error("expected both devices to be tracking")
	}
}

func TestTrackingService_StopIsIdempotent(t *testing.T) {
	f := setupTracking(t, trackingConfig(time.Hour, time.Hour, time.Hour))

	f.tracker.StopTracking(7, entities.UserTypeShop)

	f.tracker.StartTracking(1, 7, entities.UserTypeShop)
	f.tracker.StopTracking(7, entities.UserTypeShop)
	f.tracker.StopTracking(7, entities.UserTypeShop)

	if f.tracker.IsTracking(7, entities.UserTypeShop) {
		t.Error("expected tracking to be stopped")
	}
	if _, ok := f.tracker.CurrentOrderID(7, entities.UserTypeShop); ok {
		t.Error("expected no current order")
	}
}

func TestTrackingService_StopKeepsStoredLocation(t *testing.T) {
	f := setupTracking(t, trackingConfig(time.Hour, time.Hour, time.Hour))
	f.positions.Report(7, entities.UserTypeShop, entities.NewLocation(12.97, 77.59))

	f.tracker.StartTracking(42, 7, entities.UserTypeShop)
	waitFor(t, func() bool { return f.store.count() == 1 })
	f.tracker.StopTracking(7, entities.UserTypeShop)

	loc, _ := f.store.GetOrderLocation(context.Background(), 42)
	if loc == nil {
		t.Error("expected stored location to survive stop")
	}
}

func TestTrackingService_EndsOnTerminalStatus(t *testing.T) {
	f := setupTracking(t, trackingConfig(10*time.Millisecond, time.Hour, time.Hour))

	f.tracker.StartTracking(42, 7, entities.UserTypeShop)

	// An unrelated active pickup and a lookup error both keep the session.
	f.orders.setActiveOne(&entities.Order{OrderID: 99, Status: entities.OrderStatusCompleted})
	time.Sleep(40 * time.Millisecond)
	if !f.tracker.IsTracking(7, entities.UserTypeShop) {
		t.Fatal("expected tracking to continue for an unrelated order")
	}
	f.orders.mu.Lock()
	f.orders.activeOneErr = errBackendDown
	f.orders.mu.Unlock()
	time.Sleep(40 * time.Millisecond)
	if !f.tracker.IsTracking(7, entities.UserTypeShop) {
		t.Fatal("expected tracking to survive status check errors")
	}

	f.orders.mu.Lock()
	f.orders.activeOneErr = nil
	f.orders.activeOne = &entities.Order{OrderID: 42, Status: entities.OrderStatusCompleted}
	f.orders.mu.Unlock()

	if !waitFor(t, func() bool { return !f.tracker.IsTracking(7, entities.UserTypeShop) }) {
		t.Error("expected session to end once the order is completed")
	}
}

func TestTrackingService_BackendSaveRequiresMovement(t *testing.T) {
	f := setupTracking(t, trackingConfig(time.Hour, 10*time.Millisecond, 15*time.Millisecond))
	f.positions.Report(7, entities.UserTypeShop, entities.NewLocation(12.9700, 77.5900))

	f.tracker.StartTracking(42, 7, entities.UserTypeShop)
	waitFor(t, func() bool { return f.saver.count() == 1 })

	// About 11 m north: the store keeps being refreshed, the backend is not.
	f.positions.Report(7, entities.UserTypeShop, entities.NewLocation(12.9701, 77.5900))
	time.Sleep(80 * time.Millisecond)
	if got := f.saver.count(); got != 1 {
		t.Fatalf("expected no backend save below the threshold, got %d saves", got)
	}
	if f.store.count() < 3 {
		t.Errorf("expected periodic store writes, got %d", f.store.count())
	}

	// About 1.1 km north.
	f.positions.Report(7, entities.UserTypeShop, entities.NewLocation(12.9800, 77.5900))
	if !waitFor(t, func() bool { return f.saver.count() >= 2 }) {
		t.Error("expected a backend save after moving past the threshold")
	}
}

func TestTrackingService_StoreRefreshReusesLastPosition(t *testing.T) {
	positions := &flakyPositions{loc: entities.NewLocation(12.97, 77.59)}
	store := &countingStore{LocationStore: memory.NewLocationRepository(time.Hour)}
	tracker := NewTrackingService(trackingConfig(time.Hour, 10*time.Millisecond, time.Hour), positions, store, &fakeSaver{}, newFakeOrderAPI())
	t.Cleanup(tracker.StopAll)

	tracker.StartTracking(42, 7, entities.UserTypeShop)
	waitFor(t, func() bool { return store.count() >= 1 })
	positions.setErr(ErrNoPosition)
	before := store.count()

	if !waitFor(t, func() bool { return store.count() >= before+2 }) {
		t.Errorf("expected the last position to be rewritten, got %d writes", store.count())
	}
}

func TestTrackingService_InvalidCoordinateNeverSaved(t *testing.T) {
	positions := &flakyPositions{loc: entities.NewLocation(95, 77.59)}
	store := &countingStore{LocationStore: memory.NewLocationRepository(time.Hour)}
	saver := &fakeSaver{}
	tracker := NewTrackingService(trackingConfig(time.Hour, 10*time.Millisecond, 10*time.Millisecond), positions, store, saver, newFakeOrderAPI())
	t.Cleanup(tracker.StopAll)

	tracker.StartTracking(42, 7, entities.UserTypeShop)
	time.Sleep(50 * time.Millisecond)

	if store.count() != 0 || saver.count() != 0 {
		t.Errorf("expected nothing saved, got %d store writes and %d saves", store.count(), saver.count())
	}
}

func TestTrackingService_Validation(t *testing.T) {
	f := setupTracking(t, trackingConfig(time.Hour, time.Hour, time.Hour))

	tests := []struct {
		name     string
		orderID  int64
		userID   int64
		userType entities.UserType
		want     error
	}{
		{"missing user", 1, 0, entities.UserTypeShop, ErrMissingUser},
		{"bad user type", 1, 7, entities.UserType("X"), ErrInvalidUserType},
		{"missing order", 0, 7, entities.UserTypeShop, ErrMissingOrderID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.tracker.StartTracking(tt.orderID, tt.userID, tt.userType)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

type flakyPositions struct {
	mu  sync.Mutex
	loc entities.Location
	err error
}

func (p *flakyPositions) setErr(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

func (p *flakyPositions) CurrentPosition(ctx context.Context, userID int64, userType entities.UserType) (entities.Location, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return entities.Location{}, p.err
	}
	return p.loc, nil
}
