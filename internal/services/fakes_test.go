package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"scrappickup/internal/client"
	"scrappickup/internal/domain/entities"
	"scrappickup/internal/events"
	"scrappickup/internal/repository"
	"scrappickup/internal/repository/memory"
)

var errBackendDown = errors.New("backend down")

func f64(v float64) *float64 { return &v }
func i64(v int64) *int64     { return &v }

func statusPtr(s entities.OrderStatus) *entities.OrderStatus { return &s }

// fakeOrderAPI simulates the order backend: actions advance the stored order.
type fakeOrderAPI struct {
	mu           sync.Mutex
	active       []entities.Order
	completed    []entities.Order
	activeOne    *entities.Order
	actionErr    error
	listErr      error
	activeOneErr error
	calls        map[string]int
	payments     []entities.PaymentDetail
}

func newFakeOrderAPI(active ...entities.Order) *fakeOrderAPI {
	return &fakeOrderAPI{active: active, calls: make(map[string]int)}
}

func (f *fakeOrderAPI) callCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeOrderAPI) advance(name string, orderID int64, next entities.OrderStatus) (*client.PickupActionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
	if f.actionErr != nil {
		return nil, f.actionErr
	}
	for i := range f.active {
		if !f.active[i].Matches(orderID) {
			continue
		}
		f.active[i].Status = next
		o := f.active[i]
		if next == entities.OrderStatusCompleted {
			f.active = append(f.active[:i], f.active[i+1:]...)
			f.completed = append(f.completed, o)
		}
		return &client.PickupActionResult{OrderID: o.OrderID, OrderNumber: o.OrderNumber, Status: next}, nil
	}
	return &client.PickupActionResult{OrderID: orderID, Status: next}, nil
}

func (f *fakeOrderAPI) StartPickup(ctx context.Context, orderID, userID int64, userType entities.UserType) (*client.PickupActionResult, error) {
	return f.advance("start", orderID, entities.OrderStatusPickupStarted)
}

func (f *fakeOrderAPI) ArrivedLocation(ctx context.Context, orderID, userID int64, userType entities.UserType) (*client.PickupActionResult, error) {
	return f.advance("arrive", orderID, entities.OrderStatusArrived)
}

func (f *fakeOrderAPI) CompletePickup(ctx context.Context, orderID, userID int64, userType entities.UserType, payments []entities.PaymentDetail) (*client.PickupActionResult, error) {
	f.mu.Lock()
	f.payments = payments
	f.mu.Unlock()
	return f.advance("complete", orderID, entities.OrderStatusCompleted)
}

func (f *fakeOrderAPI) GetActivePickups(ctx context.Context, userID int64, userType entities.UserType) ([]entities.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["list-active"]++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]entities.Order(nil), f.active...), nil
}

func (f *fakeOrderAPI) GetCompletedPickups(ctx context.Context, userID int64, userType entities.UserType) ([]entities.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["list-completed"]++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]entities.Order(nil), f.completed...), nil
}

func (f *fakeOrderAPI) GetActivePickup(ctx context.Context, userID int64, userType entities.UserType) (*entities.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.activeOneErr != nil {
		return nil, f.activeOneErr
	}
	if f.activeOne == nil {
		return nil, nil
	}
	o := *f.activeOne
	return &o, nil
}

func (f *fakeOrderAPI) setActiveOne(o *entities.Order) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.activeOne = o
}

type removal struct {
	requestID, vendorID int64
	reason              string
}

type fakeBulkAPI struct {
	mu        sync.Mutex
	requests  []entities.BulkRequest
	actionErr error
	calls     map[string]int
	removals  []removal
	statuses  []entities.BuyerStatus
}

func newFakeBulkAPI(requests ...entities.BulkRequest) *fakeBulkAPI {
	return &fakeBulkAPI{requests: requests, calls: make(map[string]int)}
}

func (f *fakeBulkAPI) callCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeBulkAPI) find(id int64) *entities.BulkRequest {
	for i := range f.requests {
		if f.requests[i].ID == id {
			return &f.requests[i]
		}
	}
	return nil
}

func (f *fakeBulkAPI) GetBulkRequestsByBuyer(ctx context.Context, buyerID int64) ([]entities.BulkRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["list"]++
	var out []entities.BulkRequest
	for i := range f.requests {
		if f.requests[i].BuyerID == buyerID {
			out = append(out, *f.requests[i].Clone())
		}
	}
	return out, nil
}

func (f *fakeBulkAPI) StartBulkPickup(ctx context.Context, requestID, buyerID int64, userType entities.UserType) (*client.BulkStartResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["start"]++
	if f.actionErr != nil {
		return nil, f.actionErr
	}
	req := f.find(requestID)
	for i := range req.AcceptedVendors {
		req.AcceptedVendors[i].OrderID = i64(requestID*100 + int64(i))
		req.AcceptedVendors[i].OrderStatus = statusPtr(entities.OrderStatusAccepted)
	}
	return &client.BulkStartResult{RequestID: requestID, OrdersCreated: len(req.AcceptedVendors)}, nil
}

func (f *fakeBulkAPI) RemoveVendor(ctx context.Context, requestID, buyerID, vendorID int64, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["remove"]++
	if f.actionErr != nil {
		return f.actionErr
	}
	f.removals = append(f.removals, removal{requestID, vendorID, reason})
	return nil
}

func (f *fakeBulkAPI) UpdateBuyerStatus(ctx context.Context, requestID, buyerID int64, status entities.BuyerStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["buyer-status"]++
	if f.actionErr != nil {
		return f.actionErr
	}
	f.statuses = append(f.statuses, status)
	if req := f.find(requestID); req != nil {
		req.BuyerStatus = status
	}
	return nil
}

type fakeProfileAPI struct {
	profiles map[int64]*client.Profile
}

func (f *fakeProfileAPI) GetProfile(ctx context.Context, userID int64) (*client.Profile, error) {
	p, ok := f.profiles[userID]
	if !ok {
		return nil, errBackendDown
	}
	return p, nil
}

type fakeLocationSource struct {
	mu    sync.Mutex
	locs  map[int64]*entities.LiveLocation
	err   error
	polls int
}

func newFakeLocationSource() *fakeLocationSource {
	return &fakeLocationSource{locs: make(map[int64]*entities.LiveLocation)}
}

func (f *fakeLocationSource) set(orderID int64, lat, lng float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.locs[orderID] = &entities.LiveLocation{Location: entities.NewLocation(lat, lng), OrderID: orderID}
}

func (f *fakeLocationSource) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeLocationSource) pollCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.polls
}

func (f *fakeLocationSource) GetLocationByOrder(ctx context.Context, orderID int64) (*entities.LiveLocation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.polls++
	if f.err != nil {
		return nil, f.err
	}
	loc, ok := f.locs[orderID]
	if !ok {
		return nil, nil
	}
	out := *loc
	return &out, nil
}

type fakeSaver struct {
	mu    sync.Mutex
	saved []entities.LiveLocation
}

func (f *fakeSaver) SaveLocation(ctx context.Context, loc *entities.LiveLocation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, *loc)
	return nil
}

func (f *fakeSaver) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saved)
}

type countingStore struct {
	repository.LocationStore
	mu     sync.Mutex
	writes int
}

func (c *countingStore) SaveLiveLocation(ctx context.Context, loc *entities.LiveLocation) error {
	c.mu.Lock()
	c.writes++
	c.mu.Unlock()
	return c.LocationStore.SaveLiveLocation(ctx, loc)
}

func (c *countingStore) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writes
}

type fakePublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *fakePublisher) Publish(ctx context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *fakePublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

func waitFor(t *testing.T, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

// testEnv wires every service against fakes.
type testEnv struct {
	orders     *fakeOrderAPI
	bulk       *fakeBulkAPI
	profiles   *fakeProfileAPI
	locations  *fakeLocationSource
	positions  *ReportedPositions
	store      *countingStore
	saver      *fakeSaver
	publisher  *fakePublisher
	locks      *memory.LockManager
	cache      *memory.QueryCache
	queries    *QueryService
	tracker    *TrackingService
	reconciler *LocationReconciler
	enricher   *VendorEnricher
	pickup     *PickupService
	maps       *MapService
}

func newTestEnv(t *testing.T, orders *fakeOrderAPI, bulk *fakeBulkAPI) *testEnv {
	t.Helper()
	if orders == nil {
		orders = newFakeOrderAPI()
	}
	if bulk == nil {
		bulk = newFakeBulkAPI()
	}

	env := &testEnv{
		orders:    orders,
		bulk:      bulk,
		profiles:  &fakeProfileAPI{profiles: make(map[int64]*client.Profile)},
		locations: newFakeLocationSource(),
		positions: NewReportedPositions(),
		store:     &countingStore{LocationStore: memory.NewLocationRepository(time.Hour)},
		saver:     &fakeSaver{},
		publisher: &fakePublisher{},
		locks:     memory.NewLockManager(time.Minute),
		cache:     memory.NewQueryCache(0),
	}
	t.Cleanup(env.locks.Stop)

	env.queries = NewQueryService(orders, bulk, env.cache)
	env.tracker = NewTrackingService(
		trackingConfig(time.Hour, time.Hour, time.Hour),
		env.positions, env.store, env.saver, orders,
	)
	t.Cleanup(env.tracker.StopAll)
	env.reconciler = NewLocationReconciler(env.locations, 20*time.Millisecond)
	env.enricher = NewVendorEnricher(env.profiles, env.queries, env.reconciler, 4)
	env.pickup = NewPickupService(
		orders, bulk, env.queries, env.enricher, env.reconciler, env.tracker,
		env.locks, NewNotificationService(env.publisher), time.Minute,
	)
	env.maps = NewMapService(env.queries, env.enricher, env.reconciler, env.tracker)
	return env
}
