package services

import (
	"context"
	"log"
	"sync"
	"time"

	"scrappickup/internal/config"
	"scrappickup/internal/domain/entities"
	"scrappickup/internal/repository"
	"scrappickup/pkg/utils"
)

// trackingSession is one device reporting its position against one subject
// (an order id, or a bulk request id used as a pseudo order id). A session
// is never mutated into another subject: starting a new subject replaces the
// session object.
type trackingSession struct {
	id       string
	orderID  int64
	userID   int64
	userType entities.UserType

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	// Owned by the session goroutine.
	lastWritten *entities.Location
	lastSaved   *entities.Location
}

func (s *trackingSession) stop() {
	s.cancel()
	<-s.done
}

// TrackingService runs the write side of live tracking: at most one session
// per device, each writing the device position to the location store and,
// less often, to the backend.
//
// A session runs three tickers:
//   - status check: asks the order API for the user's active pickup and ends
//     the session once the tracked order is terminal
//   - store write: always rewrites the position (refreshing the key TTL)
//   - backend save: saves only when the device moved past the threshold
//
// Go Learning Note — Two Mutexes:
// opMu serializes Start/Stop so a replaced session is fully stopped before
// its successor begins. mu only guards the sessions map. A session that ends
// itself takes mu (never opMu) to unregister, so Stop can wait for it to
// exit while holding opMu without deadlocking.
type TrackingService struct {
	cfg       config.TrackingConfig
	positions PositionSource
	store     repository.LocationStore
	saver     LocationSaver
	orders    ActivePickupChecker

	opMu     sync.Mutex
	mu       sync.Mutex
	sessions map[deviceKey]*trackingSession
}

func NewTrackingService(
	cfg config.TrackingConfig,
	positions PositionSource,
	store repository.LocationStore,
	saver LocationSaver,
	orders ActivePickupChecker,
) *TrackingService {
	def := config.NewDefaultConfig().Tracking
	if cfg.StatusCheckInterval <= 0 {
		cfg.StatusCheckInterval = def.StatusCheckInterval
	}
	if cfg.RedisUpdateInterval <= 0 {
		cfg.RedisUpdateInterval = def.RedisUpdateInterval
	}
	if cfg.BackendSaveInterval <= 0 {
		cfg.BackendSaveInterval = def.BackendSaveInterval
	}
	return &TrackingService{
		cfg:       cfg,
		positions: positions,
		store:     store,
		saver:     saver,
		orders:    orders,
		sessions:  make(map[deviceKey]*trackingSession),
	}
}

// StartTracking begins reporting the device position against orderID. If the
// device already tracks another subject that session is stopped first; if it
// already tracks orderID this is a no-op.
func (s *TrackingService) StartTracking(orderID, userID int64, userType entities.UserType) error {
	if err := checkCaller(userID, userType); err != nil {
		return err
	}
	if orderID <= 0 {
		return ErrMissingOrderID
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	key := deviceKey{userID, userType}
	if prev := s.session(key); prev != nil {
		if prev.orderID == orderID {
			return nil
		}
		log.Printf("[TRACKING] User %d switching from order %d to %d", userID, prev.orderID, orderID)
		prev.stop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	sess := &trackingSession{
		id:       utils.GenerateID("trk"),
		orderID:  orderID,
		userID:   userID,
		userType: userType,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	s.mu.Lock()
	s.sessions[key] = sess
	s.mu.Unlock()

	log.Printf("[TRACKING] Session %s started for order %d (user %d, %s)", sess.id, orderID, userID, userType)
	go s.run(sess)
	return nil
}

// StopTracking ends the device's session. Stored positions are left to
// expire on their own TTL.
func (s *TrackingService) StopTracking(userID int64, userType entities.UserType) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if sess := s.session(deviceKey{userID, userType}); sess != nil {
		sess.stop()
		log.Printf("[TRACKING] Session %s stopped for order %d", sess.id, sess.orderID)
	}
}

// StopAll ends every session; used on shutdown.
func (s *TrackingService) StopAll() {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	all := make([]*trackingSession, 0, len(s.sessions))
	for _, sess := range s.sessions {
		all = append(all, sess)
	}
	s.mu.Unlock()

	for _, sess := range all {
		sess.stop()
	}
}

func (s *TrackingService) IsTracking(userID int64, userType entities.UserType) bool {
	return s.session(deviceKey{userID, userType}) != nil
}

func (s *TrackingService) CurrentOrderID(userID int64, userType entities.UserType) (int64, bool) {
	sess := s.session(deviceKey{userID, userType})
	if sess == nil {
		return 0, false
	}
	return sess.orderID, true
}

// StoredPosition reads back the position the device's session last wrote to
// the location store. Returns (nil, nil) once the key has expired.
func (s *TrackingService) StoredPosition(ctx context.Context, userID int64, userType entities.UserType) (*entities.LiveLocation, error) {
	if err := checkCaller(userID, userType); err != nil {
		return nil, err
	}
	return s.store.GetUserLocation(ctx, userID, userType)
}

func (s *TrackingService) session(key deviceKey) *trackingSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[key]
}

// release unregisters sess if it is still the device's current session.
func (s *TrackingService) release(sess *trackingSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := deviceKey{sess.userID, sess.userType}
	if s.sessions[key] == sess {
		delete(s.sessions, key)
	}
}

func (s *TrackingService) run(sess *trackingSession) {
	defer close(sess.done)
	defer s.release(sess)

	s.initialUpdate(sess)

	statusTicker := time.NewTicker(s.cfg.StatusCheckInterval)
	defer statusTicker.Stop()
	storeTicker := time.NewTicker(s.cfg.RedisUpdateInterval)
	defer storeTicker.Stop()
	saveTicker := time.NewTicker(s.cfg.BackendSaveInterval)
	defer saveTicker.Stop()

	for {
		select {
		case <-sess.ctx.Done():
			return
		case <-statusTicker.C:
			if s.orderEnded(sess) {
				log.Printf("[TRACKING] Order %d reached a terminal status, session %s ending", sess.orderID, sess.id)
				return
			}
		case <-storeTicker.C:
			s.refreshStore(sess)
		case <-saveTicker.C:
			s.saveIfMoved(sess)
		}
	}
}

func (s *TrackingService) currentPosition(sess *trackingSession) (entities.Location, bool) {
	pos, err := s.positions.CurrentPosition(sess.ctx, sess.userID, sess.userType)
	if err != nil {
		log.Printf("[TRACKING] No position for user %d: %v", sess.userID, err)
		return entities.Location{}, false
	}
	if !pos.IsValid() {
		log.Printf("[TRACKING] Ignoring invalid coordinate (%v, %v) for user %d", pos.Latitude, pos.Longitude, sess.userID)
		return entities.Location{}, false
	}
	return pos, true
}

func (s *TrackingService) initialUpdate(sess *trackingSession) {
	pos, ok := s.currentPosition(sess)
	if !ok {
		return
	}
	s.writeStore(sess, pos)
	s.saveBackend(sess, pos)
}

// refreshStore writes the current position, or the last written one when the
// device has no fresh fix, so the stored key never lapses mid-pickup.
func (s *TrackingService) refreshStore(sess *trackingSession) {
	if pos, ok := s.currentPosition(sess); ok {
		s.writeStore(sess, pos)
		return
	}
	if sess.lastWritten != nil {
		s.writeStore(sess, *sess.lastWritten)
	}
}

func (s *TrackingService) saveIfMoved(sess *trackingSession) {
	pos, ok := s.currentPosition(sess)
	if !ok {
		return
	}
	if sess.lastSaved != nil {
		moved := sess.lastSaved.DistanceMeters(pos)
		if moved < s.cfg.MovementThresholdMeters {
			s.writeStore(sess, pos)
			return
		}
	}
	s.writeStore(sess, pos)
	s.saveBackend(sess, pos)
}

func (s *TrackingService) liveLocation(sess *trackingSession, pos entities.Location) *entities.LiveLocation {
	return &entities.LiveLocation{
		Location:  pos,
		UserID:    sess.userID,
		UserType:  sess.userType,
		OrderID:   sess.orderID,
		Timestamp: time.Now().UTC(),
	}
}

func (s *TrackingService) writeStore(sess *trackingSession, pos entities.Location) {
	if err := s.store.SaveLiveLocation(sess.ctx, s.liveLocation(sess, pos)); err != nil {
		log.Printf("[TRACKING] Store write failed for order %d: %v", sess.orderID, err)
		return
	}
	sess.lastWritten = &pos
}

func (s *TrackingService) saveBackend(sess *trackingSession, pos entities.Location) {
	if err := s.saver.SaveLocation(sess.ctx, s.liveLocation(sess, pos)); err != nil {
		log.Printf("[TRACKING] Backend save failed for order %d: %v", sess.orderID, err)
		return
	}
	sess.lastSaved = &pos
}

// orderEnded reports whether the user's active pickup is the tracked order
// and has reached a terminal status. Lookup errors and a missing active
// pickup keep the session alive.
func (s *TrackingService) orderEnded(sess *trackingSession) bool {
	order, err := s.orders.GetActivePickup(sess.ctx, sess.userID, sess.userType)
	if err != nil {
		log.Printf("[TRACKING] Status check failed for order %d: %v", sess.orderID, err)
		return false
	}
	if order == nil || !order.Matches(sess.orderID) {
		return false
	}
	return order.Status.IsTerminal()
}
