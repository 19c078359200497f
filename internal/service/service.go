package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/cx-tal-miterani/flight-booking-flow/internal/booking"
	"github.com/cx-tal-miterani/flight-booking-flow/internal/database"
	"github.com/cx-tal-miterani/flight-booking-flow/internal/pricing"
	"github.com/cx-tal-miterani/flight-booking-flow/internal/seatmap"
	"github.com/cx-tal-miterani/flight-booking-flow/shared/models"
	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("session not found")

// FlightStore is the read side of the database used by the API
type FlightStore interface {
	booking.FlightLookup
	ListUpcomingFlights(ctx context.Context) ([]models.Flight, error)
	GetBookingByPNR(ctx context.Context, pnr string) (*database.Booking, error)
}

// Notifier pushes session updates to connected clients
type Notifier interface {
	BroadcastStageChanged(sessionID, stage string)
	BroadcastSeatsUpdated(sessionID string, seats []string)
	BroadcastBookingConfirmed(sessionID, pnr string)
	BroadcastSubmissionFailed(sessionID, reason string)
	BroadcastSessionClosed(sessionID, reason string)
}

// SessionView is a session snapshot as returned by the API
type SessionView struct {
	ID       string           `json:"sessionId"`
	Traveler booking.Traveler `json:"traveler"`
	booking.View
}

// SessionService manages the live booking wizards, one per traveler
type SessionService interface {
	Fares() []pricing.Fare
	Services() []pricing.Service
	ListFlights(ctx context.Context) ([]models.Flight, error)
	GetFlight(ctx context.Context, flightID string) (*models.Flight, error)
	GetBooking(ctx context.Context, pnr string) (*models.BookingConfirmation, error)

	StartSession(ctx context.Context, traveler booking.Traveler, flightID string) (*SessionView, error)
	GetSession(sessionID string) (*SessionView, error)
	AbandonSession(sessionID string) error
	SelectFare(sessionID string, tier pricing.FareTier) (*SessionView, error)
	SubmitPassenger(sessionID string, details models.PassengerDetails) (*SessionView, error)
	ToggleService(sessionID, serviceID string) (*SessionView, error)
	ContinueFromServices(sessionID string) (*SessionView, error)
	OpenSeatSelection(ctx context.Context, sessionID string) ([]seatmap.Seat, error)
	ToggleSeat(sessionID, seatID string) ([]string, error)
	ApplySeatSelection(sessionID string) (*SessionView, error)
	CancelSeatSelection(sessionID string) (*SessionView, error)
	JumpTo(sessionID string, stage booking.Stage) (*SessionView, error)
	Submit(ctx context.Context, sessionID string) (*booking.ConfirmationView, error)
	Sweep() int
}

type session struct {
	id         string
	controller *booking.Controller
	lastSeen   time.Time

	// serializes mutate so a stage change is observed by exactly one caller
	mu sync.Mutex
}

// sessionServiceImpl implements SessionService
type sessionServiceImpl struct {
	store     FlightStore
	submitter booking.BookingSubmitter
	notifier  Notifier
	opts      booking.Options
	ttl       time.Duration
	now       func() time.Time

	mu         sync.Mutex
	sessions   map[string]*session
	byTraveler map[string]string
}

type Option func(*sessionServiceImpl)

// WithClock overrides the time source used for session expiry
func WithClock(now func() time.Time) Option {
	return func(s *sessionServiceImpl) { s.now = now }
}

// NewSessionService creates a new SessionService
func NewSessionService(store FlightStore, submitter booking.BookingSubmitter, notifier Notifier, opts booking.Options, ttl time.Duration, options ...Option) SessionService {
	svc := &sessionServiceImpl{
		store:      store,
		submitter:  submitter,
		notifier:   notifier,
		opts:       opts,
		ttl:        ttl,
		now:        time.Now,
		sessions:   make(map[string]*session),
		byTraveler: make(map[string]string),
	}
	for _, o := range options {
		o(svc)
	}
	return svc
}

func (s *sessionServiceImpl) Fares() []pricing.Fare {
	return pricing.Fares()
}

func (s *sessionServiceImpl) Services() []pricing.Service {
	return pricing.Services()
}

func (s *sessionServiceImpl) ListFlights(ctx context.Context) ([]models.Flight, error) {
	return s.store.ListUpcomingFlights(ctx)
}

func (s *sessionServiceImpl) GetFlight(ctx context.Context, flightID string) (*models.Flight, error) {
	return s.store.GetFlight(ctx, flightID)
}

func (s *sessionServiceImpl) GetBooking(ctx context.Context, pnr string) (*models.BookingConfirmation, error) {
	b, err := s.store.GetBookingByPNR(ctx, pnr)
	if err != nil {
		return nil, err
	}
	flight, err := s.store.GetFlight(ctx, b.FlightID)
	if err != nil {
		return nil, fmt.Errorf("failed to load flight for booking %s: %w", pnr, err)
	}
	return b.Confirmation(flight), nil
}

// StartSession opens a wizard for the traveler. A live session the traveler
// already has is abandoned first.
func (s *sessionServiceImpl) StartSession(ctx context.Context, traveler booking.Traveler, flightID string) (*SessionView, error) {
	if traveler.ID == "" {
		return nil, errors.New("traveler id is required")
	}

	controller, err := booking.NewController(traveler, s.store, s.submitter, s.opts)
	if err != nil {
		return nil, err
	}
	if err := controller.Start(ctx, flightID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if prevID, ok := s.byTraveler[traveler.ID]; ok {
		if prev, ok := s.sessions[prevID]; ok {
			if err := prev.controller.Abandon(); errors.Is(err, booking.ErrSubmissionInFlight) {
				return nil, err
			}
			delete(s.sessions, prevID)
			s.notifier.BroadcastSessionClosed(prevID, "replaced by a new session")
			log.Printf("Session %s replaced for traveler %s", prevID, traveler.ID)
		}
	}

	sess := &session{
		id:         uuid.New().String(),
		controller: controller,
		lastSeen:   s.now(),
	}
	s.sessions[sess.id] = sess
	s.byTraveler[traveler.ID] = sess.id
	log.Printf("Session %s started for traveler %s on flight %s", sess.id, traveler.ID, flightID)

	return s.view(sess), nil
}

func (s *sessionServiceImpl) lookup(sessionID string) (*session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess.lastSeen = s.now()
	return sess, nil
}

func (s *sessionServiceImpl) view(sess *session) *SessionView {
	return &SessionView{
		ID:       sess.id,
		Traveler: sess.controller.Traveler(),
		View:     sess.controller.Snapshot(),
	}
}

// mutate runs op against the session and announces a stage change
func (s *sessionServiceImpl) mutate(sessionID string, op func(c *booking.Controller) error) (*SessionView, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	before := sess.controller.Stage()
	if err := op(sess.controller); err != nil {
		return nil, err
	}
	if after := sess.controller.Stage(); after != before {
		s.notifier.BroadcastStageChanged(sessionID, after.String())
	}
	return s.view(sess), nil
}

func (s *sessionServiceImpl) GetSession(sessionID string) (*SessionView, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	return s.view(sess), nil
}

func (s *sessionServiceImpl) AbandonSession(sessionID string) error {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return err
	}
	if err := sess.controller.Abandon(); err != nil {
		return err
	}

	s.remove(sess)
	s.notifier.BroadcastSessionClosed(sessionID, "abandoned")
	log.Printf("Session %s abandoned", sessionID)
	return nil
}

func (s *sessionServiceImpl) remove(sess *session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sess.id)
	traveler := sess.controller.Traveler()
	if s.byTraveler[traveler.ID] == sess.id {
		delete(s.byTraveler, traveler.ID)
	}
}

func (s *sessionServiceImpl) SelectFare(sessionID string, tier pricing.FareTier) (*SessionView, error) {
	return s.mutate(sessionID, func(c *booking.Controller) error {
		return c.SelectFare(tier)
	})
}

func (s *sessionServiceImpl) SubmitPassenger(sessionID string, details models.PassengerDetails) (*SessionView, error) {
	return s.mutate(sessionID, func(c *booking.Controller) error {
		return c.SubmitPassenger(details)
	})
}

func (s *sessionServiceImpl) ToggleService(sessionID, serviceID string) (*SessionView, error) {
	return s.mutate(sessionID, func(c *booking.Controller) error {
		return c.ToggleService(serviceID)
	})
}

func (s *sessionServiceImpl) ContinueFromServices(sessionID string) (*SessionView, error) {
	return s.mutate(sessionID, func(c *booking.Controller) error {
		return c.ContinueFromServices()
	})
}

func (s *sessionServiceImpl) OpenSeatSelection(ctx context.Context, sessionID string) ([]seatmap.Seat, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.controller.OpenSeatSelection(ctx)
}

func (s *sessionServiceImpl) ToggleSeat(sessionID, seatID string) ([]string, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	selected, err := sess.controller.ToggleSeat(seatID)
	if err != nil {
		return nil, err
	}
	s.notifier.BroadcastSeatsUpdated(sessionID, selected)
	return selected, nil
}

func (s *sessionServiceImpl) ApplySeatSelection(sessionID string) (*SessionView, error) {
	var applied []string
	view, err := s.mutate(sessionID, func(c *booking.Controller) error {
		var err error
		applied, err = c.ApplySeatSelection()
		return err
	})
	if err != nil {
		return nil, err
	}
	s.notifier.BroadcastSeatsUpdated(sessionID, applied)
	return view, nil
}

func (s *sessionServiceImpl) CancelSeatSelection(sessionID string) (*SessionView, error) {
	return s.mutate(sessionID, func(c *booking.Controller) error {
		return c.CancelSeatSelection()
	})
}

func (s *sessionServiceImpl) JumpTo(sessionID string, stage booking.Stage) (*SessionView, error) {
	return s.mutate(sessionID, func(c *booking.Controller) error {
		return c.JumpTo(stage)
	})
}

func (s *sessionServiceImpl) Submit(ctx context.Context, sessionID string) (*booking.ConfirmationView, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	confirmation, err := sess.controller.ConfirmAndSubmit(ctx)
	if err != nil {
		var subErr *booking.SubmissionError
		if errors.As(err, &subErr) {
			log.Printf("Session %s submission failed: %v", sessionID, err)
			s.notifier.BroadcastSubmissionFailed(sessionID, subErr.Error())
		}
		return nil, err
	}

	log.Printf("Session %s booked as %s", sessionID, confirmation.PNR)
	s.notifier.BroadcastStageChanged(sessionID, booking.StageCompleted.String())
	s.notifier.BroadcastBookingConfirmed(sessionID, confirmation.PNR)
	return confirmation, nil
}

// Sweep drops sessions idle for longer than the TTL. Sessions with a
// submission in flight are kept until it finishes.
func (s *sessionServiceImpl) Sweep() int {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	var expired []*session
	for _, sess := range s.sessions {
		if sess.lastSeen.Before(cutoff) {
			expired = append(expired, sess)
		}
	}
	s.mu.Unlock()

	swept := 0
	for _, sess := range expired {
		err := sess.controller.Abandon()
		if errors.Is(err, booking.ErrSubmissionInFlight) {
			continue
		}
		s.remove(sess)
		s.notifier.BroadcastSessionClosed(sess.id, "expired")
		swept++
	}
	if swept > 0 {
		log.Printf("Swept %d idle sessions", swept)
	}
	return swept
}

// RunSweeper sweeps idle sessions until ctx is done
func RunSweeper(ctx context.Context, svc SessionService, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			svc.Sweep()
		}
	}
}
