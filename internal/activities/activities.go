package activities

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/cx-tal-miterani/flight-booking-flow/internal/database"
	"github.com/cx-tal-miterani/flight-booking-flow/internal/events"
	"github.com/cx-tal-miterani/flight-booking-flow/internal/pricing"
	"github.com/cx-tal-miterani/flight-booking-flow/shared/models"
	"github.com/google/uuid"
	"go.temporal.io/sdk/activity"
)

// DemandShiftProbability is the chance a flight's demand level is rerolled on each refresh
const DemandShiftProbability = 0.1

// Store is the persistence the worker activities need
type Store interface {
	GetFlight(ctx context.Context, flightID string) (*models.Flight, error)
	ListUpcomingFlights(ctx context.Context) ([]models.Flight, error)
	UpdateFlightPricing(ctx context.Context, flightID string, currentPrice float64, demand models.DemandLevel) error
	ReserveSeats(ctx context.Context, holdKey, flightID string, seatNumbers []string) error
	ReleaseSeats(ctx context.Context, holdKey string) error
	SaveBooking(ctx context.Context, b *database.Booking) (*database.Booking, error)
}

// Activities holds the dependencies of the worker activities. Its exported
// methods are registered with Temporal under their method names.
type Activities struct {
	store     Store
	publisher events.Publisher
	engine    *pricing.Engine
	now       func() time.Time
	roll      func() float64
}

type Option func(*Activities)

// WithClock overrides the time source used for pricing and booking timestamps
func WithClock(now func() time.Time) Option {
	return func(a *Activities) { a.now = now }
}

// WithRoll overrides the random source used for demand shifts
func WithRoll(roll func() float64) Option {
	return func(a *Activities) { a.roll = roll }
}

func New(store Store, publisher events.Publisher, engine *pricing.Engine, opts ...Option) *Activities {
	a := &Activities{
		store:     store,
		publisher: publisher,
		engine:    engine,
		now:       time.Now,
		roll:      rand.Float64,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ReserveSeats activity - takes the draft's seats out of inventory
func (a *Activities) ReserveSeats(ctx context.Context, input models.ReserveSeatsInput) (*models.ReserveSeatsResult, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Reserving seats", "holdKey", input.HoldKey, "flightId", input.FlightID, "seats", input.Seats)

	err := a.store.ReserveSeats(ctx, input.HoldKey, input.FlightID, input.Seats)
	if errors.Is(err, database.ErrSeatNotAvailable) {
		logger.Warn("Seat not available", "holdKey", input.HoldKey, "error", err)
		return &models.ReserveSeatsResult{Success: false, Error: err.Error()}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to reserve seats: %w", err)
	}

	logger.Info("Seats reserved successfully", "holdKey", input.HoldKey)
	return &models.ReserveSeatsResult{Success: true}, nil
}

// ReleaseSeats activity - compensation for a booking that could not be confirmed
func (a *Activities) ReleaseSeats(ctx context.Context, input models.ReleaseSeatsInput) error {
	logger := activity.GetLogger(ctx)
	logger.Info("Releasing seats", "holdKey", input.HoldKey, "reason", input.Reason)

	if err := a.store.ReleaseSeats(ctx, input.HoldKey); err != nil {
		return fmt.Errorf("failed to release seats: %w", err)
	}
	return nil
}

// ConfirmBooking activity - stores the booking under a fresh PNR. Saving is
// keyed by the draft's idempotency key, so a retried activity returns the
// booking stored by the first attempt.
func (a *Activities) ConfirmBooking(ctx context.Context, input models.ConfirmBookingInput) (*models.ConfirmBookingResult, error) {
	logger := activity.GetLogger(ctx)
	p := input.Payload
	logger.Info("Confirming booking", "idempotencyKey", p.IdempotencyKey, "flightId", p.FlightID)

	flight, err := a.store.GetFlight(ctx, p.FlightID)
	if errors.Is(err, database.ErrNotFound) {
		return &models.ConfirmBookingResult{Success: false, Error: fmt.Sprintf("flight %s not found", p.FlightID)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load flight: %w", err)
	}

	bookedAt := input.SubmittedAt
	if bookedAt.IsZero() {
		bookedAt = a.now()
	}
	saved, err := a.store.SaveBooking(ctx, &database.Booking{
		PNR:            NewPNR(),
		IdempotencyKey: p.IdempotencyKey,
		TravelerID:     p.TravelerID,
		FlightID:       p.FlightID,
		Passenger:      p.Passenger,
		PaymentMethod:  p.PaymentMethod,
		FareTier:       p.FareTier,
		Services:       p.Services,
		Seats:          p.Seats,
		TotalPrice:     p.TotalPrice,
		TransactionID:  NewTransactionID(),
		BookedAt:       bookedAt.UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save booking: %w", err)
	}

	logger.Info("Booking confirmed", "pnr", saved.PNR, "transactionId", saved.TransactionID)
	return &models.ConfirmBookingResult{Success: true, Booking: saved.Confirmation(flight)}, nil
}

// PublishConfirmation activity - announces the confirmed booking
func (a *Activities) PublishConfirmation(ctx context.Context, booking models.BookingConfirmation) error {
	logger := activity.GetLogger(ctx)
	logger.Info("Publishing booking confirmation", "pnr", booking.PNR)

	if err := a.publisher.PublishBookingConfirmed(ctx, booking); err != nil {
		return fmt.Errorf("failed to publish confirmation: %w", err)
	}
	return nil
}

// RefreshPrices activity - recomputes the dynamic price of every upcoming flight
func (a *Activities) RefreshPrices(ctx context.Context) (*models.PriceRefreshResult, error) {
	logger := activity.GetLogger(ctx)

	flights, err := a.store.ListUpcomingFlights(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list flights: %w", err)
	}

	now := a.now()
	result := &models.PriceRefreshResult{}
	for _, f := range flights {
		demand := models.DemandLevel(f.DemandLevel)
		if a.roll() < DemandShiftProbability {
			demand = pricing.ShiftDemand(a.roll())
		}

		price, factors := a.engine.CurrentPrice(pricing.PriceInput{
			BasePrice:      f.BasePrice,
			TotalSeats:     f.TotalSeats,
			AvailableSeats: f.AvailableSeats,
			DepartureTime:  f.DepartureTime,
			Demand:         demand,
		}, now)
		if price == f.CurrentPrice && string(demand) == f.DemandLevel {
			continue
		}

		if err := a.store.UpdateFlightPricing(ctx, f.ID, price, demand); err != nil {
			return nil, fmt.Errorf("failed to update flight %s: %w", f.ID, err)
		}
		logger.Debug("Flight repriced", "flightId", f.ID, "price", price, "multiplier", factors.Multiplier, "demand", demand)
		result.Updated++
		activity.RecordHeartbeat(ctx, f.ID)
	}

	logger.Info("Prices refreshed", "flights", len(flights), "updated", result.Updated)
	return result, nil
}

// NewPNR returns a six character reservation code
func NewPNR() string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))
	return id[:6]
}

// NewTransactionID returns a payment transaction reference
func NewTransactionID() string {
	return "TXN-" + strings.ToUpper(uuid.New().String()[:8])
}
