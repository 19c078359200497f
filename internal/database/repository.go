package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/cx-tal-miterani/flight-booking-flow/shared/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrSeatNotAvailable = errors.New("seat not available")
)

// Repository handles all database operations
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// --- Flight Operations ---

const flightColumns = `
	id, airline, flight_number, origin, destination, departure_time, arrival_time,
	base_price, current_price, total_seats, available_seats, demand_level`

func scanFlight(row pgx.Row) (*models.Flight, error) {
	var f models.Flight
	err := row.Scan(
		&f.ID, &f.Airline, &f.FlightNumber, &f.Origin, &f.Destination,
		&f.DepartureTime, &f.ArrivalTime, &f.BasePrice, &f.CurrentPrice,
		&f.TotalSeats, &f.AvailableSeats, &f.DemandLevel,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// ListUpcomingFlights returns flights that have not departed yet
func (r *Repository) ListUpcomingFlights(ctx context.Context) ([]models.Flight, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+flightColumns+`
		FROM flights
		WHERE departure_time > NOW()
		ORDER BY departure_time ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query flights: %w", err)
	}
	defer rows.Close()

	var flights []models.Flight
	for rows.Next() {
		f, err := scanFlight(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan flight: %w", err)
		}
		flights = append(flights, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read flights: %w", err)
	}
	return flights, nil
}

// GetFlight returns a flight by ID
func (r *Repository) GetFlight(ctx context.Context, flightID string) (*models.Flight, error) {
	f, err := scanFlight(r.pool.QueryRow(ctx, `SELECT `+flightColumns+` FROM flights WHERE id = $1`, flightID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get flight: %w", err)
	}
	return f, nil
}

// UpdateFlightPricing stores a recomputed dynamic price and demand level
func (r *Repository) UpdateFlightPricing(ctx context.Context, flightID string, currentPrice float64, demand models.DemandLevel) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE flights
		SET current_price = $1, demand_level = $2, updated_at = NOW()
		WHERE id = $3
	`, currentPrice, string(demand), flightID)
	if err != nil {
		return fmt.Errorf("failed to update flight pricing: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Seat Operations ---

// GetSeats returns the availability of every seat of a flight
func (r *Repository) GetSeats(ctx context.Context, flightID string) ([]models.SeatAvailability, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT seat_number, status = 'available'
		FROM seats
		WHERE flight_id = $1
		ORDER BY seat_number
	`, flightID)
	if err != nil {
		return nil, fmt.Errorf("failed to query seats: %w", err)
	}
	defer rows.Close()

	var seats []models.SeatAvailability
	for rows.Next() {
		var s models.SeatAvailability
		if err := rows.Scan(&s.SeatNumber, &s.IsAvailable); err != nil {
			return nil, fmt.Errorf("failed to scan seat: %w", err)
		}
		seats = append(seats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read seats: %w", err)
	}

	if len(seats) == 0 {
		if _, err := r.GetFlight(ctx, flightID); err != nil {
			return nil, err
		}
	}
	return seats, nil
}

// ReserveSeats marks seats as taken by holdKey. Seats already held by the
// same key count as reserved, so a retried call succeeds.
func (r *Repository) ReserveSeats(ctx context.Context, holdKey, flightID string, seatNumbers []string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, seat := range seatNumbers {
		result, err := tx.Exec(ctx, `
			UPDATE seats
			SET status = 'reserved', held_by = $1, updated_at = NOW()
			WHERE flight_id = $2 AND seat_number = $3
			  AND (status = 'available' OR held_by = $1)
		`, holdKey, flightID, seat)
		if err != nil {
			return fmt.Errorf("failed to reserve seat: %w", err)
		}
		if result.RowsAffected() == 0 {
			return fmt.Errorf("%w: %s", ErrSeatNotAvailable, seat)
		}
	}

	if err := refreshAvailableSeats(ctx, tx, flightID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ReleaseSeats frees every seat held by holdKey
func (r *Repository) ReleaseSeats(ctx context.Context, holdKey string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
		WITH released AS (
			UPDATE seats
			SET status = 'available', held_by = NULL, updated_at = NOW()
			WHERE held_by = $1
			RETURNING flight_id
		)
		SELECT DISTINCT flight_id FROM released
	`, holdKey)
	if err != nil {
		return fmt.Errorf("failed to release seats: %w", err)
	}
	flightIDs, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return fmt.Errorf("failed to release seats: %w", err)
	}

	for _, flightID := range flightIDs {
		if err := refreshAvailableSeats(ctx, tx, flightID); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func refreshAvailableSeats(ctx context.Context, tx pgx.Tx, flightID string) error {
	_, err := tx.Exec(ctx, `
		UPDATE flights f
		SET available_seats = (
			SELECT COUNT(*) FROM seats s
			WHERE s.flight_id = f.id AND s.status = 'available'
		), updated_at = NOW()
		WHERE id = $1
	`, flightID)
	if err != nil {
		return fmt.Errorf("failed to update available seats: %w", err)
	}
	return nil
}

// --- Booking Operations ---

const bookingColumns = `
	id, pnr, idempotency_key, traveler_id, flight_id, first_name, last_name, email, phone,
	age, gender, payment_method, fare_tier, services, seats, total_price, transaction_id,
	status, booked_at`

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	var gender, status string
	err := row.Scan(
		&b.ID, &b.PNR, &b.IdempotencyKey, &b.TravelerID, &b.FlightID,
		&b.Passenger.FirstName, &b.Passenger.LastName, &b.Passenger.Email, &b.Passenger.Phone,
		&b.Passenger.Age, &gender, &b.PaymentMethod, &b.FareTier, &b.Services, &b.Seats,
		&b.TotalPrice, &b.TransactionID, &status, &b.BookedAt,
	)
	if err != nil {
		return nil, err
	}
	b.Passenger.Gender = models.Gender(gender)
	b.Status = BookingStatus(status)
	return &b, nil
}

// SaveBooking inserts a booking. When a booking with the same idempotency key
// already exists, the stored one is returned instead.
func (r *Repository) SaveBooking(ctx context.Context, b *Booking) (*Booking, error) {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.Status == "" {
		b.Status = BookingStatusConfirmed
	}
	services := b.Services
	if services == nil {
		services = []string{}
	}
	seats := b.Seats
	if seats == nil {
		seats = []string{}
	}

	saved, err := scanBooking(r.pool.QueryRow(ctx, `
		INSERT INTO bookings (id, pnr, idempotency_key, traveler_id, flight_id, first_name, last_name,
		                      email, phone, age, gender, payment_method, fare_tier, services, seats,
		                      total_price, transaction_id, status, booked_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		ON CONFLICT (idempotency_key) DO NOTHING
		RETURNING `+bookingColumns,
		b.ID, b.PNR, b.IdempotencyKey, b.TravelerID, b.FlightID,
		b.Passenger.FirstName, b.Passenger.LastName, b.Passenger.Email, b.Passenger.Phone,
		b.Passenger.Age, string(b.Passenger.Gender), b.PaymentMethod, b.FareTier, services, seats,
		b.TotalPrice, b.TransactionID, string(b.Status), b.BookedAt,
	))
	if err == nil {
		return saved, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to save booking: %w", err)
	}
	return r.GetBookingByIdempotencyKey(ctx, b.IdempotencyKey)
}

// GetBookingByIdempotencyKey returns the booking created for a draft
func (r *Repository) GetBookingByIdempotencyKey(ctx context.Context, key string) (*Booking, error) {
	b, err := scanBooking(r.pool.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE idempotency_key = $1`, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return b, nil
}

// GetBookingByPNR returns a booking by its reservation code
func (r *Repository) GetBookingByPNR(ctx context.Context, pnr string) (*Booking, error) {
	b, err := scanBooking(r.pool.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE pnr = $1`, pnr))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return b, nil
}
