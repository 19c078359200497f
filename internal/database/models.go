package database

import (
	"time"

	"github.com/cx-tal-miterani/flight-booking-flow/shared/models"
	"github.com/google/uuid"
)

// SeatStatus is the inventory state of a seat row
type SeatStatus string

const (
	SeatStatusAvailable SeatStatus = "available"
	SeatStatusReserved  SeatStatus = "reserved"
)

// BookingStatus represents the status of a stored booking
type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Booking represents a booking row
type Booking struct {
	ID             uuid.UUID
	PNR            string
	IdempotencyKey string
	TravelerID     string
	FlightID       string
	Passenger      models.PassengerDetails
	PaymentMethod  string
	FareTier       string
	Services       []string
	Seats          []string
	TotalPrice     float64
	TransactionID  string
	Status         BookingStatus
	BookedAt       time.Time
}

// Confirmation joins the booking with its flight into the record returned to travelers
func (b *Booking) Confirmation(f *models.Flight) *models.BookingConfirmation {
	c := &models.BookingConfirmation{
		PNR:           b.PNR,
		FlightID:      b.FlightID,
		Passenger:     b.Passenger,
		PaymentMethod: b.PaymentMethod,
		FareTier:      b.FareTier,
		Services:      b.Services,
		Seats:         b.Seats,
		TotalPrice:    b.TotalPrice,
		TransactionID: b.TransactionID,
		BookedAt:      b.BookedAt,
	}
	if f != nil {
		c.Airline = f.Airline
		c.FlightNumber = f.FlightNumber
		c.Origin = f.Origin
		c.Destination = f.Destination
		c.DepartureTime = f.DepartureTime
		c.ArrivalTime = f.ArrivalTime
	}
	return c
}
