package booking

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/cx-tal-miterani/flight-booking-flow/internal/pricing"
	"github.com/cx-tal-miterani/flight-booking-flow/shared/models"
)

// BookingSubmitter is the external booking-creation service
type BookingSubmitter interface {
	CreateBooking(ctx context.Context, payload *models.BookingPayload) (*models.CreateBookingResponse, error)
}

// ConfirmationView is what the traveler sees once the booking exists
type ConfirmationView struct {
	PNR           string                  `json:"pnr"`
	TransactionID string                  `json:"transactionId"`
	BookedAt      time.Time               `json:"bookedAt"`
	FlightID      string                  `json:"flightId"`
	Airline       string                  `json:"airline"`
	FlightNumber  string                  `json:"flightNumber"`
	Origin        string                  `json:"origin"`
	Destination   string                  `json:"destination"`
	DepartureTime time.Time               `json:"departureTime"`
	ArrivalTime   time.Time               `json:"arrivalTime"`
	PassengerName string                  `json:"passengerName"`
	Passenger     models.PassengerDetails `json:"passenger"`
	PaymentMethod string                  `json:"paymentMethod"`
	FareTier      string                  `json:"fareTier"`
	Services      []string                `json:"services"`
	Seats         []string                `json:"seats"`
	TotalPrice    float64                 `json:"totalPrice"`
	TotalDisplay  string                  `json:"totalDisplay"`
}

// Assembler converts a finished draft into the submission payload and the
// submission response into a confirmation view.
type Assembler struct {
	submitter     BookingSubmitter
	paymentMethod string
}

func NewAssembler(submitter BookingSubmitter, paymentMethod string) *Assembler {
	return &Assembler{submitter: submitter, paymentMethod: paymentMethod}
}

// BuildPayload carries the whole draft through, including fare, services and seats
func (a *Assembler) BuildPayload(traveler Traveler, draft Draft, quote pricing.Quote) (*models.BookingPayload, error) {
	if draft.Fare == nil {
		return nil, errors.New("draft has no fare")
	}
	if draft.Passenger == nil {
		return nil, errors.New("draft has no passenger")
	}

	services := make([]string, 0, len(draft.Services))
	services = append(services, draft.Services...)
	seats := make([]string, 0, len(draft.Seats))
	seats = append(seats, draft.Seats...)

	return &models.BookingPayload{
		IdempotencyKey: draft.IdempotencyKey,
		TravelerID:     traveler.ID,
		FlightID:       draft.Flight.ID,
		Passenger:      *draft.Passenger,
		PaymentMethod:  a.paymentMethod,
		FareTier:       string(draft.Fare.Tier),
		Services:       services,
		Seats:          seats,
		TotalPrice:     pricing.Round(quote.Total),
	}, nil
}

// Submit calls the booking service. Every failure is returned as a *SubmissionError.
func (a *Assembler) Submit(ctx context.Context, payload *models.BookingPayload) (*ConfirmationView, error) {
	resp, err := a.submitter.CreateBooking(ctx, payload)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &SubmissionError{Timeout: true, Err: err}
		}
		return nil, &SubmissionError{Err: err}
	}
	if resp == nil {
		return nil, &SubmissionError{Reason: "empty response"}
	}
	if !resp.Success {
		reason := resp.Error
		if reason == "" {
			reason = "booking was not created"
		}
		return nil, &SubmissionError{Reason: reason}
	}
	if resp.Booking == nil {
		return nil, &SubmissionError{Reason: "confirmation missing from response"}
	}
	return NewConfirmationView(resp.Booking), nil
}

func NewConfirmationView(b *models.BookingConfirmation) *ConfirmationView {
	return &ConfirmationView{
		PNR:           b.PNR,
		TransactionID: b.TransactionID,
		BookedAt:      b.BookedAt,
		FlightID:      b.FlightID,
		Airline:       b.Airline,
		FlightNumber:  b.FlightNumber,
		Origin:        b.Origin,
		Destination:   b.Destination,
		DepartureTime: b.DepartureTime,
		ArrivalTime:   b.ArrivalTime,
		PassengerName: fmt.Sprintf("%s %s", b.Passenger.FirstName, b.Passenger.LastName),
		Passenger:     b.Passenger,
		PaymentMethod: b.PaymentMethod,
		FareTier:      b.FareTier,
		Services:      slices.Clone(b.Services),
		Seats:         slices.Clone(b.Seats),
		TotalPrice:    b.TotalPrice,
		TotalDisplay:  pricing.Format(b.TotalPrice),
	}
}
