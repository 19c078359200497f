package models

import "time"

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// PassengerDetails is the traveler record entered in the passenger stage
type PassengerDetails struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"email" validate:"required,contains=@"`
	Phone     string `json:"phone" validate:"required"`
	Age       int    `json:"age" validate:"min=1,max=120"`
	Gender    Gender `json:"gender" validate:"required,oneof=male female other"`
}

// BookingPayload is the request accepted by the booking submission service
type BookingPayload struct {
	IdempotencyKey string           `json:"idempotencyKey"`
	TravelerID     string           `json:"travelerId,omitempty"`
	FlightID       string           `json:"flightId"`
	Passenger      PassengerDetails `json:"passenger"`
	PaymentMethod  string           `json:"paymentMethod"`
	FareTier       string           `json:"fareTier"`
	Services       []string         `json:"services"`
	Seats          []string         `json:"seats"`
	TotalPrice     float64          `json:"totalPrice"`
}

// CreateBookingResponse is the reply of the booking submission service
type CreateBookingResponse struct {
	Success bool                 `json:"success"`
	Booking *BookingConfirmation `json:"booking,omitempty"`
	Error   string               `json:"error,omitempty"`
}

// BookingConfirmation is the record returned once a booking has been created
type BookingConfirmation struct {
	PNR           string           `json:"pnr"`
	FlightID      string           `json:"flightId"`
	Airline       string           `json:"airline"`
	FlightNumber  string           `json:"flightNumber"`
	Origin        string           `json:"origin"`
	Destination   string           `json:"destination"`
	DepartureTime time.Time        `json:"departureTime"`
	ArrivalTime   time.Time        `json:"arrivalTime"`
	Passenger     PassengerDetails `json:"passenger"`
	PaymentMethod string           `json:"paymentMethod"`
	FareTier      string           `json:"fareTier"`
	Services      []string         `json:"services"`
	Seats         []string         `json:"seats"`
	TotalPrice    float64          `json:"totalPrice"`
	TransactionID string           `json:"transactionId"`
	BookedAt      time.Time        `json:"bookedAt"`
}
