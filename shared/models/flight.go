package models

import "time"

// Flight represents a bookable flight as returned by the flight lookup
type Flight struct {
	ID             string    `json:"id"`
	Airline        string    `json:"airline"`
	FlightNumber   string    `json:"flightNumber"`
	Origin         string    `json:"origin"`
	Destination    string    `json:"destination"`
	DepartureTime  time.Time `json:"departureTime"`
	ArrivalTime    time.Time `json:"arrivalTime"`
	BasePrice      float64   `json:"basePrice"`
	CurrentPrice   float64   `json:"currentPrice"`
	TotalSeats     int       `json:"totalSeats"`
	AvailableSeats int       `json:"availableSeats"`
	DemandLevel    string    `json:"demandLevel,omitempty"`
}

// SeatAvailability is one entry of the flight seats lookup
type SeatAvailability struct {
	SeatNumber  string `json:"seatNumber"`
	IsAvailable bool   `json:"isAvailable"`
}

type DemandLevel string

const (
	DemandLow      DemandLevel = "low"
	DemandMedium   DemandLevel = "medium"
	DemandHigh     DemandLevel = "high"
	DemandVeryHigh DemandLevel = "very_high"
)
