package models

import "time"

// Workflow and activity names shared by the API server and the worker
const (
	WorkflowBooking      = "BookingWorkflow"
	WorkflowPriceRefresh = "PriceRefreshWorkflow"

	ActivityReserveSeats        = "ReserveSeats"
	ActivityReleaseSeats        = "ReleaseSeats"
	ActivityConfirmBooking      = "ConfirmBooking"
	ActivityPublishConfirmation = "PublishConfirmation"
	ActivityRefreshPrices       = "RefreshPrices"
)

// BookingWorkflowInput is the input of the booking workflow
type BookingWorkflowInput struct {
	Payload     BookingPayload `json:"payload"`
	SubmittedAt time.Time      `json:"submittedAt"`
}

// BookingWorkflowResult is the outcome of the booking workflow
type BookingWorkflowResult struct {
	Success       bool                 `json:"success"`
	Booking       *BookingConfirmation `json:"booking,omitempty"`
	FailureReason string               `json:"failureReason,omitempty"`
}

// PriceRefreshResult reports how many flights were repriced
type PriceRefreshResult struct {
	Updated int `json:"updated"`
}

// ReserveSeatsInput holds the seats of a draft under its idempotency key
type ReserveSeatsInput struct {
	HoldKey  string   `json:"holdKey"`
	FlightID string   `json:"flightId"`
	Seats    []string `json:"seats"`
}

// ReserveSeatsResult is the result of seat reservation
type ReserveSeatsResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// ReleaseSeatsInput frees the seats held under HoldKey
type ReleaseSeatsInput struct {
	HoldKey string `json:"holdKey"`
	Reason  string `json:"reason"`
}

// ConfirmBookingInput persists a submitted draft
type ConfirmBookingInput struct {
	Payload     BookingPayload `json:"payload"`
	SubmittedAt time.Time      `json:"submittedAt"`
}

// ConfirmBookingResult is the result of booking confirmation
type ConfirmBookingResult struct {
	Success bool                 `json:"success"`
	Booking *BookingConfirmation `json:"booking,omitempty"`
	Error   string               `json:"error,omitempty"`
}
