package workflows

import (
	"time"

	"github.com/cx-tal-miterani/flight-booking-flow/shared/models"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

const (
	// ActivityTimeout bounds every booking activity attempt
	ActivityTimeout = 30 * time.Second
	// MaxActivityAttempts is how often a failing booking activity is retried
	MaxActivityAttempts = 3
	// MaxPublishAttempts is how often publishing the confirmation is retried
	MaxPublishAttempts = 5
)

// BookingWorkflow reserves the draft's seats, stores the booking and publishes
// the confirmation. When the booking cannot be stored the reserved seats are
// released again. The workflow ID is derived from the draft's idempotency
// key, so a draft is booked at most once.
func BookingWorkflow(ctx workflow.Context, input models.BookingWorkflowInput) (*models.BookingWorkflowResult, error) {
	logger := workflow.GetLogger(ctx)
	payload := input.Payload
	logger.Info("Booking workflow started", "idempotencyKey", payload.IdempotencyKey, "flightId", payload.FlightID)

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: ActivityTimeout,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    MaxActivityAttempts,
		},
	})

	seatsReserved := false
	if len(payload.Seats) > 0 {
		var reserved models.ReserveSeatsResult
		err := workflow.ExecuteActivity(ctx, models.ActivityReserveSeats, models.ReserveSeatsInput{
			HoldKey:  payload.IdempotencyKey,
			FlightID: payload.FlightID,
			Seats:    payload.Seats,
		}).Get(ctx, &reserved)
		if err != nil {
			logger.Error("Seat reservation failed", "error", err)
			// a failed attempt may have committed before timing out
			releaseSeats(ctx, payload.IdempotencyKey, "reserve_failed")
			return &models.BookingWorkflowResult{Success: false, FailureReason: "seat reservation failed"}, nil
		}
		if !reserved.Success {
			logger.Info("Seats not available", "reason", reserved.Error)
			return &models.BookingWorkflowResult{Success: false, FailureReason: reserved.Error}, nil
		}
		seatsReserved = true
	}

	var confirmed models.ConfirmBookingResult
	err := workflow.ExecuteActivity(ctx, models.ActivityConfirmBooking, models.ConfirmBookingInput{
		Payload:     payload,
		SubmittedAt: input.SubmittedAt,
	}).Get(ctx, &confirmed)
	if err != nil || !confirmed.Success {
		reason := confirmed.Error
		if err != nil {
			logger.Error("Booking confirmation failed", "error", err)
			reason = "booking could not be stored"
		}
		if seatsReserved {
			releaseSeats(ctx, payload.IdempotencyKey, "confirm_failed")
		}
		return &models.BookingWorkflowResult{Success: false, FailureReason: reason}, nil
	}

	publishCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumAttempts:    MaxPublishAttempts,
		},
	})
	err = workflow.ExecuteActivity(publishCtx, models.ActivityPublishConfirmation, *confirmed.Booking).Get(ctx, nil)
	if err != nil {
		// the booking is stored; a missing event must not undo it
		logger.Warn("Failed to publish booking confirmation", "pnr", confirmed.Booking.PNR, "error", err)
	}

	logger.Info("Booking workflow completed", "pnr", confirmed.Booking.PNR)
	return &models.BookingWorkflowResult{Success: true, Booking: confirmed.Booking}, nil
}

func releaseSeats(ctx workflow.Context, holdKey, reason string) {
	// compensation must run even if the workflow was cancelled
	ctx, _ = workflow.NewDisconnectedContext(ctx)
	err := workflow.ExecuteActivity(ctx, models.ActivityReleaseSeats, models.ReleaseSeatsInput{
		HoldKey: holdKey,
		Reason:  reason,
	}).Get(ctx, nil)
	if err != nil {
		workflow.GetLogger(ctx).Error("Failed to release seats", "holdKey", holdKey, "error", err)
	}
}
