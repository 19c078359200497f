package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/cx-tal-miterani/flight-booking-flow/shared/models"
	"go.temporal.io/sdk/client"
)

// BookingWorkflowID derives the workflow ID from the draft's idempotency key.
// A retry after a client-side timeout attaches to the run that is still
// executing instead of booking twice.
func BookingWorkflowID(idempotencyKey string) string {
	return "booking-" + idempotencyKey
}

// WorkflowSubmitter creates bookings by running the booking workflow and
// waiting for its result
type WorkflowSubmitter struct {
	temporalClient client.Client
	taskQueue      string
}

func NewWorkflowSubmitter(temporalClient client.Client, taskQueue string) *WorkflowSubmitter {
	return &WorkflowSubmitter{temporalClient: temporalClient, taskQueue: taskQueue}
}

func (s *WorkflowSubmitter) CreateBooking(ctx context.Context, payload *models.BookingPayload) (*models.CreateBookingResponse, error) {
	if payload.IdempotencyKey == "" {
		return nil, fmt.Errorf("payload has no idempotency key")
	}

	workflowOptions := client.StartWorkflowOptions{
		ID:        BookingWorkflowID(payload.IdempotencyKey),
		TaskQueue: s.taskQueue,
		// attach to a run that is already executing for this draft
		WorkflowExecutionErrorWhenAlreadyStarted: false,
	}
	input := models.BookingWorkflowInput{
		Payload:     *payload,
		SubmittedAt: time.Now().UTC(),
	}

	run, err := s.temporalClient.ExecuteWorkflow(ctx, workflowOptions, models.WorkflowBooking, input)
	if err != nil {
		return nil, fmt.Errorf("failed to start workflow: %w", err)
	}
	log.Printf("Booking workflow %s started for flight %s", workflowOptions.ID, payload.FlightID)

	var result models.BookingWorkflowResult
	if err := run.Get(ctx, &result); err != nil {
		return nil, fmt.Errorf("failed to get workflow result: %w", err)
	}

	if !result.Success {
		log.Printf("Booking workflow %s failed: %s", workflowOptions.ID, result.FailureReason)
		return &models.CreateBookingResponse{Success: false, Error: result.FailureReason}, nil
	}
	return &models.CreateBookingResponse{Success: true, Booking: result.Booking}, nil
}
