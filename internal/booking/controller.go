package booking

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/cx-tal-miterani/flight-booking-flow/internal/passenger"
	"github.com/cx-tal-miterani/flight-booking-flow/internal/pricing"
	"github.com/cx-tal-miterani/flight-booking-flow/internal/seatmap"
	"github.com/cx-tal-miterani/flight-booking-flow/shared/models"
	"github.com/google/uuid"
)

// FlightLookup is the external flight data service
type FlightLookup interface {
	GetFlight(ctx context.Context, flightID string) (*models.Flight, error)
	GetSeats(ctx context.Context, flightID string) ([]models.SeatAvailability, error)
}

// Traveler is the authenticated user owning a wizard session
type Traveler struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type Options struct {
	SubmitTimeout  time.Duration
	PaymentMethod  string
	AllowStageJump bool
	Seats          seatmap.Config
}

func DefaultOptions() Options {
	return Options{
		SubmitTimeout: 15 * time.Second,
		PaymentMethod: "credit_card",
		Seats:         seatmap.DefaultConfig(),
	}
}

// Draft is the in-progress booking accumulated across stages
type Draft struct {
	IdempotencyKey string                   `json:"idempotencyKey"`
	Flight         models.Flight            `json:"flight"`
	Fare           *pricing.Fare            `json:"fare,omitempty"`
	Services       []string                 `json:"services"`
	Passenger      *models.PassengerDetails `json:"passenger,omitempty"`
	Seats          []string                 `json:"seats"`
}

func (d Draft) clone() Draft {
	out := d
	out.Services = slices.Clone(d.Services)
	out.Seats = slices.Clone(d.Seats)
	if d.Fare != nil {
		fare := *d.Fare
		out.Fare = &fare
	}
	if d.Passenger != nil {
		p := *d.Passenger
		out.Passenger = &p
	}
	return out
}

// View is a consistent snapshot of a session
type View struct {
	Stage        Stage             `json:"stage"`
	Draft        *Draft            `json:"draft,omitempty"`
	Quote        *pricing.Quote    `json:"quote,omitempty"`
	Steps        []Step            `json:"steps"`
	CanContinue  bool              `json:"canContinue"`
	SeatsOpen    bool              `json:"seatSelectionOpen"`
	PendingSeats []string          `json:"pendingSeats,omitempty"`
	Submitting   bool              `json:"submitting"`
	Confirmation *ConfirmationView `json:"confirmation,omitempty"`
}

// Controller drives one traveler's booking wizard. Every transition whose
// preconditions are unmet is rejected and leaves the state untouched.
type Controller struct {
	mu sync.Mutex

	traveler  Traveler
	flights   FlightLookup
	assembler *Assembler
	validator *passenger.Validator
	opts      Options

	stage        Stage
	draft        *Draft
	seats        *seatmap.Map
	seatsOpen    bool
	submitting   bool
	confirmation *ConfirmationView
}

func NewController(traveler Traveler, flights FlightLookup, submitter BookingSubmitter, opts Options) (*Controller, error) {
	if flights == nil || submitter == nil {
		return nil, errors.New("flight lookup and booking submitter are required")
	}
	if err := opts.Seats.Validate(); err != nil {
		return nil, fmt.Errorf("invalid seat configuration: %w", err)
	}
	return &Controller{
		traveler:  traveler,
		flights:   flights,
		assembler: NewAssembler(submitter, opts.PaymentMethod),
		validator: passenger.NewValidator(),
		opts:      opts,
		stage:     StageIdle,
	}, nil
}

func (c *Controller) Traveler() Traveler {
	return c.traveler
}

func (c *Controller) Stage() Stage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stage
}

// Start loads the flight and enters fare selection
func (c *Controller) Start(ctx context.Context, flightID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stage != StageIdle {
		return &TransitionError{Op: "start", Stage: c.stage}
	}

	flight, err := c.flights.GetFlight(ctx, flightID)
	if err != nil {
		return &LookupError{Resource: "flight", ID: flightID, Err: err}
	}
	if flight == nil {
		return &LookupError{Resource: "flight", ID: flightID, Err: errors.New("flight not found")}
	}

	c.draft = &Draft{
		IdempotencyKey: uuid.New().String(),
		Flight:         *flight,
	}
	c.stage = StageFareSelect
	return nil
}

// SelectFare sets the fare tier and advances to passenger details
func (c *Controller) SelectFare(tier pricing.FareTier) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stage != StageFareSelect {
		return &TransitionError{Op: "select fare", Stage: c.stage}
	}
	fare, err := pricing.LookupFare(tier)
	if err != nil {
		return newFieldError("tier", fmt.Sprintf("%s: %q", err, tier))
	}

	c.draft.Fare = &fare
	c.stage = StagePassengerDetails
	return nil
}

// SubmitPassenger validates the record, freezes a copy into the draft and
// advances to extra services.
func (c *Controller) SubmitPassenger(details models.PassengerDetails) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stage != StagePassengerDetails {
		return &TransitionError{Op: "submit passenger", Stage: c.stage}
	}
	if errs := c.validator.Validate(details); errs != nil {
		return &ValidationError{Fields: errs}
	}

	frozen := passenger.Normalize(details)
	c.draft.Passenger = &frozen
	c.stage = StageExtraServices
	return nil
}

// ToggleService flips a service in the selection. The none sentinel clears the
// selection and advances straight to payment review.
func (c *Controller) ToggleService(serviceID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stage != StageExtraServices {
		return &TransitionError{Op: "toggle service", Stage: c.stage}
	}
	if serviceID == pricing.ServiceNone {
		c.draft.Services = nil
		c.stage = StagePaymentReview
		return nil
	}
	if _, err := pricing.LookupService(serviceID); err != nil {
		return newFieldError("service", fmt.Sprintf("%s: %q", err, serviceID))
	}

	if i := slices.Index(c.draft.Services, serviceID); i >= 0 {
		c.draft.Services = slices.Delete(c.draft.Services, i, i+1)
	} else {
		c.draft.Services = append(c.draft.Services, serviceID)
	}
	return nil
}

// CanContinue reports whether the traveler may leave extra services
func (c *Controller) CanContinue() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canContinueLocked()
}

func (c *Controller) canContinueLocked() bool {
	return c.stage == StageExtraServices && len(c.draft.Services) > 0
}

func (c *Controller) ContinueFromServices() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stage != StageExtraServices {
		return &TransitionError{Op: "continue", Stage: c.stage}
	}
	if !c.canContinueLocked() {
		return &TransitionError{Op: "continue", Stage: c.stage, Reason: "no service selected"}
	}
	c.stage = StagePaymentReview
	return nil
}

// OpenSeatSelection opens the seat overlay, starting from the applied
// selection. Seat availability is fetched once per session.
func (c *Controller) OpenSeatSelection(ctx context.Context) ([]seatmap.Seat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.stage.active() {
		return nil, &TransitionError{Op: "open seat selection", Stage: c.stage}
	}
	if c.submitting {
		return nil, ErrSubmissionInFlight
	}

	if c.seats == nil {
		availability, err := c.flights.GetSeats(ctx, c.draft.Flight.ID)
		if err != nil {
			return nil, &LookupError{Resource: "seats", ID: c.draft.Flight.ID, Err: err}
		}
		m, err := seatmap.New(c.opts.Seats, availability)
		if err != nil {
			return nil, err
		}
		c.seats = m
	}

	c.seats.Restore(c.draft.Seats)
	c.seatsOpen = true
	return c.seats.Seats(), nil
}

// ToggleSeat flips a seat in the open overlay and returns the pending selection
func (c *Controller) ToggleSeat(seatID string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireSeatsOpen("toggle seat"); err != nil {
		return nil, err
	}
	changed, err := c.seats.Toggle(seatID)
	if err != nil {
		return nil, newFieldError("seat", err.Error())
	}
	if !changed {
		return c.seats.Selected(), fmt.Errorf("%w: %s", ErrSeatNotSelectable, seatID)
	}
	return c.seats.Selected(), nil
}

// ApplySeatSelection folds the overlay selection into the draft and closes it
func (c *Controller) ApplySeatSelection() ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireSeatsOpen("apply seat selection"); err != nil {
		return nil, err
	}
	c.draft.Seats = c.seats.Selected()
	c.seatsOpen = false
	return slices.Clone(c.draft.Seats), nil
}

// CancelSeatSelection closes the overlay without touching the draft
func (c *Controller) CancelSeatSelection() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireSeatsOpen("cancel seat selection"); err != nil {
		return err
	}
	c.seatsOpen = false
	return nil
}

func (c *Controller) requireSeatsOpen(op string) error {
	if c.submitting {
		return ErrSubmissionInFlight
	}
	if !c.stage.active() || !c.seatsOpen {
		return &TransitionError{Op: op, Stage: c.stage, Reason: "seat selection is not open"}
	}
	return nil
}

// Quote prices the current draft. It is recomputed on every call.
func (c *Controller) Quote() (pricing.Quote, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.quoteLocked()
}

func (c *Controller) quoteLocked() (pricing.Quote, error) {
	if c.draft == nil || c.draft.Fare == nil {
		return pricing.Quote{}, &TransitionError{Op: "quote", Stage: c.stage, Reason: "no fare selected"}
	}
	return pricing.Calculate(c.draft.Flight, *c.draft.Fare, c.draft.Services, c.draft.Seats, c.opts.Seats)
}

// ConfirmAndSubmit hands the draft to the booking service. It is
// non-reentrant: while a submission is outstanding further calls fail with
// ErrSubmissionInFlight. On failure the draft is kept for a retry.
func (c *Controller) ConfirmAndSubmit(ctx context.Context) (*ConfirmationView, error) {
	c.mu.Lock()
	if c.submitting {
		c.mu.Unlock()
		return nil, ErrSubmissionInFlight
	}
	if c.stage != StagePaymentReview {
		stage := c.stage
		c.mu.Unlock()
		return nil, &TransitionError{Op: "confirm and submit", Stage: stage}
	}
	if c.draft.Fare == nil || c.draft.Passenger == nil {
		c.mu.Unlock()
		return nil, &TransitionError{Op: "confirm and submit", Stage: c.stage, Reason: "draft incomplete"}
	}
	quote, err := c.quoteLocked()
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	payload, err := c.assembler.BuildPayload(c.traveler, c.draft.clone(), quote)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	c.submitting = true
	c.mu.Unlock()

	if c.opts.SubmitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.SubmitTimeout)
		defer cancel()
	}
	view, err := c.assembler.Submit(ctx, payload)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitting = false
	if err != nil {
		return nil, err
	}

	c.confirmation = view
	c.draft = nil
	c.seats = nil
	c.seatsOpen = false
	c.stage = StageCompleted
	return view, nil
}

// Abandon discards the draft, as when the traveler navigates away
func (c *Controller) Abandon() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.submitting {
		return ErrSubmissionInFlight
	}
	if c.stage == StageCompleted || c.stage == StageAbandoned {
		return &TransitionError{Op: "abandon", Stage: c.stage}
	}
	c.draft = nil
	c.seats = nil
	c.seatsOpen = false
	c.stage = StageAbandoned
	return nil
}

// Steps returns the progress stepper for the current stage
func (c *Controller) Steps() []Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return buildSteps(c.stage, c.opts.AllowStageJump, c.submitting)
}

// JumpTo returns to an already completed stage. The draft is kept; the
// traveler moves forward again through the regular transitions.
func (c *Controller) JumpTo(target Stage) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.opts.AllowStageJump {
		return ErrStageJumpDisabled
	}
	if c.submitting {
		return ErrSubmissionInFlight
	}
	if !c.stage.active() || !target.active() || target >= c.stage {
		return &TransitionError{Op: "jump to " + target.String(), Stage: c.stage}
	}
	c.stage = target
	return nil
}

// Snapshot returns a copy of the whole session state
func (c *Controller) Snapshot() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := View{
		Stage:        c.stage,
		Steps:        buildSteps(c.stage, c.opts.AllowStageJump, c.submitting),
		SeatsOpen:    c.seatsOpen,
		Submitting:   c.submitting,
		Confirmation: c.confirmation,
	}
	if c.draft != nil {
		d := c.draft.clone()
		v.Draft = &d
		v.CanContinue = c.canContinueLocked()
		if q, err := c.quoteLocked(); err == nil {
			v.Quote = &q
		}
	}
	if c.seatsOpen {
		v.PendingSeats = c.seats.Selected()
	}
	return v
}

// Confirmation is set once the booking has been created
func (c *Controller) Confirmation() *ConfirmationView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.confirmation
}
