package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cx-tal-miterani/flight-booking-flow/internal/booking"
	"github.com/cx-tal-miterani/flight-booking-flow/internal/database"
	"github.com/cx-tal-miterani/flight-booking-flow/internal/pricing"
	"github.com/cx-tal-miterani/flight-booking-flow/shared/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockFlightStore struct {
	mock.Mock
}

func (m *mockFlightStore) GetFlight(ctx context.Context, flightID string) (*models.Flight, error) {
	args := m.Called(ctx, flightID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Flight), args.Error(1)
}

func (m *mockFlightStore) GetSeats(ctx context.Context, flightID string) ([]models.SeatAvailability, error) {
	args := m.Called(ctx, flightID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SeatAvailability), args.Error(1)
}

func (m *mockFlightStore) ListUpcomingFlights(ctx context.Context) ([]models.Flight, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Flight), args.Error(1)
}

func (m *mockFlightStore) GetBookingByPNR(ctx context.Context, pnr string) (*database.Booking, error) {
	args := m.Called(ctx, pnr)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*database.Booking), args.Error(1)
}

type mockSubmitter struct {
	mock.Mock
}

func (m *mockSubmitter) CreateBooking(ctx context.Context, payload *models.BookingPayload) (*models.CreateBookingResponse, error) {
	args := m.Called(ctx, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CreateBookingResponse), args.Error(1)
}

type event struct {
	kind      string
	sessionID string
	value     string
	seats     []string
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []event
}

func (n *recordingNotifier) record(e event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
}

func (n *recordingNotifier) BroadcastStageChanged(sessionID, stage string) {
	n.record(event{kind: "stage", sessionID: sessionID, value: stage})
}

func (n *recordingNotifier) BroadcastSeatsUpdated(sessionID string, seats []string) {
	n.record(event{kind: "seats", sessionID: sessionID, seats: seats})
}

func (n *recordingNotifier) BroadcastBookingConfirmed(sessionID, pnr string) {
	n.record(event{kind: "confirmed", sessionID: sessionID, value: pnr})
}

func (n *recordingNotifier) BroadcastSubmissionFailed(sessionID, reason string) {
	n.record(event{kind: "failed", sessionID: sessionID, value: reason})
}

func (n *recordingNotifier) BroadcastSessionClosed(sessionID, reason string) {
	n.record(event{kind: "closed", sessionID: sessionID, value: reason})
}

func (n *recordingNotifier) kinds() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.events))
	for _, e := range n.events {
		out = append(out, e.kind)
	}
	return out
}

func (n *recordingNotifier) last() event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.events[len(n.events)-1]
}

var traveler = booking.Traveler{ID: "traveler-1", Email: "jane@example.com"}

func testFlight() *models.Flight {
	return &models.Flight{
		ID:           "FL001",
		Airline:      "IndiGo",
		FlightNumber: "6E214",
		Origin:       "BLR",
		Destination:  "DEL",
		BasePrice:    100,
		CurrentPrice: 100,
	}
}

func testPassenger() models.PassengerDetails {
	return models.PassengerDetails{
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     "jane@example.com",
		Phone:     "+15550100",
		Age:       34,
		Gender:    models.GenderFemale,
	}
}

type fixture struct {
	svc       SessionService
	store     *mockFlightStore
	submitter *mockSubmitter
	notifier  *recordingNotifier
	now       time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:     new(mockFlightStore),
		submitter: new(mockSubmitter),
		notifier:  &recordingNotifier{},
		now:       time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	f.svc = NewSessionService(f.store, f.submitter, f.notifier, booking.DefaultOptions(), 30*time.Minute,
		WithClock(func() time.Time { return f.now }))
	f.store.On("GetFlight", mock.Anything, "FL001").Return(testFlight(), nil).Maybe()
	return f
}

func (f *fixture) start(t *testing.T) *SessionView {
	t.Helper()
	view, err := f.svc.StartSession(context.Background(), traveler, "FL001")
	require.NoError(t, err)
	return view
}

func (f *fixture) toPaymentReview(t *testing.T, id string) {
	t.Helper()
	_, err := f.svc.SelectFare(id, pricing.FareEconomy)
	require.NoError(t, err)
	_, err = f.svc.SubmitPassenger(id, testPassenger())
	require.NoError(t, err)
	_, err = f.svc.ToggleService(id, "priority")
	require.NoError(t, err)
	_, err = f.svc.ContinueFromServices(id)
	require.NoError(t, err)
}

func TestStartSession(t *testing.T) {
	f := newFixture(t)

	view := f.start(t)

	assert.NotEmpty(t, view.ID)
	assert.Equal(t, traveler, view.Traveler)
	assert.Equal(t, booking.StageFareSelect, view.Stage)
	require.NotNil(t, view.Draft)
	assert.Equal(t, "FL001", view.Draft.Flight.ID)

	got, err := f.svc.GetSession(view.ID)
	require.NoError(t, err)
	assert.Equal(t, view.ID, got.ID)
}

func TestStartSession_Errors(t *testing.T) {
	f := newFixture(t)
	f.store.On("GetFlight", mock.Anything, "FL404").Return(nil, database.ErrNotFound)

	_, err := f.svc.StartSession(context.Background(), traveler, "FL404")
	var lookupErr *booking.LookupError
	require.ErrorAs(t, err, &lookupErr)
	assert.ErrorIs(t, err, database.ErrNotFound)

	_, err = f.svc.StartSession(context.Background(), booking.Traveler{}, "FL001")
	assert.Error(t, err)
}

func TestStartSession_ReplacesTravelerSession(t *testing.T) {
	f := newFixture(t)
	first := f.start(t)
	second := f.start(t)

	assert.NotEqual(t, first.ID, second.ID)
	_, err := f.svc.GetSession(first.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	closed := f.notifier.last()
	assert.Equal(t, "closed", closed.kind)
	assert.Equal(t, first.ID, closed.sessionID)
}

func TestGetSession_Unknown(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.GetSession("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = f.svc.SelectFare("missing", pricing.FareEconomy)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = f.svc.Submit(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestTransitionsNotifyStageChanges(t *testing.T) {
	f := newFixture(t)
	id := f.start(t).ID

	view, err := f.svc.SelectFare(id, pricing.FarePremium)
	require.NoError(t, err)
	assert.Equal(t, booking.StagePassengerDetails, view.Stage)
	require.NotNil(t, view.Quote)
	assert.InDelta(t, 150.0, view.Quote.Total, 0.001)

	// rejected transitions leave the stage and emit nothing
	_, err = f.svc.SelectFare(id, pricing.FareEconomy)
	assert.ErrorIs(t, err, booking.ErrInvalidTransition)

	invalid := testPassenger()
	invalid.Age = 0
	_, err = f.svc.SubmitPassenger(id, invalid)
	var validationErr *booking.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Fields, "age")

	assert.Equal(t, []string{"stage"}, f.notifier.kinds())
	assert.Equal(t, "passenger_details", f.notifier.last().value)
}

func TestConcurrentTransitionsNotifyOnce(t *testing.T) {
	f := newFixture(t)
	id := f.start(t).ID

	const workers = 16
	var (
		wg        sync.WaitGroup
		start     = make(chan struct{})
		succeeded = make(chan struct{}, workers)
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, err := f.svc.SelectFare(id, pricing.FareEconomy); err == nil {
				succeeded <- struct{}{}
			}
		}()
	}
	close(start)
	wg.Wait()
	close(succeeded)

	assert.Len(t, succeeded, 1)
	assert.Equal(t, []string{"stage"}, f.notifier.kinds())
	assert.Equal(t, "passenger_details", f.notifier.last().value)
}

func TestSeatSelection(t *testing.T) {
	f := newFixture(t)
	id := f.start(t).ID
	f.store.On("GetSeats", mock.Anything, "FL001").Return([]models.SeatAvailability{
		{SeatNumber: "1B", IsAvailable: false},
	}, nil).Once()

	seats, err := f.svc.OpenSeatSelection(context.Background(), id)
	require.NoError(t, err)
	assert.NotEmpty(t, seats)

	selected, err := f.svc.ToggleSeat(id, "1A")
	require.NoError(t, err)
	assert.Equal(t, []string{"1A"}, selected)

	_, err = f.svc.ToggleSeat(id, "1B")
	assert.ErrorIs(t, err, booking.ErrSeatNotSelectable)
	_, err = f.svc.ToggleSeat(id, "01b")
	assert.ErrorIs(t, err, booking.ErrSeatNotSelectable)

	view, err := f.svc.ApplySeatSelection(id)
	require.NoError(t, err)
	assert.Equal(t, []string{"1A"}, view.Draft.Seats)
	assert.False(t, view.SeatsOpen)

	assert.Equal(t, []string{"seats", "seats"}, f.notifier.kinds())
	assert.Equal(t, []string{"1A"}, f.notifier.last().seats)
}

func TestSubmit_Success(t *testing.T) {
	f := newFixture(t)
	id := f.start(t).ID
	f.toPaymentReview(t, id)

	f.submitter.On("CreateBooking", mock.Anything, mock.MatchedBy(func(p *models.BookingPayload) bool {
		return p.FlightID == "FL001" && p.TravelerID == "traveler-1" && p.TotalPrice == 115
	})).Return(&models.CreateBookingResponse{
		Success: true,
		Booking: &models.BookingConfirmation{PNR: "ABC123", FlightID: "FL001", Passenger: testPassenger(), TotalPrice: 115},
	}, nil).Once()

	confirmation, err := f.svc.Submit(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "ABC123", confirmation.PNR)
	assert.Equal(t, "€115.00", confirmation.TotalDisplay)

	view, err := f.svc.GetSession(id)
	require.NoError(t, err)
	assert.Equal(t, booking.StageCompleted, view.Stage)
	assert.Nil(t, view.Draft)

	last := f.notifier.last()
	assert.Equal(t, "confirmed", last.kind)
	assert.Equal(t, "ABC123", last.value)
	f.submitter.AssertExpectations(t)
}

func TestSubmit_FailureIsRetryable(t *testing.T) {
	f := newFixture(t)
	id := f.start(t).ID
	f.toPaymentReview(t, id)

	f.submitter.On("CreateBooking", mock.Anything, mock.Anything).
		Return(&models.CreateBookingResponse{Success: false, Error: "seat not available: 1A"}, nil).Once()

	_, err := f.svc.Submit(context.Background(), id)
	var subErr *booking.SubmissionError
	require.ErrorAs(t, err, &subErr)

	view, err := f.svc.GetSession(id)
	require.NoError(t, err)
	assert.Equal(t, booking.StagePaymentReview, view.Stage)
	assert.NotNil(t, view.Draft)

	last := f.notifier.last()
	assert.Equal(t, "failed", last.kind)
	assert.Contains(t, last.value, "seat not available")
}

func TestAbandonSession(t *testing.T) {
	f := newFixture(t)
	id := f.start(t).ID

	require.NoError(t, f.svc.AbandonSession(id))

	_, err := f.svc.GetSession(id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Equal(t, "abandoned", f.notifier.last().value)
	assert.ErrorIs(t, f.svc.AbandonSession(id), ErrSessionNotFound)
}

func TestJumpTo_Disabled(t *testing.T) {
	f := newFixture(t)
	id := f.start(t).ID
	_, err := f.svc.SelectFare(id, pricing.FareEconomy)
	require.NoError(t, err)

	_, err = f.svc.JumpTo(id, booking.StageFareSelect)
	assert.ErrorIs(t, err, booking.ErrStageJumpDisabled)
}

func TestSweep(t *testing.T) {
	f := newFixture(t)
	stale := f.start(t).ID

	f.now = f.now.Add(20 * time.Minute)
	other := booking.Traveler{ID: "traveler-2"}
	fresh, err := f.svc.StartSession(context.Background(), other, "FL001")
	require.NoError(t, err)

	f.now = f.now.Add(15 * time.Minute)
	assert.Equal(t, 1, f.svc.Sweep())

	_, err = f.svc.GetSession(stale)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = f.svc.GetSession(fresh.ID)
	assert.NoError(t, err)
	assert.Equal(t, 0, f.svc.Sweep())
}

func TestGetBooking(t *testing.T) {
	f := newFixture(t)
	f.store.On("GetBookingByPNR", mock.Anything, "ABC123").Return(&database.Booking{
		PNR:        "ABC123",
		FlightID:   "FL001",
		Passenger:  testPassenger(),
		TotalPrice: 140,
	}, nil)
	f.store.On("GetBookingByPNR", mock.Anything, "NOPE00").Return(nil, database.ErrNotFound)

	confirmation, err := f.svc.GetBooking(context.Background(), "ABC123")
	require.NoError(t, err)
	assert.Equal(t, "IndiGo", confirmation.Airline)
	assert.Equal(t, 140.0, confirmation.TotalPrice)

	_, err = f.svc.GetBooking(context.Background(), "NOPE00")
	assert.True(t, errors.Is(err, database.ErrNotFound))
}

func TestCatalogs(t *testing.T) {
	f := newFixture(t)

	assert.Len(t, f.svc.Fares(), 3)
	assert.NotEmpty(t, f.svc.Services())
}
