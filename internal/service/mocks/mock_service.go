package mocks

import (
	"context"

	"github.com/cx-tal-miterani/flight-booking-flow/internal/booking"
	"github.com/cx-tal-miterani/flight-booking-flow/internal/pricing"
	"github.com/cx-tal-miterani/flight-booking-flow/internal/seatmap"
	"github.com/cx-tal-miterani/flight-booking-flow/internal/service"
	"github.com/cx-tal-miterani/flight-booking-flow/shared/models"
	"github.com/stretchr/testify/mock"
)

var _ service.SessionService = (*MockSessionService)(nil)

// MockSessionService is a mock implementation of SessionService
type MockSessionService struct {
	mock.Mock
}

func (m *MockSessionService) Fares() []pricing.Fare {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]pricing.Fare)
}

func (m *MockSessionService) Services() []pricing.Service {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]pricing.Service)
}

func (m *MockSessionService) ListFlights(ctx context.Context) ([]models.Flight, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Flight), args.Error(1)
}

func (m *MockSessionService) GetFlight(ctx context.Context, flightID string) (*models.Flight, error) {
	args := m.Called(ctx, flightID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Flight), args.Error(1)
}

func (m *MockSessionService) GetBooking(ctx context.Context, pnr string) (*models.BookingConfirmation, error) {
	args := m.Called(ctx, pnr)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BookingConfirmation), args.Error(1)
}

func (m *MockSessionService) StartSession(ctx context.Context, traveler booking.Traveler, flightID string) (*service.SessionView, error) {
	args := m.Called(ctx, traveler, flightID)
	return sessionView(args)
}

func (m *MockSessionService) GetSession(sessionID string) (*service.SessionView, error) {
	return sessionView(m.Called(sessionID))
}

func (m *MockSessionService) AbandonSession(sessionID string) error {
	return m.Called(sessionID).Error(0)
}

func (m *MockSessionService) SelectFare(sessionID string, tier pricing.FareTier) (*service.SessionView, error) {
	return sessionView(m.Called(sessionID, tier))
}

func (m *MockSessionService) SubmitPassenger(sessionID string, details models.PassengerDetails) (*service.SessionView, error) {
	return sessionView(m.Called(sessionID, details))
}

func (m *MockSessionService) ToggleService(sessionID, serviceID string) (*service.SessionView, error) {
	return sessionView(m.Called(sessionID, serviceID))
}

func (m *MockSessionService) ContinueFromServices(sessionID string) (*service.SessionView, error) {
	return sessionView(m.Called(sessionID))
}

func (m *MockSessionService) OpenSeatSelection(ctx context.Context, sessionID string) ([]seatmap.Seat, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]seatmap.Seat), args.Error(1)
}

func (m *MockSessionService) ToggleSeat(sessionID, seatID string) ([]string, error) {
	args := m.Called(sessionID, seatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockSessionService) ApplySeatSelection(sessionID string) (*service.SessionView, error) {
	return sessionView(m.Called(sessionID))
}

func (m *MockSessionService) CancelSeatSelection(sessionID string) (*service.SessionView, error) {
	return sessionView(m.Called(sessionID))
}

func (m *MockSessionService) JumpTo(sessionID string, stage booking.Stage) (*service.SessionView, error) {
	return sessionView(m.Called(sessionID, stage))
}

func (m *MockSessionService) Submit(ctx context.Context, sessionID string) (*booking.ConfirmationView, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.ConfirmationView), args.Error(1)
}

func (m *MockSessionService) Sweep() int {
	return m.Called().Int(0)
}

func sessionView(args mock.Arguments) (*service.SessionView, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SessionView), args.Error(1)
}
