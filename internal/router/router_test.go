package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cx-tal-miterani/flight-booking-flow/internal/handlers"
	"github.com/cx-tal-miterani/flight-booking-flow/internal/service"
	"github.com/cx-tal-miterani/flight-booking-flow/internal/service/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type noSockets struct{}

func (noSockets) ServeWS(w http.ResponseWriter, r *http.Request, sessionID string) {}

func TestRouter_FixedPathsWinOverParameters(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		method string
		setup  func(m *mocks.MockSessionService)
	}{
		{
			name:   "continue from services",
			path:   "/api/sessions/s-1/services/continue",
			method: "ContinueFromServices",
			setup: func(m *mocks.MockSessionService) {
				m.On("ContinueFromServices", "s-1").Return(&service.SessionView{ID: "s-1"}, nil).Once()
			},
		},
		{
			name:   "toggle service",
			path:   "/api/sessions/s-1/services/priority",
			method: "ToggleService",
			setup: func(m *mocks.MockSessionService) {
				m.On("ToggleService", "s-1", "priority").Return(&service.SessionView{ID: "s-1"}, nil).Once()
			},
		},
		{
			name:   "apply seats",
			path:   "/api/sessions/s-1/seats/apply",
			method: "ApplySeatSelection",
			setup: func(m *mocks.MockSessionService) {
				m.On("ApplySeatSelection", "s-1").Return(&service.SessionView{ID: "s-1"}, nil).Once()
			},
		},
		{
			name:   "cancel seats",
			path:   "/api/sessions/s-1/seats/cancel",
			method: "CancelSeatSelection",
			setup: func(m *mocks.MockSessionService) {
				m.On("CancelSeatSelection", "s-1").Return(&service.SessionView{ID: "s-1"}, nil).Once()
			},
		},
		{
			name:   "toggle seat",
			path:   "/api/sessions/s-1/seats/12c",
			method: "ToggleSeat",
			setup: func(m *mocks.MockSessionService) {
				m.On("ToggleSeat", "s-1", "12C").Return([]string{"12C"}, nil).Once()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sessions := new(mocks.MockSessionService)
			tt.setup(sessions)
			r := NewRouter(handlers.NewHandler(sessions, noSockets{}))

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, tt.path, nil))

			assert.Equal(t, http.StatusOK, rec.Code)
			sessions.AssertExpectations(t)
		})
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	sessions := new(mocks.MockSessionService)
	r := NewRouter(handlers.NewHandler(sessions, noSockets{}))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/sessions", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "X-Traveler-ID")
	sessions.AssertNotCalled(t, "StartSession", mock.Anything, mock.Anything, mock.Anything)
}

func TestRouter_Health(t *testing.T) {
	r := NewRouter(handlers.NewHandler(new(mocks.MockSessionService), noSockets{}))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}
