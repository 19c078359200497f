package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/cx-tal-miterani/flight-booking-flow/internal/booking"
	"github.com/cx-tal-miterani/flight-booking-flow/internal/database"
	"github.com/cx-tal-miterani/flight-booking-flow/internal/pricing"
	"github.com/cx-tal-miterani/flight-booking-flow/internal/service"
	"github.com/cx-tal-miterani/flight-booking-flow/shared/models"
	"github.com/gorilla/mux"
)

const (
	HeaderTravelerID    = "X-Traveler-ID"
	HeaderTravelerEmail = "X-Traveler-Email"
)

// SocketServer subscribes a WebSocket connection to a session's updates
type SocketServer interface {
	ServeWS(w http.ResponseWriter, r *http.Request, sessionID string)
}

// Handler contains HTTP handlers for the API
type Handler struct {
	sessions service.SessionService
	sockets  SocketServer
}

// NewHandler creates a new Handler instance
func NewHandler(sessions service.SessionService, sockets SocketServer) *Handler {
	return &Handler{
		sessions: sessions,
		sockets:  sockets,
	}
}

type StartSessionRequest struct {
	FlightID string `json:"flightId"`
}

type SelectFareRequest struct {
	Tier string `json:"tier"`
}

type JumpRequest struct {
	Stage string `json:"stage"`
}

type SeatSelectionResponse struct {
	Selected []string `json:"selected"`
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps the booking error taxonomy onto HTTP statuses
func respondServiceError(w http.ResponseWriter, err error) {
	var (
		validationErr *booking.ValidationError
		lookupErr     *booking.LookupError
		submissionErr *booking.SubmissionError
	)

	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		respondError(w, http.StatusNotFound, "Session not found")
	case errors.As(err, &validationErr):
		respondJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":  "Validation failed",
			"fields": validationErr.Fields,
		})
	case errors.Is(err, booking.ErrStageJumpDisabled):
		respondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, booking.ErrSubmissionInFlight),
		errors.Is(err, booking.ErrSeatNotSelectable),
		errors.Is(err, booking.ErrInvalidTransition):
		respondError(w, http.StatusConflict, err.Error())
	case errors.As(err, &lookupErr):
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		respondError(w, http.StatusBadGateway, err.Error())
	case errors.As(err, &submissionErr):
		respondJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"error":     submissionErr.Error(),
			"timeout":   submissionErr.Timeout,
			"retryable": true,
		})
	case errors.Is(err, database.ErrNotFound):
		respondError(w, http.StatusNotFound, "Not found")
	default:
		log.Printf("Unhandled error: %v", err)
		respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func traveler(r *http.Request) (booking.Traveler, bool) {
	t := booking.Traveler{
		ID:    strings.TrimSpace(r.Header.Get(HeaderTravelerID)),
		Email: strings.TrimSpace(r.Header.Get(HeaderTravelerEmail)),
	}
	return t, t.ID != ""
}

// GetFares handles GET /api/fares
func (h *Handler) GetFares(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.sessions.Fares())
}

// GetServices handles GET /api/services
func (h *Handler) GetServices(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.sessions.Services())
}

// GetFlights handles GET /api/flights
func (h *Handler) GetFlights(w http.ResponseWriter, r *http.Request) {
	flights, err := h.sessions.ListFlights(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, flights)
}

// GetFlight handles GET /api/flights/{id}
func (h *Handler) GetFlight(w http.ResponseWriter, r *http.Request) {
	flight, err := h.sessions.GetFlight(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Flight not found")
			return
		}
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, flight)
}

// GetBooking handles GET /api/bookings/{pnr}
func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	pnr := strings.ToUpper(mux.Vars(r)["pnr"])
	confirmation, err := h.sessions.GetBooking(r.Context(), pnr)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Booking not found")
			return
		}
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, confirmation)
}

// StartSession handles POST /api/sessions
func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	t, ok := traveler(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Traveler ID header is required")
		return
	}

	var req StartSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.FlightID == "" {
		respondError(w, http.StatusBadRequest, "Flight ID is required")
		return
	}

	view, err := h.sessions.StartSession(r.Context(), t, req.FlightID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, view)
}

// GetSession handles GET /api/sessions/{id}
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	view, err := h.sessions.GetSession(mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// AbandonSession handles DELETE /api/sessions/{id}
func (h *Handler) AbandonSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.AbandonSession(mux.Vars(r)["id"]); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Session abandoned"})
}

// SelectFare handles POST /api/sessions/{id}/fare
func (h *Handler) SelectFare(w http.ResponseWriter, r *http.Request) {
	var req SelectFareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	view, err := h.sessions.SelectFare(mux.Vars(r)["id"], pricing.FareTier(strings.ToLower(req.Tier)))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// SubmitPassenger handles POST /api/sessions/{id}/passenger
func (h *Handler) SubmitPassenger(w http.ResponseWriter, r *http.Request) {
	var details models.PassengerDetails
	if err := json.NewDecoder(r.Body).Decode(&details); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	view, err := h.sessions.SubmitPassenger(mux.Vars(r)["id"], details)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// ToggleService handles POST /api/sessions/{id}/services/{serviceId}
func (h *Handler) ToggleService(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	view, err := h.sessions.ToggleService(vars["id"], vars["serviceId"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// ContinueFromServices handles POST /api/sessions/{id}/services/continue
func (h *Handler) ContinueFromServices(w http.ResponseWriter, r *http.Request) {
	view, err := h.sessions.ContinueFromServices(mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// OpenSeatSelection handles POST /api/sessions/{id}/seats/open
func (h *Handler) OpenSeatSelection(w http.ResponseWriter, r *http.Request) {
	seats, err := h.sessions.OpenSeatSelection(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, seats)
}

// ToggleSeat handles POST /api/sessions/{id}/seats/{seatId}
func (h *Handler) ToggleSeat(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	selected, err := h.sessions.ToggleSeat(vars["id"], strings.ToUpper(vars["seatId"]))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, SeatSelectionResponse{Selected: selected})
}

// ApplySeatSelection handles POST /api/sessions/{id}/seats/apply
func (h *Handler) ApplySeatSelection(w http.ResponseWriter, r *http.Request) {
	view, err := h.sessions.ApplySeatSelection(mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// CancelSeatSelection handles POST /api/sessions/{id}/seats/cancel
func (h *Handler) CancelSeatSelection(w http.ResponseWriter, r *http.Request) {
	view, err := h.sessions.CancelSeatSelection(mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// JumpTo handles POST /api/sessions/{id}/jump
func (h *Handler) JumpTo(w http.ResponseWriter, r *http.Request) {
	var req JumpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	stage, err := booking.ParseStage(req.Stage)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	view, err := h.sessions.JumpTo(mux.Vars(r)["id"], stage)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// Submit handles POST /api/sessions/{id}/submit
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	confirmation, err := h.sessions.Submit(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, confirmation)
}

// SessionSocket handles GET /api/sessions/{id}/ws
func (h *Handler) SessionSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	if _, err := h.sessions.GetSession(sessionID); err != nil {
		respondServiceError(w, err)
		return
	}
	h.sockets.ServeWS(w, r, sessionID)
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}
