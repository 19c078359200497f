package router

import (
	"net/http"

	"github.com/cx-tal-miterani/flight-booking-flow/internal/handlers"
	"github.com/gorilla/mux"
)

// NewRouter creates and configures the HTTP router
func NewRouter(h *handlers.Handler) *mux.Router {
	r := mux.NewRouter()

	r.Use(requestLogger)
	r.Use(corsMiddleware)

	api := r.PathPrefix("/api").Subrouter()

	// Catalogs and flights
	api.HandleFunc("/fares", h.GetFares).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/services", h.GetServices).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/flights", h.GetFlights).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/flights/{id}", h.GetFlight).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/bookings/{pnr}", h.GetBooking).Methods(http.MethodGet, http.MethodOptions)

	// Booking sessions
	api.HandleFunc("/sessions", h.StartSession).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/sessions/{id}", h.GetSession).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/sessions/{id}", h.AbandonSession).Methods(http.MethodDelete, http.MethodOptions)
	api.HandleFunc("/sessions/{id}/fare", h.SelectFare).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/sessions/{id}/passenger", h.SubmitPassenger).Methods(http.MethodPost, http.MethodOptions)
	// fixed paths are registered before the {serviceId} and {seatId} patterns
	api.HandleFunc("/sessions/{id}/services/continue", h.ContinueFromServices).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/sessions/{id}/services/{serviceId}", h.ToggleService).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/sessions/{id}/seats/open", h.OpenSeatSelection).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/sessions/{id}/seats/apply", h.ApplySeatSelection).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/sessions/{id}/seats/cancel", h.CancelSeatSelection).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/sessions/{id}/seats/{seatId}", h.ToggleSeat).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/sessions/{id}/jump", h.JumpTo).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/sessions/{id}/submit", h.Submit).Methods(http.MethodPost, http.MethodOptions)

	// WebSocket for real-time updates
	api.HandleFunc("/sessions/{id}/ws", h.SessionSocket).Methods(http.MethodGet)

	// Health check
	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Traveler-ID, X-Traveler-Email")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
