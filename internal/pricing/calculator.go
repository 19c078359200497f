package pricing

import (
	"fmt"
	"math"

	"github.com/cx-tal-miterani/flight-booking-flow/shared/models"
)

// SeatPricer resolves the price of a single seat id
type SeatPricer interface {
	SeatPrice(seatID string) (float64, error)
}

// LineItem is one priced component of a quote
type LineItem struct {
	ID     string  `json:"id"`
	Label  string  `json:"label"`
	Amount float64 `json:"amount"`
}

// Quote is the unrounded price breakdown of a draft booking
type Quote struct {
	Fare     LineItem   `json:"fare"`
	Services []LineItem `json:"services"`
	Seats    []LineItem `json:"seats"`
	Total    float64    `json:"total"`
}

// Calculate prices a draft: fare = currentPrice x multiplier, plus every
// service price, plus every seat's category price. Amounts are kept unrounded;
// use Round or Format when presenting them.
func Calculate(flight models.Flight, fare Fare, serviceIDs []string, seatIDs []string, seats SeatPricer) (Quote, error) {
	q := Quote{
		Fare: LineItem{
			ID:     string(fare.Tier),
			Label:  fare.Name,
			Amount: flight.CurrentPrice * fare.Multiplier,
		},
		Services: make([]LineItem, 0, len(serviceIDs)),
		Seats:    make([]LineItem, 0, len(seatIDs)),
	}
	q.Total = q.Fare.Amount

	for _, id := range serviceIDs {
		svc, err := LookupService(id)
		if err != nil {
			return Quote{}, fmt.Errorf("%w: %q", err, id)
		}
		q.Services = append(q.Services, LineItem{ID: svc.ID, Label: svc.Name, Amount: svc.Price})
		q.Total += svc.Price
	}

	if len(seatIDs) > 0 && seats == nil {
		return Quote{}, fmt.Errorf("seat pricer required for %d seats", len(seatIDs))
	}
	for _, id := range seatIDs {
		price, err := seats.SeatPrice(id)
		if err != nil {
			return Quote{}, err
		}
		q.Seats = append(q.Seats, LineItem{ID: id, Label: "Seat " + id, Amount: price})
		q.Total += price
	}

	return q, nil
}

// Price returns only the total of Calculate
func Price(flight models.Flight, fare Fare, serviceIDs []string, seatIDs []string, seats SeatPricer) (float64, error) {
	q, err := Calculate(flight, fare, serviceIDs, seatIDs, seats)
	if err != nil {
		return 0, err
	}
	return q.Total, nil
}

// Round rounds an amount half away from zero to cents
func Round(amount float64) float64 {
	return math.Round(amount*100) / 100
}

// Format renders an amount for display
func Format(amount float64) string {
	return fmt.Sprintf("€%.2f", Round(amount))
}
