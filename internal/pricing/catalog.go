package pricing

import "errors"

var (
	ErrUnknownFare    = errors.New("unknown fare tier")
	ErrUnknownService = errors.New("unknown extra service")
)

// FareTier names a fare package
type FareTier string

const (
	FareLowfare FareTier = "lowfare"
	FareEconomy FareTier = "economy"
	FarePremium FareTier = "premium"
)

// Fare is a fare package applied as a multiplier to the flight's current price
type Fare struct {
	Tier        FareTier `json:"tier"`
	Name        string   `json:"name"`
	Subtitle    string   `json:"subtitle"`
	Multiplier  float64  `json:"multiplier"`
	SeatPolicy  string   `json:"seatPolicy"`
	Baggage     []string `json:"baggage"`
	Flexibility string   `json:"flexibility"`
}

var fares = []Fare{
	{
		Tier:        FareLowfare,
		Name:        "Lowfare",
		Subtitle:    "Cabin Economy",
		Multiplier:  0.8,
		SeatPolicy:  "Automatically Allocated",
		Baggage:     []string{"1 Cabin Baggage"},
		Flexibility: "Non-refundable",
	},
	{
		Tier:        FareEconomy,
		Name:        "Economy",
		Subtitle:    "Cabin Economy +",
		Multiplier:  1.0,
		SeatPolicy:  "Seat Choice Included",
		Baggage:     []string{"1 Cabin Baggage", "1 Checked Baggage"},
		Flexibility: "Non-refundable",
	},
	{
		Tier:        FarePremium,
		Name:        "Premium",
		Subtitle:    "Cabin First Class",
		Multiplier:  1.5,
		SeatPolicy:  "Seat Choice Included",
		Baggage:     []string{"2 Cabin Baggage", "2 Checked Baggage"},
		Flexibility: "Change of Date Possible",
	},
}

// Fares returns the configured fare packages in display order
func Fares() []Fare {
	out := make([]Fare, len(fares))
	copy(out, fares)
	return out
}

// LookupFare returns the fare package for tier
func LookupFare(tier FareTier) (Fare, error) {
	for _, f := range fares {
		if f.Tier == tier {
			return f, nil
		}
	}
	return Fare{}, ErrUnknownFare
}

// ServiceNone is the exclusive "no added services" choice
const ServiceNone = "none"

// Service is an optional flat-priced add-on
type Service struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
}

var services = []Service{
	{ID: "priority", Name: "Priority Boarding", Description: "Board the aircraft first", Price: 15},
	{ID: "baggage", Name: "Extra Large Baggage", Description: "Additional 10kg baggage", Price: 25},
	{ID: ServiceNone, Name: "No Added Services", Description: "Continue without extras", Price: 0},
}

// Services returns the extra service catalog, including the none sentinel
func Services() []Service {
	out := make([]Service, len(services))
	copy(out, services)
	return out
}

// LookupService returns the service with id
func LookupService(id string) (Service, error) {
	for _, s := range services {
		if s.ID == id {
			return s, nil
		}
	}
	return Service{}, ErrUnknownService
}
