package pricing

import (
	"math"
	"strings"
	"time"

	"github.com/cx-tal-miterani/flight-booking-flow/shared/models"
)

// EngineConfig weights the dynamic pricing factors
type EngineConfig struct {
	MinMultiplier float64
	MaxMultiplier float64
	SeatWeight    float64
	TimeWeight    float64
	DemandWeight  float64
}

func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		MinMultiplier: 0.8,
		MaxMultiplier: 3.0,
		SeatWeight:    0.4,
		TimeWeight:    0.35,
		DemandWeight:  0.25,
	}
}

// Engine derives a flight's current price from its base price, occupancy,
// time to departure and demand level.
type Engine struct {
	cfg EngineConfig
}

func NewEngine(cfg EngineConfig) *Engine {
	return &Engine{cfg: cfg}
}

// PriceInput carries the flight attributes the engine reads
type PriceInput struct {
	BasePrice      float64
	TotalSeats     int
	AvailableSeats int
	DepartureTime  time.Time
	Demand         models.DemandLevel
}

// Factors is the breakdown behind a dynamic price
type Factors struct {
	Seat       float64 `json:"seatFactor"`
	Time       float64 `json:"timeFactor"`
	Demand     float64 `json:"demandFactor"`
	Multiplier float64 `json:"multiplier"`
}

// CurrentPrice returns the dynamic price, rounded to cents since it is stored
// as the flight's published price.
func (e *Engine) CurrentPrice(in PriceInput, now time.Time) (float64, Factors) {
	f := Factors{
		Seat:   seatFactor(in.TotalSeats, in.AvailableSeats),
		Time:   timeFactor(in.DepartureTime.Sub(now)),
		Demand: demandFactor(in.Demand),
	}
	m := f.Seat*e.cfg.SeatWeight + f.Time*e.cfg.TimeWeight + f.Demand*e.cfg.DemandWeight
	f.Multiplier = math.Max(e.cfg.MinMultiplier, math.Min(m, e.cfg.MaxMultiplier))
	return Round(in.BasePrice * f.Multiplier), f
}

func seatFactor(total, available int) float64 {
	if available <= 0 || total <= 0 {
		return 3.0
	}
	occupancy := float64(total-available) / float64(total)
	switch {
	case occupancy < 0.2:
		return 0.8 + occupancy*1.0
	case occupancy < 0.6:
		return 1.0 + (occupancy-0.2)*1.25
	case occupancy < 0.9:
		return 1.5 + (occupancy-0.6)*3.33
	default:
		return 2.5 + (occupancy-0.9)*5.0
	}
}

func timeFactor(untilDeparture time.Duration) float64 {
	if untilDeparture < 0 {
		return 3.0
	}
	days := untilDeparture.Hours() / 24
	switch {
	case days > 30:
		return 0.8
	case days > 15:
		return 0.8 + (30-days)/15*0.2
	case days > 7:
		return 1.0 + (15-days)/8*0.3
	case days > 3:
		return 1.3 + (7-days)/4*0.4
	case days > 1:
		return 1.7 + (3-days)/2*0.8
	default:
		return 2.5 + (1-days)*0.5
	}
}

func demandFactor(level models.DemandLevel) float64 {
	switch models.DemandLevel(strings.ToLower(strings.TrimSpace(string(level)))) {
	case models.DemandLow:
		return 0.9
	case models.DemandHigh:
		return 1.4
	case models.DemandVeryHigh:
		return 2.0
	default:
		return 1.0
	}
}

// ShiftDemand picks a new demand level from a roll in [0,1): 20% low,
// 50% medium, 20% high, 10% very high.
func ShiftDemand(roll float64) models.DemandLevel {
	switch {
	case roll < 0.2:
		return models.DemandLow
	case roll < 0.7:
		return models.DemandMedium
	case roll < 0.9:
		return models.DemandHigh
	default:
		return models.DemandVeryHigh
	}
}
