package seatmap

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/cx-tal-miterani/flight-booking-flow/shared/models"
)

var ErrInvalidSeatID = errors.New("invalid seat id")

type SeatStatus string

const (
	SeatStatusAvailable SeatStatus = "available"
	SeatStatusReserved  SeatStatus = "reserved"
	SeatStatusEmergency SeatStatus = "emergency"
	SeatStatusSelected  SeatStatus = "selected"
)

// Seat is one classified cell of the cabin grid
type Seat struct {
	ID       string     `json:"id"`
	Row      int        `json:"row"`
	Column   string     `json:"column"`
	Category string     `json:"category"`
	Price    float64    `json:"price"`
	Status   SeatStatus `json:"status"`
	// AisleAfter marks the seat that is followed by the aisle
	AisleAfter bool `json:"aisleAfter,omitempty"`
}

// Map holds the reserved set of one flight and the traveler's in-progress selection
type Map struct {
	cfg      Config
	reserved map[string]struct{}
	selected []string
}

// New builds a seat map from the seats lookup of a flight
func New(cfg Config, availability []models.SeatAvailability) (*Map, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m := &Map{
		cfg:      cfg,
		reserved: make(map[string]struct{}),
	}
	for _, s := range availability {
		if !s.IsAvailable {
			m.reserved[canonical(s.SeatNumber)] = struct{}{}
		}
	}
	return m, nil
}

// SeatID joins a row number and column letter, e.g. 12 and "C" give "12C"
func SeatID(row int, column string) string {
	return strconv.Itoa(row) + column
}

// ParseSeatID splits a seat id into row number and column letter
func ParseSeatID(id string) (int, string, error) {
	id = strings.ToUpper(strings.TrimSpace(id))
	i := 0
	for i < len(id) && id[i] >= '0' && id[i] <= '9' {
		i++
	}
	if i == 0 || i == len(id) {
		return 0, "", fmt.Errorf("%w: %q", ErrInvalidSeatID, id)
	}
	row, err := strconv.Atoi(id[:i])
	if err != nil {
		return 0, "", fmt.Errorf("%w: %q", ErrInvalidSeatID, id)
	}
	return row, id[i:], nil
}

// NormalizeSeatID rewrites a seat id to the form SeatID produces, so "01a"
// and " 1A " both become "1A".
func NormalizeSeatID(id string) (string, error) {
	row, column, err := ParseSeatID(id)
	if err != nil {
		return "", err
	}
	return SeatID(row, column), nil
}

func canonical(id string) string {
	if norm, err := NormalizeSeatID(id); err == nil {
		return norm
	}
	return strings.ToUpper(strings.TrimSpace(id))
}

func (m *Map) Config() Config {
	return m.cfg
}

func (m *Map) CategoryFor(row int) Category {
	return m.cfg.CategoryFor(row)
}

// IsReserved reports whether the lookup marked the seat as taken
func (m *Map) IsReserved(seatID string) bool {
	_, ok := m.reserved[canonical(seatID)]
	return ok
}

// IsSelectable is false for reserved seats, emergency rows and seats outside the cabin
func (m *Map) IsSelectable(seatID string, row int) bool {
	parsedRow, column, err := ParseSeatID(seatID)
	if err != nil || parsedRow != row {
		return false
	}
	if m.IsReserved(seatID) || m.cfg.IsEmergencyRow(row) {
		return false
	}
	return m.cfg.Layout.Contains(row, column)
}

// ToggleSelect flips membership of a selectable seat and reports whether the
// selection changed.
func (m *Map) ToggleSelect(seatID string, row int) bool {
	if !m.IsSelectable(seatID, row) {
		return false
	}
	seatID = canonical(seatID)
	if i := slices.Index(m.selected, seatID); i >= 0 {
		m.selected = slices.Delete(m.selected, i, i+1)
		return true
	}
	m.selected = append(m.selected, seatID)
	return true
}

// Toggle is ToggleSelect with the row taken from the seat id
func (m *Map) Toggle(seatID string) (bool, error) {
	row, _, err := ParseSeatID(seatID)
	if err != nil {
		return false, err
	}
	return m.ToggleSelect(seatID, row), nil
}

// IsSelected reports whether the seat is part of the current selection
func (m *Map) IsSelected(seatID string) bool {
	return slices.Contains(m.selected, canonical(seatID))
}

// Selected returns the selection in the order seats were picked
func (m *Map) Selected() []string {
	return slices.Clone(m.selected)
}

// Restore replaces the selection, silently dropping seats that are not selectable
func (m *Map) Restore(seatIDs []string) {
	m.selected = nil
	for _, id := range seatIDs {
		row, _, err := ParseSeatID(id)
		if err != nil || m.IsSelected(id) {
			continue
		}
		m.ToggleSelect(id, row)
	}
}

// TotalPrice sums the category price of every selected seat
func (m *Map) TotalPrice() float64 {
	var total float64
	for _, id := range m.selected {
		row, _, err := ParseSeatID(id)
		if err != nil {
			continue
		}
		total += m.cfg.CategoryFor(row).Price
	}
	return total
}

// Seats renders the whole grid row by row
func (m *Map) Seats() []Seat {
	layout := m.cfg.Layout
	seats := make([]Seat, 0, layout.Rows*len(layout.Columns))
	for row := 1; row <= layout.Rows; row++ {
		cat := m.cfg.CategoryFor(row)
		for i, col := range layout.Columns {
			id := SeatID(row, col)
			status := SeatStatusAvailable
			switch {
			case m.cfg.IsEmergencyRow(row):
				status = SeatStatusEmergency
			case m.IsReserved(id):
				status = SeatStatusReserved
			case m.IsSelected(id):
				status = SeatStatusSelected
			}
			seats = append(seats, Seat{
				ID:         id,
				Row:        row,
				Column:     col,
				Category:   cat.ID,
				Price:      cat.Price,
				Status:     status,
				AisleAfter: i+1 == layout.AisleAfter,
			})
		}
	}
	return seats
}
