package seatmap

import (
	"errors"
	"fmt"
	"slices"
)

// DefaultCategoryID is the category applied to rows no configured category covers
const DefaultCategoryID = "standard"

var (
	ErrOverlappingRows    = errors.New("row covered by more than one seat category")
	ErrNoDefaultCategory  = errors.New("default seat category not configured")
	ErrInvalidLayout      = errors.New("invalid seat layout")
	ErrInvalidCategory    = errors.New("invalid seat category")
	ErrEmergencyRowBounds = errors.New("emergency row outside layout")
)

// Category is a priced group of seating rows
type Category struct {
	ID    string  `json:"id"`
	Label string  `json:"label"`
	Price float64 `json:"price"`
	Rows  []int   `json:"rows"`
}

// Layout describes the physical cabin grid
type Layout struct {
	Rows          int      `json:"rows"`
	Columns       []string `json:"columns"`
	AisleAfter    int      `json:"aisleAfter"`
	EmergencyRows []int    `json:"emergencyRows"`
}

// Config is the static seat map configuration
type Config struct {
	Layout     Layout     `json:"layout"`
	Categories []Category `json:"categories"`
}

// DefaultConfig returns the cabin used by every flight
func DefaultConfig() Config {
	return Config{
		Layout: Layout{
			Rows:          20,
			Columns:       []string{"A", "B", "C", "D", "E", "F"},
			AisleAfter:    3,
			EmergencyRows: []int{16, 17},
		},
		Categories: []Category{
			{ID: "extra_legroom", Label: "Extra legroom seats", Price: 15.00, Rows: []int{1, 2}},
			{ID: "front", Label: "Front seat", Price: 13.01, Rows: []int{3, 4, 5}},
			{ID: DefaultCategoryID, Label: "Standard", Price: 7.00, Rows: []int{6, 7, 8, 9, 10, 11, 12, 13, 14, 15}},
			{ID: "on_sale", Label: "On sale!", Price: 3.00, Rows: []int{18, 20}},
		},
	}
}

// Validate checks the configuration once at load time. CategoryFor resolves
// overlaps by declaration order, so overlapping rows are refused here.
func (c Config) Validate() error {
	if c.Layout.Rows <= 0 || len(c.Layout.Columns) == 0 {
		return ErrInvalidLayout
	}
	if c.Layout.AisleAfter < 0 || c.Layout.AisleAfter > len(c.Layout.Columns) {
		return fmt.Errorf("%w: aisle after column %d", ErrInvalidLayout, c.Layout.AisleAfter)
	}
	for _, row := range c.Layout.EmergencyRows {
		if row < 1 || row > c.Layout.Rows {
			return fmt.Errorf("%w: row %d", ErrEmergencyRowBounds, row)
		}
	}

	owner := make(map[int]string)
	hasDefault := false
	for _, cat := range c.Categories {
		if cat.ID == "" || cat.Price <= 0 {
			return fmt.Errorf("%w: %q", ErrInvalidCategory, cat.ID)
		}
		if cat.ID == DefaultCategoryID {
			hasDefault = true
		}
		for _, row := range cat.Rows {
			if prev, ok := owner[row]; ok {
				return fmt.Errorf("%w: row %d in %q and %q", ErrOverlappingRows, row, prev, cat.ID)
			}
			owner[row] = cat.ID
		}
	}
	if !hasDefault {
		return ErrNoDefaultCategory
	}
	return nil
}

// CategoryFor returns the first category, in declaration order, covering row.
// Rows no category covers, including rows outside the layout, get the default.
func (c Config) CategoryFor(row int) Category {
	for _, cat := range c.Categories {
		if slices.Contains(cat.Rows, row) {
			return cat
		}
	}
	return c.defaultCategory()
}

func (c Config) defaultCategory() Category {
	for _, cat := range c.Categories {
		if cat.ID == DefaultCategoryID {
			return cat
		}
	}
	return Category{ID: DefaultCategoryID, Label: "Standard"}
}

// IsEmergencyRow reports whether seats in row can never be selected
func (c Config) IsEmergencyRow(row int) bool {
	return slices.Contains(c.Layout.EmergencyRows, row)
}

// SeatPrice returns the category price of a seat id such as "12C"
func (c Config) SeatPrice(seatID string) (float64, error) {
	row, _, err := ParseSeatID(seatID)
	if err != nil {
		return 0, err
	}
	return c.CategoryFor(row).Price, nil
}

// Contains reports whether the seat exists in the cabin grid
func (l Layout) Contains(row int, column string) bool {
	return row >= 1 && row <= l.Rows && slices.Contains(l.Columns, column)
}
