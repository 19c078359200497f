package seatmap

import (
	"math/rand"
	"testing"

	"github.com/cx-tal-miterani/flight-booking-flow/shared/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMap(t *testing.T, reserved ...string) *Map {
	t.Helper()
	availability := []models.SeatAvailability{
		{SeatNumber: "1C", IsAvailable: true},
	}
	for _, id := range reserved {
		availability = append(availability, models.SeatAvailability{SeatNumber: id, IsAvailable: false})
	}
	m, err := New(DefaultConfig(), availability)
	require.NoError(t, err)
	return m
}

func TestDefaultConfig_Valid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr error
	}{
		{
			name: "overlapping rows",
			mutate: func(c *Config) {
				c.Categories[1].Rows = append(c.Categories[1].Rows, 2)
			},
			wantErr: ErrOverlappingRows,
		},
		{
			name: "missing default category",
			mutate: func(c *Config) {
				c.Categories = c.Categories[:2]
			},
			wantErr: ErrNoDefaultCategory,
		},
		{
			name: "emergency row outside layout",
			mutate: func(c *Config) {
				c.Layout.EmergencyRows = []int{21}
			},
			wantErr: ErrEmergencyRowBounds,
		},
		{
			name: "negative price",
			mutate: func(c *Config) {
				c.Categories[0].Price = -1
			},
			wantErr: ErrInvalidCategory,
		},
		{
			name: "zero price",
			mutate: func(c *Config) {
				c.Categories[2].Price = 0
			},
			wantErr: ErrInvalidCategory,
		},
		{
			name: "empty layout",
			mutate: func(c *Config) {
				c.Layout.Rows = 0
			},
			wantErr: ErrInvalidLayout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), tt.wantErr)

			_, err := New(cfg, nil)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestConfig_CategoryFor(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		row   int
		want  string
		price float64
	}{
		{row: 1, want: "extra_legroom", price: 15.00},
		{row: 2, want: "extra_legroom", price: 15.00},
		{row: 4, want: "front", price: 13.01},
		{row: 10, want: "standard", price: 7.00},
		{row: 16, want: "standard", price: 7.00},
		{row: 17, want: "standard", price: 7.00},
		{row: 18, want: "on_sale", price: 3.00},
		{row: 19, want: "standard", price: 7.00},
		{row: 20, want: "on_sale", price: 3.00},
		{row: 0, want: "standard", price: 7.00},
		{row: 99, want: "standard", price: 7.00},
	}

	for _, tt := range tests {
		cat := cfg.CategoryFor(tt.row)
		assert.Equal(t, tt.want, cat.ID, "row %d", tt.row)
		assert.Equal(t, tt.price, cat.Price, "row %d", tt.row)
	}
}

func TestConfig_CategoryFor_FirstMatchWins(t *testing.T) {
	// Validate refuses this, but lookups on an unvalidated config stay deterministic.
	cfg := DefaultConfig()
	cfg.Categories[1].Rows = []int{1, 3}

	assert.Equal(t, "extra_legroom", cfg.CategoryFor(1).ID)
}

func TestParseSeatID(t *testing.T) {
	row, col, err := ParseSeatID("12c")
	require.NoError(t, err)
	assert.Equal(t, 12, row)
	assert.Equal(t, "C", col)

	for _, bad := range []string{"", "A", "12", "A12"} {
		_, _, err := ParseSeatID(bad)
		assert.ErrorIs(t, err, ErrInvalidSeatID, "seat %q", bad)
	}
	assert.Equal(t, "7F", SeatID(7, "F"))
}

func TestMap_IsReserved(t *testing.T) {
	m := newTestMap(t, "3A", "10F")

	assert.True(t, m.IsReserved("3A"))
	assert.True(t, m.IsReserved("10f"))
	assert.False(t, m.IsReserved("1C"))
	assert.False(t, m.IsReserved("4B"))
}

func TestMap_IsSelectable(t *testing.T) {
	m := newTestMap(t, "3A")

	assert.True(t, m.IsSelectable("1A", 1))
	assert.False(t, m.IsSelectable("3A", 3), "reserved")
	assert.False(t, m.IsSelectable("16B", 16), "emergency row")
	assert.False(t, m.IsSelectable("17F", 17), "emergency row")
	assert.False(t, m.IsSelectable("21A", 21), "outside cabin")
	assert.False(t, m.IsSelectable("5G", 5), "unknown column")
	assert.False(t, m.IsSelectable("5A", 6), "row mismatch")
}

func TestMap_ToggleSelect(t *testing.T) {
	m := newTestMap(t, "3A")

	assert.True(t, m.ToggleSelect("1A", 1))
	assert.True(t, m.ToggleSelect("2B", 2))
	assert.Equal(t, []string{"1A", "2B"}, m.Selected())

	assert.True(t, m.ToggleSelect("1A", 1))
	assert.Equal(t, []string{"2B"}, m.Selected())

	assert.False(t, m.ToggleSelect("3A", 3))
	assert.False(t, m.ToggleSelect("16C", 16))
	assert.Equal(t, []string{"2B"}, m.Selected())
}

func TestMap_TotalPrice(t *testing.T) {
	m := newTestMap(t)

	m.ToggleSelect("1A", 1)
	m.ToggleSelect("1B", 1)
	assert.Equal(t, 30.00, m.TotalPrice())

	m.ToggleSelect("18C", 18)
	assert.Equal(t, 33.00, m.TotalPrice())

	m.ToggleSelect("1A", 1)
	assert.Equal(t, 18.00, m.TotalPrice())
}

func TestMap_EmergencyRowsHaveCategoryButNeverSelectable(t *testing.T) {
	m := newTestMap(t)

	for _, row := range []int{16, 17} {
		assert.NotEmpty(t, m.CategoryFor(row).ID)
		for _, col := range DefaultConfig().Layout.Columns {
			id := SeatID(row, col)
			assert.False(t, m.ToggleSelect(id, row), id)
		}
	}
	assert.Empty(t, m.Selected())
}

func TestMap_RandomTogglesNeverSelectForbiddenSeats(t *testing.T) {
	reserved := []string{"1A", "2C", "5D", "9F", "12B", "20E"}
	m := newTestMap(t, reserved...)
	cfg := DefaultConfig()
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 5000; i++ {
		row := rng.Intn(cfg.Layout.Rows + 2)
		col := cfg.Layout.Columns[rng.Intn(len(cfg.Layout.Columns))]
		m.ToggleSelect(SeatID(row, col), row)

		for _, id := range m.Selected() {
			r, _, err := ParseSeatID(id)
			require.NoError(t, err)
			require.False(t, m.IsReserved(id), "reserved seat %s selected", id)
			require.False(t, cfg.IsEmergencyRow(r), "emergency seat %s selected", id)
		}
	}
}

func TestMap_Restore(t *testing.T) {
	m := newTestMap(t, "3A")

	m.Restore([]string{"1A", "3A", "16A", "1A", "bogus", "4D"})
	assert.Equal(t, []string{"1A", "4D"}, m.Selected())
}

func TestNormalizeSeatID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "1A", want: "1A"},
		{in: "01A", want: "1A"},
		{in: " 1a ", want: "1A"},
		{in: "012c", want: "12C"},
	}
	for _, tt := range tests {
		got, err := NormalizeSeatID(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := NormalizeSeatID("A1")
	assert.ErrorIs(t, err, ErrInvalidSeatID)
}

func TestMap_Toggle_SpellingsOfOneSeat(t *testing.T) {
	tests := []struct {
		name         string
		reserved     []string
		toggles      []string
		wantSelected []string
		wantTotal    float64
	}{
		{
			name:         "leading zero on reserved seat",
			reserved:     []string{"1A"},
			toggles:      []string{"01A"},
			wantSelected: nil,
		},
		{
			name:         "padded lowercase reserved seat",
			reserved:     []string{"1A"},
			toggles:      []string{" 1a "},
			wantSelected: nil,
		},
		{
			name:         "lookup reports padded seat number",
			reserved:     []string{"01a"},
			toggles:      []string{"1A"},
			wantSelected: nil,
		},
		{
			name:         "second spelling deselects",
			toggles:      []string{"1A", "01A"},
			wantSelected: nil,
		},
		{
			name:         "stored in canonical form",
			toggles:      []string{"01b", " 2C"},
			wantSelected: []string{"1B", "2C"},
			wantTotal:    30.00,
		},
		{
			name:         "mixed spellings charge once per seat",
			reserved:     []string{"1A"},
			toggles:      []string{"1A", "01A", "1B", "01B", "2B"},
			wantSelected: []string{"2B"},
			wantTotal:    15.00,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMap(t, tt.reserved...)
			for _, id := range tt.toggles {
				_, err := m.Toggle(id)
				require.NoError(t, err)
			}
			if tt.wantSelected == nil {
				assert.Empty(t, m.Selected())
			} else {
				assert.Equal(t, tt.wantSelected, m.Selected())
			}
			assert.Equal(t, tt.wantTotal, m.TotalPrice())
		})
	}
}

func TestMap_Restore_CollapsesSpellings(t *testing.T) {
	m := newTestMap(t, "3A")

	m.Restore([]string{"1A", "01a", "03A", " 4d"})
	assert.Equal(t, []string{"1A", "4D"}, m.Selected())
	assert.True(t, m.IsSelected("001A"))
}

func TestMap_Seats(t *testing.T) {
	m := newTestMap(t, "3A")
	m.ToggleSelect("1B", 1)

	seats := m.Seats()
	require.Len(t, seats, 120)

	byID := make(map[string]Seat, len(seats))
	for _, s := range seats {
		byID[s.ID] = s
	}
	assert.Equal(t, SeatStatusReserved, byID["3A"].Status)
	assert.Equal(t, SeatStatusSelected, byID["1B"].Status)
	assert.Equal(t, SeatStatusEmergency, byID["16D"].Status)
	assert.Equal(t, SeatStatusAvailable, byID["20F"].Status)
	assert.Equal(t, "on_sale", byID["20F"].Category)
	assert.True(t, byID["4C"].AisleAfter)
	assert.False(t, byID["4D"].AisleAfter)
}

func TestConfig_SeatPrice(t *testing.T) {
	cfg := DefaultConfig()

	price, err := cfg.SeatPrice("3F")
	require.NoError(t, err)
	assert.Equal(t, 13.01, price)

	_, err = cfg.SeatPrice("F3")
	assert.ErrorIs(t, err, ErrInvalidSeatID)
}
