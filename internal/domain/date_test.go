package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2025-06-02")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), got)

	_, err = ParseDate("02/06/2025")
	require.Error(t, err)
}

func TestAddDays(t *testing.T) {
	tests := []struct {
		date string
		n    int
		want string
	}{
		{"2025-06-02", 0, "2025-06-02"},
		{"2025-06-02", 7, "2025-06-09"},
		{"2024-02-28", 1, "2024-02-29"},
		{"2025-12-31", 1, "2026-01-01"},
		{"2025-06-02", -2, "2025-05-31"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got, err := AddDays(tt.date, tt.n)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := AddDays("bogus", 1)
	require.Error(t, err)
}

func TestDaysBetween(t *testing.T) {
	tests := []struct {
		name     string
		from, to string
		want     int
	}{
		{"one week", "2025-06-02", "2025-06-09", 7},
		{"same day", "2025-06-02", "2025-06-02", 1},
		{"inverted", "2025-06-09", "2025-06-02", 1},
		{"across months", "2025-06-25", "2025-07-05", 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DaysBetween(tt.from, tt.to)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := DaysBetween("2025-06-02", "later")
	require.Error(t, err)
}

func TestFormatDateLabel(t *testing.T) {
	assert.Equal(t, "Tue 3 Jun", FormatDateLabel("2025-06-03"))
	assert.Equal(t, "Sun 28 Dec", FormatDateLabel("2025-12-28"))
	assert.Equal(t, "next week", FormatDateLabel("next week"))
}
