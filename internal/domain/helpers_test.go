package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const testStartDate = "2025-06-02" // a Monday

// series builds consecutive observations from testStartDate with fixed
// temperatures and the given daily rain.
func series(t *testing.T, minC, maxC float64, rain ...float64) []DailyObservation {
	t.Helper()
	obs := make([]DailyObservation, len(rain))
	for i, r := range rain {
		date, err := AddDays(testStartDate, i)
		require.NoError(t, err)
		obs[i] = DailyObservation{
			Date:            date,
			RainMm:          r,
			TemperatureC:    (minC + maxC) / 2,
			MinTemperatureC: minC,
			MaxTemperatureC: maxC,
		}
	}
	return obs
}

func mustProfile(t *testing.T, c Crop) CropProfile {
	t.Helper()
	p, ok := ProfileFor(c)
	require.True(t, ok, "profile for %s", c)
	return p
}

func statuses(days []DayPlan) []FertStatus {
	out := make([]FertStatus, len(days))
	for i, d := range days {
		out[i] = d.FertStatus
	}
	return out
}
