package openmeteo

import (
	"fmt"
	"math"
	"slices"

	"github.com/couchcryptid/crop-planner/internal/domain"
)

type dayAccumulator struct {
	rain      float64
	tempSum   float64
	tempCount int
	minTemp   float64
	maxTemp   float64
}

// aggregateHourly buckets hourly samples by calendar day within [from, to) and
// folds them into daily observations: rain is summed, temperature averaged, and
// the extremes kept as min and max. Null samples are skipped.
func aggregateHourly(h hourly, from, to string) ([]domain.DailyObservation, error) {
	if len(h.Precipitation) > len(h.Time) || len(h.Temperature) > len(h.Time) {
		return nil, fmt.Errorf("aggregate hourly: %d timestamps for %d precipitation and %d temperature samples",
			len(h.Time), len(h.Precipitation), len(h.Temperature))
	}

	days := make(map[string]*dayAccumulator)
	for i, ts := range h.Time {
		if len(ts) < len(domain.DateLayout) {
			continue
		}
		date := ts[:len(domain.DateLayout)]
		if date < from || (to != "" && date >= to) {
			continue
		}

		acc, ok := days[date]
		if !ok {
			acc = &dayAccumulator{minTemp: math.Inf(1), maxTemp: math.Inf(-1)}
			days[date] = acc
		}
		if v := sample(h.Precipitation, i); v != nil {
			acc.rain += *v
		}
		if v := sample(h.Temperature, i); v != nil {
			acc.tempSum += *v
			acc.tempCount++
			acc.minTemp = math.Min(acc.minTemp, *v)
			acc.maxTemp = math.Max(acc.maxTemp, *v)
		}
	}

	dates := make([]string, 0, len(days))
	for d := range days {
		dates = append(dates, d)
	}
	slices.Sort(dates)

	out := make([]domain.DailyObservation, 0, len(dates))
	for _, d := range dates {
		acc := days[d]
		obs := domain.DailyObservation{Date: d, RainMm: round2(acc.rain)}
		if acc.tempCount > 0 {
			obs.TemperatureC = round2(acc.tempSum / float64(acc.tempCount))
			obs.MinTemperatureC = acc.minTemp
			obs.MaxTemperatureC = acc.maxTemp
		}
		out = append(out, obs)
	}
	return out, nil
}

func sample(values []*float64, i int) *float64 {
	if i >= len(values) {
		return nil
	}
	return values[i]
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
