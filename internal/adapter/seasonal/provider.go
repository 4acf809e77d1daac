// Package seasonal implements a deterministic UK weather model used when no
// live forecast API is configured.
package seasonal

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/couchcryptid/crop-planner/internal/domain"
)

// Name identifies the seasonal model in plan records and metrics.
const Name = "seasonal"

// season holds UK climate normals for a block of months.
type season struct {
	RainMmPerDay float64
	MeanTempC    float64
	TempRangeC   float64
}

var (
	winter = season{RainMmPerDay: 3.7, MeanTempC: 5, TempRangeC: 6}
	spring = season{RainMmPerDay: 2.5, MeanTempC: 9.5, TempRangeC: 9}
	summer = season{RainMmPerDay: 1.9, MeanTempC: 16.5, TempRangeC: 10}
	autumn = season{RainMmPerDay: 3.1, MeanTempC: 11, TempRangeC: 7}
)

func seasonFor(m time.Month) season {
	switch m {
	case time.December, time.January, time.February:
		return winter
	case time.March, time.April, time.May:
		return spring
	case time.June, time.July, time.August:
		return summer
	default:
		return autumn
	}
}

// Provider synthesizes daily observations from seasonal normals. Wetter,
// cooler weather is modelled further north and drier weather further east.
type Provider struct{}

// NewProvider returns the seasonal model.
func NewProvider() *Provider {
	return &Provider{}
}

// Name implements domain.ForecastProvider.
func (p *Provider) Name() string { return Name }

// DailyForecast implements domain.ForecastProvider. The result depends only on
// the query, so repeated calls return identical observations.
func (p *Provider) DailyForecast(ctx context.Context, q domain.ForecastQuery) ([]domain.DailyObservation, error) {
	start, err := domain.ParseDate(q.From)
	if err != nil {
		return nil, fmt.Errorf("seasonal forecast: %w", err)
	}

	latInfluence := clamp((q.Lat-50)/10, 0, 1)
	lngInfluence := clamp((math.Abs(q.Lng)-1)/8, 0, 1)

	days := max(0, q.Days)
	out := make([]domain.DailyObservation, 0, days)
	for i := range days {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		day := start.AddDate(0, 0, i)
		s := seasonFor(day.Month())
		variation := 0.9 + float64(i%5)*0.05

		rain := variation * (s.RainMmPerDay + 0.6*latInfluence - 0.2*lngInfluence)
		mean := s.MeanTempC - 2*latInfluence + (variation-1)*10

		out = append(out, domain.DailyObservation{
			Date:            domain.FormatDate(day),
			RainMm:          round2(math.Max(0, rain)),
			TemperatureC:    round2(mean),
			MinTemperatureC: round2(mean - s.TempRangeC/2),
			MaxTemperatureC: round2(mean + s.TempRangeC/2),
		})
	}
	return out, nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
