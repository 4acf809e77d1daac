package domain

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	// MaxForecastDays caps the query window; live forecasts do not reach further.
	MaxForecastDays = 16

	defaultPeriodDays = 7

	// SourceInline marks plans built from observations supplied in the request.
	SourceInline = "inline"
)

var (
	// ErrNoForecastProvider is returned when a request needs a forecast but the
	// service runs without one.
	ErrNoForecastProvider = errors.New("no forecast provider configured")

	// ErrForecastUnavailable wraps failures of the forecast provider.
	ErrForecastUnavailable = errors.New("forecast unavailable")
)

// ForecastQuery selects Days consecutive daily observations starting at From
// for one location.
type ForecastQuery struct {
	Lat  float64
	Lng  float64
	From string
	Days int
}

// ForecastProvider supplies daily observations for a location.
type ForecastProvider interface {
	// DailyForecast returns one observation per day of q, sorted by date.
	DailyForecast(ctx context.Context, q ForecastQuery) ([]DailyObservation, error)

	// Name identifies the provider in plan records and metrics.
	Name() string
}

// Resolution is the observation set a plan was built from.
type Resolution struct {
	Source       string
	PeriodStart  string
	PeriodEnd    string
	Observations []DailyObservation
}

// DefaultPeriod returns the window [today, today+7) in UTC.
func DefaultPeriod(now time.Time) (start, end string) {
	today := now.UTC().Truncate(24 * time.Hour)
	return FormatDate(today), FormatDate(today.AddDate(0, 0, defaultPeriodDays))
}

// NewForecastQuery builds a query from optional period bounds. A missing start
// defaults to today and a missing end to seven days after start. The window is
// capped at MaxForecastDays.
func NewForecastQuery(lat, lng float64, periodStart, periodEnd string, now time.Time) (ForecastQuery, error) {
	if periodStart == "" {
		periodStart, _ = DefaultPeriod(now)
	}
	if periodEnd == "" {
		end, err := AddDays(periodStart, defaultPeriodDays)
		if err != nil {
			return ForecastQuery{}, fmt.Errorf("build forecast query: %w", err)
		}
		periodEnd = end
	}
	days, err := DaysBetween(periodStart, periodEnd)
	if err != nil {
		return ForecastQuery{}, fmt.Errorf("build forecast query: %w", err)
	}
	return ForecastQuery{
		Lat:  lat,
		Lng:  lng,
		From: periodStart,
		Days: min(days, MaxForecastDays),
	}, nil
}

// End returns the exclusive end date of the query window.
func (q ForecastQuery) End() string {
	end, err := AddDays(q.From, q.Days)
	if err != nil {
		return ""
	}
	return end
}

// ResolveObservations returns the observations req should be planned over:
// the inline observations, or a forecast for the request's location.
func ResolveObservations(ctx context.Context, req PlanRequest, provider ForecastProvider, now time.Time) (Resolution, error) {
	if !req.HasLocation() {
		obs := req.Observations
		if obs == nil {
			obs = []DailyObservation{}
		}
		return Resolution{
			Source:       SourceInline,
			PeriodStart:  req.PeriodStart,
			PeriodEnd:    req.PeriodEnd,
			Observations: obs,
		}, nil
	}
	if provider == nil {
		return Resolution{}, ErrNoForecastProvider
	}

	q, err := NewForecastQuery(*req.Lat, *req.Lng, req.PeriodStart, req.PeriodEnd, now)
	if err != nil {
		return Resolution{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	obs, err := provider.DailyForecast(ctx, q)
	if err != nil {
		return Resolution{}, fmt.Errorf("%w: %s: %w", ErrForecastUnavailable, provider.Name(), err)
	}
	return Resolution{
		Source:       provider.Name(),
		PeriodStart:  q.From,
		PeriodEnd:    q.End(),
		Observations: obs,
	}, nil
}
