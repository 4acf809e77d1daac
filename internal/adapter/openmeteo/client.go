// Package openmeteo implements domain.ForecastProvider on top of the Open-Meteo
// hourly forecast API.
package openmeteo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/crop-planner/internal/domain"
	"github.com/couchcryptid/crop-planner/internal/observability"
	"github.com/sony/gobreaker/v2"
)

// Name identifies Open-Meteo in plan records and metrics.
const Name = "open-meteo"

// StatusError is returned when the API answers with a non-200 status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("open-meteo API error: status %d: %s", e.Code, e.Body)
}

// Client implements domain.ForecastProvider using the Open-Meteo forecast API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	timezone   string
	breaker    *gobreaker.CircuitBreaker[[]byte]
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithMetrics records API latency on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates an Open-Meteo client. Requests run through a circuit
// breaker that opens after more than five consecutive failures.
func NewClient(baseURL, timezone string, timeout time.Duration, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		timezone:   timezone,
		logger:     logger,
	}
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        Name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("forecast circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name implements domain.ForecastProvider.
func (c *Client) Name() string { return Name }

// DailyForecast fetches hourly precipitation and temperature for q and
// aggregates them into one observation per day.
func (c *Client) DailyForecast(ctx context.Context, q domain.ForecastQuery) ([]domain.DailyObservation, error) {
	if q.Days <= 0 {
		return []domain.DailyObservation{}, nil
	}
	lastDay, err := domain.AddDays(q.From, q.Days-1)
	if err != nil {
		return nil, fmt.Errorf("open-meteo forecast: %w", err)
	}

	params := url.Values{
		"latitude":   {strconv.FormatFloat(q.Lat, 'f', -1, 64)},
		"longitude":  {strconv.FormatFloat(q.Lng, 'f', -1, 64)},
		"hourly":     {"precipitation,temperature_2m"},
		"timezone":   {c.timezone},
		"start_date": {q.From},
		"end_date":   {lastDay},
	}

	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.fetch(ctx, c.baseURL+"?"+params.Encode())
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("open-meteo forecast: %w", err)
		}
		return nil, err
	}

	var resp response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	daily, err := aggregateHourly(resp.Hourly, q.From, q.End())
	if err != nil {
		return nil, err
	}
	c.logger.Debug("forecast fetched",
		"provider", Name,
		"lat", q.Lat,
		"lng", q.Lng,
		"from", q.From,
		"days", len(daily),
	)
	return daily, nil
}

func (c *Client) fetch(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if c.metrics != nil {
		c.metrics.ForecastAPIDuration.WithLabelValues(Name).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return nil, fmt.Errorf("forecast request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

// Open-Meteo API response types.

type response struct {
	Hourly hourly `json:"hourly"`
}

// hourly holds parallel arrays; samples may be null.
type hourly struct {
	Time          []string   `json:"time"`
	Precipitation []*float64 `json:"precipitation"`
	Temperature   []*float64 `json:"temperature_2m"`
}
