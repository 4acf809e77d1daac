package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/crop-planner/internal/domain"
	"github.com/couchcryptid/crop-planner/internal/observability"
)

// PlanTransformer implements Transformer by resolving observations for a
// request and running the planner over them. The HTTP API plans through the
// same Plan method so both surfaces produce identical records.
type PlanTransformer struct {
	forecasts domain.ForecastProvider
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewTransformer creates a PlanTransformer. Pass a nil provider to serve only
// requests that carry their own observations.
func NewTransformer(forecasts domain.ForecastProvider, logger *slog.Logger, metrics *observability.Metrics) *PlanTransformer {
	return &PlanTransformer{
		forecasts: forecasts,
		logger:    logger,
		metrics:   metrics,
	}
}

func (t *PlanTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.PlanRecord, error) {
	req, err := domain.ParsePlanRequest(raw)
	if err != nil {
		return domain.PlanRecord{}, err
	}
	return t.Plan(ctx, req)
}

// Plan builds a plan record for a validated request.
func (t *PlanTransformer) Plan(ctx context.Context, req domain.PlanRequest) (domain.PlanRecord, error) {
	profile, ok := domain.ProfileFor(req.Crop)
	if !ok {
		return domain.PlanRecord{}, fmt.Errorf("%w: %w: %q", domain.ErrInvalidRequest, domain.ErrUnknownCrop, req.Crop)
	}

	res, err := domain.ResolveObservations(ctx, req, t.forecasts, domain.Now())
	if req.HasLocation() && t.forecasts != nil {
		t.recordForecast(res, err)
	}
	if err != nil {
		return domain.PlanRecord{}, fmt.Errorf("resolve observations: %w", err)
	}

	rec := domain.NewPlanRecord(req, res, domain.BuildPlan(res.Observations, profile))
	t.recordPlan(rec)

	t.logger.Debug("plan built",
		"plan_id", rec.ID,
		"crop", req.Crop,
		"source", rec.Source,
		"days", len(rec.Result.Days),
	)
	return rec, nil
}

func (t *PlanTransformer) recordForecast(res domain.Resolution, err error) {
	outcome := "success"
	switch {
	case err != nil:
		outcome = "error"
	case len(res.Observations) == 0:
		outcome = "empty"
	}
	t.metrics.ForecastRequests.WithLabelValues(t.forecasts.Name(), outcome).Inc()
}

func (t *PlanTransformer) recordPlan(rec domain.PlanRecord) {
	status := string(domain.FertNone)
	if best := rec.Result.BestFertDay; best != nil {
		status = string(best.FertStatus)
	}
	t.metrics.PlanOutcomes.WithLabelValues(status).Inc()

	irrigations := 0
	for _, d := range rec.Result.Days {
		if d.Irrigate {
			irrigations++
		}
	}
	t.metrics.IrrigationEvents.Add(float64(irrigations))
}
