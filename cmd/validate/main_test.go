package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/crop-planner/internal/domain"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mockRequestsPath = "../../data/mock/plan_requests.json"

func setFixedClock(t *testing.T) {
	t.Helper()
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2025, time.June, 1, 6, 0, 0, 0, time.UTC)))
	t.Cleanup(func() { domain.SetClock(nil) })
}

// loadInlineRequests returns the fixture requests that carry their own
// observations. Located requests need a forecast provider and are covered
// by the pipeline tests.
func loadInlineRequests(t *testing.T) []domain.PlanRequest {
	t.Helper()
	all, err := loadJSON[domain.PlanRequest](mockRequestsPath)
	require.NoError(t, err)

	var inline []domain.PlanRequest
	for _, req := range all {
		if !req.HasLocation() {
			inline = append(inline, req)
		}
	}
	require.NotEmpty(t, inline)
	return inline
}

func planAll(t *testing.T, requests []domain.PlanRequest) []domain.PlanRecord {
	t.Helper()
	records := make([]domain.PlanRecord, 0, len(requests))
	for _, req := range requests {
		res, err := domain.ResolveObservations(context.Background(), req, nil, domain.Now())
		require.NoError(t, err, req.ID)
		result, err := domain.PlanForCrop(res.Observations, req.Crop)
		require.NoError(t, err, req.ID)
		records = append(records, domain.NewPlanRecord(req, res, result))
	}
	return records
}

func runPhases(requests []domain.PlanRequest, records []domain.PlanRecord) map[string]*phase {
	out := map[string]*phase{}
	for _, p := range []*phase{
		validateRequests(requests),
		validateReproducibility(requests, records),
		validateInvariants(records),
		validateSchema(records),
	} {
		out[p.name] = p
	}
	return out
}

const (
	phaseRequests        = "Phase 1: Request Validity"
	phaseReproducibility = "Phase 2: Plan Reproducibility"
	phaseInvariants      = "Phase 3: Plan Invariants"
	phaseSchema          = "Phase 4: Schema Alignment"
)

func TestPhases_MockFixturePasses(t *testing.T) {
	setFixedClock(t)
	requests := loadInlineRequests(t)
	records := planAll(t, requests)

	for name, p := range runPhases(requests, records) {
		assert.Truef(t, p.passed(), "%s: %v", name, p.errors)
	}
}

func TestPhases_DetectCorruption(t *testing.T) {
	tests := []struct {
		name      string
		corrupt   func(reqs []domain.PlanRequest, recs []domain.PlanRecord) ([]domain.PlanRequest, []domain.PlanRecord)
		wantPhase string
	}{
		{
			name: "duplicate request id",
			corrupt: func(reqs []domain.PlanRequest, recs []domain.PlanRecord) ([]domain.PlanRequest, []domain.PlanRecord) {
				reqs[1].ID = reqs[0].ID
				return reqs, recs
			},
			wantPhase: phaseRequests,
		},
		{
			name: "missing request id",
			corrupt: func(reqs []domain.PlanRequest, recs []domain.PlanRecord) ([]domain.PlanRequest, []domain.PlanRecord) {
				reqs[0].ID = ""
				return reqs, recs
			},
			wantPhase: phaseRequests,
		},
		{
			name: "located request",
			corrupt: func(reqs []domain.PlanRequest, recs []domain.PlanRecord) ([]domain.PlanRequest, []domain.PlanRecord) {
				lat, lng := 52.2, 0.12
				reqs[0].Lat, reqs[0].Lng = &lat, &lng
				return reqs, recs
			},
			wantPhase: phaseRequests,
		},
		{
			name: "missing plan record",
			corrupt: func(reqs []domain.PlanRequest, recs []domain.PlanRecord) ([]domain.PlanRequest, []domain.PlanRecord) {
				return reqs, recs[1:]
			},
			wantPhase: phaseReproducibility,
		},
		{
			name: "tampered plan id",
			corrupt: func(reqs []domain.PlanRequest, recs []domain.PlanRecord) ([]domain.PlanRequest, []domain.PlanRecord) {
				recs[0].ID = "plan-tampered"
				return reqs, recs
			},
			wantPhase: phaseReproducibility,
		},
		{
			name: "tampered summary",
			corrupt: func(reqs []domain.PlanRequest, recs []domain.PlanRecord) ([]domain.PlanRequest, []domain.PlanRecord) {
				recs[0].Result.Summary = "edited by hand"
				return reqs, recs
			},
			wantPhase: phaseReproducibility,
		},
		{
			name: "negative deficit",
			corrupt: func(reqs []domain.PlanRequest, recs []domain.PlanRecord) ([]domain.PlanRequest, []domain.PlanRecord) {
				recs[0].Result.Days[0].Deficit = -1
				return reqs, recs
			},
			wantPhase: phaseInvariants,
		},
		{
			name: "irrigation above the cap",
			corrupt: func(reqs []domain.PlanRequest, recs []domain.PlanRecord) ([]domain.PlanRequest, []domain.PlanRecord) {
				recs[0].Result.Days[0].Irrigate = true
				recs[0].Result.Days[0].IrrigationMm = 45
				return reqs, recs
			},
			wantPhase: phaseInvariants,
		},
		{
			name: "empty summary",
			corrupt: func(reqs []domain.PlanRequest, recs []domain.PlanRecord) ([]domain.PlanRequest, []domain.PlanRecord) {
				recs[0].Result.Summary = ""
				return reqs, recs
			},
			wantPhase: phaseInvariants,
		},
		{
			name: "unknown fertilization status",
			corrupt: func(reqs []domain.PlanRequest, recs []domain.PlanRecord) ([]domain.PlanRequest, []domain.PlanRecord) {
				recs[0].Result.Days[0].FertStatus = domain.FertStatus("maybe")
				return reqs, recs
			},
			wantPhase: phaseSchema,
		},
		{
			name: "gap in dates",
			corrupt: func(reqs []domain.PlanRequest, recs []domain.PlanRecord) ([]domain.PlanRequest, []domain.PlanRecord) {
				recs[0].Result.Days[1].Date = "2030-01-01"
				return reqs, recs
			},
			wantPhase: phaseSchema,
		},
		{
			name: "missing source",
			corrupt: func(reqs []domain.PlanRequest, recs []domain.PlanRecord) ([]domain.PlanRequest, []domain.PlanRecord) {
				recs[0].Source = ""
				return reqs, recs
			},
			wantPhase: phaseSchema,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setFixedClock(t)
			requests := loadInlineRequests(t)
			require.GreaterOrEqual(t, len(requests), 2)
			records := planAll(t, requests)
			require.GreaterOrEqual(t, len(records[0].Result.Days), 2)

			requests, records = tt.corrupt(requests, records)

			phases := runPhases(requests, records)
			require.Contains(t, phases, tt.wantPhase)
			assert.False(t, phases[tt.wantPhase].passed(), "expected %s to fail", tt.wantPhase)
		})
	}
}

func TestRun(t *testing.T) {
	setFixedClock(t)
	requests := loadInlineRequests(t)
	records := planAll(t, requests)

	dir := t.TempDir()
	requestsPath := filepath.Join(dir, "requests.json")
	plansPath := filepath.Join(dir, "plans.json")
	writeFixture(t, requestsPath, requests)
	writeFixture(t, plansPath, records)

	assert.Equal(t, 0, run(requestsPath, plansPath))

	records[0].Result.Days[0].Deficit = -3
	writeFixture(t, plansPath, records)
	assert.Equal(t, 1, run(requestsPath, plansPath))

	assert.Equal(t, 1, run(filepath.Join(dir, "missing.json"), plansPath))
}

func writeFixture(t *testing.T, path string, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))
}
