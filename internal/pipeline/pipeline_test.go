package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/crop-planner/internal/domain"
	"github.com/couchcryptid/crop-planner/internal/observability"
	"github.com/couchcryptid/crop-planner/internal/pipeline"
	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockExtractor struct {
	batches [][]domain.RawEvent
	index   atomic.Int64
	err     error
}

func (m *mockExtractor) ExtractBatch(ctx context.Context, _ int) ([]domain.RawEvent, error) {
	if m.err != nil {
		return nil, m.err
	}
	i := int(m.index.Add(1) - 1)
	if i >= len(m.batches) {
		// block until context cancelled to simulate waiting for messages
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return m.batches[i], nil
}

type mockTransformer struct {
	err error
}

func (m *mockTransformer) Transform(_ context.Context, raw domain.RawEvent) (domain.PlanRecord, error) {
	if m.err != nil {
		return domain.PlanRecord{}, m.err
	}
	return domain.PlanRecord{ID: string(raw.Key), Source: domain.SourceInline}, nil
}

type mockLoader struct {
	mu      sync.Mutex
	loaded  []domain.PlanRecord
	failFor int
	calls   int
}

func (m *mockLoader) LoadBatch(_ context.Context, records []domain.PlanRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.calls <= m.failFor {
		return errors.New("broker unavailable")
	}
	m.loaded = append(m.loaded, records...)
	return nil
}

func (m *mockLoader) records() []domain.PlanRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.PlanRecord(nil), m.loaded...)
}

func newTestMetrics() *observability.Metrics {
	// Use a fresh registry to avoid "already registered" panics in tests.
	return observability.NewMetricsForTesting()
}

// --- pipeline tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	ext := &mockExtractor{batches: [][]domain.RawEvent{{
		makeRawRequest(t, "req-1", domain.CropLettuce),
		makeRawRequest(t, "req-2", domain.CropOnion),
	}}}
	ldr := &mockLoader{}

	p := pipeline.New(ext, &mockTransformer{}, ldr, slog.Default(), newTestMetrics(), 10)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	loaded := ldr.records()
	require.Len(t, loaded, 2)
	assert.Equal(t, "req-1", loaded[0].ID)
	assert.Equal(t, "req-2", loaded[1].ID)
	assert.True(t, p.Ready())
	assert.NoError(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	ldr := &mockLoader{}
	p := pipeline.New(&mockExtractor{}, &mockTransformer{}, ldr, slog.Default(), newTestMetrics(), 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel immediately

	require.NoError(t, p.Run(ctx))
	assert.Empty(t, ldr.records())
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_TransformErrorCommitsPoisonPill(t *testing.T) {
	var commits atomic.Int32
	raw := makeRawRequest(t, "req-bad", domain.CropPotato)
	raw.Commit = func(_ context.Context) error {
		commits.Add(1)
		return nil
	}

	ext := &mockExtractor{batches: [][]domain.RawEvent{{raw}}}
	ldr := &mockLoader{}
	p := pipeline.New(ext, &mockTransformer{err: errors.New("bad data")}, ldr, slog.Default(), newTestMetrics(), 10)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	assert.Empty(t, ldr.records())
	assert.False(t, p.Ready())
	assert.Equal(t, int32(1), commits.Load())
}

func TestPipeline_Run_CommitsAfterLoad(t *testing.T) {
	var loadedAtCommit []int
	ldr := &mockLoader{}

	raw := makeRawRequest(t, "req-5", domain.CropLettuce)
	raw.Topic = "plan-requests"
	raw.Commit = func(_ context.Context) error {
		loadedAtCommit = append(loadedAtCommit, len(ldr.records()))
		return nil
	}

	ext := &mockExtractor{batches: [][]domain.RawEvent{{raw}}}
	p := pipeline.New(ext, &mockTransformer{}, ldr, slog.Default(), newTestMetrics(), 10)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	assert.Equal(t, []int{1}, loadedAtCommit)
}

func TestPipeline_Run_LoadFailureDoesNotCommit(t *testing.T) {
	var commits atomic.Int32
	raw := makeRawRequest(t, "req-6", domain.CropOnion)
	raw.Commit = func(_ context.Context) error {
		commits.Add(1)
		return nil
	}

	ext := &mockExtractor{batches: [][]domain.RawEvent{{raw}}}
	ldr := &mockLoader{failFor: 1}
	p := pipeline.New(ext, &mockTransformer{}, ldr, slog.Default(), newTestMetrics(), 10)

	ctx, cancel := context.WithTimeout(context.Background(), 400*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	assert.Empty(t, ldr.records())
	assert.Zero(t, commits.Load())
	assert.False(t, p.Ready())
}

func TestPipeline_Run_ExtractErrorBacksOff(t *testing.T) {
	ext := &mockExtractor{err: errors.New("connection refused")}
	p := pipeline.New(ext, &mockTransformer{}, &mockLoader{}, slog.Default(), newTestMetrics(), 10)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	start := time.Now()
	require.NoError(t, p.Run(ctx))
	assert.GreaterOrEqual(t, time.Since(start), 250*time.Millisecond)
	assert.False(t, p.Ready())
}

// --- transformer tests ---

func TestPlanTransformer_Transform_Inline(t *testing.T) {
	fakeClock := clockwork.NewFakeClockAt(time.Date(2025, time.June, 1, 8, 0, 0, 0, time.UTC))
	domain.SetClock(fakeClock)
	t.Cleanup(func() {
		domain.SetClock(nil)
	})

	raw := makeRawRequest(t, "req-7", domain.CropLettuce)
	tfm := pipeline.NewTransformer(nil, slog.Default(), newTestMetrics())

	rec, err := tfm.Transform(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "req-7", rec.RequestID)
	assert.Equal(t, domain.SourceInline, rec.Source)
	assert.Equal(t, fakeClock.Now(), rec.GeneratedAt)
	assert.Regexp(t, `^plan-[0-9a-f]{16}$`, rec.ID)
	require.Len(t, rec.Result.Days, 3)

	want, err := domain.PlanForCrop(inlineObservations(), domain.CropLettuce)
	require.NoError(t, err)
	if diff := cmp.Diff(want, rec.Result); diff != "" {
		t.Fatalf("plan mismatch (-want +got):\n%s", diff)
	}
}

func TestPlanTransformer_Transform_InvalidRequest(t *testing.T) {
	tfm := pipeline.NewTransformer(nil, slog.Default(), newTestMetrics())

	tests := []struct {
		name  string
		value string
	}{
		{name: "not json", value: "not json"},
		{name: "unknown crop", value: `{"crop":"carrot"}`},
		{name: "missing crop", value: `{"observations":[]}`},
		{name: "lat without lng", value: `{"crop":"onion","lat":52.1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tfm.Transform(context.Background(), domain.RawEvent{Value: []byte(tt.value)})
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidRequest)
		})
	}
}

func TestPlanTransformer_Plan_NoProvider(t *testing.T) {
	tfm := pipeline.NewTransformer(nil, slog.Default(), newTestMetrics())

	_, err := tfm.Plan(context.Background(), domain.PlanRequest{
		Crop: domain.CropPotato,
		Lat:  ptr(52.2),
		Lng:  ptr(0.12),
	})
	assert.ErrorIs(t, err, domain.ErrNoForecastProvider)
}

func TestPlanTransformer_Plan_ProviderFailure(t *testing.T) {
	provider := &stubProvider{err: errors.New("timeout")}
	tfm := pipeline.NewTransformer(provider, slog.Default(), newTestMetrics())

	_, err := tfm.Plan(context.Background(), domain.PlanRequest{
		Crop:        domain.CropOnion,
		Lat:         ptr(51.5),
		Lng:         ptr(-0.1),
		PeriodStart: "2025-06-02",
		PeriodEnd:   "2025-06-05",
	})
	require.ErrorIs(t, err, domain.ErrForecastUnavailable)
	assert.Contains(t, err.Error(), "stub")
}

func TestPlanTransformer_Plan_UsesProvider(t *testing.T) {
	provider := &stubProvider{obs: inlineObservations()}
	tfm := pipeline.NewTransformer(provider, slog.Default(), newTestMetrics())

	rec, err := tfm.Plan(context.Background(), domain.PlanRequest{
		Crop:        domain.CropOnion,
		FarmID:      "farm-1",
		Lat:         ptr(51.5),
		Lng:         ptr(-0.1),
		PeriodStart: "2025-06-02",
		PeriodEnd:   "2025-06-05",
	})
	require.NoError(t, err)
	assert.Equal(t, "stub", rec.Source)
	assert.Equal(t, "farm-1", rec.FarmID)
	assert.Equal(t, "2025-06-02", rec.PeriodStart)
	assert.Equal(t, "2025-06-05", rec.PeriodEnd)
	assert.Equal(t, domain.ForecastQuery{Lat: 51.5, Lng: -0.1, From: "2025-06-02", Days: 3}, provider.got)
	assert.Len(t, rec.Result.Days, 3)
}

// --- helpers ---

type stubProvider struct {
	obs []domain.DailyObservation
	err error
	got domain.ForecastQuery
}

func (s *stubProvider) DailyForecast(_ context.Context, q domain.ForecastQuery) ([]domain.DailyObservation, error) {
	s.got = q
	return s.obs, s.err
}

func (s *stubProvider) Name() string { return "stub" }

func ptr[T any](v T) *T { return &v }

func inlineObservations() []domain.DailyObservation {
	return []domain.DailyObservation{
		{Date: "2025-06-02", RainMm: 0, TemperatureC: 15, MinTemperatureC: 9, MaxTemperatureC: 21},
		{Date: "2025-06-03", RainMm: 12, TemperatureC: 14, MinTemperatureC: 10, MaxTemperatureC: 18},
		{Date: "2025-06-04", RainMm: 2, TemperatureC: 16, MinTemperatureC: 10, MaxTemperatureC: 22},
	}
}

func makeRawRequest(t *testing.T, id string, crop domain.Crop) domain.RawEvent {
	t.Helper()
	data, err := json.Marshal(domain.PlanRequest{
		ID:           id,
		Crop:         crop,
		Observations: inlineObservations(),
	})
	require.NoError(t, err)
	return domain.RawEvent{
		Key:   []byte(id),
		Value: data,
	}
}
