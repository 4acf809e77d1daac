// Command validate performs integrity checks over a plan-request fixture and
// the plan records generated from it. It re-runs the planner on every request,
// checks the records are reproducible, and verifies the invariants every plan
// must hold.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -requests data/mock/generated_requests.json \
//	  -plans data/mock/generated_plans.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/couchcryptid/crop-planner/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	requestsPath := flag.String("requests", "", "path to the plan-request JSON fixture")
	plansPath := flag.String("plans", "", "path to the plan-record JSON fixture")
	flag.Parse()

	if *requestsPath == "" || *plansPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*requestsPath, *plansPath); code != 0 {
		os.Exit(code)
	}
}

func run(requestsPath, plansPath string) int {
	// Set a fixed clock matching genmock for timestamp reproducibility.
	domain.SetClock(clockwork.NewFakeClockAt(
		time.Date(2025, time.June, 1, 6, 0, 0, 0, time.UTC),
	))
	defer domain.SetClock(nil)

	fmt.Println("=== Plan Integrity Validation ===")
	fmt.Println()

	requests, err := loadJSON[domain.PlanRequest](requestsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load requests: %v\n", err)
		return 1
	}
	records, err := loadJSON[domain.PlanRecord](plansPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load plans: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateRequests(requests),
		validateReproducibility(requests, records),
		validateInvariants(records),
		validateSchema(records),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d requests, %d plans\n", len(requests), len(records))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			if i >= 20 {
				fmt.Printf("  ... and %d more\n", len(p.errors)-20)
				break
			}
			fmt.Printf("  %s\n", e)
		}
	}

	if !allPassed {
		return 1
	}
	return 0
}

func loadJSON[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// ── Phase 1: Requests ──
// Every request must validate and carry a unique ID.

func validateRequests(requests []domain.PlanRequest) *phase {
	p := &phase{name: "Phase 1: Request Validity"}
	seen := make(map[string]bool, len(requests))
	for i := range requests {
		req := requests[i]
		if req.ID == "" {
			p.errorf("request %d: missing id", i)
		} else if seen[req.ID] {
			p.errorf("request %s: duplicate id", req.ID)
		}
		seen[req.ID] = true

		if err := domain.ValidatePlanRequest(req); err != nil {
			p.errorf("request %s: %v", req.ID, err)
		}
		if req.HasLocation() {
			p.errorf("request %s: fixture requests must carry inline observations", req.ID)
		}
	}
	return p
}

// ── Phase 2: Reproducibility ──
// Re-planning a request must yield exactly the stored record.

func validateReproducibility(requests []domain.PlanRequest, records []domain.PlanRecord) *phase {
	p := &phase{name: "Phase 2: Plan Reproducibility"}

	byRequest := make(map[string]*domain.PlanRecord, len(records))
	for i := range records {
		byRequest[records[i].RequestID] = &records[i]
	}
	if len(records) != len(requests) {
		p.errorf("count mismatch: %d requests, %d plans", len(requests), len(records))
	}

	for i := range requests {
		req := requests[i]
		stored, ok := byRequest[req.ID]
		if !ok {
			p.errorf("request %s: no plan record", req.ID)
			continue
		}

		res, err := domain.ResolveObservations(context.Background(), req, nil, domain.Now())
		if err != nil {
			p.errorf("request %s: resolve: %v", req.ID, err)
			continue
		}
		result, err := domain.PlanForCrop(res.Observations, req.Crop)
		if err != nil {
			p.errorf("request %s: plan: %v", req.ID, err)
			continue
		}
		replayed := domain.NewPlanRecord(req, res, result)

		if replayed.ID != stored.ID {
			p.errorf("request %s: plan id: expected %s, got %s", req.ID, replayed.ID, stored.ID)
		}
		if diff := cmp.Diff(replayed.Result, stored.Result); diff != "" {
			p.errorf("request %s: result mismatch (-replayed +stored):\n%s", req.ID, diff)
		}
	}
	return p
}

// ── Phase 3: Invariants ──
// Properties every plan holds regardless of its weather.

func validateInvariants(records []domain.PlanRecord) *phase {
	p := &phase{name: "Phase 3: Plan Invariants"}
	for i := range records {
		checkPlanInvariants(p, &records[i])
	}
	return p
}

func checkPlanInvariants(p *phase, rec *domain.PlanRecord) {
	id := rec.ID
	days := rec.Result.Days
	horizon := domain.PlanningHorizon(len(days))

	good, irrigateIn := 0, 0
	for i, d := range days {
		if d.Deficit < 0 {
			p.errorf("%s day %d: negative deficit %g", id, i, d.Deficit)
		}
		if d.Irrigate && (d.IrrigationMm < 7 || d.IrrigationMm > 30) {
			p.errorf("%s day %d: irrigation %gmm outside [7, 30]", id, i, d.IrrigationMm)
		}
		if !d.Irrigate && d.IrrigationMm != 0 {
			p.errorf("%s day %d: irrigation amount without an event", id, i)
		}
		if i >= horizon && (d.FertStatus != domain.FertNone || d.FertReason != "") {
			p.errorf("%s day %d: scored past the planning horizon", id, i)
		}
		if d.FertStatus != domain.FertIrrigateIn && d.FertIrrigationMm != 0 {
			p.errorf("%s day %d: fertilizer irrigation on a %s day", id, i, d.FertStatus)
		}
		switch d.FertStatus {
		case domain.FertGood:
			good++
		case domain.FertIrrigateIn:
			irrigateIn++
			if d.FertIrrigationMm < 0 || d.FertIrrigationMm > 10 {
				p.errorf("%s day %d: irrigate-in amount %g outside [0, 10]", id, i, d.FertIrrigationMm)
			}
		}
	}

	if irrigateIn > 1 {
		p.errorf("%s: %d irrigate-in days", id, irrigateIn)
	}
	if good > 0 && irrigateIn > 0 {
		p.errorf("%s: irrigate-in alongside good days", id)
	}

	best := rec.Result.BestFertDay
	switch {
	case best == nil && good+irrigateIn > 0:
		p.errorf("%s: no best day despite candidates", id)
	case best != nil && best.FertStatus != domain.FertGood && best.FertStatus != domain.FertIrrigateIn:
		p.errorf("%s: best day has status %s", id, best.FertStatus)
	case best != nil && best.FertStatus == domain.FertGood && best.MaxTemperatureC >= 25 && hasCoolGoodDay(days[:horizon]):
		p.errorf("%s: hot best day %s although a cool good day exists", id, best.Date)
	}
	if rec.Result.Summary == "" {
		p.errorf("%s: empty summary", id)
	}
}

func hasCoolGoodDay(days []domain.DayPlan) bool {
	for _, d := range days {
		if d.FertStatus == domain.FertGood && d.MaxTemperatureC < 25 {
			return true
		}
	}
	return false
}

// ── Phase 4: Schema ──
// Field values must match what downstream consumers accept.

func validateSchema(records []domain.PlanRecord) *phase {
	p := &phase{name: "Phase 4: Schema Alignment"}
	validStatus := map[domain.FertStatus]bool{
		domain.FertNone:       true,
		domain.FertGood:       true,
		domain.FertRejected:   true,
		domain.FertIrrigateIn: true,
	}

	for i := range records {
		rec := &records[i]
		profile, ok := domain.ProfileFor(rec.Result.Crop)
		if !ok {
			p.errorf("%s: unknown crop %q", rec.ID, rec.Result.Crop)
		} else if rec.Result.Profile != profile {
			p.errorf("%s: profile does not match crop %s", rec.ID, rec.Result.Crop)
		}
		if rec.Source == "" {
			p.errorf("%s: missing source", rec.ID)
		}
		if rec.GeneratedAt.IsZero() {
			p.errorf("%s: missing generatedAt", rec.ID)
		}

		var prev string
		for j, d := range rec.Result.Days {
			if !validStatus[d.FertStatus] {
				p.errorf("%s day %d: invalid status %q", rec.ID, j, d.FertStatus)
			}
			if _, err := domain.ParseDate(d.Date); err != nil {
				p.errorf("%s day %d: invalid date %q", rec.ID, j, d.Date)
			} else if prev != "" {
				if next, _ := domain.AddDays(prev, 1); next != d.Date {
					p.errorf("%s day %d: date %s does not follow %s", rec.ID, j, d.Date, prev)
				}
			}
			prev = d.Date
			if !isRounded(d.ETo) || !isRounded(d.ETc) || !isRounded(d.Deficit) {
				p.errorf("%s day %d: values not rounded to 2 decimals", rec.ID, j)
			}
		}
	}
	return p
}

func isRounded(v float64) bool {
	return math.Abs(v*100-math.Round(v*100)) < 1e-6
}
