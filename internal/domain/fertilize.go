package domain

import (
	"fmt"
	"math"
	"slices"
	"strconv"
)

const (
	// PlanningHorizonDays is the number of leading days scored for fertilization.
	PlanningHorizonDays = 14

	heavyRainMm         = 20.0 // single-day downpour that washes fertilizer off
	incorporationRainMm = 10.0 // rain within 48h that carries fertilizer into the soil
	hotDayC             = 25.0 // max temperature at which volatilization losses rise
)

// PlanningHorizon returns how many of n days are eligible for fertilization.
func PlanningHorizon(n int) int {
	return min(n, PlanningHorizonDays)
}

// rainSeries is the daily rain of a plan, zero-padded past either end.
type rainSeries []float64

func rainOf(days []DayPlan) rainSeries {
	r := make(rainSeries, len(days))
	for i, d := range days {
		r[i] = d.RainMm
	}
	return r
}

func (r rainSeries) at(i int) float64 {
	if i < 0 || i >= len(r) {
		return 0
	}
	return r[i]
}

// incorporation is the largest daily rain on day d or d+1.
func (r rainSeries) incorporation(d int) float64 {
	return math.Max(r.at(d), r.at(d+1))
}

// loss is the cumulative rain over days d..d+2.
func (r rainSeries) loss(d int) float64 {
	return r.at(d) + r.at(d+1) + r.at(d+2)
}

// heavy is the largest daily rain over days d..d+2.
func (r rainSeries) heavy(d int) float64 {
	return max(r.at(d), r.at(d+1), r.at(d+2))
}

// verdict is the status and justification assigned to one day.
type verdict struct {
	Status FertStatus
	Reason string
}

// scoreDay applies rules A and B to day d. Rule order is significant: the first
// matching rule decides the verdict.
func scoreDay(rain rainSeries, d int, maxTempC float64, p CropProfile) verdict {
	inc := rain.incorporation(d)
	loss := rain.loss(d)
	heavy := rain.heavy(d)

	switch {
	case heavy >= heavyRainMm:
		return verdict{
			Status: FertRejected,
			Reason: fmt.Sprintf("Heavy rain risk (%smm peak in 72h). Runoff would wash away fertilizer.", whole(heavy)),
		}
	case loss >= p.LossLimit:
		return verdict{
			Status: FertRejected,
			Reason: fmt.Sprintf("Too wet (%smm over 72h). Leaching risk too high.", whole(loss)),
		}
	case inc >= incorporationRainMm:
		if maxTempC >= hotDayC {
			return verdict{
				Status: FertGood,
				Reason: fmt.Sprintf("Good rain incorporation (%smm in 48h) but hot (%s°C). Prefer a cooler day if available.", whole(inc), whole(maxTempC)),
			}
		}
		return verdict{
			Status: FertGood,
			Reason: fmt.Sprintf("Good conditions: %smm rain expected within 48h to incorporate fertilizer.", whole(inc)),
		}
	default:
		return verdict{
			Status: FertNone,
			Reason: fmt.Sprintf("Insufficient rain for natural incorporation (%smm in 48h).", whole(inc)),
		}
	}
}

// ScoreFertilization returns a copy of days with fertilization verdicts for the
// planning horizon. Days past the horizon keep status none and an empty reason.
//
// Scoring runs in three explicit steps: per-day rules A and B, the heat
// preference pass (rule C), and the irrigate-in fallback (rules D and E).
func ScoreFertilization(days []DayPlan, p CropProfile) []DayPlan {
	out := slices.Clone(days)
	horizon := PlanningHorizon(len(out))
	rain := rainOf(out)

	for d := 0; d < horizon; d++ {
		v := scoreDay(rain, d, out[d].MaxTemperatureC, p)
		out[d].FertStatus = v.Status
		out[d].FertReason = v.Reason
	}

	preferCoolDays(out[:horizon])
	fallbackIrrigateIn(out[:horizon], rain)
	return out
}

// goodDays partitions the indices of good days into cool and hot ones.
func goodDays(horizon []DayPlan) (cool, hot []int) {
	for i, d := range horizon {
		if d.FertStatus != FertGood {
			continue
		}
		if d.MaxTemperatureC < hotDayC {
			cool = append(cool, i)
		} else {
			hot = append(hot, i)
		}
	}
	return cool, hot
}

// preferCoolDays rewrites the reason of every hot good day to name the earliest
// cool good day. Statuses are left untouched.
func preferCoolDays(horizon []DayPlan) {
	cool, hot := goodDays(horizon)
	if len(cool) == 0 || len(hot) == 0 {
		return
	}
	alternative := horizon[cool[0]].Date
	for _, i := range hot {
		horizon[i].FertReason = fmt.Sprintf(
			"Good rain incorporation but hot (%s°C). Cooler alternative available: prefer %s.",
			whole(horizon[i].MaxTemperatureC), alternative,
		)
	}
}

// fallbackIrrigateIn promotes the earliest non-rejected day to irrigate-in when
// the horizon holds no good day. When every day is rejected nothing changes.
func fallbackIrrigateIn(horizon []DayPlan, rain rainSeries) {
	if slices.ContainsFunc(horizon, func(d DayPlan) bool { return d.FertStatus == FertGood }) {
		return
	}
	idx := slices.IndexFunc(horizon, func(d DayPlan) bool { return d.FertStatus != FertRejected })
	if idx < 0 {
		return
	}

	supplement := round2(math.Max(0, incorporationRainMm-rain.incorporation(idx)))
	day := &horizon[idx]
	day.FertStatus = FertIrrigateIn
	day.FertIrrigationMm = supplement
	if supplement > 0 {
		day.FertReason = fmt.Sprintf("No natural rain window. Apply %smm irrigation within 24h to incorporate fertilizer.", whole(supplement))
	} else {
		day.FertReason = "No ideal rain window, but enough moisture for incorporation."
	}
}

// whole formats v with no decimals, rounding halves away from zero.
func whole(v float64) string {
	return strconv.FormatFloat(math.Round(v), 'f', 0, 64)
}
