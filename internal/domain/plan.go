package domain

import "fmt"

// BuildPlan runs the full planner over observations for one crop profile:
// water balance, fertilization scoring, best-day selection, and summary.
// It never fails; an empty input yields an empty schedule and no best day.
func BuildPlan(observations []DailyObservation, p CropProfile) PlannerResult {
	days := ScoreFertilization(BalanceWater(observations, p), p)
	best := selectBestDay(days[:PlanningHorizon(len(days))])

	result := PlannerResult{
		Crop:    p.Crop,
		Profile: p,
		Days:    days,
	}
	if best >= 0 {
		result.BestFertDay = &result.Days[best]
	}
	result.Summary = summarize(result.BestFertDay)
	return result
}

// PlanForCrop resolves crop to its profile and builds a plan.
func PlanForCrop(observations []DailyObservation, crop Crop) (PlannerResult, error) {
	p, ok := ProfileFor(crop)
	if !ok {
		return PlannerResult{}, fmt.Errorf("plan for crop: %w: %q", ErrUnknownCrop, crop)
	}
	return BuildPlan(observations, p), nil
}

// selectBestDay returns the index of the recommended fertilization day, or -1.
// Preference: earliest cool good day, earliest good day, the irrigate-in day.
func selectBestDay(horizon []DayPlan) int {
	cool, hot := goodDays(horizon)
	switch {
	case len(cool) > 0:
		return cool[0]
	case len(hot) > 0:
		return hot[0]
	}
	for i, d := range horizon {
		if d.FertStatus == FertIrrigateIn {
			return i
		}
	}
	return -1
}

func summarize(best *DayPlan) string {
	if best == nil {
		return "No safe fertilisation window in the next 14 days. Consider splitting the dose or delaying."
	}
	label := FormatDateLabel(best.Date)
	if best.FertStatus == FertIrrigateIn {
		return fmt.Sprintf("Fertilize on %s with %smm irrigation to incorporate.", label, whole(best.FertIrrigationMm))
	}
	return fmt.Sprintf("Best day to fertilize: %s. Rain will incorporate the fertilizer naturally.", label)
}
