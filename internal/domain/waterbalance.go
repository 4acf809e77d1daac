package domain

import "math"

const (
	// radiation is the extraterrestrial radiation proxy Ra (MJ/m²/day), an annual
	// average rather than a latitude- or season-specific value.
	radiation = 25.0

	// irrigationRefillFraction is the residual deficit, as a fraction of Dmax,
	// that an irrigation event aims to leave behind.
	irrigationRefillFraction = 0.3
	minIrrigationMm          = 7.0
	maxIrrigationMm          = 30.0
)

// ReferenceET returns Hargreaves reference evapotranspiration in mm/day.
// A Tmax below Tmin is treated as a zero temperature range.
func ReferenceET(tMin, tMax float64) float64 {
	tMean := (tMax + tMin) / 2
	tRange := math.Max(0, tMax-tMin)
	return 0.0023 * (tMean + 17.8) * math.Sqrt(tRange) * radiation
}

// CropET scales reference evapotranspiration by the crop coefficient.
func CropET(eto float64, p CropProfile) float64 {
	return p.Kc * eto
}

// EffectiveRainfall returns the share of daily rain that replenishes soil
// moisture. Light rain loses half to evaporation and interception, moderate
// rain loses 10% to runoff, and anything above 25 mm is capped at 25 mm.
func EffectiveRainfall(rain float64) float64 {
	switch {
	case rain < 5:
		return 0.5 * rain
	case rain <= 25:
		return 0.9 * rain
	default:
		return 25
	}
}

// irrigationEvent is the outcome of checking a deficit against Dmax.
type irrigationEvent struct {
	Triggered bool
	AmountMm  float64
	Remaining float64 // deficit after the event
}

// triggerIrrigation applies a refill when deficit has reached Dmax. The amount
// aims for a residual of 0.3*Dmax and is clamped to [7, 30] mm.
func triggerIrrigation(deficit float64, p CropProfile) irrigationEvent {
	if deficit < p.Dmax {
		return irrigationEvent{Remaining: deficit}
	}
	target := irrigationRefillFraction * p.Dmax
	amount := clamp(deficit-target, minIrrigationMm, maxIrrigationMm)
	return irrigationEvent{
		Triggered: true,
		AmountMm:  amount,
		Remaining: math.Max(0, deficit-amount),
	}
}

// advanceBalance runs one day of the checkbook. It takes the unrounded deficit
// carried from the previous day and returns the day's plan together with the
// unrounded deficit to carry into the next day.
func advanceBalance(deficit float64, obs DailyObservation, p CropProfile) (DayPlan, float64) {
	eto := ReferenceET(obs.MinTemperatureC, obs.MaxTemperatureC)
	etc := CropET(eto, p)
	reff := EffectiveRainfall(obs.RainMm)

	deficit = math.Max(0, deficit+etc-reff)
	irr := triggerIrrigation(deficit, p)

	return DayPlan{
		Date:            obs.Date,
		ETo:             round2(eto),
		ETc:             round2(etc),
		EffectiveRain:   round2(reff),
		Deficit:         round2(irr.Remaining),
		Irrigate:        irr.Triggered,
		IrrigationMm:    round2(irr.AmountMm),
		FertStatus:      FertNone,
		RainMm:          obs.RainMm,
		TemperatureC:    obs.TemperatureC,
		MaxTemperatureC: obs.MaxTemperatureC,
	}, irr.Remaining
}

// BalanceWater folds the observations through the water-balance checkbook,
// starting from an empty deficit. It returns one DayPlan per observation, in
// input order, with fertilization fields left at their defaults.
func BalanceWater(observations []DailyObservation, p CropProfile) []DayPlan {
	days := make([]DayPlan, 0, len(observations))
	deficit := 0.0
	for _, obs := range observations {
		var day DayPlan
		day, deficit = advanceBalance(deficit, obs, p)
		days = append(days, day)
	}
	return days
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
