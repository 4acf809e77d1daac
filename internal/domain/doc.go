// Package domain turns daily weather observations into irrigation and
// fertilization plans for field vegetables.
//
// # Inputs
//
// A plan is built from an ordered sequence of [DailyObservation] values, one per
// calendar day (ISO "YYYY-MM-DD", interpreted in UTC), and a crop selector from
// the closed set lettuce, onion, potato. Observations arrive either inline in a
// [PlanRequest] or from a [ForecastProvider] for a location and date window.
//
// # Water balance
//
// Each day is run through a soil-water "checkbook":
//
//	ETo  = 0.0023 * (Tmean + 17.8) * sqrt(max(0, Tmax - Tmin)) * Ra    (Hargreaves, Ra = 25)
//	ETc  = Kc(crop) * ETo
//	Reff = 0.5*R (R < 5) | 0.9*R (5 <= R <= 25) | 25 (R > 25)
//	D    = max(0, D' + ETc - Reff)
//
// When D reaches the crop's Dmax an irrigation event refills the profile towards
// 0.3*Dmax, applying between 7 and 30 mm. The running deficit is carried at full
// precision; only the values stored on each [DayPlan] are rounded to 2 decimals.
//
// Ra is a fixed annual-average radiation proxy, not a latitude or day-of-year
// value.
//
// # Fertilization rules
//
// The first 14 days (the planning horizon) are scored from rain windows that
// look ahead of the application day, days past the end counting as dry:
//
//	INC   = max(R[d], R[d+1])              rain to wash fertilizer in within 48h
//	LOSS  = R[d] + R[d+1] + R[d+2]         72h wetness, leaching proxy
//	HEAVY = max(R[d], R[d+1], R[d+2])      single-day downpour, runoff proxy
//
// Rules apply first-match-wins per day:
//
//	A  HEAVY >= 20 or LOSS >= LossLimit(crop)  -> rejected
//	B  INC >= 10                               -> good (hot caveat when Tmax >= 25)
//	-  otherwise                               -> none
//
// followed by two passes over the scored horizon:
//
//	C  hot good days point at the earliest cool good day
//	D  with no good day, the earliest non-rejected day becomes irrigate-in with
//	   max(0, 10 - INC) mm of supplemental irrigation
//	E  with every day rejected nothing is recommended
//
// # Input tolerance
//
// The planner never rejects numeric input. Negative rain or Tmax < Tmin yield
// implausible but finite output; the square root is the only guarded operation.
//
// # Plan IDs
//
// Plan record IDs are truncated SHA-256 hashes of crop, farm, location, and the
// observation window, so replaying a request produces the same ID. See
// [generatePlanID].
package domain
