package domain

// DailyObservation is one day of weather, as delivered by a forecast source.
type DailyObservation struct {
	Date            string  `json:"date" validate:"required,datetime=2006-01-02"`
	RainMm          float64 `json:"rainMm"`
	TemperatureC    float64 `json:"temperatureC"` // display only
	MinTemperatureC float64 `json:"minTemperatureC"`
	MaxTemperatureC float64 `json:"maxTemperatureC"`
}

// FertStatus is the fertilization verdict for a single day.
type FertStatus string

const (
	FertNone       FertStatus = "none"
	FertGood       FertStatus = "good"
	FertRejected   FertStatus = "rejected"
	FertIrrigateIn FertStatus = "irrigate-in"
)

// DayPlan is the planner output for one observation day.
type DayPlan struct {
	Date             string     `json:"date"`
	ETo              float64    `json:"eto"`
	ETc              float64    `json:"etc"`
	EffectiveRain    float64    `json:"effectiveRain"`
	Deficit          float64    `json:"deficit"`
	Irrigate         bool       `json:"irrigate"`
	IrrigationMm     float64    `json:"irrigationMm"`
	FertStatus       FertStatus `json:"fertStatus"`
	FertReason       string     `json:"fertReason"`
	FertIrrigationMm float64    `json:"fertIrrigationMm"`
	RainMm           float64    `json:"rainMm"`
	TemperatureC     float64    `json:"temperatureC"`
	MaxTemperatureC  float64    `json:"maxTemperatureC"`
}

// PlannerResult is the outcome of a single planning run.
//
// BestFertDay points into Days and is nil when no day is safe to fertilize.
type PlannerResult struct {
	Crop        Crop        `json:"crop"`
	Profile     CropProfile `json:"profile"`
	Days        []DayPlan   `json:"days"`
	BestFertDay *DayPlan    `json:"bestFertDay"`
	Summary     string      `json:"summary"`
}
