package domain

// WeatherSummary aggregates a forecast window for display next to a plan.
type WeatherSummary struct {
	Source          string             `json:"source"`
	PeriodStart     string             `json:"periodStart"`
	PeriodEnd       string             `json:"periodEnd"`
	RainMm          float64            `json:"rainMm"`
	AvgTemperatureC float64            `json:"avgTemperatureC"`
	RainAnomaly     float64            `json:"rainAnomaly"` // 0 normal, 1 completely dry
	DryIndex        float64            `json:"dryIndex"`
	DrySeason       bool               `json:"drySeason"`
	Daily           []DailyObservation `json:"daily"`
}

// normalDailyRainMm is the expected daily rain against which anomaly is measured.
const normalDailyRainMm = 3.0

// SummarizeWeather computes rainfall and dryness indices over daily.
func SummarizeWeather(source, periodStart, periodEnd string, daily []DailyObservation) WeatherSummary {
	total, tempSum := 0.0, 0.0
	for _, d := range daily {
		total += d.RainMm
		tempSum += d.TemperatureC
	}
	avgTemp := 0.0
	if len(daily) > 0 {
		avgTemp = tempSum / float64(len(daily))
	}

	dayCount := float64(max(1, len(daily)))
	anomaly := clamp(1-total/(dayCount*normalDailyRainMm), 0, 1)

	if daily == nil {
		daily = []DailyObservation{}
	}
	return WeatherSummary{
		Source:          source,
		PeriodStart:     periodStart,
		PeriodEnd:       periodEnd,
		RainMm:          round2(total),
		AvgTemperatureC: round2(avgTemp),
		RainAnomaly:     round2(anomaly),
		DryIndex:        round2(anomaly),
		DrySeason:       anomaly >= 0.6 || total < dayCount*1.5,
		Daily:           daily,
	}
}
