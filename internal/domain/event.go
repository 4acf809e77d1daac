package domain

import (
	"context"
	"time"
)

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// PlanRequest asks for a plan for one crop. When both Lat and Lng are set the
// observations are fetched from a forecast provider for [PeriodStart, PeriodEnd);
// otherwise Observations are planned as given.
type PlanRequest struct {
	ID           string             `json:"id,omitempty" validate:"omitempty,max=128"`
	FarmID       string             `json:"farmId,omitempty" validate:"omitempty,max=128"`
	Crop         Crop               `json:"crop" validate:"required,crop"`
	Lat          *float64           `json:"lat,omitempty" validate:"omitempty,latitude"`
	Lng          *float64           `json:"lng,omitempty" validate:"omitempty,longitude"`
	PeriodStart  string             `json:"periodStart,omitempty" validate:"omitempty,datetime=2006-01-02"`
	PeriodEnd    string             `json:"periodEnd,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Observations []DailyObservation `json:"observations,omitempty" validate:"omitempty,dive"`
}

// HasLocation reports whether the request carries a full coordinate pair.
func (r PlanRequest) HasLocation() bool {
	return r.Lat != nil && r.Lng != nil
}

// PlanRecord is one planner run with its provenance, as published to the sink
// topic and returned over HTTP.
type PlanRecord struct {
	ID          string        `json:"id"`
	RequestID   string        `json:"requestId,omitempty"`
	FarmID      string        `json:"farmId,omitempty"`
	Source      string        `json:"source"` // "inline" or a forecast provider name
	PeriodStart string        `json:"periodStart,omitempty"`
	PeriodEnd   string        `json:"periodEnd,omitempty"`
	GeneratedAt time.Time     `json:"generatedAt"`
	Result      PlannerResult `json:"result"`
}

// OutputEvent is the serialized form destined for the sink topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}
