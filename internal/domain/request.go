package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidRequest is returned when a plan request cannot be decoded or fails
// validation.
var ErrInvalidRequest = errors.New("invalid plan request")

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	err := v.RegisterValidation("crop", func(fl validator.FieldLevel) bool {
		_, ok := ProfileFor(Crop(fl.Field().String()))
		return ok
	})
	if err != nil {
		panic(fmt.Sprintf("register crop validation: %v", err))
	}
	return v
}

// ParsePlanRequest deserializes a RawEvent's value into a validated PlanRequest.
func ParsePlanRequest(raw RawEvent) (PlanRequest, error) {
	req, err := DecodePlanRequest(raw.Value)
	if err != nil {
		return PlanRequest{}, fmt.Errorf("parse plan request: %w", err)
	}
	return req, nil
}

// DecodePlanRequest unmarshals, normalizes, and validates a JSON plan request.
func DecodePlanRequest(data []byte) (PlanRequest, error) {
	var req PlanRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return PlanRequest{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	req.Crop = Crop(strings.ToLower(strings.TrimSpace(string(req.Crop))))
	if err := ValidatePlanRequest(req); err != nil {
		return PlanRequest{}, err
	}
	return req, nil
}

// ValidatePlanRequest checks struct tags and the coordinate pairing rule.
func ValidatePlanRequest(req PlanRequest) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidRequest, describeValidation(err))
	}
	if (req.Lat == nil) != (req.Lng == nil) {
		return fmt.Errorf("%w: lat and lng must be given together", ErrInvalidRequest)
	}
	return nil
}

// describeValidation flattens validator errors into one readable line without
// leaking Go struct names.
func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, e := range verrs {
		field := e.Namespace()
		if _, rest, ok := strings.Cut(field, "."); ok {
			field = rest
		}
		switch e.Tag() {
		case "required":
			parts = append(parts, field+" is required")
		case "crop":
			parts = append(parts, fmt.Sprintf("%s %q is not one of lettuce, onion, potato", field, e.Value()))
		case "datetime":
			parts = append(parts, field+" must be a YYYY-MM-DD date")
		case "latitude", "longitude":
			parts = append(parts, fmt.Sprintf("%s must be a valid %s", field, e.Tag()))
		default:
			parts = append(parts, field+" is invalid")
		}
	}
	return strings.Join(parts, "; ")
}

// NewPlanRecord stamps a planner result with its deterministic ID and the
// current time.
func NewPlanRecord(req PlanRequest, res Resolution, result PlannerResult) PlanRecord {
	return PlanRecord{
		ID:          generatePlanID(req, res),
		RequestID:   req.ID,
		FarmID:      req.FarmID,
		Source:      res.Source,
		PeriodStart: res.PeriodStart,
		PeriodEnd:   res.PeriodEnd,
		GeneratedAt: clock.Now().UTC(),
		Result:      result,
	}
}

// generatePlanID produces a deterministic ID from the crop, farm, location, and
// the observations that were planned. Replaying a request yields the same ID.
func generatePlanID(req PlanRequest, res Resolution) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s|%s|%s", req.Crop, req.FarmID, res.Source)
	if req.HasLocation() {
		fmt.Fprintf(&b, "|%.4f|%.4f", *req.Lat, *req.Lng)
	}
	for _, o := range res.Observations {
		fmt.Fprintf(&b, "|%s:%g:%g:%g:%g", o.Date, o.RainMm, o.TemperatureC, o.MinTemperatureC, o.MaxTemperatureC)
	}
	hash := sha256.Sum256([]byte(b.String()))
	return "plan-" + hex.EncodeToString(hash[:8])
}

// SerializePlanRecord marshals a record into a Kafka-ready OutputEvent keyed by
// plan ID.
func SerializePlanRecord(rec PlanRecord) (OutputEvent, error) {
	value, err := json.Marshal(rec)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize plan record: %w", err)
	}
	headers := map[string]string{
		"crop":         string(rec.Result.Crop),
		"source":       rec.Source,
		"generated_at": rec.GeneratedAt.Format(time.RFC3339),
	}
	if rec.FarmID != "" {
		headers["farm_id"] = rec.FarmID
	}
	return OutputEvent{
		Key:     []byte(rec.ID),
		Value:   value,
		Headers: headers,
	}, nil
}

// ValidateLocation checks a coordinate pair supplied outside a PlanRequest.
func ValidateLocation(lat, lng float64) error {
	if err := validate.Var(lat, "latitude"); err != nil {
		return fmt.Errorf("%w: lat must be a valid latitude", ErrInvalidRequest)
	}
	if err := validate.Var(lng, "longitude"); err != nil {
		return fmt.Errorf("%w: lng must be a valid longitude", ErrInvalidRequest)
	}
	return nil
}
