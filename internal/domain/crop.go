package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownCrop is returned when a crop selector is outside the supported set.
var ErrUnknownCrop = errors.New("unknown crop")

// Crop identifies one of the supported crops.
type Crop string

const (
	CropLettuce Crop = "lettuce"
	CropOnion   Crop = "onion"
	CropPotato  Crop = "potato"
)

// CropProfile holds the agronomic constants the planner needs for one crop.
type CropProfile struct {
	Crop      Crop    `json:"crop"`
	Kc        float64 `json:"kc"`        // crop coefficient applied to ETo
	Dmax      float64 `json:"dmax"`      // deficit (mm) that triggers irrigation
	LossLimit float64 `json:"lossLimit"` // 72h rain (mm) above which fertilizer leaches
}

var cropProfiles = map[Crop]CropProfile{
	CropLettuce: {Crop: CropLettuce, Kc: 1.0, Dmax: 12, LossLimit: 20},
	CropOnion:   {Crop: CropOnion, Kc: 1.05, Dmax: 15, LossLimit: 25},
	CropPotato:  {Crop: CropPotato, Kc: 1.15, Dmax: 20, LossLimit: 25},
}

// Crops lists the supported crops in a stable order.
func Crops() []Crop {
	return []Crop{CropLettuce, CropOnion, CropPotato}
}

// ProfileFor returns the profile for c. The boolean is false for unknown crops.
func ProfileFor(c Crop) (CropProfile, bool) {
	p, ok := cropProfiles[c]
	return p, ok
}

// ParseCrop normalizes a crop name and resolves it to a known crop.
func ParseCrop(s string) (Crop, error) {
	c := Crop(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := cropProfiles[c]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCrop, s)
	}
	return c, nil
}
