package classifier

import (
	"encoding/json"
	"fmt"
)

// RiskLevel is the severity tag attached to a sound category.
type RiskLevel string

// Risk levels, serialized verbatim.
const (
	RiskLow      RiskLevel = "Low"
	RiskModerate RiskLevel = "Moderate"
	RiskHigh     RiskLevel = "High"
)

// Valid reports whether r is one of the three known levels.
func (r RiskLevel) Valid() bool {
	switch r {
	case RiskLow, RiskModerate, RiskHigh:
		return true
	}
	return false
}

// UnmarshalJSON rejects unknown risk levels.
func (r *RiskLevel) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	level := RiskLevel(s)
	if !level.Valid() {
		return fmt.Errorf("invalid risk level %q", s)
	}
	*r = level
	return nil
}

// SoundCategory is one row of the static classification table.
type SoundCategory struct {
	Label   string
	Risk    RiskLevel
	Details string
}

var soundCategories = [...]SoundCategory{
	{Label: "Frog Calls", Risk: RiskLow, Details: "Healthy ecosystem indicator"},
	{Label: "Traffic Noise", Risk: RiskModerate, Details: "Urban pollution interference"},
	{Label: "Machinery", Risk: RiskHigh, Details: "Industrial noise pollution"},
	{Label: "Bird Song", Risk: RiskLow, Details: "Biodiversity positive signal"},
	{Label: "Silence", Risk: RiskLow, Details: "Background ambient noise"},
}

// Categories returns a copy of the sound category table.
func Categories() []SoundCategory {
	out := make([]SoundCategory, len(soundCategories))
	copy(out, soundCategories[:])
	return out
}

// LookupCategory returns the category with the given label.
func LookupCategory(label string) (SoundCategory, bool) {
	for _, c := range soundCategories {
		if c.Label == label {
			return c, true
		}
	}
	return SoundCategory{}, false
}
