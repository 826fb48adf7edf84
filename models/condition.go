package models

import (
	"encoding/json"
	"fmt"
)

// Condition is the weather condition shown for a single day
type Condition int

const (
	Sun Condition = iota
	Cloud
	Fog
	Hail
	Moon
	RainHeavy
	RainLight
	RainMedium
	Thunder
	Snow
	Wind
	WinteryMix
)

var conditionNames = [...]string{
	Sun:        "sun",
	Cloud:      "cloud",
	Fog:        "fog",
	Hail:       "hail",
	Moon:       "moon",
	RainHeavy:  "rain_heavy",
	RainLight:  "rain_light",
	RainMedium: "rain_medium",
	Thunder:    "thunder",
	Snow:       "snow",
	Wind:       "wind",
	WinteryMix: "wintery_mix",
}

var conditionDescriptions = [...]string{
	Sun:        "Sunny",
	Cloud:      "Cloudy",
	Fog:        "Foggy",
	Hail:       "Hail",
	Moon:       "Moon",
	RainHeavy:  "Heavy rain",
	RainLight:  "Light rain",
	RainMedium: "Medium rain",
	Thunder:    "Stormy",
	Snow:       "Snowy",
	Wind:       "Windy",
	WinteryMix: "Wintery mix",
}

// Conditions returns every condition in declaration order
func Conditions() []Condition {
	all := make([]Condition, len(conditionNames))
	for i := range all {
		all[i] = Condition(i)
	}
	return all
}

// Valid reports whether c is one of the declared conditions
func (c Condition) Valid() bool {
	return c >= Sun && c <= WinteryMix
}

// String returns the wire name of the condition
func (c Condition) String() string {
	if !c.Valid() {
		return fmt.Sprintf("Condition(%d)", int(c))
	}
	return conditionNames[c]
}

// Description returns the human readable label, e.g. "Heavy rain"
func (c Condition) Description() string {
	if !c.Valid() {
		return ""
	}
	return conditionDescriptions[c]
}

// ParseCondition looks up a condition by its wire name
func ParseCondition(name string) (Condition, error) {
	for i, n := range conditionNames {
		if n == name {
			return Condition(i), nil
		}
	}
	return 0, fmt.Errorf("unknown condition %q", name)
}

// MarshalJSON encodes the condition as its wire name
func (c Condition) MarshalJSON() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid condition %d", int(c))
	}
	return json.Marshal(c.String())
}

// UnmarshalJSON decodes a wire name into a condition
func (c *Condition) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("condition must be a string: %w", err)
	}
	parsed, err := ParseCondition(name)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
