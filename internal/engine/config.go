// Package engine reconciles PurpleAir channel readings and derives the
// published air quality metrics.
package engine

import (
	"fmt"
	"math"

	"github.com/chrissnell/purpleaqi/internal/purpleair"
	"github.com/chrissnell/purpleaqi/pkg/calibration"
)

const (
	maxTempOffsetF    = 50.0
	maxHumidityOffset = 100.0
)

// Config holds the immutable per-sensor settings used by the engine
type Config struct {
	Scheme                calibration.Scheme
	StatKey               purpleair.StatKey
	IncludePM10           bool
	TemperatureOffsetF    float64
	HumidityOffsetPercent float64
}

// NewConfig validates the raw configured values. Unknown calibration
// schemes or statistic keys are rejected; offsets are clamped.
func NewConfig(scheme, statKey string, includePM10 bool, tempOffsetF, humidityOffset float64) (Config, error) {
	s, err := calibration.ParseScheme(scheme)
	if err != nil {
		return Config{}, err
	}

	k, err := purpleair.ParseStatKey(statKey)
	if err != nil {
		return Config{}, err
	}

	if math.IsNaN(tempOffsetF) || math.IsNaN(humidityOffset) {
		return Config{}, fmt.Errorf("offsets must be numbers")
	}

	return Config{
		Scheme:                s,
		StatKey:               k,
		IncludePM10:           includePM10,
		TemperatureOffsetF:    clamp(tempOffsetF, -maxTempOffsetF, maxTempOffsetF),
		HumidityOffsetPercent: clamp(humidityOffset, -maxHumidityOffset, maxHumidityOffset),
	}, nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
