package engine

import (
	"fmt"
	"math"
	"sync"

	"github.com/chrissnell/purpleaqi/internal/purpleair"
	"github.com/chrissnell/purpleaqi/internal/types"
	"github.com/chrissnell/purpleaqi/pkg/aqi"
	"github.com/chrissnell/purpleaqi/pkg/calibration"
)

// Published temperature range, °C
const (
	minTempC = -40.0
	maxTempC = 125.0
)

// Result is the outcome of processing one payload. Snapshot is only set
// when Outcome is Accepted; Err carries detail for Malformed payloads.
type Result struct {
	Outcome  Outcome
	Snapshot *types.Snapshot
	Err      error
}

// Engine turns payloads into snapshots and remembers the timestamp of the
// last accepted reading. The zero timestamp means nothing has been accepted.
type Engine struct {
	cfg Config

	mu           sync.Mutex
	lastAccepted int64
}

// New creates an engine with a cold state
func New(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Config returns the engine configuration
func (e *Engine) Config() Config {
	return e.cfg
}

// LastAccepted returns the timestamp of the last accepted reading
func (e *Engine) LastAccepted() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastAccepted
}

// ProcessRaw decodes a raw status document and processes it
func (e *Engine) ProcessRaw(body []byte) Result {
	p, err := purpleair.Decode(body)
	if err != nil {
		return Result{Outcome: Malformed, Err: err}
	}
	return e.Process(p)
}

// Process reconciles p, derives the metrics and, only if every step
// succeeded, advances the last accepted timestamp.
func (e *Engine) Process(p purpleair.Payload) Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	r, outcome := Reconcile(p, e.cfg.StatKey, e.lastAccepted)
	if outcome != Accepted {
		return Result{Outcome: outcome}
	}

	snap, err := e.build(r)
	if err != nil {
		return Result{Outcome: Malformed, Err: err}
	}

	e.lastAccepted = r.Timestamp
	return Result{Outcome: Accepted, Snapshot: &snap}
}

func (e *Engine) build(r Reading) (types.Snapshot, error) {
	var humidity, tempC *float64

	if r.Humidity != nil {
		h := clamp(*r.Humidity+e.cfg.HumidityOffsetPercent, 0, 100)
		humidity = &h
	}
	if r.TempF != nil {
		c := clamp(fahrenheitToCelsius(*r.TempF+e.cfg.TemperatureOffsetF), minTempC, maxTempC)
		tempC = &c
	}

	var rh float64
	if humidity != nil {
		rh = *humidity
	}
	pm25 := calibration.Adjust(r.PM25, rh, humidity != nil, e.cfg.Scheme)

	if math.IsNaN(pm25) || math.IsInf(pm25, 0) {
		return types.Snapshot{}, fmt.Errorf("calibrated PM2.5 is not a number: %v", pm25)
	}
	if r.PM10 != nil && (math.IsNaN(*r.PM10) || math.IsInf(*r.PM10, 0)) {
		return types.Snapshot{}, fmt.Errorf("PM10 is not a number: %v", *r.PM10)
	}

	index := aqi.Combined(pm25, r.PM10, e.cfg.IncludePM10)
	category := aqi.CategoryOf(&index)

	snap := types.Snapshot{
		PM25:         round2(math.Max(pm25, 0)),
		AQI:          index,
		Category:     category,
		CategoryName: category.String(),
		TempC:        tempC,
		Humidity:     humidity,
		LastModified: r.Timestamp,
		Channels:     r.Channels,
	}
	if r.PM10 != nil {
		pm10 := round2(*r.PM10)
		snap.PM10 = &pm10
	}

	return snap, nil
}

func fahrenheitToCelsius(f float64) float64 {
	return (f - 32) * 5 / 9
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
