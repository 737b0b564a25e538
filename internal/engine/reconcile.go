package engine

import (
	"gonum.org/v1/gonum/stat"

	"github.com/chrissnell/purpleaqi/internal/purpleair"
)

// Outcome classifies what happened to a payload
type Outcome int

const (
	Accepted Outcome = iota
	Stale
	Malformed
	NoValidChannel
)

// String returns the outcome name used in logs and metric labels
func (o Outcome) String() string {
	switch o {
	case Accepted:
		return "accepted"
	case Stale:
		return "stale"
	case Malformed:
		return "malformed"
	case NoValidChannel:
		return "no_valid_channel"
	default:
		return "unknown"
	}
}

// Reading is a reconciled but not yet calibrated measurement
type Reading struct {
	PM25      float64
	PM10      *float64
	TempF     *float64
	Humidity  *float64
	Timestamp int64
	Channels  int
}

// Reconcile picks the usable channels of p, fuses them and checks that the
// result is newer than lastAccepted. It has no side effects.
func Reconcile(p purpleair.Payload, key purpleair.StatKey, lastAccepted int64) (Reading, Outcome) {
	var valid []purpleair.Channel
	var newest int64

	switch p := p.(type) {
	case purpleair.SingleChannel:
		if p.A.Valid(key) {
			valid = append(valid, p.A)
		}
		newest = p.A.LastModified
	case purpleair.DualChannel:
		if p.A.Valid(key) {
			valid = append(valid, p.A)
		}
		if p.B.Valid(key) {
			valid = append(valid, p.B)
		}
		newest = p.A.LastModified
		if p.B.Present && p.B.LastModified > newest {
			newest = p.B.LastModified
		}
	default:
		return Reading{}, Malformed
	}

	if len(valid) == 0 {
		return Reading{}, NoValidChannel
	}

	if newest <= lastAccepted {
		return Reading{}, Stale
	}

	pm25, used := fuseConcentration(valid, key)
	primary := p.Primary()

	return Reading{
		PM25:      pm25,
		PM10:      fusePM10(valid),
		TempF:     primary.TempF,
		Humidity:  primary.Humidity,
		Timestamp: newest,
		Channels:  used,
	}, Accepted
}

// fuseConcentration averages the channel values. A zero reading is never
// averaged with a real one: when only some channels read zero, those are
// dropped.
func fuseConcentration(channels []purpleair.Channel, key purpleair.StatKey) (float64, int) {
	var values, nonZero []float64
	for _, c := range channels {
		v, _ := c.Concentration(key)
		values = append(values, v)
		if v != 0 {
			nonZero = append(nonZero, v)
		}
	}

	switch len(nonZero) {
	case 0:
		return 0, len(values)
	case len(values):
		return stat.Mean(values, nil), len(values)
	default:
		return stat.Mean(nonZero, nil), len(nonZero)
	}
}

func fusePM10(channels []purpleair.Channel) *float64 {
	var values []float64
	for _, c := range channels {
		if c.PM10 != nil {
			values = append(values, *c.PM10)
		}
	}
	if len(values) == 0 {
		return nil
	}
	m := stat.Mean(values, nil)
	return &m
}
