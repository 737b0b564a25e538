package purpleair

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedPayload is returned when a document does not have the shape
// of a PurpleAir status response
var ErrMalformedPayload = errors.New("malformed payload")

// Channel is a decoded sensor channel
type Channel struct {
	Present      bool
	Stats        Stats
	LastModified int64
	PM10         *float64
	TempF        *float64
	Humidity     *float64
	Unhealthy    bool
	PM25Current  *float64
}

// Concentration returns the channel's PM2.5 value for key
func (c Channel) Concentration(key StatKey) (float64, bool) {
	if !c.Present {
		return 0, false
	}
	return c.Stats.Value(key)
}

// Valid reports whether the channel can contribute a reading for key
func (c Channel) Valid(key StatKey) bool {
	if !c.Present || c.Unhealthy {
		return false
	}
	_, ok := c.Concentration(key)
	return ok
}

// Payload is either a SingleChannel (indoor device) or a DualChannel
// (outdoor device) reading.
type Payload interface {
	// Primary returns channel A, the only channel that reports
	// temperature and humidity
	Primary() Channel
	isPayload()
}

// SingleChannel is a reading from an indoor device with one laser counter
type SingleChannel struct {
	A Channel
}

// Primary implements Payload
func (p SingleChannel) Primary() Channel { return p.A }
func (SingleChannel) isPayload()         {}

// DualChannel is a reading from an outdoor device. B.Present is false when
// the device did not report a usable second channel.
type DualChannel struct {
	A Channel
	B Channel
}

// Primary implements Payload
func (p DualChannel) Primary() Channel { return p.A }
func (DualChannel) isPayload()         {}

// LocationInside is the DEVICE_LOCATIONTYPE of single-channel devices
const LocationInside = "inside"

// Decode parses a raw /json document into a Payload
func Decode(body []byte) (Payload, error) {
	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return FromResponse(resp)
}

// FromResponse builds a Payload from an already-unmarshalled Response
func FromResponse(resp Response) (Payload, error) {
	if len(resp.Results) == 0 {
		return nil, fmt.Errorf("%w: no results", ErrMalformedPayload)
	}

	a, err := decodeChannel(resp.Results[0])
	if err != nil {
		return nil, fmt.Errorf("%w: channel A: %v", ErrMalformedPayload, err)
	}

	if resp.Results[0].LocationType == LocationInside {
		return SingleChannel{A: a}, nil
	}

	dual := DualChannel{A: a}
	if len(resp.Results) > 1 {
		// A second channel that can't be decoded counts as absent
		if b, err := decodeChannel(resp.Results[1]); err == nil {
			dual.B = b
		}
	}
	return dual, nil
}

func decodeChannel(r Result) (Channel, error) {
	stats, err := decodeStats(r.Stats)
	if err != nil {
		return Channel{}, err
	}
	if stats.LastModified == nil {
		return Channel{}, errors.New("statistics block has no lastModified")
	}

	return Channel{
		Present:      true,
		Stats:        stats,
		LastModified: *stats.LastModified,
		PM10:         r.PM10.Ptr(),
		TempF:        r.TempF.Ptr(),
		Humidity:     r.Humidity.Ptr(),
		Unhealthy:    r.Unhealthy,
		PM25Current:  r.PM25Current.Ptr(),
	}, nil
}

// decodeStats accepts the statistics block either as a JSON-encoded string
// (as served by the device) or as a plain object.
func decodeStats(raw json.RawMessage) (Stats, error) {
	var stats Stats

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return stats, errors.New("missing Stats")
	}

	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return stats, fmt.Errorf("decoding Stats string: %w", err)
		}
		if inner == "" {
			return stats, errors.New("empty Stats")
		}
		raw = json.RawMessage(inner)
	}

	if err := json.Unmarshal(raw, &stats); err != nil {
		return stats, fmt.Errorf("decoding Stats: %w", err)
	}
	return stats, nil
}
