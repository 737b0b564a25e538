// Package purpleair decodes the JSON status document served by PurpleAir
// laser particle counters and fetches it over HTTP.
package purpleair

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Response represents the JSON document returned by /json
type Response struct {
	Results []Result `json:"results"`
}

// Result is one physical sensor channel as reported by the device
type Result struct {
	ID           int64           `json:"ID,omitempty"`
	Label        string          `json:"Label,omitempty"`
	Stats        json.RawMessage `json:"Stats"`               // double-encoded statistics block
	PM10         Number          `json:"pm10_0_atm"`          // PM10 µg/m³
	TempF        Number          `json:"temp_f"`              // Temperature °F (channel A only)
	Humidity     Number          `json:"humidity"`            // Relative humidity % (channel A only)
	LocationType string          `json:"DEVICE_LOCATIONTYPE"` // "inside" or "outside"
	Unhealthy    bool            `json:"A_H"`                 // channel flagged as downgraded
	PM25Current  Number          `json:"PM2_5Value"`          // instantaneous PM2.5 µg/m³
}

// Stats is the decoded contents of a channel's Stats field
type Stats struct {
	V            *float64 `json:"v"`
	V1           *float64 `json:"v1"`
	V2           *float64 `json:"v2"`
	V3           *float64 `json:"v3"`
	V4           *float64 `json:"v4"`
	V5           *float64 `json:"v5"`
	V6           *float64 `json:"v6"`
	LastModified *int64   `json:"lastModified"`
}

// Value returns the concentration stored under key
func (s Stats) Value(key StatKey) (float64, bool) {
	var v *float64
	switch key {
	case StatV:
		v = s.V
	case StatV1:
		v = s.V1
	case StatV2:
		v = s.V2
	case StatV3:
		v = s.V3
	case StatV4:
		v = s.V4
	case StatV5:
		v = s.V5
	case StatV6:
		v = s.V6
	}
	if v == nil {
		return 0, false
	}
	return *v, true
}

// StatKey selects the averaging window of the statistics block
type StatKey string

const (
	StatV  StatKey = "v"  // real-time
	StatV1 StatKey = "v1" // 10 minute average
	StatV2 StatKey = "v2" // 30 minute average
	StatV3 StatKey = "v3" // 1 hour average
	StatV4 StatKey = "v4" // 6 hour average
	StatV5 StatKey = "v5" // 24 hour average
	StatV6 StatKey = "v6" // 1 week average
)

// ErrUnknownStatKey is returned by ParseStatKey for unrecognized keys
var ErrUnknownStatKey = errors.New("unknown statistic key")

// ParseStatKey validates a configured statistic key. An empty key selects v.
func ParseStatKey(key string) (StatKey, error) {
	switch k := StatKey(strings.ToLower(strings.TrimSpace(key))); k {
	case "":
		return StatV, nil
	case StatV, StatV1, StatV2, StatV3, StatV4, StatV5, StatV6:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q (expected one of v, v1..v6)", ErrUnknownStatKey, key)
	}
}

// Number is a float that the device may send as a JSON number, a numeric
// string or null.
type Number struct {
	Value float64
	Valid bool
}

// UnmarshalJSON implements json.Unmarshaler
func (n *Number) UnmarshalJSON(b []byte) error {
	*n = Number{}

	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}

	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			// Unparseable or non-finite strings are treated as missing values
			return nil
		}
		n.Value, n.Valid = f, true
		return nil
	}

	if err := json.Unmarshal(b, &n.Value); err != nil {
		return err
	}
	n.Valid = true
	return nil
}

// Ptr returns a pointer to the value, or nil when it is missing
func (n Number) Ptr() *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Value
	return &v
}
