// Package calibration applies linear correction curves to raw PM2.5
// readings from laser particle counters.
package calibration

import (
	"errors"
	"fmt"
	"strings"
)

// Scheme selects a correction formula
type Scheme string

const (
	None   Scheme = "NONE"
	EPA    Scheme = "EPA"
	LRAPA  Scheme = "LRAPA"
	AQandU Scheme = "AQANDU"
)

// ErrUnknownScheme is returned by ParseScheme for unrecognized names
var ErrUnknownScheme = errors.New("unknown calibration scheme")

// ParseScheme converts a configured name into a Scheme. Matching is
// case-insensitive and an empty name selects None.
func ParseScheme(name string) (Scheme, error) {
	switch s := Scheme(strings.ToUpper(strings.TrimSpace(name))); s {
	case "":
		return None, nil
	case None, EPA, LRAPA, AQandU:
		return s, nil
	default:
		return "", fmt.Errorf("%w: %q (expected NONE, EPA, LRAPA or AQANDU)", ErrUnknownScheme, name)
	}
}

// NeedsHumidity reports whether the scheme uses relative humidity
func (s Scheme) NeedsHumidity() bool {
	return s == EPA
}

// Adjust returns the corrected PM2.5 concentration. The EPA curve needs
// relative humidity; when rhKnown is false it falls back to the raw value.
func Adjust(pm, rh float64, rhKnown bool, s Scheme) float64 {
	switch s {
	case EPA:
		if !rhKnown {
			return pm
		}
		// https://cfpub.epa.gov/si/si_public_file_download.cfm?p_download_id=540979&Lab=CEMM
		return 0.534*pm - 0.0844*rh + 5.604
	case LRAPA:
		return 0.5*pm - 0.66
	case AQandU:
		return 0.778*pm + 2.65
	default:
		return pm
	}
}
