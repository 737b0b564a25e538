// Package aqi provides functions for calculating Air Quality Index values
// from particulate matter concentrations according to EPA standards
package aqi

import "math"

// Remap linearly maps value from the range [fromLow, fromHigh] onto
// [toLow, toHigh]. Callers must ensure fromHigh != fromLow.
func Remap(value, fromLow, fromHigh, toLow, toHigh float64) float64 {
	scale := (toHigh - toLow) / (fromHigh - fromLow)
	return toLow + (value-fromLow)*scale
}

// breakpoint is one band of an EPA concentration table
type breakpoint struct {
	cLow, cHigh float64
	iLow, iHigh float64
}

// EPA breakpoints for PM2.5. Bands are (cLow, cHigh].
var pm25Breakpoints = []breakpoint{
	{0, 12, 0, 50},
	{12, 35.5, 50, 100},
	{35.5, 55.5, 100, 150},
	{55.5, 150.5, 150, 200},
	{150.5, 250.5, 200, 300},
	{250.5, 350.5, 300, 400},
	{350.5, 500.5, 400, 500},
}

// EPA breakpoints for PM10. Bands are [cLow, cHigh).
var pm10Breakpoints = []breakpoint{
	{0, 55, 0, 50},
	{55, 155, 50, 100},
	{155, 255, 100, 150},
	{255, 355, 150, 200},
	{355, 425, 200, 300},
	{425, 505, 300, 400},
	{505, 605, 400, 500},
}

// CalculatePM25 calculates the Air Quality Index from PM2.5 concentration (μg/m³)
func CalculatePM25(pm float64) int {
	switch {
	case math.IsNaN(pm), pm <= 0:
		return 0
	case pm > 500:
		return 500
	}

	for _, b := range pm25Breakpoints {
		if pm <= b.cHigh {
			return int(math.Round(Remap(pm, b.cLow, b.cHigh, b.iLow, b.iHigh)))
		}
	}

	// (500, 500.5] is unreachable because of the clamp above
	return 500
}

// CalculatePM10 calculates the Air Quality Index from PM10 concentration (μg/m³)
func CalculatePM10(pm float64) int {
	if math.IsNaN(pm) || pm < 0 {
		return 0
	}

	for _, b := range pm10Breakpoints {
		if pm < b.cHigh {
			return int(math.Round(Remap(pm, b.cLow, b.cHigh, b.iLow, b.iHigh)))
		}
	}

	return 500
}

// Combined returns the PM2.5 AQI, or the worse of the PM2.5 and PM10 AQIs
// when includePM10 is set and a PM10 reading is available.
func Combined(pm25 float64, pm10 *float64, includePM10 bool) int {
	index := CalculatePM25(pm25)
	if includePM10 && pm10 != nil {
		if i10 := CalculatePM10(*pm10); i10 > index {
			index = i10
		}
	}
	return index
}

// Category is the five-level air quality scale published to clients.
// The two worst EPA categories are merged into Poor.
type Category int

const (
	Unknown Category = iota
	Excellent
	Good
	Fair
	Inferior
	Poor
)

// CategoryOf buckets an AQI value. A nil AQI yields Unknown.
func CategoryOf(aqi *int) Category {
	if aqi == nil {
		return Unknown
	}

	switch v := *aqi; {
	case v <= 50:
		return Excellent
	case v <= 100:
		return Good
	case v <= 150:
		return Fair
	case v <= 200:
		return Inferior
	default:
		return Poor
	}
}

// String returns the human-readable category name
func (c Category) String() string {
	switch c {
	case Excellent:
		return "Excellent"
	case Good:
		return "Good"
	case Fair:
		return "Fair"
	case Inferior:
		return "Inferior"
	case Poor:
		return "Poor"
	default:
		return "Unknown"
	}
}

// Color returns the standard EPA color code for the category
func (c Category) Color() string {
	switch c {
	case Excellent:
		return "#00e400" // Green
	case Good:
		return "#ffff00" // Yellow
	case Fair:
		return "#ff7e00" // Orange
	case Inferior:
		return "#ff0000" // Red
	case Poor:
		return "#99004c" // Purple
	default:
		return "#808080"
	}
}
