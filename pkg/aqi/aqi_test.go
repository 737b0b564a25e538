package aqi

import (
	"math"
	"testing"
)

func TestRemapEndpoints(t *testing.T) {
	bands := append(append([]breakpoint{}, pm25Breakpoints...), pm10Breakpoints...)
	for _, b := range bands {
		if got := Remap(b.cLow, b.cLow, b.cHigh, b.iLow, b.iHigh); math.Abs(got-b.iLow) > 1e-9 {
			t.Errorf("Remap(%v) at low end = %v, expected %v", b.cLow, got, b.iLow)
		}
		if got := Remap(b.cHigh, b.cLow, b.cHigh, b.iLow, b.iHigh); math.Abs(got-b.iHigh) > 1e-9 {
			t.Errorf("Remap(%v) at high end = %v, expected %v", b.cHigh, got, b.iHigh)
		}
	}
}

func TestRemapMidpoint(t *testing.T) {
	if got := Remap(5, 0, 10, 100, 200); got != 150 {
		t.Errorf("Remap(5, 0, 10, 100, 200) = %v, expected 150", got)
	}
}

func TestCalculatePM25(t *testing.T) {
	tests := []struct {
		name     string
		pm       float64
		expected int
	}{
		{"negative", -3, 0},
		{"zero", 0, 0},
		{"NaN", math.NaN(), 0},
		{"low band", 6, 25},
		{"first boundary", 12.0, 50},
		{"just past first boundary", 12.0001, 50},
		{"moderate", 15, 56},
		{"second boundary", 35.5, 100},
		{"third boundary", 55.5, 150},
		{"fourth boundary", 150.5, 200},
		{"fifth boundary", 250.5, 300},
		{"sixth boundary", 350.5, 400},
		{"top band", 500, 500},
		{"clamped", 812, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CalculatePM25(tt.pm); got != tt.expected {
				t.Errorf("CalculatePM25(%v) = %d, expected %d", tt.pm, got, tt.expected)
			}
		})
	}
}

func TestCalculatePM25Continuity(t *testing.T) {
	for _, b := range pm25Breakpoints[:len(pm25Breakpoints)-1] {
		below := CalculatePM25(b.cHigh)
		above := CalculatePM25(b.cHigh + 1e-6)
		if above-below > 1 || above < below {
			t.Errorf("discontinuity at %v: %d -> %d", b.cHigh, below, above)
		}
	}
}

func TestCalculatePM10(t *testing.T) {
	tests := []struct {
		name     string
		pm       float64
		expected int
	}{
		{"negative", -1, 0},
		{"zero", 0, 0},
		{"low band", 27.5, 25},
		{"second band start", 55, 50},
		{"third band start", 155, 100},
		{"fourth band start", 255, 150},
		{"fifth band start", 355, 200},
		{"sixth band start", 425, 300},
		{"seventh band start", 505, 400},
		{"top", 605, 500},
		{"clamped", 1000, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CalculatePM10(tt.pm); got != tt.expected {
				t.Errorf("CalculatePM10(%v) = %d, expected %d", tt.pm, got, tt.expected)
			}
		})
	}
}

func TestCombined(t *testing.T) {
	pm10 := 300.0 // AQI 173

	if got := Combined(15, &pm10, false); got != 56 {
		t.Errorf("Combined without PM10 = %d, expected 56", got)
	}
	if got := Combined(15, &pm10, true); got != 173 {
		t.Errorf("Combined with PM10 = %d, expected 173", got)
	}
	if got := Combined(15, nil, true); got != 56 {
		t.Errorf("Combined with missing PM10 = %d, expected 56", got)
	}

	low := 10.0
	if got := Combined(40, &low, true); got != CalculatePM25(40) {
		t.Errorf("Combined should keep the worse PM2.5 index, got %d", got)
	}
}

func TestCategoryOf(t *testing.T) {
	values := []int{0, 50, 51, 100, 101, 150, 151, 200, 201, 500}
	expected := []Category{Excellent, Excellent, Good, Good, Fair, Fair, Inferior, Inferior, Poor, Poor}

	for i, v := range values {
		v := v
		if got := CategoryOf(&v); got != expected[i] {
			t.Errorf("CategoryOf(%d) = %v, expected %v", v, got, expected[i])
		}
	}

	if got := CategoryOf(nil); got != Unknown {
		t.Errorf("CategoryOf(nil) = %v, expected Unknown", got)
	}
}

func TestCategoryString(t *testing.T) {
	names := map[Category]string{
		Unknown:   "Unknown",
		Excellent: "Excellent",
		Good:      "Good",
		Fair:      "Fair",
		Inferior:  "Inferior",
		Poor:      "Poor",
	}
	for c, name := range names {
		if c.String() != name {
			t.Errorf("Category(%d).String() = %q, expected %q", int(c), c.String(), name)
		}
	}
	if int(Poor) != 5 || int(Excellent) != 1 {
		t.Errorf("category levels must run 1..5, got Excellent=%d Poor=%d", Excellent, Poor)
	}
}
