package prometheus

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/chrissnell/purpleaqi/internal/types"
	"github.com/chrissnell/purpleaqi/pkg/aqi"
)

func TestApply(t *testing.T) {
	s, err := New(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("New() unexpected error: %v", err)
	}

	pm10, temp := 20.5, 25.0
	s.Apply(types.Update{
		SensorName: "backyard",
		Outcome:    "accepted",
		Snapshot: &types.Snapshot{
			PM25:     15,
			PM10:     &pm10,
			AQI:      56,
			Category: aqi.Good,
			TempC:    &temp,
		},
	})

	tests := []struct {
		name string
		c    prometheus.Collector
		want float64
	}{
		{"pm25", s.pm25.WithLabelValues("backyard"), 15},
		{"pm10", s.pm10.WithLabelValues("backyard"), 20.5},
		{"aqi", s.aqi.WithLabelValues("backyard"), 56},
		{"air quality", s.airQuality.WithLabelValues("backyard"), float64(aqi.Good)},
		{"temperature", s.temperature.WithLabelValues("backyard"), 25},
		{"fault", s.fault.WithLabelValues("backyard"), 0},
		{"accepted polls", s.polls.WithLabelValues("backyard", "accepted"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := testutil.ToFloat64(tt.c); got != tt.want {
				t.Errorf("got %v, expected %v", got, tt.want)
			}
		})
	}

	if n := testutil.CollectAndCount(s.humidity); n != 0 {
		t.Errorf("humidity has %d series, expected none", n)
	}
}

func TestFaultOnlyUpdateKeepsValues(t *testing.T) {
	s, err := New(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("New() unexpected error: %v", err)
	}

	s.Apply(types.Update{SensorName: "a", Outcome: "accepted", Snapshot: &types.Snapshot{PM25: 8, AQI: 33}})
	s.Apply(types.Update{SensorName: "a", Outcome: "transport_error", Fault: true})

	if got := testutil.ToFloat64(s.fault.WithLabelValues("a")); got != 1 {
		t.Errorf("fault = %v, expected 1", got)
	}
	if got := testutil.ToFloat64(s.aqi.WithLabelValues("a")); got != 33 {
		t.Errorf("aqi = %v, expected 33", got)
	}
	if got := testutil.ToFloat64(s.polls.WithLabelValues("a", "transport_error")); got != 1 {
		t.Errorf("transport_error polls = %v, expected 1", got)
	}
}

func TestDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := New(reg); err != nil {
		t.Fatalf("New() unexpected error: %v", err)
	}
	if _, err := New(reg); err == nil {
		t.Error("expected an error registering the same metrics twice")
	}
}
