// Package prometheus exports sensor metrics as Prometheus gauges.
package prometheus

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/chrissnell/purpleaqi/internal/types"
)

const namespace = "purpleaqi"

// Sink holds the metric vectors. Each gauge is labelled by sensor name.
type Sink struct {
	pm25        *prometheus.GaugeVec
	pm10        *prometheus.GaugeVec
	aqi         *prometheus.GaugeVec
	airQuality  *prometheus.GaugeVec
	temperature *prometheus.GaugeVec
	humidity    *prometheus.GaugeVec
	fault       *prometheus.GaugeVec
	polls       *prometheus.CounterVec
}

// New creates the metric vectors and registers them with reg
func New(reg prometheus.Registerer) (*Sink, error) {
	gauge := func(name, help string) *prometheus.GaugeVec {
		return prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, []string{"sensor"})
	}

	s := &Sink{
		pm25:        gauge("pm25_density", "PM2.5 density in µg/m³ after calibration."),
		pm10:        gauge("pm10_density", "PM10 density in µg/m³."),
		aqi:         gauge("aqi", "US EPA air quality index."),
		airQuality:  gauge("air_quality", "Air quality category (0 unknown, 1 excellent .. 5 poor)."),
		temperature: gauge("temperature_celsius", "Temperature in degrees Celsius."),
		humidity:    gauge("relative_humidity", "Relative humidity in percent."),
		fault:       gauge("status_fault", "1 when the last fetch from the sensor failed."),
		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "polls_total",
			Help:      "Total polls by sensor and outcome.",
		}, []string{"sensor", "outcome"}),
	}

	for _, c := range []prometheus.Collector{
		s.pm25, s.pm10, s.aqi, s.airQuality, s.temperature, s.humidity, s.fault, s.polls,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// StartSink creates a goroutine loop to receive updates and export them
func (s *Sink) StartSink(ctx context.Context, wg *sync.WaitGroup) chan<- types.Update {
	updates := make(chan types.Update, 10)
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case u := <-updates:
				s.Apply(u)
			case <-ctx.Done():
				return
			}
		}
	}()
	return updates
}

// Apply exports an update. Gauges for values the sensor did not report
// keep their previous value.
func (s *Sink) Apply(u types.Update) {
	name := u.SensorName

	if u.Outcome != "" {
		s.polls.WithLabelValues(name, u.Outcome).Inc()
	}

	if u.Fault {
		s.fault.WithLabelValues(name).Set(1)
	} else {
		s.fault.WithLabelValues(name).Set(0)
	}

	snap := u.Snapshot
	if snap == nil {
		return
	}

	s.pm25.WithLabelValues(name).Set(snap.PM25)
	s.aqi.WithLabelValues(name).Set(float64(snap.AQI))
	s.airQuality.WithLabelValues(name).Set(float64(snap.Category))
	if snap.PM10 != nil {
		s.pm10.WithLabelValues(name).Set(*snap.PM10)
	}
	if snap.TempC != nil {
		s.temperature.WithLabelValues(name).Set(*snap.TempC)
	}
	if snap.Humidity != nil {
		s.humidity.WithLabelValues(name).Set(*snap.Humidity)
	}
}
