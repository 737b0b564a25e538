// Package purpleair polls a PurpleAir sensor and publishes the derived air
// quality metrics.
package purpleair

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chrissnell/purpleaqi/internal/engine"
	"github.com/chrissnell/purpleaqi/internal/purpleair"
	"github.com/chrissnell/purpleaqi/internal/sensors"
	"github.com/chrissnell/purpleaqi/internal/types"
	"github.com/chrissnell/purpleaqi/pkg/config"
)

const (
	manufacturer = "PurpleAir"
	model        = "JSON_API"
)

// Station polls one PurpleAir device and sends every poll result to the
// update distributor.
type Station struct {
	ctx          context.Context
	cancel       context.CancelFunc
	done         chan struct{}
	wg           *sync.WaitGroup
	config       config.SensorData
	engine       *engine.Engine
	client       *purpleair.Client
	distributor  chan<- types.Update
	logger       *zap.SugaredLogger
	pollInterval time.Duration
}

// NewStation creates a PurpleAir sensor driver. Invalid configuration is
// reported here so that startup fails before any polling begins.
func NewStation(ctx context.Context, wg *sync.WaitGroup, sensorConfig config.SensorData, distributor chan<- types.Update, logger *zap.SugaredLogger) (*Station, error) {
	if err := sensorConfig.Validate(); err != nil {
		return nil, err
	}

	engineConfig, err := engine.NewConfig(
		sensorConfig.Calibration,
		sensorConfig.StatsKey,
		sensorConfig.IncludePM10,
		sensorConfig.TemperatureOffsetF,
		sensorConfig.HumidityOffset,
	)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration for sensor [%s]: %w", sensorConfig.Name, err)
	}

	url, err := purpleair.EndpointURL(sensorConfig.SensorID, sensorConfig.LocalIP, sensorConfig.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint for sensor [%s]: %w", sensorConfig.Name, err)
	}

	stationCtx, cancel := context.WithCancel(ctx)

	return &Station{
		ctx:          stationCtx,
		cancel:       cancel,
		wg:           wg,
		config:       sensorConfig,
		engine:       engine.New(engineConfig),
		client:       purpleair.NewClient(url, sensorConfig.TimeoutDuration()),
		distributor:  distributor,
		logger:       logger.Named("purpleair").With("sensor", sensorConfig.Name),
		pollInterval: sensorConfig.PollDuration(),
	}, nil
}

// SensorName returns the configured name of this sensor
func (s *Station) SensorName() string {
	return s.config.Name
}

// Info returns the device information for this sensor
func (s *Station) Info() sensors.DeviceInfo {
	serial := s.config.SensorID
	if serial == "" {
		serial = s.config.LocalIP
	}
	return sensors.DeviceInfo{
		Name:         s.config.Name,
		Manufacturer: manufacturer,
		Model:        model,
		SerialNumber: serial,
		URL:          s.client.URL(),
	}
}

// StartSensor starts polling the sensor
func (s *Station) StartSensor() error {
	cfg := s.engine.Config()
	s.logger.Infow("Starting PurpleAir sensor",
		"url", s.client.URL(),
		"interval", s.pollInterval,
		"calibration", cfg.Scheme,
		"stats_key", cfg.StatKey)

	s.done = make(chan struct{})
	s.wg.Add(1)
	go s.pollLoop()

	return nil
}

// StopSensor stops polling the sensor and returns once the poll loop has
// exited, so nothing from this station reaches the distributor afterwards.
func (s *Station) StopSensor() error {
	s.logger.Info("Stopping PurpleAir sensor")
	s.cancel()
	if s.done != nil {
		<-s.done
	}
	return nil
}

// pollLoop runs polls back to back on the ticker, so at most one is ever
// in flight. Ticks that arrive during a slow poll are dropped by the ticker.
func (s *Station) pollLoop() {
	defer s.wg.Done()
	defer close(s.done)

	// Initial poll immediately
	s.poll()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			s.logger.Info("Poll loop stopped")
			return
		case <-ticker.C:
			s.poll()
		}
	}
}

func (s *Station) poll() {
	update := types.Update{
		PollID:     uuid.NewString(),
		Timestamp:  time.Now(),
		SensorName: s.config.Name,
	}

	body, err := s.client.Fetch(s.ctx)
	if err != nil {
		if s.ctx.Err() != nil {
			return
		}
		s.logger.Errorw("Failed to fetch PurpleAir data", "error", err, "url", s.client.URL(), "poll_id", update.PollID)
		update.Outcome = "transport_error"
		update.Fault = true
		s.publish(update)
		return
	}

	result := s.engine.ProcessRaw(body)
	update.Outcome = result.Outcome.String()

	switch result.Outcome {
	case engine.Accepted:
		update.Snapshot = result.Snapshot
		s.logSnapshot(update.PollID, result.Snapshot)
	case engine.Stale:
		s.logger.Debugw("Ignoring stale reading", "last_accepted", s.engine.LastAccepted(), "poll_id", update.PollID)
	case engine.Malformed:
		s.logger.Warnw("Discarding malformed payload", "error", result.Err, "poll_id", update.PollID)
	case engine.NoValidChannel:
		s.logger.Warnw("No channel reported a usable reading", "poll_id", update.PollID)
	}

	s.publish(update)
}

func (s *Station) logSnapshot(pollID string, snap *types.Snapshot) {
	logw := s.logger.Debugw
	if s.config.VerboseLogging {
		logw = s.logger.Infow
	}

	fields := []interface{}{
		"poll_id", pollID,
		"stats_key", s.engine.Config().StatKey,
		"pm25", snap.PM25,
		"aqi", snap.AQI,
		"category", snap.CategoryName,
		"channels", snap.Channels,
	}
	if snap.PM10 != nil {
		fields = append(fields, "pm10", *snap.PM10)
	}
	if snap.TempC != nil {
		fields = append(fields, "temp_c", *snap.TempC)
	}
	if snap.Humidity != nil {
		fields = append(fields, "humidity", *snap.Humidity)
	}

	logw("Reading accepted", fields...)
}

func (s *Station) publish(u types.Update) {
	select {
	case s.distributor <- u:
	case <-s.ctx.Done():
	}
}

// Config returns the settings the sensor was created with
func (s *Station) Config() config.SensorData {
	return s.config
}
