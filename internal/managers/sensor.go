package managers

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/chrissnell/purpleaqi/internal/sensors"
	"github.com/chrissnell/purpleaqi/internal/sensors/purpleair"
	"github.com/chrissnell/purpleaqi/internal/types"
	"github.com/chrissnell/purpleaqi/pkg/config"
)

// SensorManager creates, starts and stops the configured sensors
type SensorManager interface {
	StartSensors() error
	AddSensor(name string) error
	RemoveSensor(name string) error
	ReloadSensorsConfig() error
	GetSensor(name string) sensors.Sensor
	Devices() []sensors.DeviceInfo
}

// NewSensorManager creates a SensorManager populated with every enabled
// sensor. Any misconfigured sensor aborts creation.
func NewSensorManager(ctx context.Context, wg *sync.WaitGroup, configProvider config.ConfigProvider, distributor chan<- types.Update, logger *zap.SugaredLogger) (SensorManager, error) {
	sensorConfigs, err := configProvider.GetSensors()
	if err != nil {
		return nil, fmt.Errorf("error loading sensor configuration: %w", err)
	}

	sm := &sensorManager{
		ctx:            ctx,
		wg:             wg,
		configProvider: configProvider,
		distributor:    distributor,
		logger:         logger,
		sensors:        make(map[string]sensors.Sensor),
	}

	for _, sc := range sensorConfigs {
		if !sc.Enabled {
			logger.Infof("Skipping disabled sensor [%s]", sc.Name)
			continue
		}
		if _, exists := sm.sensors[sc.Name]; exists {
			return nil, fmt.Errorf("sensor [%s] is configured more than once", sc.Name)
		}

		sensor, err := createSensor(ctx, wg, sc, distributor, logger)
		if err != nil {
			return nil, fmt.Errorf("error creating sensor [%s]: %w", sc.Name, err)
		}
		sm.sensors[sc.Name] = sensor
	}

	return sm, nil
}

type sensorManager struct {
	ctx            context.Context
	wg             *sync.WaitGroup
	configProvider config.ConfigProvider
	distributor    chan<- types.Update
	logger         *zap.SugaredLogger
	sensors        map[string]sensors.Sensor
	mu             sync.RWMutex
}

func (s *sensorManager) StartSensors() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.sensors) == 0 {
		s.logger.Warn("No enabled sensors configured")
	}

	for name, sensor := range s.sensors {
		s.logger.Infof("Starting sensor [%v]...", name)
		if err := sensor.StartSensor(); err != nil {
			return fmt.Errorf("failed to start sensor [%s]: %w", name, err)
		}
	}
	return nil
}

// AddSensor creates and starts a sensor from the current configuration
func (s *sensorManager) AddSensor(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addSensorLocked(name)
}

func (s *sensorManager) addSensorLocked(name string) error {
	if _, exists := s.sensors[name]; exists {
		return fmt.Errorf("sensor %s already exists", name)
	}

	sc, err := s.configProvider.GetSensor(name)
	if err != nil {
		return fmt.Errorf("failed to get sensor %s: %w", name, err)
	}
	if !sc.Enabled {
		return fmt.Errorf("cannot add disabled sensor %s", name)
	}

	sensor, err := createSensor(s.ctx, s.wg, *sc, s.distributor, s.logger)
	if err != nil {
		return fmt.Errorf("error creating sensor [%s]: %w", name, err)
	}

	if err := sensor.StartSensor(); err != nil {
		return fmt.Errorf("failed to start sensor [%s]: %w", name, err)
	}
	s.sensors[name] = sensor

	s.logger.Infof("Added and started sensor: %s", name)
	return nil
}

// RemoveSensor stops a sensor and forgets it
func (s *sensorManager) RemoveSensor(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeSensorLocked(name)
}

func (s *sensorManager) removeSensorLocked(name string) error {
	sensor, exists := s.sensors[name]
	if !exists {
		return fmt.Errorf("sensor %s not found", name)
	}

	if err := sensor.StopSensor(); err != nil {
		// Continue with removal even if stop failed
		s.logger.Errorf("Error stopping sensor %s: %v", name, err)
	}
	delete(s.sensors, name)

	s.logger.Infof("Removed and stopped sensor: %s", name)
	return nil
}

// ReloadSensorsConfig brings the running sensors in line with the
// configuration. Sensors whose settings changed are restarted, which
// resets their last accepted timestamp.
func (s *sensorManager) ReloadSensorsConfig() error {
	sensorConfigs, err := s.configProvider.GetSensors()
	if err != nil {
		return fmt.Errorf("could not load sensor configuration: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	wanted := make(map[string]config.SensorData)
	for _, sc := range sensorConfigs {
		if sc.Enabled {
			wanted[sc.Name] = sc
		}
	}

	for name, sensor := range s.sensors {
		sc, ok := wanted[name]
		if ok && sameSettings(sensor, sc) {
			continue
		}
		if err := s.removeSensorLocked(name); err != nil {
			s.logger.Errorf("Failed to remove sensor %s: %v", name, err)
		}
	}

	for name := range wanted {
		if _, exists := s.sensors[name]; !exists {
			if err := s.addSensorLocked(name); err != nil {
				s.logger.Errorf("Failed to add sensor %s: %v", name, err)
			}
		}
	}

	return nil
}

// GetSensor returns the named sensor, or nil if it is not running
func (s *sensorManager) GetSensor(name string) sensors.Sensor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sensors[name]
}

// Devices returns the device information of every running sensor, sorted
// by name
func (s *sensorManager) Devices() []sensors.DeviceInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	devices := make([]sensors.DeviceInfo, 0, len(s.sensors))
	for _, sensor := range s.sensors {
		devices = append(devices, sensor.Info())
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i].Name < devices[j].Name })
	return devices
}

// configured is implemented by sensors that can report the settings they
// were created with
type configured interface {
	Config() config.SensorData
}

func sameSettings(sensor sensors.Sensor, sc config.SensorData) bool {
	c, ok := sensor.(configured)
	return ok && c.Config() == sc
}

func createSensor(ctx context.Context, wg *sync.WaitGroup, sc config.SensorData, distributor chan<- types.Update, logger *zap.SugaredLogger) (sensors.Sensor, error) {
	logger.Infof("Initializing PurpleAir sensor [%v]", sc.Name)
	station, err := purpleair.NewStation(ctx, wg, sc, distributor, logger)
	if err != nil {
		return nil, err
	}
	return station, nil
}
