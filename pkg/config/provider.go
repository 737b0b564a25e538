package config

import (
	"fmt"
	"time"
)

// Defaults applied when a sensor leaves the value unset
const (
	DefaultPollInterval = 90 * time.Second
	DefaultTimeout      = 10 * time.Second
)

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	// Get specific configuration sections
	GetSensors() ([]SensorData, error)
	GetSensor(name string) (*SensorData, error)
	GetStorageConfig() (*StorageData, error)
	GetControllers() ([]ControllerData, error)

	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Sensors     []SensorData     `json:"sensors"`
	Storage     StorageData      `json:"storage,omitempty"`
	Controllers []ControllerData `json:"controllers,omitempty"`
}

// SensorData holds configuration specific to one PurpleAir sensor
type SensorData struct {
	Name               string  `json:"name"`
	Enabled            bool    `json:"enabled"`
	SensorID           string  `json:"sensor_id,omitempty"`
	LocalIP            string  `json:"local_ip,omitempty"`
	Endpoint           string  `json:"endpoint,omitempty"`
	Calibration        string  `json:"calibration,omitempty"`
	StatsKey           string  `json:"stats_key,omitempty"`
	PollInterval       int     `json:"poll_interval,omitempty"` // seconds
	Timeout            int     `json:"timeout,omitempty"`       // seconds
	IncludePM10        bool    `json:"include_pm10,omitempty"`
	TemperatureOffsetF float64 `json:"temperature_offset_f,omitempty"`
	HumidityOffset     float64 `json:"humidity_offset,omitempty"`
	VerboseLogging     bool    `json:"verbose_logging,omitempty"`
}

// PollDuration returns the polling period
func (s SensorData) PollDuration() time.Duration {
	if s.PollInterval <= 0 {
		return DefaultPollInterval
	}
	return time.Duration(s.PollInterval) * time.Second
}

// TimeoutDuration returns the fetch timeout
func (s SensorData) TimeoutDuration() time.Duration {
	if s.Timeout <= 0 {
		return DefaultTimeout
	}
	return time.Duration(s.Timeout) * time.Second
}

// Validate checks the fields that every sensor must define
func (s SensorData) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("sensor has no name")
	}
	if s.SensorID == "" && s.LocalIP == "" {
		return fmt.Errorf("sensor [%s] must define either a sensor ID or a local IP", s.Name)
	}
	return nil
}

// StorageData holds the configuration for the optional metric sinks
type StorageData struct {
	TimescaleDB *TimescaleDBData `json:"timescaledb,omitempty"`
	MQTT        *MQTTData        `json:"mqtt,omitempty"`
	Kafka       *KafkaData       `json:"kafka,omitempty"`
	Redis       *RedisData       `json:"redis,omitempty"`
}

// ControllerData holds the configuration for various controller backends
type ControllerData struct {
	Type       string          `json:"type,omitempty"`
	RESTServer *RESTServerData `json:"rest,omitempty"`
}

type TimescaleDBData struct {
	ConnectionString string `json:"connection_string"`
}

type MQTTData struct {
	Broker      string `json:"broker"`
	ClientID    string `json:"client_id,omitempty"`
	Username    string `json:"username,omitempty"`
	Password    string `json:"password,omitempty"`
	TopicPrefix string `json:"topic_prefix,omitempty"`
	QoS         int    `json:"qos,omitempty"`
}

type KafkaData struct {
	Brokers []string `json:"brokers"`
	Topic   string   `json:"topic"`
}

type RedisData struct {
	Addr      string `json:"addr"`
	Password  string `json:"password,omitempty"`
	DB        int    `json:"db,omitempty"`
	KeyPrefix string `json:"key_prefix,omitempty"`
	TTL       int    `json:"ttl,omitempty"` // seconds, 0 keeps keys forever
}

type RESTServerData struct {
	Cert       string `json:"cert,omitempty"`
	Key        string `json:"key,omitempty"`
	Port       int    `json:"port,omitempty"`
	ListenAddr string `json:"listen_addr,omitempty"`
}

// findSensor returns the named sensor from a list
func findSensor(sensors []SensorData, name string) (*SensorData, error) {
	for i := range sensors {
		if sensors[i].Name == name {
			s := sensors[i]
			return &s, nil
		}
	}
	return nil, fmt.Errorf("sensor [%s] not found in configuration", name)
}
