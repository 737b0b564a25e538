package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
	config   *ConfigData
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadConfig loads the complete configuration from YAML file
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	var yamlConfig struct {
		Sensors     []SensorYAML     `yaml:"sensors"`
		Storage     StorageYAML      `yaml:"storage,omitempty"`
		Controllers []ControllerYAML `yaml:"controllers,omitempty"`
	}

	err = yaml.Unmarshal(cfgFile, &yamlConfig)
	if err != nil {
		return nil, err
	}

	// Convert to our internal format
	config := &ConfigData{
		Sensors:     make([]SensorData, len(yamlConfig.Sensors)),
		Controllers: make([]ControllerData, len(yamlConfig.Controllers)),
	}

	for i, s := range yamlConfig.Sensors {
		config.Sensors[i] = SensorData{
			Name:               s.Name,
			Enabled:            s.Enabled == nil || *s.Enabled,
			SensorID:           s.SensorID,
			LocalIP:            s.LocalIP,
			Endpoint:           s.Endpoint,
			Calibration:        s.Calibration,
			StatsKey:           s.StatsKey,
			PollInterval:       s.PollInterval,
			Timeout:            s.Timeout,
			IncludePM10:        s.IncludePM10,
			TemperatureOffsetF: s.TemperatureOffsetF,
			HumidityOffset:     s.HumidityOffset,
			VerboseLogging:     s.VerboseLogging,
		}
	}

	if yamlConfig.Storage.TimescaleDB != nil {
		config.Storage.TimescaleDB = &TimescaleDBData{
			ConnectionString: yamlConfig.Storage.TimescaleDB.ConnectionString,
		}
	}
	if m := yamlConfig.Storage.MQTT; m != nil {
		config.Storage.MQTT = &MQTTData{
			Broker:      m.Broker,
			ClientID:    m.ClientID,
			Username:    m.Username,
			Password:    m.Password,
			TopicPrefix: m.TopicPrefix,
			QoS:         m.QoS,
		}
	}
	if k := yamlConfig.Storage.Kafka; k != nil {
		config.Storage.Kafka = &KafkaData{
			Brokers: k.Brokers,
			Topic:   k.Topic,
		}
	}
	if r := yamlConfig.Storage.Redis; r != nil {
		config.Storage.Redis = &RedisData{
			Addr:      r.Addr,
			Password:  r.Password,
			DB:        r.DB,
			KeyPrefix: r.KeyPrefix,
			TTL:       r.TTL,
		}
	}

	for i, controller := range yamlConfig.Controllers {
		config.Controllers[i] = ControllerData{
			Type: controller.Type,
		}

		if controller.RESTServer != nil {
			config.Controllers[i].RESTServer = &RESTServerData{
				Cert:       controller.RESTServer.Cert,
				Key:        controller.RESTServer.Key,
				Port:       controller.RESTServer.Port,
				ListenAddr: controller.RESTServer.ListenAddr,
			}
		}
	}

	y.config = config
	return config, nil
}

func (y *YAMLProvider) loaded() (*ConfigData, error) {
	if y.config == nil {
		return y.LoadConfig()
	}
	return y.config, nil
}

// GetSensors returns sensor configurations
func (y *YAMLProvider) GetSensors() ([]SensorData, error) {
	cfg, err := y.loaded()
	if err != nil {
		return nil, err
	}
	return cfg.Sensors, nil
}

// GetSensor returns a single sensor's configuration
func (y *YAMLProvider) GetSensor(name string) (*SensorData, error) {
	cfg, err := y.loaded()
	if err != nil {
		return nil, err
	}
	return findSensor(cfg.Sensors, name)
}

// GetStorageConfig returns storage configuration
func (y *YAMLProvider) GetStorageConfig() (*StorageData, error) {
	cfg, err := y.loaded()
	if err != nil {
		return nil, err
	}
	return &cfg.Storage, nil
}

// GetControllers returns controller configurations
func (y *YAMLProvider) GetControllers() ([]ControllerData, error) {
	cfg, err := y.loaded()
	if err != nil {
		return nil, err
	}
	return cfg.Controllers, nil
}

// IsReadOnly returns true since YAML files are read-only through this interface
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML provider
func (y *YAMLProvider) Close() error {
	return nil
}

// YAML-specific structs with proper YAML tags
type SensorYAML struct {
	Name               string  `yaml:"name"`
	Enabled            *bool   `yaml:"enabled,omitempty"`
	SensorID           string  `yaml:"sensor-id,omitempty"`
	LocalIP            string  `yaml:"local-ip,omitempty"`
	Endpoint           string  `yaml:"endpoint,omitempty"`
	Calibration        string  `yaml:"calibration,omitempty"`
	StatsKey           string  `yaml:"stats-key,omitempty"`
	PollInterval       int     `yaml:"poll-interval,omitempty"`
	Timeout            int     `yaml:"timeout,omitempty"`
	IncludePM10        bool    `yaml:"include-pm10,omitempty"`
	TemperatureOffsetF float64 `yaml:"temperature-offset-f,omitempty"`
	HumidityOffset     float64 `yaml:"humidity-offset,omitempty"`
	VerboseLogging     bool    `yaml:"verbose-logging,omitempty"`
}

type StorageYAML struct {
	TimescaleDB *TimescaleDBYAML `yaml:"timescaledb,omitempty"`
	MQTT        *MQTTYAML        `yaml:"mqtt,omitempty"`
	Kafka       *KafkaYAML       `yaml:"kafka,omitempty"`
	Redis       *RedisYAML       `yaml:"redis,omitempty"`
}

type TimescaleDBYAML struct {
	ConnectionString string `yaml:"connection-string"`
}

type MQTTYAML struct {
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"client-id,omitempty"`
	Username    string `yaml:"username,omitempty"`
	Password    string `yaml:"password,omitempty"`
	TopicPrefix string `yaml:"topic-prefix,omitempty"`
	QoS         int    `yaml:"qos,omitempty"`
}

type KafkaYAML struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type RedisYAML struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password,omitempty"`
	DB        int    `yaml:"db,omitempty"`
	KeyPrefix string `yaml:"key-prefix,omitempty"`
	TTL       int    `yaml:"ttl,omitempty"`
}

type ControllerYAML struct {
	Type       string          `yaml:"type,omitempty"`
	RESTServer *RESTServerYAML `yaml:"rest,omitempty"`
}

type RESTServerYAML struct {
	Cert       string `yaml:"cert,omitempty"`
	Key        string `yaml:"key,omitempty"`
	Port       int    `yaml:"port,omitempty"`
	ListenAddr string `yaml:"listen-addr,omitempty"`
}
