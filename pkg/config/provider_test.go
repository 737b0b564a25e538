package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

const testYAML = `
sensors:
  - name: backyard
    sensor-id: "12345"
    calibration: epa
    stats-key: v1
    poll-interval: 60
    include-pm10: true
    temperature-offset-f: -8
  - name: garage
    enabled: false
    local-ip: 192.168.1.50
storage:
  mqtt:
    broker: tcp://localhost:1883
    topic-prefix: purpleaqi
  kafka:
    brokers: [kafka1:9092, kafka2:9092]
    topic: air-quality
  redis:
    addr: localhost:6379
    ttl: 300
controllers:
  - type: rest
    rest:
      port: 8080
      listen-addr: 127.0.0.1
`

func writeYAML(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestYAMLProviderLoadConfig(t *testing.T) {
	p := NewYAMLProvider(writeYAML(t, testYAML))
	defer p.Close()

	cfg, err := p.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if len(cfg.Sensors) != 2 {
		t.Fatalf("got %d sensors, want 2", len(cfg.Sensors))
	}

	backyard := cfg.Sensors[0]
	if !backyard.Enabled {
		t.Error("sensor without an enabled key should default to enabled")
	}
	if backyard.SensorID != "12345" || backyard.Calibration != "epa" || backyard.StatsKey != "v1" {
		t.Errorf("unexpected backyard sensor: %+v", backyard)
	}
	if !backyard.IncludePM10 || backyard.TemperatureOffsetF != -8 {
		t.Errorf("unexpected backyard options: %+v", backyard)
	}
	if got := backyard.PollDuration(); got != 60*time.Second {
		t.Errorf("PollDuration() = %v, want 60s", got)
	}
	if got := backyard.TimeoutDuration(); got != DefaultTimeout {
		t.Errorf("TimeoutDuration() = %v, want %v", got, DefaultTimeout)
	}

	if cfg.Sensors[1].Enabled {
		t.Error("garage sensor should be disabled")
	}
	if got := cfg.Sensors[1].PollDuration(); got != DefaultPollInterval {
		t.Errorf("PollDuration() = %v, want %v", got, DefaultPollInterval)
	}

	if cfg.Storage.TimescaleDB != nil {
		t.Error("timescaledb should not be configured")
	}
	if cfg.Storage.MQTT == nil || cfg.Storage.MQTT.TopicPrefix != "purpleaqi" {
		t.Errorf("unexpected mqtt config: %+v", cfg.Storage.MQTT)
	}
	if cfg.Storage.Kafka == nil || !reflect.DeepEqual(cfg.Storage.Kafka.Brokers, []string{"kafka1:9092", "kafka2:9092"}) {
		t.Errorf("unexpected kafka config: %+v", cfg.Storage.Kafka)
	}
	if cfg.Storage.Redis == nil || cfg.Storage.Redis.TTL != 300 {
		t.Errorf("unexpected redis config: %+v", cfg.Storage.Redis)
	}

	if len(cfg.Controllers) != 1 || cfg.Controllers[0].RESTServer == nil {
		t.Fatalf("unexpected controllers: %+v", cfg.Controllers)
	}
	if cfg.Controllers[0].RESTServer.Port != 8080 {
		t.Errorf("rest port = %d, want 8080", cfg.Controllers[0].RESTServer.Port)
	}

	if !p.IsReadOnly() {
		t.Error("YAML provider should be read-only")
	}
}

func TestYAMLProviderGetSensor(t *testing.T) {
	p := NewYAMLProvider(writeYAML(t, testYAML))

	s, err := p.GetSensor("garage")
	if err != nil {
		t.Fatalf("GetSensor() error = %v", err)
	}
	if s.LocalIP != "192.168.1.50" {
		t.Errorf("LocalIP = %q, want 192.168.1.50", s.LocalIP)
	}

	if _, err := p.GetSensor("attic"); err == nil {
		t.Error("expected an error for an unknown sensor")
	}
}

func TestYAMLProviderMissingFile(t *testing.T) {
	p := NewYAMLProvider(filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := p.LoadConfig(); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestSensorValidate(t *testing.T) {
	tests := []struct {
		name    string
		sensor  SensorData
		wantErr bool
	}{
		{"remote", SensorData{Name: "a", SensorID: "1"}, false},
		{"local", SensorData{Name: "a", LocalIP: "10.0.0.2"}, false},
		{"no name", SensorData{SensorID: "1"}, true},
		{"no address", SensorData{Name: "a"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.sensor.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSQLiteProviderRoundTrip(t *testing.T) {
	p, err := NewSQLiteProvider(filepath.Join(t.TempDir(), "config.db"))
	if err != nil {
		t.Fatalf("NewSQLiteProvider() error = %v", err)
	}
	defer p.Close()

	want := &ConfigData{
		Sensors: []SensorData{
			{
				Name:               "backyard",
				Enabled:            true,
				SensorID:           "12345",
				Calibration:        "LRAPA",
				StatsKey:           "v2",
				PollInterval:       120,
				Timeout:            5,
				IncludePM10:        true,
				TemperatureOffsetF: -4.5,
				HumidityOffset:     3,
			},
			{Name: "garage", LocalIP: "192.168.1.50", VerboseLogging: true},
		},
		Storage: StorageData{
			TimescaleDB: &TimescaleDBData{ConnectionString: "postgres://localhost/aq"},
			MQTT:        &MQTTData{Broker: "tcp://localhost:1883", TopicPrefix: "purpleaqi", QoS: 1},
			Kafka:       &KafkaData{Brokers: []string{"k1:9092", "k2:9092"}, Topic: "aq"},
			Redis:       &RedisData{Addr: "localhost:6379", DB: 2, KeyPrefix: "aq", TTL: 60},
		},
		Controllers: []ControllerData{
			{Type: "rest", RESTServer: &RESTServerData{Port: 8080, ListenAddr: "0.0.0.0"}},
		},
	}

	if err := p.SaveConfig(want); err != nil {
		t.Fatalf("SaveConfig() error = %v", err)
	}
	// Saving twice replaces rather than duplicates
	if err := p.SaveConfig(want); err != nil {
		t.Fatalf("second SaveConfig() error = %v", err)
	}

	got, err := p.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if !reflect.DeepEqual(got.Sensors, want.Sensors) {
		t.Errorf("sensors = %+v, want %+v", got.Sensors, want.Sensors)
	}
	if !reflect.DeepEqual(got.Storage, want.Storage) {
		t.Errorf("storage = %+v, want %+v", got.Storage, want.Storage)
	}
	if !reflect.DeepEqual(got.Controllers, want.Controllers) {
		t.Errorf("controllers = %+v, want %+v", got.Controllers, want.Controllers)
	}

	s, err := p.GetSensor("garage")
	if err != nil {
		t.Fatalf("GetSensor() error = %v", err)
	}
	if s.Enabled {
		t.Error("garage sensor should be disabled")
	}
	if _, err := p.GetSensor("attic"); err == nil {
		t.Error("expected an error for an unknown sensor")
	}

	if p.IsReadOnly() {
		t.Error("SQLite provider should be writable")
	}
}

func TestSQLiteProviderEmpty(t *testing.T) {
	p, err := NewSQLiteProvider(filepath.Join(t.TempDir(), "empty.db"))
	if err != nil {
		t.Fatalf("NewSQLiteProvider() error = %v", err)
	}
	defer p.Close()

	cfg, err := p.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if len(cfg.Sensors) != 0 || len(cfg.Controllers) != 0 {
		t.Errorf("expected empty config, got %+v", cfg)
	}
}
