package config

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS configs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE,
	created_at TEXT NOT NULL DEFAULT (datetime('now')),
	updated_at TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS sensors (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	config_id INTEGER NOT NULL REFERENCES configs(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	enabled INTEGER NOT NULL DEFAULT 1,
	sensor_id TEXT,
	local_ip TEXT,
	endpoint TEXT,
	calibration TEXT,
	stats_key TEXT,
	poll_interval INTEGER,
	timeout INTEGER,
	include_pm10 INTEGER NOT NULL DEFAULT 0,
	temperature_offset_f REAL,
	humidity_offset REAL,
	verbose_logging INTEGER NOT NULL DEFAULT 0,
	UNIQUE (config_id, name)
);

CREATE TABLE IF NOT EXISTS storage_configs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	config_id INTEGER NOT NULL REFERENCES configs(id) ON DELETE CASCADE,
	backend_type TEXT NOT NULL,
	enabled INTEGER NOT NULL DEFAULT 1,
	timescale_connection_string TEXT,
	mqtt_broker TEXT,
	mqtt_client_id TEXT,
	mqtt_username TEXT,
	mqtt_password TEXT,
	mqtt_topic_prefix TEXT,
	mqtt_qos INTEGER,
	kafka_brokers TEXT,
	kafka_topic TEXT,
	redis_addr TEXT,
	redis_password TEXT,
	redis_db INTEGER,
	redis_key_prefix TEXT,
	redis_ttl INTEGER
);

CREATE TABLE IF NOT EXISTS controller_configs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	config_id INTEGER NOT NULL REFERENCES configs(id) ON DELETE CASCADE,
	controller_type TEXT NOT NULL,
	enabled INTEGER NOT NULL DEFAULT 1,
	rest_cert TEXT,
	rest_key TEXT,
	rest_port INTEGER,
	rest_listen_addr TEXT
);
`

// SQLiteProvider implements ConfigProvider for SQLite database configuration
type SQLiteProvider struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteProvider creates a new SQLite configuration provider, creating
// the schema if the database is new
func NewSQLiteProvider(dbPath string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize SQLite schema: %w", err)
	}

	return &SQLiteProvider{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// LoadConfig loads the complete configuration from SQLite database
func (s *SQLiteProvider) LoadConfig() (*ConfigData, error) {
	config := &ConfigData{}

	sensors, err := s.GetSensors()
	if err != nil {
		return nil, fmt.Errorf("failed to load sensors: %w", err)
	}
	config.Sensors = sensors

	storage, err := s.GetStorageConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load storage config: %w", err)
	}
	config.Storage = *storage

	controllers, err := s.GetControllers()
	if err != nil {
		return nil, fmt.Errorf("failed to load controllers: %w", err)
	}
	config.Controllers = controllers

	return config, nil
}

const sensorColumns = `
	name, enabled, sensor_id, local_ip, endpoint, calibration, stats_key,
	poll_interval, timeout, include_pm10, temperature_offset_f, humidity_offset,
	verbose_logging`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSensor(row rowScanner) (SensorData, error) {
	var sensor SensorData
	var sensorID, localIP, endpoint, calibration, statsKey sql.NullString
	var pollInterval, timeout sql.NullInt64
	var tempOffset, humidityOffset sql.NullFloat64

	err := row.Scan(
		&sensor.Name, &sensor.Enabled, &sensorID, &localIP, &endpoint,
		&calibration, &statsKey, &pollInterval, &timeout, &sensor.IncludePM10,
		&tempOffset, &humidityOffset, &sensor.VerboseLogging,
	)
	if err != nil {
		return sensor, err
	}

	// NULL columns are left at their zero values
	sensor.SensorID = sensorID.String
	sensor.LocalIP = localIP.String
	sensor.Endpoint = endpoint.String
	sensor.Calibration = calibration.String
	sensor.StatsKey = statsKey.String
	sensor.PollInterval = int(pollInterval.Int64)
	sensor.Timeout = int(timeout.Int64)
	sensor.TemperatureOffsetF = tempOffset.Float64
	sensor.HumidityOffset = humidityOffset.Float64

	return sensor, nil
}

// GetSensors returns sensor configurations from the database
func (s *SQLiteProvider) GetSensors() ([]SensorData, error) {
	query := `SELECT ` + sensorColumns + `
		FROM sensors
		WHERE config_id = (SELECT id FROM configs WHERE name = 'default')
		ORDER BY name`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query sensors: %w", err)
	}
	defer rows.Close()

	var sensors []SensorData
	for rows.Next() {
		sensor, err := scanSensor(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sensor row: %w", err)
		}
		sensors = append(sensors, sensor)
	}

	return sensors, rows.Err()
}

// GetSensor returns a single sensor configuration
func (s *SQLiteProvider) GetSensor(name string) (*SensorData, error) {
	query := `SELECT ` + sensorColumns + `
		FROM sensors
		WHERE config_id = (SELECT id FROM configs WHERE name = 'default') AND name = ?`

	sensor, err := scanSensor(s.db.QueryRow(query, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sensor [%s] not found in configuration", name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query sensor %s: %w", name, err)
	}
	return &sensor, nil
}

// GetStorageConfig returns storage configuration from the database
func (s *SQLiteProvider) GetStorageConfig() (*StorageData, error) {
	query := `
		SELECT backend_type,
		       timescale_connection_string,
		       mqtt_broker, mqtt_client_id, mqtt_username, mqtt_password, mqtt_topic_prefix, mqtt_qos,
		       kafka_brokers, kafka_topic,
		       redis_addr, redis_password, redis_db, redis_key_prefix, redis_ttl
		FROM storage_configs
		WHERE config_id = (SELECT id FROM configs WHERE name = 'default') AND enabled = 1
	`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query storage configs: %w", err)
	}
	defer rows.Close()

	storage := &StorageData{}

	for rows.Next() {
		var backendType string
		var timescaleConnectionString sql.NullString
		var mqttBroker, mqttClientID, mqttUsername, mqttPassword, mqttTopicPrefix sql.NullString
		var mqttQoS sql.NullInt64
		var kafkaBrokers, kafkaTopic sql.NullString
		var redisAddr, redisPassword, redisKeyPrefix sql.NullString
		var redisDB, redisTTL sql.NullInt64

		err := rows.Scan(
			&backendType,
			&timescaleConnectionString,
			&mqttBroker, &mqttClientID, &mqttUsername, &mqttPassword, &mqttTopicPrefix, &mqttQoS,
			&kafkaBrokers, &kafkaTopic,
			&redisAddr, &redisPassword, &redisDB, &redisKeyPrefix, &redisTTL,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan storage config row: %w", err)
		}

		switch backendType {
		case "timescaledb":
			if timescaleConnectionString.Valid {
				storage.TimescaleDB = &TimescaleDBData{
					ConnectionString: timescaleConnectionString.String,
				}
			}
		case "mqtt":
			if mqttBroker.Valid {
				storage.MQTT = &MQTTData{
					Broker:      mqttBroker.String,
					ClientID:    mqttClientID.String,
					Username:    mqttUsername.String,
					Password:    mqttPassword.String,
					TopicPrefix: mqttTopicPrefix.String,
					QoS:         int(mqttQoS.Int64),
				}
			}
		case "kafka":
			if kafkaBrokers.Valid {
				storage.Kafka = &KafkaData{
					Brokers: splitList(kafkaBrokers.String),
					Topic:   kafkaTopic.String,
				}
			}
		case "redis":
			if redisAddr.Valid {
				storage.Redis = &RedisData{
					Addr:      redisAddr.String,
					Password:  redisPassword.String,
					DB:        int(redisDB.Int64),
					KeyPrefix: redisKeyPrefix.String,
					TTL:       int(redisTTL.Int64),
				}
			}
		}
	}

	return storage, rows.Err()
}

// GetControllers returns controller configurations from the database
func (s *SQLiteProvider) GetControllers() ([]ControllerData, error) {
	query := `
		SELECT controller_type, rest_cert, rest_key, rest_port, rest_listen_addr
		FROM controller_configs
		WHERE config_id = (SELECT id FROM configs WHERE name = 'default') AND enabled = 1
		ORDER BY id
	`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query controller configs: %w", err)
	}
	defer rows.Close()

	var controllers []ControllerData
	for rows.Next() {
		var controller ControllerData
		var cert, key, listenAddr sql.NullString
		var port sql.NullInt64

		if err := rows.Scan(&controller.Type, &cert, &key, &port, &listenAddr); err != nil {
			return nil, fmt.Errorf("failed to scan controller config row: %w", err)
		}

		if controller.Type == "rest" {
			controller.RESTServer = &RESTServerData{
				Cert:       cert.String,
				Key:        key.String,
				Port:       int(port.Int64),
				ListenAddr: listenAddr.String,
			}
		}
		controllers = append(controllers, controller)
	}

	return controllers, rows.Err()
}

// IsReadOnly returns false since SQLite supports writes
func (s *SQLiteProvider) IsReadOnly() bool {
	return false
}

// Close closes the database connection
func (s *SQLiteProvider) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveConfig replaces the stored configuration with configData
func (s *SQLiteProvider) SaveConfig(configData *ConfigData) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	configID, err := s.getOrCreateConfigID(tx)
	if err != nil {
		return fmt.Errorf("failed to insert config: %w", err)
	}

	for _, query := range []string{
		"DELETE FROM sensors WHERE config_id = ?",
		"DELETE FROM storage_configs WHERE config_id = ?",
		"DELETE FROM controller_configs WHERE config_id = ?",
	} {
		if _, err := tx.Exec(query, configID); err != nil {
			return fmt.Errorf("failed to clear existing config: %w", err)
		}
	}

	for _, sensor := range configData.Sensors {
		if err := insertSensor(tx, configID, &sensor); err != nil {
			return fmt.Errorf("failed to insert sensor %s: %w", sensor.Name, err)
		}
	}

	if err := insertStorageConfigs(tx, configID, &configData.Storage); err != nil {
		return fmt.Errorf("failed to insert storage configs: %w", err)
	}

	for _, controller := range configData.Controllers {
		if err := insertController(tx, configID, &controller); err != nil {
			return fmt.Errorf("failed to insert controller %s: %w", controller.Type, err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteProvider) getOrCreateConfigID(tx *sql.Tx) (int64, error) {
	_, err := tx.Exec(`INSERT INTO configs (name) VALUES ('default')
		ON CONFLICT(name) DO UPDATE SET updated_at = datetime('now')`)
	if err != nil {
		return 0, err
	}

	var id int64
	err = tx.QueryRow(`SELECT id FROM configs WHERE name = 'default'`).Scan(&id)
	return id, err
}

func insertSensor(tx *sql.Tx, configID int64, sensor *SensorData) error {
	query := `
		INSERT INTO sensors (
			config_id, name, enabled, sensor_id, local_ip, endpoint, calibration,
			stats_key, poll_interval, timeout, include_pm10, temperature_offset_f,
			humidity_offset, verbose_logging
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := tx.Exec(query,
		configID, sensor.Name, sensor.Enabled, nullString(sensor.SensorID),
		nullString(sensor.LocalIP), nullString(sensor.Endpoint), nullString(sensor.Calibration),
		nullString(sensor.StatsKey), sensor.PollInterval, sensor.Timeout, sensor.IncludePM10,
		sensor.TemperatureOffsetF, sensor.HumidityOffset, sensor.VerboseLogging,
	)
	return err
}

func insertStorageConfigs(tx *sql.Tx, configID int64, storage *StorageData) error {
	if t := storage.TimescaleDB; t != nil {
		_, err := tx.Exec(`INSERT INTO storage_configs (config_id, backend_type, timescale_connection_string)
			VALUES (?, 'timescaledb', ?)`, configID, t.ConnectionString)
		if err != nil {
			return err
		}
	}
	if m := storage.MQTT; m != nil {
		_, err := tx.Exec(`INSERT INTO storage_configs (config_id, backend_type, mqtt_broker, mqtt_client_id,
			mqtt_username, mqtt_password, mqtt_topic_prefix, mqtt_qos) VALUES (?, 'mqtt', ?, ?, ?, ?, ?, ?)`,
			configID, m.Broker, nullString(m.ClientID), nullString(m.Username), nullString(m.Password),
			nullString(m.TopicPrefix), m.QoS)
		if err != nil {
			return err
		}
	}
	if k := storage.Kafka; k != nil {
		_, err := tx.Exec(`INSERT INTO storage_configs (config_id, backend_type, kafka_brokers, kafka_topic)
			VALUES (?, 'kafka', ?, ?)`, configID, strings.Join(k.Brokers, ","), k.Topic)
		if err != nil {
			return err
		}
	}
	if r := storage.Redis; r != nil {
		_, err := tx.Exec(`INSERT INTO storage_configs (config_id, backend_type, redis_addr, redis_password,
			redis_db, redis_key_prefix, redis_ttl) VALUES (?, 'redis', ?, ?, ?, ?, ?)`,
			configID, r.Addr, nullString(r.Password), r.DB, nullString(r.KeyPrefix), r.TTL)
		if err != nil {
			return err
		}
	}
	return nil
}

func insertController(tx *sql.Tx, configID int64, controller *ControllerData) error {
	var cert, key, listenAddr sql.NullString
	var port int
	if r := controller.RESTServer; r != nil {
		cert, key, listenAddr = nullString(r.Cert), nullString(r.Key), nullString(r.ListenAddr)
		port = r.Port
	}

	_, err := tx.Exec(`INSERT INTO controller_configs (config_id, controller_type, rest_cert, rest_key,
		rest_port, rest_listen_addr) VALUES (?, ?, ?, ?, ?, ?)`,
		configID, controller.Type, cert, key, port, listenAddr)
	return err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
