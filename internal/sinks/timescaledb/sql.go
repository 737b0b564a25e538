package timescaledb

const createTableSQL = `
CREATE TABLE IF NOT EXISTS air_quality (
    time timestamp WITH TIME ZONE NOT NULL,
    sensorname text NOT NULL,
    pollid text NULL,
    pm25 float4 NOT NULL,
    pm10 float4 NULL,
    aqi int NOT NULL,
    category int NOT NULL,
    categoryname text NULL,
    tempc float4 NULL,
    humidity float4 NULL,
    lastmodified bigint NOT NULL,
    channels int NOT NULL,
    detail jsonb NOT NULL DEFAULT '{}'
);`

const createExtensionSQL = `CREATE EXTENSION IF NOT EXISTS timescaledb;`

const createHypertableSQL = `SELECT create_hypertable('air_quality', 'time', if_not_exists => true);`

const createIndexSQL = `CREATE INDEX IF NOT EXISTS air_quality_sensorname_time_idx ON air_quality (sensorname, time DESC);`
