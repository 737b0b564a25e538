// Package timescaledb stores accepted air quality snapshots in a
// TimescaleDB hypertable.
package timescaledb

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/jackc/pgtype"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/chrissnell/purpleaqi/internal/log"
	"github.com/chrissnell/purpleaqi/internal/types"
)

// Record is one row of the air_quality table
type Record struct {
	Time         time.Time    `gorm:"column:time"`
	SensorName   string       `gorm:"column:sensorname"`
	PollID       string       `gorm:"column:pollid"`
	PM25         float64      `gorm:"column:pm25"`
	PM10         *float64     `gorm:"column:pm10"`
	AQI          int          `gorm:"column:aqi"`
	Category     int          `gorm:"column:category"`
	CategoryName string       `gorm:"column:categoryname"`
	TempC        *float64     `gorm:"column:tempc"`
	Humidity     *float64     `gorm:"column:humidity"`
	LastModified int64        `gorm:"column:lastmodified"`
	Channels     int          `gorm:"column:channels"`
	Detail       pgtype.JSONB `gorm:"column:detail;type:jsonb;not null"`
}

// TableName implements the gorm Tabler interface
func (Record) TableName() string {
	return "air_quality"
}

// Storage holds the connection for a TimescaleDB sink
type Storage struct {
	TimescaleDBConn *gorm.DB
}

// New connects to TimescaleDB and creates the hypertable if needed
func New(ctx context.Context, connectionString string) (*Storage, error) {
	dbLogger := logger.New(
		zap.NewStdLog(log.GetZapLogger()),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)

	log.Info("connecting to TimescaleDB...")
	conn, err := gorm.Open(postgres.Open(connectionString), &gorm.Config{Logger: dbLogger})
	if err != nil {
		log.Warn("warning: unable to create a TimescaleDB connection:", err)
		return nil, err
	}

	t := &Storage{TimescaleDBConn: conn}

	steps := []struct {
		desc string
		sql  string
	}{
		{"creating database table", createTableSQL},
		{"creating TimescaleDB extension", createExtensionSQL},
		{"creating hypertable", createHypertableSQL},
		{"creating sensor index", createIndexSQL},
	}
	for _, step := range steps {
		log.Infof("%s...", step.desc)
		if err := t.TimescaleDBConn.WithContext(ctx).Exec(step.sql).Error; err != nil {
			log.Warnf("warning: failed %s: %v", step.desc, err)
			return nil, err
		}
	}

	log.Info("TimescaleDB sink ready")
	return t, nil
}

// StartSink creates a goroutine loop to receive updates and send the
// accepted snapshots off to TimescaleDB
func (t *Storage) StartSink(ctx context.Context, wg *sync.WaitGroup) chan<- types.Update {
	log.Info("starting TimescaleDB sink...")
	updates := make(chan types.Update, 10)
	wg.Add(1)
	go t.processUpdates(ctx, wg, updates)
	return updates
}

func (t *Storage) processUpdates(ctx context.Context, wg *sync.WaitGroup, updates <-chan types.Update) {
	defer wg.Done()

	for {
		select {
		case u := <-updates:
			rec, ok, err := newRecord(u)
			if err != nil {
				log.Errorf("could not encode snapshot for %s: %v", u.SensorName, err)
				continue
			}
			if !ok {
				continue
			}
			if err := t.TimescaleDBConn.WithContext(ctx).Create(rec).Error; err != nil {
				log.Errorf("could not store snapshot for %s: %v", u.SensorName, err)
			}
		case <-ctx.Done():
			log.Info("cancellation request received. Cancelling TimescaleDB sink.")
			return
		}
	}
}

// newRecord converts an update to a row. Updates without a snapshot have
// nothing to store.
func newRecord(u types.Update) (*Record, bool, error) {
	snap := u.Snapshot
	if snap == nil {
		return nil, false, nil
	}

	detail, err := json.Marshal(u)
	if err != nil {
		return nil, false, err
	}

	rec := &Record{
		Time:         u.Timestamp,
		SensorName:   u.SensorName,
		PollID:       u.PollID,
		PM25:         snap.PM25,
		PM10:         snap.PM10,
		AQI:          snap.AQI,
		Category:     int(snap.Category),
		CategoryName: snap.CategoryName,
		TempC:        snap.TempC,
		Humidity:     snap.Humidity,
		LastModified: snap.LastModified,
		Channels:     snap.Channels,
	}
	if err := rec.Detail.Set(detail); err != nil {
		return nil, false, err
	}

	return rec, true, nil
}
