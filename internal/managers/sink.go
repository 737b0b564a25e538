package managers

import (
	"context"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/chrissnell/purpleaqi/internal/log"
	"github.com/chrissnell/purpleaqi/internal/sinks"
	"github.com/chrissnell/purpleaqi/internal/sinks/kafka"
	"github.com/chrissnell/purpleaqi/internal/sinks/memory"
	"github.com/chrissnell/purpleaqi/internal/sinks/mqtt"
	promsink "github.com/chrissnell/purpleaqi/internal/sinks/prometheus"
	"github.com/chrissnell/purpleaqi/internal/sinks/redis"
	"github.com/chrissnell/purpleaqi/internal/sinks/timescaledb"
	"github.com/chrissnell/purpleaqi/internal/types"
	"github.com/chrissnell/purpleaqi/pkg/config"
)

// SinkManager holds our active metric sinks
type SinkManager struct {
	Sinks              []SinkEngine
	UpdateDistributor  chan types.Update
	Memory             *memory.Store
	distributorStarted bool
}

// SinkEngine holds a sink's interface as well as a channel for passing
// updates to it
type SinkEngine struct {
	Name string
	Sink sinks.Sink
	C    chan<- types.Update
}

// NewSinkManager creates a SinkManager with the in-memory and Prometheus
// sinks plus every optional sink found in the storage configuration
func NewSinkManager(ctx context.Context, wg *sync.WaitGroup, storage *config.StorageData, reg prometheus.Registerer) (*SinkManager, error) {
	s := newSinkManager()

	s.AddSink(ctx, wg, "memory", s.Memory)

	ps, err := promsink.New(reg)
	if err != nil {
		return nil, fmt.Errorf("could not register Prometheus metrics: %w", err)
	}
	s.AddSink(ctx, wg, "prometheus", ps)

	if storage != nil {
		if storage.TimescaleDB != nil && storage.TimescaleDB.ConnectionString != "" {
			t, err := timescaledb.New(ctx, storage.TimescaleDB.ConnectionString)
			if err != nil {
				return nil, fmt.Errorf("could not add TimescaleDB sink: %w", err)
			}
			s.AddSink(ctx, wg, "timescaledb", t)
		}

		if storage.MQTT != nil {
			m, err := mqtt.New(storage.MQTT)
			if err != nil {
				return nil, fmt.Errorf("could not add MQTT sink: %w", err)
			}
			s.AddSink(ctx, wg, "mqtt", m)
		}

		if storage.Kafka != nil {
			k, err := kafka.New(storage.Kafka)
			if err != nil {
				return nil, fmt.Errorf("could not add Kafka sink: %w", err)
			}
			s.AddSink(ctx, wg, "kafka", k)
		}

		if storage.Redis != nil {
			r, err := redis.New(ctx, storage.Redis)
			if err != nil {
				return nil, fmt.Errorf("could not add Redis sink: %w", err)
			}
			s.AddSink(ctx, wg, "redis", r)
		}
	}

	s.Start(ctx, wg)
	return s, nil
}

func newSinkManager() *SinkManager {
	return &SinkManager{
		UpdateDistributor: make(chan types.Update, 20),
		Memory:            memory.New(),
	}
}

// AddSink starts a sink and adds it to the fan-out list. Sinks must be
// added before Start.
func (s *SinkManager) AddSink(ctx context.Context, wg *sync.WaitGroup, name string, sink sinks.Sink) {
	log.Infof("adding %s sink", name)
	s.Sinks = append(s.Sinks, SinkEngine{
		Name: name,
		Sink: sink,
		C:    sink.StartSink(ctx, wg),
	})
}

// Start launches the distributor that fans updates out to the sinks
func (s *SinkManager) Start(ctx context.Context, wg *sync.WaitGroup) {
	if s.distributorStarted {
		return
	}
	s.distributorStarted = true

	wg.Add(1)
	go s.startUpdateDistributor(ctx, wg)
}

// startUpdateDistributor receives updates from the sensors and fans them
// out to every sink
func (s *SinkManager) startUpdateDistributor(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	for {
		select {
		case u := <-s.UpdateDistributor:
			for _, e := range s.Sinks {
				select {
				case e.C <- u:
				case <-ctx.Done():
					return
				}
			}
		case <-ctx.Done():
			return
		}
	}
}
