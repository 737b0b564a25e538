// Package redis keeps the latest snapshot and fault flag of each sensor
// in Redis.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/chrissnell/purpleaqi/internal/log"
	"github.com/chrissnell/purpleaqi/internal/types"
	"github.com/chrissnell/purpleaqi/pkg/config"
)

const (
	defaultKeyPrefix    = "purpleaqi"
	defaultDialTimeout  = 5 * time.Second
	defaultReadTimeout  = 3 * time.Second
	defaultWriteTimeout = 3 * time.Second
)

type setter interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// Sink writes <prefix>:<sensor>:latest and <prefix>:<sensor>:fault
type Sink struct {
	client setter
	prefix string
	ttl    time.Duration
}

// New returns a sink backed by a go-redis client, validating the
// connection with PING
func New(ctx context.Context, c *config.RedisData) (*Sink, error) {
	addr := strings.TrimSpace(c.Addr)
	if addr == "" {
		return nil, errors.New("redis: addr is empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     c.Password,
		DB:           c.DB,
		DialTimeout:  defaultDialTimeout,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, defaultDialTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", addr, err)
	}

	log.Infof("connected to Redis at %s", addr)
	return newSink(client, c.KeyPrefix, time.Duration(c.TTL)*time.Second), nil
}

func newSink(client setter, prefix string, ttl time.Duration) *Sink {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &Sink{client: client, prefix: prefix, ttl: ttl}
}

// StartSink creates a goroutine loop to receive updates and store them
func (r *Sink) StartSink(ctx context.Context, wg *sync.WaitGroup) chan<- types.Update {
	log.Info("starting Redis sink...")
	updates := make(chan types.Update, 10)
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case u := <-updates:
				if err := r.Store(ctx, u); err != nil {
					log.Errorf("could not store update for %s in Redis: %v", u.SensorName, err)
				}
			case <-ctx.Done():
				log.Info("cancellation request received. Cancelling Redis sink.")
				return
			}
		}
	}()
	return updates
}

// Store writes the fault flag and, when present, the snapshot
func (r *Sink) Store(ctx context.Context, u types.Update) error {
	if err := r.client.Set(ctx, r.key(u.SensorName, "fault"), strconv.FormatBool(u.Fault), r.ttl).Err(); err != nil {
		return err
	}

	if u.Snapshot == nil {
		return nil
	}

	payload, err := json.Marshal(u.Snapshot)
	if err != nil {
		return fmt.Errorf("could not encode snapshot: %w", err)
	}
	return r.client.Set(ctx, r.key(u.SensorName, "latest"), payload, r.ttl).Err()
}

func (r *Sink) key(sensor, leaf string) string {
	return r.prefix + ":" + sensor + ":" + leaf
}
