package redis

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/chrissnell/purpleaqi/internal/types"
	"github.com/chrissnell/purpleaqi/pkg/config"
)

type fakeSetter struct {
	values map[string]interface{}
	ttls   map[string]time.Duration
	err    error
}

func newFakeSetter() *fakeSetter {
	return &fakeSetter{values: map[string]interface{}{}, ttls: map[string]time.Duration{}}
}

func (f *fakeSetter) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	if f.err != nil {
		return redis.NewStatusResult("", f.err)
	}
	f.values[key] = value
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func TestStoreSnapshot(t *testing.T) {
	f := newFakeSetter()
	s := newSink(f, "aq", time.Minute)

	err := s.Store(context.Background(), types.Update{
		SensorName: "backyard",
		Snapshot:   &types.Snapshot{PM25: 15, AQI: 56},
	})
	if err != nil {
		t.Fatalf("Store() unexpected error: %v", err)
	}

	if f.values["aq:backyard:fault"] != "false" {
		t.Errorf("fault = %v, expected false", f.values["aq:backyard:fault"])
	}

	raw, ok := f.values["aq:backyard:latest"].([]byte)
	if !ok {
		t.Fatalf("latest = %T, expected []byte", f.values["aq:backyard:latest"])
	}
	var snap types.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		t.Fatalf("latest is not JSON: %v", err)
	}
	if snap.AQI != 56 {
		t.Errorf("AQI = %d, expected 56", snap.AQI)
	}
	if f.ttls["aq:backyard:latest"] != time.Minute {
		t.Errorf("ttl = %v, expected 1m", f.ttls["aq:backyard:latest"])
	}
}

func TestStoreFaultOnly(t *testing.T) {
	f := newFakeSetter()
	s := newSink(f, "", 0)

	if err := s.Store(context.Background(), types.Update{SensorName: "garage", Fault: true}); err != nil {
		t.Fatalf("Store() unexpected error: %v", err)
	}

	if f.values["purpleaqi:garage:fault"] != "true" {
		t.Errorf("fault = %v, expected true", f.values["purpleaqi:garage:fault"])
	}
	if _, ok := f.values["purpleaqi:garage:latest"]; ok {
		t.Error("a fault-only update must not overwrite the latest snapshot")
	}
}

func TestStoreError(t *testing.T) {
	f := newFakeSetter()
	f.err = errors.New("connection refused")
	s := newSink(f, "", 0)

	if err := s.Store(context.Background(), types.Update{SensorName: "a"}); err == nil {
		t.Error("expected the Redis error to be returned")
	}
}

func TestNewRequiresAddr(t *testing.T) {
	if _, err := New(context.Background(), &config.RedisData{Addr: "  "}); err == nil {
		t.Error("expected an error for an empty address")
	}
}
