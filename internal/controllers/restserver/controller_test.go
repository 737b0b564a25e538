package restserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/chrissnell/purpleaqi/internal/sensors"
	"github.com/chrissnell/purpleaqi/internal/sinks/memory"
	"github.com/chrissnell/purpleaqi/internal/types"
	"github.com/chrissnell/purpleaqi/pkg/aqi"
	"github.com/chrissnell/purpleaqi/pkg/config"
)

type staticDevices []sensors.DeviceInfo

func (d staticDevices) Devices() []sensors.DeviceInfo { return d }

func newTestController(t *testing.T) (*Controller, *memory.Store) {
	t.Helper()

	store := memory.New()
	store.Apply(types.Update{
		SensorName: "backyard",
		Outcome:    "accepted",
		Snapshot:   &types.Snapshot{PM25: 15, AQI: 56, Category: aqi.Good, CategoryName: "Good"},
	})
	store.Apply(types.Update{SensorName: "garage", Outcome: "transport_error", Fault: true})

	devices := staticDevices{
		{Name: "backyard", Manufacturer: "PurpleAir", Model: "JSON_API", SerialNumber: "1234"},
		{Name: "garage", Manufacturer: "PurpleAir", Model: "JSON_API", SerialNumber: "192.168.1.50"},
		{Name: "attic", Manufacturer: "PurpleAir", Model: "JSON_API", SerialNumber: "5678"},
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGauge(prometheus.GaugeOpts{Name: "purpleaqi_test_gauge", Help: "test"}))

	ctrl, err := NewController(context.Background(), &sync.WaitGroup{}, config.RESTServerData{}, store, devices, reg, zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("NewController() unexpected error: %v", err)
	}
	return ctrl, store
}

func get(t *testing.T, ctrl *Controller, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	ctrl.Server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestDefaults(t *testing.T) {
	ctrl, _ := newTestController(t)
	if ctrl.Server.Addr != "0.0.0.0:8080" {
		t.Errorf("Addr = %q, expected 0.0.0.0:8080", ctrl.Server.Addr)
	}
}

func TestGetLatest(t *testing.T) {
	ctrl, _ := newTestController(t)

	rec := get(t, ctrl, "/latest")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, expected 200", rec.Code)
	}

	var states []memory.State
	if err := json.Unmarshal(rec.Body.Bytes(), &states); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if len(states) != 2 || states[0].Sensor != "backyard" || states[1].Sensor != "garage" {
		t.Fatalf("states = %+v", states)
	}
	if states[0].Snapshot == nil || states[0].Snapshot.AQI != 56 {
		t.Errorf("backyard snapshot = %+v", states[0].Snapshot)
	}
	if !states[1].Fault {
		t.Error("garage should be faulted")
	}
}

func TestGetSensorLatest(t *testing.T) {
	ctrl, _ := newTestController(t)

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantState  bool
		wantColor  string
	}{
		{"with reading", "/latest/backyard", http.StatusOK, true, "#ffff00"},
		{"fault only", "/latest/garage", http.StatusOK, true, ""},
		{"no reading yet", "/latest/attic", http.StatusOK, false, ""},
		{"unknown", "/latest/shed", http.StatusNotFound, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, ctrl, tt.path)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, expected %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}

			var detail SensorDetail
			if err := json.Unmarshal(rec.Body.Bytes(), &detail); err != nil {
				t.Fatalf("body is not JSON: %v", err)
			}
			if detail.Device.Manufacturer != "PurpleAir" || detail.Device.Model != "JSON_API" {
				t.Errorf("device = %+v", detail.Device)
			}
			if (detail.State != nil) != tt.wantState {
				t.Errorf("state = %+v, expected present: %v", detail.State, tt.wantState)
			}
			if detail.Color != tt.wantColor {
				t.Errorf("color = %q, expected %q", detail.Color, tt.wantColor)
			}
		})
	}
}

func TestGetHealth(t *testing.T) {
	ctrl, store := newTestController(t)

	var h Health
	rec := get(t, ctrl, "/healthz")
	if err := json.Unmarshal(rec.Body.Bytes(), &h); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if h.Status != "degraded" || h.Sensors != 3 || len(h.Faulted) != 1 || h.Faulted[0] != "garage" {
		t.Errorf("health = %+v", h)
	}

	store.Apply(types.Update{SensorName: "garage", Outcome: "stale"})

	h = Health{}
	rec = get(t, ctrl, "/healthz")
	if err := json.Unmarshal(rec.Body.Bytes(), &h); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if h.Status != "ok" || len(h.Faulted) != 0 {
		t.Errorf("health = %+v, expected ok", h)
	}
}

func TestMetrics(t *testing.T) {
	ctrl, _ := newTestController(t)

	rec := get(t, ctrl, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, expected 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "purpleaqi_test_gauge") {
		t.Errorf("metrics output is missing the registered gauge:\n%s", rec.Body.String())
	}
}

func TestNewControllerRequiresDependencies(t *testing.T) {
	_, err := NewController(context.Background(), &sync.WaitGroup{}, config.RESTServerData{}, nil, staticDevices{}, nil, zap.NewNop().Sugar())
	if err == nil {
		t.Error("expected an error without a state reader")
	}
}
