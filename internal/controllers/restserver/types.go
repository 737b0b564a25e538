package restserver

import (
	"github.com/chrissnell/purpleaqi/internal/sensors"
	"github.com/chrissnell/purpleaqi/internal/sinks/memory"
)

// SensorDetail is the /latest/{sensor} response
type SensorDetail struct {
	Device sensors.DeviceInfo `json:"device"`
	State  *memory.State      `json:"state,omitempty"`
	Color  string             `json:"color,omitempty"`
}

// Health is the /healthz response. Status is "ok" unless a sensor is
// currently faulted.
type Health struct {
	Status  string   `json:"status"`
	Sensors int      `json:"sensors"`
	Faulted []string `json:"faulted,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}
