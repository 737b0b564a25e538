package restserver

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/chrissnell/purpleaqi/internal/sensors"
	"github.com/chrissnell/purpleaqi/pkg/responseformat"
)

// Handlers contains all HTTP handlers for the REST server
type Handlers struct {
	controller *Controller
	formatter  *responseformat.Formatter
}

// NewHandlers creates a new handlers instance
func NewHandlers(ctrl *Controller) *Handlers {
	return &Handlers{
		controller: ctrl,
		formatter:  responseformat.NewFormatter(),
	}
}

// GetLatest returns the latest state of every sensor
func (h *Handlers) GetLatest(w http.ResponseWriter, req *http.Request) {
	h.write(w, req, h.controller.States.All())
}

// GetSensorLatest returns the latest state and device information of one
// sensor
func (h *Handlers) GetSensorLatest(w http.ResponseWriter, req *http.Request) {
	name := mux.Vars(req)["sensor"]

	device, ok := h.findDevice(name)
	if !ok {
		if err := h.formatter.WriteStatus(w, req, http.StatusNotFound, errorResponse{Error: "sensor not found"}, nil); err != nil {
			h.controller.logger.Errorf("error writing response: %v", err)
		}
		return
	}

	detail := SensorDetail{Device: device}
	if st, ok := h.controller.States.Latest(name); ok {
		detail.State = &st
		if st.Snapshot != nil {
			detail.Color = st.Snapshot.Category.Color()
		}
	}

	h.write(w, req, detail)
}

// GetHealth reports whether any sensor is faulted
func (h *Handlers) GetHealth(w http.ResponseWriter, req *http.Request) {
	health := Health{
		Status:  "ok",
		Sensors: len(h.controller.Devices.Devices()),
	}

	for _, st := range h.controller.States.All() {
		if st.Fault {
			health.Faulted = append(health.Faulted, st.Sensor)
		}
	}
	if len(health.Faulted) > 0 {
		health.Status = "degraded"
	}

	h.write(w, req, health)
}

func (h *Handlers) findDevice(name string) (sensors.DeviceInfo, bool) {
	for _, d := range h.controller.Devices.Devices() {
		if d.Name == name {
			return d, true
		}
	}
	return sensors.DeviceInfo{}, false
}

func (h *Handlers) write(w http.ResponseWriter, req *http.Request, data any) {
	if err := h.formatter.WriteResponse(w, req, data, nil); err != nil {
		h.controller.logger.Errorf("error writing response: %v", err)
	}
}
