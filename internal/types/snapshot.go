package types

import (
	"time"

	"github.com/chrissnell/purpleaqi/pkg/aqi"
)

// Snapshot is the set of metrics derived from one accepted sensor reading
type Snapshot struct {
	PM25         float64      `json:"pm25"`
	PM10         *float64     `json:"pm10,omitempty"`
	AQI          int          `json:"aqi"`
	Category     aqi.Category `json:"category"`
	CategoryName string       `json:"category_name"`
	TempC        *float64     `json:"temp_c,omitempty"`
	Humidity     *float64     `json:"humidity,omitempty"`
	Fault        bool         `json:"fault"`
	LastModified int64        `json:"last_modified"` // sensor-reported timestamp of the reading
	Channels     int          `json:"channels"`      // number of channels fused into PM2.5
}

// Update is what a sensor publishes to the metric sinks after each poll.
// Fault is set on every update; Snapshot is only set when a new reading
// was accepted.
type Update struct {
	PollID     string    `json:"poll_id"`
	Timestamp  time.Time `json:"timestamp"`
	SensorName string    `json:"sensor"`
	Outcome    string    `json:"outcome"`
	Fault      bool      `json:"fault"`
	Snapshot   *Snapshot `json:"snapshot,omitempty"`
}
