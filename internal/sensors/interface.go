// Package sensors defines the contract shared by air quality sensor drivers.
package sensors

// Sensor is an interface that provides standard methods for the sensor
// drivers managed by the SensorManager
type Sensor interface {
	StartSensor() error
	StopSensor() error
	SensorName() string
	Info() DeviceInfo
}

// DeviceInfo describes the hardware behind a sensor
type DeviceInfo struct {
	Name         string `json:"name"`
	Manufacturer string `json:"manufacturer"`
	Model        string `json:"model"`
	SerialNumber string `json:"serial_number"`
	URL          string `json:"url"`
}
