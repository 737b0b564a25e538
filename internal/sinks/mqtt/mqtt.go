// Package mqtt publishes sensor state to an MQTT broker.
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/chrissnell/purpleaqi/internal/log"
	"github.com/chrissnell/purpleaqi/internal/types"
	"github.com/chrissnell/purpleaqi/pkg/config"
)

const (
	defaultTopicPrefix = "purpleaqi"
	defaultClientID    = "purpleaqi"
	publishTimeout     = 10 * time.Second
)

// publisher is the subset of the paho client used by the sink
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

// Sink publishes the latest snapshot of each sensor as a retained message
// on <prefix>/<sensor>/state and the fault flag on <prefix>/<sensor>/fault
type Sink struct {
	client publisher
	prefix string
	qos    byte
}

// New connects to the broker described by c
func New(c *config.MQTTData) (*Sink, error) {
	if c.Broker == "" {
		return nil, fmt.Errorf("MQTT broker is required")
	}
	if c.QoS < 0 || c.QoS > 2 {
		return nil, fmt.Errorf("invalid MQTT QoS %d", c.QoS)
	}

	clientID := c.ClientID
	if clientID == "" {
		clientID = defaultClientID
	}

	opts := paho.NewClientOptions().
		AddBroker(c.Broker).
		SetClientID(clientID).
		SetUsername(c.Username).
		SetPassword(c.Password).
		SetAutoReconnect(true).
		SetConnectTimeout(publishTimeout).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Warnf("MQTT connection lost: %v", err)
		})

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(publishTimeout) {
		return nil, fmt.Errorf("timed out connecting to MQTT broker %s", c.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("could not connect to MQTT broker %s: %w", c.Broker, err)
	}

	log.Infof("connected to MQTT broker %s", c.Broker)
	return newSink(client, c.TopicPrefix, byte(c.QoS)), nil
}

func newSink(client publisher, prefix string, qos byte) *Sink {
	if prefix == "" {
		prefix = defaultTopicPrefix
	}
	return &Sink{client: client, prefix: prefix, qos: qos}
}

// StartSink creates a goroutine loop to receive updates and publish them
func (m *Sink) StartSink(ctx context.Context, wg *sync.WaitGroup) chan<- types.Update {
	log.Info("starting MQTT sink...")
	updates := make(chan types.Update, 10)
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case u := <-updates:
				if err := m.Publish(u); err != nil {
					log.Errorf("could not publish update for %s to MQTT: %v", u.SensorName, err)
				}
			case <-ctx.Done():
				log.Info("cancellation request received. Cancelling MQTT sink.")
				return
			}
		}
	}()
	return updates
}

// Publish sends the fault flag and, when present, the snapshot
func (m *Sink) Publish(u types.Update) error {
	if err := m.send(m.topic(u.SensorName, "fault"), true, strconv.FormatBool(u.Fault)); err != nil {
		return err
	}

	if u.Snapshot == nil {
		return nil
	}

	payload, err := json.Marshal(u.Snapshot)
	if err != nil {
		return fmt.Errorf("could not encode snapshot: %w", err)
	}
	return m.send(m.topic(u.SensorName, "state"), true, payload)
}

func (m *Sink) topic(sensor, leaf string) string {
	return fmt.Sprintf("%s/%s/%s", m.prefix, sensor, leaf)
}

func (m *Sink) send(topic string, retained bool, payload interface{}) error {
	token := m.client.Publish(topic, m.qos, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("timed out publishing to %s", topic)
	}
	return token.Error()
}
