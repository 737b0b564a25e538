// Package kafka publishes every sensor update to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/chrissnell/purpleaqi/internal/log"
	"github.com/chrissnell/purpleaqi/internal/types"
	"github.com/chrissnell/purpleaqi/pkg/config"
)

const writeTimeout = 10 * time.Second

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Sink writes JSON-encoded updates keyed by sensor name, so that all
// updates of one sensor land on the same partition in order
type Sink struct {
	writer messageWriter
}

// New creates a Kafka writer for the configured brokers and topic
func New(c *config.KafkaData) (*Sink, error) {
	if len(c.Brokers) == 0 {
		return nil, errors.New("kafka: at least one broker is required")
	}
	if c.Topic == "" {
		return nil, errors.New("kafka: topic is required")
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(c.Brokers...),
		Topic:        c.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		WriteTimeout: writeTimeout,
	}

	log.Infof("Kafka sink writing to topic %s on %v", c.Topic, c.Brokers)
	return &Sink{writer: w}, nil
}

// StartSink creates a goroutine loop to receive updates and write them
func (k *Sink) StartSink(ctx context.Context, wg *sync.WaitGroup) chan<- types.Update {
	log.Info("starting Kafka sink...")
	updates := make(chan types.Update, 10)
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer k.writer.Close()
		for {
			select {
			case u := <-updates:
				if err := k.Write(ctx, u); err != nil {
					log.Errorf("could not write update for %s to Kafka: %v", u.SensorName, err)
				}
			case <-ctx.Done():
				log.Info("cancellation request received. Cancelling Kafka sink.")
				return
			}
		}
	}()
	return updates
}

// Write sends one update
func (k *Sink) Write(ctx context.Context, u types.Update) error {
	msg, err := newMessage(u)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return k.writer.WriteMessages(ctx, msg)
}

func newMessage(u types.Update) (kafka.Message, error) {
	value, err := json.Marshal(u)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("could not encode update: %w", err)
	}

	return kafka.Message{
		Key:   []byte(u.SensorName),
		Value: value,
		Time:  u.Timestamp,
		Headers: []kafka.Header{
			{Key: "poll_id", Value: []byte(u.PollID)},
			{Key: "outcome", Value: []byte(u.Outcome)},
		},
	}, nil
}
