package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/yungbote/boostcart-backend/internal/platform/logger"
)

const DefaultKafkaTopic = "order-events"

// messageWriter is the part of *kafka.Writer used here.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type kafkaPublisher struct {
	log    *logger.Logger
	writer messageWriter
	topic  string
}

func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           50 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
}

// NewKafkaPublisher keys messages by order id so one order's events stay on one partition.
func NewKafkaPublisher(log *logger.Logger, brokers []string, topic string) (Publisher, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	clean := make([]string, 0, len(brokers))
	for _, b := range brokers {
		if b = strings.TrimSpace(b); b != "" {
			clean = append(clean, b)
		}
	}
	if len(clean) == 0 {
		return nil, fmt.Errorf("missing KAFKA_BROKERS")
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		topic = DefaultKafkaTopic
	}
	return newKafkaPublisher(log, NewKafkaWriter(clean, topic), topic), nil
}

func newKafkaPublisher(log *logger.Logger, w messageWriter, topic string) *kafkaPublisher {
	return &kafkaPublisher{log: log.With("service", "KafkaOrderEvents"), writer: w, topic: topic}
}

func (p *kafkaPublisher) Publish(ctx context.Context, ev OrderEvent) error {
	if p == nil || p.writer == nil {
		return fmt.Errorf("kafka order events not initialized")
	}
	raw, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.OrderID.String()),
		Value: raw,
		Time:  ev.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(ev.Type)},
		},
	})
}

func (p *kafkaPublisher) Backend() string { return BackendKafka }

func (p *kafkaPublisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
