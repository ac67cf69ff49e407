package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/compress"
)

// Publisher is the port the booking service writes events through. A nil
// Publisher disables publishing; transitions never fail because the broker is
// unreachable.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// KafkaPublisher wraps a kafka-go writer. When a DLQ topic is configured,
// messages the main topic rejects are parked there with the failure recorded
// in headers, so a dead broker partition loses nothing.
type KafkaPublisher struct {
	writer    *kafka.Writer
	dlqWriter *kafka.Writer
	topic     string
	closed    bool
	mu        sync.RWMutex
}

func NewKafkaPublisher(brokers []string, topic, dlqTopic string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if topic == "" {
		return nil, fmt.Errorf("topic cannot be empty")
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{}, // hash by key keeps per-class ordering
		RequiredAcks: kafka.RequireAll,
		Compression:  compress.Snappy,
	}

	p := &KafkaPublisher{writer: writer, topic: topic}

	if dlqTopic != "" {
		p.dlqWriter = &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        dlqTopic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Compression:  compress.Snappy,
			MaxAttempts:  3,
		}
	}

	return p, nil
}

// Publish writes the message to the events topic. On failure the message is
// parked on the DLQ topic when one is configured; the original error is still
// returned so callers can log the outage.
func (p *KafkaPublisher) Publish(ctx context.Context, msg Message) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return fmt.Errorf("publisher is closed")
	}

	err := p.writer.WriteMessages(ctx, kafkaMessage(msg))
	if err != nil && p.dlqWriter != nil {
		if dlqErr := p.dlqWriter.WriteMessages(ctx, dlqMessage(p.topic, msg, err)); dlqErr != nil {
			return fmt.Errorf("failed to park message on DLQ: %v (original error: %v)", dlqErr, err)
		}
	}
	return err
}

func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	err := p.writer.Close()
	if p.dlqWriter != nil {
		if dlqErr := p.dlqWriter.Close(); err == nil {
			err = dlqErr
		}
	}
	return err
}

func kafkaMessage(msg Message) kafka.Message {
	headers := make([]kafka.Header, 0, len(msg.Headers))
	for key, value := range msg.Headers {
		headers = append(headers, kafka.Header{Key: key, Value: []byte(value)})
	}

	return kafka.Message{
		Key:     []byte(msg.Key),
		Value:   msg.Value,
		Headers: headers,
		Time:    msg.Timestamp,
	}
}

// dlqMessage rebuilds the failed message for the dead-letter topic, keeping
// the original headers and recording where it came from and why it failed.
// The caller's header map is left untouched.
func dlqMessage(topic string, msg Message, cause error) kafka.Message {
	headers := make([]kafka.Header, 0, len(msg.Headers)+3)
	for key, value := range msg.Headers {
		headers = append(headers, kafka.Header{Key: key, Value: []byte(value)})
	}
	headers = append(headers,
		kafka.Header{Key: HeaderOriginalTopic, Value: []byte(topic)},
		kafka.Header{Key: HeaderDLQError, Value: []byte(cause.Error())},
		kafka.Header{Key: HeaderDLQTimestamp, Value: []byte(time.Now().Format(time.RFC3339))},
	)

	return kafka.Message{
		Key:     []byte(msg.Key),
		Value:   msg.Value,
		Headers: headers,
		Time:    time.Now(),
	}
}
