package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafka.Writer the recorder needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// kafkaRecorder publishes entries as JSON messages keyed by promotion id.
type kafkaRecorder struct {
	writer messageWriter
	topic  string
	logger zerolog.Logger
}

// NewKafkaRecorder creates a recorder publishing to topic on brokers.
func NewKafkaRecorder(brokers []string, topic string, logger zerolog.Logger) Recorder {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
	return newKafkaRecorder(writer, topic, logger)
}

func newKafkaRecorder(writer messageWriter, topic string, logger zerolog.Logger) *kafkaRecorder {
	return &kafkaRecorder{
		writer: writer,
		topic:  topic,
		logger: logger.With().Str("component", "audit-kafka").Str("topic", topic).Logger(),
	}
}

// Record publishes one entry.
func (r *kafkaRecorder) Record(ctx context.Context, entry Entry) error {
	value, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode audit entry: %w", err)
	}

	key := entry.PromotionID
	if key == "" {
		key = entry.Session
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Time:  entry.RecordedAt,
	}

	if err := r.writer.WriteMessages(ctx, msg); err != nil {
		r.logger.Error().
			Err(err).
			Str("entry_id", entry.ID.String()).
			Msg("failed to publish audit entry")
		return fmt.Errorf("failed to publish audit entry: %w", err)
	}

	r.logger.Debug().
		Str("entry_id", entry.ID.String()).
		Str("action", entry.Action).
		Msg("audit entry published")

	return nil
}

// Close flushes and closes the writer.
func (r *kafkaRecorder) Close() error {
	if r.writer != nil {
		return r.writer.Close()
	}
	return nil
}
