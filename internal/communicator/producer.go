package communicator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bilal/speedcheck/internal/config"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaProducer is responsible ONLY for Kafka interactions
type KafkaProducer struct {
	writer messageWriter
	topic  string
}

// NewKafkaProducer initializes the Kafka writer
func NewKafkaProducer(cfg config.PublishConfig) (*KafkaProducer, error) {
	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("kafka brokers not configured")
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
	}

	log.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaTopic).Msg("kafka producer initialized")

	return &KafkaProducer{writer: writer, topic: cfg.KafkaTopic}, nil
}

func (p *KafkaProducer) Name() string { return "kafka" }

// Publish writes one message per report, keyed by session id so a session's
// reports land on the same partition.
func (p *KafkaProducer) Publish(ctx context.Context, batch []Report) error {
	msgs := make([]kafka.Message, 0, len(batch))
	for _, r := range batch {
		data, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("marshal report: %w", err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(r.SessionID),
			Value: data,
			Headers: []kafka.Header{
				{Key: "correlation_id", Value: []byte(r.CorrelationID)},
			},
		})
	}
	return p.writer.WriteMessages(ctx, msgs...)
}

// Close shuts down the Kafka writer gracefully
func (p *KafkaProducer) Close() error {
	log.Info().Msg("closing kafka producer")
	return p.writer.Close()
}

// SinksFromConfig builds every sink enabled in cfg. The returned closer
// releases sink resources.
func SinksFromConfig(cfg config.PublishConfig) ([]Sink, func() error, error) {
	var sinks []Sink
	closer := func() error { return nil }

	if cfg.BackendURL != "" {
		sinks = append(sinks, NewHTTPSink(cfg))
	}
	if len(cfg.KafkaBrokers) > 0 {
		kp, err := NewKafkaProducer(cfg)
		if err != nil {
			return nil, closer, fmt.Errorf("kafka producer: %w", err)
		}
		sinks = append(sinks, kp)
		closer = kp.Close
	}
	return sinks, closer, nil
}
