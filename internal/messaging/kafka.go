package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/temcen/animerec/internal/config"
	"github.com/temcen/animerec/pkg/models"
)

const DefaultInteractionsTopic = "anime-page-interactions"

// InteractionEvent records one completed page action.
type InteractionEvent struct {
	ID        uuid.UUID                     `json:"id"`
	SessionID string                        `json:"session_id,omitempty"`
	Action    string                        `json:"action"`
	Query     string                        `json:"query"`
	Request   *models.RecommendationRequest `json:"request,omitempty"`
	Outcome   string                        `json:"outcome"`
	Results   int                           `json:"results"`
	Applied   bool                          `json:"applied"`
	Timestamp time.Time                     `json:"timestamp"`
}

type Publisher interface {
	PublishInteraction(ctx context.Context, event InteractionEvent) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes interaction events keyed by action.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
	logger *logrus.Logger
}

// NewPublisher returns a Kafka publisher when brokers are configured and a no-op otherwise.
func NewPublisher(cfg config.KafkaConfig, logger *logrus.Logger) Publisher {
	if len(cfg.Brokers) == 0 {
		return NoopPublisher{}
	}

	topic := cfg.Topics.Interactions
	if topic == "" {
		topic = DefaultInteractionsTopic
	}

	return newKafkaPublisher(&kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
	}, topic, logger)
}

func newKafkaPublisher(writer messageWriter, topic string, logger *logrus.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: writer, topic: topic, logger: logger}
}

func (p *KafkaPublisher) PublishInteraction(ctx context.Context, event InteractionEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal interaction event: %w", err)
	}

	message := kafka.Message{
		Key:   []byte(event.Action),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(event.ID.String())},
			{Key: "action", Value: []byte(event.Action)},
			{Key: "timestamp", Value: []byte(event.Timestamp.Format(time.RFC3339))},
		},
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		p.logger.WithError(err).WithField("event_id", event.ID).Error("Failed to publish interaction to Kafka")
		return fmt.Errorf("failed to write message to Kafka: %w", err)
	}

	p.logger.WithFields(logrus.Fields{
		"event_id": event.ID,
		"action":   event.Action,
		"topic":    p.topic,
	}).Debug("Interaction published to Kafka")

	return nil
}

func (p *KafkaPublisher) Close() error {
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close producer: %w", err)
	}
	return nil
}

type NoopPublisher struct{}

func (NoopPublisher) PublishInteraction(context.Context, InteractionEvent) error { return nil }

func (NoopPublisher) Close() error { return nil }
