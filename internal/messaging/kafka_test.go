package messaging

import (
	"context"
	"errors"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temcen/animerec/internal/config"
	"github.com/temcen/animerec/pkg/models"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func TestKafkaPublisher_PublishInteraction(t *testing.T) {
	writer := &fakeWriter{}
	publisher := newKafkaPublisher(writer, "interactions", quietLogger())

	err := publisher.PublishInteraction(context.Background(), InteractionEvent{
		SessionID: "abc",
		Action:    "title",
		Query:     "Naruto",
		Request:   models.NewTitleRequest("Naruto", 12),
		Outcome:   "results",
		Results:   12,
		Applied:   true,
	})
	require.NoError(t, err)
	require.Len(t, writer.messages, 1)

	msg := writer.messages[0]
	assert.Equal(t, "title", string(msg.Key))

	var decoded InteractionEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.NotEqual(t, uuid.Nil, decoded.ID)
	assert.False(t, decoded.Timestamp.IsZero())
	assert.Equal(t, "Naruto", decoded.Query)
	assert.Equal(t, "Naruto", decoded.Request.AnimeTitle)
	assert.Equal(t, 12, decoded.Results)

	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, decoded.ID.String(), headers["event_id"])
	assert.Equal(t, "title", headers["action"])

	require.NoError(t, publisher.Close())
	assert.True(t, writer.closed)
}

func TestKafkaPublisher_WriteFailure(t *testing.T) {
	publisher := newKafkaPublisher(&fakeWriter{err: errors.New("broker unavailable")}, "interactions", quietLogger())

	err := publisher.PublishInteraction(context.Background(), InteractionEvent{Action: "category"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker unavailable")
}

func TestNewPublisher(t *testing.T) {
	assert.IsType(t, NoopPublisher{}, NewPublisher(config.KafkaConfig{}, quietLogger()))

	cfg := config.KafkaConfig{Brokers: []string{"localhost:9092"}}
	publisher := NewPublisher(cfg, quietLogger())
	require.IsType(t, &KafkaPublisher{}, publisher)
	assert.Equal(t, DefaultInteractionsTopic, publisher.(*KafkaPublisher).topic)
	assert.NoError(t, publisher.Close())
}
