package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func TestKafkaPublisher(t *testing.T) {
	orderID := uuid.New()

	event, err := NewOrderDeleted(orderID, true, time.Now())
	require.NoError(t, err)

	w := &recordingWriter{}
	pub := &KafkaPublisher{writer: w}

	require.NoError(t, pub.Publish(t.Context(), event))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, orderID.String(), string(msg.Key))
	assert.JSONEq(t, string(event.Payload), string(msg.Value))
	assert.Contains(t, msg.Headers, kafka.Header{Key: headerEventType, Value: []byte(domain.EventOrderDeleted)})

	w.err = errors.New("leader not available")
	assert.Error(t, pub.Publish(t.Context(), event))
}
