package rabbitmq

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"pairchat/internal/telemetry"
)

func TestNewPublisherWithoutURLIsNoop(t *testing.T) {
	p := NewPublisher("", "chat.events", "pairchat")

	assert.Equal(t, "noop", PublisherMode(p))
	assert.Equal(t, "empty amqp url", PublisherNoopReason(p))
	assert.NoError(t, p.Publish(context.Background(), "audit.chat", telemetry.AuditEnvelope{EventType: "audit_log"}, nil))
	assert.NoError(t, p.Publish(context.Background(), "chat_events.message", map[string]string{"k": "v"}, map[string]string{"x-request-id": "r"}))
	assert.NoError(t, p.Close())
}

func TestToTable(t *testing.T) {
	assert.Nil(t, toTable(nil))
	assert.Equal(t, "abc", toTable(map[string]string{"trace_id": "abc"})["trace_id"])
}

func TestNewPublishing(t *testing.T) {
	msg, err := newPublishing("pairchat", map[string]string{"type": "message"}, map[string]string{"x-request-id": "req-1"})

	assert.NoError(t, err)
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, "pairchat", msg.AppId)
	assert.Equal(t, "req-1", msg.CorrelationId)
	assert.NotEmpty(t, msg.MessageId)
	assert.JSONEq(t, `{"type":"message"}`, string(msg.Body))

	_, err = newPublishing("pairchat", make(chan int), nil)
	assert.Error(t, err)
}

func TestClosedPublisherRejectsPublish(t *testing.T) {
	p := &amqpPublisher{closed: true}

	assert.ErrorIs(t, p.Publish(context.Background(), "chat_events.message", map[string]string{}, nil), ErrPublisherClosed)
	assert.NoError(t, p.Close())
}
