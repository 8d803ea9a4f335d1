package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"pairchat/internal/mocks"
)

func TestEmitPublishesEnvelope(t *testing.T) {
	pub := &mocks.PublisherMock{}
	emitter := NewAuditEmitter(pub, "", "pairchat", "test")
	emitter.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	user := "user-1"

	pub.On("Publish", mock.Anything, AuditRoutingKey, AuditEnvelope{
		SchemaVersion: 1,
		EventType:     "audit_log",
		OccurredAt:    "2024-05-01T12:00:00Z",
		Service:       "pairchat",
		Environment:   "test",
		RequestID:     "req-1",
		UserID:        &user,
		Payload:       AuditPayload{Level: "INFO", Text: "pinned chat"},
	}, map[string]string{"x-request-id": "req-1"}).Return(nil).Once()

	emitter.Emit(context.Background(), "INFO", "pinned chat", "req-1", &user)

	pub.AssertExpectations(t)
}

func TestEmitSwallowsPublishErrors(t *testing.T) {
	pub := &mocks.PublisherMock{}
	emitter := NewAuditEmitter(pub, "audit.custom", "pairchat", "test")
	pub.On("Publish", mock.Anything, "audit.custom", mock.Anything, mock.Anything).Return(errors.New("down")).Once()

	assert.NotPanics(t, func() {
		emitter.Emit(context.Background(), "WARN", "x", "", nil)
	})
	pub.AssertExpectations(t)
}

func TestNilEmitterIsSafe(t *testing.T) {
	var emitter *AuditEmitter
	assert.NotPanics(t, func() {
		emitter.Emit(context.Background(), "INFO", "x", "", nil)
	})
}
