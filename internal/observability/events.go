package observability

import (
	"context"
	"log"

	"go.opentelemetry.io/otel/trace"

	"pairchat/internal/models"
)

// ChatEventsRoutingPrefix prefixes the routing key of every chat event.
const ChatEventsRoutingPrefix = "chat_events."

type EventEnvelope struct {
	EventType string      `json:"event_type"`
	EventName string      `json:"event_name"`
	Payload   interface{} `json:"payload"`
}

// Publisher sends JSON events to the message bus.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any, headers map[string]string) error
}

var defaultPublisher Publisher

func SetPublisher(publisher Publisher) {
	defaultPublisher = publisher
}

func PublishEvent(ctx context.Context, routingKey string, message interface{}, headers map[string]string) error {
	if defaultPublisher == nil {
		return nil
	}

	err := defaultPublisher.Publish(ctx, routingKey, message, headers)
	if err != nil {
		IncAMQPPublishError()
	}
	return err
}

func BuildHeaders(requestID, traceID string) map[string]string {
	headers := map[string]string{}
	if requestID != "" {
		headers["x-request-id"] = requestID
	}
	if traceID != "" {
		headers["trace_id"] = traceID
	}
	return headers
}

type requestIDKey struct{}

// WithRequestID stores the request id so events published further down carry it.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// HeadersFromContext builds bus headers from the request id and active span.
func HeadersFromContext(ctx context.Context) map[string]string {
	var traceID string
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		traceID = sc.TraceID().String()
	}
	return BuildHeaders(RequestIDFromContext(ctx), traceID)
}

// ChatEventPublisher forwards chat events to the bus as
// chat_events.<type>.
type ChatEventPublisher struct{}

func (ChatEventPublisher) Notify(ctx context.Context, event models.ChatEvent) {
	IncChatEvent(event.Type)
	err := PublishEvent(ctx, ChatEventsRoutingPrefix+event.Type, EventEnvelope{
		EventType: "chat_events",
		EventName: event.Type,
		Payload:   event,
	}, HeadersFromContext(ctx))
	if err != nil {
		log.Printf("chat event publish failed type=%s chat_id=%s err=%v", event.Type, event.ChatID, err)
	}
}
