package services

import (
	"context"

	"pairchat/internal/models"
)

// Notifier receives chat events that other participants care about.
type Notifier interface {
	Notify(ctx context.Context, event models.ChatEvent)
}

// MultiNotifier fans an event out to every notifier in order.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, event models.ChatEvent) {
	for _, n := range m {
		if n != nil {
			n.Notify(ctx, event)
		}
	}
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, models.ChatEvent) {}

func orNoop(n Notifier) Notifier {
	if n == nil {
		return noopNotifier{}
	}
	return n
}
