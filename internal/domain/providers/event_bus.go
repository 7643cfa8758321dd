package providers

import (
	"context"

	"github.com/vitalloop/insight-engine/internal/domain/entities"
)

// EventBus fans insight lifecycle events out to interested consumers.
type EventBus interface {
	// Publish publishes an event to all subscribers of the channel.
	Publish(ctx context.Context, channel string, event *entities.InsightEvent) error

	// Subscribe subscribes to events on a channel. The returned channel is
	// closed when ctx is cancelled.
	Subscribe(ctx context.Context, channel string) (<-chan *entities.InsightEvent, error)

	// Close shuts the bus down and releases all subscriptions.
	Close() error
}
