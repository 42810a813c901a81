package messaging

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/brewline/cafe-kiosk/internal/domain"
)

// StatusFeed is the push channel of the order lifecycle: it tails the
// order.status topic and delivers updates for a single order id. Each
// subscription gets its own throwaway consumer group so every waiting client
// sees every update.
type StatusFeed struct {
	brokers []string
	logger  *slog.Logger
}

func NewStatusFeed(brokers []string, logger *slog.Logger) *StatusFeed {
	return &StatusFeed{brokers: brokers, logger: logger}
}

// Subscribe starts a consumer filtered down to orderID and returns the update
// channel plus a release func. Updates never block the consumer: if the client
// is slow the message is dropped, which is safe because the poll channel will
// observe the same terminal state.
func (f *StatusFeed) Subscribe(ctx context.Context, orderID string) (<-chan domain.Order, func(), error) {
	groupID := "waiting-" + orderID + "-" + uuid.NewString()[:8]
	consumer := NewConsumer(f.brokers, TopicOrderStatus, groupID,
		WithStartOffset(kafka.LastOffset),
	)

	updates := make(chan domain.Order, 1)
	feedCtx, cancel := context.WithCancel(ctx)

	go func() {
		defer close(updates)

		err := consumer.Consume(feedCtx, func(_ context.Context, key string, payload []byte) error {
			if key != orderID {
				return nil
			}

			var event domain.OrderStatusChangedEvent
			if err := json.Unmarshal(payload, &event); err != nil {
				f.logger.Error("malformed status event", "error", err, "order_id", orderID)
				return nil
			}

			select {
			case updates <- event.Order:
			default:
			}
			return nil
		})
		if err != nil && feedCtx.Err() == nil {
			f.logger.Error("status feed stopped", "error", err, "order_id", orderID)
		}
	}()

	release := func() {
		cancel()
		if err := consumer.Close(); err != nil {
			f.logger.Error("failed to close status feed consumer", "error", err, "order_id", orderID)
		}
	}

	return updates, release, nil
}
