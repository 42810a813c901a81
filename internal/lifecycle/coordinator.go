// Package lifecycle tracks a submitted order until staff resolve it. The
// coordinator merges four observation channels (initial load, realtime status
// feed, periodic poll, user-triggered refresh) into a single reducer, and
// guarantees the terminal side effects fire at most once no matter how many
// channels deliver the same resolution.
package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/brewline/cafe-kiosk/internal/client"
	"github.com/brewline/cafe-kiosk/internal/domain"
	"github.com/brewline/cafe-kiosk/internal/localstate"
)

// OrderReader is the authoritative read path, shared by the poll, the manual
// refresh, the initial load, and the final pre-expiry check.
type OrderReader interface {
	Get(ctx context.Context, id string) (domain.Order, error)
}

// StatusFeed is the push channel. Subscribe returns a channel of updates for
// one order id and a release func that must be called on teardown.
type StatusFeed interface {
	Subscribe(ctx context.Context, orderID string) (<-chan domain.Order, func(), error)
}

// Sink receives the user-facing side effects. Implementations navigate, print,
// or toast; the coordinator only decides when each effect happens.
type Sink interface {
	OrderApproved(order domain.Order)
	OrderRejected(order domain.Order)
	OrderExpired(orderID string)
	Notify(message string)
}

type Outcome string

const (
	OutcomeApproved Outcome = "approved"
	OutcomeRejected Outcome = "rejected"
	OutcomeExpired  Outcome = "expired"
)

type Config struct {
	// PollInterval is the safety-net re-read cadence behind the push channel.
	PollInterval time.Duration
	// Countdown is the total budget an order may stay pending before the
	// kiosk gives up and sends the customer back to the menu.
	Countdown time.Duration
}

const (
	DefaultPollInterval = 30 * time.Second
	DefaultCountdown    = 10 * time.Minute
)

func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.Countdown <= 0 {
		c.Countdown = DefaultCountdown
	}
	return c
}

type Coordinator struct {
	orderID string
	reader  OrderReader
	feed    StatusFeed
	sink    Sink
	state   localstate.Store
	logger  *slog.Logger
	cfg     Config

	refresh chan struct{}

	// status is the in-memory state machine. Terminal side effects are gated
	// on the transition away from pending here, not on event arrival, which is
	// what makes concurrent delivery over several channels safe.
	status   domain.OrderStatus
	notFound bool
}

func New(orderID string, reader OrderReader, feed StatusFeed, sink Sink, state localstate.Store, logger *slog.Logger, cfg Config) *Coordinator {
	return &Coordinator{
		orderID: orderID,
		reader:  reader,
		feed:    feed,
		sink:    sink,
		state:   state,
		logger:  logger,
		cfg:     cfg.withDefaults(),
		refresh: make(chan struct{}, 1),
		status:  domain.OrderStatusPending,
	}
}

// Refresh requests an immediate authoritative re-read, like the refresh button
// on the waiting screen. It never blocks; a refresh already in flight absorbs
// repeated clicks.
func (c *Coordinator) Refresh() {
	select {
	case c.refresh <- struct{}{}:
	default:
	}
}

// Run drives the lifecycle until the order resolves, the countdown expires,
// or ctx is cancelled. All timers and the feed subscription are released
// before Run returns.
func (c *Coordinator) Run(ctx context.Context) (Outcome, error) {
	// catch the case where the order resolved before this client attached
	if outcome, done := c.read(ctx); done {
		return outcome, nil
	}

	var updates <-chan domain.Order
	if c.feed != nil {
		feedUpdates, release, err := c.feed.Subscribe(ctx, c.orderID)
		if err != nil {
			c.logger.Error("status feed unavailable, falling back to polling", "error", err, "order_id", c.orderID)
			c.sink.Notify("Live updates are unavailable; still checking periodically.")
		} else {
			updates = feedUpdates
			defer release()
		}
	}

	poll := time.NewTicker(c.cfg.PollInterval)
	defer poll.Stop()

	countdown := time.NewTimer(c.cfg.Countdown)
	defer countdown.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()

		case order, ok := <-updates:
			if !ok {
				updates = nil
				continue
			}
			if outcome, done := c.apply(order); done {
				return outcome, nil
			}

		case <-poll.C:
			if c.notFound {
				// automatic retries cannot resolve a missing order;
				// only a manual refresh re-enables reads
				continue
			}
			if outcome, done := c.read(ctx); done {
				return outcome, nil
			}

		case <-c.refresh:
			c.notFound = false
			if outcome, done := c.read(ctx); done {
				return outcome, nil
			}

		case <-countdown.C:
			// one last authoritative read before declaring the order expired
			if outcome, done := c.read(ctx); done {
				return outcome, nil
			}
			c.logger.Info("order timed out while pending", "order_id", c.orderID)
			c.sink.OrderExpired(c.orderID)
			return OutcomeExpired, nil
		}
	}
}

// read fetches the order and feeds it through the reducer. Errors are
// non-fatal: the next poll tick or refresh retries.
func (c *Coordinator) read(ctx context.Context) (Outcome, bool) {
	order, err := c.reader.Get(ctx, c.orderID)
	if err != nil {
		if errors.Is(err, client.ErrOrderNotFound) {
			if !c.notFound {
				c.notFound = true
				c.logger.Error("order not found", "order_id", c.orderID)
				c.sink.Notify("Order not found. Use refresh to try again or speak to staff.")
			}
			return "", false
		}
		c.logger.Error("failed to fetch order status", "error", err, "order_id", c.orderID)
		c.sink.Notify("Couldn't check your order status. Retrying shortly.")
		return "", false
	}

	return c.apply(order)
}

// apply is the single reducer every channel funnels into. It persists the
// fresher snapshot, advances the state machine, and fires terminal side
// effects exactly once.
func (c *Coordinator) apply(order domain.Order) (Outcome, bool) {
	if order.ID != c.orderID {
		return "", false
	}
	if c.status.IsTerminal() {
		// a terminal state was already observed; later deliveries are noise
		return "", false
	}

	c.notFound = false

	if err := localstate.SaveOrderSnapshot(c.state, order); err != nil {
		c.logger.Error("failed to persist order snapshot", "error", err, "order_id", order.ID)
	}

	c.status = order.Status

	switch order.Status {
	case domain.OrderStatusApproved:
		if err := localstate.SetLastApprovedOrderID(c.state, order.ID); err != nil {
			c.logger.Error("failed to persist last approved order id", "error", err, "order_id", order.ID)
		}
		c.sink.OrderApproved(order)
		return OutcomeApproved, true

	case domain.OrderStatusRejected:
		c.sink.OrderRejected(order)
		return OutcomeRejected, true
	}

	return "", false
}
