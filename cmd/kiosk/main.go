package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"github.com/brewline/cafe-kiosk/internal/checkout"
	"github.com/brewline/cafe-kiosk/internal/client"
	"github.com/brewline/cafe-kiosk/internal/domain"
	"github.com/brewline/cafe-kiosk/internal/lifecycle"
	"github.com/brewline/cafe-kiosk/internal/localstate"
	"github.com/brewline/cafe-kiosk/internal/messaging"
)

// itemsFlag collects repeated -item values of the form id:name:price[:qty[:size]].
type itemsFlag []domain.OrderItem

func (f *itemsFlag) String() string { return fmt.Sprintf("%d item(s)", len(*f)) }

func (f *itemsFlag) Set(value string) error {
	parts := strings.Split(value, ":")
	if len(parts) < 3 {
		return fmt.Errorf("item must be id:name:price[:qty[:size]], got %q", value)
	}

	price, err := decimal.NewFromString(parts[2])
	if err != nil {
		return fmt.Errorf("item price must be a number, got %q", parts[2])
	}

	item := domain.OrderItem{
		ID:       parts[0],
		Name:     parts[1],
		Price:    price,
		Quantity: 1,
	}
	if len(parts) > 3 {
		qty, err := strconv.Atoi(parts[3])
		if err != nil {
			return fmt.Errorf("item quantity must be an integer, got %q", parts[3])
		}
		item.Quantity = qty
	}
	if len(parts) > 4 {
		item.Size = domain.ItemSize(parts[4])
	}

	*f = append(*f, item)
	return nil
}

// consoleSink is the kiosk screen: side effects become printed lines.
type consoleSink struct {
	logger *slog.Logger
}

func (s *consoleSink) OrderApproved(order domain.Order) {
	fmt.Printf("\nOrder %s approved! Please proceed to the counter.\n", order.ID)
	s.logger.Info("order approved", "order_id", order.ID, "approved_at", order.ApprovedAt)
}

func (s *consoleSink) OrderRejected(order domain.Order) {
	fmt.Printf("\nOrder %s could not be accepted. Please speak to staff.\n", order.ID)
	s.logger.Info("order rejected", "order_id", order.ID)
}

func (s *consoleSink) OrderExpired(orderID string) {
	fmt.Printf("\nStill no answer for order %s. Please check with staff.\n", orderID)
	s.logger.Info("order expired", "order_id", orderID)
}

func (s *consoleSink) Notify(message string) {
	fmt.Println(message)
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	var items itemsFlag
	flag.Var(&items, "item", "order line as id:name:price[:qty[:size]], repeatable")
	payment := flag.String("payment", "qr", "payment method: qr, card or cash")
	table := flag.String("table", "", "table number for delivery")
	room := flag.String("room", "", "room number for delivery")
	name := flag.String("name", "", "customer name")
	flag.Parse()

	ordersURL := os.Getenv("ORDERS_SERVICE_URL")
	if ordersURL == "" {
		logger.Error("ORDERS_SERVICE_URL environment variable is required")
		os.Exit(1)
	}

	statePath := os.Getenv("KIOSK_STATE_FILE")
	if statePath == "" {
		statePath = "kiosk-state.json"
	}

	state, err := localstate.NewFileStore(statePath)
	if err != nil {
		logger.Error("failed to open local state", "error", err, "path", statePath)
		os.Exit(1)
	}

	var feed lifecycle.StatusFeed
	if kafkaBrokers := os.Getenv("KAFKA_BROKERS"); kafkaBrokers != "" {
		feed = messaging.NewStatusFeed(strings.Split(kafkaBrokers, ","), logger)
	}

	httpClient := &http.Client{Timeout: 10 * time.Second}
	ordersClient := client.NewOrdersClient(ordersURL, httpClient)

	cart := checkout.NewCart()
	for _, item := range items {
		cart.Add(item)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// stand-in for the payment step: the terminal takes a moment to confirm
	fmt.Println("Processing payment...")
	time.Sleep(time.Duration(500+rand.Intn(1000)) * time.Millisecond)

	co := checkout.New(ordersClient, state, logger)
	order, queued, err := co.Submit(ctx, cart, domain.PaymentMethod(*payment), checkout.DeliveryContext{
		CustomerName: *name,
		TableNumber:  *table,
		RoomNumber:   *room,
	})
	if err != nil {
		logger.Error("checkout failed", "error", err)
		os.Exit(1)
	}

	if queued {
		fmt.Printf("Order %s saved locally; we'll send it when the connection is back.\n", order.ID)
	}
	fmt.Printf("Order %s placed. Waiting for approval...\n", order.ID)

	sink := &consoleSink{logger: logger}
	coordinator := lifecycle.New(order.ID, ordersClient, feed, sink, state, logger, lifecycle.Config{})

	outcome, err := coordinator.Run(ctx)
	if err != nil {
		if ctx.Err() != nil {
			logger.Info("kiosk session cancelled")
			return
		}
		logger.Error("lifecycle ended with error", "error", err)
		os.Exit(1)
	}

	logger.Info("kiosk session finished", "order_id", order.ID, "outcome", string(outcome))
}
