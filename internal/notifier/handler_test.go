package notifier

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/brewline/cafe-kiosk/internal/domain"
)

func TestHandler_HandleOrderCreated(t *testing.T) {
	t.Run("emails the counter about a new order", func(t *testing.T) {
		var sent map[string]string
		emailServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/send" {
				t.Errorf("expected /send, got %s", r.URL.Path)
			}
			if err := json.NewDecoder(r.Body).Decode(&sent); err != nil {
				t.Fatalf("decode email request: %v", err)
			}
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"sent"}`))
		}))
		defer emailServer.Close()

		handler := NewHandler(emailServer.URL, "counter@brewline.local", emailServer.Client(),
			slog.New(slog.NewTextHandler(io.Discard, nil)))

		payload, _ := json.Marshal(domain.OrderCreatedEvent{
			OrderID:     "ORD123456",
			Items:       []domain.OrderItem{{ID: "espresso", Name: "Espresso", Quantity: 2}},
			TableNumber: "12",
		})

		if err := handler.HandleOrderCreated(context.Background(), "ORD123456", payload); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if sent["to"] != "counter@brewline.local" {
			t.Errorf("unexpected recipient: %s", sent["to"])
		}
		if !strings.Contains(sent["body"], "table 12") {
			t.Errorf("expected table in body, got %s", sent["body"])
		}
	})

	t.Run("returns error when email service fails", func(t *testing.T) {
		emailServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer emailServer.Close()

		handler := NewHandler(emailServer.URL, "counter@brewline.local", emailServer.Client(),
			slog.New(slog.NewTextHandler(io.Discard, nil)))

		payload, _ := json.Marshal(domain.OrderCreatedEvent{OrderID: "ORD123456"})

		if err := handler.HandleOrderCreated(context.Background(), "ORD123456", payload); err == nil {
			t.Fatal("expected error, got nil")
		}
	})
}

func TestHandler_HandleStatusChanged(t *testing.T) {
	t.Run("sends an itemized receipt on approval", func(t *testing.T) {
		var sent map[string]string
		emailServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := json.NewDecoder(r.Body).Decode(&sent); err != nil {
				t.Fatalf("decode email request: %v", err)
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer emailServer.Close()

		handler := NewHandler(emailServer.URL, "counter@brewline.local", emailServer.Client(),
			slog.New(slog.NewTextHandler(io.Discard, nil)))

		order := domain.Order{
			ID:     "ORD654321",
			Status: domain.OrderStatusApproved,
			Items: []domain.OrderItem{
				{ID: "latte", Name: "Latte", Price: decimal.RequireFromString("4.50"), Quantity: 2, Size: domain.ItemSizeLarge},
			},
			Total: decimal.RequireFromString("9.00"),
		}
		payload, _ := json.Marshal(domain.OrderStatusChangedEvent{
			OrderID:   order.ID,
			OldStatus: domain.OrderStatusPending,
			NewStatus: domain.OrderStatusApproved,
			Order:     order,
		})

		if err := handler.HandleStatusChanged(context.Background(), order.ID, payload); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(sent["body"], "2x Latte") {
			t.Errorf("expected line item in receipt, got %s", sent["body"])
		}
		if !strings.Contains(sent["body"], "Total: 9.00") {
			t.Errorf("expected total in receipt, got %s", sent["body"])
		}
	})

	t.Run("ignores non-terminal statuses", func(t *testing.T) {
		called := false
		emailServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			w.WriteHeader(http.StatusOK)
		}))
		defer emailServer.Close()

		handler := NewHandler(emailServer.URL, "counter@brewline.local", emailServer.Client(),
			slog.New(slog.NewTextHandler(io.Discard, nil)))

		payload, _ := json.Marshal(domain.OrderStatusChangedEvent{
			OrderID:   "ORD111111",
			NewStatus: domain.OrderStatusPending,
		})

		if err := handler.HandleStatusChanged(context.Background(), "ORD111111", payload); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if called {
			t.Error("expected no email for non-terminal status")
		}
	})
}
