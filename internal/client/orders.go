// Package client is the kiosk-side HTTP client for the orders service. Every
// response body passes through the domain parse boundary, so the rest of the
// kiosk only ever sees typed, validated orders.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/brewline/cafe-kiosk/internal/domain"
)

// ErrOrderNotFound distinguishes a missing order id from a transient fetch
// failure: retrying will not make the order appear.
var ErrOrderNotFound = errors.New("order not found")

type OrdersClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewOrdersClient(baseURL string, httpClient *http.Client) *OrdersClient {
	return &OrdersClient{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

func (c *OrdersClient) Create(ctx context.Context, order domain.Order) (domain.Order, error) {
	data, err := json.Marshal(order)
	if err != nil {
		return domain.Order{}, fmt.Errorf("marshal order: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders", bytes.NewReader(data))
	if err != nil {
		return domain.Order{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Order{}, fmt.Errorf("create order: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated {
		return domain.Order{}, fmt.Errorf("orders service returned status %d", resp.StatusCode)
	}

	return parseOrderBody(resp.Body)
}

func (c *OrdersClient) Get(ctx context.Context, id string) (domain.Order, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/orders/"+id, nil)
	if err != nil {
		return domain.Order{}, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Order{}, fmt.Errorf("get order %s: %w", id, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
		return parseOrderBody(resp.Body)
	case http.StatusNotFound:
		return domain.Order{}, fmt.Errorf("%w: %s", ErrOrderNotFound, id)
	default:
		return domain.Order{}, fmt.Errorf("orders service returned status %d", resp.StatusCode)
	}
}

// UpdateStatus performs the staff transition. changed is false when the order
// was already in the requested status and no write was issued.
func (c *OrdersClient) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (order domain.Order, changed bool, err error) {
	body, err := json.Marshal(map[string]string{"status": string(status)})
	if err != nil {
		return domain.Order{}, false, err
	}

	url := fmt.Sprintf("%s/orders/%s/status", c.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(body))
	if err != nil {
		return domain.Order{}, false, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Order{}, false, fmt.Errorf("update order %s: %w", id, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return domain.Order{}, false, fmt.Errorf("%w: %s", ErrOrderNotFound, id)
	}
	if resp.StatusCode != http.StatusOK {
		return domain.Order{}, false, fmt.Errorf("orders service returned status %d", resp.StatusCode)
	}

	var result struct {
		Changed bool            `json:"changed"`
		Order   json.RawMessage `json:"order"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return domain.Order{}, false, fmt.Errorf("decode transition response: %w", err)
	}

	order, err = domain.ParseOrder(result.Order)
	if err != nil {
		return domain.Order{}, false, err
	}
	return order, result.Changed, nil
}

func parseOrderBody(body io.Reader) (domain.Order, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return domain.Order{}, fmt.Errorf("read response body: %w", err)
	}
	return domain.ParseOrder(data)
}
