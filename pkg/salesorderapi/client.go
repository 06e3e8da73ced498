// Package salesorderapi is the HTTP client for the sales order service. The
// shipment orchestrator uses it to validate orders and echo fulfillment
// progress back onto them.
package salesorderapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmrozas/pharmaflow-backend/pkg/enums"
	pkgerrors "github.com/dmrozas/pharmaflow-backend/pkg/errors"
)

const responseBodyReadLimit int64 = 1024

// SalesOrder is the order view exposed by the sales order service.
type SalesOrder struct {
	ID          uuid.UUID              `json:"id"`
	OrderNumber string                 `json:"orderNumber"`
	Status      enums.SalesOrderStatus `json:"status"`
	AccountID   uuid.UUID              `json:"accountId"`
	SiteID      uuid.UUID              `json:"siteId"`
	Items       []SalesOrderItem       `json:"items"`
}

// SalesOrderItem is one drug line on the remote order.
type SalesOrderItem struct {
	ID       uuid.UUID `json:"id"`
	DrugID   uuid.UUID `json:"drugId"`
	DrugName string    `json:"drugName"`
	Quantity int       `json:"quantity"`
}

// Client talks to the sales order service over HTTP.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout overrides the default request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewClient builds a sales order client for the given base URL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, fmt.Errorf("sales order base url is required")
	}

	client := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// GetByID fetches a single sales order with its lines.
func (c *Client) GetByID(ctx context.Context, id uuid.UUID) (*SalesOrder, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "sales order client not configured")
	}
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sales order id is required")
	}

	url := fmt.Sprintf("%s/sales-orders/%s", c.baseURL, id)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build sales order get request")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute sales order get request")
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sales order not found")
	case resp.StatusCode != http.StatusOK:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, statusError(resp), "sales order get request failed")
	}

	var order SalesOrder
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode sales order response")
	}
	return &order, nil
}

// UpdateStatus echoes fulfillment progress onto the remote order.
func (c *Client) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.SalesOrderStatus) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "sales order client not configured")
	}
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "sales order id is required")
	}
	if !status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid sales order status")
	}

	payload, err := json.Marshal(map[string]string{"status": status.String()})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal sales order status payload")
	}

	url := fmt.Sprintf("%s/sales-orders/%s/status", c.baseURL, id)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(payload))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build sales order status request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute sales order status request")
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return pkgerrors.New(pkgerrors.CodeNotFound, "sales order not found")
	case resp.StatusCode >= http.StatusMultipleChoices:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, statusError(resp), "sales order status request failed")
	}
	return nil
}

func statusError(resp *http.Response) error {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
}
