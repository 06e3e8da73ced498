// Package inventoryapi is the HTTP client for the warehouse inventory
// service, which owns stock levels and item statuses.
package inventoryapi

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

// Item is the inventory record as exposed by the inventory service.
type Item struct {
	ID          uuid.UUID             `json:"id"`
	DrugID      uuid.UUID             `json:"drugId"`
	Status      enums.InventoryStatus `json:"status"`
	Quantity    int                   `json:"quantity"`
	LocationID  *uuid.UUID            `json:"locationId,omitempty"`
	BatchNumber *string               `json:"batchNumber,omitempty"`
}

// Client talks to the inventory service over HTTP.
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

// NewClient builds an inventory client for the given base URL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, fmt.Errorf("inventory base url is required")
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

// GetByID fetches a single inventory item.
func (c *Client) GetByID(ctx context.Context, id uuid.UUID) (*Item, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "inventory client not configured")
	}
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "inventory item id is required")
	}

	url := fmt.Sprintf("%s/inventory/%s", c.baseURL, id)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build inventory get request")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute inventory get request")
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "inventory item not found")
	case resp.StatusCode != http.StatusOK:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, statusError(resp), "inventory get request failed")
	}

	var item Item
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode inventory item response")
	}
	return &item, nil
}

// UpdateStatus moves an inventory item to the given status, for example
// reserving it for a shipment or releasing it back to available.
func (c *Client) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.InventoryStatus) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "inventory client not configured")
	}
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "inventory item id is required")
	}
	if !status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid inventory status")
	}

	payload, err := json.Marshal(map[string]string{"status": status.String()})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal inventory status payload")
	}

	url := fmt.Sprintf("%s/inventory/%s/status", c.baseURL, id)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(payload))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build inventory status request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute inventory status request")
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return pkgerrors.New(pkgerrors.CodeNotFound, "inventory item not found")
	case resp.StatusCode >= http.StatusMultipleChoices:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, statusError(resp), "inventory status request failed")
	}
	return nil
}

func statusError(resp *http.Response) error {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
}
