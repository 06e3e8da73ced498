package salesorders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmrozas/pharmaflow-backend/pkg/db/models"
	"github.com/dmrozas/pharmaflow-backend/pkg/enums"
	"github.com/dmrozas/pharmaflow-backend/pkg/pagination"
	"github.com/dmrozas/pharmaflow-backend/pkg/types"
)

// CreateItemInput is one requested drug line.
type CreateItemInput struct {
	DrugID    uuid.UUID       `json:"drug_id"`
	DrugName  string          `json:"drug_name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// CreateInput captures the data required to open a sales order.
type CreateInput struct {
	AccountID         uuid.UUID         `json:"account_id"`
	SiteID            uuid.UUID         `json:"site_id"`
	Priority          enums.Priority    `json:"priority"`
	Currency          string            `json:"currency"`
	RequestedShipDate *time.Time        `json:"requested_ship_date,omitempty"`
	ShippingAddress   *types.Address    `json:"shipping_address,omitempty"`
	BillingAddress    *types.Address    `json:"billing_address,omitempty"`
	Notes             *string           `json:"notes,omitempty"`
	CreatedBy         uuid.UUID         `json:"created_by"`
	Items             []CreateItemInput `json:"items"`
}

// Filters describe the inputs supported by the sales order list.
type Filters struct {
	Search    string
	AccountID *uuid.UUID
	SiteID    *uuid.UUID
	Status    *enums.SalesOrderStatus
}

// List wraps the paginated orders plus page metadata.
type List struct {
	Orders []models.SalesOrder `json:"orders"`
	Meta   pagination.Meta     `json:"meta"`
}
