package shipments

import (
	"time"

	"github.com/google/uuid"

	"github.com/dmrozas/pharmaflow-backend/pkg/db/models"
	"github.com/dmrozas/pharmaflow-backend/pkg/enums"
	"github.com/dmrozas/pharmaflow-backend/pkg/pagination"
	"github.com/dmrozas/pharmaflow-backend/pkg/types"
)

// CreateItemInput references one sales-order line to ship.
type CreateItemInput struct {
	SalesOrderItemID uuid.UUID `json:"sales_order_item_id"`
	Quantity         int       `json:"quantity"`
}

// CreateInput captures the data required to open a shipment.
type CreateInput struct {
	SalesOrderID         uuid.UUID         `json:"sales_order_id"`
	Priority             enums.Priority    `json:"priority"`
	ExpectedDeliveryDate *time.Time        `json:"expected_delivery_date,omitempty"`
	Carrier              *string           `json:"carrier,omitempty"`
	ServiceType          *string           `json:"service_type,omitempty"`
	ShippingAddress      *types.Address    `json:"shipping_address,omitempty"`
	RequiresColdChain    bool              `json:"requires_cold_chain"`
	TemperatureRange     *string           `json:"temperature_range,omitempty"`
	CreatedBy            uuid.UUID         `json:"created_by"`
	Items                []CreateItemInput `json:"items"`
}

// UpdateInput carries the mutable shipment fields. Status accepts only the
// carrier-scan move shipped -> in_transit.
type UpdateInput struct {
	Priority             *enums.Priority       `json:"priority,omitempty"`
	ShipDate             *time.Time            `json:"ship_date,omitempty"`
	ExpectedDeliveryDate *time.Time            `json:"expected_delivery_date,omitempty"`
	Carrier              *string               `json:"carrier,omitempty"`
	TrackingNumber       *string               `json:"tracking_number,omitempty"`
	ServiceType          *string               `json:"service_type,omitempty"`
	ShippingAddress      *types.Address        `json:"shipping_address,omitempty"`
	TemperatureRange     *string               `json:"temperature_range,omitempty"`
	Status               *enums.ShipmentStatus `json:"status,omitempty"`
}

// ShipInput carries the optional carrier metadata recorded at ship time.
type ShipInput struct {
	TrackingNumber *string `json:"tracking_number,omitempty"`
	Carrier        *string `json:"carrier,omitempty"`
	ServiceType    *string `json:"service_type,omitempty"`
}

// Filters describe the inputs supported by the shipment list.
type Filters struct {
	Search       string
	SalesOrderID *uuid.UUID
	AccountID    *uuid.UUID
	SiteID       *uuid.UUID
	Status       *enums.ShipmentStatus
}

// List wraps the paginated shipments plus page metadata.
type List struct {
	Shipments []models.Shipment `json:"shipments"`
	Meta      pagination.Meta   `json:"meta"`
}
