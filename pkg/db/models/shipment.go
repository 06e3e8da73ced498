package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/dmrozas/pharmaflow-backend/pkg/enums"
	"github.com/dmrozas/pharmaflow-backend/pkg/types"
)

// Shipment is the orchestrator aggregate. The sales order is referenced by id
// plus a denormalized order number for display; the authoritative order lives
// in the sales order service.
type Shipment struct {
	ID                   uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ShipmentNumber       string               `gorm:"column:shipment_number;uniqueIndex;not null"`
	SalesOrderID         uuid.UUID            `gorm:"column:sales_order_id;type:uuid;not null;index"`
	SalesOrderNumber     string               `gorm:"column:sales_order_number;not null"`
	AccountID            uuid.UUID            `gorm:"column:account_id;type:uuid;not null"`
	SiteID               uuid.UUID            `gorm:"column:site_id;type:uuid;not null"`
	Status               enums.ShipmentStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	Priority             enums.Priority       `gorm:"column:priority;type:text;not null;default:'standard'"`
	ShipDate             *time.Time           `gorm:"column:ship_date"`
	ExpectedDeliveryDate *time.Time           `gorm:"column:expected_delivery_date"`
	ActualDeliveryDate   *time.Time           `gorm:"column:actual_delivery_date"`
	Carrier              *string              `gorm:"column:carrier"`
	TrackingNumber       *string              `gorm:"column:tracking_number"`
	ServiceType          *string              `gorm:"column:service_type"`
	ShippingAddress      *types.Address       `gorm:"column:shipping_address;type:jsonb;serializer:json"`
	RequiresColdChain    bool                 `gorm:"column:requires_cold_chain;not null;default:false"`
	TemperatureRange     *string              `gorm:"column:temperature_range"`
	CancelledAt          *time.Time           `gorm:"column:cancelled_at"`
	CreatedBy            uuid.UUID            `gorm:"column:created_by;type:uuid;not null"`
	Items                []ShipmentItem       `gorm:"foreignKey:ShipmentID;constraint:OnDelete:CASCADE"`
	CreatedAt            time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
