package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmrozas/pharmaflow-backend/pkg/enums"
	"github.com/dmrozas/pharmaflow-backend/pkg/types"
)

// SalesOrder is the order aggregate owned by the sales order service. Once
// approved it is never hard-deleted; the lifecycle ends in a terminal status.
type SalesOrder struct {
	ID                uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber       string                 `gorm:"column:order_number;uniqueIndex;not null"`
	AccountID         uuid.UUID              `gorm:"column:account_id;type:uuid;not null"`
	SiteID            uuid.UUID              `gorm:"column:site_id;type:uuid;not null"`
	Status            enums.SalesOrderStatus `gorm:"column:status;type:text;not null;default:'draft'"`
	Priority          enums.Priority         `gorm:"column:priority;type:text;not null;default:'standard'"`
	TotalAmount       decimal.Decimal        `gorm:"column:total_amount;type:numeric(14,2);not null"`
	Currency          string                 `gorm:"column:currency;type:text;not null;default:'USD'"`
	RequestedShipDate *time.Time             `gorm:"column:requested_ship_date"`
	ActualShipDate    *time.Time             `gorm:"column:actual_ship_date"`
	ShippingAddress   *types.Address         `gorm:"column:shipping_address;type:jsonb;serializer:json"`
	BillingAddress    *types.Address         `gorm:"column:billing_address;type:jsonb;serializer:json"`
	Notes             *string                `gorm:"column:notes"`
	CreatedBy         uuid.UUID              `gorm:"column:created_by;type:uuid;not null"`
	ApprovedBy        *uuid.UUID             `gorm:"column:approved_by;type:uuid"`
	ApprovedAt        *time.Time             `gorm:"column:approved_at"`
	CancelledAt       *time.Time             `gorm:"column:cancelled_at"`
	Items             []SalesOrderItem       `gorm:"foreignKey:SalesOrderID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
