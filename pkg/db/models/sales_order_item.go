package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmrozas/pharmaflow-backend/pkg/enums"
)

// SalesOrderItem is one drug line on a sales order.
type SalesOrderItem struct {
	ID                uuid.UUID                  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SalesOrderID      uuid.UUID                  `gorm:"column:sales_order_id;type:uuid;not null;index"`
	DrugID            uuid.UUID                  `gorm:"column:drug_id;type:uuid;not null"`
	DrugName          string                     `gorm:"column:drug_name;not null"`
	Quantity          int                        `gorm:"column:quantity;not null"`
	AllocatedQuantity int                        `gorm:"column:allocated_quantity;not null;default:0"`
	UnitPrice         decimal.Decimal            `gorm:"column:unit_price;type:numeric(14,2);not null"`
	Status            enums.SalesOrderItemStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	CreatedAt         time.Time                  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time                  `gorm:"column:updated_at;autoUpdateTime"`
}
