package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/dmrozas/pharmaflow-backend/pkg/enums"
)

// ShipmentItem is one physical line of a shipment. Quantities hold
// 0 <= picked <= quantity and 0 <= packed <= picked after every mutation.
//
// The reservation fields record the allocation saga: the intent is persisted
// as "reserving" before the remote inventory call and flipped to "reserved"
// only after the store confirms, so a crash between the two is recoverable.
type ShipmentItem struct {
	ID               uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ShipmentID       uuid.UUID                `gorm:"column:shipment_id;type:uuid;not null;index"`
	SalesOrderItemID uuid.UUID                `gorm:"column:sales_order_item_id;type:uuid;not null"`
	DrugID           uuid.UUID                `gorm:"column:drug_id;type:uuid;not null"`
	DrugName         string                   `gorm:"column:drug_name;not null"`
	BatchNumber      *string                  `gorm:"column:batch_number"`
	Quantity         int                      `gorm:"column:quantity;not null"`
	PickedQuantity   int                      `gorm:"column:picked_quantity;not null;default:0"`
	PackedQuantity   int                      `gorm:"column:packed_quantity;not null;default:0"`
	Location         *string                  `gorm:"column:location"`
	Status           enums.ShipmentItemStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	PickedBy         *uuid.UUID               `gorm:"column:picked_by;type:uuid"`
	PickedAt         *time.Time               `gorm:"column:picked_at"`
	PackedBy         *uuid.UUID               `gorm:"column:packed_by;type:uuid"`
	PackedAt         *time.Time               `gorm:"column:packed_at"`

	InventoryItemID        *uuid.UUID             `gorm:"column:inventory_item_id;type:uuid"`
	ReservationState       enums.ReservationState `gorm:"column:reservation_state;type:text;not null;default:'none'"`
	ReservedQuantity       int                    `gorm:"column:reserved_quantity;not null;default:0"`
	ReservationRequestedAt *time.Time             `gorm:"column:reservation_requested_at"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
