package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/dmrozas/pharmaflow-backend/pkg/enums"
)

// ProofOfDelivery attests the handover of a shipment. Completing it is the
// only path that moves a shipment to delivered.
type ProofOfDelivery struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PODNumber      string          `gorm:"column:pod_number;uniqueIndex;not null"`
	ShipmentID     uuid.UUID       `gorm:"column:shipment_id;type:uuid;not null;index"`
	DeliveryDate   time.Time       `gorm:"column:delivery_date;not null"`
	DeliveredBy    string          `gorm:"column:delivered_by;not null"`
	ReceivedBy     string          `gorm:"column:received_by;not null"`
	SignatureURL   *string         `gorm:"column:signature_url"`
	ConditionNotes *string         `gorm:"column:condition_notes"`
	Status         enums.PODStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	RejectReason   *string         `gorm:"column:reject_reason"`
	CompletedBy    *uuid.UUID      `gorm:"column:completed_by;type:uuid"`
	CompletedAt    *time.Time      `gorm:"column:completed_at"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
