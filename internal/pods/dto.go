package pods

import (
	"time"

	"github.com/google/uuid"

	"github.com/dmrozas/pharmaflow-backend/pkg/db/models"
	"github.com/dmrozas/pharmaflow-backend/pkg/enums"
	"github.com/dmrozas/pharmaflow-backend/pkg/pagination"
)

// CreateInput captures the data required to record a proof of delivery.
type CreateInput struct {
	ShipmentID     uuid.UUID  `json:"shipment_id"`
	DeliveryDate   *time.Time `json:"delivery_date,omitempty"`
	DeliveredBy    string     `json:"delivered_by"`
	ReceivedBy     string     `json:"received_by"`
	SignatureURL   *string    `json:"signature_url,omitempty"`
	ConditionNotes *string    `json:"condition_notes,omitempty"`
}

// Filters describe the inputs supported by the POD list.
type Filters struct {
	ShipmentID *uuid.UUID
	Status     *enums.PODStatus
}

// List wraps the paginated records plus page metadata.
type List struct {
	PODs []models.ProofOfDelivery `json:"pods"`
	Meta pagination.Meta          `json:"meta"`
}
