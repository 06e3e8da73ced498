package enums

import "fmt"

// ShipmentStatus tracks the lifecycle of a shipment.
type ShipmentStatus string

const (
	ShipmentStatusDraft     ShipmentStatus = "draft"
	ShipmentStatusPending   ShipmentStatus = "pending"
	ShipmentStatusAllocated ShipmentStatus = "allocated"
	ShipmentStatusPicked    ShipmentStatus = "picked"
	ShipmentStatusPacked    ShipmentStatus = "packed"
	ShipmentStatusShipped   ShipmentStatus = "shipped"
	ShipmentStatusInTransit ShipmentStatus = "in_transit"
	ShipmentStatusDelivered ShipmentStatus = "delivered"
	ShipmentStatusCancelled ShipmentStatus = "cancelled"
	ShipmentStatusReturned  ShipmentStatus = "returned"
)

var validShipmentStatuses = []ShipmentStatus{
	ShipmentStatusDraft,
	ShipmentStatusPending,
	ShipmentStatusAllocated,
	ShipmentStatusPicked,
	ShipmentStatusPacked,
	ShipmentStatusShipped,
	ShipmentStatusInTransit,
	ShipmentStatusDelivered,
	ShipmentStatusCancelled,
	ShipmentStatusReturned,
}

// shipmentStageRank orders the forward fulfillment stages. Cancelled and
// Returned are side states and have no rank.
var shipmentStageRank = map[ShipmentStatus]int{
	ShipmentStatusDraft:     0,
	ShipmentStatusPending:   1,
	ShipmentStatusAllocated: 2,
	ShipmentStatusPicked:    3,
	ShipmentStatusPacked:    4,
	ShipmentStatusShipped:   5,
	ShipmentStatusInTransit: 6,
	ShipmentStatusDelivered: 7,
}

// String implements fmt.Stringer.
func (s ShipmentStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ShipmentStatus.
func (s ShipmentStatus) IsValid() bool {
	for _, candidate := range validShipmentStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// StageRank returns the forward-stage rank, or -1 for side states.
func (s ShipmentStatus) StageRank() int {
	if rank, ok := shipmentStageRank[s]; ok {
		return rank
	}
	return -1
}

// ParseShipmentStatus converts raw input into a ShipmentStatus.
func ParseShipmentStatus(value string) (ShipmentStatus, error) {
	for _, candidate := range validShipmentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid shipment status %q", value)
}
