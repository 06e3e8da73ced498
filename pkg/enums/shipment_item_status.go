package enums

import "fmt"

// ShipmentItemStatus tracks the stage of an individual shipment line.
type ShipmentItemStatus string

const (
	ShipmentItemStatusPending   ShipmentItemStatus = "pending"
	ShipmentItemStatusAllocated ShipmentItemStatus = "allocated"
	ShipmentItemStatusPicked    ShipmentItemStatus = "picked"
	ShipmentItemStatusPacked    ShipmentItemStatus = "packed"
	ShipmentItemStatusShipped   ShipmentItemStatus = "shipped"
)

var validShipmentItemStatuses = []ShipmentItemStatus{
	ShipmentItemStatusPending,
	ShipmentItemStatusAllocated,
	ShipmentItemStatusPicked,
	ShipmentItemStatusPacked,
	ShipmentItemStatusShipped,
}

var shipmentItemStageRank = map[ShipmentItemStatus]int{
	ShipmentItemStatusPending:   0,
	ShipmentItemStatusAllocated: 1,
	ShipmentItemStatusPicked:    2,
	ShipmentItemStatusPacked:    3,
	ShipmentItemStatusShipped:   4,
}

// String implements fmt.Stringer.
func (s ShipmentItemStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ShipmentItemStatus.
func (s ShipmentItemStatus) IsValid() bool {
	for _, candidate := range validShipmentItemStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// StageRank returns the position of the status in the item progression.
func (s ShipmentItemStatus) StageRank() int {
	if rank, ok := shipmentItemStageRank[s]; ok {
		return rank
	}
	return -1
}

// AtLeast reports whether the item has reached the given stage.
func (s ShipmentItemStatus) AtLeast(stage ShipmentItemStatus) bool {
	return s.StageRank() >= stage.StageRank() && s.StageRank() >= 0
}

// ParseShipmentItemStatus converts raw input into a ShipmentItemStatus.
func ParseShipmentItemStatus(value string) (ShipmentItemStatus, error) {
	for _, candidate := range validShipmentItemStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid shipment item status %q", value)
}
