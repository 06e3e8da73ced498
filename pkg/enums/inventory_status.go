package enums

import "fmt"

// InventoryStatus is the wire status of a lot in the external inventory store.
// Only available -> reserved is ever requested by this service.
type InventoryStatus string

const (
	InventoryStatusAvailable  InventoryStatus = "available"
	InventoryStatusReserved   InventoryStatus = "reserved"
	InventoryStatusQuarantine InventoryStatus = "quarantine"
	InventoryStatusHold       InventoryStatus = "hold"
	InventoryStatusRejected   InventoryStatus = "rejected"
	InventoryStatusInTransit  InventoryStatus = "in_transit"
)

var validInventoryStatuses = []InventoryStatus{
	InventoryStatusAvailable,
	InventoryStatusReserved,
	InventoryStatusQuarantine,
	InventoryStatusHold,
	InventoryStatusRejected,
	InventoryStatusInTransit,
}

// String implements fmt.Stringer.
func (s InventoryStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known InventoryStatus.
func (s InventoryStatus) IsValid() bool {
	for _, candidate := range validInventoryStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseInventoryStatus converts raw input into an InventoryStatus.
func ParseInventoryStatus(value string) (InventoryStatus, error) {
	for _, candidate := range validInventoryStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid inventory status %q", value)
}
