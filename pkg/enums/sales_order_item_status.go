package enums

import "fmt"

// SalesOrderItemStatus tracks fulfillment progress of an order line.
type SalesOrderItemStatus string

const (
	SalesOrderItemStatusPending   SalesOrderItemStatus = "pending"
	SalesOrderItemStatusAllocated SalesOrderItemStatus = "allocated"
	SalesOrderItemStatusShipped   SalesOrderItemStatus = "shipped"
	SalesOrderItemStatusCancelled SalesOrderItemStatus = "cancelled"
)

var validSalesOrderItemStatuses = []SalesOrderItemStatus{
	SalesOrderItemStatusPending,
	SalesOrderItemStatusAllocated,
	SalesOrderItemStatusShipped,
	SalesOrderItemStatusCancelled,
}

// String implements fmt.Stringer.
func (s SalesOrderItemStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SalesOrderItemStatus.
func (s SalesOrderItemStatus) IsValid() bool {
	for _, candidate := range validSalesOrderItemStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSalesOrderItemStatus converts raw input into a SalesOrderItemStatus.
func ParseSalesOrderItemStatus(value string) (SalesOrderItemStatus, error) {
	for _, candidate := range validSalesOrderItemStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sales order item status %q", value)
}
