package enums

import "fmt"

// SalesOrderStatus tracks the lifecycle of a sales order.
type SalesOrderStatus string

const (
	SalesOrderStatusDraft           SalesOrderStatus = "draft"
	SalesOrderStatusPendingApproval SalesOrderStatus = "pending_approval"
	SalesOrderStatusApproved        SalesOrderStatus = "approved"
	SalesOrderStatusInProgress      SalesOrderStatus = "in_progress"
	SalesOrderStatusAllocated       SalesOrderStatus = "allocated"
	SalesOrderStatusPicked          SalesOrderStatus = "picked"
	SalesOrderStatusShipped         SalesOrderStatus = "shipped"
	SalesOrderStatusDelivered       SalesOrderStatus = "delivered"
	SalesOrderStatusCancelled       SalesOrderStatus = "cancelled"
	SalesOrderStatusReturned        SalesOrderStatus = "returned"
)

var validSalesOrderStatuses = []SalesOrderStatus{
	SalesOrderStatusDraft,
	SalesOrderStatusPendingApproval,
	SalesOrderStatusApproved,
	SalesOrderStatusInProgress,
	SalesOrderStatusAllocated,
	SalesOrderStatusPicked,
	SalesOrderStatusShipped,
	SalesOrderStatusDelivered,
	SalesOrderStatusCancelled,
	SalesOrderStatusReturned,
}

// salesOrderTransitions is the authoritative whitelist. Any edge not listed
// here is rejected.
var salesOrderTransitions = map[SalesOrderStatus][]SalesOrderStatus{
	SalesOrderStatusDraft:           {SalesOrderStatusPendingApproval, SalesOrderStatusCancelled},
	SalesOrderStatusPendingApproval: {SalesOrderStatusApproved, SalesOrderStatusCancelled},
	SalesOrderStatusApproved:        {SalesOrderStatusInProgress, SalesOrderStatusCancelled},
	SalesOrderStatusInProgress:      {SalesOrderStatusAllocated, SalesOrderStatusCancelled},
	SalesOrderStatusAllocated:       {SalesOrderStatusPicked, SalesOrderStatusCancelled},
	SalesOrderStatusPicked:          {SalesOrderStatusShipped, SalesOrderStatusCancelled},
	SalesOrderStatusShipped:         {SalesOrderStatusDelivered, SalesOrderStatusReturned},
	SalesOrderStatusDelivered:       {SalesOrderStatusReturned},
	SalesOrderStatusCancelled:       {},
	SalesOrderStatusReturned:        {},
}

// salesOrderFulfillmentChain is the linear forward progression a fulfilling
// order moves along. Used to walk multi-stage advances edge by edge.
var salesOrderFulfillmentChain = []SalesOrderStatus{
	SalesOrderStatusApproved,
	SalesOrderStatusInProgress,
	SalesOrderStatusAllocated,
	SalesOrderStatusPicked,
	SalesOrderStatusShipped,
	SalesOrderStatusDelivered,
}

// String implements fmt.Stringer.
func (s SalesOrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SalesOrderStatus.
func (s SalesOrderStatus) IsValid() bool {
	for _, candidate := range validSalesOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is allowed.
func (s SalesOrderStatus) IsTerminal() bool {
	return len(salesOrderTransitions[s]) == 0 && s.IsValid()
}

// CanTransition reports whether from -> to is a whitelisted edge.
func (s SalesOrderStatus) CanTransition(to SalesOrderStatus) bool {
	for _, candidate := range salesOrderTransitions[s] {
		if candidate == to {
			return true
		}
	}
	return false
}

// FulfillmentPath returns the sequence of intermediate statuses (from
// exclusive, to inclusive) when to lies further along the fulfillment chain
// than from. It returns false when to is not reachable that way, including
// any path that would pass through a terminal or cancel edge.
func FulfillmentPath(from, to SalesOrderStatus) ([]SalesOrderStatus, bool) {
	fromIdx, toIdx := -1, -1
	for i, stage := range salesOrderFulfillmentChain {
		if stage == from {
			fromIdx = i
		}
		if stage == to {
			toIdx = i
		}
	}
	if fromIdx == -1 || toIdx == -1 || toIdx <= fromIdx {
		return nil, false
	}
	return salesOrderFulfillmentChain[fromIdx+1 : toIdx+1], true
}

// ParseSalesOrderStatus converts raw input into a SalesOrderStatus.
func ParseSalesOrderStatus(value string) (SalesOrderStatus, error) {
	for _, candidate := range validSalesOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sales order status %q", value)
}
