package enums

import "fmt"

// PODStatus tracks a proof-of-delivery attestation.
type PODStatus string

const (
	PODStatusPending   PODStatus = "pending"
	PODStatusCompleted PODStatus = "completed"
	PODStatusRejected  PODStatus = "rejected"
)

var validPODStatuses = []PODStatus{
	PODStatusPending,
	PODStatusCompleted,
	PODStatusRejected,
}

// String implements fmt.Stringer.
func (s PODStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known PODStatus.
func (s PODStatus) IsValid() bool {
	for _, candidate := range validPODStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParsePODStatus converts raw input into a PODStatus.
func ParsePODStatus(value string) (PODStatus, error) {
	for _, candidate := range validPODStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid pod status %q", value)
}
