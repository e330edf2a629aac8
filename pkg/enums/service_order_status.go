package enums

import "fmt"

// ServiceOrderStatus tracks the optical assembly requirement of a collection.
type ServiceOrderStatus string

const (
	ServiceOrderNotRequired   ServiceOrderStatus = "not_required"
	ServiceOrderPendingIntake ServiceOrderStatus = "pending_intake"
	ServiceOrderComplete      ServiceOrderStatus = "complete"
)

var validServiceOrderStatuses = []ServiceOrderStatus{
	ServiceOrderNotRequired,
	ServiceOrderPendingIntake,
	ServiceOrderComplete,
}

// String implements fmt.Stringer.
func (s ServiceOrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ServiceOrderStatus.
func (s ServiceOrderStatus) IsValid() bool {
	for _, candidate := range validServiceOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// Satisfied reports whether the status blocks finalization.
func (s ServiceOrderStatus) Satisfied() bool {
	return s == ServiceOrderNotRequired || s == ServiceOrderComplete
}

// ParseServiceOrderStatus converts raw input into a ServiceOrderStatus.
func ParseServiceOrderStatus(value string) (ServiceOrderStatus, error) {
	for _, candidate := range validServiceOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid service order status %q", value)
}
