package enums

import "fmt"

// SaleIntentStatus tracks the commit protocol of a finalization attempt.
type SaleIntentStatus string

const (
	SaleIntentPending          SaleIntentStatus = "pending"
	SaleIntentInventoryApplied SaleIntentStatus = "inventory_applied"
	SaleIntentCompleted        SaleIntentStatus = "completed"
	SaleIntentReversed         SaleIntentStatus = "reversed"
)

var validSaleIntentStatuses = []SaleIntentStatus{
	SaleIntentPending,
	SaleIntentInventoryApplied,
	SaleIntentCompleted,
	SaleIntentReversed,
}

// String implements fmt.Stringer.
func (s SaleIntentStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SaleIntentStatus.
func (s SaleIntentStatus) IsValid() bool {
	for _, candidate := range validSaleIntentStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSaleIntentStatus converts raw input into a SaleIntentStatus.
func ParseSaleIntentStatus(value string) (SaleIntentStatus, error) {
	for _, candidate := range validSaleIntentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sale intent status %q", value)
}
