package enums

import "fmt"

// SaleStatus tracks the lifecycle of a sale document.
type SaleStatus string

const (
	SaleStatusDraft     SaleStatus = "draft"
	SaleStatusFinalized SaleStatus = "finalized"
	SaleStatusVoided    SaleStatus = "voided"
)

var validSaleStatuses = []SaleStatus{
	SaleStatusDraft,
	SaleStatusFinalized,
	SaleStatusVoided,
}

// String implements fmt.Stringer.
func (s SaleStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SaleStatus.
func (s SaleStatus) IsValid() bool {
	for _, candidate := range validSaleStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the sale can no longer change state.
func (s SaleStatus) IsTerminal() bool {
	return s == SaleStatusFinalized || s == SaleStatusVoided
}

// ParseSaleStatus converts raw input into a SaleStatus.
func ParseSaleStatus(value string) (SaleStatus, error) {
	for _, candidate := range validSaleStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sale status %q", value)
}
