package payment

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/google/uuid"

	"github.com/mvcampos/oticaflow-backend/pkg/enums"
	pkgerrors "github.com/mvcampos/oticaflow-backend/pkg/errors"
)

// ToleranceCents absorbs rounding: finalize may proceed while the remaining
// balance is at most one centavo.
const ToleranceCents int64 = 1

// Confirmation is a gateway's proof that an allocation was authorized.
type Confirmation struct {
	Ref          string    `json:"ref"`
	AuthorizedAt time.Time `json:"authorized_at"`
}

// Allocation assigns part of the payable total to one payment method.
type Allocation struct {
	Method       enums.PaymentMethod `json:"method"`
	AmountCents  int64               `json:"amount_cents"`
	Metadata     Metadata            `json:"metadata"`
	Confirmation *Confirmation       `json:"confirmation,omitempty"`
}

// Plan is the ordered set of allocations against a fixed payable total.
// The sum of entry amounts never exceeds PayableCents, not even transiently.
type Plan struct {
	PayableCents int64        `json:"payable_cents"`
	Entries      []Allocation `json:"entries"`
}

// CreditChecker reports how much installment credit a client still has.
type CreditChecker interface {
	CreditHeadroomCents(ctx context.Context, clientID uuid.UUID) (int64, error)
}

// OverAllocationDetails identifies the offending entry on an over-allocation.
type OverAllocationDetails struct {
	MethodIndex    int   `json:"method_index"`
	PayableCents   int64 `json:"payable_cents"`
	AllocatedCents int64 `json:"allocated_cents"`
}

// NewPlan starts an empty plan for the given payable total.
func NewPlan(payableCents int64) (*Plan, error) {
	if payableCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payable total cannot be negative")
	}
	return &Plan{PayableCents: payableCents}, nil
}

// AddMethod appends an entry with amount zero and the method's default
// metadata, returning its index.
func (p *Plan) AddMethod(method enums.PaymentMethod) (int, error) {
	if !method.IsValid() {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method")
	}
	p.Entries = append(p.Entries, Allocation{
		Method:   method,
		Metadata: DefaultMetadata(method),
	})
	return len(p.Entries) - 1, nil
}

// SetAmount replaces an entry's amount. It fails rather than clamps when the
// new total would exceed the payable amount, the operator must be told.
// Changing an amount discards the entry's previous authorization.
func (p *Plan) SetAmount(index int, amountCents int64) error {
	if index < 0 || index >= len(p.Entries) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "payment entry not found")
	}
	if amountCents < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount cannot be negative")
	}

	others := p.AllocatedCents() - p.Entries[index].AmountCents
	if others+amountCents > p.PayableCents {
		return pkgerrors.New(pkgerrors.CodeOverAllocation, "allocation would exceed payable total").
			WithDetails(OverAllocationDetails{
				MethodIndex:    index,
				PayableCents:   p.PayableCents,
				AllocatedCents: others + amountCents,
			})
	}
	if p.Entries[index].AmountCents != amountCents {
		p.Entries[index].Confirmation = nil
	}
	p.Entries[index].AmountCents = amountCents
	return nil
}

// SetMetadata replaces an entry's metadata and discards its authorization.
func (p *Plan) SetMetadata(index int, meta Metadata) error {
	if index < 0 || index >= len(p.Entries) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "payment entry not found")
	}
	p.Entries[index].Metadata = meta
	p.Entries[index].Confirmation = nil
	return nil
}

// RemoveMethod drops an entry, keeping the remaining order.
func (p *Plan) RemoveMethod(index int) error {
	if index < 0 || index >= len(p.Entries) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "payment entry not found")
	}
	p.Entries = append(p.Entries[:index], p.Entries[index+1:]...)
	return nil
}

// SetPayable moves the plan to a new payable total, typically after a
// discount change. It refuses totals below what is already allocated.
func (p *Plan) SetPayable(payableCents int64) error {
	if payableCents < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "payable total cannot be negative")
	}
	if allocated := p.AllocatedCents(); allocated > payableCents {
		return pkgerrors.New(pkgerrors.CodeOverAllocation, "allocated amounts exceed the new payable total").
			WithDetails(OverAllocationDetails{
				MethodIndex:    -1,
				PayableCents:   payableCents,
				AllocatedCents: allocated,
			})
	}
	p.PayableCents = payableCents
	return nil
}

// AllocatedCents sums every entry amount.
func (p *Plan) AllocatedCents() int64 {
	var total int64
	for _, entry := range p.Entries {
		total += entry.AmountCents
	}
	return total
}

// RemainingCents is the unallocated balance, never negative.
func (p *Plan) RemainingCents() int64 {
	remaining := p.PayableCents - p.AllocatedCents()
	if remaining < 0 {
		return 0
	}
	return remaining
}

// IsSettled reports whether the remaining balance is within tolerance.
func (p *Plan) IsSettled() bool {
	return p.RemainingCents() <= ToleranceCents
}

// Validate checks every entry, reporting per-entry failures combined into a
// single error so the caller can correct just the offending methods.
func (p *Plan) Validate(ctx context.Context, credit CreditChecker) error {
	var combined error
	for i, entry := range p.Entries {
		if entry.AmountCents <= 0 {
			combined = multierr.Append(combined, fmt.Errorf("entry %d (%s): %w", i, entry.Method,
				pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")))
			continue
		}
		if err := entry.Metadata.validateFor(entry.Method); err != nil {
			combined = multierr.Append(combined, fmt.Errorf("entry %d (%s): %w", i, entry.Method, err))
			continue
		}
		if entry.Method == enums.PaymentMethodInstallmentCredit {
			if credit == nil {
				combined = multierr.Append(combined, fmt.Errorf("entry %d (%s): %w", i, entry.Method,
					pkgerrors.New(pkgerrors.CodeDependency, "credit checker unavailable")))
				continue
			}
			headroom, err := credit.CreditHeadroomCents(ctx, entry.Metadata.Installment.ClientID)
			if err != nil {
				combined = multierr.Append(combined, fmt.Errorf("entry %d (%s): %w", i, entry.Method, err))
				continue
			}
			if headroom < entry.AmountCents {
				combined = multierr.Append(combined, fmt.Errorf("entry %d (%s): %w", i, entry.Method,
					pkgerrors.New(pkgerrors.CodeValidation, "insufficient credit headroom")))
			}
		}
	}
	return combined
}
