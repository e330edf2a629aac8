package discount

import (
	"github.com/shopspring/decimal"

	"github.com/mvcampos/oticaflow-backend/pkg/enums"
	pkgerrors "github.com/mvcampos/oticaflow-backend/pkg/errors"
	"github.com/mvcampos/oticaflow-backend/pkg/money"
)

var hundred = decimal.NewFromInt(100)

// Discount is the single cart-level reduction. Exactly one of Percent or
// AmountCents is meaningful depending on Type.
type Discount struct {
	Type        enums.DiscountType `json:"type"`
	Percent     decimal.Decimal    `json:"percent"`
	AmountCents int64              `json:"amount_cents"`
}

// Validate checks the discount is well formed independent of any subtotal.
func (d Discount) Validate() error {
	switch d.Type {
	case enums.DiscountTypePercentage:
		if d.Percent.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "discount percent cannot be negative")
		}
		if d.Percent.GreaterThan(hundred) {
			return pkgerrors.New(pkgerrors.CodeValidation, "discount percent cannot exceed 100")
		}
		return nil
	case enums.DiscountTypeFixedAmount:
		if d.AmountCents < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "discount amount cannot be negative")
		}
		return nil
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown discount type")
	}
}

// ComputedAmountCents returns the cents the discount removes from the given
// subtotal. Percentages round half up to the centavo; fixed amounts clamp to
// the subtotal so the result never exceeds it.
func (d Discount) ComputedAmountCents(subtotalCents int64) (int64, error) {
	if subtotalCents < 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "subtotal cannot be negative")
	}
	if err := d.Validate(); err != nil {
		return 0, err
	}
	switch d.Type {
	case enums.DiscountTypePercentage:
		return money.PercentageOf(subtotalCents, d.Percent), nil
	default:
		return money.ClampToRange(d.AmountCents, 0, subtotalCents), nil
	}
}

// Apply computes the payable total. 0 <= result <= subtotal always holds.
func Apply(subtotalCents int64, d *Discount) (int64, error) {
	if subtotalCents < 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "subtotal cannot be negative")
	}
	if d == nil {
		return subtotalCents, nil
	}
	amount, err := d.ComputedAmountCents(subtotalCents)
	if err != nil {
		return 0, err
	}
	return subtotalCents - amount, nil
}
