package payment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/mvcampos/oticaflow-backend/pkg/enums"
	pkgerrors "github.com/mvcampos/oticaflow-backend/pkg/errors"
)

// Authorizer is the uniform gateway contract every payment method sits
// behind.
type Authorizer interface {
	Authorize(ctx context.Context, allocation Allocation) (Confirmation, error)
}

// GatewayRegistry maps each method to its gateway.
type GatewayRegistry map[enums.PaymentMethod]Authorizer

// AuthorizeAll authorizes every unconfirmed entry concurrently, each call
// bounded by its own timeout. A failure or timeout on one entry never
// discards confirmations already obtained on others; the plan simply stays
// unauthorized until the failed entries are resolved or replaced.
func AuthorizeAll(ctx context.Context, plan *Plan, gateways GatewayRegistry, timeout time.Duration) error {
	if plan == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment plan required")
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	type outcome struct {
		index        int
		confirmation Confirmation
		err          error
	}

	var wg sync.WaitGroup
	results := make(chan outcome, len(plan.Entries))

	for i := range plan.Entries {
		if plan.Entries[i].Confirmation != nil {
			continue
		}
		gateway, ok := gateways[plan.Entries[i].Method]
		if !ok {
			results <- outcome{index: i, err: pkgerrors.New(pkgerrors.CodeDependency,
				fmt.Sprintf("no gateway for method %s", plan.Entries[i].Method))}
			continue
		}

		wg.Add(1)
		go func(index int, entry Allocation, gw Authorizer) {
			defer wg.Done()
			authCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			confirmation, err := gw.Authorize(authCtx, entry)
			results <- outcome{index: index, confirmation: confirmation, err: err}
		}(i, plan.Entries[i], gateway)
	}

	wg.Wait()
	close(results)

	var combined error
	for res := range results {
		if res.err != nil {
			combined = multierr.Append(combined, fmt.Errorf("entry %d (%s): %w",
				res.index, plan.Entries[res.index].Method,
				pkgerrors.Wrap(pkgerrors.CodePaymentAuthorization, res.err, "authorization failed")))
			continue
		}
		confirmation := res.confirmation
		plan.Entries[res.index].Confirmation = &confirmation
	}
	return combined
}

// FullyAuthorized reports whether every entry holds a confirmation.
func FullyAuthorized(plan *Plan) bool {
	for _, entry := range plan.Entries {
		if entry.Confirmation == nil {
			return false
		}
	}
	return true
}
