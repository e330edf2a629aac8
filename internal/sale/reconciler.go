package sale

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mvcampos/oticaflow-backend/internal/inventory"
	"github.com/mvcampos/oticaflow-backend/pkg/db/models"
	"github.com/mvcampos/oticaflow-backend/pkg/enums"
	"github.com/mvcampos/oticaflow-backend/pkg/logger"
	"github.com/mvcampos/oticaflow-backend/pkg/metrics"
	"github.com/mvcampos/oticaflow-backend/pkg/outbox"
	"github.com/mvcampos/oticaflow-backend/pkg/outbox/payloads"
)

// Reconciler resolves sale intents abandoned by crashed finalizations.
// An intent whose sale document exists is completed; one without is
// reversed by replaying its recorded decrements as increments.
type Reconciler struct {
	repo       Repository
	tx         txRunner
	outbox     outboxPublisher
	inventory  inventory.Store
	metrics    *metrics.SaleMetrics
	logg       *logger.Logger
	staleAfter time.Duration
	batchSize  int
}

// ReconcilerParams collects the reconciler dependencies.
type ReconcilerParams struct {
	Repo       Repository
	Tx         txRunner
	Outbox     outboxPublisher
	Inventory  inventory.Store
	Metrics    *metrics.SaleMetrics
	Logger     *logger.Logger
	StaleAfter time.Duration
	BatchSize  int
}

// NewReconciler validates the params and builds a reconciler.
func NewReconciler(params ReconcilerParams) (*Reconciler, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("sale repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Inventory == nil {
		return nil, fmt.Errorf("inventory store required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.StaleAfter <= 0 {
		params.StaleAfter = 2 * time.Minute
	}
	if params.BatchSize <= 0 {
		params.BatchSize = 50
	}
	return &Reconciler{
		repo:       params.Repo,
		tx:         params.Tx,
		outbox:     params.Outbox,
		inventory:  params.Inventory,
		metrics:    params.Metrics,
		logg:       params.Logger,
		staleAfter: params.StaleAfter,
		batchSize:  params.BatchSize,
	}, nil
}

// RunOnce processes one batch of stale intents and reports how many were
// resolved. Individual failures are logged and skipped, the next pass
// retries them.
func (r *Reconciler) RunOnce(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-r.staleAfter)
	intents, err := r.repo.ListStaleIntents(ctx, cutoff, r.batchSize)
	if err != nil {
		return 0, fmt.Errorf("list stale intents: %w", err)
	}

	resolved := 0
	for _, intent := range intents {
		intentCtx := r.logg.WithSaleID(ctx, intent.SaleID.String())
		if err := r.resolve(intentCtx, intent); err != nil {
			r.logg.Error(intentCtx, "reconcile intent failed", err)
			continue
		}
		resolved++
	}
	return resolved, nil
}

// Run loops RunOnce until the context is done.
func (r *Reconciler) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := r.RunOnce(ctx); err != nil {
			r.logg.Error(ctx, "reconciler pass failed", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (r *Reconciler) resolve(ctx context.Context, intent models.SaleIntent) error {
	exists, err := r.repo.SaleExists(ctx, intent.SaleID)
	if err != nil {
		return fmt.Errorf("check sale document: %w", err)
	}
	if exists {
		if err := r.repo.TransitionIntent(ctx, intent.SaleID, unresolvedIntentStatuses,
			map[string]any{"status": enums.SaleIntentCompleted}); err != nil {
			if errors.Is(err, ErrIntentStateChanged) {
				return nil
			}
			return fmt.Errorf("complete intent: %w", err)
		}
		r.metrics.IncReconcilerResolution("completed")
		r.logg.Info(ctx, "stale intent completed, sale document was present")
		return nil
	}

	var applied []appliedDecrement
	if len(intent.Decrements) > 0 {
		if err := json.Unmarshal(intent.Decrements, &applied); err != nil {
			return fmt.Errorf("decode recorded decrements: %w", err)
		}
	}

	err = r.tx.WithTx(ctx, func(tx *gorm.DB) error {
		// The guarded transition claims the intent; losing the race to a
		// still-live finalize rolls the whole reversal back.
		if err := r.repo.WithTx(tx).TransitionIntent(ctx, intent.SaleID, unresolvedIntentStatuses,
			map[string]any{"status": enums.SaleIntentReversed}); err != nil {
			return err
		}
		inv := r.inventory.WithTx(tx)
		for _, dec := range applied {
			if err := inv.CompensatingIncrement(ctx, intent.StoreID, dec.ProductID, dec.Quantity); err != nil {
				return err
			}
		}
		return r.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSaleReversed,
			AggregateType: enums.AggregateSale,
			AggregateID:   intent.SaleID,
			Version:       1,
			Data: payloads.SaleReversedEvent{
				SaleID:     intent.SaleID,
				StoreID:    intent.StoreID,
				ReversedAt: time.Now().UTC(),
			},
		})
	})
	if errors.Is(err, ErrIntentStateChanged) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reverse intent: %w", err)
	}
	r.metrics.IncReconcilerResolution("reversed")
	r.logg.Info(ctx, "stale intent reversed, recorded decrements compensated")
	return nil
}
