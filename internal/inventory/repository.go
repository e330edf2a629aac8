package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mvcampos/oticaflow-backend/internal/repo"
	"github.com/mvcampos/oticaflow-backend/pkg/db/models"
	pkgerrors "github.com/mvcampos/oticaflow-backend/pkg/errors"
)

// Store is the versioned inventory contract the finalization path depends
// on. ConditionalDecrement only succeeds when the caller's version still
// matches, which serializes concurrent decrements of the same product.
type Store interface {
	WithTx(tx *gorm.DB) Store
	ReadQuantity(ctx context.Context, storeID, productID uuid.UUID) (qty int, version int64, err error)
	ConditionalDecrement(ctx context.Context, storeID, productID uuid.UUID, qty int, expectedVersion int64) error
	CompensatingIncrement(ctx context.Context, storeID, productID uuid.UUID, qty int) error
	Upsert(ctx context.Context, record *models.InventoryRecord) error
}

type store struct {
	base repo.Base
}

// NewStore builds the gorm-backed inventory store.
func NewStore(base repo.Base) Store {
	return &store{base: base}
}

func (s *store) WithTx(tx *gorm.DB) Store {
	return &store{base: s.base.WithTx(tx)}
}

// ReadQuantity returns the current on-hand quantity and its version. A
// missing row reads as zero stock so callers get InsufficientStock, not a
// lookup failure.
func (s *store) ReadQuantity(ctx context.Context, storeID, productID uuid.UUID) (int, int64, error) {
	var record models.InventoryRecord
	err := s.base.DB(ctx).
		Where("store_id = ? AND product_id = ?", storeID, productID).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, 0, nil
		}
		return 0, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read inventory record")
	}
	return record.QuantityOnHand, record.Version, nil
}

// ConditionalDecrement applies one optimistic-concurrency write. The guard
// requires both the expected version and sufficient quantity; distinguishing
// which one failed needs a follow-up read, done here so the caller can decide
// between retrying (version moved) and giving up (stock gone).
func (s *store) ConditionalDecrement(ctx context.Context, storeID, productID uuid.UUID, qty int, expectedVersion int64) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "decrement quantity must be positive")
	}

	res := s.base.DB(ctx).Exec(`
		UPDATE inventory_records
		SET quantity_on_hand = quantity_on_hand - ?,
			version = version + 1,
			updated_at = CURRENT_TIMESTAMP
		WHERE store_id = ? AND product_id = ? AND version = ? AND quantity_on_hand >= ?
	`, qty, storeID, productID, expectedVersion, qty)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "decrement inventory")
	}
	if res.RowsAffected == 1 {
		return nil
	}

	available, version, err := s.ReadQuantity(ctx, storeID, productID)
	if err != nil {
		return err
	}
	if available < qty {
		return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
			WithDetails(map[string]any{
				"product_id": productID,
				"available":  available,
				"requested":  qty,
			})
	}
	return pkgerrors.New(pkgerrors.CodeStockConflict,
		fmt.Sprintf("inventory version moved from %d to %d", expectedVersion, version)).
		WithDetails(map[string]any{"product_id": productID})
}

// CompensatingIncrement returns stock removed by a decrement that is being
// reversed. It bumps the version like any other write.
func (s *store) CompensatingIncrement(ctx context.Context, storeID, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "increment quantity must be positive")
	}
	res := s.base.DB(ctx).Exec(`
		UPDATE inventory_records
		SET quantity_on_hand = quantity_on_hand + ?,
			version = version + 1,
			updated_at = CURRENT_TIMESTAMP
		WHERE store_id = ? AND product_id = ?
	`, qty, storeID, productID)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "increment inventory")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "inventory record not found")
	}
	return nil
}

// Upsert creates or replaces the inventory row, used by stock intake.
func (s *store) Upsert(ctx context.Context, record *models.InventoryRecord) error {
	err := s.base.DB(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "store_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"quantity_on_hand": record.QuantityOnHand,
				"version":          gorm.Expr("inventory_records.version + 1"),
			}),
		}).
		Create(record).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert inventory record")
	}
	return nil
}
