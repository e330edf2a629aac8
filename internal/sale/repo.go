package sale

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mvcampos/oticaflow-backend/pkg/db/models"
	"github.com/mvcampos/oticaflow-backend/pkg/enums"
)

// ErrIntentStateChanged reports a guarded intent transition that matched no
// row: another process resolved the intent first and its decision stands.
var ErrIntentStateChanged = errors.New("sale intent state changed")

// unresolvedIntentStatuses are the states a reconciler pass may still claim.
var unresolvedIntentStatuses = []enums.SaleIntentStatus{
	enums.SaleIntentPending,
	enums.SaleIntentInventoryApplied,
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a sale repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// CreateSale persists the frozen sale document with its collections, line
// items and payment records in one create.
func (r *repository) CreateSale(ctx context.Context, sale *models.Sale) error {
	return r.db.WithContext(ctx).Create(sale).Error
}

func (r *repository) CreateServiceOrders(ctx context.Context, orders []models.ServiceOrder) error {
	if len(orders) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&orders).Error
}

func (r *repository) FindSaleByID(ctx context.Context, id uuid.UUID) (*models.Sale, error) {
	var sale models.Sale
	err := r.db.WithContext(ctx).
		Preload("Collections.Items").
		Preload("Collections.ServiceOrder").
		Preload("Payments", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("id = ?", id).
		First(&sale).Error
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *repository) SaleExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Sale{}).
		Where("id = ?", id).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) UpdateSale(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	res := r.db.WithContext(ctx).
		Model(&models.Sale{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) CreateIntent(ctx context.Context, intent *models.SaleIntent) error {
	return r.db.WithContext(ctx).Create(intent).Error
}

func (r *repository) FindIntent(ctx context.Context, saleID uuid.UUID) (*models.SaleIntent, error) {
	var intent models.SaleIntent
	err := r.db.WithContext(ctx).
		Where("sale_id = ?", saleID).
		First(&intent).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &intent, nil
}

// TransitionIntent applies updates only while the intent still sits in one of
// the expected states. Zero rows affected means the state moved underneath
// the caller, surfaced as ErrIntentStateChanged so saga steps never overwrite
// a resolution made by the reconciler or a competing finalize.
func (r *repository) TransitionIntent(ctx context.Context, saleID uuid.UUID, from []enums.SaleIntentStatus, updates map[string]any) error {
	res := r.db.WithContext(ctx).
		Model(&models.SaleIntent{}).
		Where("sale_id = ? AND status IN ?", saleID, from).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrIntentStateChanged
	}
	return nil
}

// ListStaleIntents returns unresolved intents whose last update predates the
// threshold, oldest first.
func (r *repository) ListStaleIntents(ctx context.Context, olderThan time.Time, limit int) ([]models.SaleIntent, error) {
	if limit <= 0 {
		limit = 50
	}
	var intents []models.SaleIntent
	err := r.db.WithContext(ctx).
		Where("status IN ? AND updated_at < ?", unresolvedIntentStatuses, olderThan).
		Order("updated_at ASC").
		Limit(limit).
		Find(&intents).Error
	if err != nil {
		return nil, err
	}
	return intents, nil
}

func (r *repository) FindManagerCredential(ctx context.Context, storeID uuid.UUID) (*models.ManagerCredential, error) {
	var credential models.ManagerCredential
	err := r.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		First(&credential).Error
	if err != nil {
		return nil, err
	}
	return &credential, nil
}
