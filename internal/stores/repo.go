package stores

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mvcampos/oticaflow-backend/pkg/db/models"
)

// Repository persists stores and their manager credentials.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires the repository to a GORM connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	var store models.Store
	if err := r.db.WithContext(ctx).First(&store, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *Repository) Create(ctx context.Context, store *models.Store) error {
	return r.db.WithContext(ctx).Create(store).Error
}

// UpsertManagerCredential replaces the store's manager PIN hash.
func (r *Repository) UpsertManagerCredential(ctx context.Context, credential *models.ManagerCredential) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "store_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"pin_hash", "updated_at"}),
		}).
		Create(credential).Error
}

func (r *Repository) FindManagerCredential(ctx context.Context, storeID uuid.UUID) (*models.ManagerCredential, error) {
	var credential models.ManagerCredential
	if err := r.db.WithContext(ctx).First(&credential, "store_id = ?", storeID).Error; err != nil {
		return nil, err
	}
	return &credential, nil
}
