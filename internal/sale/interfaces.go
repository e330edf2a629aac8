package sale

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mvcampos/oticaflow-backend/pkg/db/models"
	"github.com/mvcampos/oticaflow-backend/pkg/enums"
	"github.com/mvcampos/oticaflow-backend/pkg/outbox"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Repository persists sales, their documents and the finalization intents.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateSale(ctx context.Context, sale *models.Sale) error
	CreateServiceOrders(ctx context.Context, orders []models.ServiceOrder) error
	FindSaleByID(ctx context.Context, id uuid.UUID) (*models.Sale, error)
	SaleExists(ctx context.Context, id uuid.UUID) (bool, error)
	UpdateSale(ctx context.Context, id uuid.UUID, updates map[string]any) error

	CreateIntent(ctx context.Context, intent *models.SaleIntent) error
	FindIntent(ctx context.Context, saleID uuid.UUID) (*models.SaleIntent, error)
	TransitionIntent(ctx context.Context, saleID uuid.UUID, from []enums.SaleIntentStatus, updates map[string]any) error
	ListStaleIntents(ctx context.Context, olderThan time.Time, limit int) ([]models.SaleIntent, error)

	FindManagerCredential(ctx context.Context, storeID uuid.UUID) (*models.ManagerCredential, error)
}
