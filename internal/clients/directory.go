package clients

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mvcampos/oticaflow-backend/internal/repo"
	"github.com/mvcampos/oticaflow-backend/pkg/db/models"
	pkgerrors "github.com/mvcampos/oticaflow-backend/pkg/errors"
)

// Directory looks clients up and answers installment-credit questions.
type Directory interface {
	WithTx(tx *gorm.DB) Directory
	FindByID(ctx context.Context, id uuid.UUID) (*models.Client, error)
	Search(ctx context.Context, query string, limit int) ([]models.Client, error)
	CreditHeadroomCents(ctx context.Context, clientID uuid.UUID) (int64, error)
	ConsumeCredit(ctx context.Context, clientID uuid.UUID, amountCents int64) error
	ReleaseCredit(ctx context.Context, clientID uuid.UUID, amountCents int64) error
}

type directory struct {
	base repo.Base
}

// NewDirectory builds the gorm-backed client directory.
func NewDirectory(base repo.Base) Directory {
	return &directory{base: base}
}

func (d *directory) WithTx(tx *gorm.DB) Directory {
	return &directory{base: d.base.WithTx(tx)}
}

func (d *directory) FindByID(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	var client models.Client
	err := d.base.DB(ctx).Where("id = ?", id).First(&client).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "client not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find client")
	}
	return &client, nil
}

// Search matches by document prefix or case-insensitive name fragment, the
// two ways the counter looks customers up.
func (d *directory) Search(ctx context.Context, query string, limit int) ([]models.Client, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "search query required")
	}
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	var clients []models.Client
	err := d.base.DB(ctx).
		Where("document LIKE ? OR LOWER(full_name) LIKE ?", query+"%", "%"+strings.ToLower(query)+"%").
		Order("full_name ASC").
		Limit(limit).
		Find(&clients).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "search clients")
	}
	return clients, nil
}

// CreditHeadroomCents is the installment credit still open to the client.
func (d *directory) CreditHeadroomCents(ctx context.Context, clientID uuid.UUID) (int64, error) {
	client, err := d.FindByID(ctx, clientID)
	if err != nil {
		return 0, err
	}
	headroom := client.CreditLimitCents - client.CreditUsedCents
	if headroom < 0 {
		return 0, nil
	}
	return headroom, nil
}

// ConsumeCredit books an installment-credit allocation against the client's
// limit. The guard re-checks the limit so concurrent sales cannot jointly
// exceed it.
func (d *directory) ConsumeCredit(ctx context.Context, clientID uuid.UUID, amountCents int64) error {
	if amountCents <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "credit amount must be positive")
	}
	res := d.base.DB(ctx).Exec(`
		UPDATE clients
		SET credit_used_cents = credit_used_cents + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND credit_used_cents + ? <= credit_limit_cents
	`, amountCents, clientID, amountCents)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "consume credit")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "insufficient credit headroom").
			WithDetails(map[string]any{"client_id": clientID})
	}
	return nil
}

// ReleaseCredit returns installment credit when a sale is voided or reversed.
func (d *directory) ReleaseCredit(ctx context.Context, clientID uuid.UUID, amountCents int64) error {
	if amountCents <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "credit amount must be positive")
	}
	res := d.base.DB(ctx).Exec(`
		UPDATE clients
		SET credit_used_cents = GREATEST(credit_used_cents - ?, 0),
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, amountCents, clientID)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "release credit")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "client not found")
	}
	return nil
}
