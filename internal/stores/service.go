package stores

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mvcampos/oticaflow-backend/pkg/db/models"
	pkgerrors "github.com/mvcampos/oticaflow-backend/pkg/errors"
	"github.com/mvcampos/oticaflow-backend/pkg/security"
)

type storeRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
	UpsertManagerCredential(ctx context.Context, credential *models.ManagerCredential) error
	FindManagerCredential(ctx context.Context, storeID uuid.UUID) (*models.ManagerCredential, error)
}

// Service exposes the store registry operations.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Store, error)
	SetManagerPIN(ctx context.Context, storeID uuid.UUID, pin string) error
	VerifyManagerPIN(ctx context.Context, storeID uuid.UUID, pin string) error
}

type service struct {
	repo storeRepository
}

// NewService builds the store service.
func NewService(repo storeRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("store repository required")
	}
	return &service{repo: repo}, nil
}

// Get returns an active store or CodeNotFound.
func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	store, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	if !store.Active {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "store is deactivated")
	}
	return store, nil
}

// SetManagerPIN hashes and stores the PIN used to approve voids.
func (s *service) SetManagerPIN(ctx context.Context, storeID uuid.UUID, pin string) error {
	if _, err := s.Get(ctx, storeID); err != nil {
		return err
	}
	hash, err := security.HashPIN(pin)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid manager pin")
	}
	if err := s.repo.UpsertManagerCredential(ctx, &models.ManagerCredential{
		StoreID: storeID,
		PINHash: hash,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store manager credential")
	}
	return nil
}

// VerifyManagerPIN checks a PIN against the stored credential.
func (s *service) VerifyManagerPIN(ctx context.Context, storeID uuid.UUID, pin string) error {
	credential, err := s.repo.FindManagerCredential(ctx, storeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "no manager pin configured for store")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load manager credential")
	}
	if !security.VerifyPIN(pin, credential.PINHash) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "manager pin rejected")
	}
	return nil
}
