package stores

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mvcampos/oticaflow-backend/pkg/db/models"
	pkgerrors "github.com/mvcampos/oticaflow-backend/pkg/errors"
)

func errCode(err error) pkgerrors.Code {
	if typed := pkgerrors.As(err); typed != nil {
		return typed.Code()
	}
	return ""
}

type stubStoreRepo struct {
	stores      map[uuid.UUID]*models.Store
	credentials map[uuid.UUID]*models.ManagerCredential
}

func newStubStoreRepo() *stubStoreRepo {
	return &stubStoreRepo{
		stores:      map[uuid.UUID]*models.Store{},
		credentials: map[uuid.UUID]*models.ManagerCredential{},
	}
}

func (s *stubStoreRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	store, ok := s.stores[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return store, nil
}

func (s *stubStoreRepo) UpsertManagerCredential(ctx context.Context, credential *models.ManagerCredential) error {
	s.credentials[credential.StoreID] = credential
	return nil
}

func (s *stubStoreRepo) FindManagerCredential(ctx context.Context, storeID uuid.UUID) (*models.ManagerCredential, error) {
	credential, ok := s.credentials[storeID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return credential, nil
}

func TestSetAndVerifyManagerPIN(t *testing.T) {
	repo := newStubStoreRepo()
	storeID := uuid.New()
	repo.stores[storeID] = &models.Store{ID: storeID, Name: "Otica Centro", Active: true}

	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if err := svc.SetManagerPIN(context.Background(), storeID, "4321"); err != nil {
		t.Fatalf("set pin: %v", err)
	}
	if repo.credentials[storeID].PINHash == "4321" {
		t.Fatal("pin must be stored hashed")
	}

	if err := svc.VerifyManagerPIN(context.Background(), storeID, "4321"); err != nil {
		t.Fatalf("verify pin: %v", err)
	}
	err = svc.VerifyManagerPIN(context.Background(), storeID, "0000")
	if errCode(err) != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestSetManagerPINRejectsWeakPIN(t *testing.T) {
	repo := newStubStoreRepo()
	storeID := uuid.New()
	repo.stores[storeID] = &models.Store{ID: storeID, Active: true}

	svc, _ := NewService(repo)
	err := svc.SetManagerPIN(context.Background(), storeID, "12")
	if errCode(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGetRejectsDeactivatedStore(t *testing.T) {
	repo := newStubStoreRepo()
	storeID := uuid.New()
	repo.stores[storeID] = &models.Store{ID: storeID, Active: false}

	svc, _ := NewService(repo)
	if _, err := svc.Get(context.Background(), storeID); errCode(err) != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}

	if _, err := svc.Get(context.Background(), uuid.New()); errCode(err) != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}

	if err := svc.VerifyManagerPIN(context.Background(), uuid.New(), "4321"); errCode(err) != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden for missing credential, got %v", err)
	}
}
