package serviceorder

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/mvcampos/oticaflow-backend/internal/cart"
	"github.com/mvcampos/oticaflow-backend/pkg/enums"
	pkgerrors "github.com/mvcampos/oticaflow-backend/pkg/errors"
)

// CollectionState is the per-collection service-order status plus the intake
// payload once captured. Fingerprint records which items the intake was
// completed against so a later cart edit reopens the form.
type CollectionState struct {
	Status      enums.ServiceOrderStatus `json:"status"`
	Payload     *IntakePayload           `json:"payload,omitempty"`
	Fingerprint string                   `json:"fingerprint,omitempty"`
}

// Resolver tracks service-order requirements across a cart's collections.
// It serializes with the checkout session, all state is in States.
type Resolver struct {
	States map[uuid.UUID]*CollectionState `json:"states"`
}

// NewResolver returns an empty resolver.
func NewResolver() *Resolver {
	return &Resolver{States: make(map[uuid.UUID]*CollectionState)}
}

// Evaluate re-derives every collection's status from the cart. Collections
// that no longer exist are dropped; a completed intake survives only while
// the collection's item composition is unchanged.
func (r *Resolver) Evaluate(c *cart.Cart) {
	if r.States == nil {
		r.States = make(map[uuid.UUID]*CollectionState)
	}

	seen := make(map[uuid.UUID]bool, len(c.Collections))
	for _, coll := range c.Collections {
		seen[coll.ID] = true
		state := r.States[coll.ID]
		if state == nil {
			state = &CollectionState{}
			r.States[coll.ID] = state
		}

		if !coll.RequiresAssembly() {
			state.Status = enums.ServiceOrderNotRequired
			state.Payload = nil
			state.Fingerprint = ""
			continue
		}

		fp := itemFingerprint(coll)
		if state.Status == enums.ServiceOrderComplete && state.Fingerprint == fp {
			continue
		}
		state.Status = enums.ServiceOrderPendingIntake
		state.Fingerprint = fp
	}

	for id := range r.States {
		if !seen[id] {
			delete(r.States, id)
		}
	}
}

// CompleteIntake validates the prescription payload and moves the collection
// from pending_intake to complete.
func (r *Resolver) CompleteIntake(collectionID uuid.UUID, payload IntakePayload) error {
	state, ok := r.States[collectionID]
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "collection not tracked")
	}
	if state.Status == enums.ServiceOrderNotRequired {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "collection does not require a service order")
	}
	if err := payload.Validate(); err != nil {
		return err
	}
	state.Payload = &payload
	state.Status = enums.ServiceOrderComplete
	return nil
}

// Status returns the tracked status for a collection. Unknown collections
// report not_required.
func (r *Resolver) Status(collectionID uuid.UUID) enums.ServiceOrderStatus {
	if state, ok := r.States[collectionID]; ok {
		return state.Status
	}
	return enums.ServiceOrderNotRequired
}

// Payload returns the captured intake payload, or nil.
func (r *Resolver) Payload(collectionID uuid.UUID) *IntakePayload {
	if state, ok := r.States[collectionID]; ok {
		return state.Payload
	}
	return nil
}

// CanFinalize is true when every collection is not_required or complete.
func (r *Resolver) CanFinalize() bool {
	for _, state := range r.States {
		if !state.Status.Satisfied() {
			return false
		}
	}
	return true
}

// PendingCollections lists the collections still blocking finalization.
func (r *Resolver) PendingCollections() []uuid.UUID {
	var pending []uuid.UUID
	for id, state := range r.States {
		if !state.Status.Satisfied() {
			pending = append(pending, id)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].String() < pending[j].String()
	})
	return pending
}

// RequiredFields returns the intake field list for a collection, empty when
// no service order is required.
func (r *Resolver) RequiredFields(collectionID uuid.UUID) ([]string, error) {
	state, ok := r.States[collectionID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "collection not tracked")
	}
	if state.Status == enums.ServiceOrderNotRequired {
		return []string{}, nil
	}
	return IntakeFields(), nil
}

func itemFingerprint(coll cart.Collection) string {
	parts := make([]string, 0, len(coll.Items))
	for _, item := range coll.Items {
		parts = append(parts, fmt.Sprintf("%s:%d", item.ProductID, item.Quantity))
	}
	sort.Strings(parts)
	return strings.Join(parts, ";")
}
