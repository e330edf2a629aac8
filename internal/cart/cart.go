package cart

import (
	"github.com/google/uuid"

	"github.com/mvcampos/oticaflow-backend/pkg/enums"
	pkgerrors "github.com/mvcampos/oticaflow-backend/pkg/errors"
)

// Item is one priced line inside a collection. StockSnapshotQty is the
// on-hand quantity observed when the item entered the cart; finalize always
// re-reads stock, the snapshot only gives the operator an early rejection.
type Item struct {
	ProductID        uuid.UUID             `json:"product_id"`
	SKU              string                `json:"sku"`
	Name             string                `json:"name"`
	Category         enums.ProductCategory `json:"category"`
	UnitPriceCents   int64                 `json:"unit_price_cents"`
	Quantity         int                   `json:"quantity"`
	StockSnapshotQty int                   `json:"stock_snapshot_qty"`
}

// LineTotalCents is the item's contribution to its collection subtotal.
func (i Item) LineTotalCents() int64 {
	return i.UnitPriceCents * int64(i.Quantity)
}

// Collection is a named group of items sold as one unit, typically one pair
// of glasses.
type Collection struct {
	ID    uuid.UUID `json:"id"`
	Label string    `json:"label"`
	Items []Item    `json:"items"`
}

// SubtotalCents sums the collection's line totals.
func (c Collection) SubtotalCents() int64 {
	var total int64
	for _, item := range c.Items {
		total += item.LineTotalCents()
	}
	return total
}

// RequiresAssembly reports whether any item category needs a lab ticket.
func (c Collection) RequiresAssembly() bool {
	for _, item := range c.Items {
		if item.Category.RequiresAssembly() {
			return true
		}
	}
	return false
}

// Cart holds the collections being assembled during one checkout session.
// It is a pure value object; nothing here touches persistence.
type Cart struct {
	Collections []Collection `json:"collections"`
}

// AddCollection appends an empty collection and returns its id.
func (c *Cart) AddCollection(label string) uuid.UUID {
	if label == "" {
		label = "Collection"
	}
	id := uuid.New()
	c.Collections = append(c.Collections, Collection{ID: id, Label: label})
	return id
}

// RemoveCollection drops a collection and everything in it.
func (c *Cart) RemoveCollection(collectionID uuid.UUID) error {
	for i, coll := range c.Collections {
		if coll.ID == collectionID {
			c.Collections = append(c.Collections[:i], c.Collections[i+1:]...)
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeNotFound, "collection not found")
}

// AddItem places an item into a collection. Adding the same product again
// merges quantities. The merged quantity must stay within the stock snapshot.
func (c *Cart) AddItem(collectionID uuid.UUID, item Item) error {
	if item.ProductID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if item.Quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if item.UnitPriceCents < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "unit price cannot be negative")
	}
	if !item.Category.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown product category")
	}

	coll := c.findCollection(collectionID)
	if coll == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "collection not found")
	}

	for i := range coll.Items {
		if coll.Items[i].ProductID == item.ProductID {
			merged := coll.Items[i].Quantity + item.Quantity
			if merged > coll.Items[i].StockSnapshotQty {
				return insufficientStock(item.ProductID, coll.Items[i].StockSnapshotQty, merged)
			}
			coll.Items[i].Quantity = merged
			return nil
		}
	}

	if item.Quantity > item.StockSnapshotQty {
		return insufficientStock(item.ProductID, item.StockSnapshotQty, item.Quantity)
	}
	coll.Items = append(coll.Items, item)
	return nil
}

// RemoveItem deletes a product line from a collection.
func (c *Cart) RemoveItem(collectionID, productID uuid.UUID) error {
	coll := c.findCollection(collectionID)
	if coll == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "collection not found")
	}
	for i, item := range coll.Items {
		if item.ProductID == productID {
			coll.Items = append(coll.Items[:i], coll.Items[i+1:]...)
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeNotFound, "item not found in collection")
}

// SetQuantity replaces a line's quantity, bounded by the stock snapshot.
func (c *Cart) SetQuantity(collectionID, productID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	coll := c.findCollection(collectionID)
	if coll == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "collection not found")
	}
	for i := range coll.Items {
		if coll.Items[i].ProductID == productID {
			if quantity > coll.Items[i].StockSnapshotQty {
				return insufficientStock(productID, coll.Items[i].StockSnapshotQty, quantity)
			}
			coll.Items[i].Quantity = quantity
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeNotFound, "item not found in collection")
}

// SubtotalCents sums every collection subtotal. By construction it always
// equals the sum of CollectionSubtotalCents over all collections.
func (c *Cart) SubtotalCents() int64 {
	var total int64
	for _, coll := range c.Collections {
		total += coll.SubtotalCents()
	}
	return total
}

// CollectionSubtotalCents returns one collection's subtotal.
func (c *Cart) CollectionSubtotalCents(collectionID uuid.UUID) (int64, error) {
	coll := c.findCollection(collectionID)
	if coll == nil {
		return 0, pkgerrors.New(pkgerrors.CodeNotFound, "collection not found")
	}
	return coll.SubtotalCents(), nil
}

// IsEmpty reports whether no collection holds any item.
func (c *Cart) IsEmpty() bool {
	for _, coll := range c.Collections {
		if len(coll.Items) > 0 {
			return false
		}
	}
	return true
}

// Collection returns the collection with the given id, or nil.
func (c *Cart) Collection(collectionID uuid.UUID) *Collection {
	return c.findCollection(collectionID)
}

func (c *Cart) findCollection(collectionID uuid.UUID) *Collection {
	for i := range c.Collections {
		if c.Collections[i].ID == collectionID {
			return &c.Collections[i]
		}
	}
	return nil
}

// InsufficientStockDetails identifies the offending item on a stock rejection.
type InsufficientStockDetails struct {
	ProductID uuid.UUID `json:"product_id"`
	Available int       `json:"available"`
	Requested int       `json:"requested"`
}

func insufficientStock(productID uuid.UUID, available, requested int) error {
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, "requested quantity exceeds available stock").
		WithDetails(InsufficientStockDetails{
			ProductID: productID,
			Available: available,
			Requested: requested,
		})
}
