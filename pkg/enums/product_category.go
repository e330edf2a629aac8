package enums

import "fmt"

// ProductCategory classifies what an optical store sells.
type ProductCategory string

const (
	CategoryFrame       ProductCategory = "frame"
	CategorySunglasses  ProductCategory = "sunglasses"
	CategoryLens        ProductCategory = "lens"
	CategoryContactLens ProductCategory = "contact_lens"
	CategoryAccessory   ProductCategory = "accessory"
	CategoryService     ProductCategory = "service"
)

var validProductCategories = []ProductCategory{
	CategoryFrame,
	CategorySunglasses,
	CategoryLens,
	CategoryContactLens,
	CategoryAccessory,
	CategoryService,
}

// String implements fmt.Stringer.
func (c ProductCategory) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ProductCategory.
func (c ProductCategory) IsValid() bool {
	for _, candidate := range validProductCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// RequiresAssembly reports whether items of this category need a lab
// service order before the sale can close.
func (c ProductCategory) RequiresAssembly() bool {
	return c == CategoryLens || c == CategoryContactLens
}

// ParseProductCategory converts raw input into a ProductCategory.
func ParseProductCategory(value string) (ProductCategory, error) {
	for _, candidate := range validProductCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product category %q", value)
}
