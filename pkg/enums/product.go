package enums

import (
	"fmt"
	"strings"
)

// ProductStatus is a soft-delete lifecycle: listings move toward deleted and
// never come back.
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
	ProductStatusDeleted  ProductStatus = "deleted"
)

// IsValid reports whether the value is a known product status.
func (s ProductStatus) IsValid() bool {
	switch s {
	case ProductStatusActive, ProductStatusInactive, ProductStatusDeleted:
		return true
	}
	return false
}

// ParseProductStatus normalizes and validates a status string.
func ParseProductStatus(value string) (ProductStatus, error) {
	status := ProductStatus(strings.ToLower(strings.TrimSpace(value)))
	if !status.IsValid() {
		return "", fmt.Errorf("invalid product status %q", value)
	}
	return status, nil
}

// ProductCategory buckets produce listings for browsing filters.
type ProductCategory string

const (
	CategoryVegetables ProductCategory = "vegetables"
	CategoryFruits     ProductCategory = "fruits"
	CategoryDairy      ProductCategory = "dairy"
	CategoryMeat       ProductCategory = "meat"
	CategoryEggs       ProductCategory = "eggs"
	CategoryGrains     ProductCategory = "grains"
	CategoryHoney      ProductCategory = "honey"
	CategoryPreserves  ProductCategory = "preserves"
	CategoryFlowers    ProductCategory = "flowers"
	CategoryOther      ProductCategory = "other"
)

// IsValid reports whether the value is a known category.
func (c ProductCategory) IsValid() bool {
	switch c {
	case CategoryVegetables, CategoryFruits, CategoryDairy, CategoryMeat,
		CategoryEggs, CategoryGrains, CategoryHoney, CategoryPreserves,
		CategoryFlowers, CategoryOther:
		return true
	}
	return false
}

// ParseProductCategory normalizes and validates a category string.
func ParseProductCategory(value string) (ProductCategory, error) {
	category := ProductCategory(strings.ToLower(strings.TrimSpace(value)))
	if !category.IsValid() {
		return "", fmt.Errorf("invalid product category %q", value)
	}
	return category, nil
}
