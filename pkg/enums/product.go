package enums

import "fmt"

// ProductType identifies one of the three catalogs kept by the store.
type ProductType string

const (
	ProductTypeFans       ProductType = "fans"
	ProductTypeSheetMetal ProductType = "sheet_metal"
	ProductTypeFlexible   ProductType = "flexible"
)

var validProductTypes = []ProductType{
	ProductTypeFans,
	ProductTypeSheetMetal,
	ProductTypeFlexible,
}

// ProductTypes returns the catalogs in display order.
func ProductTypes() []ProductType {
	out := make([]ProductType, len(validProductTypes))
	copy(out, validProductTypes)
	return out
}

// String implements fmt.Stringer.
func (t ProductType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known ProductType.
func (t ProductType) IsValid() bool {
	for _, candidate := range validProductTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// StorageKey is the key the catalog is persisted under.
func (t ProductType) StorageKey() string {
	return string(t) + "_db"
}

// ParseProductType converts raw input into a ProductType.
func ParseProductType(value string) (ProductType, error) {
	for _, candidate := range validProductTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product type %q", value)
}
