package enums

import (
	"fmt"
	"strings"
)

// PriceTier selects which stored price applies to a quote line.
type PriceTier string

const (
	PriceTierWholesale PriceTier = "wholesale"
	PriceTierRetail    PriceTier = "retail"
)

var validPriceTiers = []PriceTier{
	PriceTierWholesale,
	PriceTierRetail,
}

// String implements fmt.Stringer.
func (t PriceTier) String() string {
	return string(t)
}

// IsValid reports whether the value is a known PriceTier.
func (t PriceTier) IsValid() bool {
	for _, candidate := range validPriceTiers {
		if candidate == t {
			return true
		}
	}
	return false
}

// Toggle returns the other tier.
func (t PriceTier) Toggle() PriceTier {
	if t == PriceTierWholesale {
		return PriceTierRetail
	}
	return PriceTierWholesale
}

// ParsePriceTier converts raw input into a PriceTier. The single-letter
// shorthands w and r are accepted.
func ParsePriceTier(value string) (PriceTier, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "w":
		return PriceTierWholesale, nil
	case "r":
		return PriceTierRetail, nil
	}
	for _, candidate := range validPriceTiers {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid price tier %q", value)
}
