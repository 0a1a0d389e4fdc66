package catalog

import (
	"strconv"

	"github.com/angelmondragon/pricelist/pkg/enums"
	"github.com/shopspring/decimal"
)

// Fan is the catalog record the quote builder works with.
type Fan struct {
	ID              int64           `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Airflow         string          `json:"airflow"`
	PriceWholesale  decimal.Decimal `json:"price_wholesale"`
	PriceRetail     decimal.Decimal `json:"price_retail"`
	Quantity        int             `json:"quantity"`
	CatalogFilePath string          `json:"catalog_file_path"`
}

// Price returns the unit price for the tier. Unknown tiers resolve to zero.
func (f *Fan) Price(tier enums.PriceTier) decimal.Decimal {
	switch tier {
	case enums.PriceTierWholesale:
		return f.PriceWholesale
	case enums.PriceTierRetail:
		return f.PriceRetail
	default:
		return decimal.Zero
	}
}

// DisplayName falls back to the id when the record has no name.
func (f *Fan) DisplayName() string {
	if f.Name != "" {
		return f.Name
	}
	return "#" + strconv.FormatInt(f.ID, 10)
}

type SheetMetal struct {
	ID          int64           `json:"id"`
	Thickness   string          `json:"thickness"`
	Dimensions  string          `json:"dimensions"`
	Measurement string          `json:"measurement"`
	Cost        decimal.Decimal `json:"cost"`
	Extra       string          `json:"extra"`
}

type Flexible struct {
	ID          int64           `json:"id"`
	Description string          `json:"description"`
	Diameter    string          `json:"diameter"`
	Collection  string          `json:"collection"`
	Meter       decimal.Decimal `json:"meter"`
}
