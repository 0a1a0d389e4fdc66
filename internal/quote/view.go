package quote

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/angelmondragon/pricelist/pkg/enums"
	"github.com/shopspring/decimal"
)

const (
	defaultCurrency = "USD"
	emptyMessage    = "No items in price list"
)

var defaultTierLabels = map[enums.PriceTier]string{
	enums.PriceTierWholesale: "Wholesale",
	enums.PriceTierRetail:    "Retail",
}

// PresentOptions controls display formatting only; it never changes values.
type PresentOptions struct {
	CurrencyCode string
	TierLabels   map[enums.PriceTier]string
}

// Row is the display model of one quote line. Index is 1-based.
type Row struct {
	Index            int
	Quantity         int
	QuantityDisplay  string
	Available        int
	Tier             enums.PriceTier
	TierLabel        string
	UnitPrice        decimal.Decimal
	UnitPriceDisplay string
	LineTotal        decimal.Decimal
	LineTotalDisplay string
	Name             string
	Airflow          string
}

type View struct {
	Rows              []Row
	GrandTotal        decimal.Decimal
	GrandTotalDisplay string
	Empty             bool
}

// Present projects lines into a View. The same lines always yield the same View.
func Present(lines []Line, opts PresentOptions) View {
	code := opts.CurrencyCode
	if code == "" {
		code = defaultCurrency
	}
	view := View{
		Rows:       make([]Row, 0, len(lines)),
		GrandTotal: GrandTotalOf(lines),
		Empty:      len(lines) == 0,
	}
	for i, line := range lines {
		row := Row{
			Index:           i + 1,
			Quantity:        line.Quantity,
			QuantityDisplay: strconv.Itoa(line.Quantity),
			Tier:            line.Tier,
			TierLabel:       tierLabel(line.Tier, opts.TierLabels),
			UnitPrice:       line.UnitPrice(),
			LineTotal:       line.Total(),
		}
		if line.Record != nil {
			row.Available = line.Record.Quantity
			row.Name = line.Record.Name
			row.Airflow = line.Record.Airflow
		}
		row.UnitPriceDisplay = FormatMoney(row.UnitPrice, code)
		row.LineTotalDisplay = FormatMoney(row.LineTotal, code)
		view.Rows = append(view.Rows, row)
	}
	view.GrandTotalDisplay = FormatMoney(view.GrandTotal, code)
	return view
}

func tierLabel(tier enums.PriceTier, labels map[enums.PriceTier]string) string {
	if label, ok := labels[tier]; ok {
		return label
	}
	if label, ok := defaultTierLabels[tier]; ok {
		return label
	}
	return string(tier)
}

// FormatMoney renders amount in the currency's minor units, rounding half
// away from zero.
func FormatMoney(amount decimal.Decimal, code string) string {
	cur := money.New(0, code).Currency()
	minor := amount.Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(minor.IntPart())
}

// Markdown renders the view as a table for terminal display.
func (v View) Markdown() string {
	if v.Empty {
		return "_" + emptyMessage + "_\n"
	}
	var b strings.Builder
	b.WriteString("| # | Qty | Tier | Unit price | Total | Airflow | Name |\n")
	b.WriteString("|---:|---:|:---:|---:|---:|:---|:---|\n")
	for _, row := range v.Rows {
		fmt.Fprintf(&b, "| %d | %s (of %d) | %s | %s | %s | %s | %s |\n",
			row.Index,
			row.QuantityDisplay,
			row.Available,
			row.TierLabel,
			row.UnitPriceDisplay,
			row.LineTotalDisplay,
			escapeCell(row.Airflow),
			escapeCell(row.Name),
		)
	}
	fmt.Fprintf(&b, "\n**Grand total: %s**\n", v.GrandTotalDisplay)
	return b.String()
}

func escapeCell(value string) string {
	value = strings.ReplaceAll(value, "|", `\|`)
	return strings.ReplaceAll(value, "\n", " ")
}
