package catalog

import (
	"cmp"
	"fmt"
	"sort"
	"strings"

	pkgerrors "github.com/angelmondragon/pricelist/pkg/errors"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

type comparer[T any] func(c *collate.Collator, a, b *T) int

func textColumn[T any](field func(*T) string) comparer[T] {
	return func(c *collate.Collator, a, b *T) int { return c.CompareString(field(a), field(b)) }
}

var fanColumns = map[string]comparer[Fan]{
	"id":          func(_ *collate.Collator, a, b *Fan) int { return cmp.Compare(a.ID, b.ID) },
	"name":        textColumn(func(f *Fan) string { return f.Name }),
	"description": textColumn(func(f *Fan) string { return f.Description }),
	"airflow":     textColumn(func(f *Fan) string { return f.Airflow }),
	"wholesale":   func(_ *collate.Collator, a, b *Fan) int { return a.PriceWholesale.Cmp(b.PriceWholesale) },
	"retail":      func(_ *collate.Collator, a, b *Fan) int { return a.PriceRetail.Cmp(b.PriceRetail) },
	"stock":       func(_ *collate.Collator, a, b *Fan) int { return cmp.Compare(a.Quantity, b.Quantity) },
}

var sheetMetalColumns = map[string]comparer[SheetMetal]{
	"id":          func(_ *collate.Collator, a, b *SheetMetal) int { return cmp.Compare(a.ID, b.ID) },
	"thickness":   textColumn(func(s *SheetMetal) string { return s.Thickness }),
	"dimensions":  textColumn(func(s *SheetMetal) string { return s.Dimensions }),
	"measurement": textColumn(func(s *SheetMetal) string { return s.Measurement }),
	"cost":        func(_ *collate.Collator, a, b *SheetMetal) int { return a.Cost.Cmp(b.Cost) },
	"extra":       textColumn(func(s *SheetMetal) string { return s.Extra }),
}

var flexibleColumns = map[string]comparer[Flexible]{
	"id":          func(_ *collate.Collator, a, b *Flexible) int { return cmp.Compare(a.ID, b.ID) },
	"description": textColumn(func(f *Flexible) string { return f.Description }),
	"diameter":    textColumn(func(f *Flexible) string { return f.Diameter }),
	"collection":  textColumn(func(f *Flexible) string { return f.Collection }),
	"meter":       func(_ *collate.Collator, a, b *Flexible) int { return a.Meter.Cmp(b.Meter) },
}

// SortFansByName orders fans by name using the collation rules of locale,
// falling back to id for equal names. Unparseable locales use English.
func SortFansByName(fans []Fan, locale string) {
	_ = SortFans(fans, "name", false, locale)
}

// SortFans orders fans by column (id, name, description, airflow,
// wholesale, retail, stock). Ties keep id order.
func SortFans(fans []Fan, column string, desc bool, locale string) error {
	return sortRecords(fans, fanColumns, column, desc, locale, func(f *Fan) int64 { return f.ID })
}

// SortSheetMetal orders sheet metal by column (id, thickness, dimensions,
// measurement, cost, extra).
func SortSheetMetal(items []SheetMetal, column string, desc bool, locale string) error {
	return sortRecords(items, sheetMetalColumns, column, desc, locale, func(s *SheetMetal) int64 { return s.ID })
}

// SortFlexible orders flexible ducts by column (id, description, diameter,
// collection, meter).
func SortFlexible(items []Flexible, column string, desc bool, locale string) error {
	return sortRecords(items, flexibleColumns, column, desc, locale, func(f *Flexible) int64 { return f.ID })
}

func sortRecords[T any](items []T, columns map[string]comparer[T], column string, desc bool, locale string, id func(*T) int64) error {
	compare, ok := columns[strings.ToLower(strings.TrimSpace(column))]
	if !ok {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("cannot sort by %q, use one of %s", column, strings.Join(columnNames(columns), ", ")))
	}
	c := collator(locale)
	sort.SliceStable(items, func(i, j int) bool {
		r := compare(c, &items[i], &items[j])
		if desc {
			r = -r
		}
		if r != 0 {
			return r < 0
		}
		return id(&items[i]) < id(&items[j])
	})
	return nil
}

func columnNames[T any](columns map[string]comparer[T]) []string {
	names := make([]string, 0, len(columns))
	for name := range columns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func collator(locale string) *collate.Collator {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	return collate.New(tag, collate.IgnoreCase)
}
