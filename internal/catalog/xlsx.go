package catalog

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/pricelist/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const fansSheet = "fans"

var fanXLSXColumns = []string{"id", "name", "description", "airflow", "price_wholesale", "price_retail", "quantity", "catalog_file_path"}

// ImportFansXLSX reads fans from the first sheet of a spreadsheet. The first
// row is a header naming the columns; unknown columns are ignored and rows
// without a name are skipped. Imported fans are appended with fresh ids.
func (s *Service) ImportFansXLSX(ctx context.Context, r io.Reader) (int, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid spreadsheet")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "spreadsheet has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read spreadsheet rows")
	}
	if len(rows) < 2 {
		return 0, nil
	}

	columns := mapColumns(rows[0])
	if _, ok := columns["name"]; !ok {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "spreadsheet header has no name column")
	}

	imported := 0
	for i, row := range rows[1:] {
		fan, ok, err := fanFromRow(row, columns)
		if err != nil {
			return imported, pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("row %d", i+2))
		}
		if !ok {
			continue
		}
		if _, err := s.AddFan(ctx, fan); err != nil {
			return imported, err
		}
		imported++
	}
	s.logg.Info(s.logg.WithField(ctx, "fans", imported), "fan spreadsheet imported")
	return imported, nil
}

// ExportFansXLSX writes every fan to a single-sheet workbook.
func (s *Service) ExportFansXLSX(ctx context.Context, w io.Writer) error {
	fans, err := s.ListFans(ctx)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), fansSheet); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "set sheet name")
	}
	header := make([]any, len(fanXLSXColumns))
	for i, col := range fanXLSXColumns {
		header[i] = col
	}
	if err := f.SetSheetRow(fansSheet, "A1", &header); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write header")
	}
	for i, fan := range fans {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "cell name")
		}
		row := []any{
			fan.ID,
			fan.Name,
			fan.Description,
			fan.Airflow,
			fan.PriceWholesale.InexactFloat64(),
			fan.PriceRetail.InexactFloat64(),
			fan.Quantity,
			fan.CatalogFilePath,
		}
		if err := f.SetSheetRow(fansSheet, cell, &row); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write row")
		}
	}
	if _, err := f.WriteTo(w); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write spreadsheet")
	}
	return nil
}

func mapColumns(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		key = strings.ReplaceAll(key, " ", "_")
		if _, seen := columns[key]; !seen && key != "" {
			columns[key] = i
		}
	}
	return columns
}

func fanFromRow(row []string, columns map[string]int) (Fan, bool, error) {
	cell := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	fan := Fan{
		Name:            cell("name"),
		Description:     cell("description"),
		Airflow:         cell("airflow"),
		CatalogFilePath: cell("catalog_file_path"),
	}
	if fan.Name == "" {
		return Fan{}, false, nil
	}

	var err error
	if fan.PriceWholesale, err = parseAmount(cell("price_wholesale")); err != nil {
		return Fan{}, false, fmt.Errorf("price_wholesale: %w", err)
	}
	if fan.PriceRetail, err = parseAmount(cell("price_retail")); err != nil {
		return Fan{}, false, fmt.Errorf("price_retail: %w", err)
	}
	if raw := cell("quantity"); raw != "" {
		qty, err := strconv.Atoi(raw)
		if err != nil {
			return Fan{}, false, fmt.Errorf("quantity: %w", err)
		}
		fan.Quantity = qty
	}
	return fan, true, nil
}

func parseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.ReplaceAll(raw, ",", "")
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}
