package cli

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/angelmondragon/pricelist/internal/catalog"
	"github.com/angelmondragon/pricelist/internal/quote"
	"github.com/angelmondragon/pricelist/pkg/enums"
	pkgerrors "github.com/angelmondragon/pricelist/pkg/errors"
	"github.com/angelmondragon/pricelist/pkg/pagination"
	"github.com/google/subcommands"
)

type listCmd struct {
	app     *App
	product string
	query   string
	sortBy  string
	desc    bool
	limit   int
	cursor  string
}

func (*listCmd) Name() string     { return "list" }
func (*listCmd) Synopsis() string { return "print a product catalog" }
func (*listCmd) Usage() string {
	return `pricelist list [-type fans|sheet_metal|flexible] [-q <query>] [-sort <column> [-desc]] [-limit <n>] [-cursor <c>]

  Prints the records of one catalog. With -q only records whose text fields
  contain the query (case-insensitive) are shown. Fans are sorted by name
  unless -sort names another column:
    fans:        id name description airflow wholesale retail stock
    sheet_metal: id thickness dimensions measurement cost extra
    flexible:    id description diameter collection meter
  With -limit the listing is paged; pass the printed cursor, with the same
  -q and -sort, to get the next page.
`
}

func (c *listCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.product, "type", string(enums.ProductTypeFans), "Catalog to list (fans, sheet_metal, flexible).")
	f.StringVar(&c.query, "q", "", "Only show records matching this text.")
	f.StringVar(&c.sortBy, "sort", "", "Column to sort by.")
	f.BoolVar(&c.desc, "desc", false, "Sort in descending order.")
	f.IntVar(&c.limit, "limit", 0, "Page size (0 lists everything).")
	f.StringVar(&c.cursor, "cursor", "", "Cursor printed by the previous page.")
}

func (c *listCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	product, err := enums.ParseProductType(c.product)
	if err != nil {
		return c.app.fail(ctx, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error()))
	}
	ctx = c.app.logg.WithProductType(ctx, product.String())

	var md, next string
	code := c.app.present.CurrencyCode
	switch product {
	case enums.ProductTypeFans:
		fans, err := c.app.catalog.SearchFans(ctx, c.query)
		if err != nil {
			return c.app.fail(ctx, err)
		}
		column := c.sortBy
		if column == "" {
			column = "name"
		}
		if err := catalog.SortFans(fans, column, c.desc, c.app.locale); err != nil {
			return c.app.fail(ctx, err)
		}
		if fans, next, err = page(fans, c.limit, c.cursor, func(f *catalog.Fan) int64 { return f.ID }); err != nil {
			return c.app.fail(ctx, err)
		}
		md = fanTable(fans, code)
	case enums.ProductTypeSheetMetal:
		items, err := c.app.catalog.SearchSheetMetal(ctx, c.query)
		if err != nil {
			return c.app.fail(ctx, err)
		}
		if c.sortBy != "" {
			if err := catalog.SortSheetMetal(items, c.sortBy, c.desc, c.app.locale); err != nil {
				return c.app.fail(ctx, err)
			}
		}
		if items, next, err = page(items, c.limit, c.cursor, func(s *catalog.SheetMetal) int64 { return s.ID }); err != nil {
			return c.app.fail(ctx, err)
		}
		md = sheetMetalTable(items, code)
	case enums.ProductTypeFlexible:
		items, err := c.app.catalog.SearchFlexible(ctx, c.query)
		if err != nil {
			return c.app.fail(ctx, err)
		}
		if c.sortBy != "" {
			if err := catalog.SortFlexible(items, c.sortBy, c.desc, c.app.locale); err != nil {
				return c.app.fail(ctx, err)
			}
		}
		if items, next, err = page(items, c.limit, c.cursor, func(f *catalog.Flexible) int64 { return f.ID }); err != nil {
			return c.app.fail(ctx, err)
		}
		md = flexibleTable(items, code)
	}
	c.app.printMarkdown(md)
	if next != "" {
		fmt.Fprintf(c.app.out, "Next page: -cursor %s\n", next)
	}
	return subcommands.ExitSuccess
}

// page applies -limit/-cursor; without either the whole listing is kept.
func page[T any](items []T, limit int, cursor string, id func(*T) int64) ([]T, string, error) {
	if limit <= 0 && cursor == "" {
		return items, "", nil
	}
	out, next, err := pagination.Page(items, pagination.Params{Limit: limit, Cursor: cursor}, id)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}
	return out, next, nil
}

func fanTable(fans []catalog.Fan, code string) string {
	if len(fans) == 0 {
		return "_No fans found_\n"
	}
	var b strings.Builder
	b.WriteString("| ID | Name | Airflow | Wholesale | Retail | Stock |\n")
	b.WriteString("|---:|:---|:---|---:|---:|---:|\n")
	for _, f := range fans {
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s | %d |\n",
			f.ID, mdCell(f.DisplayName()), mdCell(f.Airflow),
			quote.FormatMoney(f.PriceWholesale, code), quote.FormatMoney(f.PriceRetail, code), f.Quantity)
	}
	return b.String()
}

func sheetMetalTable(items []catalog.SheetMetal, code string) string {
	if len(items) == 0 {
		return "_No sheet metal found_\n"
	}
	var b strings.Builder
	b.WriteString("| ID | Thickness | Dimensions | Measurement | Cost | Extra |\n")
	b.WriteString("|---:|:---|:---|:---|---:|:---|\n")
	for _, s := range items {
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s | %s |\n",
			s.ID, mdCell(s.Thickness), mdCell(s.Dimensions), mdCell(s.Measurement),
			quote.FormatMoney(s.Cost, code), mdCell(s.Extra))
	}
	return b.String()
}

func flexibleTable(items []catalog.Flexible, code string) string {
	if len(items) == 0 {
		return "_No flexible ducts found_\n"
	}
	var b strings.Builder
	b.WriteString("| ID | Description | Diameter | Collection | Per meter |\n")
	b.WriteString("|---:|:---|:---|:---|---:|\n")
	for _, f := range items {
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s |\n",
			f.ID, mdCell(f.Description), mdCell(f.Diameter), mdCell(f.Collection),
			quote.FormatMoney(f.Meter, code))
	}
	return b.String()
}

type importCmd struct {
	app  *App
	file string
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "restore a backup or load fans from a spreadsheet" }
func (*importCmd) Usage() string {
	return `pricelist import -file <backup.json|catalog.xlsx>

  A .json backup replaces every catalog it contains. An .xlsx workbook adds
  the fans found on its first sheet.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.file, "file", "", "Backup (.json) or spreadsheet (.xlsx) to import.")
}

func (c *importCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.file == "" {
		return c.app.fail(ctx, pkgerrors.New(pkgerrors.CodeValidation, "missing -file"))
	}
	f, err := os.Open(c.file)
	if err != nil {
		return c.app.fail(ctx, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, c.file))
	}
	defer f.Close()

	if isSpreadsheet(c.file) {
		n, err := c.app.catalog.ImportFansXLSX(ctx, f)
		if err != nil {
			return c.app.fail(ctx, err)
		}
		fmt.Fprintf(c.app.out, "Imported %d fans from %s\n", n, c.file)
		return subcommands.ExitSuccess
	}
	if err := c.app.catalog.ReadBackup(ctx, f); err != nil {
		return c.app.fail(ctx, err)
	}
	fmt.Fprintf(c.app.out, "Restored backup %s\n", c.file)
	return subcommands.ExitSuccess
}

type backupCmd struct {
	app *App
	out string
}

func (*backupCmd) Name() string     { return "backup" }
func (*backupCmd) Synopsis() string { return "write the catalogs to a backup file" }
func (*backupCmd) Usage() string {
	return `pricelist backup [-out <file.json|file.xlsx>]

  Writes every catalog to a JSON backup, or the fan catalog to a workbook
  when the file name ends in .xlsx. Defaults to backup_<date>.json.
`
}

func (c *backupCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.out, "out", "", "Destination file.")
}

func (c *backupCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	path := c.out
	if path == "" {
		path = "backup_" + c.app.now().Format("2006-01-02") + ".json"
	}

	var buf bytes.Buffer
	var err error
	if isSpreadsheet(path) {
		err = c.app.catalog.ExportFansXLSX(ctx, &buf)
	} else {
		err = c.app.catalog.WriteBackup(ctx, &buf)
	}
	if err != nil {
		return c.app.fail(ctx, err)
	}
	if err := writeFileAtomic(path, buf.Bytes()); err != nil {
		return c.app.fail(ctx, err)
	}
	fmt.Fprintf(c.app.out, "Backup written to %s\n", path)
	return subcommands.ExitSuccess
}

func isSpreadsheet(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".xlsx")
}
