package cli

import (
	"context"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/angelmondragon/pricelist/internal/catalog"
	"github.com/angelmondragon/pricelist/pkg/enums"
	pkgerrors "github.com/angelmondragon/pricelist/pkg/errors"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

// recordFlags carries the per-field flags shared by add and edit. Only the
// flags present on the command line are applied to the record.
type recordFlags struct {
	Product     string
	ID          int64  `validate:"gte=0"`
	Name        string `validate:"max=200"`
	Description string `validate:"max=500"`
	Airflow     string `validate:"max=100"`
	Wholesale   string `validate:"omitempty,numeric"`
	Retail      string `validate:"omitempty,numeric"`
	Stock       string `validate:"omitempty,number"`
	CatalogFile string
	Thickness   string `validate:"max=100"`
	Dimensions  string `validate:"max=100"`
	Measurement string `validate:"max=100"`
	Cost        string `validate:"omitempty,numeric"`
	Extra       string `validate:"max=200"`
	Diameter    string `validate:"max=100"`
	Collection  string `validate:"max=100"`
	Meter       string `validate:"omitempty,numeric"`

	set map[string]bool
}

// recordFields lists the field flags each catalog accepts; the first one is
// required when adding.
var recordFields = map[enums.ProductType][]string{
	enums.ProductTypeFans:       {"name", "description", "airflow", "wholesale", "retail", "stock", "catalog-file"},
	enums.ProductTypeSheetMetal: {"thickness", "dimensions", "measurement", "cost", "extra"},
	enums.ProductTypeFlexible:   {"description", "diameter", "collection", "meter"},
}

func (r *recordFlags) register(f *flag.FlagSet, withFields bool) {
	f.StringVar(&r.Product, "type", string(enums.ProductTypeFans), "Catalog (fans, sheet_metal, flexible).")
	f.Int64Var(&r.ID, "id", 0, "Record id.")
	if !withFields {
		return
	}
	f.StringVar(&r.Name, "name", "", "Fan name.")
	f.StringVar(&r.Description, "description", "", "Description (fans, flexible).")
	f.StringVar(&r.Airflow, "airflow", "", "Fan airflow.")
	f.StringVar(&r.Wholesale, "wholesale", "", "Fan wholesale price.")
	f.StringVar(&r.Retail, "retail", "", "Fan retail price.")
	f.StringVar(&r.Stock, "stock", "", "Fan units in stock.")
	f.StringVar(&r.CatalogFile, "catalog-file", "", "Path of the fan's catalog sheet.")
	f.StringVar(&r.Thickness, "thickness", "", "Sheet metal thickness.")
	f.StringVar(&r.Dimensions, "dimensions", "", "Sheet metal dimensions.")
	f.StringVar(&r.Measurement, "measurement", "", "Sheet metal measurement.")
	f.StringVar(&r.Cost, "cost", "", "Sheet metal cost.")
	f.StringVar(&r.Extra, "extra", "", "Sheet metal notes.")
	f.StringVar(&r.Diameter, "diameter", "", "Flexible duct diameter.")
	f.StringVar(&r.Collection, "collection", "", "Flexible duct collection.")
	f.StringVar(&r.Meter, "meter", "", "Flexible duct price per meter.")
}

// parse resolves the catalog, records which flags were given and validates
// their values.
func (r *recordFlags) parse(a *App, f *flag.FlagSet) (enums.ProductType, error) {
	product, err := enums.ParseProductType(r.Product)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}
	r.set = map[string]bool{}
	if f != nil {
		f.Visit(func(fl *flag.Flag) { r.set[fl.Name] = true })
	}
	allowed := map[string]bool{"type": true, "id": true}
	for _, name := range recordFields[product] {
		allowed[name] = true
	}
	for name := range r.set {
		if !allowed[name] {
			return "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("-%s does not apply to %s", name, product))
		}
	}
	if err := a.validate.Struct(r); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}
	return product, nil
}

func (r *recordFlags) requireFields(product enums.ProductType) error {
	first := recordFields[product][0]
	if !r.set[first] || strings.TrimSpace(r.text(first)) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "-"+first+" is required")
	}
	return nil
}

func (r *recordFlags) requireID() error {
	if r.ID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "-id is required")
	}
	return nil
}

func (r *recordFlags) text(name string) string {
	switch name {
	case "name":
		return r.Name
	case "description":
		return r.Description
	case "airflow":
		return r.Airflow
	case "catalog-file":
		return r.CatalogFile
	case "thickness":
		return r.Thickness
	case "dimensions":
		return r.Dimensions
	case "measurement":
		return r.Measurement
	case "extra":
		return r.Extra
	case "diameter":
		return r.Diameter
	case "collection":
		return r.Collection
	}
	return ""
}

func (r *recordFlags) assignText(name string, dst *string) {
	if r.set[name] {
		*dst = strings.TrimSpace(r.text(name))
	}
}

func (r *recordFlags) assignAmount(name, raw string, dst *decimal.Decimal) error {
	if !r.set[name] {
		return nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "-"+name+" must be a number")
	}
	*dst = d
	return nil
}

func (r *recordFlags) applyFan(f *catalog.Fan) error {
	r.assignText("name", &f.Name)
	r.assignText("description", &f.Description)
	r.assignText("airflow", &f.Airflow)
	r.assignText("catalog-file", &f.CatalogFilePath)
	if err := r.assignAmount("wholesale", r.Wholesale, &f.PriceWholesale); err != nil {
		return err
	}
	if err := r.assignAmount("retail", r.Retail, &f.PriceRetail); err != nil {
		return err
	}
	if r.set["stock"] {
		n, err := strconv.Atoi(strings.TrimSpace(r.Stock))
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "-stock must be a whole number")
		}
		f.Quantity = n
	}
	return nil
}

func (r *recordFlags) applySheetMetal(s *catalog.SheetMetal) error {
	r.assignText("thickness", &s.Thickness)
	r.assignText("dimensions", &s.Dimensions)
	r.assignText("measurement", &s.Measurement)
	r.assignText("extra", &s.Extra)
	return r.assignAmount("cost", r.Cost, &s.Cost)
}

func (r *recordFlags) applyFlexible(f *catalog.Flexible) error {
	r.assignText("description", &f.Description)
	r.assignText("diameter", &f.Diameter)
	r.assignText("collection", &f.Collection)
	return r.assignAmount("meter", r.Meter, &f.Meter)
}

func recordLabel(product enums.ProductType) string {
	switch product {
	case enums.ProductTypeSheetMetal:
		return "sheet metal"
	case enums.ProductTypeFlexible:
		return "flexible duct"
	default:
		return "fan"
	}
}

type addCmd struct {
	app *App
	rec recordFlags
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "add a record to a catalog" }
func (*addCmd) Usage() string {
	return `pricelist add [-type fans|sheet_metal|flexible] <field flags>

  fans:        -name (required) -description -airflow -wholesale -retail -stock -catalog-file
  sheet_metal: -thickness (required) -dimensions -measurement -cost -extra
  flexible:    -description (required) -diameter -collection -meter
`
}

func (c *addCmd) SetFlags(f *flag.FlagSet) { c.rec.register(f, true) }

func (c *addCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	product, err := c.rec.parse(c.app, f)
	if err != nil {
		return c.app.fail(ctx, err)
	}
	if c.rec.set["id"] {
		return c.app.fail(ctx, pkgerrors.New(pkgerrors.CodeValidation, "ids are assigned by the catalog"))
	}
	if err := c.rec.requireFields(product); err != nil {
		return c.app.fail(ctx, err)
	}
	ctx = c.app.logg.WithProductType(ctx, product.String())

	var id int64
	var md string
	code := c.app.present.CurrencyCode
	switch product {
	case enums.ProductTypeFans:
		var rec catalog.Fan
		if err = c.rec.applyFan(&rec); err == nil {
			rec, err = c.app.catalog.AddFan(ctx, rec)
		}
		id, md = rec.ID, fanTable([]catalog.Fan{rec}, code)
	case enums.ProductTypeSheetMetal:
		var rec catalog.SheetMetal
		if err = c.rec.applySheetMetal(&rec); err == nil {
			rec, err = c.app.catalog.AddSheetMetal(ctx, rec)
		}
		id, md = rec.ID, sheetMetalTable([]catalog.SheetMetal{rec}, code)
	case enums.ProductTypeFlexible:
		var rec catalog.Flexible
		if err = c.rec.applyFlexible(&rec); err == nil {
			rec, err = c.app.catalog.AddFlexible(ctx, rec)
		}
		id, md = rec.ID, flexibleTable([]catalog.Flexible{rec}, code)
	}
	if err != nil {
		return c.app.fail(ctx, err)
	}
	c.app.logg.Info(c.app.logg.WithRecordID(ctx, id), "catalog record added")
	fmt.Fprintf(c.app.out, "Added %s %d\n", recordLabel(product), id)
	c.app.printMarkdown(md)
	return subcommands.ExitSuccess
}

type editCmd struct {
	app *App
	rec recordFlags
}

func (*editCmd) Name() string     { return "edit" }
func (*editCmd) Synopsis() string { return "change fields of a catalog record" }
func (*editCmd) Usage() string {
	return `pricelist edit [-type fans|sheet_metal|flexible] -id <n> <field flags>

  Only the given fields change; the id never does. Field flags are listed
  under "pricelist help add".
`
}

func (c *editCmd) SetFlags(f *flag.FlagSet) { c.rec.register(f, true) }

func (c *editCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	product, err := c.rec.parse(c.app, f)
	if err != nil {
		return c.app.fail(ctx, err)
	}
	if err := c.rec.requireID(); err != nil {
		return c.app.fail(ctx, err)
	}
	ctx = c.app.logg.WithProductType(ctx, product.String())

	var md string
	code := c.app.present.CurrencyCode
	switch product {
	case enums.ProductTypeFans:
		var rec catalog.Fan
		if rec, err = c.app.catalog.GetFan(ctx, c.rec.ID); err == nil {
			if err = c.rec.applyFan(&rec); err == nil {
				rec, err = c.app.catalog.UpdateFan(ctx, c.rec.ID, rec)
			}
		}
		md = fanTable([]catalog.Fan{rec}, code)
	case enums.ProductTypeSheetMetal:
		var rec catalog.SheetMetal
		if rec, err = c.app.catalog.GetSheetMetal(ctx, c.rec.ID); err == nil {
			if err = c.rec.applySheetMetal(&rec); err == nil {
				rec, err = c.app.catalog.UpdateSheetMetal(ctx, c.rec.ID, rec)
			}
		}
		md = sheetMetalTable([]catalog.SheetMetal{rec}, code)
	case enums.ProductTypeFlexible:
		var rec catalog.Flexible
		if rec, err = c.app.catalog.GetFlexible(ctx, c.rec.ID); err == nil {
			if err = c.rec.applyFlexible(&rec); err == nil {
				rec, err = c.app.catalog.UpdateFlexible(ctx, c.rec.ID, rec)
			}
		}
		md = flexibleTable([]catalog.Flexible{rec}, code)
	}
	if err != nil {
		return c.app.fail(ctx, err)
	}
	fmt.Fprintf(c.app.out, "Updated %s %d\n", recordLabel(product), c.rec.ID)
	c.app.printMarkdown(md)
	return subcommands.ExitSuccess
}

type rmCmd struct {
	app *App
	rec recordFlags
}

func (*rmCmd) Name() string     { return "rm" }
func (*rmCmd) Synopsis() string { return "delete a catalog record" }
func (*rmCmd) Usage() string {
	return `pricelist rm [-type fans|sheet_metal|flexible] -id <n>

  Deleted ids are never handed out again.
`
}

func (c *rmCmd) SetFlags(f *flag.FlagSet) { c.rec.register(f, false) }

func (c *rmCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	product, err := c.rec.parse(c.app, f)
	if err != nil {
		return c.app.fail(ctx, err)
	}
	if err := c.rec.requireID(); err != nil {
		return c.app.fail(ctx, err)
	}
	ctx = c.app.logg.WithProductType(ctx, product.String())

	switch product {
	case enums.ProductTypeFans:
		err = c.app.catalog.DeleteFan(ctx, c.rec.ID)
	case enums.ProductTypeSheetMetal:
		err = c.app.catalog.DeleteSheetMetal(ctx, c.rec.ID)
	case enums.ProductTypeFlexible:
		err = c.app.catalog.DeleteFlexible(ctx, c.rec.ID)
	}
	if err != nil {
		return c.app.fail(ctx, err)
	}
	fmt.Fprintf(c.app.out, "Deleted %s %d\n", recordLabel(product), c.rec.ID)
	return subcommands.ExitSuccess
}
