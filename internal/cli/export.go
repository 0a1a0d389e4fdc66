package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/angelmondragon/pricelist/internal/export"
	"github.com/angelmondragon/pricelist/internal/quote"
	"github.com/angelmondragon/pricelist/pkg/enums"
	pkgerrors "github.com/angelmondragon/pricelist/pkg/errors"
	"github.com/google/subcommands"
)

// quoteFile is the batch export input.
type quoteFile struct {
	Customer string          `json:"customer"`
	Date     string          `json:"date"`
	Format   string          `json:"format" validate:"omitempty,oneof=docx pdf"`
	Lines    []quoteFileLine `json:"lines" validate:"dive"`
}

type quoteFileLine struct {
	ID       int64  `json:"id" validate:"gt=0"`
	Tier     string `json:"tier" validate:"omitempty,oneof=wholesale retail"`
	Quantity int    `json:"quantity" validate:"gte=0"`
}

type exportCmd struct {
	app       *App
	quotePath string
	customer  string
	date      string
	format    string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "export a price list described in a JSON file" }
func (*exportCmd) Usage() string {
	return `pricelist export -quote <quote.json> [-customer <name>] [-date <date>] [-format docx|pdf]

  Builds a price list from a file of the form
    {"customer": "...", "date": "...", "lines": [{"id": 1, "tier": "retail", "quantity": 2}]}
  and writes the document to the output directory. Flags override the file.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.quotePath, "quote", "", "Quote file to export.")
	f.StringVar(&c.customer, "customer", "", "Customer name, overrides the file.")
	f.StringVar(&c.date, "date", "", "Document date, overrides the file.")
	f.StringVar(&c.format, "format", "", "Output format (docx or pdf).")
}

func (c *exportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	qf, err := c.readQuoteFile()
	if err != nil {
		return c.app.fail(ctx, err)
	}
	q, err := c.buildQuote(ctx, qf)
	if err != nil {
		return c.app.fail(ctx, err)
	}
	req := export.Request{Customer: qf.Customer, Date: qf.Date, Format: qf.Format}
	if c.customer != "" {
		req.Customer = c.customer
	}
	if c.date != "" {
		req.Date = c.date
	}
	if c.format != "" {
		req.Format = c.format
	}

	art, err := c.app.exporter.Export(ctx, q, req)
	if err != nil {
		return c.app.fail(ctx, err)
	}
	path, err := c.app.saveArtifact(art)
	if err != nil {
		return c.app.fail(ctx, err)
	}
	fmt.Fprintln(c.app.out, path)
	return subcommands.ExitSuccess
}

func (c *exportCmd) readQuoteFile() (quoteFile, error) {
	var qf quoteFile
	if c.quotePath == "" {
		return qf, pkgerrors.New(pkgerrors.CodeValidation, "missing -quote")
	}
	data, err := os.ReadFile(c.quotePath)
	if err != nil {
		return qf, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, c.quotePath)
	}
	if err := json.Unmarshal(data, &qf); err != nil {
		return qf, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid quote file: "+err.Error())
	}
	if err := c.app.validate.Struct(qf); err != nil {
		return qf, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid quote file: "+err.Error())
	}
	return qf, nil
}

func (c *exportCmd) buildQuote(ctx context.Context, qf quoteFile) (*quote.Quote, error) {
	q := quote.New()
	for _, line := range qf.Lines {
		tier := enums.PriceTierWholesale
		if line.Tier != "" {
			tier = enums.PriceTier(line.Tier)
		}
		fan, err := c.app.lookup.GetFan(ctx, line.ID)
		if err != nil {
			return nil, err
		}
		if err := q.Add(&fan, tier, line.Quantity); err != nil {
			return nil, err
		}
	}
	return q, nil
}
