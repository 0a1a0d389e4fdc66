// Package export turns a quote snapshot into a downloadable document.
package export

import (
	"context"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/angelmondragon/pricelist/internal/quote"
	pkgerrors "github.com/angelmondragon/pricelist/pkg/errors"
	"github.com/angelmondragon/pricelist/pkg/logger"
	"github.com/angelmondragon/pricelist/pkg/metrics"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Snapshotter is anything that can hand out an immutable copy of its lines.
type Snapshotter interface {
	Lines() []quote.Line
}

// Request carries the user-supplied export metadata.
type Request struct {
	Customer string
	Date     string
	Format   string `validate:"omitempty,oneof=docx pdf"`
}

// Artifact is a finished export.
type Artifact struct {
	ID          string
	Filename    string
	ContentType string
	Data        []byte
	Format      string
	Source      string
	GrandTotal  decimal.Decimal
	Rows        int
}

// Options are the configured export defaults.
type Options struct {
	CurrencyPrefix  string
	DefaultCustomer string
	DateLayout      string
}

// Params groups dependencies for the exporter.
type Params struct {
	Resolver  *Resolver
	Renderers []Renderer
	Metrics   *metrics.ExportMetrics
	Logger    *logger.Logger
	Clock     func() time.Time
	Options   Options
}

// Exporter runs the export pipeline: snapshot, resolve template, render.
type Exporter struct {
	resolver  *Resolver
	renderers map[string]Renderer
	metrics   *metrics.ExportMetrics
	logg      *logger.Logger
	now       func() time.Time
	opts      Options
	validate  *validator.Validate
}

// NewExporter builds an exporter; a DOCX renderer is always available.
func NewExporter(p Params) (*Exporter, error) {
	if p.Resolver == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "template resolver is required")
	}
	logg := p.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	clock := p.Clock
	if clock == nil {
		clock = time.Now
	}
	opts := p.Options
	if opts.DefaultCustomer == "" {
		opts.DefaultCustomer = "Customer"
	}
	if opts.DateLayout == "" {
		opts.DateLayout = "02/01/2006"
	}
	renderers := map[string]Renderer{FormatDOCX: DOCXRenderer{}}
	for _, r := range p.Renderers {
		renderers[r.Format()] = r
	}
	return &Exporter{
		resolver:  p.Resolver,
		renderers: renderers,
		metrics:   p.Metrics,
		logg:      logg,
		now:       clock,
		opts:      opts,
		validate:  validator.New(),
	}, nil
}

// Export snapshots src and renders it. An empty quote fails before any
// template is read. Cancellation yields CodeUserCancelled and no artifact.
func (e *Exporter) Export(ctx context.Context, src Snapshotter, req Request) (Artifact, error) {
	start := e.now()
	format := req.Format
	if format == "" {
		format = FormatDOCX
	}

	exportID := uuid.NewString()
	ctx = e.logg.WithExportID(ctx, exportID)
	if identified, ok := src.(interface{ ID() string }); ok {
		ctx = e.logg.WithQuoteID(ctx, identified.ID())
	}

	artifact, err := e.export(ctx, exportID, format, src, req)
	outcome := metrics.Outcome{Format: format, Elapsed: e.now().Sub(start)}
	if err != nil {
		code := pkgerrors.CodeOf(err)
		outcome.Code = string(code)
		e.metrics.Record(outcome)
		if pkgerrors.MetadataFor(code).Silent {
			e.logg.Info(ctx, "export cancelled")
		} else {
			e.logg.Warn(e.logg.WithField(ctx, "code", string(code)), "export failed: "+err.Error())
		}
		return Artifact{}, err
	}
	outcome.Rows = artifact.Rows
	e.metrics.Record(outcome)
	e.logg.Info(e.logg.WithFields(ctx, map[string]any{
		"filename": artifact.Filename,
		"rows":     artifact.Rows,
		"source":   artifact.Source,
	}), "export completed")
	return artifact, nil
}

func (e *Exporter) export(ctx context.Context, id, format string, src Snapshotter, req Request) (Artifact, error) {
	req.Format = format
	if err := e.validate.Struct(req); err != nil {
		return Artifact{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unsupported export format "+format)
	}
	renderer, ok := e.renderers[format]
	if !ok {
		return Artifact{}, pkgerrors.New(pkgerrors.CodeValidation, "no renderer for "+format)
	}

	lines := slices.Clone(src.Lines())
	if len(lines) == 0 {
		return Artifact{}, pkgerrors.New(pkgerrors.CodeEmptyQuote, "nothing to export")
	}

	doc := Document{
		Customer:       req.Customer,
		Date:           req.Date,
		Lines:          lines,
		GrandTotal:     quote.GrandTotalOf(lines),
		CurrencyPrefix: e.opts.CurrencyPrefix,
	}
	if strings.TrimSpace(doc.Customer) == "" {
		doc.Customer = e.opts.DefaultCustomer
	}
	if strings.TrimSpace(doc.Date) == "" {
		doc.Date = e.now().Format(e.opts.DateLayout)
	}

	var (
		template []byte
		source   string
	)
	if renderer.NeedsTemplate() {
		var err error
		template, source, err = e.resolver.Resolve(ctx)
		if err != nil {
			return Artifact{}, err
		}
	}
	if err := ctx.Err(); err != nil {
		return Artifact{}, cancelled(err)
	}

	data, err := renderer.Render(ctx, template, doc)
	if err != nil {
		return Artifact{}, err
	}
	if err := ctx.Err(); err != nil {
		return Artifact{}, cancelled(err)
	}

	return Artifact{
		ID:          id,
		Filename:    FileName(doc.Customer, doc.Date, renderer.Extension()),
		ContentType: renderer.ContentType(),
		Data:        data,
		Format:      format,
		Source:      source,
		GrandTotal:  doc.GrandTotal,
		Rows:        len(lines),
	}, nil
}

var whitespace = regexp.MustCompile(`\s+`)

// FileName builds price_list_<customer>_<date><ext> with whitespace runs in
// the customer and slashes in the date replaced by underscores.
func FileName(customer, date, ext string) string {
	return "price_list_" + whitespace.ReplaceAllString(customer, "_") + "_" + strings.ReplaceAll(date, "/", "_") + ext
}
