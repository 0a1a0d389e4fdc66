// Package cli exposes the catalog and the quote builder as terminal
// subcommands.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/angelmondragon/pricelist/internal/catalog"
	"github.com/angelmondragon/pricelist/internal/export"
	"github.com/angelmondragon/pricelist/internal/quote"
	pkgerrors "github.com/angelmondragon/pricelist/pkg/errors"
	"github.com/angelmondragon/pricelist/pkg/logger"
	"github.com/angelmondragon/pricelist/pkg/metrics"
	"github.com/go-playground/validator/v10"
	"github.com/google/subcommands"
)

// Params groups dependencies for the command set.
type Params struct {
	Catalog       *catalog.Service
	Renderers     []export.Renderer
	TemplatePaths []string
	Metrics       *metrics.ExportMetrics
	Logger        *logger.Logger
	Clock         func() time.Time
	ExportOptions export.Options
	Present       quote.PresentOptions
	OutputDir     string
	Locale        string
	Style         string
	In            io.Reader
	Out           io.Writer
	Err           io.Writer
}

// App holds what every subcommand shares: the catalog, one exporter and the
// terminal streams.
type App struct {
	catalog   *catalog.Service
	lookup    catalog.FanLookup
	exporter  *export.Exporter
	logg      *logger.Logger
	now       func() time.Time
	present   quote.PresentOptions
	outputDir string
	locale    string
	in        *bufio.Scanner
	out       io.Writer
	errOut    io.Writer
	render    func(string) (string, error)
	validate  *validator.Validate
}

// New builds the command set. The template resolver tries the configured
// paths in order and falls back to asking on the terminal.
func New(p Params) (*App, error) {
	if p.Catalog == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "catalog service is required")
	}
	logg := p.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	clock := p.Clock
	if clock == nil {
		clock = time.Now
	}
	in := p.In
	if in == nil {
		in = os.Stdin
	}
	out := p.Out
	if out == nil {
		out = os.Stdout
	}
	errOut := p.Err
	if errOut == nil {
		errOut = os.Stderr
	}

	app := &App{
		catalog:   p.Catalog,
		lookup:    p.Catalog,
		logg:      logg,
		now:       clock,
		present:   p.Present,
		outputDir: p.OutputDir,
		locale:    p.Locale,
		in:        bufio.NewScanner(in),
		out:       out,
		errOut:    errOut,
		render:    markdownRenderer(p.Style),
		validate:  validator.New(),
	}

	sources := append(export.FileSources(p.TemplatePaths), export.InteractiveSource{Prompter: linePrompter{app: app}})
	exporter, err := export.NewExporter(export.Params{
		Resolver:  export.NewResolver(logg, sources...),
		Renderers: p.Renderers,
		Metrics:   p.Metrics,
		Logger:    logg,
		Clock:     clock,
		Options:   p.ExportOptions,
	})
	if err != nil {
		return nil, err
	}
	app.exporter = exporter
	return app, nil
}

// Register adds every command to the commander.
func (a *App) Register(c *subcommands.Commander) {
	c.Register(&listCmd{app: a}, "catalog")
	c.Register(&addCmd{app: a}, "catalog")
	c.Register(&editCmd{app: a}, "catalog")
	c.Register(&rmCmd{app: a}, "catalog")
	c.Register(&importCmd{app: a}, "catalog")
	c.Register(&backupCmd{app: a}, "catalog")
	c.Register(&builderCmd{app: a}, "quote")
	c.Register(&exportCmd{app: a}, "quote")
}

// ask prints the prompt and reads one line. ok is false once input is
// exhausted.
func (a *App) ask(prompt string) (string, bool) {
	fmt.Fprint(a.out, prompt)
	if !a.in.Scan() {
		return "", false
	}
	return a.in.Text(), true
}

// report prints err for the user. Silent errors such as cancellation print
// nothing.
func (a *App) report(ctx context.Context, err error) {
	if err == nil {
		return
	}
	code := pkgerrors.CodeOf(err)
	if pkgerrors.MetadataFor(code).Silent {
		a.logg.Debug(ctx, "silent error: "+err.Error())
		return
	}
	if code == pkgerrors.CodeInternal || code == pkgerrors.CodeDependency {
		a.logg.Error(a.logg.WithField(ctx, "error_dump", pkgerrors.Dump(err)), "command failed", err)
	}
	fmt.Fprintf(a.errOut, "Error: %s\n", pkgerrors.UserMessage(err))
}

func (a *App) fail(ctx context.Context, err error) subcommands.ExitStatus {
	a.report(ctx, err)
	return subcommands.ExitFailure
}
