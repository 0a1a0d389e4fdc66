package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path"

	"github.com/angelmondragon/pricelist/internal/catalog"
	"github.com/angelmondragon/pricelist/internal/cli"
	"github.com/angelmondragon/pricelist/internal/export"
	"github.com/angelmondragon/pricelist/internal/quote"
	"github.com/angelmondragon/pricelist/pkg/config"
	"github.com/angelmondragon/pricelist/pkg/kvstore"
	"github.com/angelmondragon/pricelist/pkg/logger"
	"github.com/angelmondragon/pricelist/pkg/metrics"
	"github.com/google/subcommands"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "pricelist"})

	if err := godotenv.Load(); err != nil {
		logg.Debug(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "pricelist",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":     cfg.App.Env,
		"storage": cfg.Storage.Backend,
	})

	store, closeStore, err := kvstore.Open(ctx, cfg, logg)
	if err != nil {
		logg.Error(ctx, "failed to open catalog store", err)
		os.Exit(1)
	}

	svc, err := catalog.NewService(catalog.ServiceParams{Store: store, Logger: logg})
	if err != nil {
		logg.Error(ctx, "failed to build catalog service", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	app, err := cli.New(cli.Params{
		Catalog:       svc,
		Renderers:     []export.Renderer{export.PDFRenderer{FontPath: cfg.PDF.FontPath}},
		TemplatePaths: cfg.Template.CandidatePaths(),
		Metrics:       metrics.NewExportMetrics(registry),
		Logger:        logg,
		ExportOptions: export.Options{
			CurrencyPrefix:  cfg.Export.CurrencyPrefix,
			DefaultCustomer: cfg.Export.DefaultCustomer,
			DateLayout:      cfg.Export.DateLayout,
		},
		Present:   quote.PresentOptions{CurrencyCode: cfg.Export.CurrencyCode},
		OutputDir: cfg.Export.OutputDir,
		Locale:    cfg.App.Locale,
		Style:     cfg.CLI.Style,
	})
	if err != nil {
		logg.Error(ctx, "failed to build commands", err)
		os.Exit(1)
	}

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	app.Register(commander)

	flag.Parse()
	status := commander.Execute(ctx)

	if err := metrics.WriteTextfile(cfg.Metrics.Textfile, registry); err != nil {
		logg.Warn(ctx, err.Error())
	}
	if err := closeStore(); err != nil {
		logg.Error(ctx, "error closing catalog store", err)
	}
	stop()
	os.Exit(int(status))
}
