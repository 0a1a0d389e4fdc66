package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/pricelist/pkg/db"
	"github.com/angelmondragon/pricelist/pkg/logger"
	"github.com/pressly/goose/v3"
)

// Apply brings the catalog database up to the latest schema.
func Apply(ctx context.Context, backend string, client *db.Client, logg *logger.Logger) error {
	if logg == nil {
		logg = logger.Nop()
	}
	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	ctx = logg.WithFields(ctx, map[string]any{"backend": backend, "dir": Dir})
	goose.SetLogger(gooseLogger{ctx: ctx, logg: logg})
	logg.Debug(ctx, "running goose migrations")

	if err := Up(ctx, sqlDB, backend); err != nil {
		return err
	}
	version, err := Version(ctx, sqlDB, backend)
	if err != nil {
		return err
	}
	logg.Debug(logg.WithField(ctx, "version", version), "goose migrations completed")
	return nil
}

// gooseLogger routes goose output to the structured logger so it never
// mixes with command output on stdout.
type gooseLogger struct {
	ctx  context.Context
	logg *logger.Logger
}

func (l gooseLogger) Printf(format string, v ...interface{}) {
	l.logg.Debug(l.ctx, fmt.Sprintf(format, v...))
}

func (l gooseLogger) Fatalf(format string, v ...interface{}) {
	l.logg.Error(l.ctx, "goose fatal", fmt.Errorf(format, v...))
	panic(fmt.Sprintf(format, v...))
}
