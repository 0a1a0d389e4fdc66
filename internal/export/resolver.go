package export

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"strconv"

	pkgerrors "github.com/angelmondragon/pricelist/pkg/errors"
	"github.com/angelmondragon/pricelist/pkg/logger"
)

// TemplateSource produces template bytes. A source that simply has nothing
// to offer returns a CodeTemplateAssetNotFound error so the next source is
// tried; any other error stops resolution.
type TemplateSource interface {
	Name() string
	Load(ctx context.Context) ([]byte, error)
}

// FileSource reads a template from a fixed path.
type FileSource struct {
	Path string
}

func (s FileSource) Name() string {
	return "file:" + s.Path
}

func (s FileSource) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, cancelled(err)
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeTemplateAssetNotFound, err, s.Path)
	}
	return data, nil
}

// StaticSource serves bytes already in memory, e.g. an uploaded template.
type StaticSource struct {
	Label string
	Data  []byte
}

func (s StaticSource) Name() string {
	return "static:" + s.Label
}

func (s StaticSource) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, cancelled(err)
	}
	if len(s.Data) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeTemplateAssetNotFound, s.Label)
	}
	return s.Data, nil
}

// Prompter asks the user for a template when no configured source has one.
type Prompter interface {
	// ConfirmManualSelection asks whether the user wants to pick a file.
	ConfirmManualSelection(ctx context.Context) (bool, error)
	// ChooseTemplate returns the chosen path, or "" when the user cancels.
	ChooseTemplate(ctx context.Context) (string, error)
}

// InteractiveSource is the last resort of a Resolver. Declining the manual
// selection leaves the template not found; cancelling the choice aborts the
// export.
type InteractiveSource struct {
	Prompter Prompter
}

func (s InteractiveSource) Name() string {
	return "interactive"
}

func (s InteractiveSource) Load(ctx context.Context) ([]byte, error) {
	if s.Prompter == nil {
		return nil, pkgerrors.New(pkgerrors.CodeTemplateAssetNotFound, "no prompter configured")
	}
	ok, err := s.Prompter.ConfirmManualSelection(ctx)
	if err != nil {
		return nil, asCancellation(ctx, err)
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeTemplateAssetNotFound, "manual selection declined")
	}
	path, err := s.Prompter.ChooseTemplate(ctx)
	if err != nil {
		return nil, asCancellation(ctx, err)
	}
	if path == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUserCancelled, "template selection cancelled")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeTemplateAssetNotFound, err, path)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeTemplateUnreadable, err, path)
	}
	return data, nil
}

// Resolver tries its sources in order and returns the first template found.
type Resolver struct {
	sources []TemplateSource
	logg    *logger.Logger
}

func NewResolver(logg *logger.Logger, sources ...TemplateSource) *Resolver {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Resolver{sources: sources, logg: logg}
}

// FileSources turns candidate paths into sources, keeping their order.
func FileSources(paths []string) []TemplateSource {
	out := make([]TemplateSource, 0, len(paths))
	for _, p := range paths {
		out = append(out, FileSource{Path: p})
	}
	return out
}

// Resolve returns the template bytes and the name of the source that
// produced them.
func (r *Resolver) Resolve(ctx context.Context) ([]byte, string, error) {
	for _, src := range r.sources {
		if err := ctx.Err(); err != nil {
			return nil, "", cancelled(err)
		}
		data, err := src.Load(ctx)
		if err == nil {
			r.logg.Info(r.logg.WithField(ctx, "source", src.Name()), "template resolved")
			return data, src.Name(), nil
		}
		if !pkgerrors.IsCode(err, pkgerrors.CodeTemplateAssetNotFound) {
			return nil, "", err
		}
		r.logg.Debug(r.logg.WithFields(ctx, map[string]any{
			"source": src.Name(),
			"reason": err.Error(),
		}), "template source unavailable")
	}
	return nil, "", pkgerrors.New(pkgerrors.CodeTemplateAssetNotFound,
		"no template in "+strconv.Itoa(len(r.sources))+" locations")
}

func cancelled(err error) error {
	return pkgerrors.Wrap(pkgerrors.CodeUserCancelled, err, "export cancelled")
}

// asCancellation maps prompt failures caused by cancellation to
// CodeUserCancelled and keeps typed errors as they are.
func asCancellation(ctx context.Context, err error) error {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return cancelled(err)
	}
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "template prompt failed")
}
