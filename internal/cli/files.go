package cli

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/angelmondragon/pricelist/internal/export"
	pkgerrors "github.com/angelmondragon/pricelist/pkg/errors"
	"go.uber.org/multierr"
)

var unsafeName = strings.NewReplacer("/", "_", `\`, "_", "\x00", "")

// safeFilename keeps a generated name inside its directory.
func safeFilename(name string) string {
	name = unsafeName.Replace(name)
	if name == "" || name == "." || name == ".." {
		return "price_list"
	}
	return name
}

// saveArtifact writes a finished export into the output directory.
func (a *App) saveArtifact(art export.Artifact) (string, error) {
	dir := a.outputDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create output directory")
	}
	path := filepath.Join(dir, safeFilename(art.Filename))
	if err := writeFileAtomic(path, art.Data); err != nil {
		return "", err
	}
	return path, nil
}

// writeFileAtomic writes to a temp file in the target directory and renames
// it over path, so readers never see a partial file.
func writeFileAtomic(path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create temp file")
	}
	defer func() {
		if err != nil {
			err = multierr.Append(err, removeIfExists(tmp.Name()))
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return multierr.Append(pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write "+path), tmp.Close())
	}
	if err = tmp.Close(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "close "+path)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rename into "+path)
	}
	return nil
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
