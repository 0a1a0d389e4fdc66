package catalog

import (
	"context"
	"encoding/json"
	"io"
	"time"

	pkgerrors "github.com/angelmondragon/pricelist/pkg/errors"
)

// Backup is the JSON document produced by ExportBackup. On import a nil
// collection means "absent" and leaves the stored collection untouched.
type Backup struct {
	Fans       []Fan        `json:"fans"`
	SheetMetal []SheetMetal `json:"sheet_metal"`
	Flexible   []Flexible   `json:"flexible"`
	ExportDate time.Time    `json:"export_date"`
}

// ExportBackup snapshots all three catalogs.
func (s *Service) ExportBackup(ctx context.Context) (Backup, error) {
	fans, err := s.fans.list(ctx)
	if err != nil {
		return Backup{}, err
	}
	sheetMetal, err := s.sheetMetal.list(ctx)
	if err != nil {
		return Backup{}, err
	}
	flexible, err := s.flexible.list(ctx)
	if err != nil {
		return Backup{}, err
	}
	return Backup{
		Fans:       fans,
		SheetMetal: sheetMetal,
		Flexible:   flexible,
		ExportDate: s.now().UTC(),
	}, nil
}

// ImportBackup replaces each catalog present in backup.
func (s *Service) ImportBackup(ctx context.Context, backup Backup) error {
	if backup.Fans != nil {
		for _, fan := range backup.Fans {
			if err := validateFan(fan); err != nil {
				return err
			}
		}
		if err := s.fans.replace(ctx, backup.Fans); err != nil {
			return err
		}
	}
	if backup.SheetMetal != nil {
		if err := s.sheetMetal.replace(ctx, backup.SheetMetal); err != nil {
			return err
		}
	}
	if backup.Flexible != nil {
		if err := s.flexible.replace(ctx, backup.Flexible); err != nil {
			return err
		}
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"fans":        len(backup.Fans),
		"sheet_metal": len(backup.SheetMetal),
		"flexible":    len(backup.Flexible),
	}), "catalog backup imported")
	return nil
}

// WriteBackup encodes ExportBackup as indented JSON.
func (s *Service) WriteBackup(ctx context.Context, w io.Writer) error {
	backup, err := s.ExportBackup(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(backup); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode backup")
	}
	return nil
}

// ReadBackup decodes a backup document and imports it.
func (s *Service) ReadBackup(ctx context.Context, r io.Reader) error {
	var backup Backup
	if err := json.NewDecoder(r).Decode(&backup); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid backup file")
	}
	return s.ImportBackup(ctx, backup)
}
