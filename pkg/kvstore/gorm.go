package kvstore

import (
	"context"
	"errors"
	"sort"

	"github.com/angelmondragon/pricelist/pkg/db"
	"github.com/angelmondragon/pricelist/pkg/db/models"
	pkgerrors "github.com/angelmondragon/pricelist/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Gorm stores entries in the kv_entries table of a sqlite or postgres
// database. The table is created by the migrate package.
type Gorm struct {
	client *db.Client
}

func NewGorm(client *db.Client) (*Gorm, error) {
	if client == nil || client.DB() == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	return &Gorm{client: client}, nil
}

func (g *Gorm) Get(ctx context.Context, key string) (string, bool, error) {
	var entry models.KVEntry
	err := g.client.DB().WithContext(ctx).Where("entry_key = ?", key).Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read "+key)
	}
	return entry.Value, true, nil
}

func (g *Gorm) Set(ctx context.Context, key, value string) error {
	if err := upsert(g.client.DB().WithContext(ctx), key, value); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write "+key)
	}
	return nil
}

func (g *Gorm) SetMany(ctx context.Context, entries map[string]string) error {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	err := g.client.WithTx(ctx, func(tx *gorm.DB) error {
		for _, k := range keys {
			if err := upsert(tx, k, entries[k]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write batch")
	}
	return nil
}

func (g *Gorm) Delete(ctx context.Context, key string) error {
	if err := g.client.DB().WithContext(ctx).Where("entry_key = ?", key).Delete(&models.KVEntry{}).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete "+key)
	}
	return nil
}

func upsert(conn *gorm.DB, key, value string) error {
	entry := models.KVEntry{Key: key, Value: value}
	return conn.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entry_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
}
