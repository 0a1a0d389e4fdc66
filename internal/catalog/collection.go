package catalog

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"sync"

	"github.com/angelmondragon/pricelist/pkg/kvstore"
	pkgerrors "github.com/angelmondragon/pricelist/pkg/errors"
)

// collection persists one product type as a JSON array under a single key,
// plus an id high-water mark under <key>_seq so deleted ids are never reused.
type collection[T any] struct {
	mu     sync.Mutex
	store  kvstore.Store
	key    string
	id     func(*T) int64
	setID  func(*T, int64)
	fields func(*T) []string
}

func (c *collection[T]) seqKey() string {
	return c.key + "_seq"
}

func (c *collection[T]) load(ctx context.Context) ([]T, error) {
	raw, ok, err := c.store.Get(ctx, c.key)
	if err != nil {
		return nil, err
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return []T{}, nil
	}
	var items []T
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode "+c.key)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func (c *collection[T]) save(ctx context.Context, items []T) error {
	payload, err := c.encode(items)
	if err != nil {
		return err
	}
	return c.store.Set(ctx, c.key, payload)
}

// saveWithSeq writes the items and the high-water mark in one batch.
func (c *collection[T]) saveWithSeq(ctx context.Context, items []T, hw int64) error {
	payload, err := c.encode(items)
	if err != nil {
		return err
	}
	return c.store.SetMany(ctx, map[string]string{
		c.key:      payload,
		c.seqKey(): strconv.FormatInt(hw, 10),
	})
}

func (c *collection[T]) encode(items []T) (string, error) {
	payload, err := json.Marshal(items)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode "+c.key)
	}
	return string(payload), nil
}

func (c *collection[T]) highWater(ctx context.Context, items []T) (int64, error) {
	var hw int64
	raw, ok, err := c.store.Get(ctx, c.seqKey())
	if err != nil {
		return 0, err
	}
	if ok {
		if v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64); err == nil {
			hw = v
		}
	}
	for i := range items {
		if id := c.id(&items[i]); id > hw {
			hw = id
		}
	}
	return hw, nil
}

func (c *collection[T]) indexOf(items []T, id int64) int {
	for i := range items {
		if c.id(&items[i]) == id {
			return i
		}
	}
	return -1
}

func (c *collection[T]) add(ctx context.Context, item T) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	items, err := c.load(ctx)
	if err != nil {
		return zero, err
	}
	hw, err := c.highWater(ctx, items)
	if err != nil {
		return zero, err
	}
	c.setID(&item, hw+1)
	items = append(items, item)
	if err := c.saveWithSeq(ctx, items, hw+1); err != nil {
		return zero, err
	}
	return item, nil
}

func (c *collection[T]) update(ctx context.Context, id int64, item T) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	items, err := c.load(ctx)
	if err != nil {
		return zero, err
	}
	idx := c.indexOf(items, id)
	if idx < 0 {
		return zero, notFound(c.key, id)
	}
	c.setID(&item, id)
	items[idx] = item
	if err := c.save(ctx, items); err != nil {
		return zero, err
	}
	return item, nil
}

func (c *collection[T]) delete(ctx context.Context, id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.load(ctx)
	if err != nil {
		return err
	}
	idx := c.indexOf(items, id)
	if idx < 0 {
		return notFound(c.key, id)
	}
	hw, err := c.highWater(ctx, items)
	if err != nil {
		return err
	}
	items = append(items[:idx], items[idx+1:]...)
	return c.saveWithSeq(ctx, items, hw)
}

func (c *collection[T]) get(ctx context.Context, id int64) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	items, err := c.load(ctx)
	if err != nil {
		return zero, err
	}
	idx := c.indexOf(items, id)
	if idx < 0 {
		return zero, notFound(c.key, id)
	}
	return items[idx], nil
}

func (c *collection[T]) list(ctx context.Context) ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load(ctx)
}

// search matches query case-insensitively against the searchable fields.
// An empty query returns every item.
func (c *collection[T]) search(ctx context.Context, query string) ([]T, error) {
	items, err := c.list(ctx)
	if err != nil {
		return nil, err
	}
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return items, nil
	}
	matches := make([]T, 0, len(items))
	for i := range items {
		for _, field := range c.fields(&items[i]) {
			if field != "" && strings.Contains(strings.ToLower(field), query) {
				matches = append(matches, items[i])
				break
			}
		}
	}
	return matches, nil
}

// replace overwrites the whole collection, keeping the sequence ahead of
// every imported id. Items without an id get fresh ones.
func (c *collection[T]) replace(ctx context.Context, items []T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	current, err := c.load(ctx)
	if err != nil {
		return err
	}
	hw, err := c.highWater(ctx, current)
	if err != nil {
		return err
	}
	for i := range items {
		if id := c.id(&items[i]); id > hw {
			hw = id
		}
	}
	for i := range items {
		if c.id(&items[i]) <= 0 {
			hw++
			c.setID(&items[i], hw)
		}
	}
	return c.saveWithSeq(ctx, items, hw)
}

func notFound(key string, id int64) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, strings.TrimSuffix(key, "_db")+" "+strconv.FormatInt(id, 10)+" not found")
}
