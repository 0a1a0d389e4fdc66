// Package quote holds the session-scoped price list assembled from catalog
// fans and its presentation.
package quote

import (
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/angelmondragon/pricelist/internal/catalog"
	"github.com/angelmondragon/pricelist/pkg/enums"
	pkgerrors "github.com/angelmondragon/pricelist/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Line binds a catalog fan to a price tier and quantity. Record is shared and
// must be treated as read-only.
type Line struct {
	Record   *catalog.Fan
	Tier     enums.PriceTier
	Quantity int
}

// UnitPrice is the record price for the line's tier.
func (l Line) UnitPrice() decimal.Decimal {
	if l.Record == nil {
		return decimal.Zero
	}
	return l.Record.Price(l.Tier)
}

// Total is UnitPrice times Quantity, unrounded.
func (l Line) Total() decimal.Decimal {
	return l.UnitPrice().Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Listener receives a snapshot of the lines after every effective mutation.
type Listener func(lines []Line)

// Quote is an ordered list of lines with at most one line per record id.
type Quote struct {
	mu        sync.Mutex
	id        string
	lines     []Line
	listeners map[int]Listener
	nextSub   int
}

// New returns an empty quote with a fresh session id.
func New() *Quote {
	return &Quote{
		id:        uuid.NewString(),
		listeners: make(map[int]Listener),
	}
}

func (q *Quote) ID() string {
	return q.id
}

// ParseQuantity reads a quantity typed on add. Anything that is not a
// positive integer becomes 1.
func ParseQuantity(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return 1
	}
	return n
}

// Add appends a line for record. Non-positive quantities are coerced to 1.
func (q *Quote) Add(record *catalog.Fan, tier enums.PriceTier, quantity int) error {
	if record == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "record is required")
	}
	if !tier.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid price tier "+strconv.Quote(string(tier)))
	}
	if quantity <= 0 {
		quantity = 1
	}
	return q.mutate(func() (bool, error) {
		for _, line := range q.lines {
			if line.Record.ID == record.ID {
				return false, pkgerrors.New(pkgerrors.CodeDuplicateEntry, record.DisplayName())
			}
		}
		q.lines = append(q.lines, Line{Record: record, Tier: tier, Quantity: quantity})
		return true, nil
	})
}

// Remove deletes the line at index, shifting later lines down.
func (q *Quote) Remove(index int) error {
	return q.mutate(func() (bool, error) {
		if err := q.checkIndex(index); err != nil {
			return false, err
		}
		q.lines = slices.Delete(q.lines, index, index+1)
		return true, nil
	})
}

// SetPriceTier sets the tier of the line at index.
func (q *Quote) SetPriceTier(index int, tier enums.PriceTier) error {
	if !tier.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid price tier "+strconv.Quote(string(tier)))
	}
	return q.mutate(func() (bool, error) {
		if err := q.checkIndex(index); err != nil {
			return false, err
		}
		if q.lines[index].Tier == tier {
			return false, nil
		}
		q.lines[index].Tier = tier
		return true, nil
	})
}

// TogglePriceTier flips the line at index between wholesale and retail.
func (q *Quote) TogglePriceTier(index int) error {
	return q.mutate(func() (bool, error) {
		if err := q.checkIndex(index); err != nil {
			return false, err
		}
		q.lines[index].Tier = q.lines[index].Tier.Toggle()
		return true, nil
	})
}

// SetQuantity replaces the quantity of the line at index. Non-positive
// values are ignored and reported as not applied.
func (q *Quote) SetQuantity(index, quantity int) (bool, error) {
	applied := false
	err := q.mutate(func() (bool, error) {
		if err := q.checkIndex(index); err != nil {
			return false, err
		}
		if quantity <= 0 {
			return false, nil
		}
		applied = true
		if q.lines[index].Quantity == quantity {
			return false, nil
		}
		q.lines[index].Quantity = quantity
		return true, nil
	})
	return applied, err
}

// SetQuantityInput is SetQuantity for raw user text. Non-numeric input is
// ignored.
func (q *Quote) SetQuantityInput(index int, raw string) (bool, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		if idxErr := q.withLock(func() error { return q.checkIndex(index) }); idxErr != nil {
			return false, idxErr
		}
		return false, nil
	}
	return q.SetQuantity(index, n)
}

// MoveUp swaps the line at index with its predecessor. No-op on the first line.
func (q *Quote) MoveUp(index int) error {
	return q.mutate(func() (bool, error) {
		if err := q.checkIndex(index); err != nil {
			return false, err
		}
		if index == 0 {
			return false, nil
		}
		q.lines[index-1], q.lines[index] = q.lines[index], q.lines[index-1]
		return true, nil
	})
}

// MoveDown swaps the line at index with its successor. No-op on the last line.
func (q *Quote) MoveDown(index int) error {
	return q.mutate(func() (bool, error) {
		if err := q.checkIndex(index); err != nil {
			return false, err
		}
		if index == len(q.lines)-1 {
			return false, nil
		}
		q.lines[index], q.lines[index+1] = q.lines[index+1], q.lines[index]
		return true, nil
	})
}

// SortByID orders lines ascending by record id.
func (q *Quote) SortByID() {
	_ = q.mutate(func() (bool, error) {
		if slices.IsSortedFunc(q.lines, compareByID) {
			return false, nil
		}
		slices.SortStableFunc(q.lines, compareByID)
		return true, nil
	})
}

func compareByID(a, b Line) int {
	switch {
	case a.Record.ID < b.Record.ID:
		return -1
	case a.Record.ID > b.Record.ID:
		return 1
	default:
		return 0
	}
}

// GrandTotal is the exact sum of all line totals.
func (q *Quote) GrandTotal() decimal.Decimal {
	q.mu.Lock()
	defer q.mu.Unlock()
	return sumTotals(q.lines)
}

// GrandTotalOf sums the totals of a snapshot.
func GrandTotalOf(lines []Line) decimal.Decimal {
	return sumTotals(lines)
}

func sumTotals(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Total())
	}
	return total
}

// Lines returns a snapshot that later mutations do not affect.
func (q *Quote) Lines() []Line {
	q.mu.Lock()
	defer q.mu.Unlock()
	return slices.Clone(q.lines)
}

func (q *Quote) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.lines)
}

// Subscribe registers fn for change notifications and returns a function
// that removes it.
func (q *Quote) Subscribe(fn Listener) func() {
	q.mu.Lock()
	defer q.mu.Unlock()
	id := q.nextSub
	q.nextSub++
	q.listeners[id] = fn
	return func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		delete(q.listeners, id)
	}
}

func (q *Quote) checkIndex(index int) error {
	if index < 0 || index >= len(q.lines) {
		return pkgerrors.New(pkgerrors.CodeIndexOutOfRange, "line "+strconv.Itoa(index+1))
	}
	return nil
}

func (q *Quote) withLock(fn func() error) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return fn()
}

// mutate runs fn under the lock and notifies listeners outside of it when fn
// reports a change.
func (q *Quote) mutate(fn func() (bool, error)) error {
	q.mu.Lock()
	changed, err := fn()
	if err != nil || !changed {
		q.mu.Unlock()
		return err
	}
	snapshot := slices.Clone(q.lines)
	listeners := make([]Listener, 0, len(q.listeners))
	for i := 0; i < q.nextSub; i++ {
		if l, ok := q.listeners[i]; ok {
			listeners = append(listeners, l)
		}
	}
	q.mu.Unlock()

	for _, listener := range listeners {
		listener(slices.Clone(snapshot))
	}
	return nil
}
