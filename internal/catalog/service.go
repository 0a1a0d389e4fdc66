package catalog

import (
	"context"
	"time"

	"github.com/angelmondragon/pricelist/pkg/enums"
	pkgerrors "github.com/angelmondragon/pricelist/pkg/errors"
	"github.com/angelmondragon/pricelist/pkg/kvstore"
	"github.com/angelmondragon/pricelist/pkg/logger"
)

// FanLookup is the read-only catalog surface consumed by the quote builder.
type FanLookup interface {
	ListFans(ctx context.Context) ([]Fan, error)
	SearchFans(ctx context.Context, query string) ([]Fan, error)
	GetFan(ctx context.Context, id int64) (Fan, error)
}

// ServiceParams groups dependencies for the catalog service.
type ServiceParams struct {
	Store  kvstore.Store
	Logger *logger.Logger
	Clock  func() time.Time
}

// Service manages the three product catalogs on top of a key-value store.
type Service struct {
	fans       *collection[Fan]
	sheetMetal *collection[SheetMetal]
	flexible   *collection[Flexible]
	logg       *logger.Logger
	now        func() time.Time
}

// NewService builds a catalog service with the required dependencies.
func NewService(params ServiceParams) (*Service, error) {
	if params.Store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "key-value store is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		fans: &collection[Fan]{
			store: params.Store,
			key:   enums.ProductTypeFans.StorageKey(),
			id:    func(f *Fan) int64 { return f.ID },
			setID: func(f *Fan, id int64) { f.ID = id },
			fields: func(f *Fan) []string {
				return []string{f.Name, f.Airflow, f.Description}
			},
		},
		sheetMetal: &collection[SheetMetal]{
			store: params.Store,
			key:   enums.ProductTypeSheetMetal.StorageKey(),
			id:    func(s *SheetMetal) int64 { return s.ID },
			setID: func(s *SheetMetal, id int64) { s.ID = id },
			fields: func(s *SheetMetal) []string {
				return []string{s.Thickness, s.Dimensions, s.Measurement}
			},
		},
		flexible: &collection[Flexible]{
			store: params.Store,
			key:   enums.ProductTypeFlexible.StorageKey(),
			id:    func(f *Flexible) int64 { return f.ID },
			setID: func(f *Flexible, id int64) { f.ID = id },
			fields: func(f *Flexible) []string {
				return []string{f.Diameter, f.Collection, f.Description}
			},
		},
		logg: logg,
		now:  clock,
	}, nil
}

// AddFan stores a new fan and returns it with its assigned id.
func (s *Service) AddFan(ctx context.Context, fan Fan) (Fan, error) {
	if err := validateFan(fan); err != nil {
		return Fan{}, err
	}
	return s.fans.add(ctx, fan)
}

// UpdateFan replaces every field of the fan except its id.
func (s *Service) UpdateFan(ctx context.Context, id int64, fan Fan) (Fan, error) {
	if err := validateFan(fan); err != nil {
		return Fan{}, err
	}
	return s.fans.update(ctx, id, fan)
}

func (s *Service) DeleteFan(ctx context.Context, id int64) error {
	return s.fans.delete(ctx, id)
}

func (s *Service) GetFan(ctx context.Context, id int64) (Fan, error) {
	return s.fans.get(ctx, id)
}

// SearchFans matches name, airflow and description.
func (s *Service) SearchFans(ctx context.Context, query string) ([]Fan, error) {
	return s.fans.search(ctx, query)
}

func (s *Service) ListFans(ctx context.Context) ([]Fan, error) {
	return s.fans.list(ctx)
}

func (s *Service) AddSheetMetal(ctx context.Context, item SheetMetal) (SheetMetal, error) {
	if item.Cost.IsNegative() {
		return SheetMetal{}, pkgerrors.New(pkgerrors.CodeValidation, "cost must not be negative")
	}
	return s.sheetMetal.add(ctx, item)
}

func (s *Service) UpdateSheetMetal(ctx context.Context, id int64, item SheetMetal) (SheetMetal, error) {
	if item.Cost.IsNegative() {
		return SheetMetal{}, pkgerrors.New(pkgerrors.CodeValidation, "cost must not be negative")
	}
	return s.sheetMetal.update(ctx, id, item)
}

func (s *Service) DeleteSheetMetal(ctx context.Context, id int64) error {
	return s.sheetMetal.delete(ctx, id)
}

func (s *Service) GetSheetMetal(ctx context.Context, id int64) (SheetMetal, error) {
	return s.sheetMetal.get(ctx, id)
}

// SearchSheetMetal matches thickness, dimensions and measurement.
func (s *Service) SearchSheetMetal(ctx context.Context, query string) ([]SheetMetal, error) {
	return s.sheetMetal.search(ctx, query)
}

func (s *Service) ListSheetMetal(ctx context.Context) ([]SheetMetal, error) {
	return s.sheetMetal.list(ctx)
}

func (s *Service) AddFlexible(ctx context.Context, item Flexible) (Flexible, error) {
	if item.Meter.IsNegative() {
		return Flexible{}, pkgerrors.New(pkgerrors.CodeValidation, "meter price must not be negative")
	}
	return s.flexible.add(ctx, item)
}

func (s *Service) UpdateFlexible(ctx context.Context, id int64, item Flexible) (Flexible, error) {
	if item.Meter.IsNegative() {
		return Flexible{}, pkgerrors.New(pkgerrors.CodeValidation, "meter price must not be negative")
	}
	return s.flexible.update(ctx, id, item)
}

func (s *Service) DeleteFlexible(ctx context.Context, id int64) error {
	return s.flexible.delete(ctx, id)
}

func (s *Service) GetFlexible(ctx context.Context, id int64) (Flexible, error) {
	return s.flexible.get(ctx, id)
}

// SearchFlexible matches diameter, collection and description.
func (s *Service) SearchFlexible(ctx context.Context, query string) ([]Flexible, error) {
	return s.flexible.search(ctx, query)
}

func (s *Service) ListFlexible(ctx context.Context) ([]Flexible, error) {
	return s.flexible.list(ctx)
}

func validateFan(fan Fan) error {
	if fan.PriceWholesale.IsNegative() || fan.PriceRetail.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "prices must not be negative")
	}
	if fan.Quantity < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock quantity must not be negative")
	}
	return nil
}
