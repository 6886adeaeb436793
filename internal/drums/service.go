package drums

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sorbetero/sorbetero-backend/pkg/db"
	"github.com/sorbetero/sorbetero-backend/pkg/db/models"
	"github.com/sorbetero/sorbetero-backend/pkg/enums"
	pkgerrors "github.com/sorbetero/sorbetero-backend/pkg/errors"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// UpdateStockInput is the desired state for one (vendor, size) pricing row.
type UpdateStockInput struct {
	Price   decimal.Decimal
	Stock   int
	Gallons float64
}

// Service exposes drum pricing reads and the stock update that keeps future
// availability in sync.
type Service interface {
	ListPricing(ctx context.Context, vendorID uint) ([]models.VendorDrumPricing, error)
	UpdateStock(ctx context.Context, vendorID uint, size enums.DrumSize, input UpdateStockInput) (*models.VendorDrumPricing, error)
}

type service struct {
	db   txRunner
	repo *Repository
	now  func() time.Time
}

// Params collects the service dependencies.
type Params struct {
	DB   txRunner
	Repo *Repository
	Now  func() time.Time
}

// NewService validates dependencies and builds the drum service.
func NewService(params Params) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("db client required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("drum repository required")
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &service{db: params.DB, repo: params.Repo, now: params.Now}, nil
}

func (s *service) ListPricing(ctx context.Context, vendorID uint) ([]models.VendorDrumPricing, error) {
	if vendorID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id is required")
	}
	rows, err := s.repo.ListByVendor(ctx, vendorID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list drum pricing")
	}
	return rows, nil
}

// UpdateStock replaces the pricing row for one size and re-syncs the vendor's
// future availability for that size. Capacity may grow back up to the new
// stock but never drops below a row's existing commitments.
func (s *service) UpdateStock(ctx context.Context, vendorID uint, size enums.DrumSize, input UpdateStockInput) (*models.VendorDrumPricing, error) {
	if vendorID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id is required")
	}
	if !size.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid drum size")
	}
	if input.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}

	today := time.Date(s.now().Year(), s.now().Month(), s.now().Day(), 0, 0, 0, 0, s.now().Location())

	var updated *models.VendorDrumPricing
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		var row models.VendorDrumPricing
		err := tx.First(&row, "vendor_id = ? AND drum_size = ?", vendorID, size).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			row = models.VendorDrumPricing{VendorID: vendorID, DrumSize: size}
		case err != nil:
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup drum pricing")
		}

		row.Price = input.Price
		row.Stock = input.Stock
		row.Gallons = input.Gallons
		if err := tx.Save(&row).Error; err != nil {
			if db.IsUniqueViolation(err) {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "drum pricing row already exists")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save drum pricing")
		}
		updated = &row

		availability := NewAvailabilityRepository(tx)
		future, err := availability.ListFuture(ctx, vendorID, size, today)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list future availability")
		}

		for _, avail := range future {
			committed := avail.Committed()
			capacity := max(input.Stock, committed)
			available := max(0, capacity-committed)
			if capacity == avail.TotalCapacity && available == avail.AvailableCount {
				continue
			}
			if err := availability.UpdateCapacity(ctx, avail.ID, capacity, available); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sync availability row")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
