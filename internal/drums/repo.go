package drums

import (
	"context"

	"github.com/sorbetero/sorbetero-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository exposes drum pricing persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a drum pricing repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListByVendor returns the vendor's pricing rows, one per stocked size.
func (r *Repository) ListByVendor(ctx context.Context, vendorID uint) ([]models.VendorDrumPricing, error) {
	var rows []models.VendorDrumPricing
	err := r.db.WithContext(ctx).
		Where("vendor_id = ?", vendorID).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// TotalStock sums stock across all sizes for a vendor.
func (r *Repository) TotalStock(ctx context.Context, vendorID uint) (int, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.VendorDrumPricing{}).
		Where("vendor_id = ?", vendorID).
		Select("COALESCE(SUM(stock), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return int(total), nil
}
