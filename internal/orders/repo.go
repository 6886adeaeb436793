package orders

import (
	"context"
	"time"

	"github.com/sorbetero/sorbetero-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository exposes order persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an order repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new order row.
func (r *Repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

// ListByVendor returns the vendor's orders newest first.
func (r *Repository) ListByVendor(ctx context.Context, vendorID uint) ([]models.Order, error) {
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Where("vendor_id = ?", vendorID).
		Order("created_at DESC").Order("order_id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// CountForVendorBetween counts orders created in [from, to). The monthly
// limit check passes calendar-month bounds.
func (r *Repository) CountForVendorBetween(ctx context.Context, vendorID uint, from, to time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("vendor_id = ? AND created_at >= ? AND created_at < ?", vendorID, from, to).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
