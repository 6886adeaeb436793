package flavors

import (
	"context"

	"github.com/sorbetero/sorbetero-backend/pkg/db/models"
	"github.com/sorbetero/sorbetero-backend/pkg/enums"
	"gorm.io/gorm"
)

// Repository exposes flavor persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a flavor repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new flavor row.
func (r *Repository) Create(ctx context.Context, flavor *models.Flavor) (*models.Flavor, error) {
	if err := r.db.WithContext(ctx).Create(flavor).Error; err != nil {
		return nil, err
	}
	return flavor, nil
}

// FindByID loads a single flavor row.
func (r *Repository) FindByID(ctx context.Context, id uint) (*models.Flavor, error) {
	var flavor models.Flavor
	if err := r.db.WithContext(ctx).First(&flavor, "flavor_id = ?", id).Error; err != nil {
		return nil, err
	}
	return &flavor, nil
}

// ListByVendor returns the vendor's flavors newest first.
func (r *Repository) ListByVendor(ctx context.Context, vendorID uint) ([]models.Flavor, error) {
	var rows []models.Flavor
	err := r.db.WithContext(ctx).
		Where("vendor_id = ?", vendorID).
		Order("created_at DESC").Order("flavor_id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// CountPublished counts the vendor's currently published flavors.
func (r *Repository) CountPublished(ctx context.Context, vendorID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Flavor{}).
		Where("vendor_id = ? AND store_status = ?", vendorID, enums.StoreStatusPublished).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// UpdateStatus sets the publish state of one flavor.
func (r *Repository) UpdateStatus(ctx context.Context, id uint, status enums.StoreStatus) error {
	return r.db.WithContext(ctx).Model(&models.Flavor{}).
		Where("flavor_id = ?", id).
		Update("store_status", status).Error
}

// UnlockAll clears the subscription lock on every flavor the vendor owns.
// Called when the vendor returns to a paid plan.
func (r *Repository) UnlockAll(ctx context.Context, vendorID uint) error {
	return r.db.WithContext(ctx).Model(&models.Flavor{}).
		Where("vendor_id = ? AND locked_by_subscription = ?", vendorID, true).
		Update("locked_by_subscription", false).Error
}
