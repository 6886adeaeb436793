package vendors

import (
	"context"

	"github.com/sorbetero/sorbetero-backend/pkg/db/models"
	"github.com/sorbetero/sorbetero-backend/pkg/enums"
	"gorm.io/gorm"
)

// Repository exposes vendor persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a vendor repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByID loads a single vendor row.
func (r *Repository) FindByID(ctx context.Context, id uint) (*models.Vendor, error) {
	var vendor models.Vendor
	if err := r.db.WithContext(ctx).First(&vendor, "vendor_id = ?", id).Error; err != nil {
		return nil, err
	}
	return &vendor, nil
}

// Update persists the full vendor row.
func (r *Repository) Update(ctx context.Context, vendor *models.Vendor) error {
	return r.db.WithContext(ctx).Save(vendor).Error
}

// ListExpiryCandidates returns vendors on a paid plan with an end date set.
// Expiry itself is evaluated by the caller against its clock.
func (r *Repository) ListExpiryCandidates(ctx context.Context) ([]models.Vendor, error) {
	var rows []models.Vendor
	err := r.db.WithContext(ctx).
		Where("subscription_plan <> ?", enums.PlanTierFree).
		Where("subscription_end_date IS NOT NULL").
		Order("vendor_id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
