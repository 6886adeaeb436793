package drums

import (
	"context"
	"time"

	"github.com/sorbetero/sorbetero-backend/pkg/db/models"
	"github.com/sorbetero/sorbetero-backend/pkg/enums"
	"gorm.io/gorm"
)

// AvailabilityRepository exposes daily availability persistence operations.
// The stock update constructs it over its transaction so the sync commits
// atomically with the pricing row.
type AvailabilityRepository struct {
	db *gorm.DB
}

// NewAvailabilityRepository constructs an availability repository tied to the provided GORM DB.
func NewAvailabilityRepository(db *gorm.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

// ListFuture returns the vendor's availability rows for one size from a given
// date forward.
func (r *AvailabilityRepository) ListFuture(ctx context.Context, vendorID uint, size enums.DrumSize, from time.Time) ([]models.DailyDrumAvailability, error) {
	var rows []models.DailyDrumAvailability
	err := r.db.WithContext(ctx).
		Where("vendor_id = ? AND drum_size = ? AND delivery_date >= ?", vendorID, size, from).
		Order("delivery_date ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateCapacity rewrites one row's capacity and available count.
func (r *AvailabilityRepository) UpdateCapacity(ctx context.Context, id uint, capacity, available int) error {
	return r.db.WithContext(ctx).Model(&models.DailyDrumAvailability{}).
		Where("availability_id = ?", id).
		Updates(map[string]any{
			"total_capacity":  capacity,
			"available_count": available,
		}).Error
}
