package models

import (
	"time"

	"github.com/sorbetero/sorbetero-backend/pkg/enums"
)

// DailyDrumAvailability tracks per-day, per-size booking capacity.
// Invariants: total_capacity >= reserved_count + booked_count and
// available_count == max(0, total_capacity - reserved_count - booked_count).
type DailyDrumAvailability struct {
	ID             uint           `gorm:"column:availability_id;primaryKey;autoIncrement"`
	VendorID       uint           `gorm:"column:vendor_id;not null;uniqueIndex:ux_vendor_size_date,priority:1"`
	DrumSize       enums.DrumSize `gorm:"column:drum_size;type:varchar(16);not null;uniqueIndex:ux_vendor_size_date,priority:2"`
	DeliveryDate   time.Time      `gorm:"column:delivery_date;type:date;not null;uniqueIndex:ux_vendor_size_date,priority:3"`
	TotalCapacity  int            `gorm:"column:total_capacity;not null;default:0"`
	ReservedCount  int            `gorm:"column:reserved_count;not null;default:0"`
	BookedCount    int            `gorm:"column:booked_count;not null;default:0"`
	AvailableCount int            `gorm:"column:available_count;not null;default:0"`
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides the default pluralization.
func (DailyDrumAvailability) TableName() string { return "daily_drum_availability" }

// Committed is the count the row can never shrink below.
func (d *DailyDrumAvailability) Committed() int {
	return d.ReservedCount + d.BookedCount
}
