package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/sorbetero/sorbetero-backend/pkg/enums"
)

// VendorDrumPricing holds one row per (vendor, drum size): the price, the
// gallon capacity of the size, and how many drums the vendor stocks.
type VendorDrumPricing struct {
	ID        uint            `gorm:"column:pricing_id;primaryKey;autoIncrement"`
	VendorID  uint            `gorm:"column:vendor_id;not null;uniqueIndex:ux_vendor_size,priority:1"`
	DrumSize  enums.DrumSize  `gorm:"column:drum_size;type:varchar(16);not null;uniqueIndex:ux_vendor_size,priority:2"`
	Price     decimal.Decimal `gorm:"column:price;type:decimal(10,2);not null"`
	Stock     int             `gorm:"column:stock;not null;default:0"`
	Gallons   float64         `gorm:"column:gallons;not null;default:0"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides the default pluralization.
func (VendorDrumPricing) TableName() string { return "vendor_drum_pricing" }
