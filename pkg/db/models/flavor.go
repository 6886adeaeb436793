package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/sorbetero/sorbetero-backend/pkg/enums"
)

// Flavor is a sellable listing owned by a vendor.
type Flavor struct {
	ID                   uint              `gorm:"column:flavor_id;primaryKey;autoIncrement"`
	VendorID             uint              `gorm:"column:vendor_id;not null;index"`
	Name                 string            `gorm:"column:flavor_name;not null"`
	Description          *string           `gorm:"column:description"`
	BasePrice            decimal.Decimal   `gorm:"column:base_price;type:decimal(10,2);not null"`
	StoreStatus          enums.StoreStatus `gorm:"column:store_status;type:varchar(16);not null;default:'draft'"`
	LockedBySubscription bool              `gorm:"column:locked_by_subscription;not null;default:false"`
	CreatedAt            time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides the default pluralization.
func (Flavor) TableName() string { return "flavors" }
