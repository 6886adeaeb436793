package models

import (
	"time"

	"github.com/sorbetero/sorbetero-backend/pkg/enums"
	"github.com/sorbetero/sorbetero-backend/pkg/types"
)

// Vendor is the seller tenant, including its subscription state. The three
// limit columns persist -1 for "unlimited"; use the Limit accessors instead
// of reading the raw ints.
type Vendor struct {
	ID                    uint           `gorm:"column:vendor_id;primaryKey;autoIncrement"`
	Name                  string         `gorm:"column:name;not null"`
	Email                 string         `gorm:"column:email;not null;uniqueIndex"`
	Phone                 *string        `gorm:"column:phone"`
	IsActive              bool           `gorm:"column:is_active;not null;default:true"`
	SubscriptionPlan      enums.PlanTier `gorm:"column:subscription_plan;type:varchar(32);not null;default:'free'"`
	SubscriptionStartDate *time.Time     `gorm:"column:subscription_start_date"`
	SubscriptionEndDate   *time.Time     `gorm:"column:subscription_end_date"`
	FlavorLimit           int            `gorm:"column:flavor_limit;not null;default:5"`
	DrumLimit             int            `gorm:"column:drum_limit;not null;default:5"`
	OrderLimit            int            `gorm:"column:order_limit;not null;default:30"`
	CreatedAt             time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides the default pluralization.
func (Vendor) TableName() string { return "vendors" }

// FlavorAllowance decodes the flavor limit column.
func (v *Vendor) FlavorAllowance() types.Limit {
	return types.DecodeLimit(v.FlavorLimit)
}

// DrumAllowance decodes the drum limit column.
func (v *Vendor) DrumAllowance() types.Limit {
	return types.DecodeLimit(v.DrumLimit)
}

// OrderAllowance decodes the monthly order limit column.
func (v *Vendor) OrderAllowance() types.Limit {
	return types.DecodeLimit(v.OrderLimit)
}
