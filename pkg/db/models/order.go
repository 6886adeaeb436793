package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/sorbetero/sorbetero-backend/pkg/enums"
)

// Order is a customer booking against a vendor. Only creation time matters
// to the subscription subsystem (monthly counting); status and payment
// fields belong to the fulfillment flow.
type Order struct {
	ID            uint              `gorm:"column:order_id;primaryKey;autoIncrement"`
	VendorID      uint              `gorm:"column:vendor_id;not null;index:ix_vendor_created,priority:1"`
	CustomerName  string            `gorm:"column:customer_name;not null"`
	CustomerPhone string            `gorm:"column:customer_phone;not null"`
	DrumSize      enums.DrumSize    `gorm:"column:drum_size;type:varchar(16);not null"`
	FlavorID      *uint             `gorm:"column:flavor_id"`
	DeliveryDate  time.Time         `gorm:"column:delivery_date;type:date;not null"`
	Status        enums.OrderStatus `gorm:"column:status;type:varchar(16);not null;default:'pending'"`
	TotalAmount   decimal.Decimal   `gorm:"column:total_amount;type:decimal(10,2);not null"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime;index:ix_vendor_created,priority:2"`
	UpdatedAt     time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides the default pluralization.
func (Order) TableName() string { return "orders" }
