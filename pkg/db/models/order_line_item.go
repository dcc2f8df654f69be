package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderLineItem snapshots one purchased product. UnitPriceCents is the price
// at order creation time; settlement reads it from here, never from the live
// catalog. LicenseKey stays empty until the order settles.
type OrderLineItem struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID      uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	VendorID       uuid.UUID `gorm:"column:vendor_id;type:uuid;not null;index"`
	Title          string    `gorm:"column:title;not null"`
	UnitPriceCents int64     `gorm:"column:unit_price_cents;not null"`
	LicenseKey     string    `gorm:"column:license_key;uniqueIndex:ux_order_line_items_license_key,where:license_key <> ''"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
