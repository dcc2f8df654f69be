package models

import (
	"time"

	"github.com/google/uuid"
)

// Vendor is a selling account. Balance fields live on the vendor row and are
// mutated only by settlement credits; withdrawals never decrement
// total_earnings_cents, they reserve against it.
type Vendor struct {
	ID       uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID   uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	Name     string    `gorm:"column:name;not null"`
	// CommissionPercent overrides the platform default when non-nil. Valid
	// range is 0-100; enforced at the service layer before any split.
	CommissionPercent  *int      `gorm:"column:commission_percent"`
	TotalSales         int64     `gorm:"column:total_sales;not null;default:0"`
	TotalEarningsCents int64     `gorm:"column:total_earnings_cents;not null;default:0"`
	CreatedAt          time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
