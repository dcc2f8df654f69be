package models

import "time"

// PlatformRevenue is the singleton revenue aggregate. A single row with ID 1
// accumulates gross, commission, and sale counts; every mutation happens in
// the same transaction as the vendor credit it mirrors.
type PlatformRevenue struct {
	ID                   int64     `gorm:"column:id;primaryKey"`
	TotalEarningsCents   int64     `gorm:"column:total_earnings_cents;not null;default:0"`
	TotalCommissionCents int64     `gorm:"column:total_commission_cents;not null;default:0"`
	TotalSales           int64     `gorm:"column:total_sales;not null;default:0"`
	UpdatedAt            time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// PlatformRevenueRowID is the fixed primary key of the singleton row.
const PlatformRevenueRowID int64 = 1
