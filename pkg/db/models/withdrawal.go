package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/digishelf/digishelf-backend/pkg/enums"
)

// Withdrawal is a vendor payout request. It is created pending and decided
// exactly once; pending and approved rows reserve vendor balance.
type Withdrawal struct {
	ID            uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID      uuid.UUID              `gorm:"column:vendor_id;type:uuid;not null;index"`
	AmountCents   int64                  `gorm:"column:amount_cents;not null"`
	Status        enums.WithdrawalStatus `gorm:"column:status;type:withdrawal_status;not null;default:'pending'"`
	PayoutDetails string                 `gorm:"column:payout_details;not null"`
	Notes         *string                `gorm:"column:notes"`
	ReviewerID    *uuid.UUID             `gorm:"column:reviewer_id;type:uuid"`
	RequestedAt   time.Time              `gorm:"column:requested_at;not null"`
	ProcessedAt   *time.Time             `gorm:"column:processed_at"`
	CreatedAt     time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
