package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/digishelf/digishelf-backend/pkg/enums"
)

// Transaction is the immutable ledger entry recorded per settled line item.
// CommissionCents + NetCents must equal GrossCents exactly.
type Transaction struct {
	ID              uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID        uuid.UUID               `gorm:"column:vendor_id;type:uuid;not null;index"`
	OrderID         uuid.UUID               `gorm:"column:order_id;type:uuid;not null;index"`
	LineItemID      uuid.UUID               `gorm:"column:line_item_id;type:uuid;not null;uniqueIndex:ux_transactions_line_item"`
	GrossCents      int64                   `gorm:"column:gross_cents;not null"`
	CommissionCents int64                   `gorm:"column:commission_cents;not null"`
	NetCents        int64                   `gorm:"column:net_cents;not null"`
	Type            enums.TransactionType   `gorm:"column:type;type:transaction_type;not null;default:'sale'"`
	Status          enums.TransactionStatus `gorm:"column:status;type:transaction_status;not null;default:'completed'"`
	PaymentMethod   enums.PaymentMethod     `gorm:"column:payment_method;type:payment_method;not null"`
	CreatedAt       time.Time               `gorm:"column:created_at;autoCreateTime"`
}
