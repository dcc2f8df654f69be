package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/digishelf/digishelf-backend/pkg/enums"
)

// Order is the purchase aggregate. It is created pending at checkout and
// transitions exactly once to completed, failed, or refunded. TotalCents must
// always equal the sum of its line item totals.
type Order struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber int64     `gorm:"column:order_number;not null;uniqueIndex;autoIncrement"`
	CustomerID  uuid.UUID `gorm:"column:customer_id;type:uuid;not null;index"`

	TotalCents    int64               `gorm:"column:total_cents;not null"`
	Currency      enums.Currency      `gorm:"column:currency;type:text;not null;default:'USD'"`
	PaymentStatus enums.PaymentStatus `gorm:"column:payment_status;type:payment_status;not null;default:'pending'"`
	PaymentMethod enums.PaymentMethod `gorm:"column:payment_method;type:payment_method;not null;default:'card'"`

	// ExternalTxRef is the payment processor's transaction reference,
	// attached when the capture event settles the order.
	ExternalTxRef      *string         `gorm:"column:external_tx_ref"`
	DownloadsAvailable bool            `gorm:"column:downloads_available;not null;default:false"`
	Items              []OrderLineItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`

	OrderedAt time.Time `gorm:"column:ordered_at;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
