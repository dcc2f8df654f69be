// Package payloads holds the event bodies published through the outbox.
// These types are part of the external contract; additions are fine but
// renames and removals require a version bump on the emitting side.
package payloads

import (
	"time"

	"github.com/google/uuid"
)

type OrderCreatedEvent struct {
	OrderID     uuid.UUID `json:"orderId"`
	OrderNumber int64     `json:"orderNumber"`
	CustomerID  uuid.UUID `json:"customerId"`
	TotalCents  int64     `json:"totalCents"`
	Currency    string    `json:"currency"`
	ItemCount   int       `json:"itemCount"`
	CreatedAt   time.Time `json:"createdAt"`
}

type SettledLineItem struct {
	LineItemID      uuid.UUID `json:"lineItemId"`
	ProductID       uuid.UUID `json:"productId"`
	VendorID        uuid.UUID `json:"vendorId"`
	GrossCents      int64     `json:"grossCents"`
	CommissionCents int64     `json:"commissionCents"`
	NetCents        int64     `json:"netCents"`
	LicenseKey      string    `json:"licenseKey"`
}

type OrderSettledEvent struct {
	OrderID         uuid.UUID         `json:"orderId"`
	OrderNumber     int64             `json:"orderNumber"`
	CustomerID      uuid.UUID         `json:"customerId"`
	TotalCents      int64             `json:"totalCents"`
	CommissionCents int64             `json:"commissionCents"`
	NetCents        int64             `json:"netCents"`
	Items           []SettledLineItem `json:"items"`
	SettledAt       time.Time         `json:"settledAt"`
}

type WithdrawalRequestedEvent struct {
	WithdrawalID uuid.UUID `json:"withdrawalId"`
	VendorID     uuid.UUID `json:"vendorId"`
	AmountCents  int64     `json:"amountCents"`
	RequestedAt  time.Time `json:"requestedAt"`
}

type WithdrawalDecidedEvent struct {
	WithdrawalID uuid.UUID `json:"withdrawalId"`
	VendorID     uuid.UUID `json:"vendorId"`
	AmountCents  int64     `json:"amountCents"`
	Status       string    `json:"status"`
	ReviewerID   uuid.UUID `json:"reviewerId"`
	DecidedAt    time.Time `json:"decidedAt"`
}
