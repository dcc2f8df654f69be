package enums

import "fmt"

// WithdrawalStatus maps to the withdrawal_status enum in Postgres.
type WithdrawalStatus string

const (
	WithdrawalStatusPending  WithdrawalStatus = "pending"
	WithdrawalStatusApproved WithdrawalStatus = "approved"
	WithdrawalStatusRejected WithdrawalStatus = "rejected"
)

var validWithdrawalStatuses = []WithdrawalStatus{
	WithdrawalStatusPending,
	WithdrawalStatusApproved,
	WithdrawalStatusRejected,
}

// IsValid reports whether the value matches the canonical withdrawal_status enum.
func (w WithdrawalStatus) IsValid() bool {
	for _, candidate := range validWithdrawalStatuses {
		if candidate == w {
			return true
		}
	}
	return false
}

// Reserves reports whether a withdrawal in this status holds vendor balance.
// Pending and approved withdrawals subtract from the available balance;
// rejected ones release it.
func (w WithdrawalStatus) Reserves() bool {
	return w == WithdrawalStatusPending || w == WithdrawalStatusApproved
}

// WithdrawalReservingStatuses lists the statuses that hold vendor balance.
func WithdrawalReservingStatuses() []WithdrawalStatus {
	return []WithdrawalStatus{WithdrawalStatusPending, WithdrawalStatusApproved}
}

// ParseWithdrawalStatus converts raw input into WithdrawalStatus.
func ParseWithdrawalStatus(value string) (WithdrawalStatus, error) {
	for _, candidate := range validWithdrawalStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid withdrawal status %q", value)
}
