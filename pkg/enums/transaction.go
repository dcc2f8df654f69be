package enums

import "fmt"

// TransactionType maps to the transaction_type enum in Postgres.
type TransactionType string

const (
	TransactionTypeSale TransactionType = "sale"
)

// IsValid reports whether the value matches the canonical transaction_type enum.
func (t TransactionType) IsValid() bool {
	return t == TransactionTypeSale
}

// TransactionStatus maps to the transaction_status enum in Postgres.
type TransactionStatus string

const (
	TransactionStatusCompleted TransactionStatus = "completed"
)

// IsValid reports whether the value matches the canonical transaction_status enum.
func (t TransactionStatus) IsValid() bool {
	return t == TransactionStatusCompleted
}

// ParseTransactionType converts raw input into TransactionType.
func ParseTransactionType(value string) (TransactionType, error) {
	if TransactionType(value).IsValid() {
		return TransactionType(value), nil
	}
	return "", fmt.Errorf("invalid transaction type %q", value)
}
