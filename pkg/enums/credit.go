package enums

import "fmt"

// CreditAccountStatus gates whether an account accepts new credit.
type CreditAccountStatus string

const (
	CreditAccountActive    CreditAccountStatus = "active"
	CreditAccountSuspended CreditAccountStatus = "suspended"
	CreditAccountClosed    CreditAccountStatus = "closed"
)

var validCreditAccountStatuses = []CreditAccountStatus{
	CreditAccountActive,
	CreditAccountSuspended,
	CreditAccountClosed,
}

// IsValid reports whether the value is a known CreditAccountStatus.
func (s CreditAccountStatus) IsValid() bool {
	for _, candidate := range validCreditAccountStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseCreditAccountStatus converts raw input into a CreditAccountStatus.
func ParseCreditAccountStatus(value string) (CreditAccountStatus, error) {
	for _, candidate := range validCreditAccountStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid credit account status %q", value)
}

// CreditTransactionType is the direction of a ledger posting.
type CreditTransactionType string

const (
	CreditTxnCredit  CreditTransactionType = "credit"
	CreditTxnPayment CreditTransactionType = "payment"
)

// ParseCreditTransactionType converts raw input into a CreditTransactionType.
func ParseCreditTransactionType(value string) (CreditTransactionType, error) {
	switch t := CreditTransactionType(value); t {
	case CreditTxnCredit, CreditTxnPayment:
		return t, nil
	}
	return "", fmt.Errorf("invalid credit transaction type %q", value)
}

// CreditTransactionSource records what caused a posting.
type CreditTransactionSource string

const (
	CreditSourceOrder  CreditTransactionSource = "order"
	CreditSourceManual CreditTransactionSource = "manual"
)

// ParseCreditTransactionSource converts raw input into a CreditTransactionSource.
func ParseCreditTransactionSource(value string) (CreditTransactionSource, error) {
	switch s := CreditTransactionSource(value); s {
	case CreditSourceOrder, CreditSourceManual:
		return s, nil
	}
	return "", fmt.Errorf("invalid credit transaction source %q", value)
}
