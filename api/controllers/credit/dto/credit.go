package creditdto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/shoptab-backend/pkg/enums"
)

// Account is the API view of a credit account.
type Account struct {
	ID                uuid.UUID                 `json:"id"`
	ShopID            uuid.UUID                 `json:"shop_id"`
	CustomerPhone     string                    `json:"customer_phone"`
	CustomerNickname  string                    `json:"customer_nickname"`
	CustomerName      *string                   `json:"customer_name,omitempty"`
	TotalCreditAmount decimal.Decimal           `json:"total_credit_amount"`
	TotalPaidAmount   decimal.Decimal           `json:"total_paid_amount"`
	CurrentBalance    decimal.Decimal           `json:"current_balance"`
	CreditLimit       decimal.Decimal           `json:"credit_limit"`
	AvailableCredit   *decimal.Decimal          `json:"available_credit,omitempty"`
	Status            enums.CreditAccountStatus `json:"status"`
	Notes             *string                   `json:"notes,omitempty"`
	LastCreditDate    *time.Time                `json:"last_credit_date,omitempty"`
	LastPaymentDate   *time.Time                `json:"last_payment_date,omitempty"`
	CreatedAt         time.Time                 `json:"created_at"`
	UpdatedAt         time.Time                 `json:"updated_at"`
}

// Transaction is one ledger posting.
type Transaction struct {
	ID                      uuid.UUID                     `json:"id"`
	CreditAccountID         uuid.UUID                     `json:"credit_account_id"`
	ShopID                  uuid.UUID                     `json:"shop_id"`
	TransactionType         enums.CreditTransactionType   `json:"transaction_type"`
	TransactionSource       enums.CreditTransactionSource `json:"transaction_source"`
	Amount                  decimal.Decimal               `json:"amount"`
	Remarks                 *string                       `json:"remarks,omitempty"`
	OrderID                 *uuid.UUID                    `json:"order_id,omitempty"`
	BalanceAfterTransaction decimal.Decimal               `json:"balance_after_transaction"`
	Metadata                json.RawMessage               `json:"metadata,omitempty"`
	CreatedAt               time.Time                     `json:"created_at"`
}

// AccountDetail is an account with its latest postings.
type AccountDetail struct {
	Account            Account       `json:"account"`
	RecentTransactions []Transaction `json:"recent_transactions"`
}

// Posting is the result of a credit or payment.
type Posting struct {
	Account     Account     `json:"account"`
	Transaction Transaction `json:"transaction"`
}

// AccountList is a page of accounts.
type AccountList struct {
	Accounts []Account `json:"accounts"`
	Total    int64     `json:"total"`
	Limit    int       `json:"limit"`
	Offset   int       `json:"offset"`
}

// TransactionList is a page of postings.
type TransactionList struct {
	Transactions []Transaction `json:"transactions"`
	Total        int64         `json:"total"`
	Limit        int           `json:"limit"`
	Offset       int           `json:"offset"`
}

// Summary aggregates a shop's ledger.
type Summary struct {
	TotalAccounts           int64           `json:"total_accounts"`
	ActiveAccounts          int64           `json:"active_accounts"`
	TotalCreditGiven        decimal.Decimal `json:"total_credit_given"`
	TotalPaymentsReceived   decimal.Decimal `json:"total_payments_received"`
	TotalOutstandingBalance decimal.Decimal `json:"total_outstanding_balance"`
	RecentTransactions      []Transaction   `json:"recent_transactions"`
}
