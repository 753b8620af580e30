package credit

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/shoptab-backend/pkg/db/models"
	"github.com/angelmondragon/shoptab-backend/pkg/enums"
)

const (
	defaultAccountPageSize     = 20
	defaultTransactionPageSize = 50
	summaryRecentTransactions  = 10

	minPhoneLen   = 10
	maxPhoneLen   = 20
	maxRemarksLen = 500
)

var (
	maxPostingAmount = decimal.RequireFromString("99999.99")
	maxCreditLimit   = decimal.RequireFromString("999999.99")
)

// CreateAccountInput opens a tab for a customer phone at a shop.
type CreateAccountInput struct {
	ShopID           uuid.UUID
	CustomerPhone    string
	CustomerNickname string
	CustomerName     *string
	CreditLimit      decimal.Decimal
	Notes            *string
}

// UpdateAccountInput carries optional account edits. Nil fields are left alone.
type UpdateAccountInput struct {
	CustomerNickname *string
	CustomerName     *string
	CreditLimit      *decimal.Decimal
	Status           *enums.CreditAccountStatus
	Notes            *string
}

// PostingInput is a credit or payment against one account.
type PostingInput struct {
	ShopID    uuid.UUID
	AccountID uuid.UUID
	Amount    decimal.Decimal
	Remarks   *string
	OrderID   *uuid.UUID
	Metadata  map[string]any
}

// PostingResult reports the account state after a posting.
type PostingResult struct {
	Account     models.CreditAccount     `json:"account"`
	Transaction models.CreditTransaction `json:"transaction"`
}

// AccountFilters narrows ListAccounts.
type AccountFilters struct {
	Status *enums.CreditAccountStatus
	Search string
	Limit  int
	Offset int
	Sort   string
}

// TransactionFilters narrows ListTransactions.
type TransactionFilters struct {
	AccountID *uuid.UUID
	Type      *enums.CreditTransactionType
	Source    *enums.CreditTransactionSource
	Phone     string
	Limit     int
	Offset    int
}

// AccountList is a page of accounts.
type AccountList struct {
	Accounts []models.CreditAccount `json:"accounts"`
	Total    int64                  `json:"total"`
	Limit    int                    `json:"limit"`
	Offset   int                    `json:"offset"`
}

// TransactionList is a page of ledger rows.
type TransactionList struct {
	Transactions []models.CreditTransaction `json:"transactions"`
	Total        int64                      `json:"total"`
	Limit        int                        `json:"limit"`
	Offset       int                        `json:"offset"`
}

// AccountDetail is an account plus its latest postings.
type AccountDetail struct {
	Account            models.CreditAccount       `json:"account"`
	AvailableCredit    *decimal.Decimal           `json:"available_credit,omitempty"`
	RecentTransactions []models.CreditTransaction `json:"recent_transactions"`
}

// Summary aggregates a shop's ledger.
type Summary struct {
	TotalAccounts           int64                      `json:"total_accounts"`
	ActiveAccounts          int64                      `json:"active_accounts"`
	TotalCreditGiven        decimal.Decimal            `json:"total_credit_given"`
	TotalPaymentsReceived   decimal.Decimal            `json:"total_payments_received"`
	TotalOutstandingBalance decimal.Decimal            `json:"total_outstanding_balance"`
	RecentTransactions      []models.CreditTransaction `json:"recent_transactions"`
}

// VerifyResult reports whether replaying the ledger reproduces the account.
type VerifyResult struct {
	AccountID        uuid.UUID       `json:"account_id"`
	Consistent       bool            `json:"consistent"`
	TransactionCount int             `json:"transaction_count"`
	ReplayedCredit   decimal.Decimal `json:"replayed_credit"`
	ReplayedPaid     decimal.Decimal `json:"replayed_paid"`
	ReplayedBalance  decimal.Decimal `json:"replayed_balance"`
	Mismatches       []Mismatch      `json:"mismatches,omitempty"`
}

// Mismatch is one divergence found by Verify.
type Mismatch struct {
	TransactionID *uuid.UUID      `json:"transaction_id,omitempty"`
	Field         string          `json:"field"`
	Expected      decimal.Decimal `json:"expected"`
	Actual        decimal.Decimal `json:"actual"`
	At            *time.Time      `json:"at,omitempty"`
}
