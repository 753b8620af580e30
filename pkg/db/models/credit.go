package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/shoptab-backend/pkg/enums"
)

// CreditAccount is a shop-scoped running tab for one customer phone.
// CurrentBalance = TotalCreditAmount - TotalPaidAmount. A CreditLimit of zero
// means unlimited.
type CreditAccount struct {
	ID                uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ShopID            uuid.UUID                 `gorm:"column:shop_id;type:uuid;not null"`
	CustomerPhone     string                    `gorm:"column:customer_phone;not null"`
	CustomerNickname  string                    `gorm:"column:customer_nickname;not null"`
	CustomerName      *string                   `gorm:"column:customer_name"`
	TotalCreditAmount decimal.Decimal           `gorm:"column:total_credit_amount;type:numeric(12,2);not null"`
	TotalPaidAmount   decimal.Decimal           `gorm:"column:total_paid_amount;type:numeric(12,2);not null"`
	CurrentBalance    decimal.Decimal           `gorm:"column:current_balance;type:numeric(12,2);not null"`
	CreditLimit       decimal.Decimal           `gorm:"column:credit_limit;type:numeric(12,2);not null"`
	Status            enums.CreditAccountStatus `gorm:"column:status;type:credit_account_status;not null"`
	Notes             *string                   `gorm:"column:notes"`
	LastCreditDate    *time.Time                `gorm:"column:last_credit_date"`
	LastPaymentDate   *time.Time                `gorm:"column:last_payment_date"`
	CreatedAt         time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}

func (a *CreditAccount) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}

// HasLimit reports whether postings are capped.
func (a CreditAccount) HasLimit() bool {
	return a.CreditLimit.GreaterThan(decimal.Zero)
}

// AvailableCredit returns limit - balance, or nil when the account is unlimited.
func (a CreditAccount) AvailableCredit() *decimal.Decimal {
	if !a.HasLimit() {
		return nil
	}
	available := a.CreditLimit.Sub(a.CurrentBalance)
	return &available
}

// CreditTransaction is an immutable ledger posting against a CreditAccount.
type CreditTransaction struct {
	ID                      uuid.UUID                     `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CreditAccountID         uuid.UUID                     `gorm:"column:credit_account_id;type:uuid;not null"`
	ShopID                  uuid.UUID                     `gorm:"column:shop_id;type:uuid;not null"`
	TransactionType         enums.CreditTransactionType   `gorm:"column:transaction_type;type:credit_transaction_type;not null"`
	TransactionSource       enums.CreditTransactionSource `gorm:"column:transaction_source;type:credit_transaction_source;not null"`
	Amount                  decimal.Decimal               `gorm:"column:amount;type:numeric(12,2);not null"`
	Remarks                 *string                       `gorm:"column:remarks"`
	OrderID                 *uuid.UUID                    `gorm:"column:order_id;type:uuid"`
	BalanceAfterTransaction decimal.Decimal               `gorm:"column:balance_after_transaction;type:numeric(12,2);not null"`
	Metadata                json.RawMessage               `gorm:"column:metadata;type:jsonb"`
	ActorUserID             uuid.UUID                     `gorm:"column:actor_user_id;type:uuid;not null"`
	CreatedAt               time.Time                     `gorm:"column:created_at;autoCreateTime"`
}

func (t *CreditTransaction) BeforeCreate(*gorm.DB) error {
	ensureID(&t.ID)
	return nil
}
