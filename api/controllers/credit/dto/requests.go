package creditdto

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateAccountRequest opens a tab for a customer phone.
type CreateAccountRequest struct {
	CustomerPhone    string           `json:"customer_phone" validate:"required,min=10,max=20"`
	CustomerNickname string           `json:"customer_nickname" validate:"required,max=100"`
	CustomerName     *string          `json:"customer_name,omitempty" validate:"omitempty,max=200"`
	CreditLimit      *decimal.Decimal `json:"credit_limit,omitempty" validate:"omitempty,money"`
	Notes            *string          `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// UpdateAccountRequest edits an account. Absent fields are left alone.
type UpdateAccountRequest struct {
	CustomerNickname *string          `json:"customer_nickname,omitempty" validate:"omitempty,max=100"`
	CustomerName     *string          `json:"customer_name,omitempty" validate:"omitempty,max=200"`
	CreditLimit      *decimal.Decimal `json:"credit_limit,omitempty" validate:"omitempty,money"`
	Status           *string          `json:"status,omitempty"`
	Notes            *string          `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// PostingRequest records credit given or a payment received.
type PostingRequest struct {
	Amount   decimal.Decimal `json:"amount" validate:"required,money"`
	Remarks  *string         `json:"remarks,omitempty" validate:"omitempty,max=500"`
	OrderID  *uuid.UUID      `json:"order_id,omitempty"`
	Metadata map[string]any  `json:"metadata,omitempty"`
}
