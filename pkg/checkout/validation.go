package checkout

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/shoptab-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shoptab-backend/pkg/errors"
)

// FulfillmentInput describes the data required to verify how an order is fulfilled.
type FulfillmentInput struct {
	OrderType             enums.OrderType
	DeliveryAvailable     bool
	DeliveryAddress       string
	DeliveryContactNumber string
}

// ValidateFulfillment checks the order type against the shop's delivery policy.
// Pickup orders need nothing extra.
func ValidateFulfillment(input FulfillmentInput) error {
	if !input.OrderType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid order type")
	}
	if input.OrderType != enums.OrderTypeHomeDelivery {
		return nil
	}
	if !input.DeliveryAvailable {
		return pkgerrors.New(pkgerrors.CodeValidation, "this shop does not offer delivery service")
	}

	var missing []string
	if strings.TrimSpace(input.DeliveryAddress) == "" {
		missing = append(missing, "delivery_address")
	}
	if strings.TrimSpace(input.DeliveryContactNumber) == "" {
		missing = append(missing, "delivery_contact_number")
	}
	if len(missing) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "delivery details are required for home delivery").WithDetails(map[string]any{
		"missing": missing,
	})
}

// ValidatePayment ensures the payment method is known and that credit orders
// name the customer phone the tab is kept under.
func ValidatePayment(method enums.PaymentMethod, customerPhone string) error {
	if !method.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	if method == enums.PaymentMethodCredit && strings.TrimSpace(customerPhone) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer phone number is required for credit payment method")
	}
	return nil
}

// AvailabilityInput describes one cart line at checkout time.
type AvailabilityInput struct {
	ProductID   uuid.UUID
	ProductName string
	Available   bool
	Reason      string
}

// AvailabilityViolationDetail exposes the data returned to callers when a validation fails.
type AvailabilityViolationDetail struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name,omitempty"`
	Reason      string    `json:"reason,omitempty"`
}

// ValidateAvailability rejects checkout while any line is flagged unavailable.
// Only shops that enforce stock call it.
func ValidateAvailability(items []AvailabilityInput) error {
	var violations []AvailabilityViolationDetail
	for _, item := range items {
		if item.Available {
			continue
		}
		violations = append(violations, AvailabilityViolationDetail{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Reason:      item.Reason,
		})
	}
	if len(violations) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("%d item(s) in the cart are unavailable", len(violations))).WithDetails(map[string]any{
		"violations": violations,
	})
}
