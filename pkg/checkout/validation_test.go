package checkout

import (
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/shoptab-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shoptab-backend/pkg/errors"
)

func TestValidateFulfillment_Pickup(t *testing.T) {
	if err := ValidateFulfillment(FulfillmentInput{OrderType: enums.OrderTypeShopPickup}); err != nil {
		t.Fatalf("expected pickup to pass, got %v", err)
	}
}

func TestValidateFulfillment_Delivery(t *testing.T) {
	err := ValidateFulfillment(FulfillmentInput{
		OrderType:             enums.OrderTypeHomeDelivery,
		DeliveryAvailable:     false,
		DeliveryAddress:       "12 Main St",
		DeliveryContactNumber: "5550001111",
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error when shop has no delivery, got %v", err)
	}

	err = ValidateFulfillment(FulfillmentInput{
		OrderType:         enums.OrderTypeHomeDelivery,
		DeliveryAvailable: true,
		DeliveryAddress:   "  ",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := typed.Details().(map[string]any)
	if !ok {
		t.Fatalf("expected details map, got %T", typed.Details())
	}
	missing, ok := details["missing"].([]string)
	if !ok || len(missing) != 2 {
		t.Fatalf("expected two missing fields, got %v", details["missing"])
	}

	err = ValidateFulfillment(FulfillmentInput{
		OrderType:             enums.OrderTypeHomeDelivery,
		DeliveryAvailable:     true,
		DeliveryAddress:       "12 Main St",
		DeliveryContactNumber: "5550001111",
	})
	if err != nil {
		t.Fatalf("expected complete delivery to pass, got %v", err)
	}
}

func TestValidateFulfillment_UnknownType(t *testing.T) {
	if err := ValidateFulfillment(FulfillmentInput{OrderType: "drone"}); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestValidatePayment(t *testing.T) {
	if err := ValidatePayment(enums.PaymentMethodCashOnPickup, ""); err != nil {
		t.Fatalf("cash should not need a phone: %v", err)
	}
	if err := ValidatePayment(enums.PaymentMethodCredit, " "); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected credit without phone to fail, got %v", err)
	}
	if err := ValidatePayment(enums.PaymentMethodCredit, "5550001111"); err != nil {
		t.Fatalf("expected credit with phone to pass, got %v", err)
	}
	if err := ValidatePayment("barter", ""); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected unknown method to fail, got %v", err)
	}
}

func TestValidateAvailability_NoViolations(t *testing.T) {
	items := []AvailabilityInput{
		{ProductID: uuid.New(), ProductName: "Milk", Available: true},
		{ProductID: uuid.New(), ProductName: "Bread", Available: true},
	}
	if err := ValidateAvailability(items); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidateAvailability_Violations(t *testing.T) {
	items := []AvailabilityInput{
		{ProductID: uuid.New(), ProductName: "Milk", Available: true},
		{ProductID: uuid.New(), ProductName: "Eggs", Available: false, Reason: "Out of stock"},
	}
	err := ValidateAvailability(items)
	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected pkgerrors.Error, got %T", err)
	}
	if typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected code %s, got %s", pkgerrors.CodeStateConflict, typed.Code())
	}
	details, ok := typed.Details().(map[string]any)
	if !ok {
		t.Fatalf("expected details map, got %T", typed.Details())
	}
	violations, ok := details["violations"].([]AvailabilityViolationDetail)
	if !ok {
		t.Fatalf("expected violations slice, got %T", details["violations"])
	}
	if len(violations) != 1 {
		t.Fatalf("expected 1 violation, got %d", len(violations))
	}
	if violations[0].ProductID != items[1].ProductID || violations[0].Reason != "Out of stock" {
		t.Fatalf("unexpected violation %+v", violations[0])
	}
}
