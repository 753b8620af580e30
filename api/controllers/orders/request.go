package orders

import (
	"net/http"
	"strings"
	"time"

	ordersdto "github.com/angelmondragon/shoptab-backend/api/controllers/orders/dto"
	"github.com/angelmondragon/shoptab-backend/api/validators"
	orderssvc "github.com/angelmondragon/shoptab-backend/internal/orders"
	"github.com/angelmondragon/shoptab-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shoptab-backend/pkg/errors"
	"github.com/angelmondragon/shoptab-backend/pkg/pagination"
)

const dateLayout = "2006-01-02"

func invalidField(field string, err error) error {
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+field).WithDetails(map[string]any{"field": field})
}

func parseDate(field string, raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	value := strings.TrimSpace(*raw)
	for _, layout := range []string{dateLayout, time.RFC3339} {
		if parsed, err := time.Parse(layout, value); err == nil {
			parsed = parsed.UTC()
			return &parsed, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid "+field).WithDetails(map[string]any{"field": field})
}

func toCreateOrderInput(payload ordersdto.CreateOrderRequest) (orderssvc.CreateOrderInput, error) {
	orderType, err := enums.ParseOrderType(payload.OrderType)
	if err != nil {
		return orderssvc.CreateOrderInput{}, invalidField("order_type", err)
	}
	input := orderssvc.CreateOrderInput{
		CartID:        payload.CartID,
		OrderType:     orderType,
		CustomerPhone: validators.DigitsOnly(payload.CustomerPhone),
		CustomerNotes: validators.SanitizeOptional(payload.CustomerNotes, 1000),
	}
	if payload.PaymentMethod != nil && strings.TrimSpace(*payload.PaymentMethod) != "" {
		method, err := enums.ParsePaymentMethod(*payload.PaymentMethod)
		if err != nil {
			return orderssvc.CreateOrderInput{}, invalidField("payment_method", err)
		}
		input.PaymentMethod = method
	}
	if p := payload.Pickup; p != nil {
		date, err := parseDate("pickup.date", p.Date)
		if err != nil {
			return orderssvc.CreateOrderInput{}, err
		}
		input.Pickup = &orderssvc.PickupDetails{
			Date:  date,
			Time:  validators.SanitizeOptional(p.Time, 32),
			Notes: validators.SanitizeOptional(p.Notes, 500),
		}
	}
	if d := payload.Delivery; d != nil {
		input.Delivery = &orderssvc.DeliveryDetails{
			Address:       validators.SanitizeString(d.Address, 500),
			Landmark:      validators.SanitizeOptional(d.Landmark, 200),
			Pincode:       validators.SanitizeOptional(d.Pincode, 12),
			City:          validators.SanitizeOptional(d.City, 100),
			State:         validators.SanitizeOptional(d.State, 100),
			ContactNumber: validators.DigitsOnly(d.ContactNumber),
			Notes:         validators.SanitizeOptional(d.Notes, 500),
		}
	}
	return input, nil
}

func toUpdateStatusInput(payload ordersdto.UpdateStatusRequest) (orderssvc.UpdateStatusInput, error) {
	status, err := enums.ParseOrderStatus(payload.Status)
	if err != nil {
		return orderssvc.UpdateStatusInput{}, invalidField("status", err)
	}
	return orderssvc.UpdateStatusInput{
		Status: status,
		Notes:  validators.SanitizeOptional(payload.Notes, 1000),
	}, nil
}

func toPaymentMethodInput(payload ordersdto.PaymentMethodRequest) (orderssvc.PaymentMethodInput, error) {
	method, err := enums.ParsePaymentMethod(payload.PaymentMethod)
	if err != nil {
		return orderssvc.PaymentMethodInput{}, invalidField("payment_method", err)
	}
	input := orderssvc.PaymentMethodInput{
		PaymentMethod: method,
		Reason:        validators.SanitizeOptional(payload.Reason, 500),
		Notes:         validators.SanitizeOptional(payload.Notes, 1000),
	}
	if payload.CustomerPhone != nil {
		phone := validators.DigitsOnly(*payload.CustomerPhone)
		input.CustomerPhone = &phone
	}
	return input, nil
}

func toAddItemInput(payload ordersdto.AddItemRequest) orderssvc.AddItemInput {
	return orderssvc.AddItemInput{
		ProductID:           payload.ProductID,
		Quantity:            payload.Quantity,
		CustomUnitPrice:     payload.CustomUnitPrice,
		CustomDiscountPrice: payload.CustomDiscountPrice,
		Reason:              validators.SanitizeOptional(payload.Reason, 500),
		ShopNotes:           validators.SanitizeOptional(payload.ShopNotes, 1000),
	}
}

func toUpdateItemInput(payload ordersdto.UpdateItemRequest) orderssvc.UpdateItemInput {
	return orderssvc.UpdateItemInput{
		Quantity:          payload.Quantity,
		UnitPrice:         payload.UnitPrice,
		DiscountPrice:     payload.DiscountPrice,
		UnavailableReason: validators.SanitizeOptional(payload.UnavailableReason, 200),
		Remove:            payload.Remove,
		Reason:            validators.SanitizeOptional(payload.Reason, 500),
		ShopNotes:         validators.SanitizeOptional(payload.ShopNotes, 1000),
	}
}

func toUpdateFeesInput(payload ordersdto.UpdateFeesRequest) (orderssvc.UpdateFeesInput, error) {
	date, err := parseDate("estimated_delivery_date", payload.EstimatedDeliveryDate)
	if err != nil {
		return orderssvc.UpdateFeesInput{}, err
	}
	return orderssvc.UpdateFeesInput{
		DeliveryFee:           payload.DeliveryFee,
		AdditionalDiscount:    payload.AdditionalDiscount,
		ExtraCharges:          payload.ExtraCharges,
		Tax:                   payload.Tax,
		ShopNotes:             validators.SanitizeOptional(payload.ShopNotes, 1000),
		EstimatedDeliveryDate: date,
		EstimatedDeliveryTime: validators.SanitizeOptional(payload.EstimatedDeliveryTime, 32),
		Reason:                validators.SanitizeOptional(payload.Reason, 500),
	}, nil
}

func parseListFilters(r *http.Request) (orderssvc.ListFilters, error) {
	var (
		filters orderssvc.ListFilters
		err     error
	)
	query := r.URL.Query()

	if filters.ShopID, err = validators.ParseQueryUUID(r, "shop_id"); err != nil {
		return filters, err
	}
	if filters.UserID, err = validators.ParseQueryUUID(r, "user_id"); err != nil {
		return filters, err
	}
	if raw := strings.TrimSpace(query.Get("status")); raw != "" {
		status, err := enums.ParseOrderStatus(raw)
		if err != nil {
			return filters, invalidField("status", err)
		}
		filters.Status = &status
	}
	if raw := strings.TrimSpace(query.Get("payment_method")); raw != "" {
		method, err := enums.ParsePaymentMethod(raw)
		if err != nil {
			return filters, invalidField("payment_method", err)
		}
		filters.PaymentMethod = &method
	}
	if raw := strings.TrimSpace(query.Get("payment_status")); raw != "" {
		status, err := enums.ParsePaymentStatus(raw)
		if err != nil {
			return filters, invalidField("payment_status", err)
		}
		filters.PaymentStatus = &status
	}
	if raw := strings.TrimSpace(query.Get("order_type")); raw != "" {
		orderType, err := enums.ParseOrderType(raw)
		if err != nil {
			return filters, invalidField("order_type", err)
		}
		filters.OrderType = &orderType
	}
	if filters.From, err = validators.ParseQueryTime(r, "from"); err != nil {
		return filters, err
	}
	if filters.To, err = validators.ParseQueryTime(r, "to"); err != nil {
		return filters, err
	}
	if filters.Limit, err = validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit); err != nil {
		return filters, err
	}
	filters.Cursor = strings.TrimSpace(query.Get("cursor"))
	return filters, nil
}
