package cart

import (
	"net/http"
	"strings"

	cartdto "github.com/angelmondragon/shoptab-backend/api/controllers/cart/dto"
	"github.com/angelmondragon/shoptab-backend/api/validators"
	cartsvc "github.com/angelmondragon/shoptab-backend/internal/cart"
	"github.com/angelmondragon/shoptab-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shoptab-backend/pkg/errors"
)

func toAddItemInput(payload cartdto.AddItemRequest) cartsvc.AddItemInput {
	return cartsvc.AddItemInput{
		ShopID:    payload.ShopID,
		ProductID: payload.ProductID,
		Quantity:  payload.Quantity,
		Notes:     validators.SanitizeOptional(payload.Notes, 500),
		SessionID: validators.SanitizeOptional(payload.SessionID, 128),
	}
}

func toUpdateItemInput(payload cartdto.UpdateItemRequest) cartsvc.UpdateItemInput {
	return cartsvc.UpdateItemInput{
		Quantity: payload.Quantity,
		Notes:    payload.Notes,
	}
}

func toUpdateCartInput(payload cartdto.UpdateCartRequest) cartsvc.UpdateCartInput {
	return cartsvc.UpdateCartInput{
		Notes:       payload.Notes,
		DeliveryFee: payload.DeliveryFee,
		Tax:         payload.Tax,
	}
}

func parseListFilters(r *http.Request) (cartsvc.ListFilters, error) {
	var filters cartsvc.ListFilters
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status, err := enums.ParseCartStatus(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
		}
		filters.Status = &status
	}
	shopID, err := validators.ParseQueryUUID(r, "shop_id")
	if err != nil {
		return filters, err
	}
	filters.ShopID = shopID
	includeEmpty, err := validators.ParseQueryBool(r, "include_empty")
	if err != nil {
		return filters, err
	}
	filters.IncludeEmpty = includeEmpty
	return filters, nil
}
