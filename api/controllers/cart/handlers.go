package cart

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	cartdto "github.com/angelmondragon/shoptab-backend/api/controllers/cart/dto"
	"github.com/angelmondragon/shoptab-backend/api/middleware"
	"github.com/angelmondragon/shoptab-backend/api/responses"
	"github.com/angelmondragon/shoptab-backend/api/validators"
	"github.com/angelmondragon/shoptab-backend/internal/authz"
	cartsvc "github.com/angelmondragon/shoptab-backend/internal/cart"
	"github.com/angelmondragon/shoptab-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/shoptab-backend/pkg/errors"
	"github.com/angelmondragon/shoptab-backend/pkg/logger"
)

func unavailable(w http.ResponseWriter, r *http.Request, logg *logger.Logger) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
}

func writeCart(w http.ResponseWriter, r *http.Request, logg *logger.Logger, status int, record *models.Cart, err error) {
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	responses.WriteSuccessStatus(w, status, newCart(record))
}

// AddItem handles POST /cart/items.
func AddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		actor, err := middleware.RequireActor(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cartdto.AddItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.AddItem(r.Context(), actor, toAddItemInput(payload))
		writeCart(w, r, logg, http.StatusCreated, record, err)
	}
}

// UpdateItem handles PATCH /cart/items/{itemId}.
func UpdateItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		actor, err := middleware.RequireActor(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := validators.PathUUID(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cartdto.UpdateItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.UpdateItem(r.Context(), actor, itemID, toUpdateItemInput(payload))
		writeCart(w, r, logg, http.StatusOK, record, err)
	}
}

// RemoveItem handles DELETE /cart/items/{itemId}.
func RemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		actor, err := middleware.RequireActor(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := validators.PathUUID(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.RemoveItem(r.Context(), actor, itemID)
		writeCart(w, r, logg, http.StatusOK, record, err)
	}
}

type actionFunc func(ctx context.Context, actor authz.Actor, cartID uuid.UUID) (*models.Cart, error)

// cartAction covers the POST /cart/{cartId}/<verb> endpoints.
func cartAction(svc cartsvc.Service, logg *logger.Logger, action func(cartsvc.Service) actionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		actor, err := middleware.RequireActor(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cartID, err := validators.PathUUID(r, "cartId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := action(svc)(r.Context(), actor, cartID)
		writeCart(w, r, logg, http.StatusOK, record, err)
	}
}

// Clear handles POST /cart/{cartId}/clear.
func Clear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return cartAction(svc, logg, func(s cartsvc.Service) actionFunc { return s.Clear })
}

// Refresh handles POST /cart/{cartId}/refresh.
func Refresh(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return cartAction(svc, logg, func(s cartsvc.Service) actionFunc { return s.Refresh })
}

// Abandon handles POST /cart/{cartId}/abandon.
func Abandon(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return cartAction(svc, logg, func(s cartsvc.Service) actionFunc { return s.Abandon })
}

// Get handles GET /cart/{cartId}.
func Get(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return cartAction(svc, logg, func(s cartsvc.Service) actionFunc { return s.Get })
}

// UpdateCart handles PATCH /cart/{cartId}.
func UpdateCart(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		actor, err := middleware.RequireActor(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cartID, err := validators.PathUUID(r, "cartId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cartdto.UpdateCartRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.UpdateCart(r.Context(), actor, cartID, toUpdateCartInput(payload))
		writeCart(w, r, logg, http.StatusOK, record, err)
	}
}

// GetByShop handles GET /cart/shop/{shopId}.
func GetByShop(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		actor, err := middleware.RequireActor(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		shopID, err := validators.PathUUID(r, "shopId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.GetByShop(r.Context(), actor, shopID)
		writeCart(w, r, logg, http.StatusOK, record, err)
	}
}

// List handles GET /cart.
func List(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		actor, err := middleware.RequireActor(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters, err := parseListFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		records, err := svc.List(r.Context(), actor, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"carts": newCarts(records)})
	}
}

// Stats handles GET /cart/stats.
func Stats(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		actor, err := middleware.RequireActor(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		stats, err := svc.Stats(r.Context(), actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}
