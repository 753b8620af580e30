package orders

import (
	"net/http"

	"github.com/google/uuid"

	ordersdto "github.com/angelmondragon/shoptab-backend/api/controllers/orders/dto"
	"github.com/angelmondragon/shoptab-backend/api/middleware"
	"github.com/angelmondragon/shoptab-backend/api/responses"
	"github.com/angelmondragon/shoptab-backend/api/validators"
	"github.com/angelmondragon/shoptab-backend/internal/authz"
	orderssvc "github.com/angelmondragon/shoptab-backend/internal/orders"
	"github.com/angelmondragon/shoptab-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/shoptab-backend/pkg/errors"
	"github.com/angelmondragon/shoptab-backend/pkg/logger"
)

func unavailable(w http.ResponseWriter, r *http.Request, logg *logger.Logger) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
}

func writeOrder(w http.ResponseWriter, r *http.Request, logg *logger.Logger, status int, record *models.Order, err error) {
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	responses.WriteSuccessStatus(w, status, newOrder(record))
}

// orderScope resolves the caller and the {orderId} path parameter. It writes
// the error response itself and returns false when either is missing.
func orderScope(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (authz.Actor, uuid.UUID, bool) {
	actor, err := middleware.RequireActor(r.Context())
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return authz.Actor{}, uuid.Nil, false
	}
	orderID, err := validators.PathUUID(r, "orderId")
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return authz.Actor{}, uuid.Nil, false
	}
	return actor, orderID, true
}

// Create handles POST /orders.
func Create(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
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

		var payload ordersdto.CreateOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := toCreateOrderInput(payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.CreateFromCart(r.Context(), actor, input)
		writeOrder(w, r, logg, http.StatusCreated, record, err)
	}
}

// List handles GET /orders.
func List(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
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

		result, err := svc.List(r.Context(), actor, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderList(result))
	}
}

// Summary handles GET /orders/summary. Shop owners default to their own shop.
func Summary(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
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
		shopID, err := validators.ParseQueryUUID(r, "shop_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if shopID == nil {
			shopID = actor.ShopID
		}
		if shopID == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "shop_id is required"))
			return
		}

		summary, err := svc.Summary(r.Context(), actor, *shopID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

// Get handles GET /orders/{orderId}.
func Get(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		actor, orderID, ok := orderScope(w, r, logg)
		if !ok {
			return
		}

		detail, err := svc.Get(r.Context(), actor, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderDetail(detail))
	}
}

// UpdateStatus handles PATCH /orders/{orderId}/status.
func UpdateStatus(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		actor, orderID, ok := orderScope(w, r, logg)
		if !ok {
			return
		}

		var payload ordersdto.UpdateStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := toUpdateStatusInput(payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.UpdateStatus(r.Context(), actor, orderID, input)
		writeOrder(w, r, logg, http.StatusOK, record, err)
	}
}

// Cancel handles POST /orders/{orderId}/cancel.
func Cancel(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		actor, orderID, ok := orderScope(w, r, logg)
		if !ok {
			return
		}

		var payload ordersdto.CancelRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.Cancel(r.Context(), actor, orderID, validators.SanitizeString(payload.Reason, 500))
		writeOrder(w, r, logg, http.StatusOK, record, err)
	}
}

// Refund handles POST /orders/{orderId}/refund.
func Refund(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		actor, orderID, ok := orderScope(w, r, logg)
		if !ok {
			return
		}

		var payload ordersdto.RefundRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.Refund(r.Context(), actor, orderID, validators.SanitizeString(payload.Notes, 1000))
		writeOrder(w, r, logg, http.StatusOK, record, err)
	}
}

// UpdatePaymentMethod handles PATCH /orders/{orderId}/payment-method.
func UpdatePaymentMethod(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		actor, orderID, ok := orderScope(w, r, logg)
		if !ok {
			return
		}

		var payload ordersdto.PaymentMethodRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := toPaymentMethodInput(payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.UpdatePaymentMethod(r.Context(), actor, orderID, input)
		writeOrder(w, r, logg, http.StatusOK, record, err)
	}
}

// AddItem handles POST /orders/{orderId}/items.
func AddItem(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		actor, orderID, ok := orderScope(w, r, logg)
		if !ok {
			return
		}

		var payload ordersdto.AddItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.AddItem(r.Context(), actor, orderID, toAddItemInput(payload))
		writeOrder(w, r, logg, http.StatusCreated, record, err)
	}
}

// UpdateItem handles PATCH /orders/{orderId}/items/{itemId}.
func UpdateItem(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		actor, orderID, ok := orderScope(w, r, logg)
		if !ok {
			return
		}
		itemID, err := validators.PathUUID(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload ordersdto.UpdateItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.UpdateItem(r.Context(), actor, orderID, itemID, toUpdateItemInput(payload))
		writeOrder(w, r, logg, http.StatusOK, record, err)
	}
}

// UpdateFees handles PATCH /orders/{orderId}/fees.
func UpdateFees(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		actor, orderID, ok := orderScope(w, r, logg)
		if !ok {
			return
		}

		var payload ordersdto.UpdateFeesRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := toUpdateFeesInput(payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.UpdateFees(r.Context(), actor, orderID, input)
		writeOrder(w, r, logg, http.StatusOK, record, err)
	}
}
