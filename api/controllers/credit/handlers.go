package credit

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	creditdto "github.com/angelmondragon/shoptab-backend/api/controllers/credit/dto"
	"github.com/angelmondragon/shoptab-backend/api/middleware"
	"github.com/angelmondragon/shoptab-backend/api/responses"
	"github.com/angelmondragon/shoptab-backend/api/validators"
	"github.com/angelmondragon/shoptab-backend/internal/authz"
	creditsvc "github.com/angelmondragon/shoptab-backend/internal/credit"
	pkgerrors "github.com/angelmondragon/shoptab-backend/pkg/errors"
	"github.com/angelmondragon/shoptab-backend/pkg/logger"
)

func unavailable(w http.ResponseWriter, r *http.Request, logg *logger.Logger) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "credit service unavailable"))
}

type scope struct {
	actor     authz.Actor
	shopID    uuid.UUID
	accountID uuid.UUID
}

// resolve reads the caller plus the {shopId} and, when withAccount is set,
// {accountId} path parameters. It writes the error response on failure.
func resolve(w http.ResponseWriter, r *http.Request, logg *logger.Logger, withAccount bool) (scope, bool) {
	var s scope
	actor, err := middleware.RequireActor(r.Context())
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return s, false
	}
	s.actor = actor
	if s.shopID, err = validators.PathUUID(r, "shopId"); err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return s, false
	}
	if withAccount {
		if s.accountID, err = validators.PathUUID(r, "accountId"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return s, false
		}
	}
	return s, true
}

// CreateAccount handles POST /shops/{shopId}/credit/accounts.
func CreateAccount(svc creditsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		s, ok := resolve(w, r, logg, false)
		if !ok {
			return
		}

		var payload creditdto.CreateAccountRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input := toCreateAccountInput(payload)
		input.ShopID = s.shopID

		account, err := svc.CreateAccount(r.Context(), s.actor, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newAccount(*account))
	}
}

// ListAccounts handles GET /shops/{shopId}/credit/accounts.
func ListAccounts(svc creditsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		s, ok := resolve(w, r, logg, false)
		if !ok {
			return
		}
		filters, err := parseAccountFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListAccounts(r.Context(), s.actor, s.shopID, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newAccountList(list))
	}
}

// GetAccount handles GET /shops/{shopId}/credit/accounts/{accountId}.
func GetAccount(svc creditsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		s, ok := resolve(w, r, logg, true)
		if !ok {
			return
		}

		detail, err := svc.GetAccount(r.Context(), s.actor, s.shopID, s.accountID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newAccountDetail(detail))
	}
}

// GetAccountByPhone handles GET /shops/{shopId}/credit/accounts/phone/{phone}.
func GetAccountByPhone(svc creditsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		s, ok := resolve(w, r, logg, false)
		if !ok {
			return
		}
		phone := validators.DigitsOnly(strings.TrimSpace(chi.URLParam(r, "phone")))
		if phone == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "phone is required"))
			return
		}

		detail, err := svc.GetAccountByPhone(r.Context(), s.actor, s.shopID, phone)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newAccountDetail(detail))
	}
}

// UpdateAccount handles PATCH /shops/{shopId}/credit/accounts/{accountId}.
func UpdateAccount(svc creditsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		s, ok := resolve(w, r, logg, true)
		if !ok {
			return
		}

		var payload creditdto.UpdateAccountRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := toUpdateAccountInput(payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		account, err := svc.UpdateAccount(r.Context(), s.actor, s.shopID, s.accountID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newAccount(*account))
	}
}

func posting(svc creditsvc.Service, logg *logger.Logger, credit bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		s, ok := resolve(w, r, logg, true)
		if !ok {
			return
		}

		var payload creditdto.PostingRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input := toPostingInput(payload)
		input.ShopID = s.shopID
		input.AccountID = s.accountID

		var (
			result *creditsvc.PostingResult
			err    error
		)
		if credit {
			result, err = svc.AddCredit(r.Context(), s.actor, input)
		} else {
			result, err = svc.AddPayment(r.Context(), s.actor, input)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newPosting(result))
	}
}

// AddCredit handles POST /shops/{shopId}/credit/accounts/{accountId}/credit.
func AddCredit(svc creditsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return posting(svc, logg, true)
}

// AddPayment handles POST /shops/{shopId}/credit/accounts/{accountId}/payment.
func AddPayment(svc creditsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return posting(svc, logg, false)
}

// Verify handles GET /shops/{shopId}/credit/accounts/{accountId}/verify.
func Verify(svc creditsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		s, ok := resolve(w, r, logg, true)
		if !ok {
			return
		}

		result, err := svc.Verify(r.Context(), s.actor, s.shopID, s.accountID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ListTransactions handles GET /shops/{shopId}/credit/transactions.
func ListTransactions(svc creditsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		s, ok := resolve(w, r, logg, false)
		if !ok {
			return
		}
		filters, err := parseTransactionFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListTransactions(r.Context(), s.actor, s.shopID, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newTransactionList(list))
	}
}

// Summary handles GET /shops/{shopId}/credit/summary.
func Summary(svc creditsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		s, ok := resolve(w, r, logg, false)
		if !ok {
			return
		}

		summary, err := svc.GetSummary(r.Context(), s.actor, s.shopID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newSummary(summary))
	}
}

// MyAccounts handles GET /credit/me/accounts.
func MyAccounts(svc creditsvc.Service, logg *logger.Logger) http.HandlerFunc {
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

		accounts, err := svc.CustomerAccounts(r.Context(), actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"accounts": newAccounts(accounts)})
	}
}

// MyTransactions handles GET /credit/me/transactions.
func MyTransactions(svc creditsvc.Service, logg *logger.Logger) http.HandlerFunc {
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
		limit, offset, err := parsePage(r, 50)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.CustomerTransactions(r.Context(), actor, limit, offset)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newTransactionList(list))
	}
}
