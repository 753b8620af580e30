package credit

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	creditdto "github.com/angelmondragon/shoptab-backend/api/controllers/credit/dto"
	"github.com/angelmondragon/shoptab-backend/api/validators"
	creditsvc "github.com/angelmondragon/shoptab-backend/internal/credit"
	"github.com/angelmondragon/shoptab-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shoptab-backend/pkg/errors"
	"github.com/angelmondragon/shoptab-backend/pkg/pagination"
)

const maxOffset = 100000

var accountSorts = map[string]bool{
	"":            true,
	"created":     true,
	"balance":     true,
	"nickname":    true,
	"last_credit": true,
}

func invalidField(field string, err error) error {
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+field).WithDetails(map[string]any{"field": field})
}

func toCreateAccountInput(payload creditdto.CreateAccountRequest) creditsvc.CreateAccountInput {
	limit := decimal.Zero
	if payload.CreditLimit != nil {
		limit = *payload.CreditLimit
	}
	return creditsvc.CreateAccountInput{
		CustomerPhone:    validators.DigitsOnly(payload.CustomerPhone),
		CustomerNickname: validators.SanitizeString(payload.CustomerNickname, 100),
		CustomerName:     validators.SanitizeOptional(payload.CustomerName, 200),
		CreditLimit:      limit,
		Notes:            validators.SanitizeOptional(payload.Notes, 1000),
	}
}

func toUpdateAccountInput(payload creditdto.UpdateAccountRequest) (creditsvc.UpdateAccountInput, error) {
	input := creditsvc.UpdateAccountInput{
		CustomerName: validators.SanitizeOptional(payload.CustomerName, 200),
		CreditLimit:  payload.CreditLimit,
		Notes:        validators.SanitizeOptional(payload.Notes, 1000),
	}
	if payload.CustomerNickname != nil {
		nickname := validators.SanitizeString(*payload.CustomerNickname, 100)
		input.CustomerNickname = &nickname
	}
	if payload.Status != nil {
		status, err := enums.ParseCreditAccountStatus(strings.TrimSpace(*payload.Status))
		if err != nil {
			return creditsvc.UpdateAccountInput{}, invalidField("status", err)
		}
		input.Status = &status
	}
	return input, nil
}

func toPostingInput(payload creditdto.PostingRequest) creditsvc.PostingInput {
	return creditsvc.PostingInput{
		Amount:   payload.Amount,
		Remarks:  validators.SanitizeOptional(payload.Remarks, 500),
		OrderID:  payload.OrderID,
		Metadata: payload.Metadata,
	}
}

func parsePage(r *http.Request, defaultLimit int) (int, int, error) {
	limit, err := validators.ParseQueryInt(r, "limit", defaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return 0, 0, err
	}
	offset, err := validators.ParseQueryInt(r, "offset", 0, 0, maxOffset)
	if err != nil {
		return 0, 0, err
	}
	return limit, offset, nil
}

func parseAccountFilters(r *http.Request) (creditsvc.AccountFilters, error) {
	var filters creditsvc.AccountFilters
	query := r.URL.Query()
	if raw := strings.TrimSpace(query.Get("status")); raw != "" {
		status, err := enums.ParseCreditAccountStatus(raw)
		if err != nil {
			return filters, invalidField("status", err)
		}
		filters.Status = &status
	}
	sort := strings.TrimSpace(query.Get("sort"))
	if !accountSorts[sort] {
		return filters, pkgerrors.New(pkgerrors.CodeValidation, "invalid sort").WithDetails(map[string]any{"field": "sort"})
	}
	filters.Sort = sort
	filters.Search = validators.SanitizeString(query.Get("search"), 100)

	limit, offset, err := parsePage(r, pagination.DefaultLimit)
	if err != nil {
		return filters, err
	}
	filters.Limit, filters.Offset = limit, offset
	return filters, nil
}

func parseTransactionFilters(r *http.Request) (creditsvc.TransactionFilters, error) {
	var (
		filters creditsvc.TransactionFilters
		err     error
	)
	query := r.URL.Query()
	if filters.AccountID, err = validators.ParseQueryUUID(r, "account_id"); err != nil {
		return filters, err
	}
	if raw := strings.TrimSpace(query.Get("type")); raw != "" {
		kind, err := enums.ParseCreditTransactionType(raw)
		if err != nil {
			return filters, invalidField("type", err)
		}
		filters.Type = &kind
	}
	if raw := strings.TrimSpace(query.Get("source")); raw != "" {
		source, err := enums.ParseCreditTransactionSource(raw)
		if err != nil {
			return filters, invalidField("source", err)
		}
		filters.Source = &source
	}
	filters.Phone = validators.DigitsOnly(query.Get("phone"))

	limit, offset, err := parsePage(r, 50)
	if err != nil {
		return filters, err
	}
	filters.Limit, filters.Offset = limit, offset
	return filters, nil
}
