package credit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	creditdto "github.com/angelmondragon/shoptab-backend/api/controllers/credit/dto"
	"github.com/angelmondragon/shoptab-backend/api/middleware"
	"github.com/angelmondragon/shoptab-backend/internal/authz"
	creditsvc "github.com/angelmondragon/shoptab-backend/internal/credit"
	"github.com/angelmondragon/shoptab-backend/pkg/db/models"
	"github.com/angelmondragon/shoptab-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shoptab-backend/pkg/errors"
)

type stubLedger struct {
	creditsvc.Service
	err         error
	created     creditsvc.CreateAccountInput
	update      creditsvc.UpdateAccountInput
	posted      creditsvc.PostingInput
	postedKind  string
	accountQ    creditsvc.AccountFilters
	txnQ        creditsvc.TransactionFilters
	phone       string
	page        [2]int
	accountRows []models.CreditAccount
}

func (s *stubLedger) CreateAccount(ctx context.Context, actor authz.Actor, input creditsvc.CreateAccountInput) (*models.CreditAccount, error) {
	s.created = input
	if s.err != nil {
		return nil, s.err
	}
	return &models.CreditAccount{ID: uuid.New(), ShopID: input.ShopID, CustomerPhone: input.CustomerPhone, CreditLimit: input.CreditLimit, Status: enums.CreditAccountActive}, nil
}

func (s *stubLedger) ListAccounts(ctx context.Context, actor authz.Actor, shopID uuid.UUID, filters creditsvc.AccountFilters) (*creditsvc.AccountList, error) {
	s.accountQ = filters
	return &creditsvc.AccountList{Accounts: s.accountRows, Total: int64(len(s.accountRows)), Limit: filters.Limit}, s.err
}

func (s *stubLedger) GetAccountByPhone(ctx context.Context, actor authz.Actor, shopID uuid.UUID, phone string) (*creditsvc.AccountDetail, error) {
	s.phone = phone
	if s.err != nil {
		return nil, s.err
	}
	return &creditsvc.AccountDetail{Account: models.CreditAccount{ID: uuid.New(), CustomerPhone: phone}}, nil
}

func (s *stubLedger) UpdateAccount(ctx context.Context, actor authz.Actor, shopID, accountID uuid.UUID, input creditsvc.UpdateAccountInput) (*models.CreditAccount, error) {
	s.update = input
	return &models.CreditAccount{ID: accountID, ShopID: shopID}, s.err
}

func (s *stubLedger) record(kind string, input creditsvc.PostingInput) (*creditsvc.PostingResult, error) {
	s.posted = input
	s.postedKind = kind
	if s.err != nil {
		return nil, s.err
	}
	txnType := enums.CreditTxnCredit
	if kind == "payment" {
		txnType = enums.CreditTxnPayment
	}
	return &creditsvc.PostingResult{
		Account:     models.CreditAccount{ID: input.AccountID, ShopID: input.ShopID, CurrentBalance: input.Amount, CreditLimit: decimal.RequireFromString("100")},
		Transaction: models.CreditTransaction{ID: uuid.New(), CreditAccountID: input.AccountID, TransactionType: txnType, Amount: input.Amount, BalanceAfterTransaction: input.Amount},
	}, nil
}

func (s *stubLedger) AddCredit(ctx context.Context, actor authz.Actor, input creditsvc.PostingInput) (*creditsvc.PostingResult, error) {
	return s.record("credit", input)
}

func (s *stubLedger) AddPayment(ctx context.Context, actor authz.Actor, input creditsvc.PostingInput) (*creditsvc.PostingResult, error) {
	return s.record("payment", input)
}

func (s *stubLedger) ListTransactions(ctx context.Context, actor authz.Actor, shopID uuid.UUID, filters creditsvc.TransactionFilters) (*creditsvc.TransactionList, error) {
	s.txnQ = filters
	return &creditsvc.TransactionList{Limit: filters.Limit, Offset: filters.Offset}, s.err
}

func (s *stubLedger) CustomerTransactions(ctx context.Context, actor authz.Actor, limit, offset int) (*creditsvc.TransactionList, error) {
	s.page = [2]int{limit, offset}
	return &creditsvc.TransactionList{Limit: limit, Offset: offset}, s.err
}

func ownerActor(shopID uuid.UUID) authz.Actor {
	return authz.Actor{UserID: uuid.New(), Role: enums.RoleShopOwner, ShopID: &shopID}
}

func newRequest(method, target, body string, actor authz.Actor, params map[string]string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rc := chi.NewRouteContext()
	for key, value := range params {
		rc.URLParams.Add(key, value)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rc)
	return req.WithContext(middleware.WithActor(ctx, actor))
}

func TestCreateAccountUsesPathShop(t *testing.T) {
	shopID := uuid.New()
	svc := &stubLedger{}
	req := newRequest(http.MethodPost, "/api/v1/shops/x/credit/accounts",
		`{"customer_phone":"+91 55500 01111","customer_nickname":" Ravi ","credit_limit":"500"}`,
		ownerActor(shopID), map[string]string{"shopId": shopID.String()})
	resp := httptest.NewRecorder()

	CreateAccount(svc, nil).ServeHTTP(resp, req)

	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	require.Equal(t, shopID, svc.created.ShopID)
	require.Equal(t, "+915550001111", svc.created.CustomerPhone)
	require.Equal(t, "Ravi", svc.created.CustomerNickname)
	require.True(t, svc.created.CreditLimit.Equal(decimal.RequireFromString("500")))

	var envelope struct {
		Data creditdto.Account `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	require.NotNil(t, envelope.Data.AvailableCredit)
	require.True(t, envelope.Data.AvailableCredit.Equal(decimal.RequireFromString("500")))
}

func TestCreateAccountDefaultsToUnlimited(t *testing.T) {
	shopID := uuid.New()
	svc := &stubLedger{}
	req := newRequest(http.MethodPost, "/", `{"customer_phone":"5550001111","customer_nickname":"Ravi"}`,
		ownerActor(shopID), map[string]string{"shopId": shopID.String()})
	resp := httptest.NewRecorder()

	CreateAccount(svc, nil).ServeHTTP(resp, req)

	require.Equal(t, http.StatusCreated, resp.Code)
	require.True(t, svc.created.CreditLimit.IsZero())
	var envelope struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	_, hasAvailable := envelope.Data["available_credit"]
	require.False(t, hasAvailable, "unlimited accounts omit available credit")
}

func TestCreateAccountRejectsNegativeLimit(t *testing.T) {
	shopID := uuid.New()
	req := newRequest(http.MethodPost, "/", `{"customer_phone":"5550001111","customer_nickname":"Ravi","credit_limit":"-5"}`,
		ownerActor(shopID), map[string]string{"shopId": shopID.String()})
	resp := httptest.NewRecorder()
	CreateAccount(&stubLedger{}, nil).ServeHTTP(resp, req)
	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestCreateAccountDuplicatePhone(t *testing.T) {
	shopID := uuid.New()
	svc := &stubLedger{err: pkgerrors.New(pkgerrors.CodeConflict, "credit account already exists for this phone")}
	req := newRequest(http.MethodPost, "/", `{"customer_phone":"5550001111","customer_nickname":"Ravi"}`,
		ownerActor(shopID), map[string]string{"shopId": shopID.String()})
	resp := httptest.NewRecorder()
	CreateAccount(svc, nil).ServeHTTP(resp, req)
	require.Equal(t, http.StatusConflict, resp.Code)
}

func TestPostingRoutesToCreditOrPayment(t *testing.T) {
	shopID, accountID := uuid.New(), uuid.New()
	params := map[string]string{"shopId": shopID.String(), "accountId": accountID.String()}

	svc := &stubLedger{}
	resp := httptest.NewRecorder()
	AddCredit(svc, nil).ServeHTTP(resp, newRequest(http.MethodPost, "/", `{"amount":"40.50","remarks":" rice "}`, ownerActor(shopID), params))
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	require.Equal(t, "credit", svc.postedKind)
	require.Equal(t, accountID, svc.posted.AccountID)
	require.Equal(t, shopID, svc.posted.ShopID)
	require.Equal(t, "rice", *svc.posted.Remarks)

	resp = httptest.NewRecorder()
	AddPayment(svc, nil).ServeHTTP(resp, newRequest(http.MethodPost, "/", `{"amount":"10"}`, ownerActor(shopID), params))
	require.Equal(t, http.StatusCreated, resp.Code)
	require.Equal(t, "payment", svc.postedKind)

	var envelope struct {
		Data creditdto.Posting `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	require.Equal(t, enums.CreditTxnPayment, envelope.Data.Transaction.TransactionType)
}

func TestPostingRejectsThreeDecimals(t *testing.T) {
	shopID := uuid.New()
	params := map[string]string{"shopId": shopID.String(), "accountId": uuid.NewString()}
	resp := httptest.NewRecorder()
	AddCredit(&stubLedger{}, nil).ServeHTTP(resp, newRequest(http.MethodPost, "/", `{"amount":"1.005"}`, ownerActor(shopID), params))
	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestPostingOverLimitIsStateConflict(t *testing.T) {
	shopID := uuid.New()
	params := map[string]string{"shopId": shopID.String(), "accountId": uuid.NewString()}
	svc := &stubLedger{err: pkgerrors.New(pkgerrors.CodeStateConflict, "credit limit exceeded")}
	resp := httptest.NewRecorder()
	AddCredit(svc, nil).ServeHTTP(resp, newRequest(http.MethodPost, "/", `{"amount":"1000"}`, ownerActor(shopID), params))
	require.Equal(t, http.StatusUnprocessableEntity, resp.Code)
}

func TestUpdateAccountParsesStatus(t *testing.T) {
	shopID := uuid.New()
	params := map[string]string{"shopId": shopID.String(), "accountId": uuid.NewString()}
	svc := &stubLedger{}

	resp := httptest.NewRecorder()
	UpdateAccount(svc, nil).ServeHTTP(resp, newRequest(http.MethodPatch, "/", `{"status":"suspended"}`, ownerActor(shopID), params))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	require.NotNil(t, svc.update.Status)
	require.Equal(t, enums.CreditAccountSuspended, *svc.update.Status)

	resp = httptest.NewRecorder()
	UpdateAccount(svc, nil).ServeHTTP(resp, newRequest(http.MethodPatch, "/", `{"status":"frozen"}`, ownerActor(shopID), params))
	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestListAccountsFilters(t *testing.T) {
	shopID := uuid.New()
	svc := &stubLedger{accountRows: []models.CreditAccount{{ID: uuid.New()}}}
	resp := httptest.NewRecorder()
	ListAccounts(svc, nil).ServeHTTP(resp, newRequest(http.MethodGet, "/?status=active&search=ra&sort=balance&limit=10&offset=20", "",
		ownerActor(shopID), map[string]string{"shopId": shopID.String()}))

	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	require.NotNil(t, svc.accountQ.Status)
	require.Equal(t, "ra", svc.accountQ.Search)
	require.Equal(t, "balance", svc.accountQ.Sort)
	require.Equal(t, 10, svc.accountQ.Limit)
	require.Equal(t, 20, svc.accountQ.Offset)

	resp = httptest.NewRecorder()
	ListAccounts(svc, nil).ServeHTTP(resp, newRequest(http.MethodGet, "/?sort=random", "",
		ownerActor(shopID), map[string]string{"shopId": shopID.String()}))
	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestGetAccountByPhoneNormalizes(t *testing.T) {
	shopID := uuid.New()
	svc := &stubLedger{}
	resp := httptest.NewRecorder()
	GetAccountByPhone(svc, nil).ServeHTTP(resp, newRequest(http.MethodGet, "/", "", ownerActor(shopID),
		map[string]string{"shopId": shopID.String(), "phone": "555-000-1111"}))
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, "5550001111", svc.phone)
}

func TestListTransactionsFilters(t *testing.T) {
	shopID := uuid.New()
	svc := &stubLedger{}
	resp := httptest.NewRecorder()
	ListTransactions(svc, nil).ServeHTTP(resp, newRequest(http.MethodGet, "/?type=payment&source=manual", "",
		ownerActor(shopID), map[string]string{"shopId": shopID.String()}))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	require.NotNil(t, svc.txnQ.Type)
	require.Equal(t, enums.CreditTxnPayment, *svc.txnQ.Type)
	require.NotNil(t, svc.txnQ.Source)
	require.Equal(t, 50, svc.txnQ.Limit)
}

func TestMyTransactionsPaging(t *testing.T) {
	svc := &stubLedger{}
	actor := authz.Actor{UserID: uuid.New(), Role: enums.RoleCustomer, Phone: "5550001111"}
	resp := httptest.NewRecorder()
	MyTransactions(svc, nil).ServeHTTP(resp, newRequest(http.MethodGet, "/?limit=5&offset=5", "", actor, nil))
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, [2]int{5, 5}, svc.page)
}
