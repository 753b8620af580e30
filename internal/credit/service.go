package credit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/shoptab-backend/internal/authz"
	dbpkg "github.com/angelmondragon/shoptab-backend/pkg/db"
	"github.com/angelmondragon/shoptab-backend/pkg/db/models"
	"github.com/angelmondragon/shoptab-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shoptab-backend/pkg/errors"
	"github.com/angelmondragon/shoptab-backend/pkg/logger"
	"github.com/angelmondragon/shoptab-backend/pkg/metrics"
	"github.com/angelmondragon/shoptab-backend/pkg/outbox"
	"github.com/angelmondragon/shoptab-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/shoptab-backend/pkg/pagination"
)

type txRunner interface {
	WithRetry(ctx context.Context, opts dbpkg.RetryOptions, fn func(tx *gorm.DB) error) error
}

// Service is the shop credit ledger.
type Service interface {
	CreateAccount(ctx context.Context, actor authz.Actor, input CreateAccountInput) (*models.CreditAccount, error)
	ListAccounts(ctx context.Context, actor authz.Actor, shopID uuid.UUID, filters AccountFilters) (*AccountList, error)
	GetAccount(ctx context.Context, actor authz.Actor, shopID, accountID uuid.UUID) (*AccountDetail, error)
	GetAccountByPhone(ctx context.Context, actor authz.Actor, shopID uuid.UUID, phone string) (*AccountDetail, error)
	UpdateAccount(ctx context.Context, actor authz.Actor, shopID, accountID uuid.UUID, input UpdateAccountInput) (*models.CreditAccount, error)
	AddCredit(ctx context.Context, actor authz.Actor, input PostingInput) (*PostingResult, error)
	AddPayment(ctx context.Context, actor authz.Actor, input PostingInput) (*PostingResult, error)
	ListTransactions(ctx context.Context, actor authz.Actor, shopID uuid.UUID, filters TransactionFilters) (*TransactionList, error)
	GetSummary(ctx context.Context, actor authz.Actor, shopID uuid.UUID) (*Summary, error)
	CustomerAccounts(ctx context.Context, actor authz.Actor) ([]models.CreditAccount, error)
	CustomerTransactions(ctx context.Context, actor authz.Actor, limit, offset int) (*TransactionList, error)
	Verify(ctx context.Context, actor authz.Actor, shopID, accountID uuid.UUID) (*VerifyResult, error)
	WithTx(tx *gorm.DB) TxLedger
}

// TxLedger runs ledger work inside a transaction owned by the caller. Shop
// authorization is the caller's responsibility.
type TxLedger interface {
	FindAccountByPhone(ctx context.Context, shopID uuid.UUID, phone string) (*models.CreditAccount, error)
	EnsureAccount(ctx context.Context, shopID uuid.UUID, phone, notes string) (*models.CreditAccount, bool, error)
	AddCredit(ctx context.Context, actor authz.Actor, input PostingInput) (*PostingResult, error)
}

// ServiceParams wires the ledger.
type ServiceParams struct {
	Repo    Repository
	DB      txRunner
	Outbox  outbox.Emitter
	Logger  *logger.Logger
	Metrics *metrics.CommerceMetrics
	Retry   dbpkg.RetryOptions
}

type service struct {
	repo    Repository
	db      txRunner
	outbox  outbox.Emitter
	logg    *logger.Logger
	metrics *metrics.CommerceMetrics
	retry   dbpkg.RetryOptions
	now     func() time.Time
}

// NewService validates dependencies and returns the ledger service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("credit repository required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo:    params.Repo,
		db:      params.DB,
		outbox:  params.Outbox,
		logg:    logg,
		metrics: params.Metrics,
		retry:   params.Retry,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) CreateAccount(ctx context.Context, actor authz.Actor, input CreateAccountInput) (*models.CreditAccount, error) {
	if err := authz.CanActForShop(actor, input.ShopID); err != nil {
		return nil, err
	}
	phone, err := normalizePhone(input.CustomerPhone)
	if err != nil {
		return nil, err
	}
	nickname := strings.TrimSpace(input.CustomerNickname)
	if nickname == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer nickname is required")
	}
	if err := validateLimit(input.CreditLimit); err != nil {
		return nil, err
	}

	account := &models.CreditAccount{
		ShopID:            input.ShopID,
		CustomerPhone:     phone,
		CustomerNickname:  nickname,
		CustomerName:      trimmedOrNil(input.CustomerName),
		TotalCreditAmount: decimal.Zero,
		TotalPaidAmount:   decimal.Zero,
		CurrentBalance:    decimal.Zero,
		CreditLimit:       input.CreditLimit,
		Status:            enums.CreditAccountActive,
		Notes:             trimmedOrNil(input.Notes),
	}
	if err := s.repo.CreateAccount(ctx, account); err != nil {
		if dbpkg.IsUniqueViolation(err, "ux_credit_accounts_shop_phone", "credit_accounts") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "credit account already exists for this phone")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create credit account")
	}
	return account, nil
}

func (s *service) ListAccounts(ctx context.Context, actor authz.Actor, shopID uuid.UUID, filters AccountFilters) (*AccountList, error) {
	if err := authz.CanActForShop(actor, shopID); err != nil {
		return nil, err
	}
	filters.Limit = pagination.NormalizeLimitWithDefault(filters.Limit, defaultAccountPageSize)
	if filters.Offset < 0 {
		filters.Offset = 0
	}
	accounts, total, err := s.repo.ListAccounts(ctx, shopID, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list credit accounts")
	}
	return &AccountList{Accounts: accounts, Total: total, Limit: filters.Limit, Offset: filters.Offset}, nil
}

func (s *service) GetAccount(ctx context.Context, actor authz.Actor, shopID, accountID uuid.UUID) (*AccountDetail, error) {
	if err := authz.CanActForShop(actor, shopID); err != nil {
		return nil, err
	}
	account, err := s.repo.FindAccount(ctx, shopID, accountID)
	if err != nil {
		return nil, accountLoadError(err)
	}
	return s.detail(ctx, account)
}

func (s *service) GetAccountByPhone(ctx context.Context, actor authz.Actor, shopID uuid.UUID, phone string) (*AccountDetail, error) {
	if err := authz.CanActForShop(actor, shopID); err != nil {
		return nil, err
	}
	normalized, err := normalizePhone(phone)
	if err != nil {
		return nil, err
	}
	account, err := s.repo.FindAccountByPhone(ctx, shopID, normalized)
	if err != nil {
		return nil, accountLoadError(err)
	}
	return s.detail(ctx, account)
}

func (s *service) detail(ctx context.Context, account *models.CreditAccount) (*AccountDetail, error) {
	recent, err := s.repo.RecentTransactions(ctx, account.ShopID, &account.ID, summaryRecentTransactions)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load recent transactions")
	}
	return &AccountDetail{
		Account:            *account,
		AvailableCredit:    account.AvailableCredit(),
		RecentTransactions: recent,
	}, nil
}

func (s *service) UpdateAccount(ctx context.Context, actor authz.Actor, shopID, accountID uuid.UUID, input UpdateAccountInput) (*models.CreditAccount, error) {
	if err := authz.CanActForShop(actor, shopID); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.CustomerNickname != nil {
		nickname := strings.TrimSpace(*input.CustomerNickname)
		if nickname == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer nickname cannot be empty")
		}
		updates["customer_nickname"] = nickname
	}
	if input.CustomerName != nil {
		updates["customer_name"] = trimmedOrNil(input.CustomerName)
	}
	if input.CreditLimit != nil {
		if err := validateLimit(*input.CreditLimit); err != nil {
			return nil, err
		}
		updates["credit_limit"] = *input.CreditLimit
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid account status")
		}
		updates["status"] = *input.Status
	}
	if input.Notes != nil {
		updates["notes"] = trimmedOrNil(input.Notes)
	}

	var updated *models.CreditAccount
	err := s.db.WithRetry(ctx, s.retry, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		account, err := repo.FindAccountForUpdate(ctx, shopID, accountID)
		if err != nil {
			return accountLoadError(err)
		}
		if err := repo.UpdateAccount(ctx, account.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update credit account")
		}
		updated, err = repo.FindAccount(ctx, shopID, accountID)
		if err != nil {
			return accountLoadError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) AddCredit(ctx context.Context, actor authz.Actor, input PostingInput) (*PostingResult, error) {
	return s.postAuthorized(ctx, actor, enums.CreditTxnCredit, input)
}

func (s *service) AddPayment(ctx context.Context, actor authz.Actor, input PostingInput) (*PostingResult, error) {
	input.OrderID = nil
	return s.postAuthorized(ctx, actor, enums.CreditTxnPayment, input)
}

func (s *service) postAuthorized(ctx context.Context, actor authz.Actor, kind enums.CreditTransactionType, input PostingInput) (*PostingResult, error) {
	if err := authz.CanActForShop(actor, input.ShopID); err != nil {
		return nil, err
	}
	if err := validatePosting(input); err != nil {
		return nil, err
	}
	var result *PostingResult
	err := s.db.WithRetry(ctx, s.retry, func(tx *gorm.DB) error {
		var err error
		result, err = s.post(ctx, tx, actor, kind, input)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// post applies one posting under the account row lock. tx must be open.
func (s *service) post(ctx context.Context, tx *gorm.DB, actor authz.Actor, kind enums.CreditTransactionType, input PostingInput) (*PostingResult, error) {
	repo := s.repo.WithTx(tx)

	account, err := repo.FindAccountForUpdate(ctx, input.ShopID, input.AccountID)
	if err != nil {
		return nil, accountLoadError(err)
	}
	if account.Status != enums.CreditAccountActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "credit account is not active").WithDetails(map[string]any{
			"status": account.Status,
		})
	}

	source := enums.CreditSourceManual
	if input.OrderID != nil {
		source = enums.CreditSourceOrder
		owned, err := repo.OrderBelongsToShop(ctx, *input.OrderID, input.ShopID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if !owned {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found for shop")
		}
		posted, err := repo.OrderPosted(ctx, *input.OrderID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check order posting")
		}
		if posted {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "order already posted to credit")
		}
	}

	now := s.now()
	switch kind {
	case enums.CreditTxnCredit:
		if err := checkLimit(account, input.Amount); err != nil {
			s.metrics.CreditRejected(string(kind))
			return nil, err
		}
		account.TotalCreditAmount = account.TotalCreditAmount.Add(input.Amount)
		account.LastCreditDate = &now
	case enums.CreditTxnPayment:
		if input.Amount.GreaterThan(account.CurrentBalance) {
			s.metrics.CreditRejected(string(kind))
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment exceeds outstanding balance").WithDetails(map[string]any{
				"currentBalance": account.CurrentBalance,
				"requested":      input.Amount,
			})
		}
		account.TotalPaidAmount = account.TotalPaidAmount.Add(input.Amount)
		account.LastPaymentDate = &now
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported transaction type")
	}
	account.CurrentBalance = account.TotalCreditAmount.Sub(account.TotalPaidAmount)

	var metadata json.RawMessage
	if len(input.Metadata) > 0 {
		metadata, err = json.Marshal(input.Metadata)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "encode metadata")
		}
	}

	txn := models.CreditTransaction{
		CreditAccountID:         account.ID,
		ShopID:                  account.ShopID,
		TransactionType:         kind,
		TransactionSource:       source,
		Amount:                  input.Amount,
		Remarks:                 trimmedOrNil(input.Remarks),
		OrderID:                 input.OrderID,
		BalanceAfterTransaction: account.CurrentBalance,
		Metadata:                metadata,
		ActorUserID:             actor.UserID,
	}

	if err := repo.SaveBalances(ctx, account); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update credit balances")
	}
	if err := repo.CreateTransaction(ctx, &txn); err != nil {
		if dbpkg.IsUniqueViolation(err, "ux_credit_transactions_order") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "order already posted to credit")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert credit transaction")
	}

	eventType := enums.EventCreditAdded
	if kind == enums.CreditTxnPayment {
		eventType = enums.EventCreditPaymentReceived
	}
	event := outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateCreditAccount,
		AggregateID:   account.ID,
		Actor:         actor.Ref(),
		Data: payloads.CreditPostedEvent{
			AccountID:       account.ID,
			TransactionID:   txn.ID,
			ShopID:          account.ShopID,
			CustomerPhone:   account.CustomerPhone,
			TransactionType: kind,
			Amount:          txn.Amount,
			BalanceAfter:    txn.BalanceAfterTransaction,
			OrderID:         txn.OrderID,
		},
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit credit event")
	}

	s.metrics.CreditPosted(string(kind))
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"account_id":     account.ID.String(),
		"transaction_id": txn.ID.String(),
		"type":           kind,
		"amount":         txn.Amount.StringFixed(2),
		"balance_after":  txn.BalanceAfterTransaction.StringFixed(2),
	})
	s.logg.Info(logCtx, "credit posting recorded")

	return &PostingResult{Account: *account, Transaction: txn}, nil
}

func (s *service) ListTransactions(ctx context.Context, actor authz.Actor, shopID uuid.UUID, filters TransactionFilters) (*TransactionList, error) {
	if err := authz.CanActForShop(actor, shopID); err != nil {
		return nil, err
	}
	filters.Limit = pagination.NormalizeLimitWithDefault(filters.Limit, defaultTransactionPageSize)
	if filters.Offset < 0 {
		filters.Offset = 0
	}
	txns, total, err := s.repo.ListTransactions(ctx, shopID, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list credit transactions")
	}
	return &TransactionList{Transactions: txns, Total: total, Limit: filters.Limit, Offset: filters.Offset}, nil
}

func (s *service) GetSummary(ctx context.Context, actor authz.Actor, shopID uuid.UUID) (*Summary, error) {
	if err := authz.CanActForShop(actor, shopID); err != nil {
		return nil, err
	}
	summary, err := s.repo.Summary(ctx, shopID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "summarize credit accounts")
	}
	recent, err := s.repo.RecentTransactions(ctx, shopID, nil, summaryRecentTransactions)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load recent transactions")
	}
	summary.RecentTransactions = recent
	return summary, nil
}

func (s *service) CustomerAccounts(ctx context.Context, actor authz.Actor) ([]models.CreditAccount, error) {
	phone, err := customerPhone(actor)
	if err != nil {
		return nil, err
	}
	accounts, err := s.repo.ListAccountsByPhone(ctx, phone)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list customer accounts")
	}
	return accounts, nil
}

func (s *service) CustomerTransactions(ctx context.Context, actor authz.Actor, limit, offset int) (*TransactionList, error) {
	phone, err := customerPhone(actor)
	if err != nil {
		return nil, err
	}
	limit = pagination.NormalizeLimitWithDefault(limit, defaultTransactionPageSize)
	if offset < 0 {
		offset = 0
	}
	txns, total, err := s.repo.ListTransactionsByPhone(ctx, phone, limit, offset)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list customer transactions")
	}
	return &TransactionList{Transactions: txns, Total: total, Limit: limit, Offset: offset}, nil
}

// Verify replays an account's postings and compares every running balance.
func (s *service) Verify(ctx context.Context, actor authz.Actor, shopID, accountID uuid.UUID) (*VerifyResult, error) {
	if err := authz.CanActForShop(actor, shopID); err != nil {
		return nil, err
	}
	account, err := s.repo.FindAccount(ctx, shopID, accountID)
	if err != nil {
		return nil, accountLoadError(err)
	}
	txns, err := s.repo.AccountTransactions(ctx, account.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load account transactions")
	}
	return replay(*account, txns), nil
}

func replay(account models.CreditAccount, txns []models.CreditTransaction) *VerifyResult {
	result := &VerifyResult{
		AccountID:        account.ID,
		TransactionCount: len(txns),
		ReplayedCredit:   decimal.Zero,
		ReplayedPaid:     decimal.Zero,
		ReplayedBalance:  decimal.Zero,
	}
	for i := range txns {
		txn := txns[i]
		switch txn.TransactionType {
		case enums.CreditTxnCredit:
			result.ReplayedCredit = result.ReplayedCredit.Add(txn.Amount)
		case enums.CreditTxnPayment:
			result.ReplayedPaid = result.ReplayedPaid.Add(txn.Amount)
		}
		result.ReplayedBalance = result.ReplayedCredit.Sub(result.ReplayedPaid)
		if !result.ReplayedBalance.Equal(txn.BalanceAfterTransaction) {
			id := txn.ID
			at := txn.CreatedAt
			result.Mismatches = append(result.Mismatches, Mismatch{
				TransactionID: &id,
				Field:         "balance_after_transaction",
				Expected:      result.ReplayedBalance,
				Actual:        txn.BalanceAfterTransaction,
				At:            &at,
			})
		}
	}

	for _, check := range []struct {
		field    string
		expected decimal.Decimal
		actual   decimal.Decimal
	}{
		{"total_credit_amount", result.ReplayedCredit, account.TotalCreditAmount},
		{"total_paid_amount", result.ReplayedPaid, account.TotalPaidAmount},
		{"current_balance", result.ReplayedBalance, account.CurrentBalance},
	} {
		if !check.expected.Equal(check.actual) {
			result.Mismatches = append(result.Mismatches, Mismatch{
				Field:    check.field,
				Expected: check.expected,
				Actual:   check.actual,
			})
		}
	}
	result.Consistent = len(result.Mismatches) == 0
	return result
}

func (s *service) WithTx(tx *gorm.DB) TxLedger {
	return &txLedger{svc: s, tx: tx}
}

type txLedger struct {
	svc *service
	tx  *gorm.DB
}

func (l *txLedger) FindAccountByPhone(ctx context.Context, shopID uuid.UUID, phone string) (*models.CreditAccount, error) {
	normalized, err := normalizePhone(phone)
	if err != nil {
		return nil, err
	}
	account, err := l.svc.repo.WithTx(l.tx).FindAccountByPhone(ctx, shopID, normalized)
	if err != nil {
		return nil, accountLoadError(err)
	}
	return account, nil
}

// EnsureAccount returns the (shop, phone) account, creating an unlimited
// active one when none exists. The bool reports whether it was created.
func (l *txLedger) EnsureAccount(ctx context.Context, shopID uuid.UUID, phone, notes string) (*models.CreditAccount, bool, error) {
	normalized, err := normalizePhone(phone)
	if err != nil {
		return nil, false, err
	}
	repo := l.svc.repo.WithTx(l.tx)
	account, err := repo.FindAccountByPhone(ctx, shopID, normalized)
	if err == nil {
		return account, false, nil
	}
	if !isNotFound(err) {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load credit account")
	}

	account = &models.CreditAccount{
		ShopID:            shopID,
		CustomerPhone:     normalized,
		CustomerNickname:  "Customer-" + normalized,
		TotalCreditAmount: decimal.Zero,
		TotalPaidAmount:   decimal.Zero,
		CurrentBalance:    decimal.Zero,
		CreditLimit:       decimal.Zero,
		Status:            enums.CreditAccountActive,
		Notes:             trimmedOrNil(&notes),
	}
	if err := repo.CreateAccount(ctx, account); err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "auto-create credit account")
	}
	return account, true, nil
}

func (l *txLedger) AddCredit(ctx context.Context, actor authz.Actor, input PostingInput) (*PostingResult, error) {
	if err := validatePosting(input); err != nil {
		return nil, err
	}
	return l.svc.post(ctx, l.tx, actor, enums.CreditTxnCredit, input)
}

// checkLimit rejects a credit that would take the balance past a set limit.
func checkLimit(account *models.CreditAccount, amount decimal.Decimal) error {
	if !account.HasLimit() {
		return nil
	}
	next := account.CurrentBalance.Add(amount)
	if next.LessThanOrEqual(account.CreditLimit) {
		return nil
	}
	available := account.CreditLimit.Sub(account.CurrentBalance)
	if available.IsNegative() {
		available = decimal.Zero
	}
	return pkgerrors.New(pkgerrors.CodeStateConflict, "credit limit exceeded").WithDetails(map[string]any{
		"currentBalance": account.CurrentBalance,
		"creditLimit":    account.CreditLimit,
		"requested":      amount,
		"available":      available,
		"shortfall":      next.Sub(account.CreditLimit),
	})
}

func validatePosting(input PostingInput) error {
	if input.ShopID == uuid.Nil || input.AccountID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "shop and account are required")
	}
	if !input.Amount.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount must be greater than zero")
	}
	if input.Amount.GreaterThan(maxPostingAmount) {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "amount cannot exceed %s", maxPostingAmount.StringFixed(2))
	}
	if !input.Amount.Equal(input.Amount.Round(2)) {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount supports at most two decimal places")
	}
	if input.Remarks != nil && len(*input.Remarks) > maxRemarksLen {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "remarks cannot exceed %d characters", maxRemarksLen)
	}
	return nil
}

func validateLimit(limit decimal.Decimal) error {
	if limit.IsNegative() || limit.GreaterThan(maxCreditLimit) {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "credit limit must be between 0 and %s", maxCreditLimit.StringFixed(2))
	}
	return nil
}

func normalizePhone(phone string) (string, error) {
	trimmed := strings.TrimSpace(phone)
	if len(trimmed) < minPhoneLen || len(trimmed) > maxPhoneLen {
		return "", pkgerrors.Newf(pkgerrors.CodeValidation, "customer phone must be %d to %d characters", minPhoneLen, maxPhoneLen)
	}
	return trimmed, nil
}

func customerPhone(actor authz.Actor) (string, error) {
	if err := actor.Validate(); err != nil {
		return "", err
	}
	phone := actor.VerifiedPhone()
	if phone == "" {
		return "", pkgerrors.New(pkgerrors.CodeForbidden, "verified phone required")
	}
	return phone, nil
}

func accountLoadError(err error) error {
	if isNotFound(err) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "credit account not found")
	}
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load credit account")
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
