package credit

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/shoptab-backend/internal/repo"
	"github.com/angelmondragon/shoptab-backend/pkg/db/models"
	"github.com/angelmondragon/shoptab-backend/pkg/enums"
)

// Repository persists credit accounts and their immutable transactions.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateAccount(ctx context.Context, account *models.CreditAccount) error
	FindAccount(ctx context.Context, shopID, accountID uuid.UUID) (*models.CreditAccount, error)
	FindAccountForUpdate(ctx context.Context, shopID, accountID uuid.UUID) (*models.CreditAccount, error)
	FindAccountByPhone(ctx context.Context, shopID uuid.UUID, phone string) (*models.CreditAccount, error)
	ListAccounts(ctx context.Context, shopID uuid.UUID, filters AccountFilters) ([]models.CreditAccount, int64, error)
	ListAccountsByPhone(ctx context.Context, phone string) ([]models.CreditAccount, error)
	UpdateAccount(ctx context.Context, accountID uuid.UUID, updates map[string]any) error
	SaveBalances(ctx context.Context, account *models.CreditAccount) error
	CreateTransaction(ctx context.Context, txn *models.CreditTransaction) error
	OrderPosted(ctx context.Context, orderID uuid.UUID) (bool, error)
	OrderBelongsToShop(ctx context.Context, orderID, shopID uuid.UUID) (bool, error)
	ListTransactions(ctx context.Context, shopID uuid.UUID, filters TransactionFilters) ([]models.CreditTransaction, int64, error)
	ListTransactionsByPhone(ctx context.Context, phone string, limit, offset int) ([]models.CreditTransaction, int64, error)
	AccountTransactions(ctx context.Context, accountID uuid.UUID) ([]models.CreditTransaction, error)
	RecentTransactions(ctx context.Context, shopID uuid.UUID, accountID *uuid.UUID, limit int) ([]models.CreditTransaction, error)
	Summary(ctx context.Context, shopID uuid.UUID) (*Summary, error)
}

type repository struct {
	base repo.Base
}

// NewRepository returns a credit repository bound to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{base: r.base.WithTx(tx)}
}

func (r *repository) CreateAccount(ctx context.Context, account *models.CreditAccount) error {
	return r.base.DB(ctx).Create(account).Error
}

func (r *repository) FindAccount(ctx context.Context, shopID, accountID uuid.UUID) (*models.CreditAccount, error) {
	var account models.CreditAccount
	if err := r.base.DB(ctx).
		Where("id = ? AND shop_id = ?", accountID, shopID).
		First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// FindAccountForUpdate takes the row lock that serializes postings.
func (r *repository) FindAccountForUpdate(ctx context.Context, shopID, accountID uuid.UUID) (*models.CreditAccount, error) {
	var account models.CreditAccount
	if err := r.base.Locked(ctx).
		Where("id = ? AND shop_id = ?", accountID, shopID).
		First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *repository) FindAccountByPhone(ctx context.Context, shopID uuid.UUID, phone string) (*models.CreditAccount, error) {
	var account models.CreditAccount
	if err := r.base.DB(ctx).
		Where("shop_id = ? AND customer_phone = ?", shopID, phone).
		First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *repository) ListAccounts(ctx context.Context, shopID uuid.UUID, filters AccountFilters) ([]models.CreditAccount, int64, error) {
	q := r.base.DB(ctx).Model(&models.CreditAccount{}).Where("shop_id = ?", shopID)
	if filters.Status != nil {
		q = q.Where("status = ?", *filters.Status)
	}
	if search := strings.TrimSpace(filters.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		q = q.Where("(customer_phone LIKE ? OR LOWER(customer_nickname) LIKE ? OR LOWER(COALESCE(customer_name, '')) LIKE ?)", like, like, like)
	}

	var accounts []models.CreditAccount
	total, err := repo.Page(q, accountOrder(filters.Sort), filters.Limit, filters.Offset, &accounts)
	if err != nil {
		return nil, 0, err
	}
	return accounts, total, nil
}

func accountOrder(sort string) string {
	switch sort {
	case "balance":
		return "current_balance DESC, created_at DESC"
	case "nickname":
		return "customer_nickname ASC, created_at DESC"
	case "last_credit":
		return "last_credit_date DESC, created_at DESC"
	default:
		return "created_at DESC"
	}
}

func (r *repository) ListAccountsByPhone(ctx context.Context, phone string) ([]models.CreditAccount, error) {
	var accounts []models.CreditAccount
	if err := r.base.DB(ctx).
		Where("customer_phone = ?", phone).
		Order("created_at DESC").
		Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *repository) UpdateAccount(ctx context.Context, accountID uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.base.DB(ctx).Model(&models.CreditAccount{}).Where("id = ?", accountID).Updates(updates).Error
}

// SaveBalances writes the running totals computed under the row lock.
func (r *repository) SaveBalances(ctx context.Context, account *models.CreditAccount) error {
	return r.base.DB(ctx).Model(&models.CreditAccount{}).
		Where("id = ?", account.ID).
		Updates(map[string]any{
			"total_credit_amount": account.TotalCreditAmount,
			"total_paid_amount":   account.TotalPaidAmount,
			"current_balance":     account.CurrentBalance,
			"last_credit_date":    account.LastCreditDate,
			"last_payment_date":   account.LastPaymentDate,
		}).Error
}

func (r *repository) CreateTransaction(ctx context.Context, txn *models.CreditTransaction) error {
	return r.base.DB(ctx).Create(txn).Error
}

func (r *repository) OrderPosted(ctx context.Context, orderID uuid.UUID) (bool, error) {
	var count int64
	if err := r.base.DB(ctx).Model(&models.CreditTransaction{}).
		Where("order_id = ?", orderID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) OrderBelongsToShop(ctx context.Context, orderID, shopID uuid.UUID) (bool, error) {
	var count int64
	if err := r.base.DB(ctx).Model(&models.Order{}).
		Where("id = ? AND shop_id = ?", orderID, shopID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) ListTransactions(ctx context.Context, shopID uuid.UUID, filters TransactionFilters) ([]models.CreditTransaction, int64, error) {
	q := r.base.DB(ctx).Model(&models.CreditTransaction{}).Where("credit_transactions.shop_id = ?", shopID)
	if filters.AccountID != nil {
		q = q.Where("credit_transactions.credit_account_id = ?", *filters.AccountID)
	}
	if filters.Type != nil {
		q = q.Where("credit_transactions.transaction_type = ?", *filters.Type)
	}
	if filters.Source != nil {
		q = q.Where("credit_transactions.transaction_source = ?", *filters.Source)
	}
	if phone := strings.TrimSpace(filters.Phone); phone != "" {
		q = q.Joins("JOIN credit_accounts ON credit_accounts.id = credit_transactions.credit_account_id").
			Where("credit_accounts.customer_phone = ?", phone)
	}

	var txns []models.CreditTransaction
	total, err := repo.Page(q, "credit_transactions.created_at DESC", filters.Limit, filters.Offset, &txns)
	if err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}

func (r *repository) ListTransactionsByPhone(ctx context.Context, phone string, limit, offset int) ([]models.CreditTransaction, int64, error) {
	q := r.base.DB(ctx).Model(&models.CreditTransaction{}).
		Joins("JOIN credit_accounts ON credit_accounts.id = credit_transactions.credit_account_id").
		Where("credit_accounts.customer_phone = ?", phone)

	var txns []models.CreditTransaction
	total, err := repo.Page(q, "credit_transactions.created_at DESC", limit, offset, &txns)
	if err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}

// AccountTransactions returns every posting in the order it was written.
func (r *repository) AccountTransactions(ctx context.Context, accountID uuid.UUID) ([]models.CreditTransaction, error) {
	var txns []models.CreditTransaction
	if err := r.base.DB(ctx).
		Where("credit_account_id = ?", accountID).
		Order("created_at ASC").
		Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}

func (r *repository) RecentTransactions(ctx context.Context, shopID uuid.UUID, accountID *uuid.UUID, limit int) ([]models.CreditTransaction, error) {
	q := r.base.DB(ctx).Where("shop_id = ?", shopID)
	if accountID != nil {
		q = q.Where("credit_account_id = ?", *accountID)
	}
	var txns []models.CreditTransaction
	if err := q.Order("created_at DESC").Limit(limit).Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}

type summaryRow struct {
	TotalAccounts  int64
	ActiveAccounts int64
	TotalCredit    decimal.Decimal
	TotalPaid      decimal.Decimal
	Outstanding    decimal.Decimal
}

func (r *repository) Summary(ctx context.Context, shopID uuid.UUID) (*Summary, error) {
	var row summaryRow
	if err := r.base.DB(ctx).Model(&models.CreditAccount{}).
		Select(`COUNT(*) AS total_accounts,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS active_accounts,
			COALESCE(SUM(total_credit_amount), 0) AS total_credit,
			COALESCE(SUM(total_paid_amount), 0) AS total_paid,
			COALESCE(SUM(current_balance), 0) AS outstanding`, enums.CreditAccountActive).
		Where("shop_id = ?", shopID).
		Scan(&row).Error; err != nil {
		return nil, err
	}
	return &Summary{
		TotalAccounts:           row.TotalAccounts,
		ActiveAccounts:          row.ActiveAccounts,
		TotalCreditGiven:        row.TotalCredit,
		TotalPaymentsReceived:   row.TotalPaid,
		TotalOutstandingBalance: row.Outstanding,
	}, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
