package credit

import (
	creditdto "github.com/angelmondragon/shoptab-backend/api/controllers/credit/dto"
	creditsvc "github.com/angelmondragon/shoptab-backend/internal/credit"
	"github.com/angelmondragon/shoptab-backend/pkg/db/models"
)

func newAccount(record models.CreditAccount) creditdto.Account {
	return creditdto.Account{
		ID:                record.ID,
		ShopID:            record.ShopID,
		CustomerPhone:     record.CustomerPhone,
		CustomerNickname:  record.CustomerNickname,
		CustomerName:      record.CustomerName,
		TotalCreditAmount: record.TotalCreditAmount,
		TotalPaidAmount:   record.TotalPaidAmount,
		CurrentBalance:    record.CurrentBalance,
		CreditLimit:       record.CreditLimit,
		AvailableCredit:   record.AvailableCredit(),
		Status:            record.Status,
		Notes:             record.Notes,
		LastCreditDate:    record.LastCreditDate,
		LastPaymentDate:   record.LastPaymentDate,
		CreatedAt:         record.CreatedAt,
		UpdatedAt:         record.UpdatedAt,
	}
}

func newAccounts(records []models.CreditAccount) []creditdto.Account {
	out := make([]creditdto.Account, 0, len(records))
	for _, record := range records {
		out = append(out, newAccount(record))
	}
	return out
}

func newTransaction(record models.CreditTransaction) creditdto.Transaction {
	return creditdto.Transaction{
		ID:                      record.ID,
		CreditAccountID:         record.CreditAccountID,
		ShopID:                  record.ShopID,
		TransactionType:         record.TransactionType,
		TransactionSource:       record.TransactionSource,
		Amount:                  record.Amount,
		Remarks:                 record.Remarks,
		OrderID:                 record.OrderID,
		BalanceAfterTransaction: record.BalanceAfterTransaction,
		Metadata:                record.Metadata,
		CreatedAt:               record.CreatedAt,
	}
}

func newTransactions(records []models.CreditTransaction) []creditdto.Transaction {
	out := make([]creditdto.Transaction, 0, len(records))
	for _, record := range records {
		out = append(out, newTransaction(record))
	}
	return out
}

func newAccountDetail(detail *creditsvc.AccountDetail) creditdto.AccountDetail {
	return creditdto.AccountDetail{
		Account:            newAccount(detail.Account),
		RecentTransactions: newTransactions(detail.RecentTransactions),
	}
}

func newPosting(result *creditsvc.PostingResult) creditdto.Posting {
	return creditdto.Posting{
		Account:     newAccount(result.Account),
		Transaction: newTransaction(result.Transaction),
	}
}

func newAccountList(list *creditsvc.AccountList) creditdto.AccountList {
	return creditdto.AccountList{
		Accounts: newAccounts(list.Accounts),
		Total:    list.Total,
		Limit:    list.Limit,
		Offset:   list.Offset,
	}
}

func newTransactionList(list *creditsvc.TransactionList) creditdto.TransactionList {
	return creditdto.TransactionList{
		Transactions: newTransactions(list.Transactions),
		Total:        list.Total,
		Limit:        list.Limit,
		Offset:       list.Offset,
	}
}

func newSummary(summary *creditsvc.Summary) creditdto.Summary {
	return creditdto.Summary{
		TotalAccounts:           summary.TotalAccounts,
		ActiveAccounts:          summary.ActiveAccounts,
		TotalCreditGiven:        summary.TotalCreditGiven,
		TotalPaymentsReceived:   summary.TotalPaymentsReceived,
		TotalOutstandingBalance: summary.TotalOutstandingBalance,
		RecentTransactions:      newTransactions(summary.RecentTransactions),
	}
}
