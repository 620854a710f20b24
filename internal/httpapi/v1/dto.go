package v1

import (
	"time"

	"github.com/tinoosan/accounts/internal/accounts"
)

type postAccountRequest struct {
	// ID is optional; a non-zero value replaces the stored record.
	ID          int64                `json:"id,omitempty"`
	OwnerID     string               `json:"owner_id"`
	Type        accounts.AccountType `json:"type"`
	OpenBalance string               `json:"open_balance"`
	Balance     string               `json:"balance"`
	Version     int64                `json:"version,omitempty"`
}

type createAccountResponse struct {
	ID int64 `json:"id"`
}

type accountResponse struct {
	ID           int64                `json:"id"`
	OwnerID      string               `json:"owner_id"`
	Type         accounts.AccountType `json:"type"`
	CreationDate time.Time            `json:"creation_date"`
	OpenBalance  string               `json:"open_balance"`
	Balance      string               `json:"balance"`
	Version      int64                `json:"version"`
}

func toAccountResponse(a accounts.Account) accountResponse {
	return accountResponse{
		ID:           a.ID,
		OwnerID:      a.OwnerID,
		Type:         a.Type,
		CreationDate: a.CreationDate,
		OpenBalance:  a.OpenBalance.String(),
		Balance:      a.Balance.String(),
		Version:      a.Version,
	}
}

// listAccountsQuery holds validated query params for GET /accounts.
type listAccountsQuery struct {
	OwnerID string
	// Type is nil when no type filter was requested.
	Type *accounts.AccountType
}

type listAccountsResponse struct {
	Items []accountResponse `json:"items"`
}

// Transaction direction values accepted by POST /accounts/{id}/transaction.
const (
	txTypeCredit = "credit"
	txTypeDebit  = "debit"
)

type transactionRequest struct {
	Type   string `json:"type"`
	Amount string `json:"amount"`
}

type transactionResponse struct {
	Balance string           `json:"balance"`
	Outcome accounts.Outcome `json:"outcome"`
}
