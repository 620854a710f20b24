package accounts

import (
	"time"

	"github.com/govalues/decimal"
)

// AccountType enumerates the closed set of account classifications.
type AccountType string

const (
	// AccountTypeCurrent is a day-to-day spending account.
	AccountTypeCurrent AccountType = "CURRENT"
	// AccountTypeSavings is an interest-bearing savings account.
	AccountTypeSavings AccountType = "SAVINGS"
)

// Valid reports whether t is one of the known account types.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeCurrent, AccountTypeSavings:
		return true
	}
	return false
}

// Outcome is the result of a balance mutation attempt. Rejections are normal
// results the caller branches on, not errors.
type Outcome string

const (
	// OutcomeAccepted means the mutation was applied and persisted.
	OutcomeAccepted Outcome = "ACCEPTED"
	// OutcomeRejected means the mutation violated a business rule and no
	// write happened.
	OutcomeRejected Outcome = "REJECTED"
)

// Account is a user's stored-value record with a running balance.
type Account struct {
	// ID is assigned by the store on first save and never changes.
	ID      int64
	OwnerID string
	Type    AccountType
	// CreationDate is set by the store on first save.
	CreationDate time.Time
	// OpenBalance is the balance snapshot taken at creation.
	OpenBalance decimal.Decimal
	// Balance is the running balance; committed mutations keep it >= 0.
	Balance decimal.Decimal
	// Version is the optimistic-concurrency token maintained by the store.
	// Zero on a save means "no version check".
	Version int64
}
