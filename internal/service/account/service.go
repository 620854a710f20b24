// Package account implements the account service rules: store-assigned ids,
// owner-scoped lookups, and balance mutations bounded at zero.
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/govalues/decimal"

	"github.com/tinoosan/accounts/internal/accounts"
	"github.com/tinoosan/accounts/internal/errs"
)

// Repo defines read operations needed by the service.
type Repo interface {
	GetAccount(ctx context.Context, id int64) (accounts.Account, error)
	ListAccountsByOwner(ctx context.Context, ownerID string) ([]accounts.Account, error)
	ListAccountsByOwnerAndType(ctx context.Context, ownerID string, t accounts.AccountType) ([]accounts.Account, error)
}

// Writer defines write operations needed by the service.
type Writer interface {
	// SaveAccount upserts: id 0 creates with a fresh id and creation date,
	// otherwise the stored record is fully replaced. A non-zero Version is
	// compared against the stored one; errs.ErrConflict on mismatch.
	SaveAccount(ctx context.Context, a accounts.Account) (accounts.Account, error)
}

// Service exposes account lookups, the general save path, and the two
// balance mutations.
type Service interface {
	FindAccount(ctx context.Context, id int64) (accounts.Account, error)
	FindAccounts(ctx context.Context, ownerID string) ([]accounts.Account, error)
	FindAccountsByType(ctx context.Context, ownerID string, t accounts.AccountType) ([]accounts.Account, error)
	ValidateSave(a accounts.Account) error
	SaveAccount(ctx context.Context, a accounts.Account) (int64, error)
	IncreaseBalance(ctx context.Context, id int64, amount decimal.Decimal) (decimal.Decimal, accounts.Outcome, error)
	DecreaseBalance(ctx context.Context, id int64, amount decimal.Decimal) (decimal.Decimal, accounts.Outcome, error)
}

type service struct {
	repo   Repo
	writer Writer
}

func New(repo Repo, writer Writer) Service { return &service{repo: repo, writer: writer} }

// maxSaveAttempts bounds the read-modify-write retry loop on version conflicts.
const maxSaveAttempts = 3

func (s *service) FindAccount(ctx context.Context, id int64) (accounts.Account, error) {
	if id <= 0 {
		return accounts.Account{}, errs.ErrInvalid
	}
	return s.repo.GetAccount(ctx, id)
}

func (s *service) FindAccounts(ctx context.Context, ownerID string) ([]accounts.Account, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, errs.ErrInvalid
	}
	return s.repo.ListAccountsByOwner(ctx, ownerID)
}

func (s *service) FindAccountsByType(ctx context.Context, ownerID string, t accounts.AccountType) ([]accounts.Account, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, errs.ErrInvalid
	}
	if !t.Valid() {
		return nil, fmt.Errorf("%w: unknown account type %q", errs.ErrInvalid, string(t))
	}
	return s.repo.ListAccountsByOwnerAndType(ctx, ownerID, t)
}

// ValidateSave checks the shape of an account before it reaches the store.
// Balances are trusted as given; only the mutation operations enforce the
// non-negative rule.
func (s *service) ValidateSave(a accounts.Account) error {
	if strings.TrimSpace(a.OwnerID) == "" {
		return fmt.Errorf("%w: owner_id is required", errs.ErrInvalid)
	}
	if !a.Type.Valid() {
		return fmt.Errorf("%w: unknown account type %q", errs.ErrInvalid, string(a.Type))
	}
	return nil
}

// SaveAccount is the general create/replace path. It delegates to the store
// and returns the resulting id.
func (s *service) SaveAccount(ctx context.Context, a accounts.Account) (int64, error) {
	if err := s.ValidateSave(a); err != nil {
		return 0, err
	}
	saved, err := s.writer.SaveAccount(ctx, a)
	if err != nil {
		return 0, err
	}
	return saved.ID, nil
}

// IncreaseBalance credits amount onto the account. Non-positive amounts are
// rejected with the unchanged balance and no write.
func (s *service) IncreaseBalance(ctx context.Context, id int64, amount decimal.Decimal) (decimal.Decimal, accounts.Outcome, error) {
	return s.mutateBalance(ctx, id, func(balance decimal.Decimal) (decimal.Decimal, bool, error) {
		if !amount.IsPos() {
			return balance, false, nil
		}
		next, err := balance.Add(amount)
		if err != nil {
			return balance, false, fmt.Errorf("%w: %v", errs.ErrUnprocessable, err)
		}
		return next, true, nil
	})
}

// DecreaseBalance debits amount from the account. Debits that would drive the
// balance below zero are rejected with the unchanged balance and no write.
func (s *service) DecreaseBalance(ctx context.Context, id int64, amount decimal.Decimal) (decimal.Decimal, accounts.Outcome, error) {
	return s.mutateBalance(ctx, id, func(balance decimal.Decimal) (decimal.Decimal, bool, error) {
		if !amount.IsPos() {
			return balance, false, nil
		}
		next, err := balance.Sub(amount)
		if err != nil {
			return balance, false, fmt.Errorf("%w: %v", errs.ErrUnprocessable, err)
		}
		if next.IsNeg() {
			return balance, false, nil
		}
		return next, true, nil
	})
}

// mutateBalance runs the read-modify-write loop shared by both mutations.
// apply returns the new balance and whether the mutation is accepted; a
// rejected mutation never writes. Version conflicts from the store trigger a
// re-read, bounded by maxSaveAttempts.
func (s *service) mutateBalance(ctx context.Context, id int64, apply func(decimal.Decimal) (decimal.Decimal, bool, error)) (decimal.Decimal, accounts.Outcome, error) {
	if id <= 0 {
		return decimal.Decimal{}, "", errs.ErrInvalid
	}
	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		acc, err := s.repo.GetAccount(ctx, id)
		if err != nil {
			return decimal.Decimal{}, "", err
		}
		next, accepted, err := apply(acc.Balance)
		if err != nil {
			return decimal.Decimal{}, "", err
		}
		if !accepted {
			return acc.Balance, accounts.OutcomeRejected, nil
		}
		acc.Balance = next
		if _, err := s.writer.SaveAccount(ctx, acc); err != nil {
			if errors.Is(err, errs.ErrConflict) {
				continue
			}
			return decimal.Decimal{}, "", err
		}
		return next, accounts.OutcomeAccepted, nil
	}
	return decimal.Decimal{}, "", errs.ErrConflict
}
