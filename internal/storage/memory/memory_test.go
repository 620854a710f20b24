package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/govalues/decimal"

	"github.com/tinoosan/accounts/internal/accounts"
	"github.com/tinoosan/accounts/internal/errs"
)

func TestSaveAccount_AssignsSequentialIDs(t *testing.T) {
	s := New()
	ctx := context.Background()

	a, err := s.SaveAccount(ctx, accounts.Account{OwnerID: "alice", Type: accounts.AccountTypeCurrent})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	b, _ := s.SaveAccount(ctx, accounts.Account{OwnerID: "alice", Type: accounts.AccountTypeSavings})
	if a.ID != 1 || b.ID != 2 {
		t.Fatalf("ids = %d, %d", a.ID, b.ID)
	}
	if a.CreationDate.IsZero() || a.Version != 1 {
		t.Fatalf("creation bookkeeping: date=%v version=%d", a.CreationDate, a.Version)
	}
}

func TestSaveAccount_VersionCAS(t *testing.T) {
	s := New()
	ctx := context.Background()

	a, _ := s.SaveAccount(ctx, accounts.Account{OwnerID: "alice", Type: accounts.AccountTypeCurrent, Balance: decimal.MustParse("10")})

	// stale version loses
	stale := a
	fresh := a
	fresh.Balance = decimal.MustParse("20")
	if _, err := s.SaveAccount(ctx, fresh); err != nil {
		t.Fatalf("fresh save: %v", err)
	}
	stale.Balance = decimal.MustParse("30")
	if _, err := s.SaveAccount(ctx, stale); !errors.Is(err, errs.ErrConflict) {
		t.Fatalf("stale save err = %v, want ErrConflict", err)
	}
	got, _ := s.GetAccount(ctx, a.ID)
	if got.Balance.Cmp(decimal.MustParse("20")) != 0 {
		t.Fatalf("balance = %s, want 20", got.Balance)
	}

	// version 0 skips the check
	stale.Version = 0
	if _, err := s.SaveAccount(ctx, stale); err != nil {
		t.Fatalf("unversioned replace: %v", err)
	}

	// unknown id
	if _, err := s.SaveAccount(ctx, accounts.Account{ID: 99, OwnerID: "x", Type: accounts.AccountTypeCurrent}); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("unknown id err = %v, want ErrNotFound", err)
	}
}

func TestListAccountsByOwner(t *testing.T) {
	s := New()
	ctx := context.Background()

	first := s.Seed(accounts.Account{OwnerID: "alice", Type: accounts.AccountTypeCurrent})
	second := s.Seed(accounts.Account{OwnerID: "alice", Type: accounts.AccountTypeSavings})
	s.Seed(accounts.Account{OwnerID: "bob", Type: accounts.AccountTypeCurrent})

	got, err := s.ListAccountsByOwner(ctx, "alice")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].ID != first.ID || got[1].ID != second.ID {
		t.Fatalf("unexpected list: %+v", got)
	}

	savings, _ := s.ListAccountsByOwnerAndType(ctx, "alice", accounts.AccountTypeSavings)
	if len(savings) != 1 || savings[0].ID != second.ID {
		t.Fatalf("unexpected savings list: %+v", savings)
	}

	none, err := s.ListAccountsByOwner(ctx, "carol")
	if err != nil || len(none) != 0 {
		t.Fatalf("expected empty list, got %v (err %v)", none, err)
	}
}

func TestGetAccount_NotFound(t *testing.T) {
	s := New()
	if _, err := s.GetAccount(context.Background(), 1); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
