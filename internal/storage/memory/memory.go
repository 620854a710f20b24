package memory

// Package memory provides a simple in-memory implementation used for
// development and tests. It keeps code paths easy to follow while allowing us
// to plug in a real DB later.
import (
	"context"
	"sync"
	"time"

	"github.com/tinoosan/accounts/internal/accounts"
	"github.com/tinoosan/accounts/internal/errs"
)

// Store is an in-memory implementation of the repository+writer used by the
// service. It is guarded by an RWMutex for concurrent reads/writes.
type Store struct {
	mu       sync.RWMutex
	accounts map[int64]accounts.Account
	// Per-owner insertion order of account ids, so list results are stable.
	idsByOwner map[string][]int64
	nextID     int64
}

// New constructs an empty in-memory store.
func New() *Store {
	return &Store{
		accounts:   make(map[int64]accounts.Account),
		idsByOwner: make(map[string][]int64),
	}
}

// Seed inserts an account as-is for local dev/tests, assigning an id when
// unset. It bypasses version bookkeeping beyond initializing Version to 1.
func (s *Store) Seed(a accounts.Account) accounts.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == 0 {
		s.nextID++
		a.ID = s.nextID
	} else if a.ID > s.nextID {
		s.nextID = a.ID
	}
	if a.CreationDate.IsZero() {
		a.CreationDate = time.Now().UTC()
	}
	if a.Version == 0 {
		a.Version = 1
	}
	s.insertLocked(a)
	return a
}

// Reset drops all state.
func (s *Store) Reset() {
	s.mu.Lock()
	s.accounts = map[int64]accounts.Account{}
	s.idsByOwner = map[string][]int64{}
	s.nextID = 0
	s.mu.Unlock()
}

// GetAccount returns an account by id.
func (s *Store) GetAccount(_ context.Context, id int64) (accounts.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	if !ok {
		return accounts.Account{}, errs.ErrNotFound
	}
	return a, nil
}

// ListAccountsByOwner returns the owner's accounts in insertion order.
func (s *Store) ListAccountsByOwner(_ context.Context, ownerID string) ([]accounts.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.idsByOwner[ownerID]
	out := make([]accounts.Account, 0, len(ids))
	for _, id := range ids {
		if a, ok := s.accounts[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

// ListAccountsByOwnerAndType filters the owner's accounts by type.
func (s *Store) ListAccountsByOwnerAndType(_ context.Context, ownerID string, t accounts.AccountType) ([]accounts.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.idsByOwner[ownerID]
	out := make([]accounts.Account, 0, len(ids))
	for _, id := range ids {
		if a, ok := s.accounts[id]; ok && a.Type == t {
			out = append(out, a)
		}
	}
	return out, nil
}

// SaveAccount upserts. ID 0 creates with a fresh id, creation date and
// Version 1; otherwise the stored record is fully replaced. A non-zero
// incoming Version must match the stored one (errs.ErrConflict on mismatch).
func (s *Store) SaveAccount(_ context.Context, a accounts.Account) (accounts.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == 0 {
		s.nextID++
		a.ID = s.nextID
		a.CreationDate = time.Now().UTC()
		a.Version = 1
		s.insertLocked(a)
		return a, nil
	}
	cur, ok := s.accounts[a.ID]
	if !ok {
		return accounts.Account{}, errs.ErrNotFound
	}
	if a.Version != 0 && a.Version != cur.Version {
		return accounts.Account{}, errs.ErrConflict
	}
	// creation date is immutable; keep the stored one if the caller lost it
	if a.CreationDate.IsZero() {
		a.CreationDate = cur.CreationDate
	}
	a.Version = cur.Version + 1
	if cur.OwnerID != a.OwnerID {
		s.removeOwnerIndexLocked(cur.OwnerID, a.ID)
		s.idsByOwner[a.OwnerID] = append(s.idsByOwner[a.OwnerID], a.ID)
	}
	s.accounts[a.ID] = a
	return a, nil
}

// insertLocked stores a and appends it to the owner index. Caller holds s.mu.
func (s *Store) insertLocked(a accounts.Account) {
	s.accounts[a.ID] = a
	s.idsByOwner[a.OwnerID] = append(s.idsByOwner[a.OwnerID], a.ID)
}

// removeOwnerIndexLocked drops id from an owner's index. Caller holds s.mu.
func (s *Store) removeOwnerIndexLocked(ownerID string, id int64) {
	ids := s.idsByOwner[ownerID]
	for i, v := range ids {
		if v == id {
			s.idsByOwner[ownerID] = append(ids[:i], ids[i+1:]...)
			return
		}
	}
}
