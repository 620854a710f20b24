package postgres

// Package postgres provides a pgx-backed storage implementation that satisfies
// the repository and writer interfaces used by the HTTP/API and services.
//
// It is intentionally small and explicit. Migrations that create the expected
// schema live under db/migrations. Balances travel as text on the wire
// (numeric::text out, $n::numeric in) so exact decimal digits survive the
// round trip.

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/govalues/decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tinoosan/accounts/internal/accounts"
	"github.com/tinoosan/accounts/internal/errs"
)

// Store holds a pgx connection pool and implements the read/write interfaces
// used across the service layer. All methods are safe for concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

// Open establishes a pgx pool using the provided connection string.
func Open(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// Close releases the underlying pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ready pings the pool to verify connectivity.
func (s *Store) Ready(ctx context.Context) error { return s.pool.Ping(ctx) }

// SeedDev inserts one owner with a CURRENT and a SAVINGS account for quick
// local testing. Fresh ids every run.
func (s *Store) SeedDev(ctx context.Context) (string, []accounts.Account, error) {
	ownerID := uuid.NewString()
	opening := decimal.MustParse("100.00")
	current := accounts.Account{OwnerID: ownerID, Type: accounts.AccountTypeCurrent, OpenBalance: opening, Balance: opening}
	savings := accounts.Account{OwnerID: ownerID, Type: accounts.AccountTypeSavings, OpenBalance: opening, Balance: opening}
	out := make([]accounts.Account, 0, 2)
	for _, a := range []accounts.Account{current, savings} {
		created, err := s.SaveAccount(ctx, a)
		if err != nil {
			return "", nil, err
		}
		out = append(out, created)
	}
	return ownerID, out, nil
}

const accountColumns = `id, owner_id, type, creation_date, open_balance::text, balance::text, version`

// scanAccount maps one row onto the domain entity, parsing balances exactly.
func scanAccount(row pgx.Row) (accounts.Account, error) {
	var a accounts.Account
	var open, balance string
	if err := row.Scan(&a.ID, &a.OwnerID, &a.Type, &a.CreationDate, &open, &balance, &a.Version); err != nil {
		return accounts.Account{}, err
	}
	var err error
	if a.OpenBalance, err = decimal.Parse(open); err != nil {
		return accounts.Account{}, err
	}
	if a.Balance, err = decimal.Parse(balance); err != nil {
		return accounts.Account{}, err
	}
	return a, nil
}

// GetAccount fetches a single account by id.
func (s *Store) GetAccount(ctx context.Context, id int64) (accounts.Account, error) {
	row := s.pool.QueryRow(ctx, `
        select `+accountColumns+`
        from accounts
        where id = $1
    `, id)
	a, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return accounts.Account{}, errs.ErrNotFound
	}
	if err != nil {
		return accounts.Account{}, err
	}
	return a, nil
}

// ListAccountsByOwner returns all accounts for an owner in creation order.
func (s *Store) ListAccountsByOwner(ctx context.Context, ownerID string) ([]accounts.Account, error) {
	rows, err := s.pool.Query(ctx, `
        select `+accountColumns+`
        from accounts
        where owner_id = $1
        order by id asc
    `, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAccounts(rows)
}

// ListAccountsByOwnerAndType returns the owner's accounts of the given type.
func (s *Store) ListAccountsByOwnerAndType(ctx context.Context, ownerID string, t accounts.AccountType) ([]accounts.Account, error) {
	rows, err := s.pool.Query(ctx, `
        select `+accountColumns+`
        from accounts
        where owner_id = $1 and type = $2
        order by id asc
    `, ownerID, string(t))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAccounts(rows)
}

func collectAccounts(rows pgx.Rows) ([]accounts.Account, error) {
	out := make([]accounts.Account, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// SaveAccount upserts. ID 0 inserts a row with a bigserial id, a server-side
// creation date and Version 1; otherwise the row is fully replaced. A
// non-zero incoming Version must match the stored one, which makes the
// update a compare-and-swap (errs.ErrConflict on mismatch).
func (s *Store) SaveAccount(ctx context.Context, a accounts.Account) (accounts.Account, error) {
	if a.ID == 0 {
		row := s.pool.QueryRow(ctx, `
            insert into accounts (owner_id, type, creation_date, open_balance, balance, version)
            values ($1, $2, now(), $3::numeric, $4::numeric, 1)
            returning id, creation_date
        `, a.OwnerID, string(a.Type), a.OpenBalance.String(), a.Balance.String())
		if err := row.Scan(&a.ID, &a.CreationDate); err != nil {
			return accounts.Account{}, err
		}
		a.Version = 1
		return a, nil
	}
	var row pgx.Row
	if a.Version != 0 {
		row = s.pool.QueryRow(ctx, `
            update accounts
            set owner_id=$1, type=$2, open_balance=$3::numeric, balance=$4::numeric, version=version+1
            where id=$5 and version=$6
            returning creation_date, version
        `, a.OwnerID, string(a.Type), a.OpenBalance.String(), a.Balance.String(), a.ID, a.Version)
	} else {
		row = s.pool.QueryRow(ctx, `
            update accounts
            set owner_id=$1, type=$2, open_balance=$3::numeric, balance=$4::numeric, version=version+1
            where id=$5
            returning creation_date, version
        `, a.OwnerID, string(a.Type), a.OpenBalance.String(), a.Balance.String(), a.ID)
	}
	err := row.Scan(&a.CreationDate, &a.Version)
	if errors.Is(err, pgx.ErrNoRows) {
		// Row missing or version raced; look again to tell the two apart.
		var exists bool
		if qerr := s.pool.QueryRow(ctx, `select exists(select 1 from accounts where id=$1)`, a.ID).Scan(&exists); qerr != nil {
			return accounts.Account{}, qerr
		}
		if exists {
			return accounts.Account{}, errs.ErrConflict
		}
		return accounts.Account{}, errs.ErrNotFound
	}
	if err != nil {
		return accounts.Account{}, err
	}
	return a, nil
}
