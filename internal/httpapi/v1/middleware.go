// Validation middlewares: parse and validate requests up front, stashing the
// typed result in the request context for the handler to use.
package v1

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/govalues/decimal"

	"github.com/tinoosan/accounts/internal/accounts"
)

type ctxKey string

const ctxKeyPostAccount ctxKey = "validatedPostAccount"
const ctxKeyListAccounts ctxKey = "validatedListAccounts"
const ctxKeyTransaction ctxKey = "validatedTransaction"

// validatePostAccount parses and validates POST /accounts body and stores the
// domain account.
func (s *Server) validatePostAccount() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !requireJSON(w, r) {
				return
			}
			var req postAccountRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				toJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON: " + err.Error()})
				return
			}
			a := accounts.Account{ID: req.ID, OwnerID: req.OwnerID, Type: req.Type, Version: req.Version}
			var err error
			if a.OpenBalance, err = parseBalance(req.OpenBalance); err != nil {
				unprocessable(w, "invalid open_balance", "invalid_amount")
				return
			}
			if a.Balance, err = parseBalance(req.Balance); err != nil {
				unprocessable(w, "invalid balance", "invalid_amount")
				return
			}
			if err := s.svc.ValidateSave(a); err != nil {
				toJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyPostAccount, a)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// validateListAccounts resolves the owner (principal first, then the
// owner_id query param) and the optional type filter for GET /accounts.
func (s *Server) validateListAccounts() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ownerID := principalFrom(r.Context())
			if ownerID == "" {
				ownerID = r.URL.Query().Get("owner_id")
			}
			if ownerID == "" {
				toJSON(w, http.StatusBadRequest, errorResponse{Error: "owner_id is required"})
				return
			}
			query := listAccountsQuery{OwnerID: ownerID}
			if raw := r.URL.Query().Get("type"); raw != "" {
				t := accounts.AccountType(raw)
				if !t.Valid() {
					toJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid type"})
					return
				}
				query.Type = &t
			}
			ctx := context.WithValue(r.Context(), ctxKeyListAccounts, query)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// validateTransaction parses POST /accounts/{id}/transaction body. Malformed
// amounts never reach the service.
func (s *Server) validateTransaction() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !requireJSON(w, r) {
				return
			}
			var req transactionRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				toJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON: " + err.Error()})
				return
			}
			switch req.Type {
			case txTypeCredit, txTypeDebit:
			default:
				toJSON(w, http.StatusBadRequest, errorResponse{Error: "type must be credit or debit"})
				return
			}
			if _, err := decimal.Parse(req.Amount); err != nil {
				unprocessable(w, "invalid amount", "invalid_amount")
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyTransaction, req)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// parseBalance parses an optional decimal field; empty means zero.
func parseBalance(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Decimal{}, nil
	}
	return decimal.Parse(raw)
}
