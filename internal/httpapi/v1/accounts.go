package v1

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	chi "github.com/go-chi/chi/v5"

	"github.com/tinoosan/accounts/internal/accounts"
	"github.com/tinoosan/accounts/internal/errs"
)

// getAccount handles GET /v1/accounts/{id}
func (s *Server) getAccount(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(w, "invalid account id")
		return
	}
	acc, err := s.svc.FindAccount(r.Context(), id)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			notFound(w)
		} else {
			writeErr(w, http.StatusInternalServerError, "failed to load account", "")
		}
		return
	}
	toJSON(w, http.StatusOK, toAccountResponse(acc))
}

// listAccounts handles GET /v1/accounts, optionally filtered by type. The
// owner is resolved by the validation middleware: the authenticated
// principal when auth is on, the owner_id query param otherwise.
func (s *Server) listAccounts(w http.ResponseWriter, r *http.Request) {
	query, _ := r.Context().Value(ctxKeyListAccounts).(listAccountsQuery)
	var (
		accs []accounts.Account
		err  error
	)
	if query.Type != nil {
		accs, err = s.svc.FindAccountsByType(r.Context(), query.OwnerID, *query.Type)
	} else {
		accs, err = s.svc.FindAccounts(r.Context(), query.OwnerID)
	}
	if err != nil {
		if errors.Is(err, errs.ErrInvalid) {
			badRequest(w, err.Error())
		} else {
			writeErr(w, http.StatusInternalServerError, "failed to list accounts", "")
		}
		return
	}
	resp := listAccountsResponse{Items: make([]accountResponse, 0, len(accs))}
	for _, a := range accs {
		resp.Items = append(resp.Items, toAccountResponse(a))
	}
	toJSON(w, http.StatusOK, resp)
}

// postAccount handles POST /v1/accounts: the general create/replace path.
// Responds 201 with a Location header and the resulting id.
func (s *Server) postAccount(w http.ResponseWriter, r *http.Request) {
	a, _ := r.Context().Value(ctxKeyPostAccount).(accounts.Account)
	id, err := s.svc.SaveAccount(r.Context(), a)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrNotFound):
			notFound(w)
		case errors.Is(err, errs.ErrConflict):
			conflict(w, "version conflict")
		case errors.Is(err, errs.ErrInvalid):
			badRequest(w, err.Error())
		default:
			writeErr(w, http.StatusInternalServerError, "failed to save account", "")
		}
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/v1/accounts/%d", id))
	toJSON(w, http.StatusCreated, createAccountResponse{ID: id})
}
