package v1

import (
	"errors"
	"net/http"
	"strconv"

	chi "github.com/go-chi/chi/v5"
	"github.com/govalues/decimal"

	"github.com/tinoosan/accounts/internal/accounts"
	"github.com/tinoosan/accounts/internal/errs"
)

// postTransaction handles POST /v1/accounts/{id}/transaction. The payload
// encodes the direction (credit/debit); accepted mutations answer 200 with
// the new balance, business rejections answer 417 with the unchanged one.
func (s *Server) postTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(w, "invalid account id")
		return
	}
	req, _ := r.Context().Value(ctxKeyTransaction).(transactionRequest)
	// middleware guarantees the amount parses
	amount := decimal.MustParse(req.Amount)

	var (
		balance decimal.Decimal
		outcome accounts.Outcome
	)
	switch req.Type {
	case txTypeCredit:
		balance, outcome, err = s.svc.IncreaseBalance(r.Context(), id, amount)
	case txTypeDebit:
		balance, outcome, err = s.svc.DecreaseBalance(r.Context(), id, amount)
	}
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrNotFound):
			notFound(w)
		case errors.Is(err, errs.ErrConflict):
			conflict(w, "concurrent update, retry")
		case errors.Is(err, errs.ErrUnprocessable):
			unprocessable(w, err.Error(), "invalid_amount")
		case errors.Is(err, errs.ErrInvalid):
			badRequest(w, err.Error())
		default:
			writeErr(w, http.StatusInternalServerError, "failed to apply transaction", "")
		}
		return
	}
	status := http.StatusOK
	if outcome == accounts.OutcomeRejected {
		status = http.StatusExpectationFailed
	}
	toJSON(w, status, transactionResponse{Balance: balance.String(), Outcome: outcome})
}
