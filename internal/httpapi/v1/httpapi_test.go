package v1

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/govalues/decimal"

	"github.com/tinoosan/accounts/internal/accounts"
	"github.com/tinoosan/accounts/internal/storage/memory"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

type acctResp struct {
	ID           int64  `json:"id"`
	OwnerID      string `json:"owner_id"`
	Type         string `json:"type"`
	CreationDate string `json:"creation_date"`
	OpenBalance  string `json:"open_balance"`
	Balance      string `json:"balance"`
}

type txResp struct {
	Balance string `json:"balance"`
	Outcome string `json:"outcome"`
}

type errResp struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func setup(t *testing.T) (*memory.Store, http.Handler, string, accounts.Account) {
	t.Helper()
	store := memory.New()
	owner := uuid.NewString()
	current := store.Seed(accounts.Account{
		OwnerID:     owner,
		Type:        accounts.AccountTypeCurrent,
		OpenBalance: decimal.MustParse("100.00"),
		Balance:     decimal.MustParse("100.00"),
	})
	h := New(store, store, testLogger()).Handler()
	return store, h, owner, current
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func mustBalance(t *testing.T, raw, want string) {
	t.Helper()
	got, err := decimal.Parse(raw)
	if err != nil {
		t.Fatalf("parse balance %q: %v", raw, err)
	}
	if got.Cmp(decimal.MustParse(want)) != 0 {
		t.Fatalf("balance = %s, want %s", raw, want)
	}
}

func TestTransaction_CreditDebitScenario(t *testing.T) {
	_, h, _, acc := setup(t)
	path := "/v1/accounts/" + itoa64(acc.ID) + "/transaction"

	rec := doJSON(t, h, http.MethodPost, path, map[string]any{"type": "credit", "amount": "50.00"})
	if rec.Code != http.StatusOK {
		t.Fatalf("credit expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var tr txResp
	_ = json.Unmarshal(rec.Body.Bytes(), &tr)
	if tr.Outcome != "ACCEPTED" {
		t.Fatalf("outcome = %s", tr.Outcome)
	}
	mustBalance(t, tr.Balance, "150.00")

	// over-debit rejected, balance untouched
	rec = doJSON(t, h, http.MethodPost, path, map[string]any{"type": "debit", "amount": "200.00"})
	if rec.Code != http.StatusExpectationFailed {
		t.Fatalf("over-debit expected 417, got %d: %s", rec.Code, rec.Body.String())
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &tr)
	if tr.Outcome != "REJECTED" {
		t.Fatalf("outcome = %s", tr.Outcome)
	}
	mustBalance(t, tr.Balance, "150.00")

	// drain to zero
	rec = doJSON(t, h, http.MethodPost, path, map[string]any{"type": "debit", "amount": "150.00"})
	if rec.Code != http.StatusOK {
		t.Fatalf("debit expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &tr)
	mustBalance(t, tr.Balance, "0.00")

	// one cent too far
	rec = doJSON(t, h, http.MethodPost, path, map[string]any{"type": "debit", "amount": "0.01"})
	if rec.Code != http.StatusExpectationFailed {
		t.Fatalf("expected 417, got %d", rec.Code)
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &tr)
	mustBalance(t, tr.Balance, "0.00")
}

func TestTransaction_Validation(t *testing.T) {
	_, h, _, acc := setup(t)
	path := "/v1/accounts/" + itoa64(acc.ID) + "/transaction"

	// malformed amount never reaches the service
	rec := doJSON(t, h, http.MethodPost, path, map[string]any{"type": "credit", "amount": "NaN"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad amount expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
	var er errResp
	_ = json.Unmarshal(rec.Body.Bytes(), &er)
	if er.Code != "invalid_amount" {
		t.Fatalf("code = %s", er.Code)
	}

	rec = doJSON(t, h, http.MethodPost, path, map[string]any{"type": "transfer", "amount": "1.00"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad type expected 400, got %d", rec.Code)
	}

	// missing content type
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader([]byte(`{}`)))
	rec2 := httptest.NewRecorder()
	h.ServeHTTP(rec2, req)
	if rec2.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %d", rec2.Code)
	}

	// unknown account
	rec = doJSON(t, h, http.MethodPost, "/v1/accounts/999/transaction", map[string]any{"type": "credit", "amount": "1.00"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown account expected 404, got %d", rec.Code)
	}
}

func TestPostAccount_CreateAndGet(t *testing.T) {
	_, h, _, _ := setup(t)

	owner := uuid.NewString()
	rec := doJSON(t, h, http.MethodPost, "/v1/accounts", map[string]any{
		"owner_id":     owner,
		"type":         "SAVINGS",
		"open_balance": "25.00",
		"balance":      "25.00",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if loc := rec.Header().Get("Location"); loc == "" {
		t.Fatal("expected Location header")
	}
	var created struct {
		ID int64 `json:"id"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &created)
	if created.ID == 0 {
		t.Fatal("expected assigned id")
	}

	rec = doJSON(t, h, http.MethodGet, "/v1/accounts/"+itoa64(created.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get expected 200, got %d", rec.Code)
	}
	var ar acctResp
	_ = json.Unmarshal(rec.Body.Bytes(), &ar)
	if ar.OwnerID != owner || ar.Type != "SAVINGS" || ar.CreationDate == "" {
		t.Fatalf("unexpected account: %+v", ar)
	}
	mustBalance(t, ar.Balance, "25.00")

	// validation failures
	rec = doJSON(t, h, http.MethodPost, "/v1/accounts", map[string]any{"owner_id": owner, "type": "PREMIUM"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad type expected 400, got %d", rec.Code)
	}
	rec = doJSON(t, h, http.MethodPost, "/v1/accounts", map[string]any{"owner_id": owner, "type": "SAVINGS", "balance": "abc"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad balance expected 422, got %d", rec.Code)
	}
}

func TestGetAccount_NotFound(t *testing.T) {
	_, h, _, _ := setup(t)
	rec := doJSON(t, h, http.MethodGet, "/v1/accounts/424242", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	var er errResp
	_ = json.Unmarshal(rec.Body.Bytes(), &er)
	if er.Code != "not_found" {
		t.Fatalf("code = %s", er.Code)
	}
}

func TestListAccounts(t *testing.T) {
	store, h, owner, current := setup(t)
	savings := store.Seed(accounts.Account{OwnerID: owner, Type: accounts.AccountTypeSavings})

	rec := doJSON(t, h, http.MethodGet, "/v1/accounts?owner_id="+owner, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var list struct {
		Items []acctResp `json:"items"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &list)
	if len(list.Items) != 2 || list.Items[0].ID != current.ID || list.Items[1].ID != savings.ID {
		t.Fatalf("unexpected items: %+v", list.Items)
	}

	rec = doJSON(t, h, http.MethodGet, "/v1/accounts?owner_id="+owner+"&type=SAVINGS", nil)
	_ = json.Unmarshal(rec.Body.Bytes(), &list)
	if len(list.Items) != 1 || list.Items[0].Type != "SAVINGS" {
		t.Fatalf("unexpected filtered items: %+v", list.Items)
	}

	// empty is success, not an error
	rec = doJSON(t, h, http.MethodGet, "/v1/accounts?owner_id="+uuid.NewString(), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &list)
	if len(list.Items) != 0 {
		t.Fatalf("expected no items, got %+v", list.Items)
	}

	rec = doJSON(t, h, http.MethodGet, "/v1/accounts", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing owner expected 400, got %d", rec.Code)
	}
	rec = doJSON(t, h, http.MethodGet, "/v1/accounts?owner_id="+owner+"&type=BROKERAGE", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad type expected 400, got %d", rec.Code)
	}
}

func TestListAccounts_JWTPrincipal(t *testing.T) {
	t.Setenv("JWT_HS256_SECRET", "test-secret")

	store := memory.New()
	owner := uuid.NewString()
	store.Seed(accounts.Account{OwnerID: owner, Type: accounts.AccountTypeCurrent})
	h := New(store, store, testLogger()).Handler()

	// no token
	rec := doJSON(t, h, http.MethodGet, "/v1/accounts", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	// health stays open
	rec = doJSON(t, h, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz expected 200, got %d", rec.Code)
	}

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": owner,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	// owner comes from the token, not the query
	req := httptest.NewRequest(http.MethodGet, "/v1/accounts", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec2 := httptest.NewRecorder()
	h.ServeHTTP(rec2, req)
	if rec2.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec2.Code, rec2.Body.String())
	}
	var list struct {
		Items []acctResp `json:"items"`
	}
	_ = json.Unmarshal(rec2.Body.Bytes(), &list)
	if len(list.Items) != 1 || list.Items[0].OwnerID != owner {
		t.Fatalf("unexpected items: %+v", list.Items)
	}
}

func TestHealthEndpoints(t *testing.T) {
	_, h, _, _ := setup(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doJSON(t, h, http.MethodGet, path, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s expected 200, got %d", path, rec.Code)
		}
	}
}

func itoa64(n int64) string {
	return strconv.FormatInt(n, 10)
}
