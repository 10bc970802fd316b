package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	applog "duitku/internal/log"
	"duitku/internal/storage"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-at-least-16-chars"

func newTestServer(t *testing.T) *Server {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "duitku.db"))
	if err != nil {
		t.Fatalf("create repository: %v", err)
	}
	logger := applog.New(applog.DefaultConfig())
	s := NewServer("127.0.0.1:0", testSecret, repo, logger, 6)
	t.Cleanup(func() {
		_ = s.Shutdown(context.Background())
		_ = repo.Close()
	})
	return s
}

func signToken(t *testing.T, userID string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": userID}).
		SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

type testEnvelope struct {
	Data         json.RawMessage `json:"data"`
	Notification *Notification   `json:"notification"`
	Generation   int64           `json:"generation"`
}

// doJSON performs a request against the server's handler as the given
// user and decodes the envelope.
func doJSON(t *testing.T, s *Server, method, path, userID string, body any) (int, testEnvelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+signToken(t, userID))
	}
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)

	var env testEnvelope
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode envelope (%s %s): %v: %s", method, path, err, rec.Body.String())
		}
	}
	return rec.Code, env
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/transactions", nil)
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/transactions", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad token: status = %d, want 401", rec.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		s.Handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: status = %d, want 200", path, rec.Code)
		}
	}
}

func TestTransactionLifecycle(t *testing.T) {
	s := newTestServer(t)

	code, env := doJSON(t, s, http.MethodPost, "/api/transactions", "u1", transactionRequest{
		Tipe:       "pemasukan",
		Tanggal:    "2026-08-01",
		Jumlah:     "5000000",
		Sumber:     "Debit",
		Keterangan: "Gaji DANA",
	})
	if code != http.StatusCreated {
		t.Fatalf("create: status = %d, want 201", code)
	}
	if env.Notification == nil || env.Notification.Type != NotificationSuccess {
		t.Fatalf("create: notification = %+v, want success", env.Notification)
	}
	if env.Generation != 1 {
		t.Errorf("create: generation = %d, want 1", env.Generation)
	}

	var created transactionResponse
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decode created: %v", err)
	}
	if created.ID == 0 || created.Jumlah != "5000000" {
		t.Errorf("created = %+v", created)
	}
	if created.JumlahFormat != "Rp 5.000.000" {
		t.Errorf("jumlah_format = %q, want %q", created.JumlahFormat, "Rp 5.000.000")
	}

	code, env = doJSON(t, s, http.MethodPost, "/api/transactions", "u1", transactionRequest{
		Tipe:       "pengeluaran",
		Tanggal:    "2026-08-02",
		Jumlah:     "150000",
		Sumber:     "Cash",
		Keterangan: "makan siang",
	})
	if code != http.StatusCreated {
		t.Fatalf("create expense: status = %d", code)
	}

	code, env = doJSON(t, s, http.MethodGet, "/api/transactions", "u1", nil)
	if code != http.StatusOK {
		t.Fatalf("list: status = %d", code)
	}
	var listed []transactionResponse
	if err := json.Unmarshal(env.Data, &listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("list: got %d transactions, want 2", len(listed))
	}

	code, env = doJSON(t, s, http.MethodGet, "/api/transactions?tipe=pemasukan", "u1", nil)
	if code != http.StatusOK {
		t.Fatalf("filtered list: status = %d", code)
	}
	if err := json.Unmarshal(env.Data, &listed); err != nil {
		t.Fatalf("decode filtered list: %v", err)
	}
	if len(listed) != 1 || listed[0].Tipe != "pemasukan" {
		t.Fatalf("filtered list = %+v", listed)
	}

	// Another user sees nothing.
	code, env = doJSON(t, s, http.MethodGet, "/api/transactions", "u2", nil)
	if code != http.StatusOK {
		t.Fatalf("foreign list: status = %d", code)
	}
	if err := json.Unmarshal(env.Data, &listed); err != nil {
		t.Fatalf("decode foreign list: %v", err)
	}
	if len(listed) != 0 {
		t.Errorf("foreign list: got %d transactions, want 0", len(listed))
	}

	code, _ = doJSON(t, s, http.MethodDelete, "/api/transactions/pengeluaran/1", "u1", nil)
	if code != http.StatusOK {
		t.Fatalf("delete: status = %d", code)
	}

	code, _ = doJSON(t, s, http.MethodDelete, "/api/transactions/pengeluaran/1", "u1", nil)
	if code != http.StatusNotFound {
		t.Errorf("delete again: status = %d, want 404", code)
	}
}

func TestTransactionValidationRejected(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		req  transactionRequest
	}{
		{"bad amount", transactionRequest{Tipe: "pemasukan", Tanggal: "2026-08-01", Jumlah: "abc", Sumber: "Cash"}},
		{"negative amount", transactionRequest{Tipe: "pemasukan", Tanggal: "2026-08-01", Jumlah: "-5", Sumber: "Cash"}},
		{"bad type", transactionRequest{Tipe: "transfer", Tanggal: "2026-08-01", Jumlah: "100", Sumber: "Cash"}},
		{"bad source", transactionRequest{Tipe: "pemasukan", Tanggal: "2026-08-01", Jumlah: "100", Sumber: "Gold"}},
		{"bad date", transactionRequest{Tipe: "pemasukan", Tanggal: "gestern", Jumlah: "100", Sumber: "Cash"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := doJSON(t, s, http.MethodPost, "/api/transactions", "u1", tt.req)
			if code != http.StatusUnprocessableEntity {
				t.Errorf("status = %d, want 422", code)
			}
			if env.Notification == nil || env.Notification.Type != NotificationError {
				t.Errorf("notification = %+v, want error toast", env.Notification)
			}
		})
	}
}

func TestGoalSavingFlow(t *testing.T) {
	s := newTestServer(t)

	code, env := doJSON(t, s, http.MethodPost, "/api/goals", "u1", goalRequest{
		Nama:   "Liburan",
		Target: "500000",
	})
	if code != http.StatusCreated {
		t.Fatalf("create goal: status = %d", code)
	}
	var goal goalResponse
	if err := json.Unmarshal(env.Data, &goal); err != nil {
		t.Fatalf("decode goal: %v", err)
	}
	if goal.Progress != "0" {
		t.Errorf("new goal progress = %q, want 0", goal.Progress)
	}

	code, env = doJSON(t, s, http.MethodPost, "/api/goals/1/savings", "u1", savingRequest{
		Jumlah:  "150000",
		Sumber:  "Cash",
		Tanggal: "2026-08-10",
	})
	if code != http.StatusCreated {
		t.Fatalf("contribute: status = %d", code)
	}
	var mutation savingMutationResponse
	if err := json.Unmarshal(env.Data, &mutation); err != nil {
		t.Fatalf("decode contribution: %v", err)
	}
	if mutation.Goal.Progress != "150000" {
		t.Errorf("progress = %q, want 150000", mutation.Goal.Progress)
	}
	if mutation.Goal.Persen != 30 {
		t.Errorf("persen = %v, want 30", mutation.Goal.Persen)
	}

	code, env = doJSON(t, s, http.MethodDelete, "/api/savings/1", "u1", nil)
	if code != http.StatusOK {
		t.Fatalf("delete saving: status = %d", code)
	}
	if err := json.Unmarshal(env.Data, &mutation); err != nil {
		t.Fatalf("decode deletion: %v", err)
	}
	if mutation.Goal.Progress != "0" {
		t.Errorf("progress after delete = %q, want 0", mutation.Goal.Progress)
	}
}

func TestDebtPaymentFlow(t *testing.T) {
	s := newTestServer(t)

	code, _ := doJSON(t, s, http.MethodPost, "/api/debts", "u1", debtRequest{
		NamaKreditor:  "Budi",
		JumlahHutang:  "1000000",
		TanggalHutang: "2026-08-01",
	})
	if code != http.StatusCreated {
		t.Fatalf("create debt: status = %d", code)
	}

	code, env := doJSON(t, s, http.MethodPost, "/api/debts/1/payments", "u1", paymentRequest{
		Jumlah:  "400000",
		Tanggal: "2026-08-05",
	})
	if code != http.StatusCreated {
		t.Fatalf("first payment: status = %d", code)
	}
	var mutation paymentMutationResponse
	if err := json.Unmarshal(env.Data, &mutation); err != nil {
		t.Fatalf("decode payment: %v", err)
	}
	if mutation.Debt.Status != "aktif" || mutation.Debt.JumlahTerbayar != "400000" {
		t.Errorf("after first payment: %+v", mutation.Debt)
	}
	if mutation.Debt.Sisa != "600000" {
		t.Errorf("sisa = %q, want 600000", mutation.Debt.Sisa)
	}

	code, env = doJSON(t, s, http.MethodPost, "/api/debts/1/payments", "u1", paymentRequest{
		Jumlah:  "600000",
		Tanggal: "2026-08-20",
	})
	if code != http.StatusCreated {
		t.Fatalf("second payment: status = %d", code)
	}
	if err := json.Unmarshal(env.Data, &mutation); err != nil {
		t.Fatalf("decode payment: %v", err)
	}
	if mutation.Debt.Status != "lunas" || mutation.Debt.Persen != 100 {
		t.Errorf("after settling payment: %+v", mutation.Debt)
	}

	// Deleting the settling payment reopens the debt.
	code, env = doJSON(t, s, http.MethodDelete, "/api/payments/2", "u1", nil)
	if code != http.StatusOK {
		t.Fatalf("delete payment: status = %d", code)
	}
	if err := json.Unmarshal(env.Data, &mutation); err != nil {
		t.Fatalf("decode deletion: %v", err)
	}
	if mutation.Debt.Status != "aktif" || mutation.Debt.JumlahTerbayar != "400000" {
		t.Errorf("after payment deletion: %+v", mutation.Debt)
	}

	// Status filter.
	code, env = doJSON(t, s, http.MethodGet, "/api/debts?status=aktif", "u1", nil)
	if code != http.StatusOK {
		t.Fatalf("list active: status = %d", code)
	}
	var debts []debtResponse
	if err := json.Unmarshal(env.Data, &debts); err != nil {
		t.Fatalf("decode debts: %v", err)
	}
	if len(debts) != 1 {
		t.Errorf("active debts = %d, want 1", len(debts))
	}

	code, _ = doJSON(t, s, http.MethodGet, "/api/debts?status=kadaluarsa", "u1", nil)
	if code != http.StatusUnprocessableEntity {
		t.Errorf("bad status filter: status = %d, want 422", code)
	}
}

func TestBudgetUsage(t *testing.T) {
	s := newTestServer(t)

	code, env := doJSON(t, s, http.MethodPost, "/api/categories", "u1", categoryRequest{
		Nama: "Makanan",
		Tipe: "pengeluaran",
	})
	if code != http.StatusCreated {
		t.Fatalf("create category: status = %d", code)
	}
	var cat categoryResponse
	if err := json.Unmarshal(env.Data, &cat); err != nil {
		t.Fatalf("decode category: %v", err)
	}

	code, _ = doJSON(t, s, http.MethodPost, "/api/budgets", "u1", budgetRequest{
		KategoriID:  cat.ID,
		LimitAmount: "1000000",
		Bulan:       8,
		Tahun:       2026,
	})
	if code != http.StatusCreated {
		t.Fatalf("create budget: status = %d", code)
	}

	code, _ = doJSON(t, s, http.MethodPost, "/api/transactions", "u1", transactionRequest{
		Tipe:       "pengeluaran",
		Tanggal:    "2026-08-10",
		Jumlah:     "250000",
		Sumber:     "Cash",
		KategoriID: &cat.ID,
		Keterangan: "belanja",
	})
	if code != http.StatusCreated {
		t.Fatalf("create expense: status = %d", code)
	}

	code, env = doJSON(t, s, http.MethodGet, "/api/budgets?bulan=8&tahun=2026", "u1", nil)
	if code != http.StatusOK {
		t.Fatalf("list budgets: status = %d", code)
	}
	var budgets []budgetResponse
	if err := json.Unmarshal(env.Data, &budgets); err != nil {
		t.Fatalf("decode budgets: %v", err)
	}
	if len(budgets) != 1 {
		t.Fatalf("budgets = %d, want 1", len(budgets))
	}
	if budgets[0].Terpakai != "250000" || budgets[0].Persen != 25 {
		t.Errorf("usage = %+v, want terpakai 250000 persen 25", budgets[0])
	}
	if budgets[0].Kategori != "Makanan" {
		t.Errorf("kategori = %q, want Makanan", budgets[0].Kategori)
	}
}

func TestDashboard(t *testing.T) {
	s := newTestServer(t)

	seed := []transactionRequest{
		{Tipe: "pemasukan", Tanggal: "2026-08-01", Jumlah: "5000000", Sumber: "Debit", Keterangan: "Gaji DANA"},
		{Tipe: "pengeluaran", Tanggal: "2026-08-02", Jumlah: "1500000", Sumber: "Cash", Keterangan: "sewa"},
	}
	for _, tx := range seed {
		if code, _ := doJSON(t, s, http.MethodPost, "/api/transactions", "u1", tx); code != http.StatusCreated {
			t.Fatalf("seed: status = %d", code)
		}
	}

	code, env := doJSON(t, s, http.MethodGet, "/api/dashboard", "u1", nil)
	if code != http.StatusOK {
		t.Fatalf("dashboard: status = %d", code)
	}
	var dash dashboardResponse
	if err := json.Unmarshal(env.Data, &dash); err != nil {
		t.Fatalf("decode dashboard: %v", err)
	}
	if dash.TotalPemasukan != "5000000" || dash.TotalPengeluaran != "1500000" || dash.Saldo != "3500000" {
		t.Errorf("totals = %+v", dash)
	}
	if len(dash.SaldoBulanan) != 6 {
		t.Errorf("saldo_bulanan has %d points, want 6", len(dash.SaldoBulanan))
	}
	if dash.SaldoBank["DANA"] != "5000000" {
		t.Errorf("saldo_bank[DANA] = %q, want 5000000", dash.SaldoBank["DANA"])
	}
	if dash.SaldoCash != "-1500000" {
		t.Errorf("saldo_cash = %q, want -1500000", dash.SaldoCash)
	}

	// Cached response is invalidated by the next write.
	if code, _ := doJSON(t, s, http.MethodGet, "/api/dashboard", "u1", nil); code != http.StatusOK {
		t.Fatalf("cached dashboard: status = %d", code)
	}
	if code, _ := doJSON(t, s, http.MethodPost, "/api/transactions", "u1", transactionRequest{
		Tipe: "pemasukan", Tanggal: "2026-08-03", Jumlah: "100000", Sumber: "Cash",
	}); code != http.StatusCreated {
		t.Fatalf("post-cache write: status = %d", code)
	}
	code, env = doJSON(t, s, http.MethodGet, "/api/dashboard", "u1", nil)
	if code != http.StatusOK {
		t.Fatalf("dashboard after write: status = %d", code)
	}
	if err := json.Unmarshal(env.Data, &dash); err != nil {
		t.Fatalf("decode dashboard: %v", err)
	}
	if dash.TotalPemasukan != "5100000" {
		t.Errorf("total after write = %q, want 5100000", dash.TotalPemasukan)
	}
}
