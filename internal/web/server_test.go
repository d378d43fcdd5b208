package web

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finview/internal/core"
	"finview/internal/finance"
	"finview/internal/finance/memory"
	"finview/internal/log"
	"finview/internal/session"
)

func quietLogger() *log.Logger {
	return log.New(log.Config{
		Level:   slog.LevelError,
		Handler: slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}),
	})
}

func newTestServer(t *testing.T) (*Server, *memory.Store) {
	t.Helper()
	store := memory.New().Seed("alice", "password123")
	mgr, err := session.NewManager(context.Background(), session.NewMemStore())
	require.NoError(t, err)

	s := NewServer(Config{Addr: ":0", SnapshotTTL: time.Minute}, store, store, store, store, mgr, quietLogger())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	})
	return s, store
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func postForm(h http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, s *Server) {
	t.Helper()
	rec := postForm(s.Handler, "/login", url.Values{
		"username": {"alice"},
		"password": {"password123"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/", rec.Header().Get("Location"))
	require.True(t, s.sessions.IsAuthenticated())
}

func TestProtectedPagesRedirectToLogin(t *testing.T) {
	s, _ := newTestServer(t)

	for _, path := range []string{"/", "/transactions", "/categories", "/export"} {
		rec := get(s.Handler, path)
		assert.Equal(t, http.StatusSeeOther, rec.Code, path)
		assert.Equal(t, "/login", rec.Header().Get("Location"), path)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	s, _ := newTestServer(t)

	rec := postForm(s.Handler, "/login", url.Values{
		"username": {"alice"},
		"password": {"wrong"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.False(t, s.sessions.IsAuthenticated())

	errMsg, _ := s.notices.Take()
	assert.Equal(t, "Login failed. Please check your username and password.", errMsg)
}

func TestAuthedUserLeavesLoginPage(t *testing.T) {
	s, _ := newTestServer(t)
	login(t, s)

	for _, path := range []string{"/login", "/register"} {
		rec := get(s.Handler, path)
		assert.Equal(t, http.StatusSeeOther, rec.Code, path)
		assert.Equal(t, "/", rec.Header().Get("Location"), path)
	}
}

func TestRegisterThenLogin(t *testing.T) {
	s, _ := newTestServer(t)

	rec := postForm(s.Handler, "/register", url.Values{
		"username":         {"bob"},
		"password":         {"password123"},
		"confirm_password": {"password123"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/login", rec.Header().Get("Location"))

	_, okMsg := s.notices.Take()
	assert.Equal(t, "Account created. Please log in.", okMsg)

	rec = postForm(s.Handler, "/login", url.Values{
		"username": {"bob"},
		"password": {"password123"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.True(t, s.sessions.IsAuthenticated())
}

func TestRegisterPasswordMismatch(t *testing.T) {
	s, _ := newTestServer(t)

	rec := postForm(s.Handler, "/register", url.Values{
		"username":         {"bob"},
		"password":         {"password123"},
		"confirm_password": {"different12"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/register", rec.Header().Get("Location"))

	errMsg, _ := s.notices.Take()
	assert.Equal(t, core.ErrPasswordMismatch.Error(), errMsg)
}

func TestLogoutClearsSession(t *testing.T) {
	s, _ := newTestServer(t)
	login(t, s)

	rec := postForm(s.Handler, "/logout", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.False(t, s.sessions.IsAuthenticated())
}

func TestCreateExpenseShowsOnDashboard(t *testing.T) {
	s, _ := newTestServer(t)
	login(t, s)

	rec := postForm(s.Handler, "/categories", url.Values{"name": {"Groceries"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rec = postForm(s.Handler, "/transactions", url.Values{
		"type":        {"expense"},
		"amount":      {"42.50"},
		"date":        {"2026-08-15"},
		"description": {"weekly shop"},
		"category":    {"1"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/transactions", rec.Header().Get("Location"))

	rec = get(s.Handler, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "$42.50")
	assert.Contains(t, body, "-$42.50")
}

func TestIncomeDateNormalizedToFirstOfMonth(t *testing.T) {
	s, store := newTestServer(t)
	login(t, s)

	rec := postForm(s.Handler, "/transactions", url.Values{
		"type":        {"income"},
		"amount":      {"1000"},
		"date":        {"2026-08-15"},
		"description": {"salary"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	txns, err := store.ListTransactions(context.Background())
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, "2026-08-01", txns[0].Date.String())
	assert.Nil(t, txns[0].CategoryID)
}

func TestExpenseRequiresCategory(t *testing.T) {
	s, store := newTestServer(t)
	login(t, s)

	rec := postForm(s.Handler, "/transactions", url.Values{
		"type":   {"expense"},
		"amount": {"10.00"},
		"date":   {"2026-08-15"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	errMsg, _ := s.notices.Take()
	assert.Equal(t, core.ErrMissingCategory.Error(), errMsg)

	txns, err := store.ListTransactions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, txns)
}

func TestDeleteTransaction(t *testing.T) {
	s, store := newTestServer(t)
	login(t, s)

	postForm(s.Handler, "/transactions", url.Values{
		"type":   {"income"},
		"amount": {"100"},
		"date":   {"2026-08-01"},
	})
	txns, err := store.ListTransactions(context.Background())
	require.NoError(t, err)
	require.Len(t, txns, 1)

	rec := postForm(s.Handler, "/transactions/1/delete", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	txns, err = store.ListTransactions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, txns)
}

func TestDeleteMissingTransactionShowsNotFound(t *testing.T) {
	s, store := newTestServer(t)
	login(t, s)

	postForm(s.Handler, "/transactions", url.Values{
		"type":   {"income"},
		"amount": {"100"},
		"date":   {"2026-08-01"},
	})

	rec := postForm(s.Handler, "/transactions/99/delete", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	errMsg, _ := s.notices.Take()
	assert.Equal(t, "No Transaction matches the given query.", errMsg)

	txns, err := store.ListTransactions(context.Background())
	require.NoError(t, err)
	assert.Len(t, txns, 1)
}

func TestDeleteCategoryDetachesExpenses(t *testing.T) {
	s, _ := newTestServer(t)
	login(t, s)

	postForm(s.Handler, "/categories", url.Values{"name": {"Rent"}})
	postForm(s.Handler, "/transactions", url.Values{
		"type":     {"expense"},
		"amount":   {"800"},
		"date":     {"2026-08-01"},
		"category": {"1"},
	})

	rec := postForm(s.Handler, "/categories/1/delete", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rec = get(s.Handler, "/transactions")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), core.UncategorizedLabel)
}

func TestDailyDataHasThirtyEntries(t *testing.T) {
	s, _ := newTestServer(t)
	login(t, s)

	rec := get(s.Handler, "/dashboard/data/daily")
	require.Equal(t, http.StatusOK, rec.Code)

	var series chartSeries
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &series))
	assert.Len(t, series.Labels, 30)
	assert.Len(t, series.Values, 30)
}

func TestCategoryDataExpensesOnly(t *testing.T) {
	s, _ := newTestServer(t)
	login(t, s)

	postForm(s.Handler, "/categories", url.Values{"name": {"Food"}})
	postForm(s.Handler, "/transactions", url.Values{
		"type":     {"expense"},
		"amount":   {"25.00"},
		"date":     {"2026-08-10"},
		"category": {"1"},
	})
	postForm(s.Handler, "/transactions", url.Values{
		"type":   {"income"},
		"amount": {"500"},
		"date":   {"2026-08-01"},
	})

	rec := get(s.Handler, "/dashboard/data/categories")
	require.Equal(t, http.StatusOK, rec.Code)

	var series chartSeries
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &series))
	require.Equal(t, []string{"Food"}, series.Labels)
	assert.Equal(t, []float64{25}, series.Values)
}

func TestDashboardRecentTransactions(t *testing.T) {
	s, _ := newTestServer(t)
	login(t, s)

	descriptions := []string{"first", "second", "third", "fourth", "fifth", ""}
	for _, desc := range descriptions {
		postForm(s.Handler, "/transactions", url.Values{
			"type":        {"income"},
			"amount":      {"10.00"},
			"date":        {"2026-08-01"},
			"description": {desc},
		})
	}

	rec := get(s.Handler, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	assert.Contains(t, body, "Recent Transactions")
	// Only the last five show; the oldest falls off.
	assert.NotContains(t, body, "first")
	assert.Contains(t, body, "second")
	assert.Contains(t, body, "fifth")
	// Type is capitalized, missing descriptions fall back to N/A.
	assert.Contains(t, body, "Income")
	assert.Contains(t, body, "N/A")
}

func TestDashboardRecentTransactionsEmpty(t *testing.T) {
	s, _ := newTestServer(t)
	login(t, s)

	rec := get(s.Handler, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No transactions found.")
}

func TestRecentTransactionsOrder(t *testing.T) {
	var txns []core.Transaction
	for i := 1; i <= 7; i++ {
		txns = append(txns, core.Transaction{
			ID:          int64(i),
			Amount:      core.Money{Cents: int64(i) * 100},
			Type:        core.Expense,
			Date:        core.NewDate(2026, 8, i),
			Description: "txn",
		})
	}

	rows := recentTransactions(txns, 5)
	require.Len(t, rows, 5)
	assert.Equal(t, 7, rows[0].Position)
	assert.Equal(t, 3, rows[4].Position)
	assert.Equal(t, "Expense", rows[0].Type)
	assert.Equal(t, "7.00", rows[0].Amount)
	assert.Equal(t, "2026-08-07", rows[0].Date)

	assert.Empty(t, recentTransactions(nil, 5))
}

// countingStore wraps the memory fake to observe upstream list calls.
type countingStore struct {
	*memory.Store
	lists int
}

func (c *countingStore) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	c.lists++
	return c.Store.ListTransactions(ctx)
}

func TestResetZeroesDashboardWithoutRefetch(t *testing.T) {
	store := memory.New().Seed("alice", "password123")
	counting := &countingStore{Store: store}
	mgr, err := session.NewManager(context.Background(), session.NewMemStore())
	require.NoError(t, err)

	s := NewServer(Config{Addr: ":0", SnapshotTTL: time.Minute}, store, counting, store, store, mgr, quietLogger())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	})
	login(t, s)

	postForm(s.Handler, "/transactions", url.Values{
		"type":   {"income"},
		"amount": {"500"},
		"date":   {"2026-08-01"},
	})

	rec := get(s.Handler, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "$500.00")
	listsBefore := counting.lists

	rec = postForm(s.Handler, "/reset", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rec = get(s.Handler, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "$0.00")
	assert.Contains(t, rec.Body.String(), "All data has been successfully reset.")
	assert.Equal(t, listsBefore, counting.lists, "reset should not trigger a refetch")
}

// failingStore simulates an unreachable upstream for list calls.
type failingStore struct {
	*memory.Store
}

func (f *failingStore) ListTransactions(context.Context) ([]core.Transaction, error) {
	return nil, &finance.Error{Kind: finance.KindConnectivity, Message: finance.MsgConnectivity}
}

func TestDashboardRendersErrorBannerOnUpstreamFailure(t *testing.T) {
	store := memory.New().Seed("alice", "password123")
	failing := &failingStore{Store: store}
	mgr, err := session.NewManager(context.Background(), session.NewMemStore())
	require.NoError(t, err)

	s := NewServer(Config{Addr: ":0", SnapshotTTL: time.Minute}, store, failing, store, store, mgr, quietLogger())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	})
	login(t, s)

	rec := get(s.Handler, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), finance.MsgConnectivity)
	assert.Contains(t, rec.Body.String(), "$0.00")
}

func TestDashboardRefreshInvalidatesSnapshot(t *testing.T) {
	store := memory.New().Seed("alice", "password123")
	counting := &countingStore{Store: store}
	mgr, err := session.NewManager(context.Background(), session.NewMemStore())
	require.NoError(t, err)

	s := NewServer(Config{Addr: ":0", SnapshotTTL: time.Minute}, store, counting, store, store, mgr, quietLogger())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	})
	login(t, s)

	get(s.Handler, "/")
	get(s.Handler, "/")
	require.Equal(t, 1, counting.lists, "second render should hit the snapshot")

	postForm(s.Handler, "/dashboard/refresh", nil)
	get(s.Handler, "/")
	assert.Equal(t, 2, counting.lists)
}

func TestExportDownloadHeaders(t *testing.T) {
	s, _ := newTestServer(t)
	login(t, s)

	rec := get(s.Handler, "/export?format=csv")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, rec.Body.String(), "ID,Amount,Type,Category,Description,Date")
}

// renamingMaintainer serves a download whose filename needs quoting.
type renamingMaintainer struct {
	*memory.Store
}

func (m *renamingMaintainer) Export(ctx context.Context, format string) (finance.Download, error) {
	dl, err := m.Store.Export(ctx, format)
	if err != nil {
		return finance.Download{}, err
	}
	dl.Filename = `yearly "draft" export.csv`
	return dl, nil
}

func TestExportQuotesFilename(t *testing.T) {
	store := memory.New().Seed("alice", "password123")
	mgr, err := session.NewManager(context.Background(), session.NewMemStore())
	require.NoError(t, err)

	s := NewServer(Config{Addr: ":0", SnapshotTTL: time.Minute},
		store, store, store, &renamingMaintainer{Store: store}, mgr, quietLogger())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	})
	login(t, s)

	rec := get(s.Handler, "/export?format=csv")
	require.Equal(t, http.StatusOK, rec.Code)

	cd := rec.Header().Get("Content-Disposition")
	_, params, err := mime.ParseMediaType(cd)
	require.NoError(t, err)
	assert.Equal(t, `yearly "draft" export.csv`, params["filename"])
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	s, _ := newTestServer(t)
	login(t, s)

	rec := get(s.Handler, "/export?format=xml")
	require.Equal(t, http.StatusSeeOther, rec.Code)

	errMsg, _ := s.notices.Take()
	assert.Equal(t, "Invalid export format selected.", errMsg)
}

func TestSecurityHeadersPresent(t *testing.T) {
	s, _ := newTestServer(t)

	rec := get(s.Handler, "/login")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
}

func TestHealthEndpoints(t *testing.T) {
	s, _ := newTestServer(t)

	assert.Equal(t, http.StatusOK, get(s.Handler, "/healthz").Code)
	assert.Equal(t, http.StatusOK, get(s.Handler, "/readyz").Code)
}
