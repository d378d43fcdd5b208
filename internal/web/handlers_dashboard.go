package web

import (
	"encoding/json"
	"net/http"
	"strconv"

	"finview/internal/core"
	"finview/internal/finance"
	"finview/internal/log"
)

// dailyWindow is how many calendar days the daily expense chart covers.
const dailyWindow = 30

type dashboardPage struct {
	basePage
	Income   string
	Expenses string
	Balance  string
	Negative bool
	Empty    bool
	Recent   []recentRow
}

// recentRow is one line of the recent-transactions card. Position is the
// transaction's ordinal in the full list, so the newest row shows the
// highest number.
type recentRow struct {
	Position    int
	Type        string
	Amount      string
	Date        string
	Description string
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	txns, err := s.transactions(ctx)
	if err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Dashboard load failed",
			log.FieldOperation, log.OpList, log.FieldError, err)
		if finance.IsAuth(err) {
			s.fail(w, r, err, "/login")
			return
		}
		// Render the page zeroed with the error banner rather than
		// redirecting, so a flaky upstream cannot cause a redirect loop.
		s.notices.SetError(finance.UserMessage(err))
		txns = nil
	}

	totals := core.Summarize(txns)
	s.render(w, r, "dashboard.html", dashboardPage{
		basePage: s.newBasePage(),
		Income:   formatAmount(totals.Income),
		Expenses: formatAmount(totals.Expenses),
		Balance:  formatAmount(totals.Balance),
		Negative: totals.Balance.Cents < 0,
		Empty:    len(txns) == 0,
		Recent:   recentTransactions(txns, 5),
	})
}

// recentTransactions returns the last n transactions, newest first.
func recentTransactions(txns []core.Transaction, n int) []recentRow {
	var rows []recentRow
	for i := len(txns) - 1; i >= 0 && i >= len(txns)-n; i-- {
		t := txns[i]
		desc := t.Description
		if desc == "" {
			desc = "N/A"
		}
		rows = append(rows, recentRow{
			Position:    i + 1,
			Type:        capitalize(string(t.Type)),
			Amount:      t.Amount.Decimal(),
			Date:        t.Date.String(),
			Description: desc,
		})
	}
	return rows
}

// handleDashboardRefresh drops the snapshot so the next render refetches.
func (s *Server) handleDashboardRefresh(w http.ResponseWriter, r *http.Request) {
	s.invalidateSnapshot()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// chartSeries is the payload shape consumed by the chart scripts.
type chartSeries struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

type monthlySeries struct {
	Labels   []string  `json:"labels"`
	Income   []float64 `json:"income"`
	Expenses []float64 `json:"expenses"`
}

func (s *Server) handleDailyData(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	txns, err := s.transactions(ctx)
	if err != nil {
		s.chartError(w, r, err)
		return
	}

	today := core.Date{Time: s.now()}
	series := chartSeries{
		Labels: make([]string, 0, dailyWindow),
		Values: make([]float64, 0, dailyWindow),
	}
	for _, day := range core.DailyExpenses(txns, today, dailyWindow) {
		series.Labels = append(series.Labels, day.Date.Format("01-02"))
		series.Values = append(series.Values, amountValue(day.Amount))
	}

	writeJSON(w, r, series)
}

func (s *Server) handleMonthlyData(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	txns, err := s.transactions(ctx)
	if err != nil {
		s.chartError(w, r, err)
		return
	}

	var series monthlySeries
	for _, m := range core.MonthlyBreakdown(txns) {
		series.Labels = append(series.Labels, m.Month.String()[:3]+" "+strconv.Itoa(m.Year))
		series.Income = append(series.Income, amountValue(m.Income))
		series.Expenses = append(series.Expenses, amountValue(m.Expenses))
	}

	writeJSON(w, r, series)
}

func (s *Server) handleCategoryData(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	txns, err := s.transactions(ctx)
	if err != nil {
		s.chartError(w, r, err)
		return
	}

	var series chartSeries
	for _, c := range core.CategoryDistribution(txns) {
		series.Labels = append(series.Labels, c.Name)
		series.Values = append(series.Values, amountValue(c.Amount))
	}

	writeJSON(w, r, series)
}

// chartError answers data requests with a JSON error instead of a
// redirect, since the caller is a script rather than a navigation.
func (s *Server) chartError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	log.FromContext(ctx).ErrorContext(ctx, "Chart data failed", log.FieldError, err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadGateway)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": finance.UserMessage(err)})
}

func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		ctx := r.Context()
		log.FromContext(ctx).ErrorContext(ctx, "JSON encode failed", log.FieldError, err)
	}
}

func amountValue(m core.Money) float64 {
	return float64(m.Cents) / 100
}
