package core

import (
	"testing"
	"time"
)

func expense(cents int64, date Date, category string) Transaction {
	t := Transaction{Amount: Money{Cents: cents}, Type: Expense, Date: date}
	if category != "" {
		id := int64(len(category)) // any non-nil id will do
		t.CategoryID = &id
		t.CategoryName = category
	}
	return t
}

func income(cents int64, date Date) Transaction {
	return Transaction{Amount: Money{Cents: cents}, Type: Income, Date: date}
}

func TestSummarize(t *testing.T) {
	txns := []Transaction{
		income(100000, NewDate(2024, 3, 1)),
		expense(4250, NewDate(2024, 3, 2), "Food"),
		expense(1000, NewDate(2024, 3, 3), "Transport"),
	}
	got := Summarize(txns)
	if got.Income.Cents != 100000 {
		t.Fatalf("income: expected 100000, got %d", got.Income.Cents)
	}
	if got.Expenses.Cents != 5250 {
		t.Fatalf("expenses: expected 5250, got %d", got.Expenses.Cents)
	}
	if got.Balance.Cents != got.Income.Cents-got.Expenses.Cents {
		t.Fatalf("balance must equal income minus expenses, got %d", got.Balance.Cents)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	got := Summarize(nil)
	if got.Income.Cents != 0 || got.Expenses.Cents != 0 || got.Balance.Cents != 0 {
		t.Fatalf("expected zero totals, got %+v", got)
	}
}

func TestDailyExpensesShape(t *testing.T) {
	today := NewDate(2024, 3, 30)
	txns := []Transaction{
		expense(500, NewDate(2024, 3, 30), "Food"),  // today
		expense(300, NewDate(2024, 3, 1), "Food"),   // oldest included day
		expense(100, NewDate(2024, 2, 29), "Food"),  // 30 days back, excluded
		income(99999, NewDate(2024, 3, 15)),         // income never counted
		expense(700, NewDate(2024, 3, 15), "Other"), // middle
	}
	series := DailyExpenses(txns, today, 30)

	if len(series) != 30 {
		t.Fatalf("expected exactly 30 entries, got %d", len(series))
	}
	if series[29].Date.String() != "2024-03-30" {
		t.Fatalf("series must end on today, got %s", series[29].Date)
	}
	for i := 1; i < len(series); i++ {
		if !series[i-1].Date.Before(series[i].Date.Time) {
			t.Fatalf("series not chronological at %d", i)
		}
	}
	if series[29].Amount.Cents != 500 {
		t.Fatalf("today: expected 500, got %d", series[29].Amount.Cents)
	}
	if series[0].Date.String() != "2024-03-01" || series[0].Amount.Cents != 300 {
		t.Fatalf("oldest day: expected 2024-03-01/300, got %s/%d", series[0].Date, series[0].Amount.Cents)
	}
	// Days without expenses contribute zero.
	if series[1].Amount.Cents != 0 {
		t.Fatalf("empty day must be zero, got %d", series[1].Amount.Cents)
	}
}

func TestDailyExpensesAllZero(t *testing.T) {
	series := DailyExpenses(nil, NewDate(2024, 3, 30), 30)
	if len(series) != 30 {
		t.Fatalf("expected 30 entries, got %d", len(series))
	}
	for _, d := range series {
		if d.Amount.Cents != 0 {
			t.Fatalf("expected zero for %s, got %d", d.Date, d.Amount.Cents)
		}
	}
}

func TestMonthlyBreakdown(t *testing.T) {
	txns := []Transaction{
		expense(100, NewDate(2024, 3, 10), "Food"),
		income(500, NewDate(2024, 1, 1)),
		expense(200, NewDate(2024, 1, 15), "Food"),
		income(300, NewDate(2024, 3, 1)),
		expense(50, NewDate(2023, 12, 31), "Food"),
	}
	months := MonthlyBreakdown(txns)
	if len(months) != 3 {
		t.Fatalf("expected 3 months, got %d", len(months))
	}
	if months[0].Year != 2023 || months[0].Month != time.December {
		t.Fatalf("expected Dec 2023 first, got %v %d", months[0].Month, months[0].Year)
	}
	if months[1].Income.Cents != 500 || months[1].Expenses.Cents != 200 {
		t.Fatalf("Jan 2024: expected 500/200, got %d/%d", months[1].Income.Cents, months[1].Expenses.Cents)
	}
	if months[2].Income.Cents != 300 || months[2].Expenses.Cents != 100 {
		t.Fatalf("Mar 2024: expected 300/100, got %d/%d", months[2].Income.Cents, months[2].Expenses.Cents)
	}
}

func TestCategoryDistribution(t *testing.T) {
	txns := []Transaction{
		expense(100, NewDate(2024, 3, 1), "Food"),
		income(9999, NewDate(2024, 3, 1)), // omitted entirely
		expense(200, NewDate(2024, 3, 2), "Transport"),
		expense(300, NewDate(2024, 3, 3), "Food"),
		expense(400, NewDate(2024, 3, 4), ""), // uncategorized
	}
	dist := CategoryDistribution(txns)
	if len(dist) != 3 {
		t.Fatalf("expected 3 categories, got %d", len(dist))
	}
	// First-encounter order, not alphabetical or by magnitude.
	if dist[0].Name != "Food" || dist[1].Name != "Transport" || dist[2].Name != UncategorizedLabel {
		t.Fatalf("unexpected order: %q %q %q", dist[0].Name, dist[1].Name, dist[2].Name)
	}
	if dist[0].Amount.Cents != 400 {
		t.Fatalf("Food: expected 400, got %d", dist[0].Amount.Cents)
	}
	if dist[2].Amount.Cents != 400 {
		t.Fatalf("Uncategorized: expected 400, got %d", dist[2].Amount.Cents)
	}
}
