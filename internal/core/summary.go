package core

import "time"

// Totals is the headline summary shown on the dashboard.
type Totals struct {
	Income   Money
	Expenses Money
	Balance  Money
}

// DayAmount is one bar of the daily expense chart.
type DayAmount struct {
	Date   Date
	Amount Money
}

// MonthAmount is one group of the monthly income/expense chart.
type MonthAmount struct {
	Year     int
	Month    time.Month
	Income   Money
	Expenses Money
}

// CategoryAmount is one slice of the category distribution chart.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// Summarize computes income, expenses and balance from a flat list of
// transactions. Balance is income minus expenses.
func Summarize(txns []Transaction) Totals {
	var t Totals
	for _, txn := range txns {
		switch txn.Type {
		case Income:
			t.Income = t.Income.Add(txn.Amount)
		case Expense:
			t.Expenses = t.Expenses.Add(txn.Amount)
		}
	}
	t.Balance = t.Income.Sub(t.Expenses)
	return t
}

// DailyExpenses sums expense amounts for each of the last `days` calendar
// days ending on `today`, inclusive. The result always has exactly `days`
// entries in chronological order; days without expenses contribute zero.
func DailyExpenses(txns []Transaction, today Date, days int) []DayAmount {
	if days <= 0 {
		return nil
	}
	byDay := make(map[string]int64, days)
	out := make([]DayAmount, days)
	for i := 0; i < days; i++ {
		d := Date{Time: today.AddDate(0, 0, i-days+1)}
		out[i] = DayAmount{Date: d}
		byDay[d.String()] = int64(i)
	}
	for _, txn := range txns {
		if txn.Type != Expense {
			continue
		}
		if i, ok := byDay[txn.Date.String()]; ok {
			out[i].Amount = out[i].Amount.Add(txn.Amount)
		}
	}
	return out
}

// MonthlyBreakdown groups all transactions by calendar month, summing
// income and expenses per group, ordered chronologically by month start.
func MonthlyBreakdown(txns []Transaction) []MonthAmount {
	type key struct {
		year  int
		month time.Month
	}
	idx := make(map[key]int)
	var out []MonthAmount
	for _, txn := range txns {
		y, m, _ := txn.Date.Date()
		k := key{year: y, month: m}
		i, ok := idx[k]
		if !ok {
			i = len(out)
			idx[k] = i
			out = append(out, MonthAmount{Year: y, Month: m})
		}
		switch txn.Type {
		case Income:
			out[i].Income = out[i].Income.Add(txn.Amount)
		case Expense:
			out[i].Expenses = out[i].Expenses.Add(txn.Amount)
		}
	}
	// Insertion order follows the input; sort by month start for the chart.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && monthBefore(out[j], out[j-1]); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

func monthBefore(a, b MonthAmount) bool {
	if a.Year != b.Year {
		return a.Year < b.Year
	}
	return a.Month < b.Month
}

// CategoryDistribution sums expense amounts per category display name.
// Income transactions are ignored; expenses without a category are summed
// under UncategorizedLabel. Order is first-encounter order of the input.
func CategoryDistribution(txns []Transaction) []CategoryAmount {
	idx := make(map[string]int)
	var out []CategoryAmount
	for _, txn := range txns {
		if txn.Type != Expense {
			continue
		}
		name := txn.DisplayCategory()
		i, ok := idx[name]
		if !ok {
			i = len(out)
			idx[name] = i
			out = append(out, CategoryAmount{Name: name})
		}
		out[i].Amount = out[i].Amount.Add(txn.Amount)
	}
	return out
}
