package core

import (
	"sort"
)

// MonthlyStats holds the totals of a single calendar month.
type MonthlyStats struct {
	Month            string // YYYY-MM
	TotalIncome      Money
	TotalExpenses    Money
	TransactionCount int64
}

// NetBalance is income minus expenses; it may be negative.
func (s MonthlyStats) NetBalance() Money {
	return s.TotalIncome.Sub(s.TotalExpenses)
}

// Add folds a transaction into the totals.
func (s *MonthlyStats) Add(t Transaction) {
	switch t.Type {
	case Income:
		s.TotalIncome = s.TotalIncome.Add(t.Amount)
	case Expense:
		s.TotalExpenses = s.TotalExpenses.Add(t.Amount)
	}
	s.TransactionCount++
}

// Aggregate groups transactions by the month of their date. Only months
// with at least one transaction appear; rows are ordered most recent first.
func Aggregate(txs []Transaction) []MonthlyStats {
	byMonth := make(map[string]*MonthlyStats)
	for _, t := range txs {
		key := t.Date.MonthKey()
		row, ok := byMonth[key]
		if !ok {
			row = &MonthlyStats{Month: key}
			byMonth[key] = row
		}
		row.Add(t)
	}

	out := make([]MonthlyStats, 0, len(byMonth))
	for _, row := range byMonth {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month > out[j].Month })
	return out
}

// Summarize computes the totals of a single month. An empty month yields
// zero totals rather than an error.
func Summarize(year, month int, txs []Transaction) MonthlyStats {
	s := MonthlyStats{Month: MonthKey(year, month)}
	for _, t := range txs {
		if t.Date.Year() == year && t.Date.Month() == month {
			s.Add(t)
		}
	}
	return s
}
