package http

import (
	"time"

	"tracker/internal/core"
)

// transactionJSON is the wire form of a transaction.
type transactionJSON struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Amount          string    `json:"amount"`
	TransactionType string    `json:"transaction_type"`
	Category        string    `json:"category"`
	Date            string    `json:"date"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// statsJSON is the wire form of one month of aggregates.
type statsJSON struct {
	Month            string `json:"month"`
	TotalIncome      string `json:"total_income"`
	TotalExpenses    string `json:"total_expenses"`
	NetBalance       string `json:"net_balance"`
	TransactionCount int64  `json:"transaction_count"`
}

type categoryJSON struct {
	Value           string `json:"value"`
	Label           string `json:"label"`
	TransactionType string `json:"transaction_type"`
}

func toTransactionJSON(t core.Transaction) transactionJSON {
	return transactionJSON{
		ID:              t.ID,
		Title:           t.Title,
		Description:     t.Description,
		Amount:          t.Amount.String(),
		TransactionType: string(t.Type),
		Category:        string(t.Category),
		Date:            t.Date.String(),
		CreatedAt:       t.CreatedAt.UTC(),
		UpdatedAt:       t.UpdatedAt.UTC(),
	}
}

func toTransactionsJSON(txs []core.Transaction) []transactionJSON {
	out := make([]transactionJSON, 0, len(txs))
	for _, t := range txs {
		out = append(out, toTransactionJSON(t))
	}
	return out
}

func toStatsJSON(s core.MonthlyStats) statsJSON {
	return statsJSON{
		Month:            s.Month,
		TotalIncome:      s.TotalIncome.String(),
		TotalExpenses:    s.TotalExpenses.String(),
		NetBalance:       s.NetBalance().String(),
		TransactionCount: s.TransactionCount,
	}
}

func toStatsListJSON(stats []core.MonthlyStats) []statsJSON {
	out := make([]statsJSON, 0, len(stats))
	for _, s := range stats {
		out = append(out, toStatsJSON(s))
	}
	return out
}

func toCategoriesJSON(infos []core.CategoryInfo) []categoryJSON {
	out := make([]categoryJSON, 0, len(infos))
	for _, c := range infos {
		out = append(out, categoryJSON{
			Value:           string(c.Category),
			Label:           c.Label,
			TransactionType: string(c.Type),
		})
	}
	return out
}
