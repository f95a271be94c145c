package core

import (
	"testing"
	"time"
)

func tx(id int64, typ TransactionType, cents int64, date Date) Transaction {
	cat := Food
	if typ == Income {
		cat = Salary
	}
	return Transaction{ID: id, Title: "t", Amount: Money{Cents: cents}, Type: typ, Category: cat, Date: date}
}

func TestAggregate(t *testing.T) {
	txs := []Transaction{
		tx(1, Income, 10000, NewDate(2024, 3, 1)),
		tx(2, Expense, 4000, NewDate(2024, 3, 20)),
		tx(3, Expense, 1550, NewDate(2024, 1, 5)),
		tx(4, Income, 99, NewDate(2023, 12, 31)),
	}

	rows := Aggregate(txs)
	if len(rows) != 3 {
		t.Fatalf("expected 3 months, got %d: %+v", len(rows), rows)
	}
	if rows[0].Month != "2024-03" || rows[1].Month != "2024-01" || rows[2].Month != "2023-12" {
		t.Fatalf("unexpected order: %s %s %s", rows[0].Month, rows[1].Month, rows[2].Month)
	}

	march := rows[0]
	if march.TotalIncome.String() != "100.00" || march.TotalExpenses.String() != "40.00" ||
		march.NetBalance().String() != "60.00" || march.TransactionCount != 2 {
		t.Fatalf("unexpected march totals: %+v", march)
	}

	jan := rows[1]
	if jan.TotalIncome.Cents != 0 || jan.NetBalance().String() != "-15.50" || jan.TransactionCount != 1 {
		t.Fatalf("unexpected january totals: %+v", jan)
	}
}

func TestAggregateEmpty(t *testing.T) {
	if rows := Aggregate(nil); len(rows) != 0 {
		t.Fatalf("expected no rows, got %+v", rows)
	}
}

func TestSummarize(t *testing.T) {
	txs := []Transaction{
		tx(1, Income, 10000, NewDate(2024, 3, 1)),
		tx(2, Expense, 4000, NewDate(2024, 3, 31)),
		tx(3, Expense, 500, NewDate(2023, 3, 10)),
	}

	s := Summarize(2024, 3, txs)
	if s.Month != "2024-03" || s.TransactionCount != 2 || s.NetBalance().Cents != 6000 {
		t.Fatalf("unexpected summary: %+v", s)
	}

	empty := Summarize(2025, 7, txs)
	if empty.Month != "2025-07" || empty.TransactionCount != 0 ||
		empty.TotalIncome.String() != "0.00" || empty.TotalExpenses.String() != "0.00" {
		t.Fatalf("unexpected empty summary: %+v", empty)
	}
}

func TestSortDefault(t *testing.T) {
	early := time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)
	late := early.Add(time.Hour)
	txs := []Transaction{
		{ID: 1, Date: NewDate(2024, 1, 1), CreatedAt: late},
		{ID: 2, Date: NewDate(2024, 2, 1), CreatedAt: early},
		{ID: 3, Date: NewDate(2024, 2, 1), CreatedAt: late},
		{ID: 4, Date: NewDate(2024, 2, 1), CreatedAt: late},
	}
	SortDefault(txs)

	want := []int64{4, 3, 2, 1}
	for i, id := range want {
		if txs[i].ID != id {
			t.Fatalf("position %d: got id %d, want %d", i, txs[i].ID, id)
		}
	}
}
