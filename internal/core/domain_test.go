package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func validTransaction() Transaction {
	return Transaction{
		Title:       "Groceries",
		Description: "weekly",
		Amount:      Money{Cents: 4000},
		Type:        Expense,
		Category:    Food,
		Date:        NewDate(2024, 3, 15),
	}
}

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-02-29")
	if err != nil {
		t.Fatalf("expected leap day to parse, got %v", err)
	}
	if d.String() != "2024-02-29" || d.MonthKey() != "2024-02" {
		t.Fatalf("unexpected date %s / %s", d, d.MonthKey())
	}

	for _, in := range []string{"", "2023-02-29", "2024-13-01", "15/03/2024", "2024-03-15T10:00:00Z"} {
		if _, err := ParseDate(in); !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("%q expected ErrInvalidDate, got %v", in, err)
		}
	}
}

func TestTransactionValidate(t *testing.T) {
	if err := validTransaction().Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Transaction)
		field  string
	}{
		{"zero amount", func(tx *Transaction) { tx.Amount = Money{} }, "amount"},
		{"negative amount", func(tx *Transaction) { tx.Amount = Money{Cents: -100} }, "amount"},
		{"unknown type", func(tx *Transaction) { tx.Type = "transfer" }, "transaction_type"},
		{"unknown category", func(tx *Transaction) { tx.Category = "pets" }, "category"},
		{"blank title", func(tx *Transaction) { tx.Title = "   " }, "title"},
		{"long title", func(tx *Transaction) { tx.Title = strings.Repeat("a", MaxTitleLength+1) }, "title"},
		{"missing date", func(tx *Transaction) { tx.Date = Date{} }, "date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := validTransaction()
			tt.mutate(&tx)
			err := tx.Validate()
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if !verr.Has(tt.field) {
				t.Fatalf("expected error on %q, got %v", tt.field, verr.Fields)
			}
		})
	}
}

func TestTransactionValidate_TitleCountsCharacters(t *testing.T) {
	tx := validTransaction()
	tx.Title = strings.Repeat("ñ", MaxTitleLength)
	if err := tx.Validate(); err != nil {
		t.Fatalf("200 multi-byte characters should be accepted, got %v", err)
	}
}

func TestTransactionValidate_CategoryNotTiedToType(t *testing.T) {
	tx := validTransaction()
	tx.Type = Income
	tx.Category = Rent
	if err := tx.Validate(); err != nil {
		t.Fatalf("income with an expense category should be accepted, got %v", err)
	}
}

func TestPatchValidateOnlyPresentFields(t *testing.T) {
	title := "ok"
	if err := (TransactionPatch{Title: &title}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bad := TransactionType("bogus")
	zero := Money{}
	err := TransactionPatch{Type: &bad, Amount: &zero}.Validate()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if !verr.Has("transaction_type") || !verr.Has("amount") || verr.Has("title") {
		t.Fatalf("unexpected fields: %v", verr.Fields)
	}
}

func TestPatchApplyKeepsIdentity(t *testing.T) {
	created := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	base := validTransaction()
	base.ID = 7
	base.CreatedAt = created
	base.UpdatedAt = created

	title := "  Rent March  "
	amount := Money{Cents: 120000}
	got := TransactionPatch{Title: &title, Amount: &amount}.Apply(base)

	if got.ID != 7 || !got.CreatedAt.Equal(created) {
		t.Fatalf("identity changed: %+v", got)
	}
	if got.Title != "Rent March" || got.Amount.Cents != 120000 {
		t.Fatalf("patch not applied: %+v", got)
	}
	if got.Category != base.Category || got.Description != base.Description {
		t.Fatalf("untouched fields changed: %+v", got)
	}
}

func TestValidationErrorMerge(t *testing.T) {
	decode := NewValidationError()
	decode.Add("amount", "amount must be a valid number")

	decode.Merge(validTransaction().Validate())
	if decode.HasErrors() && len(decode.Fields) != 1 {
		t.Fatalf("merging nil should not add fields: %v", decode.Fields)
	}

	other := NewValidationError()
	other.Add("amount", "amount must be greater than 0")
	other.Add("title", "title may not be blank")
	decode.Merge(other)

	if len(decode.Fields["amount"]) != 1 {
		t.Fatalf("existing field should keep its first message: %v", decode.Fields["amount"])
	}
	if !decode.Has("title") {
		t.Fatalf("new field should be merged: %v", decode.Fields)
	}
	if !strings.Contains(decode.Error(), "title: title may not be blank") {
		t.Fatalf("unexpected message %q", decode.Error())
	}
}

func TestCategories(t *testing.T) {
	cats := Categories()
	if len(cats) != 14 {
		t.Fatalf("expected 14 categories, got %d", len(cats))
	}
	incomes := 0
	for _, c := range cats {
		if !c.Category.IsValid() {
			t.Fatalf("%q should be valid", c.Category)
		}
		if c.Type == Income {
			incomes++
		}
	}
	if incomes != 5 {
		t.Fatalf("expected 5 income categories, got %d", incomes)
	}
	if Rent.ConventionalType() != Expense || Salary.ConventionalType() != Income {
		t.Fatalf("unexpected partition")
	}
	if Category("pets").IsValid() {
		t.Fatalf("unknown category should be invalid")
	}
}
