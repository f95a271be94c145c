package core

import (
	"net/url"
	"testing"
)

func intPtr(v int) *int { return &v }

func TestListFilterMatches(t *testing.T) {
	income := Income
	food := Food
	march := Transaction{Type: Expense, Category: Food, Date: NewDate(2024, 3, 31)}
	april := Transaction{Type: Income, Category: Salary, Date: NewDate(2024, 4, 1)}
	lastYear := Transaction{Type: Expense, Category: Food, Date: NewDate(2023, 3, 5)}

	tests := []struct {
		name   string
		filter ListFilter
		want   []bool // march, april, lastYear
	}{
		{"no filter", ListFilter{}, []bool{true, true, true}},
		{"year and month", ListFilter{Year: intPtr(2024), Month: intPtr(3)}, []bool{true, false, false}},
		{"year only", ListFilter{Year: intPtr(2024)}, []bool{true, true, false}},
		{"month only is ignored", ListFilter{Month: intPtr(3)}, []bool{true, true, true}},
		{"type", ListFilter{Type: &income}, []bool{false, true, false}},
		{"category and year", ListFilter{Category: &food, Year: intPtr(2023)}, []bool{false, false, true}},
		{"december rolls over", ListFilter{Year: intPtr(2023), Month: intPtr(12)}, []bool{false, false, false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i, tx := range []Transaction{march, april, lastYear} {
				if got := tt.filter.Matches(tx); got != tt.want[i] {
					t.Errorf("transaction %d (%s): got %v, want %v", i, tx.Date, got, tt.want[i])
				}
			}
		})
	}
}

func TestListFilterDateRange(t *testing.T) {
	tests := []struct {
		name        string
		filter      ListFilter
		first, last string
	}{
		{"december", ListFilter{Year: intPtr(2024), Month: intPtr(12)}, "2024-12-01", "2024-12-31"},
		{"leap february", ListFilter{Year: intPtr(2024), Month: intPtr(2)}, "2024-02-01", "2024-02-29"},
		{"whole year", ListFilter{Year: intPtr(2024)}, "2024-01-01", "2024-12-31"},
		{"last representable month", ListFilter{Year: intPtr(9999), Month: intPtr(12)}, "9999-12-01", "9999-12-31"},
		{"last representable year", ListFilter{Year: intPtr(9999)}, "9999-01-01", "9999-12-31"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first, last, ok := tt.filter.DateRange()
			if !ok || first.String() != tt.first || last.String() != tt.last {
				t.Fatalf("got %s..%s ok=%v, want %s..%s", first, last, ok, tt.first, tt.last)
			}
		})
	}

	if _, _, ok := (ListFilter{Month: intPtr(3)}).DateRange(); ok {
		t.Fatalf("month without year should not restrict dates")
	}
}

func TestParseListFilter(t *testing.T) {
	tests := []struct {
		query    string
		year     int
		month    int
		typ      TransactionType
		category Category
	}{
		{"", 0, 0, "", ""},
		{"year=2024&month=3", 2024, 3, "", ""},
		{"month=3", 0, 3, "", ""},
		{"year=abc&month=13", 0, 0, "", ""},
		{"year=0&month=0", 0, 0, "", ""},
		{"type=income&category=salary", 0, 0, Income, Salary},
		{"type=transfer&category=pets", 0, 0, "", ""},
		{"year=%202024%20", 2024, 0, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			if err != nil {
				t.Fatalf("parse query: %v", err)
			}
			f := ParseListFilter(q)
			if got := deref(f.Year); got != tt.year {
				t.Errorf("year: got %d want %d", got, tt.year)
			}
			if got := deref(f.Month); got != tt.month {
				t.Errorf("month: got %d want %d", got, tt.month)
			}
			if f.Type != nil && *f.Type != tt.typ || f.Type == nil && tt.typ != "" {
				t.Errorf("type: got %v want %q", f.Type, tt.typ)
			}
			if f.Category != nil && *f.Category != tt.category || f.Category == nil && tt.category != "" {
				t.Errorf("category: got %v want %q", f.Category, tt.category)
			}
		})
	}
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
