package core

import (
	"cmp"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// ListFilter narrows a transaction listing. Every set field must match.
//
// Month is only honoured together with Year; a month on its own does not
// restrict the result.
type ListFilter struct {
	Year     *int
	Month    *int
	Type     *TransactionType
	Category *Category
}

// ParseListFilter reads the month, year, type and category query
// parameters. Values that are malformed or out of range are treated as
// absent rather than rejected.
func ParseListFilter(q url.Values) ListFilter {
	var f ListFilter
	if y, ok := intParam(q, "year", 1, 9999); ok {
		f.Year = &y
	}
	if m, ok := intParam(q, "month", 1, 12); ok {
		f.Month = &m
	}
	if v := strings.TrimSpace(q.Get("type")); v != "" {
		if typ := TransactionType(v); typ.IsValid() {
			f.Type = &typ
		}
	}
	if v := strings.TrimSpace(q.Get("category")); v != "" {
		if cat := Category(v); cat.IsValid() {
			f.Category = &cat
		}
	}
	return f
}

func intParam(q url.Values, key string, lo, hi int) (int, bool) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < lo || n > hi {
		return 0, false
	}
	return n, true
}

// DateRange returns the first and last day, both inclusive, selected by the
// year/month fields. ok is false when no date restriction applies. Both
// bounds stay within the four-digit year so they compare correctly as text.
func (f ListFilter) DateRange() (first, last Date, ok bool) {
	if f.Year == nil {
		return Date{}, Date{}, false
	}
	if f.Month != nil {
		first = NewDate(*f.Year, *f.Month, 1)
		return first, Date{Time: first.AddDate(0, 1, -1)}, true
	}
	return NewDate(*f.Year, 1, 1), NewDate(*f.Year, 12, 31), true
}

// Matches reports whether t satisfies every filter.
func (f ListFilter) Matches(t Transaction) bool {
	if first, last, ok := f.DateRange(); ok {
		if t.Date.Before(first.Time) || t.Date.After(last.Time) {
			return false
		}
	}
	if f.Type != nil && t.Type != *f.Type {
		return false
	}
	if f.Category != nil && t.Category != *f.Category {
		return false
	}
	return true
}

// SortDefault orders transactions most recent first: by date, then by
// creation time, then by id.
func SortDefault(txs []Transaction) {
	slices.SortStableFunc(txs, func(a, b Transaction) int {
		if c := b.Date.Compare(a.Date.Time); c != 0 {
			return c
		}
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
}
