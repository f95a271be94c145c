package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxTitleLength is the maximum number of characters allowed in a title.
const MaxTitleLength = 200

// DateLayout is the wire and storage format of a transaction date.
const DateLayout = "2006-01-02"

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

type (
	TransactionType string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Transaction struct {
		ID          int64
		Title       string
		Description string
		Amount      Money
		Type        TransactionType
		Category    Category
		Date        Date
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}

	// TransactionPatch carries the writable fields of a transaction. Nil
	// fields are left untouched when the patch is applied.
	TransactionPatch struct {
		Title       *string
		Description *string
		Amount      *Money
		Type        *TransactionType
		Category    *Category
		Date        *Date
	}
)

var (
	ErrNotFound         = errors.New("transaction not found")
	ErrInvalidAmount    = errors.New("amount must be greater than 0")
	ErrAmountTooLarge   = errors.New("amount must have no more than 10 digits in total")
	ErrAmountPrecision  = errors.New("amount must have no more than 2 decimal places")
	ErrAmountNotNumeric = errors.New("amount must be a valid number")
	ErrAmountRequired   = errors.New("amount is required")
	ErrInvalidDate      = errors.New("date has wrong format, use YYYY-MM-DD")
	ErrEmptyTitle       = errors.New("title may not be blank")
)

// ValidationError collects per-field messages for a rejected write.
type ValidationError struct {
	Fields map[string][]string
}

// NewValidationError returns an empty ValidationError.
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string][]string)}
}

// Add records a message for a field.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

// Has reports whether the field already carries a message.
func (e *ValidationError) Has(field string) bool {
	_, ok := e.Fields[field]
	return ok
}

// Merge copies messages from other for fields not already reported.
func (e *ValidationError) Merge(other error) {
	var verr *ValidationError
	if !errors.As(other, &verr) || verr == nil {
		return
	}
	for field, msgs := range verr.Fields {
		if e.Has(field) {
			continue
		}
		for _, m := range msgs {
			e.Add(field, m)
		}
	}
}

// HasErrors reports whether any field failed.
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

// OrNil returns e when it holds messages, nil otherwise.
func (e *ValidationError) OrNil() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+strings.Join(e.Fields[f], ", "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (t TransactionType) IsValid() bool {
	switch t {
	case Income, Expense:
		return true
	default:
		return false
	}
}

// ParseDate parses a calendar date in YYYY-MM-DD format.
func ParseDate(s string) (Date, error) {
	parsed, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: parsed}, nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date is required")
	}
	return nil
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

// MonthKey returns the YYYY-MM label of the month the date falls in.
func (d Date) MonthKey() string {
	return MonthKey(d.Year(), d.Month())
}

// MonthKey formats a year and month as YYYY-MM.
func MonthKey(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}

// Validate checks every field of a complete transaction.
func (t Transaction) Validate() error {
	verr := NewValidationError()

	title := strings.TrimSpace(t.Title)
	if title == "" {
		verr.Add("title", ErrEmptyTitle.Error())
	} else if utf8.RuneCountInString(title) > MaxTitleLength {
		verr.Add("title", fmt.Sprintf("title must have no more than %d characters", MaxTitleLength))
	}
	if err := t.Amount.Validate(); err != nil {
		verr.Add("amount", err.Error())
	}
	if !t.Type.IsValid() {
		verr.Add("transaction_type", fmt.Sprintf("%q is not a valid choice", string(t.Type)))
	}
	if !t.Category.IsValid() {
		verr.Add("category", fmt.Sprintf("%q is not a valid choice", string(t.Category)))
	}
	if err := t.Date.Validate(); err != nil {
		verr.Add("date", err.Error())
	}

	return verr.OrNil()
}

// Validate checks only the fields present in the patch.
func (p TransactionPatch) Validate() error {
	verr := NewValidationError()

	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			verr.Add("title", ErrEmptyTitle.Error())
		} else if utf8.RuneCountInString(title) > MaxTitleLength {
			verr.Add("title", fmt.Sprintf("title must have no more than %d characters", MaxTitleLength))
		}
	}
	if p.Amount != nil {
		if err := p.Amount.Validate(); err != nil {
			verr.Add("amount", err.Error())
		}
	}
	if p.Type != nil && !p.Type.IsValid() {
		verr.Add("transaction_type", fmt.Sprintf("%q is not a valid choice", string(*p.Type)))
	}
	if p.Category != nil && !p.Category.IsValid() {
		verr.Add("category", fmt.Sprintf("%q is not a valid choice", string(*p.Category)))
	}
	if p.Date != nil {
		if err := p.Date.Validate(); err != nil {
			verr.Add("date", err.Error())
		}
	}

	return verr.OrNil()
}

// Apply returns t with every non-nil patch field copied over. ID and
// timestamps are never touched.
func (p TransactionPatch) Apply(t Transaction) Transaction {
	if p.Title != nil {
		t.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	return t
}
