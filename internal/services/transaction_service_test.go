package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"tracker/internal/amqp"
	"tracker/internal/core"
	"tracker/internal/storage/memory"
)

type fakePublisher struct {
	mu     sync.Mutex
	events []*amqp.TransactionEvent
	err    error
}

func (f *fakePublisher) PublishTransactionEvent(_ context.Context, ev *amqp.TransactionEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return f.err
}

func (f *fakePublisher) kinds() []amqp.EventKind {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]amqp.EventKind, len(f.events))
	for i, ev := range f.events {
		out[i] = ev.Kind
	}
	return out
}

func ptr[T any](v T) *T { return &v }

func patch(title string, typ core.TransactionType, cat core.Category, cents int64, date core.Date) core.TransactionPatch {
	return core.TransactionPatch{
		Title:    ptr(title),
		Amount:   ptr(core.Money{Cents: cents}),
		Type:     ptr(typ),
		Category: ptr(cat),
		Date:     ptr(date),
	}
}

func newService(t *testing.T, now time.Time, opts ...Option) (*TransactionService, *fakePublisher) {
	t.Helper()
	pub := &fakePublisher{}
	opts = append([]Option{WithPublisher(pub), WithClock(func() time.Time { return now })}, opts...)
	return NewTransactionService(memory.New(), opts...), pub
}

func TestTransactionService_CreateGetDelete(t *testing.T) {
	now := time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)
	svc, pub := newService(t, now)
	ctx := context.Background()

	saved, err := svc.Create(ctx, patch("Groceries", core.Expense, core.Food, 4000, core.NewDate(2024, 3, 14)))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if saved.ID == 0 || !saved.CreatedAt.Equal(now) || !saved.UpdatedAt.Equal(now) {
		t.Fatalf("unexpected saved transaction: %+v", saved)
	}

	got, err := svc.Get(ctx, saved.ID)
	if err != nil || got.Title != "Groceries" || got.Amount.String() != "40.00" {
		t.Fatalf("unexpected get: %+v err=%v", got, err)
	}

	if err := svc.Delete(ctx, saved.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, saved.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := svc.Delete(ctx, saved.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}

	kinds := pub.kinds()
	if len(kinds) != 2 || kinds[0] != amqp.EventCreated || kinds[1] != amqp.EventDeleted {
		t.Fatalf("unexpected events: %v", kinds)
	}
	if pub.events[0].Month != "2024-03" || pub.events[0].ID != saved.ID {
		t.Fatalf("unexpected event payload: %+v", pub.events[0])
	}
}

func TestTransactionService_CreateRejectsInvalid(t *testing.T) {
	svc, pub := newService(t, time.Now())
	ctx := context.Background()

	p := patch("Bad", core.Expense, core.Food, 0, core.NewDate(2024, 1, 1))
	_, err := svc.Create(ctx, p)
	var verr *core.ValidationError
	if !errors.As(err, &verr) || !verr.Has("amount") {
		t.Fatalf("expected amount validation error, got %v", err)
	}

	_, err = svc.Create(ctx, core.TransactionPatch{})
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	for _, field := range []string{"title", "amount", "transaction_type", "category", "date"} {
		if !verr.Has(field) {
			t.Errorf("expected error on %s, got %v", field, verr.Fields)
		}
	}
	if len(pub.kinds()) != 0 {
		t.Fatalf("rejected writes must not publish events")
	}
}

func TestTransactionService_Update(t *testing.T) {
	created := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	clock := created
	svc, pub := newService(t, created, WithClock(func() time.Time { return clock }))
	ctx := context.Background()

	saved, err := svc.Create(ctx, patch("Rent", core.Expense, core.Rent, 80000, core.NewDate(2024, 3, 1)))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	clock = created.Add(time.Hour)
	updated, err := svc.Update(ctx, saved.ID, core.TransactionPatch{Amount: ptr(core.Money{Cents: 82000})})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Amount.Cents != 82000 || updated.Title != "Rent" || updated.Category != core.Rent {
		t.Fatalf("partial update changed the wrong fields: %+v", updated)
	}
	if !updated.CreatedAt.Equal(created) || !updated.UpdatedAt.Equal(clock) {
		t.Fatalf("unexpected timestamps: created=%v updated=%v", updated.CreatedAt, updated.UpdatedAt)
	}

	_, err = svc.Update(ctx, saved.ID, core.TransactionPatch{Title: ptr("  ")})
	var verr *core.ValidationError
	if !errors.As(err, &verr) || !verr.Has("title") {
		t.Fatalf("expected title validation error, got %v", err)
	}

	if _, err := svc.Update(ctx, 999, core.TransactionPatch{}); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	kinds := pub.kinds()
	if len(kinds) != 2 || kinds[1] != amqp.EventUpdated {
		t.Fatalf("unexpected events: %v", kinds)
	}
}

func TestTransactionService_PublishFailureDoesNotFailWrite(t *testing.T) {
	svc, pub := newService(t, time.Now())
	pub.err = errors.New("broker down")

	if _, err := svc.Create(context.Background(), patch("x", core.Income, core.Gift, 100, core.NewDate(2024, 1, 1))); err != nil {
		t.Fatalf("publish failure leaked into create: %v", err)
	}
}

func TestTransactionService_Stats(t *testing.T) {
	now := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)
	svc, _ := newService(t, now)
	ctx := context.Background()

	mustCreate := func(p core.TransactionPatch) {
		t.Helper()
		if _, err := svc.Create(ctx, p); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	mustCreate(patch("salary", core.Income, core.Salary, 10000, core.NewDate(2024, 3, 1)))
	mustCreate(patch("food", core.Expense, core.Food, 4000, core.NewDate(2024, 3, 5)))

	stats, err := svc.MonthlyStats(ctx)
	if err != nil {
		t.Fatalf("monthly stats: %v", err)
	}
	if len(stats) != 1 {
		t.Fatalf("expected one month, got %+v", stats)
	}
	row := stats[0]
	if row.TotalIncome.String() != "100.00" || row.TotalExpenses.String() != "40.00" ||
		row.NetBalance().String() != "60.00" || row.TransactionCount != 2 {
		t.Fatalf("unexpected stats row: %+v", row)
	}

	sum, err := svc.CurrentMonthSummary(ctx)
	if err != nil || sum.Month != "2024-03" || sum.TransactionCount != 2 {
		t.Fatalf("unexpected summary: %+v err=%v", sum, err)
	}

	// A write must invalidate the cached aggregates.
	mustCreate(patch("more food", core.Expense, core.Food, 1000, core.NewDate(2024, 3, 6)))
	stats, _ = svc.MonthlyStats(ctx)
	if stats[0].TransactionCount != 3 || stats[0].TotalExpenses.String() != "50.00" {
		t.Fatalf("stale stats after write: %+v", stats[0])
	}
	sum, _ = svc.CurrentMonthSummary(ctx)
	if sum.TransactionCount != 3 {
		t.Fatalf("stale summary after write: %+v", sum)
	}
}

func TestTransactionService_EmptyCurrentMonth(t *testing.T) {
	svc, _ := newService(t, time.Date(2025, 7, 4, 0, 0, 0, 0, time.UTC), WithCacheTTL(0))
	sum, err := svc.CurrentMonthSummary(context.Background())
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.Month != "2025-07" || sum.TransactionCount != 0 ||
		sum.TotalIncome.String() != "0.00" || sum.TotalExpenses.String() != "0.00" || sum.NetBalance().String() != "0.00" {
		t.Fatalf("unexpected empty summary: %+v", sum)
	}
	if svc.Cache() != nil {
		t.Fatalf("cache should be disabled with zero TTL")
	}
}

func TestTransactionService_CurrentMonthUsesUTC(t *testing.T) {
	// 01:30 on April 1st at UTC+3 is still March 31st in UTC.
	east := time.FixedZone("UTC+3", 3*60*60)
	svc, _ := newService(t, time.Date(2024, 4, 1, 1, 30, 0, 0, east))
	ctx := context.Background()

	if _, err := svc.Create(ctx, patch("late dinner", core.Expense, core.Food, 2500, core.NewDate(2024, 3, 31))); err != nil {
		t.Fatalf("create: %v", err)
	}

	sum, err := svc.CurrentMonthSummary(ctx)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.Month != "2024-03" || sum.TransactionCount != 1 || sum.TotalExpenses.String() != "25.00" {
		t.Fatalf("expected the UTC month 2024-03, got %+v", sum)
	}
}
