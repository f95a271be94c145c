package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"tracker/internal/amqp"
	"tracker/internal/core"
	"tracker/internal/storage/memory"
)

type failingReader struct{}

func (failingReader) Get(context.Context, int64) (core.Transaction, error) {
	return core.Transaction{}, errors.New("database is locked")
}

func (failingReader) List(context.Context, core.ListFilter) ([]core.Transaction, error) {
	return nil, nil
}

func TestEventWorker_HandleEvent(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	now := time.Now().UTC()
	saved, err := store.Create(ctx, core.Transaction{
		Title: "Lunch", Amount: core.Money{Cents: 1250}, Type: core.Expense,
		Category: core.Food, Date: core.NewDate(2024, 3, 1), CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	w := NewEventWorker(store)
	events := []*amqp.TransactionEvent{
		amqp.NewTransactionEvent(amqp.EventCreated, saved.ID, "2024-03"),
		amqp.NewTransactionEvent(amqp.EventUpdated, saved.ID, "2024-03"),
		amqp.NewTransactionEvent(amqp.EventUpdated, 999, "2024-03"),
		amqp.NewTransactionEvent(amqp.EventDeleted, 999, "2024-03"),
	}
	for _, ev := range events {
		if err := w.HandleEvent(ctx, ev); err != nil {
			t.Fatalf("handle %s: %v", ev.Kind, err)
		}
	}

	// Redelivery of an already processed event.
	if err := w.HandleEvent(ctx, events[0]); err != nil {
		t.Fatalf("duplicate: %v", err)
	}

	want := Stats{Created: 1, Updated: 2, Deleted: 1, Duplicates: 1}
	if got := w.Stats(); got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestEventWorker_ReaderFailureIsRetried(t *testing.T) {
	w := NewEventWorker(failingReader{})
	ev := amqp.NewTransactionEvent(amqp.EventCreated, 1, "2024-03")

	if err := w.HandleEvent(context.Background(), ev); err == nil {
		t.Fatal("expected error so the message is requeued")
	}
	if w.SeenEvents().Size() != 0 {
		t.Fatal("failed events must not be marked as seen")
	}

	deleted := amqp.NewTransactionEvent(amqp.EventDeleted, 1, "2024-03")
	if err := w.HandleEvent(context.Background(), deleted); err != nil {
		t.Fatalf("deleted events do not read storage: %v", err)
	}
}

func TestEventWorker_WithoutReader(t *testing.T) {
	w := NewEventWorker(nil)
	if err := w.HandleEvent(context.Background(), amqp.NewTransactionEvent(amqp.EventCreated, 7, "2024-03")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.Stats().Created != 1 {
		t.Fatalf("event not counted")
	}
}
