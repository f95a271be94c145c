// Package worker processes transaction change events delivered over AMQP.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"tracker/internal/amqp"
	"tracker/internal/cache"
	"tracker/internal/core"
	"tracker/internal/storage"
)

const (
	seenEventsSize = 1024
	seenEventsTTL  = time.Hour
)

// EventWorker logs every transaction event once. Redelivered events with an
// already seen event ID are acknowledged and skipped.
type EventWorker struct {
	reader storage.TransactionReader
	seen   *cache.LRUCache[struct{}]

	mu     sync.Mutex
	counts map[amqp.EventKind]int64
	dupes  int64
}

// NewEventWorker creates a worker. reader is optional; when set, created and
// updated events are logged with the current state of the transaction.
func NewEventWorker(reader storage.TransactionReader) *EventWorker {
	return &EventWorker{
		reader: reader,
		seen:   cache.NewLRUCache[struct{}](seenEventsSize, seenEventsTTL),
		counts: make(map[amqp.EventKind]int64),
	}
}

// SeenEvents exposes the duplicate filter so it can be registered for
// cleanup.
func (w *EventWorker) SeenEvents() *cache.LRUCache[struct{}] {
	return w.seen
}

// HandleEvent processes a single transaction event
func (w *EventWorker) HandleEvent(ctx context.Context, ev *amqp.TransactionEvent) error {
	if _, dup := w.seen.Get(ev.EventID); dup {
		atomic.AddInt64(&w.dupes, 1)
		slog.DebugContext(ctx, "Duplicate event skipped", "event_id", ev.EventID)
		return nil
	}

	attrs := []any{
		"event_id", ev.EventID,
		"kind", ev.Kind,
		"transaction_id", ev.ID,
		"month", ev.Month,
		"published_at", ev.Timestamp,
	}

	if w.reader != nil && ev.Kind != amqp.EventDeleted {
		t, err := w.reader.Get(ctx, ev.ID)
		switch {
		case errors.Is(err, core.ErrNotFound):
			// Deleted after the event was published.
			attrs = append(attrs, "current_state", "gone")
		case err != nil:
			return fmt.Errorf("load transaction %d: %w", ev.ID, err)
		default:
			attrs = append(attrs,
				"title", t.Title,
				"amount", t.Amount.String(),
				"transaction_type", t.Type,
				"category", t.Category,
				"date", t.Date.String())
		}
	}

	slog.InfoContext(ctx, "Transaction event received", attrs...)

	w.seen.Set(ev.EventID, struct{}{})
	w.mu.Lock()
	w.counts[ev.Kind]++
	w.mu.Unlock()
	return nil
}

// Stats is a snapshot of processed events.
type Stats struct {
	Created    int64
	Updated    int64
	Deleted    int64
	Duplicates int64
}

func (w *EventWorker) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Stats{
		Created:    w.counts[amqp.EventCreated],
		Updated:    w.counts[amqp.EventUpdated],
		Deleted:    w.counts[amqp.EventDeleted],
		Duplicates: atomic.LoadInt64(&w.dupes),
	}
}
