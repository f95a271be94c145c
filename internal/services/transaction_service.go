package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"tracker/internal/amqp"
	"tracker/internal/cache"
	"tracker/internal/core"
	applog "tracker/internal/log"
	"tracker/internal/storage"
)

const (
	statsCacheKey      = "monthly_stats"
	summaryCacheKey    = "summary:"
	aggregateCacheSize = 64
)

// EventPublisher is satisfied by *amqp.Client.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, ev *amqp.TransactionEvent) error
}

// TransactionService orchestrates transaction writes, aggregate caching and
// change notifications on top of a storage.Repository.
type TransactionService struct {
	repo      storage.Repository
	publisher EventPublisher
	cache     *cache.LRUCache[[]core.MonthlyStats]
	group     singleflight.Group
	// generation increments on every write; loads started before a write
	// are not cached.
	generation atomic.Uint64
	now        func() time.Time
}

type Option func(*TransactionService)

// WithPublisher enables change events. A nil publisher disables them.
func WithPublisher(p EventPublisher) Option {
	return func(s *TransactionService) { s.publisher = p }
}

// WithClock overrides the clock used for timestamps and the current month.
func WithClock(now func() time.Time) Option {
	return func(s *TransactionService) { s.now = now }
}

// WithCacheTTL sets how long aggregates are cached. Zero disables caching.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *TransactionService) {
		if ttl <= 0 {
			s.cache = nil
			return
		}
		s.cache = cache.NewLRUCache[[]core.MonthlyStats](aggregateCacheSize, ttl)
	}
}

func NewTransactionService(repo storage.Repository, opts ...Option) *TransactionService {
	s := &TransactionService{
		repo:  repo,
		cache: cache.NewLRUCache[[]core.MonthlyStats](aggregateCacheSize, 5*time.Minute),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Cache exposes the aggregate cache so it can be registered for cleanup.
// It returns nil when caching is disabled.
func (s *TransactionService) Cache() *cache.LRUCache[[]core.MonthlyStats] {
	return s.cache
}

// Create validates the patch as a complete transaction and stores it.
func (s *TransactionService) Create(ctx context.Context, p core.TransactionPatch) (core.Transaction, error) {
	t := p.Apply(core.Transaction{})
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	now := s.now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	saved, err := s.repo.Create(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	s.afterWrite(ctx, amqp.EventCreated, saved)

	logWrite(ctx, applog.OpCreate, "Transaction created", saved)

	return saved, nil
}

func (s *TransactionService) Get(ctx context.Context, id int64) (core.Transaction, error) {
	return s.repo.Get(ctx, id)
}

func (s *TransactionService) List(ctx context.Context, f core.ListFilter) ([]core.Transaction, error) {
	return s.repo.List(ctx, f)
}

// Update applies the patch to the stored transaction. For a full update the
// caller is expected to supply every writable field.
func (s *TransactionService) Update(ctx context.Context, id int64, p core.TransactionPatch) (core.Transaction, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return core.Transaction{}, err
	}

	t := p.Apply(current)
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	t.UpdatedAt = s.now().UTC()

	saved, err := s.repo.Update(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	s.afterWrite(ctx, amqp.EventUpdated, saved)

	logWrite(ctx, applog.OpUpdate, "Transaction updated", saved)

	return saved, nil
}

func (s *TransactionService) Delete(ctx context.Context, id int64) error {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	s.afterWrite(ctx, amqp.EventDeleted, current)

	logWrite(ctx, applog.OpDelete, "Transaction deleted", current)
	return nil
}

// MonthlyStats returns per-month totals over every stored transaction.
func (s *TransactionService) MonthlyStats(ctx context.Context) ([]core.MonthlyStats, error) {
	return s.cached(ctx, statsCacheKey, func(ctx context.Context) ([]core.MonthlyStats, error) {
		return s.repo.MonthlyStats(ctx)
	})
}

// CurrentMonthSummary returns the totals of the month containing now.
func (s *TransactionService) CurrentMonthSummary(ctx context.Context) (core.MonthlyStats, error) {
	now := s.now().UTC()
	year, month := now.Year(), int(now.Month())

	rows, err := s.cached(ctx, summaryCacheKey+core.MonthKey(year, month), func(ctx context.Context) ([]core.MonthlyStats, error) {
		sum, err := s.repo.MonthSummary(ctx, year, month)
		if err != nil {
			return nil, err
		}
		return []core.MonthlyStats{sum}, nil
	})
	if err != nil {
		return core.MonthlyStats{}, err
	}
	return rows[0], nil
}

// Ping reports whether storage is reachable.
func (s *TransactionService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// cached serves key from the aggregate cache, coalescing concurrent misses.
func (s *TransactionService) cached(ctx context.Context, key string, load func(context.Context) ([]core.MonthlyStats, error)) ([]core.MonthlyStats, error) {
	if s.cache == nil {
		return load(ctx)
	}
	if rows, ok := s.cache.Get(key); ok {
		return rows, nil
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		gen := s.generation.Load()
		rows, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if s.generation.Load() == gen {
			s.cache.Set(key, rows)
		}
		return rows, nil
	})
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	return v.([]core.MonthlyStats), nil
}

func (s *TransactionService) afterWrite(ctx context.Context, kind amqp.EventKind, t core.Transaction) {
	s.generation.Add(1)
	if s.cache != nil {
		s.cache.Purge()
	}
	// Later reads must not join a load that started before this write.
	s.group.Forget(statsCacheKey)
	s.group.Forget(summaryCacheKey + t.Date.MonthKey())

	if s.publisher == nil {
		return
	}
	ev := amqp.NewTransactionEvent(kind, t.ID, t.Date.MonthKey())
	if err := s.publisher.PublishTransactionEvent(ctx, ev); err != nil {
		applog.FromContext(ctx).WithComponent(applog.ComponentEvents).ErrorContext(ctx,
			"Failed to publish transaction event",
			applog.FieldTransactionID, t.ID,
			applog.FieldMonth, t.Date.MonthKey(),
			"kind", kind,
			applog.FieldError, err)
	}
}

func logWrite(ctx context.Context, op, msg string, t core.Transaction) {
	fields := applog.NewFields().
		WithOperation(op).
		WithTransaction(t.ID, t.Amount.Cents, string(t.Type), string(t.Category))
	applog.FromContext(ctx).WithComponent(applog.ComponentAPI).InfoContext(ctx, msg, fields.ToSlice()...)
}
