package storage

import (
	"context"

	"tracker/internal/core"
)

// Ports for persistence adapters.
type (
	TransactionWriter interface {
		// Create persists t and returns it with its assigned ID.
		Create(ctx context.Context, t core.Transaction) (core.Transaction, error)
		// Update replaces the stored row with the same ID.
		Update(ctx context.Context, t core.Transaction) (core.Transaction, error)
		Delete(ctx context.Context, id int64) error
	}

	TransactionReader interface {
		Get(ctx context.Context, id int64) (core.Transaction, error)
		// List returns every transaction matching f, most recent first.
		List(ctx context.Context, f core.ListFilter) ([]core.Transaction, error)
	}

	// StatsReader provides aggregated monthly totals.
	StatsReader interface {
		// MonthlyStats returns one row per month that has transactions,
		// most recent month first.
		MonthlyStats(ctx context.Context) ([]core.MonthlyStats, error)
		// MonthSummary returns totals for a single month; empty months
		// yield zero totals rather than an error.
		MonthSummary(ctx context.Context, year, month int) (core.MonthlyStats, error)
	}

	Repository interface {
		TransactionWriter
		TransactionReader
		StatsReader
		Ping(ctx context.Context) error
		Close() error
	}
)
