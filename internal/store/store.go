// Package store is the persistence boundary of the harvesting engine. The
// engine only ever talks to these interfaces; one implementation writes
// MySQL directly, another publishes to Kafka for a downstream consumer.

package store

import (
	"context"

	"github.com/minhlq/github-harvester/internal/model"
)

// CandidateFilter bounds the phase 2 candidate selection.
type CandidateFilter = model.CandidateFilter

// Writer is the capability every backend must provide: durable,
// idempotent writes for both phases.
type Writer interface {
	// BulkUpsert stores discovered entities with update-on-conflict
	// semantics keyed on the external identifier.
	BulkUpsert(ctx context.Context, repos []model.Repo) (int64, error)

	// UpdateDetails applies one enrichment result to an already stored
	// entity, never clearing basic fields.
	UpdateDetails(ctx context.Context, githubID int64, fields map[string]interface{}) (int64, error)
}

// Store adds the read-side capabilities phase 2 and run reporting need.
// Only backends with query support implement it.
type Store interface {
	Writer

	// Candidates selects entities eligible for enrichment, best first.
	Candidates(ctx context.Context, filter CandidateFilter) ([]model.Repo, error)

	// SaveRunStat records one run's aggregate counts.
	SaveRunStat(ctx context.Context, stat *model.RunStat) error
}
