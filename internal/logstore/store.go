package logstore

import (
	"context"

	"github.com/starford/vos/internal/models"
)

// Filter narrows aggregate queries. Project matches ignore case; an empty
// field matches everything.
type Filter struct {
	Project  string
	Division string
}

// DivisionTotal is the hour sum for one division. Present is false when no
// row carries the division.
type DivisionTotal struct {
	Division string
	Hours    float64
	Present  bool
}

// Store is the read side used while rendering. Consumers depend on this
// interface rather than *DB so tests can substitute fixtures.
type Store interface {
	Count(ctx context.Context, f Filter) (int, error)
	Hours(ctx context.Context, f Filter) (float64, error)
	Days(ctx context.Context, f Filter) (int, error)
	DateRange(ctx context.Context, f Filter) (first, last string, err error)
	Divisions(ctx context.Context, project string) ([]DivisionTotal, error)
	HasProject(ctx context.Context, project string) (bool, error)
	Rows(ctx context.Context, limit int) ([]models.LogEntry, error)
}

// Verify *DB satisfies Store at compile time.
var _ Store = (*DB)(nil)
