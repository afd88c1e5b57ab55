package store

import (
	"context"
	"time"

	"github.com/sells-group/eventparse/internal/model"
)

// RecordFilter specifies criteria for listing parse records.
type RecordFilter struct {
	Source        string    `json:"source,omitempty"`
	MinConfidence float64   `json:"min_confidence,omitempty"`
	Since         time.Time `json:"since,omitempty"`
	Limit         int       `json:"limit,omitempty"`
	Offset        int       `json:"offset,omitempty"`
}

// Store defines the persistence interface for parse outcomes and the
// known-venues list.
type Store interface {
	// Parse records
	SaveResult(ctx context.Context, source, input string, result model.ParseResult) (*model.ParseRecord, error)
	SaveResults(ctx context.Context, records []model.ParseRecord) (int, error)
	GetResult(ctx context.Context, id string) (*model.ParseRecord, error)
	ListResults(ctx context.Context, filter RecordFilter) ([]model.ParseRecord, error)
	DeleteResultsBefore(ctx context.Context, cutoff time.Time) (int, error)

	// Known venues
	UpsertKnownVenues(ctx context.Context, venues []model.KnownVenue) (int, error)
	ListKnownVenues(ctx context.Context) ([]model.KnownVenue, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
