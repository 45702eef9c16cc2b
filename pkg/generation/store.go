package generation

import (
	"context"

	"github.com/google/uuid"

	"github.com/replyforge/replyforge/pkg/usage"
)

// Store persists generation audit records paired with usage accounting.
type Store interface {
	// RecordGeneration appends the audit record and increments the usage
	// counter for the record's period in a single atomic operation: either
	// both are recorded or neither is.
	RecordGeneration(ctx context.Context, rec *Record) (*usage.Period, error)

	// ListByUser returns the user's records, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Record, error)

	// CountByUser returns the total number of records for the user.
	CountByUser(ctx context.Context, userID uuid.UUID) (int64, error)
}
