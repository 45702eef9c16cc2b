package usage

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrPeriodNotFound = errors.New("usage: period not found")

// Store persists usage periods. Both operations must be safe under
// concurrent first use of a period.
type Store interface {
	// GetOrCreate returns the period, lazily creating it with a zero count.
	GetOrCreate(ctx context.Context, userID uuid.UUID, month, year int) (*Period, error)

	// Increment atomically adds one to the period's counter, creating the
	// row with count 1 when absent, and returns the post-increment period.
	Increment(ctx context.Context, userID uuid.UUID, month, year int) (*Period, error)
}
