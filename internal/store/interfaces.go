package store

import (
	"context"

	"product-catalog-client/internal/domain"
)

// LocalStore defines the on-device operations for product records.
// Implementations are safe for concurrent use.
type LocalStore interface {
	// Create appends rec atomically and fills in its ID and CreatedAt.
	// Either the row is durably written or nothing changes.
	Create(ctx context.Context, rec *domain.LocalProductRecord) error
	// ListAll returns every record in storage-native order. On failure it returns
	// an empty, non-nil slice together with a storage error.
	ListAll(ctx context.Context) ([]domain.LocalProductRecord, error)
	// Delete removes the record with the given storage ID. Deleting a missing
	// record is a no-op.
	Delete(ctx context.Context, id int64) error
	// Close releases the underlying handle.
	Close() error
}
