package domain

import "context"

// SaleRepository defines the interface for sale persistence. All
// persisted timestamps are normalized to UTC by the implementation.
type SaleRepository interface {
	// Create persists a new sale
	Create(ctx context.Context, sale *Sale) error

	// GetByID retrieves a sale by ID, nil when absent
	GetByID(ctx context.Context, id string) (*Sale, error)

	// GetAll retrieves sales matching the query, sorted by SaleDate
	GetAll(ctx context.Context, query SaleQuery) ([]*Sale, error)

	// Count returns the total number of sales matching the filter
	Count(ctx context.Context, filter *SaleFilter) (int64, error)

	// Update replaces an existing sale, reporting whether it was found
	Update(ctx context.Context, sale *Sale) (bool, error)

	// Delete cancels a sale in place, reporting whether it was found.
	// The record is retained with IsCancelled set.
	Delete(ctx context.Context, id string) (bool, error)

	// ExistsAndNotCancelled reports whether the sale exists and is
	// still active
	ExistsAndNotCancelled(ctx context.Context, id string) (bool, error)
}

// EventPublisher is the fire-and-forget notification sink for domain
// events. Failures are the caller's to log and swallow.
type EventPublisher interface {
	Publish(ctx context.Context, event DomainEvent) error

	// PublishBatch sends several events from one mutation in a single
	// write
	PublishBatch(ctx context.Context, events []DomainEvent) error
}
