package domain

import "context"

// ProductRepository defines the interface for product persistence. Methods
// operate on the clean domain.Product entity, without any knowledge of
// database-specific tags or structures.
type ProductRepository interface {
	// Create inserts a new product and assigns its ID.
	Create(ctx context.Context, product *Product) error

	// GetByID returns ErrNotFound when the id does not resolve to a record.
	GetByID(ctx context.Context, id string) (*Product, error)

	// Search returns one page of products matching the filter plus the total
	// matching count. Default order is stable: newest first, id as tie-break.
	Search(ctx context.Context, filter Filter) ([]*Product, int64, error)

	// TopRated returns up to limit products ordered by rating descending,
	// ties broken by id ascending.
	TopRated(ctx context.Context, limit int32) ([]*Product, error)

	// Save persists the full record conditionally on the product's current
	// Version and bumps it. Returns ErrConflict when the stored version no
	// longer matches, ErrNotFound when the record is gone.
	Save(ctx context.Context, product *Product) error

	// Delete removes a product and its embedded reviews. ErrNotFound when
	// the id does not resolve to a record.
	Delete(ctx context.Context, id string) error
}
