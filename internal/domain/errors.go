package domain

import "errors"

var (
	// ErrNotFound indicates that a requested product was not found.
	ErrNotFound = errors.New("product not found")
	// ErrInvalidInput indicates that the provided input data is invalid.
	ErrInvalidInput = errors.New("invalid input data")
	// ErrAlreadyReviewed indicates that the user already reviewed this product.
	ErrAlreadyReviewed = errors.New("product already reviewed by this user")
	// ErrConflict indicates a concurrent modification detected by the
	// versioned write; callers may retry.
	ErrConflict = errors.New("conflict: product was modified by another process")
	// ErrRepository indicates a generic data persistence error.
	ErrRepository = errors.New("repository error")
)
