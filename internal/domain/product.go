package domain

import (
	"errors"
	"time"
)

// Stub defaults for newly created products. Admins create a placeholder
// record first and edit the fields afterwards.
const (
	StubName        = "Sample name"
	StubImage       = "/images/sample.jpg"
	StubBrand       = "Sample Brand"
	StubCategory    = "Sample Category"
	StubDescription = "Sample Description"
)

// Review is a single user's review of a product. Reviews live embedded in
// their parent Product in submission order; they are appended through the
// review use case only and are never edited or removed individually.
type Review struct {
	UserID    string    // ID of the authenticated author
	Name      string    // author display name, denormalized at write time
	Rating    int32     // 1-5 stars
	Comment   string
	CreatedAt time.Time
}

// Product is a catalog entry. NumReviews and Rating are derived from the
// Reviews slice by AggregateReviews and must never be written by hand.
type Product struct {
	ID           string // Mongo ObjectID hex
	UserID       string // admin who created the product
	Name         string
	Image        string
	Brand        string
	Category     string
	Description  string
	Price        float64
	CountInStock int32
	NumReviews   int32   // derived: len(Reviews)
	Rating       float64 // derived: mean of review ratings, 0 when none
	Reviews      []Review
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Version      int64 // optimistic locking
}

// NewStubProduct builds the placeholder record for the create-then-edit
// workflow, owned by the given admin user.
func NewStubProduct(ownerUserID string) (*Product, error) {
	if ownerUserID == "" {
		return nil, errors.New("owner user ID cannot be empty")
	}
	now := time.Now().UTC()
	return &Product{
		UserID:      ownerUserID,
		Name:        StubName,
		Image:       StubImage,
		Brand:       StubBrand,
		Category:    StubCategory,
		Description: StubDescription,
		CreatedAt:   now,
		UpdatedAt:   now,
		Version:     1,
	}, nil
}

// ReviewedBy reports whether the given user already has a review on the
// product. One review per (product, user) is enforced at the service layer,
// not by a storage constraint.
func (p *Product) ReviewedBy(userID string) bool {
	for _, r := range p.Reviews {
		if r.UserID == userID {
			return true
		}
	}
	return false
}

// Filter holds parameters for searching products.
type Filter struct {
	Keyword string // case-insensitive substring match on Name; empty matches all
	Page    int32  // 1-indexed
	Limit   int32
}
