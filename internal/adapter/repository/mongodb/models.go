package mongodb

import (
	"fmt"
	"time"

	"github.com/gomarket/catalog-service/internal/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// reviewDocument is the embedded storage shape of a review.
type reviewDocument struct {
	UserID    string    `bson:"user_id"`
	Name      string    `bson:"name"`
	Rating    int32     `bson:"rating"`
	Comment   string    `bson:"comment"`
	CreatedAt time.Time `bson:"created_at"`
}

// productDocument is the storage shape of a product. Reviews are embedded in
// submission order; version backs the conditional write in Save.
type productDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	UserID       string             `bson:"user_id"`
	Name         string             `bson:"name"`
	Image        string             `bson:"image"`
	Brand        string             `bson:"brand"`
	Category     string             `bson:"category"`
	Description  string             `bson:"description"`
	Price        float64            `bson:"price"`
	CountInStock int32              `bson:"count_in_stock"`
	NumReviews   int32              `bson:"num_reviews"`
	Rating       float64            `bson:"rating"`
	Reviews      []reviewDocument   `bson:"reviews"`
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"`
	Version      int64              `bson:"version"`
}

func fromDomainProduct(p *domain.Product) (*productDocument, error) {
	if p == nil {
		return nil, nil
	}

	var docID primitive.ObjectID
	if p.ID != "" {
		var err error
		docID, err = primitive.ObjectIDFromHex(p.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid product ID format '%s': %w", p.ID, err)
		}
	}

	reviews := make([]reviewDocument, 0, len(p.Reviews))
	for _, r := range p.Reviews {
		reviews = append(reviews, reviewDocument{
			UserID:    r.UserID,
			Name:      r.Name,
			Rating:    r.Rating,
			Comment:   r.Comment,
			CreatedAt: r.CreatedAt,
		})
	}

	return &productDocument{
		ID:           docID,
		UserID:       p.UserID,
		Name:         p.Name,
		Image:        p.Image,
		Brand:        p.Brand,
		Category:     p.Category,
		Description:  p.Description,
		Price:        p.Price,
		CountInStock: p.CountInStock,
		NumReviews:   p.NumReviews,
		Rating:       p.Rating,
		Reviews:      reviews,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
		Version:      p.Version,
	}, nil
}

func (d *productDocument) toDomainProduct() *domain.Product {
	if d == nil {
		return nil
	}

	reviews := make([]domain.Review, 0, len(d.Reviews))
	for _, r := range d.Reviews {
		reviews = append(reviews, domain.Review{
			UserID:    r.UserID,
			Name:      r.Name,
			Rating:    r.Rating,
			Comment:   r.Comment,
			CreatedAt: r.CreatedAt,
		})
	}

	return &domain.Product{
		ID:           d.ID.Hex(),
		UserID:       d.UserID,
		Name:         d.Name,
		Image:        d.Image,
		Brand:        d.Brand,
		Category:     d.Category,
		Description:  d.Description,
		Price:        d.Price,
		CountInStock: d.CountInStock,
		NumReviews:   d.NumReviews,
		Rating:       d.Rating,
		Reviews:      reviews,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
		Version:      d.Version,
	}
}

func toDomainProducts(docs []*productDocument) []*domain.Product {
	products := make([]*domain.Product, 0, len(docs))
	for _, doc := range docs {
		products = append(products, doc.toDomainProduct())
	}
	return products
}
