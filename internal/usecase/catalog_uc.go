package usecase

import (
	"context"
	"fmt"

	"github.com/gomarket/catalog-service/internal/domain"
	"github.com/gomarket/catalog-service/internal/platform/logger"
	"go.uber.org/zap"
)

const (
	// searchPageSize is fixed: every search result page holds up to 10 items.
	searchPageSize = 10
	// defaultTopLimit is the number of products returned by TopProducts when
	// the caller does not ask for a specific limit.
	defaultTopLimit = 3
)

// CatalogUsecase implements the read side of the catalog: listing, search,
// pagination and top-N ranking. Every call re-queries the repository; there
// is deliberately no cache in front of it.
type CatalogUsecase struct {
	repo   domain.ProductRepository
	logger *logger.Logger
}

// NewCatalogUsecase creates a new CatalogUsecase.
func NewCatalogUsecase(repo domain.ProductRepository, log *logger.Logger) *CatalogUsecase {
	return &CatalogUsecase{
		repo:   repo,
		logger: log.Named("CatalogUsecase"),
	}
}

// ProductPage is one page of search results.
type ProductPage struct {
	Items []*domain.Product
	Page  int32
	Pages int32 // total pages for the matching set
}

// SearchProducts returns one fixed-size page of products whose name contains
// the keyword (case-insensitive). Page numbers are 1-indexed; anything below 1
// falls back to 1, and a page past the end yields an empty item list rather
// than an error.
func (uc *CatalogUsecase) SearchProducts(ctx context.Context, keyword string, page int32) (*ProductPage, error) {
	if page < 1 {
		page = 1
	}
	uc.logger.Debug("Searching products", zap.String("keyword", keyword), zap.Int32("page", page))

	items, total, err := uc.repo.Search(ctx, domain.Filter{
		Keyword: keyword,
		Page:    page,
		Limit:   searchPageSize,
	})
	if err != nil {
		uc.logger.Error("Failed to search products", zap.Error(err), zap.String("keyword", keyword))
		return nil, fmt.Errorf("%w: search failed: %v", domain.ErrRepository, err)
	}

	pages := int32((total + searchPageSize - 1) / searchPageSize)
	return &ProductPage{Items: items, Page: page, Pages: pages}, nil
}

// GetProduct retrieves a single product by id. A missing product surfaces as
// domain.ErrNotFound; it is never retried here.
func (uc *CatalogUsecase) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	uc.logger.Debug("Getting product by ID", zap.String("product_id", id))
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		uc.logger.Warn("Failed to get product", zap.Error(err), zap.String("product_id", id))
		return nil, err
	}
	return product, nil
}

// TopProducts returns the highest-rated products, rating descending. Equal
// ratings are ordered by id ascending, so the result is deterministic.
// A non-positive limit falls back to the default of 3.
func (uc *CatalogUsecase) TopProducts(ctx context.Context, limit int32) ([]*domain.Product, error) {
	if limit <= 0 {
		limit = defaultTopLimit
	}
	uc.logger.Debug("Getting top rated products", zap.Int32("limit", limit))

	products, err := uc.repo.TopRated(ctx, limit)
	if err != nil {
		uc.logger.Error("Failed to get top rated products", zap.Error(err))
		return nil, fmt.Errorf("%w: top rated query failed: %v", domain.ErrRepository, err)
	}
	return products, nil
}
