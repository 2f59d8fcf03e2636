package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gomarket/catalog-service/internal/domain"
	"github.com/gomarket/catalog-service/internal/platform/logger"
	"github.com/gomarket/catalog-service/internal/platform/metrics"
	"go.uber.org/zap"
)

// updateAttempts bounds the retry loop around version conflicts on update.
const updateAttempts = 3

// AdminUsecase implements the admin-only product mutations. Role checks live
// in the auth middleware; these methods assume the caller is an authorized
// admin already.
type AdminUsecase struct {
	repo    domain.ProductRepository
	pub     EventPublisher
	metrics *metrics.Manager
	logger  *logger.Logger
}

// NewAdminUsecase creates a new AdminUsecase.
func NewAdminUsecase(repo domain.ProductRepository, pub EventPublisher, m *metrics.Manager, log *logger.Logger) *AdminUsecase {
	return &AdminUsecase{
		repo:    repo,
		pub:     pub,
		metrics: m,
		logger:  log.Named("AdminUsecase"),
	}
}

// UpdateProductInput carries the full replacement field set for a product.
// Every field overwrites the stored value unconditionally; there is no
// partial-merge. The HTTP layer rejects requests that omit any of them.
type UpdateProductInput struct {
	Name         string
	Price        float64
	Description  string
	Image        string
	Brand        string
	Category     string
	CountInStock int32
}

// CreateProduct creates a stub product with placeholder defaults, owned by
// the given admin, and returns it immediately so the caller can edit it.
func (uc *AdminUsecase) CreateProduct(ctx context.Context, ownerUserID string) (*domain.Product, error) {
	uc.logger.Info("Creating stub product", zap.String("owner_user_id", ownerUserID))

	product, err := domain.NewStubProduct(ownerUserID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	if err := uc.repo.Create(ctx, product); err != nil {
		uc.logger.Error("Failed to create product", zap.Error(err))
		return nil, fmt.Errorf("%w: create failed: %v", domain.ErrRepository, err)
	}

	uc.metrics.ProductsCreatedTotal.Inc()

	eventData := map[string]interface{}{
		"product_id": product.ID,
		"user_id":    ownerUserID,
		"created_at": product.CreatedAt.Format(time.RFC3339Nano),
	}
	if err := uc.pub.Publish(ctx, "catalog.product.created", eventData); err != nil {
		uc.logger.Warn("Failed to publish catalog.product.created event",
			zap.Error(err), zap.String("product_id", product.ID))
	}

	uc.logger.Info("Stub product created", zap.String("product_id", product.ID))
	return product, nil
}

// UpdateProduct overwrites the editable fields of a product with the supplied
// values and persists the record. A concurrent modification triggers a fresh
// fetch and re-apply, a bounded number of times.
func (uc *AdminUsecase) UpdateProduct(ctx context.Context, id string, in UpdateProductInput) (*domain.Product, error) {
	uc.logger.Info("Updating product", zap.String("product_id", id))

	if in.Price < 0 {
		return nil, fmt.Errorf("%w: price cannot be negative", domain.ErrInvalidInput)
	}
	if in.CountInStock < 0 {
		return nil, fmt.Errorf("%w: countInStock cannot be negative", domain.ErrInvalidInput)
	}

	var lastErr error
	for attempt := 1; attempt <= updateAttempts; attempt++ {
		product, err := uc.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		product.Name = in.Name
		product.Price = in.Price
		product.Description = in.Description
		product.Image = in.Image
		product.Brand = in.Brand
		product.Category = in.Category
		product.CountInStock = in.CountInStock
		product.UpdatedAt = time.Now().UTC()

		err = uc.repo.Save(ctx, product)
		if errors.Is(err, domain.ErrConflict) {
			uc.logger.Warn("Version conflict on product update, retrying",
				zap.String("product_id", id), zap.Int("attempt", attempt))
			lastErr = err
			continue
		}
		if err != nil {
			return nil, err
		}

		uc.metrics.ProductUpdatesTotal.Inc()

		eventData := map[string]interface{}{
			"product_id": product.ID,
			"updated_at": product.UpdatedAt.Format(time.RFC3339Nano),
		}
		if err := uc.pub.Publish(ctx, "catalog.product.updated", eventData); err != nil {
			uc.logger.Warn("Failed to publish catalog.product.updated event",
				zap.Error(err), zap.String("product_id", product.ID))
		}

		uc.logger.Info("Product updated", zap.String("product_id", product.ID))
		return product, nil
	}

	uc.logger.Error("Product update retries exhausted", zap.String("product_id", id), zap.Error(lastErr))
	return nil, fmt.Errorf("%w: product update retries exhausted", domain.ErrConflict)
}

// DeleteProduct removes a product and, with it, its embedded review sequence.
func (uc *AdminUsecase) DeleteProduct(ctx context.Context, id string) error {
	uc.logger.Info("Deleting product", zap.String("product_id", id))

	// Fetch first so a missing product is reported as not found rather than
	// a silent no-op delete.
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}

	uc.metrics.ProductDeletesTotal.Inc()

	eventData := map[string]interface{}{
		"product_id": product.ID,
		"deleted_at": time.Now().UTC().Format(time.RFC3339Nano),
	}
	if err := uc.pub.Publish(ctx, "catalog.product.deleted", eventData); err != nil {
		uc.logger.Warn("Failed to publish catalog.product.deleted event",
			zap.Error(err), zap.String("product_id", product.ID))
	}

	uc.logger.Info("Product deleted", zap.String("product_id", id))
	return nil
}
