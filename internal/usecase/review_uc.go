package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gomarket/catalog-service/internal/domain"
	"github.com/gomarket/catalog-service/internal/platform/logger"
	"github.com/gomarket/catalog-service/internal/platform/metrics"
	"go.uber.org/zap"
)

// EventPublisher publishes domain events to the message broker.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
}

// AuthenticatedUser is the identity the auth middleware extracted from the
// request. The core trusts it and does no credential verification of its own.
type AuthenticatedUser struct {
	ID   string
	Name string
	Role string
}

// submitReviewAttempts bounds the retry loop around version conflicts.
const submitReviewAttempts = 3

// ReviewUsecase appends reviews to products and keeps the derived rating
// fields consistent. It is the single mutation entry point for a product's
// review sequence.
type ReviewUsecase struct {
	repo    domain.ProductRepository
	pub     EventPublisher
	metrics *metrics.Manager
	logger  *logger.Logger
}

// NewReviewUsecase creates a new ReviewUsecase.
func NewReviewUsecase(repo domain.ProductRepository, pub EventPublisher, m *metrics.Manager, log *logger.Logger) *ReviewUsecase {
	return &ReviewUsecase{
		repo:    repo,
		pub:     pub,
		metrics: m,
		logger:  log.Named("ReviewUsecase"),
	}
}

// SubmitReview appends one review by the given user to the product and
// recomputes NumReviews and Rating over the updated sequence. The
// fetch-check-append-save sequence is serialized per product by the
// repository's versioned Save: on a version conflict the whole sequence is
// re-run against fresh state, a bounded number of times. Callers get an
// acknowledgment, not the updated product.
func (uc *ReviewUsecase) SubmitReview(ctx context.Context, productID string, user AuthenticatedUser, rating int32, comment string) error {
	uc.logger.Info("Submitting review",
		zap.String("product_id", productID),
		zap.String("user_id", user.ID),
		zap.Int32("rating", rating))

	if user.ID == "" {
		return fmt.Errorf("%w: user ID cannot be empty", domain.ErrInvalidInput)
	}
	if rating < 1 || rating > 5 {
		return fmt.Errorf("%w: rating must be between 1 and 5", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(comment) == "" {
		return fmt.Errorf("%w: comment cannot be empty", domain.ErrInvalidInput)
	}

	var lastErr error
	for attempt := 1; attempt <= submitReviewAttempts; attempt++ {
		product, err := uc.repo.GetByID(ctx, productID)
		if err != nil {
			return err
		}

		if product.ReviewedBy(user.ID) {
			uc.logger.Warn("Duplicate review rejected",
				zap.String("product_id", productID),
				zap.String("user_id", user.ID))
			return domain.ErrAlreadyReviewed
		}

		now := time.Now().UTC()
		product.Reviews = append(product.Reviews, domain.Review{
			UserID:    user.ID,
			Name:      user.Name,
			Rating:    rating,
			Comment:   comment,
			CreatedAt: now,
		})
		product.NumReviews, product.Rating = domain.AggregateReviews(product.Reviews)
		product.UpdatedAt = now

		err = uc.repo.Save(ctx, product)
		if errors.Is(err, domain.ErrConflict) {
			uc.logger.Warn("Version conflict on review save, retrying",
				zap.String("product_id", productID),
				zap.Int("attempt", attempt))
			lastErr = err
			continue
		}
		if err != nil {
			return err
		}

		uc.metrics.ReviewsCreatedTotal.Inc()

		eventData := map[string]interface{}{
			"product_id":  productID,
			"user_id":     user.ID,
			"rating":      rating,
			"num_reviews": product.NumReviews,
			"avg_rating":  product.Rating,
			"created_at":  now.Format(time.RFC3339Nano),
		}
		if err := uc.pub.Publish(ctx, "catalog.review.created", eventData); err != nil {
			// Non-critical: the review is persisted, only the event is lost.
			uc.logger.Warn("Failed to publish catalog.review.created event",
				zap.Error(err), zap.String("product_id", productID))
		}

		uc.logger.Info("Review submitted",
			zap.String("product_id", productID),
			zap.String("user_id", user.ID),
			zap.Int32("num_reviews", product.NumReviews),
			zap.Float64("rating", product.Rating))
		return nil
	}

	uc.logger.Error("Review submit retries exhausted",
		zap.String("product_id", productID),
		zap.String("user_id", user.ID),
		zap.Error(lastErr))
	return fmt.Errorf("%w: review submit retries exhausted", domain.ErrConflict)
}
