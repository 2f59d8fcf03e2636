package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/gomarket/catalog-service/internal/domain"
	"github.com/gomarket/catalog-service/internal/platform/logger"
	"github.com/gomarket/catalog-service/internal/platform/metrics"
)

// memRepo is an in-memory domain.ProductRepository with the same versioned
// save semantics as the MongoDB adapter, so the conflict and concurrency
// behavior of the use cases can be exercised without a database.
type memRepo struct {
	mu       sync.Mutex
	seq      int
	products map[string]*domain.Product
}

func newMemRepo() *memRepo {
	return &memRepo{products: make(map[string]*domain.Product)}
}

func cloneProduct(p *domain.Product) *domain.Product {
	clone := *p
	clone.Reviews = append([]domain.Review(nil), p.Reviews...)
	return &clone
}

func (r *memRepo) Create(_ context.Context, product *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if product.ID == "" {
		r.seq++
		product.ID = fmt.Sprintf("prod-%03d", r.seq)
	}
	if product.Version == 0 {
		product.Version = 1
	}
	r.products[product.ID] = cloneProduct(product)
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id string) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneProduct(p), nil
}

func (r *memRepo) Search(_ context.Context, filter domain.Filter) ([]*domain.Product, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []*domain.Product
	keyword := strings.ToLower(filter.Keyword)
	for _, p := range r.products {
		if keyword == "" || strings.Contains(strings.ToLower(p.Name), keyword) {
			matched = append(matched, cloneProduct(p))
		}
	}

	// Same stable default order as the MongoDB adapter.
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})

	total := int64(len(matched))
	if filter.Limit > 0 {
		start := int(filter.Limit) * int(filter.Page-1)
		if start < 0 {
			start = 0
		}
		if start >= len(matched) {
			return []*domain.Product{}, total, nil
		}
		end := start + int(filter.Limit)
		if end > len(matched) {
			end = len(matched)
		}
		matched = matched[start:end]
	}
	return matched, total, nil
}

func (r *memRepo) TopRated(_ context.Context, limit int32) ([]*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := make([]*domain.Product, 0, len(r.products))
	for _, p := range r.products {
		all = append(all, cloneProduct(p))
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Rating != all[j].Rating {
			return all[i].Rating > all[j].Rating
		}
		return all[i].ID < all[j].ID
	})
	if int(limit) < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *memRepo) Save(_ context.Context, product *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.products[product.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if stored.Version != product.Version {
		return domain.ErrConflict
	}
	product.Version++
	r.products[product.ID] = cloneProduct(product)
	return nil
}

func (r *memRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.products, id)
	return nil
}

// conflictingRepo wraps a repository and forces ErrConflict on the first n
// Save calls, to exercise the retry loops.
type conflictingRepo struct {
	domain.ProductRepository
	mu        sync.Mutex
	conflicts int
}

func (r *conflictingRepo) Save(ctx context.Context, product *domain.Product) error {
	r.mu.Lock()
	if r.conflicts > 0 {
		r.conflicts--
		r.mu.Unlock()
		return domain.ErrConflict
	}
	r.mu.Unlock()
	return r.ProductRepository.Save(ctx, product)
}

// fakePublisher records published events.
type fakePublisher struct {
	mu       sync.Mutex
	subjects []string
	err      error
}

func (p *fakePublisher) Publish(_ context.Context, subject string, _ interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	return p.err
}

func (p *fakePublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.subjects...)
}

func newTestMetrics() *metrics.Manager {
	return metrics.NewManager("test")
}

func newTestLogger() *logger.Logger {
	return logger.NewLogger()
}
