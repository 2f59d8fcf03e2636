package usecase

import (
	"context"
	"testing"

	"github.com/gomarket/catalog-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAdminFixture(t *testing.T) (*AdminUsecase, *memRepo, *fakePublisher) {
	t.Helper()
	repo := newMemRepo()
	pub := &fakePublisher{}
	uc := NewAdminUsecase(repo, pub, newTestMetrics(), newTestLogger())
	return uc, repo, pub
}

func TestCreateProductStubDefaults(t *testing.T) {
	uc, repo, pub := newAdminFixture(t)

	product, err := uc.CreateProduct(context.Background(), "admin1")
	require.NoError(t, err)
	require.NotEmpty(t, product.ID)
	assert.Equal(t, "admin1", product.UserID)
	assert.Equal(t, domain.StubName, product.Name)
	assert.Equal(t, domain.StubImage, product.Image)
	assert.Equal(t, domain.StubBrand, product.Brand)
	assert.Equal(t, domain.StubCategory, product.Category)
	assert.Equal(t, domain.StubDescription, product.Description)
	assert.Zero(t, product.Price)
	assert.Zero(t, product.CountInStock)
	assert.Zero(t, product.NumReviews)
	assert.Zero(t, product.Rating)
	assert.Empty(t, product.Reviews)

	// The stub is persisted and readable right away.
	stored, err := repo.GetByID(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, product.Name, stored.Name)

	assert.Equal(t, []string{"catalog.product.created"}, pub.published())
}

func TestCreateProductRequiresOwner(t *testing.T) {
	uc, _, pub := newAdminFixture(t)

	_, err := uc.CreateProduct(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, pub.published())
}

func TestUpdateProductOverwritesAllFields(t *testing.T) {
	uc, repo, pub := newAdminFixture(t)
	created, err := uc.CreateProduct(context.Background(), "admin1")
	require.NoError(t, err)

	updated, err := uc.UpdateProduct(context.Background(), created.ID, UpdateProductInput{
		Name:         "AirPods Pro",
		Price:        249.99,
		Description:  "Wireless earbuds",
		Image:        "/images/airpods.jpg",
		Brand:        "Apple",
		Category:     "Electronics",
		CountInStock: 12,
	})
	require.NoError(t, err)
	assert.Equal(t, "AirPods Pro", updated.Name)
	assert.Equal(t, 249.99, updated.Price)
	assert.EqualValues(t, 12, updated.CountInStock)

	// Zero values overwrite too; this is a full replacement, not a merge.
	updated, err = uc.UpdateProduct(context.Background(), created.ID, UpdateProductInput{
		Name:         "AirPods Pro",
		Price:        0,
		Description:  "Wireless earbuds",
		Image:        "/images/airpods.jpg",
		Brand:        "Apple",
		Category:     "Electronics",
		CountInStock: 0,
	})
	require.NoError(t, err)
	assert.Zero(t, updated.Price)
	assert.Zero(t, updated.CountInStock)

	stored, err := repo.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Zero(t, stored.Price)
	assert.Zero(t, stored.CountInStock)
	// Ownership and review aggregates are not editable through update.
	assert.Equal(t, "admin1", stored.UserID)

	assert.Equal(t, []string{
		"catalog.product.created",
		"catalog.product.updated",
		"catalog.product.updated",
	}, pub.published())
}

func TestUpdateProductValidation(t *testing.T) {
	uc, _, _ := newAdminFixture(t)
	created, err := uc.CreateProduct(context.Background(), "admin1")
	require.NoError(t, err)

	_, err = uc.UpdateProduct(context.Background(), created.ID, UpdateProductInput{Name: "X", Price: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.UpdateProduct(context.Background(), created.ID, UpdateProductInput{Name: "X", CountInStock: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUpdateProductNotFound(t *testing.T) {
	uc, _, _ := newAdminFixture(t)

	_, err := uc.UpdateProduct(context.Background(), "missing", UpdateProductInput{Name: "X"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateProductRetriesOnVersionConflict(t *testing.T) {
	repo := newMemRepo()
	pub := &fakePublisher{}
	product := &domain.Product{Name: "Camera", UserID: "admin1"}
	require.NoError(t, repo.Create(context.Background(), product))

	wrapped := &conflictingRepo{ProductRepository: repo, conflicts: updateAttempts - 1}
	uc := NewAdminUsecase(wrapped, pub, newTestMetrics(), newTestLogger())

	updated, err := uc.UpdateProduct(context.Background(), product.ID, UpdateProductInput{
		Name: "Camera v2", Price: 99, Description: "d", Image: "i", Brand: "b", Category: "c", CountInStock: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, "Camera v2", updated.Name)

	// Exhausted retries surface the conflict.
	exhausted := &conflictingRepo{ProductRepository: repo, conflicts: updateAttempts}
	uc = NewAdminUsecase(exhausted, pub, newTestMetrics(), newTestLogger())
	_, err = uc.UpdateProduct(context.Background(), product.ID, UpdateProductInput{Name: "Camera v3"})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestDeleteProduct(t *testing.T) {
	uc, repo, pub := newAdminFixture(t)
	created, err := uc.CreateProduct(context.Background(), "admin1")
	require.NoError(t, err)

	require.NoError(t, uc.DeleteProduct(context.Background(), created.ID))

	_, err = repo.GetByID(context.Background(), created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Deleting again reports not found, not a silent no-op.
	err = uc.DeleteProduct(context.Background(), created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.Equal(t, []string{
		"catalog.product.created",
		"catalog.product.deleted",
	}, pub.published())
}
