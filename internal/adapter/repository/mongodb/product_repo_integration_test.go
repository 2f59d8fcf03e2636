package mongodb

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/gomarket/catalog-service/internal/domain"
	"github.com/gomarket/catalog-service/internal/platform/logger"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	testDBClient *mongo.Client
	testRepo     *ProductRepository
)

const testDatabaseName = "test_catalog_db"

// TestMain starts a throwaway MongoDB container for the repository tests.
func TestMain(m *testing.M) {
	testLogger := logger.NewLogger()

	pool, err := dockertest.NewPool("")
	if err != nil {
		log.Fatalf("Could not construct pool: %s", err)
	}
	if err := pool.Client.Ping(); err != nil {
		log.Fatalf("Could not connect to Docker: %s", err)
	}

	mongoResource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "mongo",
		Tag:        "5.0",
		Env: []string{
			"MONGO_INITDB_ROOT_USERNAME=root",
			"MONGO_INITDB_ROOT_PASSWORD=password",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		log.Fatalf("Could not start MongoDB resource: %s", err)
	}
	mongoURI := fmt.Sprintf("mongodb://root:password@%s/%s?authSource=admin",
		mongoResource.GetHostPort("27017/tcp"), testDatabaseName)

	if err := pool.Retry(func() error {
		var errRetry error
		testDBClient, errRetry = mongo.Connect(context.Background(), options.Client().ApplyURI(mongoURI))
		if errRetry != nil {
			return errRetry
		}
		return testDBClient.Ping(context.Background(), nil)
	}); err != nil {
		log.Fatalf("Could not connect to MongoDB: %s", err)
	}

	db := testDBClient.Database(testDatabaseName)
	testRepo, err = NewProductRepository(db, testLogger)
	if err != nil {
		log.Fatalf("Could not create test product repository: %s", err)
	}

	code := m.Run()

	if err := pool.Purge(mongoResource); err != nil {
		log.Fatalf("Could not purge MongoDB resource: %s", err)
	}
	os.Exit(code)
}

func clearProductsCollection(t *testing.T) {
	t.Helper()
	_, err := testDBClient.Database(testDatabaseName).Collection(productCollectionName).
		DeleteMany(context.Background(), bson.M{})
	require.NoError(t, err, "Failed to clear products collection")
}

func insertProduct(t *testing.T, name string, rating float64, createdAt time.Time) *domain.Product {
	t.Helper()
	p := &domain.Product{
		Name:      name,
		UserID:    primitive.NewObjectID().Hex(),
		Rating:    rating,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	require.NoError(t, testRepo.Create(context.Background(), p))
	return p
}

func TestCreateAndGetProduct(t *testing.T) {
	clearProductsCollection(t)
	ctx := context.Background()

	p := &domain.Product{
		Name:         "Logitech Mouse",
		UserID:       primitive.NewObjectID().Hex(),
		Image:        "/images/mouse.jpg",
		Brand:        "Logitech",
		Category:     "Electronics",
		Description:  "Wireless mouse",
		Price:        29.99,
		CountInStock: 7,
		CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
		UpdatedAt:    time.Now().UTC().Truncate(time.Millisecond),
	}
	require.NoError(t, testRepo.Create(ctx, p))
	require.NotEmpty(t, p.ID)
	assert.EqualValues(t, 1, p.Version)

	fetched, err := testRepo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Name, fetched.Name)
	assert.Equal(t, p.Price, fetched.Price)
	assert.EqualValues(t, 7, fetched.CountInStock)
	assert.NotNil(t, fetched.Reviews)
	assert.Empty(t, fetched.Reviews)
	assert.EqualValues(t, 1, fetched.Version)
}

func TestGetProductNotFound(t *testing.T) {
	clearProductsCollection(t)
	ctx := context.Background()

	_, err := testRepo.GetByID(ctx, primitive.NewObjectID().Hex())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// A malformed hex id is reported the same way.
	_, err = testRepo.GetByID(ctx, "not-a-hex-id")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSearchKeywordAndPagination(t *testing.T) {
	clearProductsCollection(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 12; i++ {
		insertProduct(t, fmt.Sprintf("iPhone %02d", i), 0, base.Add(time.Duration(i)*time.Minute))
	}
	insertProduct(t, "Chair", 0, base)

	products, total, err := testRepo.Search(ctx, domain.Filter{Keyword: "phone", Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 12, total)
	require.Len(t, products, 10)
	// Newest first.
	assert.Equal(t, "iPhone 11", products[0].Name)

	products, total, err = testRepo.Search(ctx, domain.Filter{Keyword: "phone", Page: 2, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 12, total)
	require.Len(t, products, 2)
	assert.Equal(t, "iPhone 00", products[1].Name)

	// Case-insensitive substring match.
	products, total, err = testRepo.Search(ctx, domain.Filter{Keyword: "IPHONE", Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 12, total)
	assert.Len(t, products, 10)

	// Empty keyword matches everything.
	_, total, err = testRepo.Search(ctx, domain.Filter{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 13, total)
}

func TestSearchRegexMetacharactersAreLiteral(t *testing.T) {
	clearProductsCollection(t)
	ctx := context.Background()

	insertProduct(t, "USB-C Cable (2m)", 0, time.Now().UTC())
	insertProduct(t, "USB-C Cable", 0, time.Now().UTC())

	products, total, err := testRepo.Search(ctx, domain.Filter{Keyword: "(2m)", Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, products, 1)
	assert.Equal(t, "USB-C Cable (2m)", products[0].Name)

	// A bare metacharacter matches nothing rather than everything.
	_, total, err = testRepo.Search(ctx, domain.Filter{Keyword: ".*", Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)
}

func TestTopRatedOrderAndTieBreak(t *testing.T) {
	clearProductsCollection(t)
	ctx := context.Background()
	now := time.Now().UTC()

	insertProduct(t, "Mid", 3, now)
	first4 := insertProduct(t, "FirstFour", 4, now)
	second4 := insertProduct(t, "SecondFour", 4, now)
	insertProduct(t, "Best", 5, now)

	top, err := testRepo.TopRated(ctx, 3)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, "Best", top[0].Name)
	// Equal ratings fall back to id ascending, so insertion order decides.
	assert.Equal(t, first4.ID, top[1].ID)
	assert.Equal(t, second4.ID, top[2].ID)
}

func TestSaveBumpsVersionAndDetectsConflict(t *testing.T) {
	clearProductsCollection(t)
	ctx := context.Background()

	p := insertProduct(t, "Camera", 0, time.Now().UTC())

	readerA, err := testRepo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	readerB, err := testRepo.GetByID(ctx, p.ID)
	require.NoError(t, err)

	readerA.Reviews = append(readerA.Reviews, domain.Review{
		UserID: "user-a", Name: "A", Rating: 5, Comment: "great", CreatedAt: time.Now().UTC(),
	})
	readerA.NumReviews, readerA.Rating = domain.AggregateReviews(readerA.Reviews)
	require.NoError(t, testRepo.Save(ctx, readerA))
	assert.EqualValues(t, 2, readerA.Version)

	// The second writer still holds version 1; its save must conflict instead
	// of silently dropping reader A's review.
	readerB.Reviews = append(readerB.Reviews, domain.Review{
		UserID: "user-b", Name: "B", Rating: 1, Comment: "bad", CreatedAt: time.Now().UTC(),
	})
	readerB.NumReviews, readerB.Rating = domain.AggregateReviews(readerB.Reviews)
	err = testRepo.Save(ctx, readerB)
	assert.ErrorIs(t, err, domain.ErrConflict)

	stored, err := testRepo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, stored.Reviews, 1)
	assert.Equal(t, "user-a", stored.Reviews[0].UserID)

	// After a fresh read the second writer succeeds.
	fresh, err := testRepo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	fresh.Reviews = append(fresh.Reviews, domain.Review{
		UserID: "user-b", Name: "B", Rating: 1, Comment: "bad", CreatedAt: time.Now().UTC(),
	})
	fresh.NumReviews, fresh.Rating = domain.AggregateReviews(fresh.Reviews)
	require.NoError(t, testRepo.Save(ctx, fresh))

	stored, err = testRepo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Reviews, 2)
	assert.EqualValues(t, 3, stored.Version)
}

func TestSaveVanishedProduct(t *testing.T) {
	clearProductsCollection(t)
	ctx := context.Background()

	p := insertProduct(t, "Camera", 0, time.Now().UTC())
	fetched, err := testRepo.GetByID(ctx, p.ID)
	require.NoError(t, err)

	require.NoError(t, testRepo.Delete(ctx, p.ID))

	err = testRepo.Save(ctx, fetched)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteProduct(t *testing.T) {
	clearProductsCollection(t)
	ctx := context.Background()

	p := insertProduct(t, "Camera", 0, time.Now().UTC())
	require.NoError(t, testRepo.Delete(ctx, p.ID))

	_, err := testRepo.GetByID(ctx, p.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, testRepo.Delete(ctx, p.ID), domain.ErrNotFound)
	assert.ErrorIs(t, testRepo.Delete(ctx, "not-a-hex-id"), domain.ErrNotFound)
}
