package mongodb

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/gomarket/catalog-service/internal/domain"
	"github.com/gomarket/catalog-service/internal/platform/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const productCollectionName = "products"

// ProductRepository implements domain.ProductRepository using MongoDB.
// Writes go through a version-conditioned update so concurrent
// read-modify-write cycles on the same product cannot lose updates.
type ProductRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

// NewProductRepository creates a new MongoDB product repository and ensures
// its indexes.
func NewProductRepository(db *mongo.Database, log *logger.Logger) (*ProductRepository, error) {
	collection := db.Collection(productCollectionName)

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "name", Value: 1}}},                          // keyword search
		{Keys: bson.D{{Key: "rating", Value: -1}, {Key: "_id", Value: 1}}}, // top rated
		{Keys: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}}, // default listing order
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		// Indexes may already exist or be managed externally.
		log.Error("Failed to create indexes for products collection", zap.Error(err))
	} else {
		log.Info("Successfully ensured indexes for products collection")
	}

	return &ProductRepository{
		collection: collection,
		logger:     log.Named("ProductRepository"),
	}, nil
}

// Create inserts a new product and writes the generated ID back into the
// domain entity.
func (r *ProductRepository) Create(ctx context.Context, product *domain.Product) error {
	r.logger.Debug("Creating product in DB", zap.String("name", product.Name))

	doc, err := fromDomainProduct(product)
	if err != nil {
		return err
	}
	if doc.ID.IsZero() {
		doc.ID = primitive.NewObjectID()
	}
	if doc.Version == 0 {
		doc.Version = 1
	}
	if doc.Reviews == nil {
		doc.Reviews = []reviewDocument{}
	}

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		r.logger.Error("Failed to insert product into DB", zap.Error(err))
		return fmt.Errorf("db insert failed: %w", err)
	}

	product.ID = doc.ID.Hex()
	product.Version = doc.Version
	r.logger.Info("Product created in DB", zap.String("product_id", product.ID))
	return nil
}

// GetByID retrieves a product by its hex id. A malformed id is reported the
// same way as a missing record.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		r.logger.Warn("Invalid product id format", zap.String("product_id", id))
		return nil, domain.ErrNotFound
	}

	var doc productDocument
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("Failed to get product by ID from DB", zap.Error(err), zap.String("product_id", id))
		return nil, fmt.Errorf("db findone failed: %w", err)
	}
	return doc.toDomainProduct(), nil
}

// Search returns one page of products matching the filter plus the total
// matching count. The keyword is matched as a case-insensitive literal
// substring of the name; an empty keyword matches everything. Results are
// ordered newest first with id as the stable tie-break.
func (r *ProductRepository) Search(ctx context.Context, filter domain.Filter) ([]*domain.Product, int64, error) {
	query := bson.M{}
	if filter.Keyword != "" {
		query["name"] = bson.M{
			"$regex":   regexp.QuoteMeta(filter.Keyword),
			"$options": "i",
		}
	}

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		r.logger.Error("Failed to count products", zap.Error(err))
		return nil, 0, fmt.Errorf("db count failed: %w", err)
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})
	if filter.Limit > 0 {
		findOptions.SetLimit(int64(filter.Limit))
		if filter.Page > 0 {
			findOptions.SetSkip(int64(filter.Page-1) * int64(filter.Limit))
		}
	}

	cursor, err := r.collection.Find(ctx, query, findOptions)
	if err != nil {
		r.logger.Error("Failed to find products", zap.Error(err))
		return nil, 0, fmt.Errorf("db find failed: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []*productDocument
	if err = cursor.All(ctx, &docs); err != nil {
		r.logger.Error("Failed to decode products", zap.Error(err))
		return nil, 0, fmt.Errorf("db cursor all failed: %w", err)
	}

	return toDomainProducts(docs), total, nil
}

// TopRated returns up to limit products ordered by rating descending. Equal
// ratings are ordered by id ascending so the ranking is deterministic.
func (r *ProductRepository) TopRated(ctx context.Context, limit int32) ([]*domain.Product, error) {
	findOptions := options.Find().
		SetSort(bson.D{{Key: "rating", Value: -1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		r.logger.Error("Failed to find top rated products", zap.Error(err))
		return nil, fmt.Errorf("db find failed: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []*productDocument
	if err = cursor.All(ctx, &docs); err != nil {
		r.logger.Error("Failed to decode top rated products", zap.Error(err))
		return nil, fmt.Errorf("db cursor all failed: %w", err)
	}

	return toDomainProducts(docs), nil
}

// Save replaces the full record conditionally on the version the caller read,
// bumping it by one. A version mismatch on an existing record surfaces as
// domain.ErrConflict; a record that vanished surfaces as domain.ErrNotFound.
func (r *ProductRepository) Save(ctx context.Context, product *domain.Product) error {
	doc, err := fromDomainProduct(product)
	if err != nil {
		return err
	}
	if doc.ID.IsZero() {
		return errors.New("cannot save product without ID")
	}

	readVersion := doc.Version
	doc.Version = readVersion + 1

	result, err := r.collection.ReplaceOne(ctx,
		bson.M{"_id": doc.ID, "version": readVersion},
		doc,
	)
	if err != nil {
		r.logger.Error("Failed to save product in DB", zap.Error(err), zap.String("product_id", product.ID))
		return fmt.Errorf("db replace failed: %w", err)
	}

	if result.MatchedCount == 0 {
		count, err := r.collection.CountDocuments(ctx, bson.M{"_id": doc.ID})
		if err != nil {
			return fmt.Errorf("db count failed: %w", err)
		}
		if count == 0 {
			r.logger.Warn("Product vanished before save", zap.String("product_id", product.ID))
			return domain.ErrNotFound
		}
		r.logger.Warn("Version conflict on product save",
			zap.String("product_id", product.ID),
			zap.Int64("read_version", readVersion))
		return domain.ErrConflict
	}

	product.Version = doc.Version
	r.logger.Debug("Product saved in DB",
		zap.String("product_id", product.ID),
		zap.Int64("version", product.Version))
	return nil
}

// Delete removes a product and its embedded reviews.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrNotFound
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		r.logger.Error("Failed to delete product from DB", zap.Error(err), zap.String("product_id", id))
		return fmt.Errorf("db delete failed: %w", err)
	}
	if result.DeletedCount == 0 {
		return domain.ErrNotFound
	}

	r.logger.Info("Product deleted from DB", zap.String("product_id", id))
	return nil
}
