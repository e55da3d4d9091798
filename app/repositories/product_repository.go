package repositories

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/poppys-produce/backend/app/models"
	"github.com/poppys-produce/backend/pkg/database"
	"github.com/poppys-produce/backend/pkg/metrics"
)

// ProductRepository handles database operations for Product documents.
// The catalog is read-only from the API's perspective; writes happen
// through the seed command and external tooling.
type ProductRepository struct {
	col *mongo.Collection
}

func NewProductRepository() *ProductRepository {
	return &ProductRepository{col: database.Products()}
}

// All returns the full catalog sorted by name.
func (r *ProductRepository) All(ctx context.Context) ([]models.Product, error) {
	defer metrics.ObserveMongoOp("products.all", time.Now())

	cur, err := r.col.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("products: all: %w", err)
	}
	var products []models.Product
	if err := cur.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("products: decode: %w", err)
	}
	return products, nil
}

// Seed inserts products that are not already present, keyed by name.
func (r *ProductRepository) Seed(ctx context.Context, products []models.Product) (int, error) {
	defer metrics.ObserveMongoOp("products.seed", time.Now())

	inserted := 0
	for _, p := range products {
		res, err := r.col.UpdateOne(ctx,
			bson.M{"name": p.Name},
			bson.M{"$setOnInsert": bson.M{"name": p.Name, "isNew": p.IsNew}},
			options.Update().SetUpsert(true))
		if err != nil {
			return inserted, fmt.Errorf("products: seed %q: %w", p.Name, err)
		}
		if res.UpsertedCount > 0 {
			inserted++
		}
	}
	return inserted, nil
}
