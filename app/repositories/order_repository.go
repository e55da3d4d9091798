package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/poppys-produce/backend/app/models"
	"github.com/poppys-produce/backend/pkg/apperr"
	"github.com/poppys-produce/backend/pkg/database"
	"github.com/poppys-produce/backend/pkg/metrics"
)

// OrderRepository handles database operations for Order documents.
type OrderRepository struct {
	col    *mongo.Collection
	client *mongo.Client
}

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{col: database.Orders(), client: database.Client()}
}

// Insert persists a new order and returns its hex id.
func (r *OrderRepository) Insert(ctx context.Context, order *models.Order) (string, error) {
	defer metrics.ObserveMongoOp("orders.insert", time.Now())

	res, err := r.col.InsertOne(ctx, order)
	if err != nil {
		return "", fmt.Errorf("orders: insert: %w", err)
	}
	oid := res.InsertedID.(primitive.ObjectID)
	order.ID = oid
	return oid.Hex(), nil
}

// FindByID looks up an order by its hex object id.
func (r *OrderRepository) FindByID(ctx context.Context, id string) (models.Order, error) {
	defer metrics.ObserveMongoOp("orders.findById", time.Now())

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.Order{}, apperr.NotFound(fmt.Sprintf("Order %s not found.", id))
	}

	var order models.Order
	err = r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Order{}, apperr.NotFound(fmt.Sprintf("Order %s not found.", id))
	}
	if err != nil {
		return models.Order{}, fmt.Errorf("orders: find by id: %w", err)
	}
	return order, nil
}

// ListByUser returns the caller's orders, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	defer metrics.ObserveMongoOp("orders.listByUser", time.Now())

	cur, err := r.col.Find(ctx, bson.M{"userId": userID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("orders: list by user: %w", err)
	}
	var orders []models.Order
	if err := cur.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("orders: decode: %w", err)
	}
	return orders, nil
}

// FindByUserAndStatus returns the caller's orders with the given status.
func (r *OrderRepository) FindByUserAndStatus(ctx context.Context, userID, status string) ([]models.Order, error) {
	defer metrics.ObserveMongoOp("orders.findByUserAndStatus", time.Now())

	cur, err := r.col.Find(ctx, bson.M{"userId": userID, "status": status},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("orders: find by user and status: %w", err)
	}
	var orders []models.Order
	if err := cur.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("orders: decode: %w", err)
	}
	return orders, nil
}

// FindPendingBySubAccountNames returns the Pending orders attributed to any
// of the given sub-account names. Used by truck aggregation.
func (r *OrderRepository) FindPendingBySubAccountNames(ctx context.Context, names []string) ([]models.Order, error) {
	defer metrics.ObserveMongoOp("orders.findPendingBySubAccounts", time.Now())

	if len(names) == 0 {
		return nil, nil
	}
	cur, err := r.col.Find(ctx, bson.M{
		"status":         models.StatusPending,
		"subAccountName": bson.M{"$in": names},
	})
	if err != nil {
		return nil, fmt.Errorf("orders: find pending by sub-accounts: %w", err)
	}
	var orders []models.Order
	if err := cur.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("orders: decode: %w", err)
	}
	return orders, nil
}

// FindByUserCreatedAfter returns the caller's orders created after t.
func (r *OrderRepository) FindByUserCreatedAfter(ctx context.Context, userID string, t time.Time) ([]models.Order, error) {
	defer metrics.ObserveMongoOp("orders.findByUserCreatedAfter", time.Now())

	cur, err := r.col.Find(ctx, bson.M{
		"userId":    userID,
		"createdAt": bson.M{"$gt": t},
	})
	if err != nil {
		return nil, fmt.Errorf("orders: find created after: %w", err)
	}
	var orders []models.Order
	if err := cur.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("orders: decode: %w", err)
	}
	return orders, nil
}

// ReplaceItems overwrites an order's items and notes, leaving every other
// field untouched.
func (r *OrderRepository) ReplaceItems(ctx context.Context, id string, items []models.OrderItem, notes string) error {
	defer metrics.ObserveMongoOp("orders.replaceItems", time.Now())

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperr.NotFound(fmt.Sprintf("Order %s not found.", id))
	}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": oid},
		bson.M{"$set": bson.M{"items": items, "notes": notes}})
	if err != nil {
		return fmt.Errorf("orders: replace items: %w", err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound(fmt.Sprintf("Order %s not found.", id))
	}
	return nil
}

// Delete removes an order.
func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	defer metrics.ObserveMongoOp("orders.delete", time.Now())

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperr.NotFound(fmt.Sprintf("Order %s not found.", id))
	}
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("orders: delete: %w", err)
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound(fmt.Sprintf("Order %s not found.", id))
	}
	return nil
}

// MarkSubmitted flips every given order from Unsubmitted to Pending inside
// one session transaction. Either all flip or none do; an order that is no
// longer Unsubmitted aborts the whole transaction.
func (r *OrderRepository) MarkSubmitted(ctx context.Context, ids []string) error {
	defer metrics.ObserveMongoOp("orders.markSubmitted", time.Now())

	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return apperr.NotFound(fmt.Sprintf("Order %s not found.", id))
		}
		oids = append(oids, oid)
	}

	session, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("orders: start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		res, err := r.col.UpdateMany(sc,
			bson.M{"_id": bson.M{"$in": oids}, "status": models.StatusUnsubmitted},
			bson.M{"$set": bson.M{"status": models.StatusPending}})
		if err != nil {
			return nil, err
		}
		if res.ModifiedCount != int64(len(oids)) {
			return nil, fmt.Errorf("expected to submit %d orders, matched %d", len(oids), res.ModifiedCount)
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("orders: mark submitted: %w", err)
	}
	return nil
}

// DeleteCreatedBefore removes every order created before t and reports how
// many were deleted. Running it twice for the same t deletes nothing extra.
func (r *OrderRepository) DeleteCreatedBefore(ctx context.Context, t time.Time) (int64, error) {
	defer metrics.ObserveMongoOp("orders.deleteCreatedBefore", time.Now())

	res, err := r.col.DeleteMany(ctx, bson.M{"createdAt": bson.M{"$lt": t}})
	if err != nil {
		return 0, fmt.Errorf("orders: delete created before: %w", err)
	}
	return res.DeletedCount, nil
}
