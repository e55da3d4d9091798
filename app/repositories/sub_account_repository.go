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

// SubAccountRepository handles database operations for SubAccount documents.
type SubAccountRepository struct {
	col *mongo.Collection
}

func NewSubAccountRepository() *SubAccountRepository {
	return &SubAccountRepository{col: database.SubAccounts()}
}

// Insert persists a new sub-account. The unique (parentId, name) index
// turns a duplicate into already-exists.
func (r *SubAccountRepository) Insert(ctx context.Context, sub *models.SubAccount) (string, error) {
	defer metrics.ObserveMongoOp("subAccounts.insert", time.Now())

	res, err := r.col.InsertOne(ctx, sub)
	if mongo.IsDuplicateKeyError(err) {
		return "", apperr.AlreadyExists(fmt.Sprintf("A customer named %q already exists.", sub.Name))
	}
	if err != nil {
		return "", fmt.Errorf("subAccounts: insert: %w", err)
	}
	oid := res.InsertedID.(primitive.ObjectID)
	sub.ID = oid
	return oid.Hex(), nil
}

// FindByID looks up a sub-account by its hex object id.
func (r *SubAccountRepository) FindByID(ctx context.Context, id string) (models.SubAccount, error) {
	defer metrics.ObserveMongoOp("subAccounts.findById", time.Now())

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.SubAccount{}, apperr.NotFound("Sub-account not found.")
	}

	var sub models.SubAccount
	err = r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&sub)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.SubAccount{}, apperr.NotFound("Sub-account not found.")
	}
	if err != nil {
		return models.SubAccount{}, fmt.Errorf("subAccounts: find by id: %w", err)
	}
	return sub, nil
}

// FindByParent returns all sub-accounts owned by parentID, sorted by name.
func (r *SubAccountRepository) FindByParent(ctx context.Context, parentID string) ([]models.SubAccount, error) {
	defer metrics.ObserveMongoOp("subAccounts.findByParent", time.Now())

	cur, err := r.col.Find(ctx, bson.M{"parentId": parentID},
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("subAccounts: find by parent: %w", err)
	}
	var subs []models.SubAccount
	if err := cur.All(ctx, &subs); err != nil {
		return nil, fmt.Errorf("subAccounts: decode: %w", err)
	}
	return subs, nil
}

// UpdateDetails overwrites the restriction list and truck assignment.
func (r *SubAccountRepository) UpdateDetails(ctx context.Context, id string, restrictedProductIDs []string, truckNumber string) error {
	defer metrics.ObserveMongoOp("subAccounts.updateDetails", time.Now())

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperr.NotFound("Sub-account not found.")
	}

	if restrictedProductIDs == nil {
		restrictedProductIDs = []string{}
	}
	set := bson.M{"restrictedProductIds": restrictedProductIDs}
	update := bson.M{"$set": set}
	if truckNumber == "" {
		update["$unset"] = bson.M{"truckNumber": ""}
	} else {
		set["truckNumber"] = truckNumber
	}

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("subAccounts: update details: %w", err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("Sub-account not found.")
	}
	return nil
}
