// Package repositories implements the MongoDB persistence layer. Each
// repository satisfies the narrow store interface its consuming service
// declares, so tests can swap in in-memory fakes.
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

// UserRepository handles database operations for User documents.
type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository() *UserRepository {
	return &UserRepository{col: database.Users()}
}

// FindByID looks up a user by its hex object id.
func (r *UserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	defer metrics.ObserveMongoOp("users.findById", time.Now())

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.User{}, apperr.NotFound("User not found.")
	}

	var user models.User
	err = r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, apperr.NotFound("User not found.")
	}
	if err != nil {
		return models.User{}, fmt.Errorf("users: find by id: %w", err)
	}
	return user, nil
}

// FindByEmail looks up a user by email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	defer metrics.ObserveMongoOp("users.findByEmail", time.Now())

	var user models.User
	err := r.col.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, apperr.NotFound("User not found.")
	}
	if err != nil {
		return models.User{}, fmt.Errorf("users: find by email: %w", err)
	}
	return user, nil
}

// Insert persists a new user and returns its hex id.
// A duplicate email surfaces as already-exists.
func (r *UserRepository) Insert(ctx context.Context, user *models.User) (string, error) {
	defer metrics.ObserveMongoOp("users.insert", time.Now())

	res, err := r.col.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return "", apperr.AlreadyExists("An account with this email already exists.")
	}
	if err != nil {
		return "", fmt.Errorf("users: insert: %w", err)
	}
	oid := res.InsertedID.(primitive.ObjectID)
	user.ID = oid
	return oid.Hex(), nil
}

// All returns every user, sorted by email for stable admin listings.
func (r *UserRepository) All(ctx context.Context) ([]models.User, error) {
	defer metrics.ObserveMongoOp("users.all", time.Now())

	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "email", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("users: all: %w", err)
	}
	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("users: decode all: %w", err)
	}
	return users, nil
}

// AllPushTokens gathers every registered device token across all users.
func (r *UserRepository) AllPushTokens(ctx context.Context) ([]string, error) {
	defer metrics.ObserveMongoOp("users.allPushTokens", time.Now())

	cur, err := r.col.Find(ctx,
		bson.M{"fcmTokens": bson.M{"$exists": true, "$ne": []string{}}},
		options.Find().SetProjection(bson.M{"fcmTokens": 1}))
	if err != nil {
		return nil, fmt.Errorf("users: push tokens: %w", err)
	}

	var docs []struct {
		FcmTokens []string `bson:"fcmTokens"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("users: decode push tokens: %w", err)
	}

	var tokens []string
	for _, d := range docs {
		tokens = append(tokens, d.FcmTokens...)
	}
	return tokens, nil
}

// UpdateUsername replaces the display name.
func (r *UserRepository) UpdateUsername(ctx context.Context, id, username string) error {
	return r.updateByID(ctx, id, bson.M{"$set": bson.M{"username": username}})
}

// AddPushToken appends a device token if it is not already registered.
func (r *UserRepository) AddPushToken(ctx context.Context, id, token string) error {
	return r.updateByID(ctx, id, bson.M{"$addToSet": bson.M{"fcmTokens": token}})
}

// AppendSubAccount records a sub-account name on the owner's document.
func (r *UserRepository) AppendSubAccount(ctx context.Context, id, name string) error {
	return r.updateByID(ctx, id, bson.M{"$addToSet": bson.M{"subAccounts": name}})
}

// SetTruckNumber assigns or clears (empty string) a user's truck.
func (r *UserRepository) SetTruckNumber(ctx context.Context, id, truckNumber string) error {
	update := bson.M{"$set": bson.M{"truckNumber": truckNumber}}
	if truckNumber == "" {
		update = bson.M{"$unset": bson.M{"truckNumber": ""}}
	}
	return r.updateByID(ctx, id, update)
}

// SetRoleByEmail flips a role flag ("admin" or "isSuperUser") on the target.
func (r *UserRepository) SetRoleByEmail(ctx context.Context, email, role string, enabled bool) error {
	defer metrics.ObserveMongoOp("users.setRole", time.Now())

	res, err := r.col.UpdateOne(ctx, bson.M{"email": email},
		bson.M{"$set": bson.M{role: enabled}})
	if err != nil {
		return fmt.Errorf("users: set role: %w", err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("User not found.")
	}
	return nil
}

func (r *UserRepository) updateByID(ctx context.Context, id string, update bson.M) error {
	defer metrics.ObserveMongoOp("users.update", time.Now())

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperr.NotFound("User not found.")
	}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("users: update: %w", err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("User not found.")
	}
	return nil
}
