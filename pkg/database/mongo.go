// Package database owns the MongoDB connection and the collection handles
// the rest of the application reads and writes through.
package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/poppys-produce/backend/config"
)

var (
	client *mongo.Client
	db     *mongo.Database
)

// Connect dials MongoDB using MONGO_URI / MONGO_DATABASE and pings it.
// Call once at boot, before any repository is constructed.
func Connect(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	c, err := mongo.Connect(ctx, options.Client().ApplyURI(config.MongoURI()))
	if err != nil {
		return fmt.Errorf("mongo connect: %w", err)
	}
	if err := c.Ping(ctx, nil); err != nil {
		return fmt.Errorf("mongo ping: %w", err)
	}

	client = c
	db = c.Database(config.MongoDatabase())
	return nil
}

// Disconnect closes the client. Safe to call when Connect never ran.
func Disconnect(ctx context.Context) error {
	if client == nil {
		return nil
	}
	return client.Disconnect(ctx)
}

// Client exposes the underlying client for session transactions.
func Client() *mongo.Client { return client }

// DB exposes the database handle.
func DB() *mongo.Database { return db }

func Users() *mongo.Collection       { return db.Collection("users") }
func SubAccounts() *mongo.Collection { return db.Collection("subAccounts") }
func Products() *mongo.Collection    { return db.Collection("products") }
func Orders() *mongo.Collection      { return db.Collection("orders") }
func Settings() *mongo.Collection    { return db.Collection("settings") }
func Logs() *mongo.Collection        { return db.Collection("logs") }

// EnsureIndexes creates the indexes the queries below depend on. Creation is
// idempotent; Mongo ignores indexes that already exist with the same spec.
func EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	unique := options.Index().SetUnique(true)

	specs := []struct {
		col    *mongo.Collection
		models []mongo.IndexModel
	}{
		{Users(), []mongo.IndexModel{
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
		}},
		{SubAccounts(), []mongo.IndexModel{
			// One sub-account name per parent; also the guard that keeps a
			// sub-account from riding two trucks at once.
			{Keys: bson.D{{Key: "parentId", Value: 1}, {Key: "name", Value: 1}}, Options: unique},
		}},
		{Products(), []mongo.IndexModel{
			{Keys: bson.D{{Key: "name", Value: 1}}},
		}},
		{Orders(), []mongo.IndexModel{
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "createdAt", Value: 1}}},
		}},
	}

	for _, s := range specs {
		if _, err := s.col.Indexes().CreateMany(ctx, s.models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", s.col.Name(), err)
		}
	}
	return nil
}
