package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/poppys-produce/backend/app/models"
	"github.com/poppys-produce/backend/pkg/cache"
	"github.com/poppys-produce/backend/pkg/database"
	"github.com/poppys-produce/backend/pkg/metrics"
)

const (
	settingsDocID    = "global"
	settingsCacheKey = "poppy:settings:global"
	settingsCacheTTL = time.Minute
)

// SettingsRepository handles the singleton global settings document.
// Reads go through a short Redis cache; order creation hits this on every
// request to compute the after-hours flag.
type SettingsRepository struct {
	col *mongo.Collection
}

func NewSettingsRepository() *SettingsRepository {
	return &SettingsRepository{col: database.Settings()}
}

// Get loads the settings document, falling back to defaults when it has
// never been saved.
func (r *SettingsRepository) Get(ctx context.Context) (models.GlobalSettings, error) {
	var settings models.GlobalSettings
	if cache.Get(settingsCacheKey, &settings) {
		metrics.CacheHits.WithLabelValues("redis").Inc()
		return settings.ApplyDefaults(), nil
	}
	metrics.CacheMisses.WithLabelValues("redis").Inc()

	defer metrics.ObserveMongoOp("settings.get", time.Now())

	err := r.col.FindOne(ctx, bson.M{"_id": settingsDocID}).Decode(&settings)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.DefaultSettings(), nil
	}
	if err != nil {
		return models.GlobalSettings{}, fmt.Errorf("settings: get: %w", err)
	}

	settings = settings.ApplyDefaults()
	cache.Set(settingsCacheKey, settings, settingsCacheTTL) //nolint:errcheck
	return settings, nil
}

// Update upserts the settings document and drops the cache entry.
func (r *SettingsRepository) Update(ctx context.Context, settings models.GlobalSettings) error {
	defer metrics.ObserveMongoOp("settings.update", time.Now())

	settings = settings.ApplyDefaults()
	_, err := r.col.UpdateOne(ctx,
		bson.M{"_id": settingsDocID},
		bson.M{"$set": settings},
		options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("settings: update: %w", err)
	}
	cache.Forget(settingsCacheKey) //nolint:errcheck
	return nil
}
