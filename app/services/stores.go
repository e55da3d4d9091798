// Package services holds the business logic between the HTTP controllers and
// the repositories. Each service depends on the store interfaces below rather
// than on concrete repositories, so tests run against in-memory fakes.
package services

import (
	"context"
	"time"

	"github.com/poppys-produce/backend/app/models"
)

// UserStore is the user persistence surface the services need.
type UserStore interface {
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	Insert(ctx context.Context, user *models.User) (string, error)
	All(ctx context.Context) ([]models.User, error)
	AllPushTokens(ctx context.Context) ([]string, error)
	UpdateUsername(ctx context.Context, id, username string) error
	AddPushToken(ctx context.Context, id, token string) error
	AppendSubAccount(ctx context.Context, id, name string) error
	SetTruckNumber(ctx context.Context, id, truckNumber string) error
	SetRoleByEmail(ctx context.Context, email, role string, enabled bool) error
}

// OrderStore is the order persistence surface.
type OrderStore interface {
	Insert(ctx context.Context, order *models.Order) (string, error)
	FindByID(ctx context.Context, id string) (models.Order, error)
	ListByUser(ctx context.Context, userID string) ([]models.Order, error)
	FindByUserAndStatus(ctx context.Context, userID, status string) ([]models.Order, error)
	FindPendingBySubAccountNames(ctx context.Context, names []string) ([]models.Order, error)
	FindByUserCreatedAfter(ctx context.Context, userID string, t time.Time) ([]models.Order, error)
	ReplaceItems(ctx context.Context, id string, items []models.OrderItem, notes string) error
	Delete(ctx context.Context, id string) error
	MarkSubmitted(ctx context.Context, ids []string) error
	DeleteCreatedBefore(ctx context.Context, t time.Time) (int64, error)
}

// SubAccountStore is the sub-account persistence surface.
type SubAccountStore interface {
	Insert(ctx context.Context, sub *models.SubAccount) (string, error)
	FindByID(ctx context.Context, id string) (models.SubAccount, error)
	FindByParent(ctx context.Context, parentID string) ([]models.SubAccount, error)
	UpdateDetails(ctx context.Context, id string, restrictedProductIDs []string, truckNumber string) error
}

// ProductStore is the catalog persistence surface.
type ProductStore interface {
	All(ctx context.Context) ([]models.Product, error)
}

// SettingsStore is the global settings persistence surface.
type SettingsStore interface {
	Get(ctx context.Context) (models.GlobalSettings, error)
	Update(ctx context.Context, settings models.GlobalSettings) error
}
