package services

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/poppys-produce/backend/app/models"
	"github.com/poppys-produce/backend/pkg/apperr"
	"github.com/poppys-produce/backend/pkg/middleware"
)

// AccountService covers the profile and sub-account management surface.
type AccountService struct {
	users UserStore
	subs  SubAccountStore
}

func NewAccountService(users UserStore, subs SubAccountStore) *AccountService {
	return &AccountService{users: users, subs: subs}
}

// EnsureProfile returns the caller's profile, creating the default one on
// first sight. Safe to call on every session start.
func (s *AccountService) EnsureProfile(ctx context.Context, caller middleware.Identity) (models.User, error) {
	user, err := s.users.FindByID(ctx, caller.UserID)
	if err == nil {
		return user, nil
	}
	if !apperr.Is(err, apperr.KindNotFound) {
		return models.User{}, err
	}

	profile := models.NewProfile(caller.Email)
	if oid, idErr := primitive.ObjectIDFromHex(caller.UserID); idErr == nil {
		profile.ID = oid
	}
	if _, err := s.users.Insert(ctx, &profile); err != nil {
		// Lost the race against a concurrent first request; the profile
		// exists now.
		if apperr.Is(err, apperr.KindAlreadyExists) {
			return s.users.FindByID(ctx, caller.UserID)
		}
		return models.User{}, err
	}
	return profile, nil
}

// UpdateUsername replaces the caller's display name.
func (s *AccountService) UpdateUsername(ctx context.Context, caller middleware.Identity, username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return apperr.InvalidArgument("A username is required.")
	}
	return s.users.UpdateUsername(ctx, caller.UserID, username)
}

// RegisterPushToken records a device token for the intake-closing reminders.
// Registering the same token twice is a no-op.
func (s *AccountService) RegisterPushToken(ctx context.Context, caller middleware.Identity, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return apperr.InvalidArgument("Missing push token.")
	}
	return s.users.AddPushToken(ctx, caller.UserID, token)
}

// ListSubAccounts returns the caller's sub-accounts sorted by name.
func (s *AccountService) ListSubAccounts(ctx context.Context, caller middleware.Identity) ([]models.SubAccount, error) {
	subs, err := s.subs.FindByParent(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}
	if subs == nil {
		subs = []models.SubAccount{}
	}
	return subs, nil
}

// CreateSubAccount registers a new customer under the caller.
func (s *AccountService) CreateSubAccount(ctx context.Context, caller middleware.Identity, accountName string) (models.SubAccount, error) {
	name := strings.TrimSpace(accountName)
	if name == "" {
		return models.SubAccount{}, apperr.InvalidArgument("A valid account name is required.")
	}

	sub := models.SubAccount{
		Name:                 name,
		ParentID:             caller.UserID,
		RestrictedProductIDs: []string{},
	}
	if _, err := s.subs.Insert(ctx, &sub); err != nil {
		return models.SubAccount{}, err
	}
	if err := s.users.AppendSubAccount(ctx, caller.UserID, name); err != nil {
		return models.SubAccount{}, err
	}
	return sub, nil
}

// UpdateSubAccountDetails changes a sub-account's product allow-list and
// truck assignment. Only the parent may touch it.
func (s *AccountService) UpdateSubAccountDetails(ctx context.Context, caller middleware.Identity, subAccountID string, restrictedProductIDs []string, truckNumber string) error {
	if subAccountID == "" {
		return apperr.InvalidArgument("Missing subAccountId.")
	}
	sub, err := s.subs.FindByID(ctx, subAccountID)
	if err != nil {
		return err
	}
	if sub.ParentID != caller.UserID {
		return apperr.PermissionDenied("You do not own this sub-account.")
	}
	return s.subs.UpdateDetails(ctx, subAccountID, restrictedProductIDs, truckNumber)
}

// SubAccountCreatedMessage is the confirmation shown after CreateSubAccount.
func SubAccountCreatedMessage(name string) string {
	return fmt.Sprintf("Customer %q created successfully.", name)
}
