package services

import (
	"context"
	"fmt"
	"time"

	"github.com/poppys-produce/backend/app/models"
	"github.com/poppys-produce/backend/config"
	"github.com/poppys-produce/backend/pkg/apperr"
	"github.com/poppys-produce/backend/pkg/collection"
	"github.com/poppys-produce/backend/pkg/mail"
	"github.com/poppys-produce/backend/pkg/metrics"
)

// AdminService covers the back-office operations. Every caller has already
// passed rbac.RequireAdmin at the router.
type AdminService struct {
	users    UserStore
	orders   OrderStore
	settings SettingsStore
}

func NewAdminService(users UserStore, orders OrderStore, settings SettingsStore) *AdminService {
	return &AdminService{users: users, orders: orders, settings: settings}
}

// AdminUserRecord is the merged account view the admin console lists.
type AdminUserRecord struct {
	UID             string   `json:"uid"`
	Email           string   `json:"email"`
	DisplayName     string   `json:"displayName"`
	IsAdmin         bool     `json:"isAdmin"`
	IsParentAccount bool     `json:"isParentAccount"`
	SubAccounts     []string `json:"subAccounts"`
	TruckNumber     string   `json:"truckNumber,omitempty"`
	IsSuperUser     bool     `json:"isSuperUser"`
}

// ListAllUsers returns every account, sorted by email.
func (s *AdminService) ListAllUsers(ctx context.Context) ([]AdminUserRecord, error) {
	users, err := s.users.All(ctx)
	if err != nil {
		return nil, err
	}
	return collection.Map(users, func(u models.User) AdminUserRecord {
		subs := u.SubAccounts
		if subs == nil {
			subs = []string{}
		}
		return AdminUserRecord{
			UID:             u.ID.Hex(),
			Email:           u.Email,
			DisplayName:     u.Username,
			IsAdmin:         u.Admin,
			IsParentAccount: u.IsParentAccount,
			SubAccounts:     subs,
			TruckNumber:     u.TruckNumber,
			IsSuperUser:     u.IsSuperUser,
		}
	}), nil
}

// SetUserTruckNumber assigns (or clears, with "") a user's truck.
func (s *AdminService) SetUserTruckNumber(ctx context.Context, userID, truckNumber string) error {
	if userID == "" {
		return apperr.InvalidArgument("Missing userId.")
	}
	return s.users.SetTruckNumber(ctx, userID, truckNumber)
}

// BatchDeleteOrdersByDate deletes every order created before the cutoff and
// reports how many went.
func (s *AdminService) BatchDeleteOrdersByDate(ctx context.Context, deleteUntil time.Time) (string, error) {
	if deleteUntil.IsZero() {
		return "", apperr.InvalidArgument("Missing deleteUntilTimestamp.")
	}
	n, err := s.orders.DeleteCreatedBefore(ctx, deleteUntil)
	if err != nil {
		return "", apperr.Internal("Failed to delete orders.", err)
	}
	if n == 0 {
		return "No old orders found.", nil
	}
	return fmt.Sprintf("%d old orders deleted.", n), nil
}

// SetSuperUserRole flips the isSuperUser flag. The change lands in the
// target's token on their next login.
func (s *AdminService) SetSuperUserRole(ctx context.Context, email string, status bool) (string, error) {
	if email == "" {
		return "", apperr.InvalidArgument("Missing email.")
	}
	if err := s.users.SetRoleByEmail(ctx, email, "isSuperUser", status); err != nil {
		return "", err
	}
	verb := "a"
	if !status {
		verb = "no longer a"
	}
	return fmt.Sprintf("Success! %s is now %s Super User.", email, verb), nil
}

// SetAdminRole grants the admin flag.
func (s *AdminService) SetAdminRole(ctx context.Context, email string) (string, error) {
	if email == "" {
		return "", apperr.InvalidArgument("Missing email.")
	}
	if err := s.users.SetRoleByEmail(ctx, email, "admin", true); err != nil {
		return "", err
	}
	return fmt.Sprintf("Success! %s has been made an admin.", email), nil
}

// ResendOrderEmail re-sends an order's invoice to the operations inbox,
// marked as a manual resend.
func (s *AdminService) ResendOrderEmail(ctx context.Context, orderID string) error {
	if orderID == "" {
		return apperr.InvalidArgument("Missing orderId.")
	}
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return err
	}

	html, err := RenderInvoice(order, "")
	if err != nil {
		return apperr.Internal("Failed to resend email.", err)
	}

	cfg := mail.SMTP{
		Host:     config.MailHost(),
		Port:     config.MailPort(),
		Username: config.MailUsername(),
		Password: config.MailPassword(),
		From:     config.MailFrom(),
		FromName: "Poppy's Produce Orders (Manual Resend)",
	}
	subject := fmt.Sprintf("[RESEND] Order #%s from %s", order.PublicOrderID, order.UserEmail)
	err = mail.To(config.OrdersRecipient()).UseConfig(cfg).Subject(subject).Body(html).Send()
	if err != nil {
		metrics.InvoicesSent.WithLabelValues("failed").Inc()
		return apperr.Internal("Failed to resend email.", err)
	}
	metrics.InvoicesSent.WithLabelValues("success").Inc()
	return nil
}

// GetSettings reads the global settings document.
func (s *AdminService) GetSettings(ctx context.Context) (models.GlobalSettings, error) {
	return s.settings.Get(ctx)
}

// UpdateSettings saves the global settings document.
func (s *AdminService) UpdateSettings(ctx context.Context, settings models.GlobalSettings) error {
	return s.settings.Update(ctx, settings)
}
