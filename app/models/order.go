package models

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order status values. Admin tooling outside this service may set others;
// the API only ever writes these two.
const (
	StatusUnsubmitted = "Unsubmitted"
	StatusPending     = "Pending"
)

// OrderItem is one cart line.
type OrderItem struct {
	ID        string `bson:"id" json:"id" validate:"required"`
	Name      string `bson:"name" json:"name" validate:"required"`
	Quantity  int    `bson:"quantity" json:"quantity" validate:"required,gte=1"`
	IsSpecial bool   `bson:"isSpecial,omitempty" json:"isSpecial,omitempty"`
}

// Order is a submitted or saved cart. The Mongo _id is the real key;
// PublicOrderID is a 6-digit display label with no uniqueness guarantee and
// must never be used for lookups.
type Order struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PublicOrderID  string             `bson:"publicOrderId" json:"publicOrderId"`
	UserID         string             `bson:"userId" json:"userId"`
	UserEmail      string             `bson:"userEmail" json:"userEmail"`
	Items          []OrderItem        `bson:"items" json:"items"`
	Status         string             `bson:"status" json:"status"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	Notes          string             `bson:"notes,omitempty" json:"notes,omitempty"`
	SubAccountName string             `bson:"subAccountName,omitempty" json:"subAccountName,omitempty"`
	IsAfterHours   bool               `bson:"isAfterHours" json:"isAfterHours"`
}

// TotalItems sums the quantities across all lines.
func (o Order) TotalItems() int {
	total := 0
	for _, it := range o.Items {
		total += it.Quantity
	}
	return total
}

// NewPublicOrderID generates the 6-digit display label shown on invoices.
func NewPublicOrderID() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		// crypto/rand failing means the process is in serious trouble;
		// fall back to a constant rather than panic on the order path.
		return "000000"
	}
	return fmt.Sprintf("%06d", n.Int64())
}
