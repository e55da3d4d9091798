package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a customer account. Role flags (admin, isSuperUser) live on the
// document and are minted into the JWT at login, so a role change takes
// effect the next time the target logs in.
type User struct {
	ID                       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email                    string             `bson:"email" json:"email"`
	Username                 string             `bson:"username" json:"username"`
	PasswordHash             string             `bson:"passwordHash" json:"-"`
	Admin                    bool               `bson:"admin" json:"isAdmin"`
	IsSuperUser              bool               `bson:"isSuperUser" json:"isSuperUser"`
	IsParentAccount          bool               `bson:"isParentAccount" json:"isParentAccount"`
	SubAccounts              []string           `bson:"subAccounts" json:"subAccounts"`
	TruckNumber              string             `bson:"truckNumber,omitempty" json:"truckNumber,omitempty"`
	CanBatchSubmitOrders     bool               `bson:"canBatchSubmitOrders" json:"canBatchSubmitOrders"`
	EnableManualEmailTrigger bool               `bson:"enableManualEmailTrigger" json:"enableManualEmailTrigger"`
	FcmTokens                []string           `bson:"fcmTokens" json:"-"`
	CreatedAt                time.Time          `bson:"createdAt" json:"createdAt"`
}

// NewProfile builds the default profile created on first login.
// The display name starts as the email's local part.
func NewProfile(email string) User {
	username := email
	if at := strings.Index(email, "@"); at > 0 {
		username = email[:at]
	}
	return User{
		Email:           email,
		Username:        username,
		IsParentAccount: false,
		SubAccounts:     []string{},
		FcmTokens:       []string{},
		CreatedAt:       time.Now().UTC(),
	}
}
