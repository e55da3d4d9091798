package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Product is a catalog entry.
type Product struct {
	ID    primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name  string             `bson:"name" json:"name"`
	IsNew bool               `bson:"isNew,omitempty" json:"isNew,omitempty"`
}
