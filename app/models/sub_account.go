package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// SubAccount is a named customer identity owned by a reseller. The
// (parentId, name) pair is unique, which also guarantees a sub-account can
// never be assigned to two trucks at once.
type SubAccount struct {
	ID                   primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name                 string             `bson:"name" json:"name"`
	ParentID             string             `bson:"parentId" json:"parentId"`
	TruckNumber          string             `bson:"truckNumber,omitempty" json:"truckNumber,omitempty"`
	RestrictedProductIDs []string           `bson:"restrictedProductIds" json:"restrictedProductIds"`
}

// AllowsProduct reports whether the sub-account may order the given product.
// An empty allow-list means the full catalog.
func (s SubAccount) AllowsProduct(productID string) bool {
	if len(s.RestrictedProductIDs) == 0 {
		return true
	}
	for _, id := range s.RestrictedProductIDs {
		if id == productID {
			return true
		}
	}
	return false
}
