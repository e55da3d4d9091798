// Package gql defines the read-only GraphQL surface: the product catalog and
// the caller's own orders. Mutations stay on the REST endpoints where the
// authorization rules live.
package gql

import (
	"github.com/graphql-go/graphql"

	"github.com/poppys-produce/backend/app/models"
	"github.com/poppys-produce/backend/app/services"
	"github.com/poppys-produce/backend/pkg/apperr"
	"github.com/poppys-produce/backend/pkg/middleware"
)

var productType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Product",
	Fields: graphql.Fields{
		"id": &graphql.Field{
			Type: graphql.String,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return p.Source.(models.Product).ID.Hex(), nil
			},
		},
		"name": &graphql.Field{
			Type: graphql.String,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return p.Source.(models.Product).Name, nil
			},
		},
		"isNew": &graphql.Field{
			Type: graphql.Boolean,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return p.Source.(models.Product).IsNew, nil
			},
		},
	},
})

var orderItemType = graphql.NewObject(graphql.ObjectConfig{
	Name: "OrderItem",
	Fields: graphql.Fields{
		"id":        &graphql.Field{Type: graphql.String},
		"name":      &graphql.Field{Type: graphql.String},
		"quantity":  &graphql.Field{Type: graphql.Int},
		"isSpecial": &graphql.Field{Type: graphql.Boolean},
	},
})

var orderType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Order",
	Fields: graphql.Fields{
		"id": &graphql.Field{
			Type: graphql.String,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return p.Source.(models.Order).ID.Hex(), nil
			},
		},
		"publicOrderId": &graphql.Field{
			Type: graphql.String,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return p.Source.(models.Order).PublicOrderID, nil
			},
		},
		"status": &graphql.Field{
			Type: graphql.String,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return p.Source.(models.Order).Status, nil
			},
		},
		"subAccountName": &graphql.Field{
			Type: graphql.String,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return p.Source.(models.Order).SubAccountName, nil
			},
		},
		"isAfterHours": &graphql.Field{
			Type: graphql.Boolean,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return p.Source.(models.Order).IsAfterHours, nil
			},
		},
		"createdAt": &graphql.Field{
			Type: graphql.DateTime,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return p.Source.(models.Order).CreatedAt, nil
			},
		},
		"totalItems": &graphql.Field{
			Type: graphql.Int,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return p.Source.(models.Order).TotalItems(), nil
			},
		},
		"items": &graphql.Field{
			Type: graphql.NewList(orderItemType),
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return p.Source.(models.Order).Items, nil
			},
		},
	},
})

// NewRootQuery builds the query object over the given stores.
func NewRootQuery(products services.ProductStore, orders services.OrderStore) *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"products": &graphql.Field{
				Type: graphql.NewList(productType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return products.All(p.Context)
				},
			},
			"myOrders": &graphql.Field{
				Type: graphql.NewList(orderType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					caller, ok := middleware.IdentityFromCtx(p.Context)
					if !ok {
						return nil, apperr.Unauthenticated("You must be logged in.")
					}
					return orders.ListByUser(p.Context, caller.UserID)
				},
			},
		},
	})
}
