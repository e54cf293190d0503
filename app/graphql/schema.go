// Package graphql defines the read-only report queries served on
// /api/graphql. Every resolver is scoped to the authenticated caller.
//
//	{ lowStock(threshold: 5) { quantity product { name price } }
//	  supplierPerformance { name productCount } }
package graphql

import (
	"errors"

	gql "github.com/graphql-go/graphql"

	"github.com/shashiranjanraj/stockroom/app/jobs"
	"github.com/shashiranjanraj/stockroom/app/repositories"
	"github.com/shashiranjanraj/stockroom/pkg/graphql"
	"github.com/shashiranjanraj/stockroom/pkg/middleware"
)

var errUnauthenticated = errors.New("unauthenticated")

var productType = gql.NewObject(gql.ObjectConfig{
	Name: "Product",
	Fields: gql.Fields{
		"id":          &gql.Field{Type: gql.NewNonNull(gql.Int)},
		"name":        &gql.Field{Type: gql.NewNonNull(gql.String)},
		"description": &gql.Field{Type: gql.String},
		"price":       &gql.Field{Type: gql.NewNonNull(gql.String)},
		"supplierId":  &gql.Field{Type: gql.NewNonNull(gql.Int)},
	},
})

var lowStockType = gql.NewObject(gql.ObjectConfig{
	Name: "LowStockItem",
	Fields: gql.Fields{
		"id":       &gql.Field{Type: gql.NewNonNull(gql.Int)},
		"quantity": &gql.Field{Type: gql.NewNonNull(gql.Int)},
		"product":  &gql.Field{Type: productType},
	},
})

var supplierPerformanceType = gql.NewObject(gql.ObjectConfig{
	Name: "SupplierPerformance",
	Fields: gql.Fields{
		"supplierId":   &gql.Field{Type: gql.NewNonNull(gql.Int)},
		"name":         &gql.Field{Type: gql.NewNonNull(gql.String)},
		"contactInfo":  &gql.Field{Type: gql.String},
		"productCount": &gql.Field{Type: gql.NewNonNull(gql.Int)},
	},
})

// NewSchema builds the schema over store. threshold is the default for
// lowStock when the argument is omitted.
func NewSchema(store *repositories.Store, threshold int) (gql.Schema, error) {
	if threshold <= 0 {
		threshold = jobs.DefaultLowStockThreshold
	}

	query := gql.NewObject(gql.ObjectConfig{
		Name: "Query",
		Fields: gql.Fields{
			"lowStock": &gql.Field{
				Type: gql.NewList(lowStockType),
				Args: gql.FieldConfigArgument{
					"threshold": &gql.ArgumentConfig{Type: gql.Int, DefaultValue: threshold},
				},
				Resolve: func(p gql.ResolveParams) (any, error) {
					uid, ok := middleware.UserID(p.Context)
					if !ok {
						return nil, errUnauthenticated
					}
					limit, _ := p.Args["threshold"].(int)
					rows, err := store.Reports.LowStock(p.Context, uid, limit)
					if err != nil {
						return nil, err
					}
					out := make([]map[string]any, 0, len(rows))
					for _, inv := range rows {
						item := map[string]any{"id": int(inv.ID), "quantity": inv.Quantity}
						if inv.Product != nil {
							item["product"] = map[string]any{
								"id":          int(inv.Product.ID),
								"name":        inv.Product.Name,
								"description": inv.Product.Description,
								"price":       inv.Product.Price.StringFixed(2),
								"supplierId":  int(inv.Product.SupplierID),
							}
						}
						out = append(out, item)
					}
					return out, nil
				},
			},
			"supplierPerformance": &gql.Field{
				Type: gql.NewList(supplierPerformanceType),
				Resolve: func(p gql.ResolveParams) (any, error) {
					uid, ok := middleware.UserID(p.Context)
					if !ok {
						return nil, errUnauthenticated
					}
					rows, err := store.Reports.SupplierPerformance(p.Context, uid)
					if err != nil {
						return nil, err
					}
					out := make([]map[string]any, 0, len(rows))
					for _, s := range rows {
						out = append(out, map[string]any{
							"supplierId":   int(s.SupplierID),
							"name":         s.Name,
							"contactInfo":  s.ContactInfo,
							"productCount": int(s.ProductCount),
						})
					}
					return out, nil
				},
			},
		},
	})

	return graphql.NewSchema(query)
}
