// Package models holds the GORM rows behind the catalog and order tables.
// Domain types carry no ORM tags; each model converts with ToDomain and
// FromDomain, and repositories only ever hand domain types out.
//
//   - catalog.go: categories, products, product variants
//   - trade.go: settled orders and their lines
//
// The columns mirror the versioned SQL schema in the migration package, so a
// change here needs a matching migration.
package models

// All returns every model, in migration order
func All() []any {
	return []any{
		&CategoryModel{},
		&ProductModel{},
		&ProductVariantModel{},
		&OrderModel{},
		&OrderLineModel{},
	}
}
