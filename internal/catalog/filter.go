// Package catalog holds the filter and aggregation pipeline behind
// GET /products.
package catalog

import "github.com/fairyhunter13/product-catalog-service/internal/model"

// FilterCriteria are the optional product filters of one request.
type FilterCriteria struct {
	MinPrice *int
	MaxPrice *int
	Size     *model.Size
}

// IsEmpty reports whether no filter is set.
func (c FilterCriteria) IsEmpty() bool {
	return c.MinPrice == nil && c.MaxPrice == nil && c.Size == nil
}

// BuildPredicate combines every present bound with a logical AND.
// It returns nil when no bound is present; callers select all products
// instead of evaluating a predicate.
func BuildPredicate(c FilterCriteria) model.Predicate {
	if c.IsEmpty() {
		return nil
	}
	var tests []model.Predicate
	if c.MinPrice != nil {
		minPrice := *c.MinPrice
		tests = append(tests, func(p model.Product) bool { return p.Price >= minPrice })
	}
	if c.MaxPrice != nil {
		maxPrice := *c.MaxPrice
		tests = append(tests, func(p model.Product) bool { return p.Price <= maxPrice })
	}
	if c.Size != nil {
		size := *c.Size
		tests = append(tests, func(p model.Product) bool { return p.HasSize(size) })
	}
	return func(p model.Product) bool {
		for _, test := range tests {
			if !test(p) {
				return false
			}
		}
		return true
	}
}
