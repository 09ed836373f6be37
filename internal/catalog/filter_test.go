package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fairyhunter13/product-catalog-service/internal/model"
)

func ptr[T any](v T) *T { return &v }

func sampleProducts() []model.Product {
	return []model.Product{
		{Title: "A", Price: 1, Sizes: []model.Size{model.SizeSmall}},
		{Title: "B", Price: 2, Sizes: []model.Size{model.SizeSmall, model.SizeMedium}},
		{Title: "C", Price: 3, Sizes: []model.Size{model.SizeSmall, model.SizeMedium, model.SizeLarge}},
	}
}

func titles(products []model.Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.Title)
	}
	return out
}

func apply(pred model.Predicate, products []model.Product) []model.Product {
	var out []model.Product
	for _, p := range products {
		if pred(p) {
			out = append(out, p)
		}
	}
	return out
}

func TestBuildPredicate_NoCriteriaSelectsAll(t *testing.T) {
	assert.Nil(t, BuildPredicate(FilterCriteria{}))
	assert.True(t, FilterCriteria{}.IsEmpty())
}

func TestBuildPredicate(t *testing.T) {
	tests := []struct {
		name     string
		criteria FilterCriteria
		want     []string
	}{
		{name: "min price", criteria: FilterCriteria{MinPrice: ptr(3)}, want: []string{"C"}},
		{name: "max price", criteria: FilterCriteria{MaxPrice: ptr(2)}, want: []string{"A", "B"}},
		{name: "price range", criteria: FilterCriteria{MinPrice: ptr(2), MaxPrice: ptr(3)}, want: []string{"B", "C"}},
		{name: "size", criteria: FilterCriteria{Size: ptr(model.SizeMedium)}, want: []string{"B", "C"}},
		{name: "max price and size", criteria: FilterCriteria{MaxPrice: ptr(3), Size: ptr(model.SizeLarge)}, want: []string{"C"}},
		{name: "min price and size", criteria: FilterCriteria{MinPrice: ptr(2), Size: ptr(model.SizeSmall)}, want: []string{"B", "C"}},
		{name: "all bounds", criteria: FilterCriteria{MinPrice: ptr(1), MaxPrice: ptr(2), Size: ptr(model.SizeMedium)}, want: []string{"B"}},
		{name: "contradicting bounds", criteria: FilterCriteria{MinPrice: ptr(3), MaxPrice: ptr(1)}, want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pred := BuildPredicate(tt.criteria)
			if !assert.NotNil(t, pred) {
				return
			}
			assert.Equal(t, tt.want, titles(apply(pred, sampleProducts())))
		})
	}
}

func TestBuildPredicate_CapturesValues(t *testing.T) {
	minPrice := 3
	pred := BuildPredicate(FilterCriteria{MinPrice: &minPrice})
	minPrice = 0
	assert.Equal(t, []string{"C"}, titles(apply(pred, sampleProducts())))
}
