// Package model defines domain types used by the service.
package model

import (
	"fmt"
	"strings"
)

// Size is a garment size offered for a product.
type Size string

// Known sizes accepted from query input.
const (
	SizeSmall  Size = "small"
	SizeMedium Size = "medium"
	SizeLarge  Size = "large"
)

// KnownSizes lists the sizes accepted by ParseSize.
var KnownSizes = []Size{SizeSmall, SizeMedium, SizeLarge}

// ParseSize maps query input such as "Medium" onto a known Size.
func ParseSize(s string) (Size, error) {
	v := Size(strings.ToLower(strings.TrimSpace(s)))
	for _, k := range KnownSizes {
		if v == k {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown size %q", s)
}

// UnmarshalText accepts any non-empty size token, case-insensitively.
// Upstream catalogs may carry sizes this service does not enumerate.
func (s *Size) UnmarshalText(b []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(b)))
	if v == "" {
		return fmt.Errorf("empty size")
	}
	*s = Size(v)
	return nil
}

// Product is one catalog entry as served by the product source.
type Product struct {
	Title       string `json:"title"`
	Price       int    `json:"price"`
	Sizes       []Size `json:"sizes"`
	Description string `json:"description"`
}

// HasSize reports whether the product is offered in size s.
func (p Product) HasSize(s Size) bool {
	for _, v := range p.Sizes {
		if v == s {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no memory with p.
func (p Product) Clone() Product {
	c := p
	if p.Sizes != nil {
		c.Sizes = append([]Size(nil), p.Sizes...)
	}
	return c
}

// Predicate is an inclusion test over products.
type Predicate func(Product) bool

// ProductsResponse is the payload of GET /products.
type ProductsResponse struct {
	Products    []Product `json:"products"`
	MinPrice    *int      `json:"minPrice"`
	MaxPrice    *int      `json:"maxPrice"`
	Sizes       []Size    `json:"sizes"`
	CommonWords []string  `json:"commonWords"`
}

// EmptyResponse is the degraded payload: no products, (0,0) pricing.
func EmptyResponse() ProductsResponse {
	zeroMin, zeroMax := 0, 0
	return ProductsResponse{
		Products:    []Product{},
		MinPrice:    &zeroMin,
		MaxPrice:    &zeroMax,
		Sizes:       []Size{},
		CommonWords: []string{},
	}
}
