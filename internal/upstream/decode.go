// Package upstream loads the product catalog from its origin: a remote
// JSON endpoint or a local JSON file.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/PaesslerAG/jsonpath"

	"github.com/fairyhunter13/product-catalog-service/internal/model"
)

// DefaultProductsPath locates the product array in an upstream document.
const DefaultProductsPath = "$.products"

// ErrNoProducts is returned when the upstream document holds no products.
var ErrNoProducts = errors.New("upstream returned no products")

// Source fetches the full product list from an origin.
type Source interface {
	Fetch(ctx context.Context) ([]model.Product, error)
	Name() string
}

// Decode extracts the products found at the JSONPath expression path.
// Field names match case-insensitively and unknown fields are ignored.
func Decode(data []byte, path string) ([]model.Product, error) {
	if path == "" {
		path = DefaultProductsPath
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse upstream document: %w", err)
	}
	v, err := jsonpath.Get(path, doc)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", path, err)
	}
	if v == nil {
		return nil, ErrNoProducts
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("re-encode %s: %w", path, err)
	}
	var products []model.Product
	if err := json.Unmarshal(raw, &products); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	if len(products) == 0 {
		return nil, ErrNoProducts
	}
	return products, nil
}
