package catalog

import (
	"strings"

	"github.com/fairyhunter13/product-catalog-service/internal/model"
)

// DefaultHighlightTag wraps highlighted words when no tag is configured.
const DefaultHighlightTag = "em"

// Highlight returns copies of products whose descriptions wrap every
// occurrence of each word in <tag>word</tag>. Words are applied in order;
// a word whose wrapped form is already present is skipped, so repeated
// calls never nest tags. The input slice is left untouched.
func Highlight(products []model.Product, words []string, tag string) []model.Product {
	if tag == "" {
		tag = DefaultHighlightTag
	}
	out := make([]model.Product, len(products))
	for i, p := range products {
		c := p.Clone()
		for _, w := range words {
			if w == "" {
				continue
			}
			wrapped := "<" + tag + ">" + w + "</" + tag + ">"
			if strings.Contains(c.Description, wrapped) {
				continue
			}
			c.Description = strings.ReplaceAll(c.Description, w, wrapped)
		}
		out[i] = c
	}
	return out
}
