package catalog

import (
	"slices"
	"strings"

	"github.com/fairyhunter13/product-catalog-service/internal/model"
)

// PricingStatistics returns the lowest and highest price. An empty input
// yields (0, 0).
func PricingStatistics(products []model.Product) (minPrice, maxPrice int) {
	if len(products) == 0 {
		return 0, 0
	}
	minPrice, maxPrice = products[0].Price, products[0].Price
	for _, p := range products[1:] {
		minPrice = min(minPrice, p.Price)
		maxPrice = max(maxPrice, p.Price)
	}
	return minPrice, maxPrice
}

// DistinctSizes returns the union of all product sizes in first-seen order.
func DistinctSizes(products []model.Product) []model.Size {
	seen := make(map[model.Size]struct{})
	sizes := []model.Size{}
	for _, p := range products {
		for _, s := range p.Sizes {
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			sizes = append(sizes, s)
		}
	}
	return sizes
}

// wordTrimSet is stripped from both ends of every description token.
const wordTrimSet = "!?.,:;"

// WordCount is one row of a word-frequency table.
type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// WordStatistics is a frequency table ordered by descending count; equal
// counts keep the order in which words were first seen.
type WordStatistics []WordCount

// Words returns the words of the table in rank order.
func (ws WordStatistics) Words() []string {
	out := make([]string, len(ws))
	for i, wc := range ws {
		out[i] = wc.Word
	}
	return out
}

// Count returns the occurrences of word, or 0.
func (ws WordStatistics) Count(word string) int {
	for _, wc := range ws {
		if wc.Word == word {
			return wc.Count
		}
	}
	return 0
}

// Tokenize splits a description into words: whitespace-separated, with
// boundary punctuation trimmed and empty tokens dropped.
func Tokenize(description string) []string {
	fields := strings.Fields(description)
	tokens := fields[:0]
	for _, f := range fields {
		if w := strings.Trim(f, wordTrimSet); w != "" {
			tokens = append(tokens, w)
		}
	}
	return tokens
}

// WordFrequencies counts description words across products, case-sensitively.
func WordFrequencies(products []model.Product) WordStatistics {
	index := make(map[string]int)
	var table WordStatistics
	for _, p := range products {
		for _, w := range Tokenize(p.Description) {
			if i, ok := index[w]; ok {
				table[i].Count++
				continue
			}
			index[w] = len(table)
			table = append(table, WordCount{Word: w, Count: 1})
		}
	}
	slices.SortStableFunc(table, func(a, b WordCount) int { return b.Count - a.Count })
	return table
}

// TakeAll as Page.Take keeps every word after Skip.
const TakeAll = -1

// Page selects a window of a ranked list. A negative Skip counts as 0.
// Take 0 selects nothing; a negative Take (TakeAll) selects all remaining.
type Page struct {
	Skip int
	Take int
}

func (pg Page) apply(words []string) []string {
	skip := min(max(pg.Skip, 0), len(words))
	words = words[skip:]
	if pg.Take >= 0 && pg.Take < len(words) {
		words = words[:pg.Take]
	}
	return words
}

// CommonWords ranks description words and returns the requested page.
// When sink is non-nil it receives the whole table, regardless of page.
func CommonWords(products []model.Product, page Page, sink *WordStatistics) []string {
	table := WordFrequencies(products)
	if sink != nil {
		*sink = table
	}
	return page.apply(table.Words())
}
