package catalog

import (
	"context"
	"fmt"

	"github.com/fairyhunter13/product-catalog-service/internal/model"
	"github.com/fairyhunter13/product-catalog-service/internal/obs"
	"github.com/fairyhunter13/product-catalog-service/internal/query"
)

// Source supplies products. Implementations never fail: an unavailable
// upstream yields no products. Every call returns products the caller
// may modify freely.
type Source interface {
	Select(ctx context.Context) []model.Product
	SelectWhere(ctx context.Context, pred model.Predicate) []model.Product
}

// Options tune response assembly.
type Options struct {
	CommonWords  Page
	HighlightTag string
}

// DefaultOptions returns the stock pagination for commonWords and the
// stock highlight tag.
func DefaultOptions() Options {
	return Options{
		CommonWords:  Page{Skip: 5, Take: 10},
		HighlightTag: DefaultHighlightTag,
	}
}

// Request is one product query.
type Request struct {
	Criteria  FilterCriteria
	Highlight query.MultiValueParam
}

// Service assembles product responses from a Source.
type Service struct {
	src  Source
	opts Options
}

// NewService constructs a Service.
func NewService(src Source, opts Options) *Service {
	if opts.HighlightTag == "" {
		opts.HighlightTag = DefaultHighlightTag
	}
	return &Service{src: src, opts: opts}
}

// Products filters, aggregates and highlights. It always returns a
// usable payload; failures degrade to model.EmptyResponse.
func (s *Service) Products(ctx context.Context, req Request) (resp model.ProductsResponse) {
	defer func() {
		if r := recover(); r != nil {
			obs.Logger.Error().
				Err(fmt.Errorf("%v", r)).
				Str("request_id", obs.RequestIDFromContext(ctx)).
				Msg("products_pipeline_panic")
			resp = model.EmptyResponse()
		}
	}()

	var products []model.Product
	if pred := BuildPredicate(req.Criteria); pred == nil {
		products = s.src.Select(ctx)
	} else {
		products = s.src.SelectWhere(ctx, pred)
	}

	resp = model.EmptyResponse()
	minPrice, maxPrice := PricingStatistics(products)
	resp.MinPrice, resp.MaxPrice = &minPrice, &maxPrice
	resp.Sizes = DistinctSizes(products)
	resp.CommonWords = CommonWords(products, s.opts.CommonWords, nil)

	if products != nil {
		resp.Products = products
	}
	if req.Highlight.Len() > 0 {
		resp.Products = Highlight(resp.Products, req.Highlight.Values(), s.opts.HighlightTag)
	}
	return resp
}
