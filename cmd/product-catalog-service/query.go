package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fairyhunter13/product-catalog-service/internal/catalog"
	"github.com/fairyhunter13/product-catalog-service/internal/config"
	"github.com/fairyhunter13/product-catalog-service/internal/model"
	"github.com/fairyhunter13/product-catalog-service/internal/obs"
	"github.com/fairyhunter13/product-catalog-service/internal/query"
)

type queryOptions struct {
	minPrice  int
	maxPrice  int
	size      string
	highlight []string
}

func newQueryCmd(cfgFile *string) *cobra.Command {
	var opts queryOptions
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Run one product query against the upstream and print the JSON response",
		Example: `  product-catalog-service query --maxprice 15 --size medium --highlight green,blue
  product-catalog-service query --highlight green --highlight blue`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			// keep stdout for the response
			obs.InitLogger(obs.LogConfig{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cmd.ErrOrStderr()})

			req, err := opts.request(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			repo, closeRepo, err := newRepository(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeRepo()
			// a one-shot query waits for the full load
			repo.Warmup(ctx)

			resp := newCatalog(cfg, repo).Products(ctx, req)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		},
	}
	cmd.Flags().IntVar(&opts.minPrice, "minprice", 0, "inclusive lower price bound")
	cmd.Flags().IntVar(&opts.maxPrice, "maxprice", 0, "inclusive upper price bound")
	cmd.Flags().StringVar(&opts.size, "size", "", "size filter (small, medium, large)")
	cmd.Flags().StringArrayVar(&opts.highlight, "highlight", nil, "word to highlight; repeat or delimit with , space \\ or |")
	return cmd
}

func (o queryOptions) request(cmd *cobra.Command) (catalog.Request, error) {
	var req catalog.Request
	if cmd.Flags().Changed("minprice") {
		v := o.minPrice
		req.Criteria.MinPrice = &v
	}
	if cmd.Flags().Changed("maxprice") {
		v := o.maxPrice
		req.Criteria.MaxPrice = &v
	}
	if o.size != "" {
		size, err := model.ParseSize(o.size)
		if err != nil {
			return req, fmt.Errorf("--size: %w", err)
		}
		req.Criteria.Size = &size
	}
	hl, err := query.Bind("highlight", o.highlight)
	if err != nil && !query.IsBindingError(err) {
		return req, fmt.Errorf("--highlight: %w", err)
	}
	if err != nil {
		obs.Logger.Debug().Err(err).Msg("highlight_separator_fallback")
	}
	req.Highlight = hl
	return req, nil
}
