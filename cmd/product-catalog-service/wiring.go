package main

import (
	"context"
	"fmt"

	"github.com/fairyhunter13/product-catalog-service/internal/catalog"
	"github.com/fairyhunter13/product-catalog-service/internal/config"
	"github.com/fairyhunter13/product-catalog-service/internal/store"
	"github.com/fairyhunter13/product-catalog-service/internal/upstream"
)

// newSource picks the file upstream when configured, the HTTP one otherwise.
func newSource(cfg config.Config) upstream.Source {
	if cfg.Upstream.File != "" {
		return &upstream.FileSource{Path: cfg.Upstream.File, ProductsPath: cfg.Upstream.ProductsPath}
	}
	return upstream.NewHTTPSource(upstream.HTTPConfig{
		URL:          cfg.Upstream.URL,
		ProductsPath: cfg.Upstream.ProductsPath,
		Timeout:      cfg.Upstream.Timeout,
		MaxRetries:   uint(cfg.Upstream.MaxRetries),
	}, nil)
}

// newRepository wires the product table and its optional Redis snapshot.
// The returned cleanup releases the snapshot connection.
func newRepository(ctx context.Context, cfg config.Config) (*store.Repository, func(), error) {
	cleanup := func() {}
	var snap store.Snapshot
	if cfg.Redis.Addr != "" {
		rs, err := store.NewRedisSnapshot(ctx, store.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Key:      cfg.Redis.SnapshotKey,
			TTL:      cfg.Redis.SnapshotTTL,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("connect snapshot store: %w", err)
		}
		snap = rs
		cleanup = func() { _ = rs.Close() }
	}
	repo := store.New(newSource(cfg), snap,
		store.WithWaitBudget(cfg.Upstream.WarmupWait),
		store.WithRetryCooldown(cfg.Upstream.RetryCooldown),
	)
	return repo, cleanup, nil
}

func newCatalog(cfg config.Config, repo *store.Repository) *catalog.Service {
	return catalog.NewService(repo, catalog.Options{
		CommonWords: catalog.Page{
			Skip: cfg.Products.CommonWordsSkip,
			Take: cfg.Products.CommonWordsTake,
		},
		HighlightTag: cfg.Products.HighlightTag,
	})
}
