package upstream

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/fairyhunter13/product-catalog-service/internal/model"
	"github.com/fairyhunter13/product-catalog-service/internal/obs"
)

// FileSource reads products from a JSON document on disk.
type FileSource struct {
	Path         string
	ProductsPath string
}

// Name identifies the source in logs and metrics.
func (s *FileSource) Name() string { return "file" }

// Fetch reads and decodes the file.
func (s *FileSource) Fetch(ctx context.Context) ([]model.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.Path, err)
	}
	return Decode(data, s.ProductsPath)
}

// Watch calls onChange each time the file at path is written, created or
// renamed into place. The parent directory is watched so editors that
// replace the file atomically are seen too. Watching stops when ctx is done.
func Watch(ctx context.Context, path string, onChange func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	target := filepath.Clean(path)
	if err := w.Add(filepath.Dir(target)); err != nil {
		_ = w.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}

	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
					obs.Logger.Info().Str("path", target).Str("op", ev.Op.String()).Msg("products_file_changed")
					onChange()
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				obs.Logger.Warn().Err(err).Str("path", target).Msg("products_file_watch_error")
			}
		}
	}()
	return nil
}
