package store

import (
	"context"
	"sync"
	"time"

	"github.com/fairyhunter13/product-catalog-service/internal/obs"
)

// StartRefresh reloads the table from upstream every interval until the
// returned stop function is called or parent is done. stop blocks until
// the background loop has exited.
func (r *Repository) StartRefresh(parent context.Context, interval time.Duration) (stop func()) {
	ctx, cancel := context.WithCancel(parent)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if ok := r.Reload(ctx); !ok {
					obs.Logger.Warn().Str("state", r.State().String()).Msg("scheduled_reload_failed")
				}
			}
		}
	}()
	return func() {
		cancel()
		wg.Wait()
	}
}
