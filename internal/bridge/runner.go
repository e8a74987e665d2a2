// internal/bridge/runner.go
package bridge

import (
	"context"
	"time"
)

// Run starts the instrument and then ticks until ctx is done.
// The link read timeout paces the loop.
// A startup failure is returned and polling never starts.
func (b *Bridge) Run(ctx context.Context) error {
	if err := b.Start(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			b.log.Info("bridge stopped")
			return nil
		default:
		}
		b.Tick(time.Now())
	}
}
