// internal/browser/context.go
package browser

import (
	"context"
	"time"
)

// CombineContext creates a context derived from primary that is canceled when
// either primary or secondary is canceled. It inherits values from primary.
// This matters for chromedp, where the session context carries the CDP
// connection info while the operational context carries the caller's deadline.
func CombineContext(primary, secondary context.Context) (context.Context, context.CancelFunc) {
	combined, cancel := context.WithCancel(primary)

	go func() {
		select {
		case <-secondary.Done():
			cancel()
		case <-combined.Done():
		}
	}()

	return combined, cancel
}

// valueOnlyContext inherits values (such as CDP target information) from its
// parent while ignoring the parent's deadline and cancellation.
type valueOnlyContext struct {
	context.Context
}

func (valueOnlyContext) Deadline() (deadline time.Time, ok bool) { return }
func (valueOnlyContext) Done() <-chan struct{}                   { return nil }
func (valueOnlyContext) Err() error                              { return nil }

// Detach returns a context that keeps ctx's values but not its cancellation.
// Used for cleanup work that must outlive the operation that triggered it.
func Detach(ctx context.Context) context.Context {
	return valueOnlyContext{ctx}
}
