package goroutine

import (
	"context"
	"runtime/debug"

	"github.com/kfhr/cashdesk-backend/internal/logger"
)

// SafeGo runs fn on a detached goroutine, logging panics instead of crashing
// the process. The legacy deposit path runs its machine call this way so the
// chat reply can return immediately.
func SafeGo(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Log.Errorf("panic in goroutine: %v\nstack:\n%s", r, debug.Stack())
			}
		}()
		fn()
	}()
}

// SafeGoWithContext is SafeGo for context-aware work.
func SafeGoWithContext(ctx context.Context, fn func(context.Context)) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Log.Errorf("panic in goroutine: %v\nstack:\n%s", r, debug.Stack())
			}
		}()
		fn(ctx)
	}()
}
