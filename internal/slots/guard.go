// Package slots keeps slot lookups latest-wins: a newer lookup for the same
// key cancels the older one, and a superseded response is never returned.
package slots

import (
	"context"
	"sync"

	"github.com/wolfman30/clinicdesk/internal/apierror"
)

// ErrSuperseded is returned to a lookup that a newer one replaced.
var ErrSuperseded = apierror.Conflict("a newer slot lookup replaced this one")

type entry struct {
	token  uint64
	cancel context.CancelFunc
}

// Guard tracks the freshest in-flight request per key.
type Guard struct {
	mu      sync.Mutex
	next    uint64
	current map[string]entry
}

// NewGuard creates an empty guard.
func NewGuard() *Guard {
	return &Guard{current: make(map[string]entry)}
}

// Begin registers a request for key, cancelling any older one. The returned
// context is cancelled when a newer request begins or done is called.
func (g *Guard) Begin(ctx context.Context, key string) (context.Context, uint64, func()) {
	ctx, cancel := context.WithCancel(ctx)

	g.mu.Lock()
	g.next++
	token := g.next
	if prev, ok := g.current[key]; ok {
		prev.cancel()
	}
	g.current[key] = entry{token: token, cancel: cancel}
	g.mu.Unlock()

	done := func() {
		g.mu.Lock()
		if e, ok := g.current[key]; ok && e.token == token {
			delete(g.current, key)
		}
		g.mu.Unlock()
		cancel()
	}
	return ctx, token, done
}

// Current reports whether token is still the freshest request for key.
func (g *Guard) Current(key string, token uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	e, ok := g.current[key]
	return ok && e.token == token
}

// Latest runs fn under the guard and discards its result when a newer
// request for key began in the meantime.
func Latest[T any](ctx context.Context, g *Guard, key string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	ctx, token, done := g.Begin(ctx, key)
	defer done()

	result, err := fn(ctx)
	if !g.Current(key, token) {
		return zero, ErrSuperseded
	}
	if err != nil {
		return zero, err
	}
	return result, nil
}
