// Package callctx carries ambient key/value data along a logical call path.
//
// Data lives in a scope bound to a context.Context. Writes on a path are seen
// by later reads on that path. Work spawned with Fork, Go or a Group gets its
// own scope holding a snapshot of the parent's data: it sees what the parent
// had set when it was spawned, its own writes never reach the parent, and
// siblings never see each other. Nothing is kept in global or goroutine-local
// state, so unrelated call trees cannot observe each other's entries.
package callctx

import (
	"context"
	"maps"
	"sync"

	"golang.org/x/sync/errgroup"
)

// SetData stores value under key in the scope carried by ctx, opening a new
// scope if ctx has none. Keep using the returned context on this path.
func SetData(ctx context.Context, key string, value any) context.Context {
	if s := lookup(ctx); s != nil {
		s.set(key, value)

		return ctx
	}

	s := &scope{data: map[string]any{key: value}}

	return context.WithValue(ctx, scopeKey{}, s)
}

// GetData reads key from the scope carried by ctx.
func GetData(ctx context.Context, key string) (any, bool) {
	s := lookup(ctx)
	if s == nil {
		return nil, false
	}

	return s.get(key)
}

// Set is the typed form of SetData.
func Set[T any](ctx context.Context, key string, value T) context.Context {
	return SetData(ctx, key, value)
}

// Get is the typed form of GetData. A value of another type reads as absent.
func Get[T any](ctx context.Context, key string) (T, bool) {
	var zero T

	raw, ok := GetData(ctx, key)
	if !ok {
		return zero, false
	}

	value, ok := raw.(T)
	if !ok {
		return zero, false
	}

	return value, true
}

// Snapshot copies every entry visible from ctx.
func Snapshot(ctx context.Context) map[string]any {
	s := lookup(ctx)
	if s == nil {
		return nil
	}

	return s.snapshot()
}

// Has reports whether ctx carries a scope.
func Has(ctx context.Context) bool {
	return lookup(ctx) != nil
}

// Fork opens a child scope seeded with a copy of the parent's entries.
func Fork(ctx context.Context) context.Context {
	child := &scope{}
	if parent := lookup(ctx); parent != nil {
		child.data = parent.snapshot()
	}

	return context.WithValue(ctx, scopeKey{}, child)
}

// Go runs fn on a new goroutine with a forked scope. The returned channel is
// closed when fn returns.
func Go(ctx context.Context, fn func(ctx context.Context)) <-chan struct{} {
	done := make(chan struct{})
	child := Fork(ctx)

	go func() {
		defer close(done)

		fn(child)
	}()

	return done
}

// Group is an errgroup whose goroutines each run in a forked scope.
type Group struct {
	group *errgroup.Group
	ctx   context.Context //nolint:containedctx // children fork from it
}

// WithGroup returns a Group and the context its children derive from.
func WithGroup(ctx context.Context) (*Group, context.Context) {
	group, groupCtx := errgroup.WithContext(ctx)

	return &Group{group: group, ctx: groupCtx}, groupCtx
}

// Go starts fn in a scope forked at the time of the call.
func (g *Group) Go(fn func(ctx context.Context) error) {
	child := Fork(g.ctx)

	g.group.Go(func() error {
		return fn(child)
	})
}

// Wait blocks until every child has returned and reports the first error.
func (g *Group) Wait() error {
	return g.group.Wait() //nolint:wrapcheck // errors come from the caller's own funcs
}

type scopeKey struct{}

type scope struct {
	mu   sync.RWMutex
	data map[string]any
}

func lookup(ctx context.Context) *scope {
	if ctx == nil {
		return nil
	}

	s, _ := ctx.Value(scopeKey{}).(*scope)

	return s
}

func (s *scope) set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		s.data = make(map[string]any)
	}

	s.data[key] = value
}

func (s *scope) get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.data[key]

	return value, ok
}

func (s *scope) snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return maps.Clone(s.data)
}
