package view

import (
	"context"
	"sync"
)

// State is the lifecycle of one cached collection.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateSuccess
	StateError
)

// FetchFunc loads the full collection from the API.
type FetchFunc[T any] func(ctx context.Context) ([]T, error)

// Collection is a fetch-on-demand cache for one resource list. It moves
// idle -> loading -> success or error, and returns to loading only on an
// explicit Invalidate, which every mutation triggers whether it succeeded
// or not. During a refetch the previous data stays visible, and a failed
// refetch keeps it too: stale data beats an empty screen, and the next
// invalidation self-heals.
type Collection[T any] struct {
	mu    sync.Mutex
	state State
	items []T
	err   error
	fetch FetchFunc[T]
}

// NewCollection creates an idle Collection backed by fetch.
func NewCollection[T any](fetch FetchFunc[T]) *Collection[T] {
	return &Collection[T]{fetch: fetch}
}

// Load fetches the collection if it has never been loaded. Subsequent calls
// are no-ops; use Invalidate to force a refetch.
func (c *Collection[T]) Load(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return c.err
	}
	c.mu.Unlock()

	return c.refetch(ctx)
}

// Invalidate refetches the collection unconditionally.
func (c *Collection[T]) Invalidate(ctx context.Context) error {
	return c.refetch(ctx)
}

func (c *Collection[T]) refetch(ctx context.Context) error {
	c.mu.Lock()
	c.state = StateLoading
	c.mu.Unlock()

	items, err := c.fetch(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.state = StateError
		c.err = err
		return err
	}
	c.state = StateSuccess
	c.items = items
	c.err = nil
	return nil
}

// Items returns the last successfully fetched data and the current state.
// During loading or after an error this is the previous snapshot.
func (c *Collection[T]) Items() ([]T, State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.items, c.state
}

// Err returns the last fetch error, if the collection is in StateError.
func (c *Collection[T]) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}
