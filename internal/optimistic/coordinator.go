package optimistic

import (
	"context"
	"errors"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playdeck/internal/shared"
)

// ErrInFlight is returned by [Coordinator.Do] while a mutation with the same key is outstanding.
var ErrInFlight = errors.New("mutation already in flight")

// Fetcher loads the authoritative collection.
type Fetcher[T any] func(ctx context.Context) ([]T, error)

// Mutation is one optimistic change.
type Mutation[T Item[T]] struct {
	// Key identifies the target for the duplicate guard. Empty disables the guard.
	Key string
	// Apply writes the local change. It runs synchronously inside Do.
	Apply func(s *Store[T])
	// Remote performs the change against the collaborator.
	Remote func(ctx context.Context) error
}

// Coordinator runs mutations in three phases: local apply, remote call, refetch.
type Coordinator[T Item[T]] struct {
	store  *Store[T]
	fetch  Fetcher[T]
	logger *log.Logger

	mu       sync.Mutex
	inflight map[string]struct{}
	fetchSeq uint64
	applied  uint64
	wg       sync.WaitGroup
}

func NewCoordinator[T Item[T]](store *Store[T], fetch Fetcher[T], logger *log.Logger) *Coordinator[T] {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Coordinator[T]{
		store:    store,
		fetch:    fetch,
		logger:   logger,
		inflight: make(map[string]struct{}),
	}
}

// Do applies m locally and returns once that is visible. The remote call and the corrective
// refetch run in the background; the returned channel receives the remote error and is then
// closed.
func (c *Coordinator[T]) Do(ctx context.Context, m Mutation[T]) (<-chan error, error) {
	if m.Key != "" {
		c.mu.Lock()
		if _, busy := c.inflight[m.Key]; busy {
			c.mu.Unlock()
			return nil, ErrInFlight
		}
		c.inflight[m.Key] = struct{}{}
		c.mu.Unlock()
	}

	if m.Apply != nil {
		m.Apply(c.store)
	}

	done := make(chan error, 1)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(done)

		var err error
		if m.Remote != nil {
			err = m.Remote(ctx)
		}
		if err != nil {
			c.logger.Warn("mutation failed", "key", m.Key, "err", err)
		}

		if rerr := c.Refresh(ctx); rerr != nil {
			c.logger.Warn("refetch failed", "key", m.Key, "err", rerr)
		}

		if m.Key != "" {
			c.mu.Lock()
			delete(c.inflight, m.Key)
			c.mu.Unlock()
		}
		done <- err
	}()
	return done, nil
}

// InFlight reports whether a mutation with key is outstanding.
func (c *Coordinator[T]) InFlight(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.inflight[key]
	return ok
}

// Refresh refetches the collection and replaces the projection. A result is dropped when a
// local write or a later refetch overtook it.
func (c *Coordinator[T]) Refresh(ctx context.Context) error {
	rev := c.store.Revision()
	c.mu.Lock()
	c.fetchSeq++
	seq := c.fetchSeq
	c.mu.Unlock()

	items, err := c.fetch(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq < c.applied {
		c.logger.Debug("dropped stale refetch", "seq", seq)
		return nil
	}
	if !c.store.Replace(items, rev) {
		c.logger.Debug("dropped refetch overtaken by local write", "rev", rev)
		return nil
	}
	c.applied = seq
	return nil
}

// Wait blocks until every background phase has finished.
func (c *Coordinator[T]) Wait() {
	c.wg.Wait()
}
