package optimistic

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playdeck/internal/models"
	tu "github.com/desertthunder/playdeck/internal/testing"
)

// remoteList is a fetcher over a mutable slice that can be held open.
type remoteList struct {
	mu    sync.Mutex
	items []*models.Playlist
	gate  chan struct{}
	calls atomic.Int32
	err   error
}

func (r *remoteList) fetch(ctx context.Context) ([]*models.Playlist, error) {
	r.calls.Add(1)
	r.mu.Lock()
	gate := r.gate
	r.mu.Unlock()
	if gate != nil {
		<-gate
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	out := make([]*models.Playlist, len(r.items))
	for i, p := range r.items {
		out[i] = p.Clone()
	}
	return out, nil
}

func (r *remoteList) set(items ...*models.Playlist) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = items
}

func newCoordinator(r *remoteList) (*Store[*models.Playlist], *Coordinator[*models.Playlist]) {
	s := NewStore(newestFirst)
	return s, NewCoordinator(s, r.fetch, log.New(io.Discard))
}

func TestCoordinator(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	t.Run("Three Phases", func(t *testing.T) {
		r := &remoteList{}
		s, c := newCoordinator(r)
		gate := make(chan struct{})

		done, err := c.Do(ctx, Mutation[*models.Playlist]{
			Key:   "create",
			Apply: func(s *Store[*models.Playlist]) { s.Update("p1", put(playlist("p1", "local", base))) },
			Remote: func(ctx context.Context) error {
				<-gate
				r.set(playlist("p1", "server", base))
				return nil
			},
		})
		if err != nil {
			t.Fatalf("do failed: %v", err)
		}

		if got, ok := s.Get("p1"); !ok || got.Name != "local" {
			t.Fatal("local apply should be visible before the remote call finishes")
		}

		close(gate)
		if err := <-done; err != nil {
			t.Errorf("unexpected remote error: %v", err)
		}
		if got, _ := s.Get("p1"); got.Name != "server" {
			t.Errorf("refetch should replace the projection, got %q", got.Name)
		}
	})

	t.Run("Duplicate Key Rejected", func(t *testing.T) {
		r := &remoteList{}
		_, c := newCoordinator(r)
		gate := make(chan struct{})
		var remotes atomic.Int32

		m := Mutation[*models.Playlist]{
			Key: "delete:p1",
			Remote: func(ctx context.Context) error {
				remotes.Add(1)
				<-gate
				return nil
			},
		}

		done, err := c.Do(ctx, m)
		if err != nil {
			t.Fatalf("first do failed: %v", err)
		}
		if !c.InFlight("delete:p1") {
			t.Error("expected key in flight")
		}

		applied := false
		m.Apply = func(*Store[*models.Playlist]) { applied = true }
		if _, err := c.Do(ctx, m); !errors.Is(err, ErrInFlight) {
			t.Errorf("expected ErrInFlight, got %v", err)
		}
		if applied {
			t.Error("a rejected mutation must not apply locally")
		}

		close(gate)
		<-done
		if remotes.Load() != 1 {
			t.Errorf("expected one remote call, got %d", remotes.Load())
		}
		if _, err := c.Do(ctx, m); err != nil {
			t.Errorf("key should be free after completion, got %v", err)
		}
		c.Wait()
	})

	t.Run("Remote Failure Refetches", func(t *testing.T) {
		r := &remoteList{items: []*models.Playlist{playlist("keep", "server", base)}}
		s, c := newCoordinator(r)

		done, _ := c.Do(ctx, Mutation[*models.Playlist]{
			Key:    "delete:keep",
			Apply:  func(s *Store[*models.Playlist]) { s.Remove("keep") },
			Remote: func(context.Context) error { return errors.New("rejected") },
		})

		if err := <-done; err == nil {
			t.Error("expected the remote error on the channel")
		}
		if _, ok := s.Get("keep"); !ok {
			t.Error("corrective refetch should restore the playlist")
		}
		if r.calls.Load() != 1 {
			t.Errorf("expected one refetch, got %d", r.calls.Load())
		}
	})

	t.Run("Refetch Overtaken By Local Write", func(t *testing.T) {
		r := &remoteList{gate: make(chan struct{})}
		s, c := newCoordinator(r)

		errc := make(chan error, 1)
		go func() { errc <- c.Refresh(ctx) }()
		tu.Eventually(t, func() bool { return r.calls.Load() == 1 }, "refetch never started")

		s.Update("p1", put(playlist("p1", "newer", base)))
		close(r.gate)

		if err := <-errc; err != nil {
			t.Fatalf("refresh failed: %v", err)
		}
		if _, ok := s.Get("p1"); !ok {
			t.Error("stale refetch must not undo a newer local write")
		}
	})

	t.Run("Later Refetch Wins", func(t *testing.T) {
		r := &remoteList{}
		s, c := newCoordinator(r)

		// seq 1 holds, seq 2 lands first
		r.gate = make(chan struct{})
		r.set(playlist("old", "old", base))
		first := make(chan error, 1)
		go func() { first <- c.Refresh(ctx) }()
		tu.Eventually(t, func() bool { return r.calls.Load() == 1 }, "first refetch never started")

		r.mu.Lock()
		held := r.gate
		r.gate = nil
		r.mu.Unlock()

		r.set(playlist("new", "new", base))
		if err := c.Refresh(ctx); err != nil {
			t.Fatal(err)
		}

		r.set(playlist("old", "old", base))
		close(held)
		<-first

		if _, ok := s.Get("new"); !ok {
			t.Errorf("an older refetch must not replace a newer one, got %v", ids(s.List()))
		}
	})

	t.Run("Refresh Error", func(t *testing.T) {
		r := &remoteList{err: errors.New("down")}
		s, c := newCoordinator(r)
		s.Update("p1", put(playlist("p1", "x", base)))

		if err := c.Refresh(ctx); err == nil {
			t.Error("expected fetch error")
		}
		if s.Len() != 1 {
			t.Error("failed refetch should keep the projection")
		}
	})
}
