package playback

import (
	"context"
	"errors"
	"io"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playdeck/internal/audio"
	"github.com/desertthunder/playdeck/internal/focus"
	"github.com/desertthunder/playdeck/internal/models"
	tu "github.com/desertthunder/playdeck/internal/testing"
)

// fakePlayer records requests synchronously.
type fakePlayer struct {
	mu      sync.Mutex
	current *models.Track
	playing bool
	played  []string
	toggles int
	closed  int
	onEnded func()
}

func (p *fakePlayer) PlayTrack(t *models.Track) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current, p.playing = t, true
	p.played = append(p.played, t.ID)
}

func (p *fakePlayer) TogglePlayPause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.toggles++
	if p.current != nil {
		p.playing = !p.playing
	}
}

func (p *fakePlayer) Current() *models.Track {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

func (p *fakePlayer) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

func (p *fakePlayer) OnEnded(fn func()) { p.onEnded = fn }

func (p *fakePlayer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed++
	return nil
}

func (p *fakePlayer) Played() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.played)
}

type fakeFocus struct{ panels []focus.Panel }

func (f *fakeFocus) SetActive(p focus.Panel) { f.panels = append(f.panels, p) }

func tracks(ids ...string) []*models.Track {
	out := make([]*models.Track, len(ids))
	for i, id := range ids {
		out[i] = &models.Track{ID: id, Name: "Track " + id, AudioURL: "file:///" + id + ".mp3", Duration: 180}
	}
	return out
}

// fixedRand returns the given indexes in order, then repeats the last.
func fixedRand(picks ...int) func(int) int {
	var mu sync.Mutex
	return func(n int) int {
		mu.Lock()
		defer mu.Unlock()
		v := picks[0]
		if len(picks) > 1 {
			picks = picks[1:]
		}
		return v % n
	}
}

func newSession(t *testing.T, opts Options) (*Session, *fakePlayer) {
	t.Helper()
	p := &fakePlayer{}
	opts.Logger = log.New(io.Discard)
	s := New(p, opts)
	t.Cleanup(func() { s.Close() })
	return s, p
}

func TestSessionPlayNext(t *testing.T) {
	q := tracks("a", "b", "c")

	t.Run("Sequential", func(t *testing.T) {
		tc := []struct {
			name  string
			start int
			want  string
		}{
			{name: "from first", start: 0, want: "b"},
			{name: "from middle", start: 1, want: "c"},
			{name: "wraps from last", start: 2, want: "a"},
		}
		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				s, p := newSession(t, Options{})
				s.SetQueue(q)
				s.PlayTrack(q[tt.start])

				s.PlayNext()
				if got := p.Current().ID; got != tt.want {
					t.Errorf("expected %s, got %s", tt.want, got)
				}
			})
		}
	})

	t.Run("Shuffle Picks Random Index", func(t *testing.T) {
		s, p := newSession(t, Options{Rand: fixedRand(2, 2, 0)})
		s.SetQueue(q)
		s.PlayTrack(q[0])
		s.mu.Lock()
		s.shuffle = true
		s.mu.Unlock()

		s.PlayNext()
		s.PlayNext()
		s.PlayNext()

		want := []string{"a", "c", "c", "a"}
		if got := p.Played(); !slices.Equal(got, want) {
			t.Errorf("expected %v (repeats allowed), got %v", want, got)
		}
	})

	t.Run("Current Not In Queue", func(t *testing.T) {
		s, p := newSession(t, Options{})
		s.PlayTrack(tracks("x")[0])
		s.SetQueue(q)

		if p.Current().ID != "x" {
			t.Fatal("replacing the queue must not change the current track")
		}

		s.PlayNext()
		if got := p.Current().ID; got != "a" {
			t.Errorf("expected start of new queue, got %s", got)
		}
	})

	t.Run("No Op", func(t *testing.T) {
		s, p := newSession(t, Options{})
		s.SetQueue(q)
		s.PlayNext()
		if len(p.Played()) != 0 {
			t.Error("next without a current track should be a no-op")
		}

		s.PlayTrack(q[0])
		s.SetQueue(nil)
		s.PlayNext()
		s.PlayPrevious()
		if got := p.Played(); len(got) != 1 {
			t.Errorf("next/previous with an empty queue should be a no-op, got %v", got)
		}
	})
}

func TestSessionPlayPrevious(t *testing.T) {
	q := tracks("a", "b", "c")

	for _, shuffle := range []bool{false, true} {
		s, p := newSession(t, Options{Rand: fixedRand(1)})
		s.SetQueue(q)
		s.PlayTrack(q[0])
		s.mu.Lock()
		s.shuffle = shuffle
		s.mu.Unlock()

		s.PlayPrevious()
		if got := p.Current().ID; got != "c" {
			t.Errorf("shuffle=%v: expected wrap to c, got %s", shuffle, got)
		}

		s.PlayPrevious()
		if got := p.Current().ID; got != "b" {
			t.Errorf("shuffle=%v: expected b, got %s", shuffle, got)
		}
	}

	t.Run("Current Not In Queue", func(t *testing.T) {
		s, p := newSession(t, Options{})
		s.PlayTrack(tracks("x")[0])
		s.SetQueue(q)

		s.PlayPrevious()
		if got := p.Current().ID; got != "a" {
			t.Errorf("expected start of new queue, got %s", got)
		}
	})
}

func TestSessionToggleShuffle(t *testing.T) {
	q := tracks("a", "b", "c")

	t.Run("On Plays Random Track", func(t *testing.T) {
		s, p := newSession(t, Options{Rand: fixedRand(1)})
		s.SetQueue(q)

		if !s.ToggleShuffle() {
			t.Fatal("expected shuffle on")
		}
		if got := p.Played(); !slices.Equal(got, []string{"b"}) {
			t.Errorf("expected immediate play of b, got %v", got)
		}

		if s.ToggleShuffle() {
			t.Fatal("expected shuffle off")
		}
		if len(p.Played()) != 1 {
			t.Error("turning shuffle off should not play anything")
		}
	})

	t.Run("Empty Queue", func(t *testing.T) {
		s, p := newSession(t, Options{})
		if !s.ToggleShuffle() || !s.Shuffle() {
			t.Error("expected shuffle on")
		}
		if len(p.Played()) != 0 {
			t.Error("shuffle with an empty queue should only flip the flag")
		}
	})
}

func TestSessionPlayTrack(t *testing.T) {
	t.Run("Moves Focus To Tracklist", func(t *testing.T) {
		f := &fakeFocus{}
		s, _ := newSession(t, Options{Focus: f})

		s.PlayTrack(tracks("a")[0])
		if !slices.Equal(f.panels, []focus.Panel{focus.Tracklist}) {
			t.Errorf("expected tracklist activation, got %v", f.panels)
		}
	})

	t.Run("Queue Is A Snapshot", func(t *testing.T) {
		s, _ := newSession(t, Options{})
		q := tracks("a", "b")
		s.SetQueue(q)
		q[0] = tracks("z")[0]

		if s.Queue()[0].ID != "a" {
			t.Error("queue should be copied")
		}
	})

	t.Run("Ended Advances Once", func(t *testing.T) {
		s, p := newSession(t, Options{})
		q := tracks("a", "b", "c")
		s.SetQueue(q)
		s.PlayTrack(q[0])

		p.onEnded()
		if got := p.Played(); !slices.Equal(got, []string{"a", "b"}) {
			t.Errorf("expected a single advance, got %v", got)
		}
	})
}

func TestSessionFavorites(t *testing.T) {
	track := tracks("a")[0]

	t.Run("Optimistic Toggle", func(t *testing.T) {
		svc := tu.NewMockFavoritesService()
		svc.Gate = make(chan struct{})
		s, _ := newSession(t, Options{Favorites: svc})

		if !s.ToggleFavorite(track) {
			t.Fatal("expected favorite on")
		}
		if !s.IsFavorite("a") {
			t.Error("local state should flip before the service answers")
		}

		close(svc.Gate)
		tu.Eventually(t, func() bool { return len(svc.Calls()) == 1 }, "service never called")

		if s.ToggleFavorite(track) || s.IsFavorite("a") {
			t.Error("expected favorite off")
		}
		tu.Eventually(t, func() bool { return len(svc.Calls()) == 2 }, "service never called")

		if got := svc.Calls(); !slices.Equal(got, []string{"a=true", "a=false"}) {
			t.Errorf("unexpected calls %v", got)
		}
	})

	t.Run("Failure Keeps Local State", func(t *testing.T) {
		svc := tu.NewMockFavoritesService()
		svc.Err = errors.New("offline")
		s, _ := newSession(t, Options{Favorites: svc})

		s.ToggleFavorite(track)
		s.Close()

		if !s.IsFavorite("a") {
			t.Error("a failed notification should not roll back")
		}
	})

	t.Run("Load", func(t *testing.T) {
		svc := tu.NewMockFavoritesService("a", "b")
		s, _ := newSession(t, Options{Favorites: svc})

		if err := s.LoadFavorites(context.Background()); err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if !s.IsFavorite("a") || !s.IsFavorite("b") || s.IsFavorite("c") {
			t.Error("unexpected favorites after load")
		}
	})

	t.Run("Close Cancels Pending Calls", func(t *testing.T) {
		svc := tu.NewMockFavoritesService()
		svc.Gate = make(chan struct{})
		s, p := newSession(t, Options{Favorites: svc})

		s.ToggleFavorite(track)
		if err := s.Close(); err != nil {
			t.Fatalf("close failed: %v", err)
		}
		s.Close()

		if p.closed != 1 {
			t.Errorf("expected the player to be closed once, got %d", p.closed)
		}

		s.ToggleFavorite(track)
		if len(svc.Calls()) != 1 {
			t.Error("no calls should start after Close")
		}
	})
}

func TestSessionEndToEnd(t *testing.T) {
	media := tu.NewMockMedia(180 * time.Second)
	transport := audio.NewTransport(media, audio.Options{
		PollInterval: 5 * time.Millisecond,
		Logger:       log.New(io.Discard),
	})

	nav := focus.New()
	nav.Register(focus.Sidebar, focus.ContainerFunc(func() []string { return []string{"library"} }), nil)
	nav.Register(focus.Tracklist, focus.ContainerFunc(func() []string { return []string{"a", "b"} }), nil)

	s := New(transport, Options{Focus: nav, Logger: log.New(io.Discard)})
	defer s.Close()

	q := tracks("a", "b")

	s.PlayTrack(q[0])
	if s.Current().ID != "a" || !s.Playing() {
		t.Fatalf("expected a playing, got %+v", transport.State())
	}
	if nav.Active() != focus.Tracklist {
		t.Error("playing a track should activate the tracklist")
	}
	tu.Eventually(t, media.IsPlaying, "media never started")

	s.TogglePlayPause()
	if s.Playing() || s.Current().ID != "a" {
		t.Errorf("expected a paused, got %+v", transport.State())
	}

	s.SetQueue(q)
	s.TogglePlayPause()
	tu.Eventually(t, media.IsPlaying, "media never resumed")

	media.Finish()
	tu.Eventually(t, func() bool { return s.Current().ID == "b" }, "end of track did not advance")
	tu.Eventually(t, media.IsPlaying, "next track never started")

	sources := media.Sources()
	if last := sources[len(sources)-1]; last != "/api/audio/b.mp3" {
		t.Errorf("expected b to be loaded, got %v", sources)
	}
}
