// Package playback owns the active queue, shuffle mode and favorites, and drives an audio
// transport from them.
//
// A [Session] is constructed once by the application root, injected into the UI and torn
// down with Close.
package playback

import (
	"context"
	"slices"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playdeck/internal/focus"
	"github.com/desertthunder/playdeck/internal/models"
	"github.com/desertthunder/playdeck/internal/services"
	"github.com/desertthunder/playdeck/internal/shared"
)

// Player is the transport surface a [Session] drives. audio.Transport implements it.
type Player interface {
	PlayTrack(track *models.Track)
	TogglePlayPause()
	Current() *models.Track
	Playing() bool
	OnEnded(fn func())
	Close() error
}

// Activator switches the panel receiving keyboard input. focus.Navigator implements it.
type Activator interface {
	SetActive(panel focus.Panel)
}

// Options configures a [Session].
type Options struct {
	Favorites services.FavoritesService
	Focus     Activator
	// Rand returns an index in [0, n). Defaults to a uniform pick.
	Rand   func(n int) int
	Logger *log.Logger
}

// Session is the queue, shuffle and favorites state of the player. It is safe for concurrent
// use; auto-advance arrives from the transport's goroutine.
type Session struct {
	player    Player
	favorites services.FavoritesService
	focus     Activator
	rand      func(n int) int
	logger    *log.Logger

	mu      sync.Mutex
	queue   []*models.Track
	shuffle bool
	faves   map[string]bool
	closed  bool

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New binds a session to player and registers it as the end-of-track handler.
func New(player Player, opts Options) *Session {
	if opts.Rand == nil {
		opts.Rand = func(n int) int { return shared.RandomBetween(0, n-1) }
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		player:    player,
		favorites: opts.Favorites,
		focus:     opts.Focus,
		rand:      opts.Rand,
		logger:    shared.WithLogger(opts.Logger, "component", "session"),
		faves:     make(map[string]bool),
		ctx:       ctx,
		cancel:    cancel,
	}
	player.OnEnded(s.HandleTrackEnded)
	return s
}

// SetQueue replaces the active queue with a copy of tracks. The current track and playback
// state are left alone.
func (s *Session) SetQueue(tracks []*models.Track) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = slices.Clone(tracks)
}

// Queue returns a copy of the active queue.
func (s *Session) Queue() []*models.Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.queue)
}

func (s *Session) Current() *models.Track { return s.player.Current() }
func (s *Session) Playing() bool          { return s.player.Playing() }

func (s *Session) Shuffle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shuffle
}

// PlayTrack makes track current, starts it and moves keyboard focus to the tracklist.
func (s *Session) PlayTrack(track *models.Track) {
	if track == nil {
		return
	}
	s.player.PlayTrack(track)
	if s.focus != nil {
		s.focus.SetActive(focus.Tracklist)
	}
}

// TogglePlayPause forwards to the player.
func (s *Session) TogglePlayPause() { s.player.TogglePlayPause() }

// PlayNext advances through the queue, wrapping at the end. With shuffle on, any queue track
// may be picked, including the current one.
func (s *Session) PlayNext() {
	if track := s.pick(1); track != nil {
		s.PlayTrack(track)
	}
}

// PlayPrevious steps back through the queue, wrapping at the start. Shuffle is ignored.
func (s *Session) PlayPrevious() {
	if track := s.pick(-1); track != nil {
		s.PlayTrack(track)
	}
}

// pick resolves the next queue entry in direction dir. A current track missing from the
// queue counts as index -1 and moves to the start in both directions.
func (s *Session) pick(dir int) *models.Track {
	current := s.player.Current()

	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.queue)
	if current == nil || n == 0 {
		return nil
	}

	if dir > 0 && s.shuffle {
		return s.queue[s.rand(n)]
	}

	i := slices.IndexFunc(s.queue, func(t *models.Track) bool { return t.ID == current.ID })
	if i < 0 {
		return s.queue[0]
	}
	return s.queue[((i+dir)%n+n)%n]
}

// ToggleShuffle flips shuffle mode. Turning it on with a non-empty queue immediately plays a
// random queue track.
func (s *Session) ToggleShuffle() bool {
	s.mu.Lock()
	s.shuffle = !s.shuffle
	on := s.shuffle
	var track *models.Track
	if on && len(s.queue) > 0 {
		track = s.queue[s.rand(len(s.queue))]
	}
	s.mu.Unlock()

	s.logger.Debug("shuffle", "on", on)
	if track != nil {
		s.PlayTrack(track)
	}
	return on
}

// HandleTrackEnded advances once per end-of-track signal.
func (s *Session) HandleTrackEnded() {
	s.PlayNext()
}

// IsFavorite reports whether id is in the local favorites set.
func (s *Session) IsFavorite(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.faves[id]
}

// ToggleFavorite flips track's membership locally and notifies the favorites service in the
// background. A failed notification is logged and the local state is kept.
func (s *Session) ToggleFavorite(track *models.Track) bool {
	if track == nil {
		return false
	}

	s.mu.Lock()
	on := !s.faves[track.ID]
	if on {
		s.faves[track.ID] = true
	} else {
		delete(s.faves, track.ID)
	}
	notify := s.favorites != nil && !s.closed
	if notify {
		s.wg.Add(1)
	}
	s.mu.Unlock()

	if !notify {
		return on
	}

	go func() {
		defer s.wg.Done()
		if err := s.favorites.SetFavorite(s.ctx, track.ID, on); err != nil {
			s.logger.Warn("failed to update favorite", "track", track.ID, "favorite", on, "err", err)
		}
	}()
	return on
}

// LoadFavorites replaces the local favorites set with the service's.
func (s *Session) LoadFavorites(ctx context.Context) error {
	if s.favorites == nil {
		return nil
	}

	ids, err := s.favorites.Favorites(ctx)
	if err != nil {
		return err
	}

	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}

	s.mu.Lock()
	s.faves = set
	s.mu.Unlock()
	return nil
}

// Close cancels pending favorite calls, waits for them and closes the player. It is idempotent.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		s.cancel()
		s.wg.Wait()
		err = s.player.Close()
	})
	return err
}
