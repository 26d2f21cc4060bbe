package audio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playdeck/internal/models"
	"github.com/desertthunder/playdeck/internal/shared"
	"golang.org/x/time/rate"
)

const (
	defaultPollInterval = 250 * time.Millisecond
	defaultEventBuffer  = 64
)

// Options configures a [Transport].
type Options struct {
	// BaseURL is the streaming server file:// locators are rewritten against.
	BaseURL string
	// Volume is the initial volume percentage.
	Volume       int
	PollInterval time.Duration
	EventBuffer  int
	Logger       *log.Logger
}

// Transport binds a [Media] to observable playback state.
type Transport struct {
	media   Media
	baseURL string
	logger  *log.Logger
	poll    time.Duration
	limiter *rate.Limiter

	mu       sync.Mutex
	track    *models.Track
	src      string
	playing  bool
	ready    bool
	position float64
	duration float64
	volume   int
	muted    bool
	onEnded  func()
	cancel   context.CancelFunc
	reqID    uint64
	closed   bool
	events   chan Event

	// mediaMu serializes Load calls and guards loaded.
	mediaMu sync.Mutex
	loaded  string

	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewTransport takes ownership of media and starts the position monitor.
func NewTransport(media Media, opts Options) *Transport {
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = defaultEventBuffer
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	t := &Transport{
		media:   media,
		baseURL: opts.BaseURL,
		logger:  shared.WithLogger(opts.Logger, "component", "transport"),
		poll:    opts.PollInterval,
		limiter: rate.NewLimiter(rate.Every(opts.PollInterval), 1),
		volume:  shared.Clamp(opts.Volume, 0, 100),
		events:  make(chan Event, opts.EventBuffer),
		done:    make(chan struct{}),
	}
	media.SetVolume(t.levelLocked())

	t.wg.Add(1)
	go t.monitor()
	return t
}

// Events publishes transport notifications. Events are dropped when the reader falls
// behind. The channel is closed by Close.
func (t *Transport) Events() <-chan Event { return t.events }

// OnEnded registers the hook invoked once per end-of-track signal.
func (t *Transport) OnEnded(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onEnded = fn
}

// PlayTrack loads track from position 0 and starts playback asynchronously.
//
// Playing is true as soon as PlayTrack returns. A failed request reverts it and
// publishes [EventFailed].
func (t *Transport) PlayTrack(track *models.Track) {
	if track == nil {
		return
	}
	src := NormalizeLocator(t.baseURL, track.AudioURL)

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	ctx, id := t.supersedeLocked()
	t.track = track
	t.src = src
	t.playing = true
	t.ready = false
	t.position = 0
	t.duration = float64(track.Duration)
	t.emitLocked(EventDurationChange, nil)
	t.emitLocked(EventTimeUpdate, nil)
	t.emitLocked(EventStateChange, nil)
	t.mu.Unlock()

	t.logger.Debug("play track", "id", track.ID, "src", src)
	t.start(ctx, id, src, true)
}

// TogglePlayPause pauses synchronously or resumes asynchronously. Without a current
// track it does nothing.
func (t *Transport) TogglePlayPause() {
	t.mu.Lock()
	if t.closed || t.track == nil {
		t.mu.Unlock()
		return
	}

	if t.playing {
		t.pauseLocked()
		t.mu.Unlock()
		return
	}

	ctx, id := t.supersedeLocked()
	src := t.src
	// a finished stream is drained, so it is loaded again from the start
	restart := t.duration > 0 && t.position >= t.duration
	if restart {
		t.position = 0
	}
	t.playing = true
	t.emitLocked(EventStateChange, nil)
	t.mu.Unlock()

	t.start(ctx, id, src, restart)
}

// Pause stops output and cancels any pending play request.
func (t *Transport) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed || !t.playing {
		return
	}
	t.pauseLocked()
}

func (t *Transport) pauseLocked() {
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	t.playing = false
	t.media.Pause()
	t.emitLocked(EventStateChange, nil)
}

// Seek moves the playhead to seconds, clamped to [0, duration]. NaN seeks to 0.
func (t *Transport) Seek(seconds float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed || t.track == nil {
		return
	}

	pos := shared.Clamp(seconds, 0, max(t.duration, 0))
	t.position = pos
	if err := t.media.Seek(fromSeconds(pos)); err != nil {
		t.logger.Debug("seek ignored", "position", pos, "err", err)
	}
	t.emitLocked(EventTimeUpdate, nil)
}

// SetVolume sets the volume percentage, clamped to [0, 100]. The stored value survives muting.
func (t *Transport) SetVolume(pct int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.volume = shared.Clamp(pct, 0, 100)
	t.media.SetVolume(t.levelLocked())
}

// SetMuted silences output without losing the volume percentage.
func (t *Transport) SetMuted(muted bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.muted = muted
	t.media.SetVolume(t.levelLocked())
}

// ToggleMute flips the muted flag.
func (t *Transport) ToggleMute() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.muted = !t.muted
	t.media.SetVolume(t.levelLocked())
}

func (t *Transport) levelLocked() float64 {
	if t.muted {
		return 0
	}
	return float64(t.volume) / 100
}

// State is a point-in-time copy of the transport.
type State struct {
	Track    *models.Track
	Playing  bool
	Position float64
	Duration float64
	Volume   int
	Muted    bool
}

func (t *Transport) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return State{
		Track:    t.track,
		Playing:  t.playing,
		Position: t.position,
		Duration: t.duration,
		Volume:   t.volume,
		Muted:    t.muted,
	}
}

func (t *Transport) Current() *models.Track { return t.State().Track }
func (t *Transport) Playing() bool          { return t.State().Playing }
func (t *Transport) Position() float64      { return t.State().Position }
func (t *Transport) Duration() float64      { return t.State().Duration }

// Close cancels pending requests, stops the monitor and releases the media. It is idempotent.
func (t *Transport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		t.mu.Lock()
		t.closed = true
		if t.cancel != nil {
			t.cancel()
			t.cancel = nil
		}
		t.mu.Unlock()

		close(t.done)
		t.wg.Wait()

		err = t.media.Close()

		t.mu.Lock()
		close(t.events)
		t.mu.Unlock()
	})
	return err
}

// supersedeLocked cancels the pending request and returns the context of a new one.
func (t *Transport) supersedeLocked() (context.Context, uint64) {
	if t.cancel != nil {
		t.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	t.reqID++
	return ctx, t.reqID
}

func (t *Transport) start(ctx context.Context, id uint64, src string, reload bool) {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		t.settle(ctx, id, t.request(ctx, src, reload))
	}()
}

// request loads src when needed, then plays it unless superseded.
func (t *Transport) request(ctx context.Context, src string, reload bool) error {
	t.mediaMu.Lock()
	defer t.mediaMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	if reload || t.loaded != src {
		t.loaded = ""
		if err := t.media.Load(ctx, src); err != nil {
			return err
		}
		t.loaded = src
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := t.media.Play(); err != nil {
		return err
	}
	t.ready = true
	return nil
}

func (t *Transport) settle(ctx context.Context, id uint64, err error) {
	if err == nil {
		t.refreshDuration()
		return
	}

	if errors.Is(err, context.Canceled) || ctx.Err() != nil {
		t.logger.Debug("play request interrupted", "err", fmt.Errorf("%w: %w", ErrInterrupted, err))
		return
	}

	t.logger.Warn("playback failed", "err", err)

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.reqID != id || t.closed {
		return
	}
	t.playing = false
	t.cancel = nil
	t.emitLocked(EventFailed, err)
	t.emitLocked(EventStateChange, nil)
}

func (t *Transport) refreshDuration() {
	d := seconds(t.media.Duration())
	if d <= 0 {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if d != t.duration {
		t.duration = d
		t.emitLocked(EventDurationChange, nil)
	}
}

// monitor polls the playhead and forwards end-of-track signals.
func (t *Transport) monitor() {
	defer t.wg.Done()

	ticker := time.NewTicker(t.poll)
	defer ticker.Stop()

	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
			t.tick()
		case _, ok := <-t.media.Ended():
			if !ok {
				return
			}
			t.ended()
		}
	}
}

func (t *Transport) tick() {
	t.mu.Lock()
	defer t.mu.Unlock()
	// until the pending request plays, the media still reports the previous source
	if !t.playing || !t.ready {
		return
	}

	pos := seconds(t.media.Position())
	dur := seconds(t.media.Duration())

	if dur > 0 && dur != t.duration {
		t.duration = dur
		t.emitLocked(EventDurationChange, nil)
	}
	if pos != t.position {
		t.position = pos
		if t.limiter.Allow() {
			t.emitLocked(EventTimeUpdate, nil)
		}
	}
}

func (t *Transport) ended() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.playing = false
	t.ready = false
	t.position = t.duration
	t.emitLocked(EventEnded, nil)
	hook := t.onEnded
	t.mu.Unlock()

	if hook != nil {
		hook()
	}
}

// emitLocked publishes without blocking. t.mu must be held.
func (t *Transport) emitLocked(kind EventKind, err error) {
	if t.closed {
		return
	}

	ev := Event{
		Kind:     kind,
		Playing:  t.playing,
		Position: t.position,
		Duration: t.duration,
		Err:      err,
	}
	if t.track != nil {
		ev.TrackID = t.track.ID
	}

	select {
	case t.events <- ev:
	default:
	}
}
