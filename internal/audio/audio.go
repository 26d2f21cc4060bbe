// Package audio owns the single media resource of the player.
//
// [Transport] binds a [Media] backend to the observable playback state (current track,
// playing flag, position, duration, volume) and publishes [Event]s. It is the only
// component that touches the media resource. [SpeakerMedia] is the beep-backed backend
// used by the TUI.
//
// Every play request carries its own context. A later PlayTrack, TogglePlayPause or Seek
// cancels the pending one, and the cancelled request ends with [ErrInterrupted], which is
// logged at debug level and never surfaced as a failure.
package audio

import (
	"context"
	"errors"
	"time"
)

// ErrInterrupted marks a play request superseded by a later one.
var ErrInterrupted = errors.New("playback request interrupted")

// Media is a playable audio resource.
//
// Implementations must be safe for concurrent use. Load may block on I/O and must return
// promptly once ctx is cancelled. Play and Pause must not block.
type Media interface {
	Load(ctx context.Context, src string) error
	Play() error
	Pause()
	Seek(pos time.Duration) error
	// SetVolume sets the output level in [0, 1].
	SetVolume(level float64)
	Position() time.Duration
	Duration() time.Duration
	// Ended receives once each time the loaded source plays to its end.
	Ended() <-chan struct{}
	Close() error
}

// EventKind identifies a transport notification.
type EventKind int

const (
	EventTimeUpdate EventKind = iota
	EventDurationChange
	EventEnded
	EventFailed
	EventStateChange
)

func (k EventKind) String() string {
	switch k {
	case EventTimeUpdate:
		return "timeupdate"
	case EventDurationChange:
		return "durationchange"
	case EventEnded:
		return "ended"
	case EventFailed:
		return "failed"
	case EventStateChange:
		return "statechange"
	default:
		return "unknown"
	}
}

// Event is a snapshot of transport state at the time of a notification.
//
// Position and Duration are in seconds.
type Event struct {
	Kind     EventKind
	TrackID  string
	Playing  bool
	Position float64
	Duration float64
	Err      error
}

func seconds(d time.Duration) float64 { return d.Seconds() }

func fromSeconds(s float64) time.Duration { return time.Duration(s * float64(time.Second)) }
