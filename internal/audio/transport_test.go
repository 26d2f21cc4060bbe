package audio

import (
	"errors"
	"io"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playdeck/internal/models"
	tu "github.com/desertthunder/playdeck/internal/testing"
)

func newTestTransport(t *testing.T, media *tu.MockMedia) *Transport {
	t.Helper()
	tr := NewTransport(media, Options{
		BaseURL:      "http://127.0.0.1:3000",
		Volume:       100,
		PollInterval: 5 * time.Millisecond,
		Logger:       log.New(io.Discard),
	})
	t.Cleanup(func() { tr.Close() })
	return tr
}

func track(id string) *models.Track {
	return &models.Track{ID: id, Name: "Song " + id, AudioURL: "file:///tracks/" + id + ".mp3", Duration: 200}
}

// drain returns the events buffered so far.
func drain(tr *Transport) []Event {
	var out []Event
	for {
		select {
		case ev, ok := <-tr.Events():
			if !ok {
				return out
			}
			out = append(out, ev)
		default:
			return out
		}
	}
}

func hasKind(events []Event, kind EventKind) bool {
	for _, ev := range events {
		if ev.Kind == kind {
			return true
		}
	}
	return false
}

func TestTransportPlayTrack(t *testing.T) {
	t.Run("Playing Is Immediate", func(t *testing.T) {
		media := tu.NewMockMedia(200 * time.Second)
		tr := newTestTransport(t, media)

		tr.PlayTrack(track("a"))

		state := tr.State()
		if state.Track == nil || state.Track.ID != "a" {
			t.Fatalf("expected current track a, got %+v", state.Track)
		}
		if !state.Playing {
			t.Error("expected playing=true right after PlayTrack")
		}
		if state.Position != 0 {
			t.Errorf("expected position 0, got %v", state.Position)
		}

		tu.Eventually(t, media.IsPlaying, "media never started playing")

		sources := media.Sources()
		if len(sources) != 1 || sources[0] != "http://127.0.0.1:3000/api/audio/a.mp3" {
			t.Errorf("expected normalized locator, got %v", sources)
		}
	})

	t.Run("Later Request Supersedes Earlier", func(t *testing.T) {
		media := tu.NewMockMedia(200 * time.Second)
		media.Gate = make(chan struct{})
		tr := newTestTransport(t, media)

		tr.PlayTrack(track("a"))
		tr.PlayTrack(track("b"))
		close(media.Gate)

		tu.Eventually(t, media.IsPlaying, "media never started playing")

		sources := media.Sources()
		if last := sources[len(sources)-1]; last != "http://127.0.0.1:3000/api/audio/b.mp3" {
			t.Errorf("expected b to be loaded last, got %v", sources)
		}
		if media.Plays() != 1 {
			t.Errorf("expected exactly one Play, got %d", media.Plays())
		}
		if tr.Current().ID != "b" || !tr.Playing() {
			t.Errorf("expected b playing, got %+v", tr.State())
		}
		if hasKind(drain(tr), EventFailed) {
			t.Error("an interrupted request must not publish a failure")
		}
	})

	t.Run("Failure Reverts Playing", func(t *testing.T) {
		media := tu.NewMockMedia(200 * time.Second)
		media.PlayErr = errors.New("NotAllowedError")
		tr := newTestTransport(t, media)

		tr.PlayTrack(track("a"))
		tu.Eventually(t, func() bool { return !tr.Playing() }, "playing never reverted after failure")

		if tr.Current().ID != "a" {
			t.Error("failure should keep the current track")
		}

		var failed *Event
		for _, ev := range drain(tr) {
			if ev.Kind == EventFailed {
				failed = &ev
			}
		}
		if failed == nil || failed.Err == nil {
			t.Fatal("expected EventFailed with the error")
		}

		media.PlayErr = nil
		tr.TogglePlayPause()
		tu.Eventually(t, media.IsPlaying, "later calls should still work after a failure")
	})

	t.Run("Nil Track", func(t *testing.T) {
		tr := newTestTransport(t, tu.NewMockMedia(0))
		tr.PlayTrack(nil)
		if tr.Current() != nil || tr.Playing() {
			t.Error("nil track should be ignored")
		}
	})
}

func TestTransportTogglePlayPause(t *testing.T) {
	t.Run("Pause Is Synchronous", func(t *testing.T) {
		media := tu.NewMockMedia(200 * time.Second)
		tr := newTestTransport(t, media)

		tr.PlayTrack(track("a"))
		tu.Eventually(t, media.IsPlaying, "media never started playing")

		tr.TogglePlayPause()
		if tr.Playing() {
			t.Error("expected playing=false right after pausing")
		}
		if media.IsPlaying() {
			t.Error("media should be paused")
		}
		if tr.Current().ID != "a" {
			t.Error("pausing should keep the current track")
		}
	})

	t.Run("Resume Does Not Reload", func(t *testing.T) {
		media := tu.NewMockMedia(200 * time.Second)
		tr := newTestTransport(t, media)

		tr.PlayTrack(track("a"))
		tu.Eventually(t, media.IsPlaying, "media never started playing")
		tr.TogglePlayPause()
		tr.TogglePlayPause()

		tu.Eventually(t, media.IsPlaying, "media never resumed")
		if len(media.Sources()) != 1 {
			t.Errorf("expected a single load, got %v", media.Sources())
		}
	})

	t.Run("Resume After End Reloads", func(t *testing.T) {
		media := tu.NewMockMedia(200 * time.Second)
		tr := newTestTransport(t, media)

		tr.PlayTrack(track("a"))
		tu.Eventually(t, func() bool { return tr.Duration() == 200 }, "duration never reported")
		media.Advance(200 * time.Second)
		media.Finish()
		tu.Eventually(t, func() bool { return !tr.Playing() && tr.Position() == 200 }, "track never ended")

		tr.TogglePlayPause()
		if tr.Position() != 0 {
			t.Errorf("expected position 0 on restart, got %v", tr.Position())
		}
		tu.Eventually(t, media.IsPlaying, "media never restarted")
		if got := media.Sources(); len(got) != 2 || got[1] != got[0] {
			t.Errorf("expected the source to load again, got %v", got)
		}
	})

	t.Run("Pause During Load Then Resume", func(t *testing.T) {
		media := tu.NewMockMedia(200 * time.Second)
		media.Gate = make(chan struct{})
		tr := newTestTransport(t, media)

		tr.PlayTrack(track("a"))
		tr.TogglePlayPause()
		if tr.Playing() {
			t.Fatal("expected paused")
		}

		close(media.Gate)
		tr.TogglePlayPause()
		tu.Eventually(t, media.IsPlaying, "resume should load the interrupted source")
	})

	t.Run("Without Track", func(t *testing.T) {
		media := tu.NewMockMedia(0)
		tr := newTestTransport(t, media)

		tr.TogglePlayPause()
		if tr.Playing() || len(media.Sources()) != 0 {
			t.Error("toggle without a track should do nothing")
		}
	})
}

func TestTransportSeek(t *testing.T) {
	media := tu.NewMockMedia(200 * time.Second)
	tr := newTestTransport(t, media)

	tr.Seek(30)
	if tr.Position() != 0 {
		t.Error("seek without a track should do nothing")
	}

	tr.PlayTrack(track("a"))
	tu.Eventually(t, media.IsPlaying, "media never started playing")

	tc := []struct {
		in, want float64
	}{
		{in: 42.5, want: 42.5},
		{in: 500, want: 200},
		{in: -3, want: 0},
		{in: math.NaN(), want: 0},
	}
	for _, tt := range tc {
		tr.Seek(tt.in)
		if got := tr.Position(); got != tt.want {
			t.Errorf("Seek(%v): position = %v, want %v", tt.in, got, tt.want)
		}
		if got := media.Position(); got != time.Duration(tt.want*float64(time.Second)) {
			t.Errorf("Seek(%v): media position = %v", tt.in, got)
		}
	}
}

func TestTransportVolume(t *testing.T) {
	media := tu.NewMockMedia(0)
	tr := newTestTransport(t, media)

	tr.SetVolume(150)
	if tr.State().Volume != 100 || media.Volume() != 1 {
		t.Errorf("expected clamp to 100, got %d / %v", tr.State().Volume, media.Volume())
	}

	tr.SetVolume(40)
	if media.Volume() != 0.4 {
		t.Errorf("expected level 0.4, got %v", media.Volume())
	}

	tr.ToggleMute()
	if media.Volume() != 0 || !tr.State().Muted {
		t.Errorf("expected silence while muted, got %v", media.Volume())
	}

	tr.SetVolume(70)
	if media.Volume() != 0 {
		t.Error("changing volume while muted should stay silent")
	}

	tr.SetMuted(false)
	if media.Volume() != 0.7 || tr.State().Volume != 70 {
		t.Errorf("unmute should restore the stored volume, got %v", media.Volume())
	}

	tr.SetVolume(-5)
	if tr.State().Volume != 0 {
		t.Errorf("expected clamp to 0, got %d", tr.State().Volume)
	}
}

func TestTransportEnded(t *testing.T) {
	media := tu.NewMockMedia(200 * time.Second)
	tr := newTestTransport(t, media)

	var calls atomic.Int32
	tr.OnEnded(func() { calls.Add(1) })

	tr.PlayTrack(track("a"))
	tu.Eventually(t, media.IsPlaying, "media never started playing")

	media.Finish()
	tu.Eventually(t, func() bool { return calls.Load() == 1 }, "ended hook not invoked")

	time.Sleep(20 * time.Millisecond)
	if calls.Load() != 1 {
		t.Errorf("expected exactly one hook call, got %d", calls.Load())
	}
	if tr.Playing() {
		t.Error("expected playing=false after the track ended")
	}
	if !hasKind(drain(tr), EventEnded) {
		t.Error("expected EventEnded")
	}
}

func TestTransportTimeUpdates(t *testing.T) {
	media := tu.NewMockMedia(200 * time.Second)
	tr := newTestTransport(t, media)

	tr.PlayTrack(track("a"))
	tu.Eventually(t, media.IsPlaying, "media never started playing")

	media.Advance(3 * time.Second)
	tu.Eventually(t, func() bool { return tr.Position() == 3 }, "position never updated, got %v", tr.Position())

	if !hasKind(drain(tr), EventTimeUpdate) {
		t.Error("expected EventTimeUpdate")
	}
}

func TestTransportClose(t *testing.T) {
	media := tu.NewMockMedia(0)
	tr := NewTransport(media, Options{Logger: log.New(io.Discard)})

	if err := tr.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if err := tr.Close(); err != nil {
		t.Errorf("second close should be a no-op, got %v", err)
	}
	if !media.Closed() {
		t.Error("media should be closed")
	}

	tr.PlayTrack(track("a"))
	if tr.Current() != nil {
		t.Error("PlayTrack after Close should do nothing")
	}

	if _, ok := <-tr.Events(); ok {
		t.Error("events channel should be closed")
	}
}

func TestEventKindString(t *testing.T) {
	if EventEnded.String() != "ended" || EventKind(99).String() != "unknown" {
		t.Error("unexpected event kind names")
	}
}
