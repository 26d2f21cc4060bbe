package testing

import (
	"context"
	"sync"
	"time"
)

func sleep() { time.Sleep(5 * time.Millisecond) }

// MockMedia is a test double for audio.Media.
//
// Load blocks on Gate when it is set, so tests can hold a play request in flight and
// supersede it.
type MockMedia struct {
	LoadErr error
	PlayErr error
	Gate    chan struct{}

	mu       sync.Mutex
	sources  []string
	playing  bool
	volume   float64
	position time.Duration
	duration time.Duration
	plays    int
	closed   bool
	ended    chan struct{}
}

// NewMockMedia creates a MockMedia whose loaded sources report duration.
func NewMockMedia(duration time.Duration) *MockMedia {
	return &MockMedia{volume: 1, duration: duration, ended: make(chan struct{}, 1)}
}

func (m *MockMedia) Load(ctx context.Context, src string) error {
	m.mu.Lock()
	m.sources = append(m.sources, src)
	m.playing = false
	gate := m.Gate
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if m.LoadErr != nil {
		return m.LoadErr
	}

	m.mu.Lock()
	m.position = 0
	m.mu.Unlock()
	return ctx.Err()
}

func (m *MockMedia) Play() error {
	if m.PlayErr != nil {
		return m.PlayErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playing = true
	m.plays++
	return nil
}

func (m *MockMedia) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playing = false
}

func (m *MockMedia) Seek(pos time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.position = pos
	return nil
}

func (m *MockMedia) SetVolume(level float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volume = level
}

func (m *MockMedia) Position() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

func (m *MockMedia) Duration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duration
}

func (m *MockMedia) Ended() <-chan struct{} { return m.ended }

func (m *MockMedia) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.playing = false
	return nil
}

// Finish signals the end of the current track.
func (m *MockMedia) Finish() {
	m.mu.Lock()
	m.playing = false
	m.mu.Unlock()
	m.ended <- struct{}{}
}

// Advance moves the playhead as if audio had played.
func (m *MockMedia) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.position += d
}

// Sources returns every locator passed to Load, in order.
func (m *MockMedia) Sources() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.sources...)
}

func (m *MockMedia) IsPlaying() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playing
}

func (m *MockMedia) Volume() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volume
}

func (m *MockMedia) Plays() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.plays
}

func (m *MockMedia) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
