package audio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/desertthunder/playdeck/internal/shared"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"
)

const speakerRate beep.SampleRate = 44100

var (
	speakerOnce  sync.Once
	speakerErr   error
	speakerReady atomic.Bool
)

func initSpeaker() error {
	speakerOnce.Do(func() {
		speakerErr = speaker.Init(speakerRate, speakerRate.N(time.Second/10))
		speakerReady.Store(speakerErr == nil)
	})
	return speakerErr
}

// SpeakerMedia plays decoded mp3, flac and wav sources through the system speaker.
type SpeakerMedia struct {
	client *http.Client

	mu     sync.Mutex
	stream beep.StreamSeekCloser
	format beep.Format
	ctrl   *beep.Ctrl
	vol    *effects.Volume
	level  float64

	gen   atomic.Uint64
	ended chan struct{}
}

// NewSpeakerMedia creates a speaker-backed [Media]. The audio device is opened on the
// first Load.
func NewSpeakerMedia(client *http.Client) *SpeakerMedia {
	if client == nil {
		client = http.DefaultClient
	}
	return &SpeakerMedia{client: client, level: 1, ended: make(chan struct{}, 1)}
}

func (m *SpeakerMedia) Load(ctx context.Context, src string) error {
	if err := initSpeaker(); err != nil {
		return fmt.Errorf("failed to open audio device: %w", err)
	}

	stream, format, err := openSource(ctx, m.client, src)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		stream.Close()
		return err
	}

	gen := m.gen.Add(1)

	var s beep.Streamer = stream
	if format.SampleRate != speakerRate {
		s = beep.Resample(4, format.SampleRate, speakerRate, stream)
	}
	ctrl := &beep.Ctrl{Streamer: s, Paused: true}
	vol := &effects.Volume{Streamer: ctrl, Base: 2}
	end := beep.Callback(func() {
		if m.gen.Load() != gen {
			return
		}
		select {
		case m.ended <- struct{}{}:
		default:
		}
	})

	speaker.Clear()

	m.mu.Lock()
	old := m.stream
	m.stream, m.format, m.ctrl, m.vol = stream, format, ctrl, vol
	m.applyVolumeLocked()
	m.mu.Unlock()

	if old != nil {
		old.Close()
	}

	speaker.Play(beep.Seq(vol, end))
	return nil
}

func (m *SpeakerMedia) Play() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ctrl == nil {
		return shared.ErrNoSource
	}

	speaker.Lock()
	m.ctrl.Paused = false
	speaker.Unlock()
	return nil
}

func (m *SpeakerMedia) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ctrl == nil {
		return
	}

	speaker.Lock()
	m.ctrl.Paused = true
	speaker.Unlock()
}

func (m *SpeakerMedia) Seek(pos time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stream == nil {
		return shared.ErrNoSource
	}

	speaker.Lock()
	defer speaker.Unlock()
	n := shared.Clamp(m.format.SampleRate.N(pos), 0, max(m.stream.Len()-1, 0))
	return m.stream.Seek(n)
}

func (m *SpeakerMedia) SetVolume(level float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.level = shared.Clamp(level, 0, 1)
	m.applyVolumeLocked()
}

// applyVolumeLocked maps the linear level onto the base-2 gain of [effects.Volume].
func (m *SpeakerMedia) applyVolumeLocked() {
	if m.vol == nil {
		return
	}

	speaker.Lock()
	defer speaker.Unlock()
	if m.level <= 0 {
		m.vol.Silent = true
		return
	}
	m.vol.Silent = false
	m.vol.Volume = math.Log2(m.level)
}

func (m *SpeakerMedia) Position() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stream == nil {
		return 0
	}

	speaker.Lock()
	defer speaker.Unlock()
	return m.format.SampleRate.D(m.stream.Position())
}

func (m *SpeakerMedia) Duration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stream == nil {
		return 0
	}
	return m.format.SampleRate.D(m.stream.Len())
}

func (m *SpeakerMedia) Ended() <-chan struct{} { return m.ended }

func (m *SpeakerMedia) Close() error {
	m.gen.Add(1)
	if speakerReady.Load() {
		speaker.Clear()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stream == nil {
		return nil
	}
	err := m.stream.Close()
	m.stream, m.ctrl, m.vol = nil, nil, nil
	return err
}

type codec int

const (
	codecUnknown codec = iota
	codecMP3
	codecFLAC
	codecWAV
)

// SupportedExtension reports whether files with this name can be decoded.
func SupportedExtension(name string) bool {
	return codecFor(name, "") != codecUnknown
}

func codecFor(name, contentType string) codec {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".mp3":
		return codecMP3
	case ".flac":
		return codecFLAC
	case ".wav", ".wave":
		return codecWAV
	}

	mediaType, _, _ := mime.ParseMediaType(contentType)
	switch mediaType {
	case "audio/mpeg", "audio/mp3":
		return codecMP3
	case "audio/flac", "audio/x-flac":
		return codecFLAC
	case "audio/wav", "audio/x-wav", "audio/wave", "audio/vnd.wave":
		return codecWAV
	}
	return codecUnknown
}

func decode(c codec, rc io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error) {
	var (
		stream beep.StreamSeekCloser
		format beep.Format
		err    error
	)

	switch c {
	case codecMP3:
		stream, format, err = mp3.Decode(rc)
	case codecFLAC:
		stream, format, err = flac.Decode(rc)
	case codecWAV:
		stream, format, err = wav.Decode(rc)
	default:
		err = shared.ErrUnsupportedFormat
	}

	if err != nil {
		rc.Close()
		return nil, beep.Format{}, fmt.Errorf("failed to decode audio: %w", err)
	}
	return stream, format, nil
}

// nopSeekCloser gives an in-memory buffer the Close method decoders expect.
type nopSeekCloser struct{ *bytes.Reader }

func (nopSeekCloser) Close() error { return nil }

// openSource fetches and decodes src. http(s) sources are buffered in memory so they can
// be seeked; anything else is treated as a local path.
func openSource(ctx context.Context, client *http.Client, src string) (beep.StreamSeekCloser, beep.Format, error) {
	u, err := url.Parse(src)
	if err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return openRemote(ctx, client, u)
	}

	p := strings.TrimPrefix(src, "file://")
	if unescaped, err := url.PathUnescape(p); err == nil {
		p = unescaped
	}
	return openFile(p)
}

func openRemote(ctx context.Context, client *http.Client, u *url.URL) (beep.StreamSeekCloser, beep.Format, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, beep.Format{}, fmt.Errorf("%w: GET %s returned %d", shared.ErrAPIRequest, u.Redacted(), resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("failed to read audio: %w", err)
	}

	c := codecFor(path.Base(u.Path), resp.Header.Get("Content-Type"))
	return decode(c, nopSeekCloser{bytes.NewReader(data)})
}

func openFile(p string) (beep.StreamSeekCloser, beep.Format, error) {
	c := codecFor(p, "")
	if c == codecUnknown {
		return nil, beep.Format{}, fmt.Errorf("%w: %s", shared.ErrUnsupportedFormat, filepath.Base(p))
	}

	f, err := os.Open(p)
	if err != nil {
		return nil, beep.Format{}, err
	}
	return decode(c, f)
}

// Probe decodes the header of a local audio file and reports its length.
func Probe(p string) (time.Duration, error) {
	stream, format, err := openFile(p)
	if err != nil {
		return 0, err
	}
	defer stream.Close()

	return format.SampleRate.D(stream.Len()), nil
}
