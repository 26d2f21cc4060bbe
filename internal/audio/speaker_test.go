package audio

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/desertthunder/playdeck/internal/shared"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"
)

// writeSilence encodes one second of 8 kHz mono silence.
func writeSilence(t *testing.T, p string) {
	t.Helper()
	f, err := os.Create(p)
	if err != nil {
		t.Fatalf("failed to create %s: %v", p, err)
	}
	defer f.Close()

	format := beep.Format{SampleRate: 8000, NumChannels: 1, Precision: 2}
	if err := wav.Encode(f, beep.Silence(8000), format); err != nil {
		t.Fatalf("failed to encode wav: %v", err)
	}
}

func TestCodecFor(t *testing.T) {
	tc := []struct {
		name, contentType string
		want              codec
	}{
		{name: "a.mp3", want: codecMP3},
		{name: "A.FLAC", want: codecFLAC},
		{name: "a.wave", want: codecWAV},
		{name: "stream", contentType: "audio/mpeg", want: codecMP3},
		{name: "stream", contentType: "audio/x-wav; charset=binary", want: codecWAV},
		{name: "a.ogg", want: codecUnknown},
		{name: "notes.txt", contentType: "text/plain", want: codecUnknown},
	}

	for _, tt := range tc {
		if got := codecFor(tt.name, tt.contentType); got != tt.want {
			t.Errorf("codecFor(%q, %q) = %v, want %v", tt.name, tt.contentType, got, tt.want)
		}
	}

	if !SupportedExtension("x.mp3") || SupportedExtension("x.m4a") {
		t.Error("unexpected SupportedExtension result")
	}
}

func TestProbe(t *testing.T) {
	t.Run("Wav File", func(t *testing.T) {
		p := filepath.Join(t.TempDir(), "silence.wav")
		writeSilence(t, p)

		d, err := Probe(p)
		if err != nil {
			t.Fatalf("probe failed: %v", err)
		}
		if d != time.Second {
			t.Errorf("expected 1s, got %v", d)
		}
	})

	t.Run("Unsupported", func(t *testing.T) {
		p := filepath.Join(t.TempDir(), "cover.png")
		if err := os.WriteFile(p, []byte("png"), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := Probe(p); !errors.Is(err, shared.ErrUnsupportedFormat) {
			t.Errorf("expected ErrUnsupportedFormat, got %v", err)
		}
	})

	t.Run("Corrupt", func(t *testing.T) {
		p := filepath.Join(t.TempDir(), "broken.wav")
		if err := os.WriteFile(p, []byte("not a riff header"), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := Probe(p); err == nil {
			t.Error("expected decode error")
		}
	})
}

func TestOpenSource(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "My Song.wav")
	writeSilence(t, p)

	t.Run("File Locator", func(t *testing.T) {
		stream, format, err := openSource(context.Background(), http.DefaultClient, "file://"+filepath.ToSlash(dir)+"/My%20Song.wav")
		if err != nil {
			t.Fatalf("open failed: %v", err)
		}
		defer stream.Close()

		if format.SampleRate != 8000 || stream.Len() != 8000 {
			t.Errorf("unexpected stream: rate=%d len=%d", format.SampleRate, stream.Len())
		}
	})

	t.Run("Remote", func(t *testing.T) {
		data, err := os.ReadFile(p)
		if err != nil {
			t.Fatal(err)
		}
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/audio/stream" {
				http.NotFound(w, r)
				return
			}
			w.Header().Set("Content-Type", "audio/wav")
			w.Write(data)
		}))
		defer srv.Close()

		stream, _, err := openSource(context.Background(), srv.Client(), srv.URL+"/api/audio/stream")
		if err != nil {
			t.Fatalf("open failed: %v", err)
		}
		defer stream.Close()

		if stream.Len() != 8000 {
			t.Errorf("expected 8000 samples, got %d", stream.Len())
		}
		if err := stream.Seek(4000); err != nil {
			t.Errorf("buffered stream should seek: %v", err)
		}

		_, _, err = openSource(context.Background(), srv.Client(), srv.URL+"/api/audio/missing.wav")
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest for 404, got %v", err)
		}
	})
}
