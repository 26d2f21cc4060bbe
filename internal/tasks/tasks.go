package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playdeck/internal/audio"
	"github.com/desertthunder/playdeck/internal/models"
	"github.com/desertthunder/playdeck/internal/services"
	"github.com/desertthunder/playdeck/internal/shared"
)

// UnknownArtist is used when a file name carries no "Artist - Title" split.
const UnknownArtist = "Unknown Artist"

// ScanFailure records a file that could not be imported.
type ScanFailure struct {
	Name  string
	Error error
}

// ScanResult summarizes a [Scanner.Scan].
type ScanResult struct {
	Total    int
	Imported []*models.Track
	Skipped  int
	Failed   []ScanFailure
}

// Prober reports the duration of a local audio file.
type Prober func(path string) (time.Duration, error)

// Scanner imports audio files into the library.
type Scanner struct {
	tracks services.TrackService
	probe  Prober
	logger *log.Logger
}

// NewScanner creates a scanner that probes files with [audio.Probe].
func NewScanner(tracks services.TrackService, logger *log.Logger) *Scanner {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Scanner{
		tracks: tracks,
		probe:  audio.Probe,
		logger: shared.WithLogger(logger, "component", "scanner"),
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Scan imports every supported file at the top level of dir.
//
// A file that fails to probe or import is recorded in the result and the scan continues.
// Cancelling ctx stops the scan and returns the partial result with the context error.
func (s *Scanner) Scan(ctx context.Context, dir string, progress chan<- ProgressUpdate) (*ScanResult, error) {
	if s.tracks == nil {
		return nil, fmt.Errorf("%w: track service not initialized", shared.ErrServiceUnavailable)
	}

	sendProgress(progress, listingUpdate(dir))
	names, err := ListAudioFiles(dir)
	if err != nil {
		return nil, err
	}

	result := &ScanResult{Total: len(names)}
	sendProgress(progress, foundFilesUpdate(len(names)))

	for i, name := range names {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		step := i + 1
		track, created, err := s.ImportFile(ctx, filepath.Join(dir, name))
		switch {
		case err != nil:
			s.logger.Warn("failed to import", "file", name, "err", err)
			result.Failed = append(result.Failed, ScanFailure{Name: name, Error: err})
			sendProgress(progress, failedUpdate(step, len(names), name, err))
		case created:
			result.Imported = append(result.Imported, track)
			sendProgress(progress, importedUpdate(step, len(names), track))
		default:
			result.Skipped++
			sendProgress(progress, skippedUpdate(step, len(names), name))
		}
	}

	s.logger.Info("scan complete", "dir", dir, "total", result.Total, "imported", len(result.Imported), "failed", len(result.Failed))
	return result, nil
}

// ImportFile probes path and imports it, reporting whether a new track was created.
func (s *Scanner) ImportFile(ctx context.Context, path string) (*models.Track, bool, error) {
	name := filepath.Base(path)
	if !audio.SupportedExtension(name) {
		return nil, false, fmt.Errorf("%w: %s", shared.ErrUnsupportedFormat, name)
	}

	d, err := s.probe(path)
	if err != nil {
		return nil, false, err
	}

	return s.tracks.ImportTrack(ctx, TrackFromFile(name, d))
}

// TrackFromFile builds a track for a file in the tracks directory. "Artist - Title.mp3" is
// split into artist and title.
func TrackFromFile(name string, d time.Duration) *models.Track {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	artist, title, ok := strings.Cut(stem, " - ")
	if !ok || strings.TrimSpace(artist) == "" || strings.TrimSpace(title) == "" {
		artist, title = UnknownArtist, stem
	}

	return &models.Track{
		Name:     strings.TrimSpace(title),
		Artist:   strings.TrimSpace(artist),
		Duration: int(d.Round(time.Second) / time.Second),
		AudioURL: audio.FileLocator(name),
	}
}

// ListAudioFiles returns the supported audio files directly inside dir, sorted by name.
func ListAudioFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read tracks directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") || !audio.SupportedExtension(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	slices.Sort(names)
	return names, nil
}
