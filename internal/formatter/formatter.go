// package formatter exports playlists and their tracks to CSV, Markdown and plain text
package formatter

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/playdeck/internal/models"
	"github.com/desertthunder/playdeck/internal/shared"
)

// Format names an export file format.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
)

// ParseFormat resolves a format name. "md" and "txt" are accepted as aliases.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "text", "txt", "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, name)
	}
}

// PlaylistExport is a playlist together with its member tracks in playlist order.
type PlaylistExport struct {
	Playlist *models.Playlist
	Tracks   []*models.Track
}

// TotalDuration sums the track durations in seconds.
func (e *PlaylistExport) TotalDuration() int {
	total := 0
	for _, t := range e.Tracks {
		total += t.Duration
	}
	return total
}

var csvHeaders = []string{"ID", "Name", "Artist", "Album", "Genre", "Key", "BPM", "Duration"}

// WriteCSV writes one header row then one row per track.
func WriteCSV(w io.Writer, export *PlaylistExport) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(csvHeaders); err != nil {
		return fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range export.Tracks {
		bpm := ""
		if track.BPM > 0 {
			bpm = strconv.Itoa(track.BPM)
		}
		record := []string{
			track.ID,
			track.Name,
			track.Artist,
			track.Album,
			track.Genre,
			track.Key,
			bpm,
			strconv.Itoa(track.Duration),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("CSV writer error: %w", err)
	}
	return nil
}

// WriteMarkdown renders the playlist as a Markdown document, linking coverFile when set.
func WriteMarkdown(w io.Writer, export *PlaylistExport, coverFile string) error {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", export.Playlist.Name)
	if coverFile != "" {
		fmt.Fprintf(&buf, "![Cover](%s)\n\n", coverFile)
	}

	fmt.Fprintf(&buf, "**Tracks**: %d\n", len(export.Tracks))
	fmt.Fprintf(&buf, "**Length**: %s\n", shared.FormatDuration(float64(export.TotalDuration())))
	if !export.Playlist.CreatedAt.IsZero() {
		fmt.Fprintf(&buf, "**Created**: %s\n", export.Playlist.CreatedAt.Format(time.DateOnly))
	}

	buf.WriteString("\n## Tracks\n\n")
	for i, track := range export.Tracks {
		album := ""
		if track.Album != "" {
			album = fmt.Sprintf(" (%s)", track.Album)
		}
		fmt.Fprintf(&buf, "%d. %s - %s%s [%s]\n", i+1, track.Artist, track.Name, album,
			shared.FormatDuration(float64(track.Duration)))
	}

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write Markdown: %w", err)
	}
	return nil
}

// WriteText renders a numbered plain text track listing.
func WriteText(w io.Writer, export *PlaylistExport) error {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Playlist: %s\n", export.Playlist.Name)
	fmt.Fprintf(&buf, "Tracks: %d\n\n", len(export.Tracks))
	for i, track := range export.Tracks {
		fmt.Fprintf(&buf, "%d. %s - %s\n", i+1, track.Artist, track.Name)
	}

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write text: %w", err)
	}
	return nil
}

// Write renders export in format f.
func Write(w io.Writer, f Format, export *PlaylistExport) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, export)
	case FormatMarkdown:
		return WriteMarkdown(w, export, "")
	case FormatText:
		return WriteText(w, export)
	default:
		return fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, f)
	}
}

// ToMetadataJSON renders playlist metadata (name, cover, timestamps, membership) as indented JSON.
func ToMetadataJSON(playlist *models.Playlist) ([]byte, error) {
	data, err := json.MarshalIndent(playlist, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal playlist metadata: %w", err)
	}
	return data, nil
}

// DownloadImage fetches an absolute http(s) image URL. A nil client uses a 30s timeout client.
func DownloadImage(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: empty URL provided", shared.ErrMissingArgument)
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to download image: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: failed to download image: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	return data, nil
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	TracksFile   string
	MetadataFile string
}

// WriteCSVExport writes {base}_tracks.csv and {base}_metadata.json.
//
// base defaults to the playlist ID.
func WriteCSVExport(export *PlaylistExport, base string) (*CSVExportResult, error) {
	if base == "" {
		base = export.Playlist.ID
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, export); err != nil {
		return nil, err
	}

	tracksFile := base + "_tracks.csv"
	if err := os.WriteFile(tracksFile, buf.Bytes(), 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadata, err := ToMetadataJSON(export.Playlist)
	if err != nil {
		return nil, err
	}

	metadataFile := base + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadata, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &CSVExportResult{TracksFile: tracksFile, MetadataFile: metadataFile}, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory  string
	Files      []string
	CoverImage string
	Warnings   []string
}

// MarkdownOptions controls the cover download of WriteMarkdownExport.
type MarkdownOptions struct {
	Dir      string       // defaults to the playlist ID
	CoverURL string       // absolute http(s) URL; skipped when empty
	Client   *http.Client // used for the cover download
}

// WriteMarkdownExport creates {dir}/README.md and, when the cover downloads, {dir}/cover.jpg.
//
// A failed cover download is recorded in Warnings and does not fail the export.
func WriteMarkdownExport(ctx context.Context, export *PlaylistExport, opts MarkdownOptions) (*MarkdownExportResult, error) {
	dir := opts.Dir
	if dir == "" {
		dir = export.Playlist.ID
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{Directory: dir, Files: []string{}}

	coverFile := ""
	if opts.CoverURL != "" {
		data, err := DownloadImage(ctx, opts.Client, opts.CoverURL)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("cover image: %v", err))
		} else {
			path := filepath.Join(dir, "cover.jpg")
			if err := os.WriteFile(path, data, 0644); err != nil {
				result.Warnings = append(result.Warnings, fmt.Sprintf("cover image: %v", err))
			} else {
				coverFile = "cover.jpg"
				result.CoverImage = path
				result.Files = append(result.Files, path)
			}
		}
	}

	var buf bytes.Buffer
	if err := WriteMarkdown(&buf, export, coverFile); err != nil {
		return nil, err
	}

	readme := filepath.Join(dir, "README.md")
	if err := os.WriteFile(readme, buf.Bytes(), 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}
	result.Files = append(result.Files, readme)

	return result, nil
}

// WriteTextExport writes the text listing to path, defaulting to {playlist.ID}_tracks.txt.
func WriteTextExport(export *PlaylistExport, path string) (string, error) {
	if path == "" {
		path = export.Playlist.ID + "_tracks.txt"
	}

	var buf bytes.Buffer
	if err := WriteText(&buf, export); err != nil {
		return "", err
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}
	return path, nil
}
