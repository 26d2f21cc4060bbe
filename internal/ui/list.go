package ui

import (
	"fmt"
	"strings"

	"github.com/desertthunder/playdeck/internal/audio"
	"github.com/desertthunder/playdeck/internal/models"
	"github.com/desertthunder/playdeck/internal/shared"
	"github.com/mattn/go-runewidth"
	"github.com/sahilm/fuzzy"
)

const (
	libraryRow     = "library"
	favoritesRow   = "favorites"
	playlistPrefix = "playlist:"
	durationWidth  = 6
)

func playlistRow(id string) string { return playlistPrefix + id }

func playlistIDOf(row string) (string, bool) {
	return strings.CutPrefix(row, playlistPrefix)
}

// fit truncates s to w terminal cells and pads it to exactly w.
func fit(s string, w int) string {
	if w <= 0 {
		return ""
	}
	return runewidth.FillRight(runewidth.Truncate(s, w, "…"), w)
}

// trackLine lays out one tracklist row in width cells: markers, name, artist, duration.
func trackLine(t *models.Track, width int, current, favorite bool) string {
	marker, heart := " ", " "
	if current {
		marker = "▶"
	}
	if favorite {
		heart = "♥"
	}

	rest := max(width-4-durationWidth, 0)
	nameW := rest * 3 / 5
	artistW := rest - nameW
	dur := runewidth.FillLeft(shared.FormatDuration(float64(t.Duration)), durationWidth)

	return marker + " " + heart + " " + fit(t.Name, nameW) + fit(t.Artist, artistW) + dur
}

func playlistLine(p *models.Playlist, width int) string {
	count := fmt.Sprintf(" %d", len(p.Tracks))
	return fit(p.Name, width-runewidth.StringWidth(count)) + count
}

// progressBar draws pos/dur as a filled bar of width cells.
func progressBar(pos, dur float64, width int) string {
	if width <= 0 {
		return ""
	}
	filled := 0
	if dur > 0 {
		filled = shared.Clamp(int(pos/dur*float64(width)), 0, width)
	}
	return strings.Repeat("━", filled) + strings.Repeat("─", width-filled)
}

// transportLine renders the persistent transport bar.
func transportLine(st audio.State, shuffle bool, width int) string {
	if st.Track == nil {
		return fit("Nothing playing", width)
	}

	icon := "⏸"
	if st.Playing {
		icon = "▶"
	}
	vol := fmt.Sprintf("vol %d%%", st.Volume)
	if st.Muted {
		vol = "muted"
	}
	if shuffle {
		vol += " shuffle"
	}
	clock := shared.FormatDuration(st.Position) + " / " + shared.FormatDuration(st.Duration)
	tail := "  " + clock + "  " + vol

	title := icon + " " + st.Track.Name + " - " + st.Track.Artist
	titleW := min(runewidth.StringWidth(title), width/2)
	barW := width - titleW - runewidth.StringWidth(tail) - 2

	return fit(title, titleW) + "  " + progressBar(st.Position, st.Duration, barW) + tail
}

// trackSource adapts a track slice to [fuzzy.Source].
type trackSource []*models.Track

func (s trackSource) String(i int) string { return s[i].SearchText() }
func (s trackSource) Len() int            { return len(s) }

// filterTracks returns the tracks fuzzily matching query, best match first. An empty query
// keeps the original order.
func filterTracks(tracks []*models.Track, query string) []*models.Track {
	query = strings.TrimSpace(query)
	if query == "" {
		return tracks
	}

	matches := fuzzy.FindFrom(query, trackSource(tracks))
	out := make([]*models.Track, len(matches))
	for i, match := range matches {
		out[i] = tracks[match.Index]
	}
	return out
}

type playlistSource []*models.Playlist

func (s playlistSource) String(i int) string { return s[i].Name }
func (s playlistSource) Len() int            { return len(s) }

// matchPlaylist picks the playlist whose name best matches query.
func matchPlaylist(playlists []*models.Playlist, query string) (*models.Playlist, bool) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, false
	}
	for _, p := range playlists {
		if strings.EqualFold(p.Name, query) {
			return p, true
		}
	}
	matches := fuzzy.FindFrom(query, playlistSource(playlists))
	if len(matches) == 0 {
		return nil, false
	}
	return playlists[matches[0].Index], true
}
