package models

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/playdeck/internal/shared"
)

// Entity is implemented by every model addressable by an opaque string id.
type Entity interface {
	Identifier() string // Identifier returns the unique id of the entity
	Validate() error    // Validate checks if the entity's data is valid
}

// Repository defines the data access operations for one entity type.
type Repository[T Entity] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Update(model T) error                      // Update modifies an existing model in the database
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// Track is a song in the library.
//
// AudioURL is either a streamable http(s) URL or a file:// reference into the tracks directory.
type Track struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Artist    string    `json:"artist"`
	Album     string    `json:"album,omitempty"`
	Genre     string    `json:"genre,omitempty"`
	Key       string    `json:"key,omitempty"`
	BPM       int       `json:"bpm,omitempty"`
	Duration  int       `json:"duration"`
	ImageURL  string    `json:"imageUrl,omitempty"`
	AudioURL  string    `json:"audioUrl"`
	CreatedAt time.Time `json:"createdAt"`
}

func (t *Track) Identifier() string { return t.ID }

func (t *Track) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("%w: track id is required", shared.ErrInvalidInput)
	}
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: track name is required", shared.ErrInvalidInput)
	}
	if t.AudioURL == "" {
		return fmt.Errorf("%w: track audio url is required", shared.ErrInvalidInput)
	}
	if t.BPM < 0 || t.Duration < 0 {
		return fmt.Errorf("%w: bpm and duration must not be negative", shared.ErrInvalidInput)
	}
	return nil
}

// Matches reports whether the query appears in the name, artist or album, ignoring case.
func (t *Track) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	for _, s := range []string{t.Name, t.Artist, t.Album} {
		if strings.Contains(strings.ToLower(s), q) {
			return true
		}
	}
	return false
}

// SearchText is the string fuzzy search runs against.
func (t *Track) SearchText() string {
	return strings.TrimSpace(t.Name + " " + t.Artist + " " + t.Album)
}

// TrackField names a user-editable track column.
type TrackField string

const (
	FieldName     TrackField = "name"
	FieldArtist   TrackField = "artist"
	FieldAlbum    TrackField = "album"
	FieldGenre    TrackField = "genre"
	FieldBPM      TrackField = "bpm"
	FieldKey      TrackField = "key"
	FieldImageURL TrackField = "image_url"
)

// TrackFields lists the editable fields in display order.
var TrackFields = []TrackField{FieldName, FieldArtist, FieldAlbum, FieldGenre, FieldBPM, FieldKey, FieldImageURL}

// ParseTrackField resolves a field name, accepting the camelCase spelling for image_url.
func ParseTrackField(name string) (TrackField, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "imageurl" {
		name = string(FieldImageURL)
	}
	if f := TrackField(name); slices.Contains(TrackFields, f) {
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", shared.ErrInvalidField, name)
}

// Column returns the database column backing the field.
func (f TrackField) Column() string {
	if f == FieldKey {
		return "musical_key"
	}
	return string(f)
}

// Parse converts raw input into the value stored for the field. bpm must be an integer.
func (f TrackField) Parse(raw string) (any, error) {
	if f != FieldBPM {
		return strings.TrimSpace(raw), nil
	}

	bpm, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || bpm < 0 {
		return nil, fmt.Errorf("%w: bpm must be a non-negative integer, got %q", shared.ErrInvalidInput, raw)
	}
	return bpm, nil
}

// Set applies a parsed value to the in-memory track.
func (t *Track) Set(f TrackField, value any) {
	switch f {
	case FieldName:
		t.Name, _ = value.(string)
	case FieldArtist:
		t.Artist, _ = value.(string)
	case FieldAlbum:
		t.Album, _ = value.(string)
	case FieldGenre:
		t.Genre, _ = value.(string)
	case FieldBPM:
		t.BPM, _ = value.(int)
	case FieldKey:
		t.Key, _ = value.(string)
	case FieldImageURL:
		t.ImageURL, _ = value.(string)
	}
}

// PlaylistTrack is one ordered membership entry of a playlist.
type PlaylistTrack struct {
	TrackID string `json:"trackId"`
	Order   int    `json:"order"`
}

// Playlist is a named, ordered list of track references.
type Playlist struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	CoverURL  string          `json:"coverUrl,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	Tracks    []PlaylistTrack `json:"tracks"`
}

// DefaultPlaylistName is used when a playlist is created without a name.
const DefaultPlaylistName = "New Playlist"

func (p *Playlist) Identifier() string { return p.ID }

func (p *Playlist) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("%w: playlist id is required", shared.ErrInvalidInput)
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: playlist name is required", shared.ErrInvalidInput)
	}
	return nil
}

// HasTrack reports whether trackID is already a member.
func (p *Playlist) HasTrack(trackID string) bool {
	return slices.ContainsFunc(p.Tracks, func(pt PlaylistTrack) bool { return pt.TrackID == trackID })
}

// NextOrder returns one past the highest order in the playlist, or 0 when empty.
func (p *Playlist) NextOrder() int {
	next := 0
	for _, pt := range p.Tracks {
		next = max(next, pt.Order+1)
	}
	return next
}

// AppendTrack adds trackID at the end unless it is already present. It reports whether
// the playlist changed.
func (p *Playlist) AppendTrack(trackID string) bool {
	if p.HasTrack(trackID) {
		return false
	}
	p.Tracks = append(p.Tracks, PlaylistTrack{TrackID: trackID, Order: p.NextOrder()})
	return true
}

// TrackIDs returns member track ids by ascending order. Ties keep insertion order.
func (p *Playlist) TrackIDs() []string {
	sorted := slices.Clone(p.Tracks)
	slices.SortStableFunc(sorted, func(a, b PlaylistTrack) int { return a.Order - b.Order })

	ids := make([]string, len(sorted))
	for i, pt := range sorted {
		ids[i] = pt.TrackID
	}
	return ids
}

// Clone returns a deep copy so stored projections never share the Tracks slice.
func (p *Playlist) Clone() *Playlist {
	c := *p
	c.Tracks = slices.Clone(p.Tracks)
	return &c
}

// AddResult reports whether adding a track changed the playlist.
//
// Adding a track that is already a member is not an error; Added is false.
type AddResult struct {
	Added bool `json:"added"`
}

// PlaylistPatch is a partial playlist update. Nil fields are left unchanged.
type PlaylistPatch struct {
	Name     *string
	CoverURL *string
	Tracks   []PlaylistTrack
}

// Apply merges the patch into p.
func (p *Playlist) Apply(patch PlaylistPatch) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.CoverURL != nil {
		p.CoverURL = *patch.CoverURL
	}
	if patch.Tracks != nil {
		p.Tracks = slices.Clone(patch.Tracks)
	}
}
