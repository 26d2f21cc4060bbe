package testing

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/desertthunder/playdeck/internal/models"
)

// MockPlaylistService is an in-memory test double for services.PlaylistService.
//
// Mutations block on Gate when it is set and fail with Err when it is non-nil. ListPlaylists
// blocks on ListGate when set.
type MockPlaylistService struct {
	Err      error
	Gate     chan struct{}
	ListGate chan struct{}

	mu        sync.Mutex
	playlists map[string]*models.Playlist
	created   []string
	calls     []string
	lists     int
}

func NewMockPlaylistService(seed ...*models.Playlist) *MockPlaylistService {
	m := &MockPlaylistService{playlists: map[string]*models.Playlist{}}
	for _, p := range seed {
		m.playlists[p.ID] = p.Clone()
		m.created = append(m.created, p.ID)
	}
	return m
}

func (m *MockPlaylistService) wait(ctx context.Context, gate chan struct{}) error {
	if gate == nil {
		return nil
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *MockPlaylistService) mutate(ctx context.Context, call string, fn func() error) error {
	m.mu.Lock()
	m.calls = append(m.calls, call)
	m.mu.Unlock()

	if err := m.wait(ctx, m.Gate); err != nil {
		return err
	}
	if m.Err != nil {
		return m.Err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return fn()
}

func (m *MockPlaylistService) ListPlaylists(ctx context.Context) ([]*models.Playlist, error) {
	m.mu.Lock()
	m.lists++
	m.mu.Unlock()

	if err := m.wait(ctx, m.ListGate); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*models.Playlist, 0, len(m.created))
	for i := len(m.created) - 1; i >= 0; i-- {
		if p, ok := m.playlists[m.created[i]]; ok {
			out = append(out, p.Clone())
		}
	}
	return out, nil
}

func (m *MockPlaylistService) CreatePlaylist(ctx context.Context, id, name string) (*models.Playlist, error) {
	var created *models.Playlist
	err := m.mutate(ctx, "create:"+id, func() error {
		now := time.Now()
		created = &models.Playlist{ID: id, Name: name, CreatedAt: now, UpdatedAt: now, Tracks: []models.PlaylistTrack{}}
		m.playlists[id] = created.Clone()
		m.created = append(m.created, id)
		return nil
	})
	return created, err
}

func (m *MockPlaylistService) RenamePlaylist(ctx context.Context, id, name string) error {
	return m.mutate(ctx, "rename:"+id, func() error {
		p, ok := m.playlists[id]
		if !ok {
			return fmt.Errorf("playlist not found: %s", id)
		}
		p.Name = name
		return nil
	})
}

func (m *MockPlaylistService) SetCoverImage(ctx context.Context, id, filename string, data []byte) (string, error) {
	url := "/uploads/covers/" + id + "-" + filename
	err := m.mutate(ctx, "cover:"+id, func() error {
		p, ok := m.playlists[id]
		if !ok {
			return fmt.Errorf("playlist not found: %s", id)
		}
		p.CoverURL = url
		return nil
	})
	if err != nil {
		return "", err
	}
	return url, nil
}

func (m *MockPlaylistService) DeletePlaylist(ctx context.Context, id string) error {
	return m.mutate(ctx, "delete:"+id, func() error {
		delete(m.playlists, id)
		return nil
	})
}

func (m *MockPlaylistService) AddTrackToPlaylist(ctx context.Context, playlistID, trackID string) (models.AddResult, error) {
	var result models.AddResult
	err := m.mutate(ctx, "add:"+playlistID+":"+trackID, func() error {
		p, ok := m.playlists[playlistID]
		if !ok {
			return fmt.Errorf("playlist not found: %s", playlistID)
		}
		result.Added = p.AppendTrack(trackID)
		return nil
	})
	return result, err
}

// Calls returns the mutations received, in order.
func (m *MockPlaylistService) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.calls)
}

// Lists returns how many times ListPlaylists was called.
func (m *MockPlaylistService) Lists() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lists
}

// MockFavoritesService is an in-memory test double for services.FavoritesService.
type MockFavoritesService struct {
	Err  error
	Gate chan struct{}

	mu    sync.Mutex
	set   map[string]bool
	calls []string
}

func NewMockFavoritesService(ids ...string) *MockFavoritesService {
	m := &MockFavoritesService{set: map[string]bool{}}
	for _, id := range ids {
		m.set[id] = true
	}
	return m
}

func (m *MockFavoritesService) SetFavorite(ctx context.Context, trackID string, favorite bool) error {
	m.mu.Lock()
	m.calls = append(m.calls, fmt.Sprintf("%s=%t", trackID, favorite))
	gate := m.Gate
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if m.Err != nil {
		return m.Err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if favorite {
		m.set[trackID] = true
	} else {
		delete(m.set, trackID)
	}
	return nil
}

func (m *MockFavoritesService) Favorites(ctx context.Context) ([]string, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.set))
	for id := range m.set {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

// Calls returns "id=bool" for every SetFavorite received.
func (m *MockFavoritesService) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.calls)
}

// MockTrackService is an in-memory test double for services.TrackService.
type MockTrackService struct {
	Err error

	mu     sync.Mutex
	tracks []*models.Track
	member map[string][]string
}

func NewMockTrackService(tracks ...*models.Track) *MockTrackService {
	return &MockTrackService{tracks: tracks, member: map[string][]string{}}
}

// SetPlaylist sets the track ids returned by PlaylistTracks for playlistID.
func (m *MockTrackService) SetPlaylist(playlistID string, trackIDs ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.member[playlistID] = trackIDs
}

func (m *MockTrackService) find(id string) *models.Track {
	for _, t := range m.tracks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

func (m *MockTrackService) ListTracks(ctx context.Context) ([]*models.Track, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.tracks), nil
}

func (m *MockTrackService) PlaylistTracks(ctx context.Context, playlistID string) ([]*models.Track, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []*models.Track{}
	for _, id := range m.member[playlistID] {
		if t := m.find(id); t != nil {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *MockTrackService) UpdateTrackField(ctx context.Context, id string, field models.TrackField, raw string) (*models.Track, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	value, err := field.Parse(raw)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.find(id)
	if t == nil {
		return nil, fmt.Errorf("track not found: %s", id)
	}
	t.Set(field, value)
	c := *t
	return &c, nil
}

func (m *MockTrackService) UpdateTrackImage(ctx context.Context, id, filename string, data []byte) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	url := "/uploads/tracks/" + id + "-" + filename

	m.mu.Lock()
	defer m.mu.Unlock()
	if t := m.find(id); t != nil {
		t.ImageURL = url
	}
	return url, nil
}

func (m *MockTrackService) ImportTrack(ctx context.Context, track *models.Track) (*models.Track, bool, error) {
	if m.Err != nil {
		return nil, false, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, t := range m.tracks {
		if t.AudioURL == track.AudioURL {
			return t, false, nil
		}
	}
	m.tracks = append(m.tracks, track)
	return track, true, nil
}
