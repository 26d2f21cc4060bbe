package optimistic

import (
	"cmp"
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playdeck/internal/models"
	"github.com/desertthunder/playdeck/internal/services"
	"github.com/desertthunder/playdeck/internal/shared"
)

// createKey guards playlist creation as a whole, matching a single "new playlist" control.
const createKey = "create"

// Playlists is the optimistic projection of the playlist collection.
type Playlists struct {
	store *Store[*models.Playlist]
	coord *Coordinator[*models.Playlist]
	svc   services.PlaylistService
	now   func() time.Time
	newID func() string
}

// NewPlaylists builds the collection over svc. It starts empty; call Refresh to load it.
func NewPlaylists(svc services.PlaylistService, logger *log.Logger) *Playlists {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	store := NewStore(newestFirst)
	return &Playlists{
		store: store,
		coord: NewCoordinator(store, svc.ListPlaylists, shared.WithLogger(logger, "component", "playlists")),
		svc:   svc,
		now:   time.Now,
		newID: shared.GenerateID,
	}
}

// newestFirst orders by creation time, newest first, then by id for stability.
func newestFirst(a, b *models.Playlist) int {
	if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

func (p *Playlists) List() []*models.Playlist { return p.store.List() }

func (p *Playlists) Get(id string) (*models.Playlist, bool) { return p.store.Get(id) }

// Refresh replaces the projection with the service's list.
func (p *Playlists) Refresh(ctx context.Context) error { return p.coord.Refresh(ctx) }

// Wait blocks until background mutations have settled.
func (p *Playlists) Wait() { p.coord.Wait() }

// Create inserts a new playlist with a fresh id and returns it. An empty name becomes
// [models.DefaultPlaylistName].
func (p *Playlists) Create(ctx context.Context, name string) (*models.Playlist, <-chan error, error) {
	if name == "" {
		name = models.DefaultPlaylistName
	}
	now := p.now()
	created := &models.Playlist{
		ID:        p.newID(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
		Tracks:    []models.PlaylistTrack{},
	}

	done, err := p.coord.Do(ctx, Mutation[*models.Playlist]{
		Key: createKey,
		Apply: func(s *Store[*models.Playlist]) {
			s.Update(created.ID, func(*models.Playlist, bool) *models.Playlist { return created.Clone() })
		},
		Remote: func(ctx context.Context) error {
			_, err := p.svc.CreatePlaylist(ctx, created.ID, name)
			return err
		},
	})
	if err != nil {
		return nil, nil, err
	}
	return created.Clone(), done, nil
}

// Update merges patch into the playlist id, inserting it when missing. It only touches the
// projection; the next refetch decides what survives.
func (p *Playlists) Update(id string, patch models.PlaylistPatch) {
	now := p.now()
	p.store.Update(id, func(cur *models.Playlist, ok bool) *models.Playlist {
		if !ok {
			cur = &models.Playlist{ID: id, CreatedAt: now, Tracks: []models.PlaylistTrack{}}
		}
		cur.Apply(patch)
		cur.UpdatedAt = now
		return cur
	})
}

// Remove drops id from the projection.
func (p *Playlists) Remove(id string) { p.store.Remove(id) }

func (p *Playlists) Rename(ctx context.Context, id, name string) (<-chan error, error) {
	if name == "" {
		name = models.DefaultPlaylistName
	}
	return p.coord.Do(ctx, Mutation[*models.Playlist]{
		Key: "rename:" + id,
		Apply: func(*Store[*models.Playlist]) {
			p.Update(id, models.PlaylistPatch{Name: &name})
		},
		Remote: func(ctx context.Context) error {
			return p.svc.RenamePlaylist(ctx, id, name)
		},
	})
}

// SetCover uploads a cover image. The URL is only known after the upload, so the
// projection changes when the refetch lands.
func (p *Playlists) SetCover(ctx context.Context, id, filename string, data []byte) (<-chan error, error) {
	return p.coord.Do(ctx, Mutation[*models.Playlist]{
		Key: "cover:" + id,
		Remote: func(ctx context.Context) error {
			_, err := p.svc.SetCoverImage(ctx, id, filename, data)
			return err
		},
	})
}

func (p *Playlists) Delete(ctx context.Context, id string) (<-chan error, error) {
	return p.coord.Do(ctx, Mutation[*models.Playlist]{
		Key: "delete:" + id,
		Apply: func(s *Store[*models.Playlist]) {
			s.Remove(id)
		},
		Remote: func(ctx context.Context) error {
			return p.svc.DeletePlaylist(ctx, id)
		},
	})
}

// AddTrack appends trackID to the playlist. A track already present is a successful no-op
// that sends nothing to the service.
func (p *Playlists) AddTrack(ctx context.Context, playlistID, trackID string) (<-chan error, error) {
	if pl, ok := p.store.Get(playlistID); ok && pl.HasTrack(trackID) {
		done := make(chan error)
		close(done)
		return done, nil
	}

	return p.coord.Do(ctx, Mutation[*models.Playlist]{
		Key: "add:" + playlistID + ":" + trackID,
		Apply: func(s *Store[*models.Playlist]) {
			now := p.now()
			s.Modify(playlistID, func(cur *models.Playlist) {
				cur.AppendTrack(trackID)
				cur.UpdatedAt = now
			})
		},
		Remote: func(ctx context.Context) error {
			_, err := p.svc.AddTrackToPlaylist(ctx, playlistID, trackID)
			return err
		},
	})
}

// Creating reports whether a create is outstanding.
func (p *Playlists) Creating() bool { return p.coord.InFlight(createKey) }

func (p *Playlists) Deleting(id string) bool { return p.coord.InFlight("delete:" + id) }
