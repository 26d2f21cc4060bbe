package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/playdeck/internal/audio"
	"github.com/desertthunder/playdeck/internal/models"
	"github.com/desertthunder/playdeck/internal/tasks"
	"golang.org/x/sync/errgroup"
)

// refresh reloads the library, the playlist projection and the favorites set concurrently.
func (m *Model) refresh() tea.Cmd {
	ctx, tracks, playlists, session := m.ctx, m.tracks, m.playlists, m.session
	return func() tea.Msg {
		var library []*models.Track

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			library, err = tracks.ListTracks(gctx)
			return err
		})
		g.Go(func() error { return playlists.Refresh(gctx) })
		g.Go(func() error { return session.LoadFavorites(gctx) })

		err := g.Wait()
		return libraryFetchedMsg(library, err)
	}
}

func (m *Model) fetchPlaylistTracks(playlistID string) tea.Cmd {
	ctx, tracks := m.ctx, m.tracks
	return func() tea.Msg {
		list, err := tracks.PlaylistTracks(ctx, playlistID)
		return playlistTracksFetchedMsg(playlistID, list, err)
	}
}

// waitForEvent reads one transport event. The model re-issues it after every event.
func waitForEvent(events <-chan audio.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return transportClosedMsg()
		}
		return transportEventMsg(ev)
	}
}

func waitForProgress(progress <-chan tasks.ProgressUpdate) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-progress
		if !ok {
			return progressDoneMsg()
		}
		return progressUpdateMsg(update)
	}
}

// waitForResult reports the remote outcome of an optimistic mutation.
func waitForResult(label string, result <-chan error) tea.Cmd {
	return func() tea.Msg {
		return mutationDoneMsg(label, <-result)
	}
}
