package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/playdeck/internal/audio"
	"github.com/desertthunder/playdeck/internal/models"
	"github.com/desertthunder/playdeck/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgLibraryFetched MsgKind = iota
	MsgPlaylistTracksFetched
	MsgTransportEvent
	MsgTransportClosed
	MsgMutationDone
	MsgProgressUpdate
	MsgProgressDone
)

type libraryFetched struct {
	tracks []*models.Track
	err    error
}

type playlistTracksFetched struct {
	playlistID string
	tracks     []*models.Track
	err        error
}

type mutationDone struct {
	label string
	err   error
}

// libraryFetchedMsg is the constructor for [MsgLibraryFetched]
func libraryFetchedMsg(tracks []*models.Track, err error) Msg {
	return Msg{kind: MsgLibraryFetched, data: libraryFetched{tracks, err}}
}

// playlistTracksFetchedMsg is the constructor for [MsgPlaylistTracksFetched]
func playlistTracksFetchedMsg(playlistID string, tracks []*models.Track, err error) Msg {
	return Msg{kind: MsgPlaylistTracksFetched, data: playlistTracksFetched{playlistID, tracks, err}}
}

// transportEventMsg is the constructor for [MsgTransportEvent]
func transportEventMsg(ev audio.Event) Msg {
	return Msg{kind: MsgTransportEvent, data: ev}
}

func transportClosedMsg() Msg {
	return Msg{kind: MsgTransportClosed}
}

// mutationDoneMsg is the constructor for [MsgMutationDone]
func mutationDoneMsg(label string, err error) Msg {
	return Msg{kind: MsgMutationDone, data: mutationDone{label, err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

func progressDoneMsg() Msg {
	return Msg{kind: MsgProgressDone}
}
