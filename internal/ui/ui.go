package ui

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/playdeck/internal/audio"
	"github.com/desertthunder/playdeck/internal/focus"
	"github.com/desertthunder/playdeck/internal/models"
	"github.com/desertthunder/playdeck/internal/optimistic"
	"github.com/desertthunder/playdeck/internal/playback"
	"github.com/desertthunder/playdeck/internal/services"
	"github.com/desertthunder/playdeck/internal/shared"
	"github.com/desertthunder/playdeck/internal/tasks"
)

type promptKind int

const (
	promptNone promptKind = iota
	promptCreate
	promptRename
	promptAdd
)

const (
	sidebarWidth  = 32
	seekStep      = 5.0
	volumeStep    = 10
	defaultWidth  = 100
	defaultHeight = 30
)

// Deps are the long-lived collaborators the model drives. The caller constructs them once
// and tears them down after the program exits.
type Deps struct {
	Session   *playback.Session
	Transport *audio.Transport
	Navigator *focus.Navigator
	Playlists *optimistic.Playlists
	Tracks    services.TrackService
	// Progress optionally carries library watcher updates.
	Progress <-chan tasks.ProgressUpdate
	Logger   *log.Logger
}

// Model represents the TUI application state.
type Model struct {
	ctx       context.Context
	session   *playback.Session
	transport *audio.Transport
	nav       *focus.Navigator
	playlists *optimistic.Playlists
	tracks    services.TrackService
	progress  <-chan tasks.ProgressUpdate
	logger    *log.Logger

	width  int
	height int

	library      []*models.Track
	source       string // selected sidebar row
	sourceTracks []*models.Track
	visible      []*models.Track
	loading      bool

	search    textinput.Model
	searching bool
	query     string

	prompt       textinput.Model
	promptKind   promptKind
	promptTarget string

	state    audio.State
	status   string
	err      error
	help     help.Model
	keys     keyMap
	pending  []tea.Cmd
	quitting bool
}

// NewModel creates the TUI model and registers its panels with the navigator.
func NewModel(ctx context.Context, deps Deps) *Model {
	logger := deps.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "search name, artist, album"

	prompt := textinput.New()
	prompt.CharLimit = 120

	m := &Model{
		ctx:       ctx,
		session:   deps.Session,
		transport: deps.Transport,
		nav:       deps.Navigator,
		playlists: deps.Playlists,
		tracks:    deps.Tracks,
		progress:  deps.Progress,
		logger:    shared.WithLogger(logger, "component", "ui"),
		source:    libraryRow,
		search:    search,
		prompt:    prompt,
		help:      help.New(),
		keys:      newKeyMap(deps.Navigator.Keys()),
	}

	m.nav.Register(focus.Sidebar, focus.ContainerFunc(m.sidebarRows), m.selectSource)
	m.nav.Register(focus.Tracklist, focus.ContainerFunc(m.trackRows), m.selectTrack)
	m.nav.OnTogglePlay(m.session.TogglePlayPause)
	m.nav.OnSearch(m.startSearch)
	m.state = m.transport.State()
	return m
}

// Init loads the library and starts listening to the transport.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.refresh(), waitForEvent(m.transport.Events())}
	if m.progress != nil {
		cmds = append(cmds, waitForProgress(m.progress))
	}
	return tea.Batch(cmds...)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		cmd := m.handleKey(msg)
		m.state = m.transport.State()
		return m, tea.Batch(append(m.drain(), cmd)...)

	case Msg:
		cmd := m.handleMsg(msg)
		return m, tea.Batch(append(m.drain(), cmd)...)
	}

	var cmd tea.Cmd
	switch {
	case m.promptKind != promptNone:
		m.prompt, cmd = m.prompt.Update(msg)
	case m.searching:
		m.search, cmd = m.search.Update(msg)
	}
	return m, cmd
}

func (m *Model) drain() []tea.Cmd {
	cmds := m.pending
	m.pending = nil
	return cmds
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.Type == tea.KeyCtrlC {
		m.quitting = true
		return tea.Quit
	}
	if m.promptKind != promptNone {
		return m.handlePromptKey(msg)
	}
	if m.searching {
		return m.handleSearchKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		m.quitting = true
		return tea.Quit
	case key.Matches(msg, m.keys.next):
		m.session.PlayNext()
	case key.Matches(msg, m.keys.prev):
		m.session.PlayPrevious()
	case key.Matches(msg, m.keys.shuffle):
		if m.session.ToggleShuffle() {
			m.setStatus("Shuffle on")
		} else {
			m.setStatus("Shuffle off")
		}
	case key.Matches(msg, m.keys.favorite):
		m.toggleFavorite()
	case key.Matches(msg, m.keys.mute):
		m.transport.ToggleMute()
	case key.Matches(msg, m.keys.louder):
		m.transport.SetVolume(m.transport.State().Volume + volumeStep)
	case key.Matches(msg, m.keys.quieter):
		m.transport.SetVolume(m.transport.State().Volume - volumeStep)
	case key.Matches(msg, m.keys.forward):
		m.transport.Seek(m.transport.Position() + seekStep)
	case key.Matches(msg, m.keys.rewind):
		m.transport.Seek(m.transport.Position() - seekStep)
	case key.Matches(msg, m.keys.add):
		return m.openAdd()
	case key.Matches(msg, m.keys.create):
		return m.openPrompt(promptCreate, "", models.DefaultPlaylistName, "")
	case key.Matches(msg, m.keys.rename):
		return m.openRename()
	case key.Matches(msg, m.keys.remove):
		return m.deletePlaylist()
	case key.Matches(msg, m.keys.back):
		m.clearSearch()
	default:
		m.nav.HandleKey(msg)
	}
	return nil
}

func (m *Model) handleSearchKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.clearSearch()
		return nil
	case tea.KeyEnter:
		m.stopSearch()
		if len(m.visible) > 0 {
			m.nav.Focus(focus.Tracklist, m.visible[0].ID)
		}
		return nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.query = m.search.Value()
	m.applyFilter()
	return cmd
}

func (m *Model) handlePromptKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.closePrompt()
		return nil
	case tea.KeyEnter:
		kind, target, value := m.promptKind, m.promptTarget, m.prompt.Value()
		m.closePrompt()
		return m.submitPrompt(kind, target, value)
	}

	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return cmd
}

func (m *Model) handleMsg(msg Msg) tea.Cmd {
	switch msg.kind {
	case MsgLibraryFetched:
		data := msg.data.(libraryFetched)
		if data.err != nil {
			m.logger.Warn("refresh failed", "err", data.err)
			m.err = data.err
		}
		if data.tracks != nil {
			m.library = data.tracks
		}
		if m.source == libraryRow || m.source == favoritesRow {
			m.showSource(m.source)
		}
		return nil

	case MsgPlaylistTracksFetched:
		data := msg.data.(playlistTracksFetched)
		if m.source != playlistRow(data.playlistID) {
			return nil
		}
		m.loading = false
		if data.err != nil {
			m.err = data.err
			return nil
		}
		m.setSourceTracks(data.tracks)
		return nil

	case MsgTransportEvent:
		ev := msg.data.(audio.Event)
		m.state = m.transport.State()
		if ev.Kind == audio.EventFailed && ev.Err != nil {
			m.err = fmt.Errorf("playback failed: %w", ev.Err)
		}
		return waitForEvent(m.transport.Events())

	case MsgMutationDone:
		data := msg.data.(mutationDone)
		if data.err != nil {
			m.err = data.err
		} else {
			m.setStatus(data.label)
		}
		if id, ok := playlistIDOf(m.source); ok {
			if _, exists := m.playlists.Get(id); !exists {
				m.showSource(libraryRow)
				return nil
			}
			return m.fetchPlaylistTracks(id)
		}
		return nil

	case MsgProgressUpdate:
		update := msg.data.(tasks.ProgressUpdate)
		m.status = update.Message
		cmds := []tea.Cmd{waitForProgress(m.progress)}
		if _, ok := update.Data.(*models.Track); ok {
			cmds = append(cmds, m.refresh())
		}
		return tea.Batch(cmds...)
	}
	return nil
}

// sidebarRows lists the library, favorites and every playlist in display order.
func (m *Model) sidebarRows() []string {
	rows := []string{libraryRow, favoritesRow}
	for _, p := range m.playlists.List() {
		rows = append(rows, playlistRow(p.ID))
	}
	return rows
}

func (m *Model) trackRows() []string {
	ids := make([]string, len(m.visible))
	for i, t := range m.visible {
		ids[i] = t.ID
	}
	return ids
}

func (m *Model) selectSource(row string) {
	m.showSource(row)
}

// selectTrack plays row with the on-screen source as the active queue. A search filter narrows
// what is shown, not what plays next.
func (m *Model) selectTrack(row string) {
	t := m.findVisible(row)
	if t == nil {
		return
	}
	m.session.SetQueue(m.sourceTracks)
	m.session.PlayTrack(t)
}

func (m *Model) showSource(row string) {
	m.source = row
	m.loading = false
	switch row {
	case libraryRow:
		m.setSourceTracks(m.library)
		return
	case favoritesRow:
		m.setSourceTracks(m.favoriteTracks())
		return
	default:
		id, ok := playlistIDOf(row)
		if !ok {
			return
		}
		m.sourceTracks = nil
		m.loading = true
		m.pending = append(m.pending, m.fetchPlaylistTracks(id))
	}
	m.applyFilter()
}

func (m *Model) favoriteTracks() []*models.Track {
	var out []*models.Track
	for _, t := range m.library {
		if m.session.IsFavorite(t.ID) {
			out = append(out, t)
		}
	}
	return out
}

// setSourceTracks shows tracks and makes them the active queue.
func (m *Model) setSourceTracks(tracks []*models.Track) {
	m.sourceTracks = tracks
	m.session.SetQueue(tracks)
	m.applyFilter()
}

func (m *Model) applyFilter() {
	m.visible = filterTracks(m.sourceTracks, m.query)
}

func (m *Model) findVisible(id string) *models.Track {
	i := slices.IndexFunc(m.visible, func(t *models.Track) bool { return t.ID == id })
	if i < 0 {
		return nil
	}
	return m.visible[i]
}

// targetTrack is the focused track, falling back to the one playing.
func (m *Model) targetTrack() *models.Track {
	if row, ok := m.nav.Focused(); ok {
		if t := m.findVisible(row); t != nil {
			return t
		}
	}
	return m.state.Track
}

// targetPlaylist is the focused sidebar playlist, falling back to the selected one.
func (m *Model) targetPlaylist() (string, bool) {
	if row, ok := m.nav.Focused(); ok && m.nav.Active() == focus.Sidebar {
		if id, ok := playlistIDOf(row); ok {
			return id, true
		}
	}
	return playlistIDOf(m.source)
}

func (m *Model) startSearch() {
	m.searching = true
	m.pending = append(m.pending, m.search.Focus())
}

func (m *Model) stopSearch() {
	m.searching = false
	m.search.Blur()
}

func (m *Model) clearSearch() {
	m.stopSearch()
	m.search.SetValue("")
	m.query = ""
	m.applyFilter()
}

func (m *Model) toggleFavorite() {
	t := m.targetTrack()
	if t == nil {
		return
	}
	if m.session.ToggleFavorite(t) {
		m.setStatus("Added " + t.Name + " to favorites")
	} else {
		m.setStatus("Removed " + t.Name + " from favorites")
	}
	if m.source == favoritesRow {
		m.showSource(favoritesRow)
	}
}

func (m *Model) openPrompt(kind promptKind, target, placeholder, value string) tea.Cmd {
	m.promptKind = kind
	m.promptTarget = target
	m.prompt.Placeholder = placeholder
	m.prompt.SetValue(value)
	m.err = nil
	return m.prompt.Focus()
}

func (m *Model) closePrompt() {
	m.promptKind = promptNone
	m.promptTarget = ""
	m.prompt.Blur()
	m.prompt.SetValue("")
}

func (m *Model) openAdd() tea.Cmd {
	t := m.targetTrack()
	if t == nil {
		m.setStatus("Focus a track to add it to a playlist")
		return nil
	}
	return m.openPrompt(promptAdd, t.ID, "playlist for "+t.Name, "")
}

func (m *Model) openRename() tea.Cmd {
	id, ok := m.targetPlaylist()
	if !ok {
		m.setStatus("Select a playlist to rename")
		return nil
	}
	pl, ok := m.playlists.Get(id)
	if !ok {
		return nil
	}
	return m.openPrompt(promptRename, id, "playlist name", pl.Name)
}

func (m *Model) deletePlaylist() tea.Cmd {
	id, ok := m.targetPlaylist()
	if !ok {
		m.setStatus("Select a playlist to delete")
		return nil
	}
	name := id
	if pl, ok := m.playlists.Get(id); ok {
		name = pl.Name
	}

	done, err := m.playlists.Delete(m.ctx, id)
	if err != nil {
		m.err = err
		return nil
	}

	if row, ok := m.nav.Focused(); ok && row == playlistRow(id) {
		m.nav.Blur()
	}
	if m.source == playlistRow(id) {
		m.showSource(libraryRow)
	}
	return waitForResult("Deleted "+name, done)
}

func (m *Model) submitPrompt(kind promptKind, target, value string) tea.Cmd {
	value = strings.TrimSpace(value)

	switch kind {
	case promptCreate:
		pl, done, err := m.playlists.Create(m.ctx, value)
		if err != nil {
			m.err = err
			return nil
		}
		return waitForResult("Created "+pl.Name, done)

	case promptRename:
		if value == "" {
			return nil
		}
		done, err := m.playlists.Rename(m.ctx, target, value)
		if err != nil {
			m.err = err
			return nil
		}
		return waitForResult("Renamed to "+value, done)

	case promptAdd:
		pl, ok := matchPlaylist(m.playlists.List(), value)
		if !ok {
			m.err = fmt.Errorf("%w: nothing matches %q", shared.ErrPlaylistNotFound, value)
			return nil
		}
		done, err := m.playlists.AddTrack(m.ctx, pl.ID, target)
		if err != nil {
			m.err = err
			return nil
		}
		return waitForResult("Added to "+pl.Name, done)
	}
	return nil
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.err = nil
}

func (m *Model) size() (int, int) {
	w, h := m.width, m.height
	if w <= 0 {
		w = defaultWidth
	}
	if h <= 0 {
		h = defaultHeight
	}
	return w, h
}

// View renders the two panels, the transport bar, the input line, status and help.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	width, height := m.size()
	bodyH := max(height-8, 3)
	sideW := min(sidebarWidth, width/3)
	trackW := max(width-sideW-4, 12)

	active := m.nav.Active()
	focused, hasFocus := m.nav.Focused()
	if !hasFocus {
		focused = ""
	}

	sidebar := styles.panel(active == focus.Sidebar).
		Width(sideW).
		Height(bodyH).
		Render(m.renderSidebar(sideW-2, bodyH, focused))
	tracklist := styles.panel(active == focus.Tracklist).
		Width(trackW).
		Height(bodyH).
		Render(m.renderTracks(trackW-2, bodyH, focused))

	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, sidebar, tracklist),
		transportLine(m.state, m.session.Shuffle(), width),
		m.inputLine(),
		m.statusLine(),
		styles.help.Render(m.help.View(m.keys)),
	)
}

func (m *Model) renderSidebar(w, h int, focused string) string {
	rows := m.sidebarRows()
	labels := map[string]string{
		libraryRow:   fit(fmt.Sprintf("Library (%d)", len(m.library)), w),
		favoritesRow: fit("Favorites", w),
	}
	deleting := map[string]bool{}
	for _, p := range m.playlists.List() {
		labels[playlistRow(p.ID)] = playlistLine(p, w)
		deleting[playlistRow(p.ID)] = m.playlists.Deleting(p.ID)
	}

	start, end := window(len(rows), h-1, slices.Index(rows, focused))
	lines := []string{styles.selected.Render(fit("playdeck", w))}
	for _, row := range rows[start:end] {
		label := labels[row]
		switch {
		case row == focused:
			label = styles.focused.Render(label)
		case deleting[row]:
			label = styles.help.Render(label)
		case row == m.source:
			label = styles.selected.Render(label)
		}
		lines = append(lines, label)
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderTracks(w, h int, focused string) string {
	header := m.sourceTitle()
	if m.loading {
		header += " (loading)"
	} else {
		header += fmt.Sprintf(" (%d)", len(m.visible))
	}
	lines := []string{styles.selected.Render(fit(header, w))}

	if len(m.visible) == 0 && !m.loading {
		lines = append(lines, styles.help.Render(fit("No tracks", w)))
		return strings.Join(lines, "\n")
	}

	current := ""
	if m.state.Track != nil {
		current = m.state.Track.ID
	}

	start, end := window(len(m.visible), h-1, slices.Index(m.trackRows(), focused))
	for _, t := range m.visible[start:end] {
		line := trackLine(t, w, t.ID == current, m.session.IsFavorite(t.ID))
		switch {
		case t.ID == focused:
			line = styles.focused.Render(line)
		case t.ID == current:
			line = styles.playing.Render(line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m *Model) sourceTitle() string {
	switch m.source {
	case libraryRow:
		return "Library"
	case favoritesRow:
		return "Favorites"
	}
	if id, ok := playlistIDOf(m.source); ok {
		if pl, ok := m.playlists.Get(id); ok {
			return pl.Name
		}
	}
	return "Playlist"
}

func (m *Model) inputLine() string {
	switch {
	case m.promptKind == promptCreate:
		return "New playlist: " + m.prompt.View()
	case m.promptKind == promptRename:
		return "Rename: " + m.prompt.View()
	case m.promptKind == promptAdd:
		return "Add to: " + m.prompt.View()
	case m.searching || m.query != "":
		return m.search.View()
	}
	return ""
}

func (m *Model) statusLine() string {
	switch {
	case m.err != nil:
		return styles.err.Render("Error: " + m.err.Error())
	case m.status != "":
		return styles.ok.Render(m.status)
	}
	return ""
}

// window returns the [start, end) slice of n rows that fits h lines and keeps idx visible.
func window(n, h, idx int) (int, int) {
	if h <= 0 {
		return 0, 0
	}
	if n <= h {
		return 0, n
	}
	start := max(0, min(idx-h/2, n-h))
	return start, start + h
}
