// Package ui implements the playdeck terminal interface using bubbletea's Elm architecture.
//
// The screen has two keyboard panels and a persistent transport bar:
//   - sidebar : Library, Favorites and every playlist (newest first)
//   - tracklist : the tracks of the selected source, filtered by the "/" fuzzy search
//
// Both panels register with a [focus.Navigator], which owns j/k/h/l/enter/space handling; the
// [Model] handles the player keys (n/p/s/f, volume, seek) and the playlist prompts
// (a, N, r, d). Selecting a track makes the visible list the active queue of the
// [playback.Session].
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving
// messages via the Msg union type. Transport events, optimistic mutation results and library
// watcher updates arrive through channels read by tea.Cmds.
package ui
