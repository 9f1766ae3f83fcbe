// Package ui renders command results for the terminal with lipgloss styles.
//
// Renderers return strings so the CLI decides where they are written:
//   - [RenderPlaylist] : Daily playlist with its filtering summary
//   - [RenderFilterResult] : Kept and removed counts with any errors
//   - [RenderProgress] : One line per pipeline [tasks.ProgressUpdate]
//   - [RenderMatch] : Normalized forms and score of a pair of tracks
//
// Output is plain text when the terminal does not support color.
package ui
