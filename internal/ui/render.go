package ui

import (
	"fmt"
	"strings"

	"github.com/desertthunder/sieve/internal/matching"
	"github.com/desertthunder/sieve/internal/models"
	"github.com/desertthunder/sieve/internal/tasks"
)

// RenderPlaylist summarizes a generated playlist and where it was written.
func RenderPlaylist(p *models.Playlist, path string) string {
	var b strings.Builder
	meta := p.Metadata

	b.WriteString(styles.Title(fmt.Sprintf("Daily Playlist %s", meta.Date)))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Tags: %s\n", strings.Join(meta.TagsUsed, ", "))

	count := fmt.Sprintf("Tracks: %d/%d (from %d candidates)", meta.TracksFound, meta.TracksRequested, meta.TotalAvailableTracks)
	if meta.TracksFound < meta.TracksRequested {
		b.WriteString(styles.Warn(count))
	} else {
		b.WriteString(styles.OK(count))
	}
	b.WriteString("\n")

	if s := meta.FilteringStats; s != nil {
		fmt.Fprintf(&b, "Filtered: %d of %d removed (%.1f%%), %d SoundCloud matches\n",
			s.RemovedCount, s.OriginalCount, s.RemovalPercentage, s.SoundCloudMatches)
		if s.HasErrors {
			b.WriteString(styles.Warn(fmt.Sprintf("Filtering reported %d error(s)", s.ErrorCount)))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	for _, t := range p.Tracks {
		fmt.Fprintf(&b, "%3d. %s - %s\n", t.Position, t.Artist, t.Name)
	}

	if path != "" {
		b.WriteString("\n")
		b.WriteString(styles.Help("Saved to " + path))
		b.WriteString("\n")
	}
	return b.String()
}

// RenderFilterResult lists kept and removed counts followed by any errors.
func RenderFilterResult(r models.FilterResult) string {
	var b strings.Builder

	if r.IsSuccessful() {
		b.WriteString(styles.OK("✓ Filtering complete"))
	} else {
		b.WriteString(styles.Warn("! Filtering completed with errors"))
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Kept %d of %d tracks, removed %d (%.1f%%)\n",
		r.FilteredCount(), r.OriginalCount(), r.RemovedCount(), r.RemovalPercentage())

	for _, t := range r.RemovedTracks() {
		b.WriteString(styles.Help(fmt.Sprintf("  - %s", t)))
		b.WriteString("\n")
	}
	for _, msg := range r.Errors() {
		b.WriteString(styles.Err("  • " + msg))
		b.WriteString("\n")
	}
	return b.String()
}

// RenderProgress formats one pipeline update.
func RenderProgress(u tasks.ProgressUpdate) string {
	if u.Total > 1 {
		return fmt.Sprintf("[%s %d/%d] %s", u.Phase, u.Step, u.Total, u.Message)
	}
	return fmt.Sprintf("[%s] %s", u.Phase, u.Message)
}

// RenderMatch explains how a candidate compares to a reference track after normalization.
func RenderMatch(candidate, reference, normCandidate, normReference models.Track, bd matching.Breakdown, matched bool, threshold float64) string {
	var b strings.Builder

	b.WriteString(styles.Title("Match"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Candidate: %s\n", candidate)
	fmt.Fprintf(&b, "  normalized: %s\n", normCandidate)
	fmt.Fprintf(&b, "Reference: %s\n", reference)
	fmt.Fprintf(&b, "  normalized: %s\n", normReference)
	fmt.Fprintf(&b, "Title ratio:  %.3f%s\n", bd.TitleRatio, containedNote(bd.TitleContained))
	fmt.Fprintf(&b, "Artist ratio: %.3f%s\n", bd.ArtistRatio, containedNote(bd.ArtistContained))
	fmt.Fprintf(&b, "Score: %s (threshold %.2f)\n", styles.Score(bd.Score, threshold), threshold)

	if matched {
		b.WriteString(styles.OK("✓ same song"))
	} else {
		b.WriteString(styles.Err("✗ different songs"))
	}
	b.WriteString("\n")
	return b.String()
}

func containedNote(ok bool) string {
	if ok {
		return " (contained)"
	}
	return ""
}
