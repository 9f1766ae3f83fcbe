package tasks

import (
	"fmt"

	"github.com/desertthunder/sieve/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	FetchCandidates Phase = iota
	DedupeHistory
	FetchReference
	MatchTracks
	BuildPlaylist
	RecordHistory
)

func (p Phase) String() string {
	switch p {
	case FetchCandidates:
		return "fetch_candidates"
	case DedupeHistory:
		return "dedupe_history"
	case FetchReference:
		return "fetch_reference"
	case MatchTracks:
		return "match_tracks"
	case BuildPlaylist:
		return "build_playlist"
	case RecordHistory:
		return "record_history"
	default:
		return ""
	}
}

func fetchTagUpdate(step, total int, tag string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchCandidates,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Fetching tag: %s", tag),
	}
}

func fetchTagFailedUpdate(step, total int, tag string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchCandidates,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Failed to fetch tag %s: %v", tag, err),
	}
}

func dedupeUpdate(fresh, seen int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   DedupeHistory,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("%d new tracks (%d previously recommended)", fresh, seen),
	}
}

func fetchReferenceUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchReference,
		Step:    1,
		Total:   1,
		Message: "Fetching SoundCloud likes...",
	}
}

func referenceFetchedUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchReference,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Loaded %d SoundCloud likes", count),
		Data:    count,
	}
}

func matchTrackUpdate(step, total int, track models.Track, removed bool) ProgressUpdate {
	verb := "Kept"
	if removed {
		verb = "Removed"
	}
	return ProgressUpdate{
		Phase:   MatchTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("%s %s", verb, track),
		Data:    track,
	}
}

func buildPlaylistUpdate(p *models.Playlist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   BuildPlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Selected %d of %d requested tracks", p.Len(), p.Metadata.TracksRequested),
		Data:    p,
	}
}

func recordHistoryUpdate(day string, n int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RecordHistory,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Recorded %d tracks for %s", n, day),
	}
}
