package tasks

import (
	"context"

	"github.com/desertthunder/sieve/internal/models"
	"github.com/desertthunder/sieve/internal/services"
)

// LikesClient reads the user's likes on the reference platform.
//
// [services.SoundCloudService] implements it; HTTP failures are reported as [*shared.StatusError].
type LikesClient interface {
	// Configured reports whether a token was supplied.
	Configured() bool

	// Profile loads the token owner's profile.
	Profile(ctx context.Context) (*services.SoundCloudUser, error)

	// LikesPage retrieves up to limit likes starting at offset.
	LikesPage(ctx context.Context, limit, offset int) (*services.LikesPage, error)
}

// HistoryStore remembers which tracks were already recommended.
type HistoryStore interface {
	// SeenKeys returns the [models.Track.Key] of every recorded track.
	SeenKeys() (map[string]struct{}, error)

	// Record replaces the entries of day with tracks.
	Record(day string, tracks []models.Track) error
}

// RunStore persists filtering sessions.
type RunStore interface {
	Create(run *models.FilterRun) error
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}
