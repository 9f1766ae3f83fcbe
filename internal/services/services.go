// package services defines clients for the HTTP APIs sieve talks to
//
// Last.fm (candidate catalog), SoundCloud (reference likes)
package services

import (
	"context"

	"github.com/desertthunder/sieve/internal/models"
)

// Service is implemented by every API client.
type Service interface {
	// Name returns the display name of the service (e.g., "SoundCloud", "Last.fm")
	Name() string
}

// CatalogService supplies candidate tracks.
type CatalogService interface {
	Service

	// TopTracksByTag returns up to limit popular tracks for a tag.
	TopTracksByTag(ctx context.Context, tag string, limit int) ([]models.Track, error)
}

// LikesService exposes the user's liked tracks on a reference platform.
type LikesService interface {
	Service

	// Configured reports whether credentials were supplied.
	Configured() bool

	// Profile verifies the credentials by loading the owner's profile.
	Profile(ctx context.Context) (*SoundCloudUser, error)

	// LikesPage retrieves one page of likes.
	LikesPage(ctx context.Context, limit, offset int) (*LikesPage, error)
}

var (
	_ CatalogService = (*LastFMService)(nil)
	_ LikesService   = (*SoundCloudService)(nil)
)
