// SoundCloud API client for reading the authenticated user's likes
//
// The v2 API is undocumented; shapes below follow what api-v2.soundcloud.com returns.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/desertthunder/sieve/internal/models"
	"github.com/desertthunder/sieve/internal/shared"
	"golang.org/x/oauth2"
)

const (
	soundCloudName    = "SoundCloud"
	soundCloudBaseURL = "https://api-v2.soundcloud.com"

	// MaxLikesPageSize is the largest page the likes endpoint accepts.
	MaxLikesPageSize = 50
)

// SoundCloudUser is the subset of the /me profile used to verify a token.
type SoundCloudUser struct {
	ID                   int64  `json:"id"`
	Username             string `json:"username"`
	Permalink            string `json:"permalink"`
	PublicFavoritesCount int    `json:"public_favorites_count"`
	LikesCount           int    `json:"likes_count"`
}

// LikesPage is one page of /me/likes.
//
// Items are kept raw so the caller can decide which ones are usable (see [ParseLikeItem]).
type LikesPage struct {
	Collection []json.RawMessage `json:"collection"`
	NextHref   string            `json:"next_href"`
}

// HasNext reports whether the API advertised a following page.
func (p *LikesPage) HasNext() bool {
	return p.NextHref != ""
}

// SoundCloudService reads the user's likes with a browser OAuth token.
type SoundCloudService struct {
	api   *APIClient
	token string
}

// NewSoundCloudService creates a client authenticating with cfg.OAuthToken.
//
// The token is sent as "Authorization: OAuth <token>" by an [oauth2.Transport] wrapping base
// (or [http.DefaultTransport] when base is nil). An empty token yields a client that reports
// [SoundCloudService.Configured] as false.
func NewSoundCloudService(cfg shared.SoundCloudConfig, fetch shared.FetchConfig, base http.RoundTripper) *SoundCloudService {
	if base == nil {
		base = http.DefaultTransport
	}

	source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.OAuthToken, TokenType: "OAuth"})
	httpClient := &http.Client{
		Transport: &oauth2.Transport{Source: source, Base: base},
		Timeout:   fetch.Timeout.Duration,
	}

	return &SoundCloudService{
		api:   NewAPIClient(soundCloudName, cfg.BaseURL, soundCloudBaseURL, httpClient, fetch.RequestsPerSecond),
		token: cfg.OAuthToken,
	}
}

func (s *SoundCloudService) Name() string {
	return soundCloudName
}

// Configured reports whether a token was supplied.
func (s *SoundCloudService) Configured() bool {
	return s.token != ""
}

// Profile retrieves the profile of the token's owner.
func (s *SoundCloudService) Profile(ctx context.Context) (*SoundCloudUser, error) {
	var user SoundCloudUser
	if err := s.api.GetJSON(ctx, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// LikesPage retrieves up to limit likes starting at offset.
func (s *SoundCloudService) LikesPage(ctx context.Context, limit, offset int) (*LikesPage, error) {
	if limit <= 0 || limit > MaxLikesPageSize {
		limit = MaxLikesPageSize
	}

	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("offset", strconv.Itoa(offset))
	query.Set("linked_partitioning", "1")

	var page LikesPage
	if err := s.api.GetJSON(ctx, "/me/likes", query, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

type likeUser struct {
	Username *string `json:"username"`
}

type likeItem struct {
	Kind         string    `json:"kind"`
	ID           *int64    `json:"id"`
	Title        *string   `json:"title"`
	User         *likeUser `json:"user"`
	PermalinkURL *string   `json:"permalink_url"`
	Duration     *int      `json:"duration"`
	Genre        string    `json:"genre"`
	Track        *likeItem `json:"track"`
}

// ParseLikeItem extracts a track from one likes collection item.
//
// Items are either tracks or like wrappers holding a track under "track". Anything else
// (playlists, malformed items, tracks missing id, title, user.username, permalink_url or duration)
// fails with [shared.ErrInvalidInput].
func ParseLikeItem(raw json.RawMessage) (models.ReferenceTrack, error) {
	var item likeItem
	if err := json.Unmarshal(raw, &item); err != nil {
		return models.ReferenceTrack{}, fmt.Errorf("%w: malformed like item: %v", shared.ErrInvalidInput, err)
	}

	track := &item
	if item.Kind != "track" {
		track = item.Track
	}
	if track == nil || track.Kind != "track" {
		return models.ReferenceTrack{}, fmt.Errorf("%w: like item is not a track", shared.ErrInvalidInput)
	}

	switch {
	case track.ID == nil:
		return models.ReferenceTrack{}, fmt.Errorf("%w: track is missing id", shared.ErrInvalidInput)
	case track.Title == nil:
		return models.ReferenceTrack{}, fmt.Errorf("%w: track %d is missing title", shared.ErrInvalidInput, *track.ID)
	case track.User == nil || track.User.Username == nil:
		return models.ReferenceTrack{}, fmt.Errorf("%w: track %d has no uploader", shared.ErrInvalidInput, *track.ID)
	case track.PermalinkURL == nil:
		return models.ReferenceTrack{}, fmt.Errorf("%w: track %d is missing permalink_url", shared.ErrInvalidInput, *track.ID)
	case track.Duration == nil:
		return models.ReferenceTrack{}, fmt.Errorf("%w: track %d is missing duration", shared.ErrInvalidInput, *track.ID)
	}

	return models.ReferenceTrack{
		ID:        *track.ID,
		Title:     *track.Title,
		Uploader:  *track.User.Username,
		Permalink: *track.PermalinkURL,
		Duration:  *track.Duration,
		Genre:     track.Genre,
	}, nil
}
