// Package services implements the HTTP clients behind the recommendation pipeline.
//
// # Last.fm
//
// [LastFMService] implements [CatalogService]: it calls tag.getTopTracks with an API key and turns each
// entry into a [models.Track]. Last.fm error bodies ({"error": N, "message": "..."}) are surfaced as
// [shared.StatusError] even when the HTTP status is 200.
//
// # SoundCloud
//
// [SoundCloudService] implements [LikesService] against api-v2.soundcloud.com. The browser OAuth token is
// attached by an [oauth2.Transport] using the "OAuth" token type. Pages of /me/likes are returned raw;
// [ParseLikeItem] extracts tracks from individual items.
//
// # Transport
//
// Both clients share [APIClient], which paces requests with a [rate.Limiter] and converts non-2xx
// responses into [shared.StatusError]. Retrying is left to callers.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.StatusError] : non-2xx response; unwraps to [shared.ErrTokenExpired] (401),
//     [shared.ErrAuthFailed] (403), [shared.ErrRateLimited] (429) or [shared.ErrAPIRequest]
//   - [shared.ErrMissingCredentials] : a required API key is absent
//   - [shared.ErrInvalidInput] : a likes item cannot be used as a track
package services
