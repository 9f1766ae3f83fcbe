// Last.fm API client used as the candidate catalog
//
// Response types based on https://www.last.fm/api/show/tag.getTopTracks
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/desertthunder/sieve/internal/models"
	"github.com/desertthunder/sieve/internal/shared"
)

const (
	lastFMName    = "Last.fm"
	lastFMBaseURL = "https://ws.audioscrobbler.com/2.0/"
)

type lastFMArtist struct {
	Name string `json:"name"`
}

// LastFMTrack is a track entry of tag.getTopTracks.
type LastFMTrack struct {
	Name   string       `json:"name"`
	URL    string       `json:"url"`
	Artist lastFMArtist `json:"artist"`
}

// lastFMError is the body Last.fm returns for failed calls, sometimes with a 200 status.
type lastFMError struct {
	Code    int    `json:"error"`
	Message string `json:"message"`
}

// LastFMService fetches top tracks per tag.
type LastFMService struct {
	api    *APIClient
	apiKey string
}

// NewLastFMService creates a Last.fm client. A nil client falls back to [http.DefaultClient].
func NewLastFMService(cfg shared.LastFMConfig, requestsPerSecond float64, client *http.Client) (*LastFMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: Last.fm api_key", shared.ErrMissingCredentials)
	}

	return &LastFMService{
		api:    NewAPIClient(lastFMName, cfg.BaseURL, lastFMBaseURL, client, requestsPerSecond),
		apiKey: cfg.APIKey,
	}, nil
}

func (s *LastFMService) Name() string {
	return lastFMName
}

// TopTracksByTag returns up to limit of the most popular tracks for tag.
//
// Entries without a name or artist are skipped.
func (s *LastFMService) TopTracksByTag(ctx context.Context, tag string, limit int) ([]models.Track, error) {
	query := url.Values{}
	query.Set("method", "tag.gettoptracks")
	query.Set("tag", tag)
	query.Set("api_key", s.apiKey)
	query.Set("format", "json")
	query.Set("limit", strconv.Itoa(limit))

	resp, err := s.api.Get(ctx, "/", query)
	if err != nil {
		var se *shared.StatusError
		if errors.As(err, &se) && resp != nil {
			if apiErr := decodeLastFMError(resp.Body); apiErr != nil {
				se.Message = apiErr.Message
			}
		}
		return nil, fmt.Errorf("tag %q: %w", tag, err)
	}

	if apiErr := decodeLastFMError(resp.Body); apiErr != nil {
		return nil, fmt.Errorf("tag %q: %w", tag, &shared.StatusError{
			Service: lastFMName, StatusCode: resp.StatusCode, Message: apiErr.Message,
		})
	}

	var body struct {
		Tracks struct {
			Track json.RawMessage `json:"track"`
		} `json:"tracks"`
	}
	if err := resp.Decode(&body); err != nil {
		return nil, fmt.Errorf("tag %q: %w", tag, err)
	}

	items, err := decodeTrackList(body.Tracks.Track)
	if err != nil {
		return nil, fmt.Errorf("tag %q: %w", tag, err)
	}

	tracks := make([]models.Track, 0, len(items))
	for _, raw := range items {
		var item LastFMTrack
		if err := json.Unmarshal(raw, &item); err != nil {
			continue
		}
		track, err := models.NewTrack(item.Name, item.Artist.Name)
		if err != nil {
			continue
		}
		tracks = append(tracks, track.WithURL(item.URL))
	}

	return tracks, nil
}

func decodeLastFMError(body []byte) *lastFMError {
	var apiErr lastFMError
	if err := json.Unmarshal(body, &apiErr); err != nil || apiErr.Code == 0 {
		return nil
	}
	return &apiErr
}

// decodeTrackList accepts both a list of tracks and the single object Last.fm returns for one result.
func decodeTrackList(raw json.RawMessage) ([]json.RawMessage, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	if raw[0] != '[' {
		return []json.RawMessage{raw}, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("failed to decode tracks: %w", err)
	}
	return items, nil
}
