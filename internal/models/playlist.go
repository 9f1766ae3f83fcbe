package models

import (
	"fmt"
	"time"
)

// DayLayout formats the calendar day a playlist (and its history entries) belongs to.
const DayLayout = "2006-01-02"

// Metadata describes how a [Playlist] was produced.
type Metadata struct {
	GeneratedAt          time.Time      `json:"generated_at"`
	Date                 string         `json:"date"`
	TagsUsed             []string       `json:"tags_used"`
	TracksRequested      int            `json:"tracks_requested"`
	TracksFound          int            `json:"tracks_found"`
	TotalAvailableTracks int            `json:"total_available_tracks"`
	APILimitPerTag       int            `json:"api_limit_per_tag"`
	FilteringStats       *FilterSummary `json:"filtering_stats,omitempty"`
}

// Playlist is the day's recommendation artifact.
type Playlist struct {
	Metadata Metadata `json:"metadata"`
	Tracks   []Track  `json:"tracks"`
}

// NewPlaylist ranks tracks (1-based) and stamps them with generatedAt.
//
// The caller's slice is not modified.
func NewPlaylist(tracks []Track, meta Metadata, generatedAt time.Time) *Playlist {
	ranked := make([]Track, len(tracks))
	for i, t := range tracks {
		t.Position = i + 1
		t.AddedAt = generatedAt
		ranked[i] = t
	}

	meta.GeneratedAt = generatedAt
	meta.Date = generatedAt.Format(DayLayout)
	meta.TracksFound = len(ranked)

	return &Playlist{Metadata: meta, Tracks: ranked}
}

// Len returns the number of tracks in the playlist.
func (p *Playlist) Len() int { return len(p.Tracks) }

// Day returns the calendar day of the playlist.
func (p *Playlist) Day() string { return p.Metadata.Date }

func (p *Playlist) String() string {
	return fmt.Sprintf("Playlist %s: %d/%d tracks", p.Metadata.Date, len(p.Tracks), p.Metadata.TracksRequested)
}
