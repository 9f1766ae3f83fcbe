package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/sieve/internal/shared"
	"golang.org/x/text/cases"
)

// Track is a song identified by its title and artist.
//
// Two tracks are the same entity when their names and artists match case-insensitively.
type Track struct {
	Name     string    `json:"name"`
	Artist   string    `json:"artist"`
	URL      string    `json:"url,omitempty"`
	Position int       `json:"position,omitempty"` // 1-based rank in a playlist, 0 when unranked
	AddedAt  time.Time `json:"added_to_playlist,omitzero"`
}

// NewTrack builds a [Track], rejecting names or artists that are blank after trimming.
func NewTrack(name, artist string) (Track, error) {
	name = strings.TrimSpace(name)
	artist = strings.TrimSpace(artist)

	if name == "" {
		return Track{}, fmt.Errorf("%w: track name cannot be empty", shared.ErrInvalidTrack)
	}
	if artist == "" {
		return Track{}, fmt.Errorf("%w: artist name cannot be empty", shared.ErrInvalidTrack)
	}

	return Track{Name: name, Artist: artist}, nil
}

// MustTrack is like [NewTrack] but panics on invalid input. Intended for tests and literals.
func MustTrack(name, artist string) Track {
	t, err := NewTrack(name, artist)
	if err != nil {
		panic(err)
	}
	return t
}

// WithURL returns a copy of t pointing at url.
func (t Track) WithURL(url string) Track {
	t.URL = url
	return t
}

// Key returns the identity of the track used for equality, dedup and history lookups.
func (t Track) Key() string {
	fold := cases.Fold()
	return fold.String(t.Name) + "\x1f" + fold.String(t.Artist)
}

// Equal reports whether t and o are the same song, ignoring case.
func (t Track) Equal(o Track) bool {
	return t.Key() == o.Key()
}

func (t Track) String() string {
	return fmt.Sprintf("%s - %s", t.Name, t.Artist)
}

// ReferenceTrack is a liked item on the reference platform.
//
// It only lives long enough to be normalized into a [Track].
type ReferenceTrack struct {
	ID        int64
	Title     string
	Uploader  string
	Permalink string
	Duration  int // milliseconds
	Genre     string
}

// ToTrack converts the liked item into a [Track] keyed by title and uploader, keeping the permalink.
func (r ReferenceTrack) ToTrack() (Track, error) {
	t, err := NewTrack(r.Title, r.Uploader)
	if err != nil {
		return Track{}, err
	}
	return t.WithURL(r.Permalink), nil
}
