package matching

import (
	"regexp"
	"strings"

	"github.com/desertthunder/sieve/internal/models"
)

var (
	parenthesized = regexp.MustCompile(`\s*\([^)]*\)\s*`)
	bracketed     = regexp.MustCompile(`\s*\[[^\]]*\]\s*`)
	remasterTail  = regexp.MustCompile(`(?i)\s*-\s*remaster.*$`)
	yearTail      = regexp.MustCompile(`\s*-\s*\d{4}.*$`)

	// longest keyword first so "featuring" is not left as "uring"; \b keeps "Left" and "Defeat" intact
	featured = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\s*\(?\s*\bfeaturing\s+[^)]*\)?`),
		regexp.MustCompile(`(?i)\s*\(?\s*\bfeat\.?\s+[^)]*\)?`),
		regexp.MustCompile(`(?i)\s*\(?\s*\bft\.?\s+[^)]*\)?`),
		regexp.MustCompile(`(?i)\s*\(?\s*\bwith\s+[^)]*\)?`),
	}
)

// Normalize cleans a raw title and artist and builds a [models.Track] from them.
//
// It fails with [shared.ErrInvalidTrack] when either field is empty after cleaning.
func Normalize(rawTitle, rawArtist string) (models.Track, error) {
	return models.NewTrack(CleanTitle(rawTitle), CleanArtist(rawArtist))
}

// NormalizeTrack is [Normalize] for an existing track; the URL is carried over.
func NormalizeTrack(t models.Track) (models.Track, error) {
	n, err := Normalize(t.Name, t.Artist)
	if err != nil {
		return models.Track{}, err
	}
	return n.WithURL(t.URL), nil
}

// CleanTitle removes qualifiers, remaster and year suffixes, and featured-artist credits from a title.
func CleanTitle(s string) string {
	return untilStable(s, cleanTitleOnce)
}

// CleanArtist removes parenthesized and bracketed qualifiers from an artist name.
func CleanArtist(s string) string {
	return untilStable(s, cleanArtistOnce)
}

// untilStable applies pass until the output stops changing.
//
// Removing a credit can expose a year or remaster suffix to the next pass. Passes only remove text.
func untilStable(s string, pass func(string) string) string {
	for {
		next := pass(s)
		if next == s {
			return next
		}
		s = next
	}
}

func cleanTitleOnce(s string) string {
	s = parenthesized.ReplaceAllString(s, " ")
	s = bracketed.ReplaceAllString(s, " ")
	s = remasterTail.ReplaceAllString(s, "")
	s = yearTail.ReplaceAllString(s, "")
	for _, re := range featured {
		s = re.ReplaceAllString(s, "")
	}
	return collapseSpace(s)
}

func cleanArtistOnce(s string) string {
	s = parenthesized.ReplaceAllString(s, " ")
	s = bracketed.ReplaceAllString(s, " ")
	return collapseSpace(s)
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
