package matching

import (
	"fmt"

	"github.com/desertthunder/sieve/internal/models"
	"golang.org/x/text/cases"
)

// DefaultThreshold is the minimum [Similarity] for two tracks to count as the same song.
//
// Tuned by hand against real catalog data; not derived from anything.
const DefaultThreshold = 0.85

// DefaultSearchThreshold is the minimum score for [Matcher.Best] to report a closest candidate.
const DefaultSearchThreshold = 0.3

// scoreTolerance absorbs float rounding so a pair that scores exactly the threshold on paper still matches.
const scoreTolerance = 1e-9

// Matcher decides whether a candidate is already present in a reference set.
//
// The zero value uses [DefaultThreshold].
type Matcher struct {
	Threshold float64
}

// NewMatcher returns a [Matcher] with the given threshold; values outside (0, 1] fall back to [DefaultThreshold].
func NewMatcher(threshold float64) Matcher {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	return Matcher{Threshold: threshold}
}

func (m Matcher) threshold() float64 {
	if m.Threshold <= 0 {
		return DefaultThreshold
	}
	return m.Threshold
}

// Accepts reports whether score clears the matcher's threshold.
func (m Matcher) Accepts(score float64) bool {
	return score+scoreTolerance >= m.threshold()
}

// Matches reports whether candidate names the same song as any track in refs.
//
// Both sides are normalized. A case-insensitive exact match on name and artist short-circuits; otherwise the
// first reference whose [Similarity] clears the threshold matches. References that normalize to nothing are
// skipped. An error is returned only when the candidate itself cannot be normalized.
func (m Matcher) Matches(candidate models.Track, refs []models.Track) (bool, error) {
	if len(refs) == 0 {
		return false, nil
	}

	c, err := NormalizeTrack(candidate)
	if err != nil {
		return false, fmt.Errorf("cannot match %q by %q: %w", candidate.Name, candidate.Artist, err)
	}

	for _, ref := range refs {
		r, err := NormalizeTrack(ref)
		if err != nil {
			continue
		}
		if exactMatch(c, r) || m.Accepts(Similarity(c, r)) {
			return true, nil
		}
	}

	return false, nil
}

func exactMatch(a, b models.Track) bool {
	fold := cases.Fold()
	return fold.String(a.Name) == fold.String(b.Name) && fold.String(a.Artist) == fold.String(b.Artist)
}

// Scored is a reference track with its similarity to a candidate.
type Scored struct {
	Track models.Track
	Score float64
}

// Best returns the reference most similar to candidate whose score is at least minScore.
//
// Exact matches score 1. The boolean is false when no reference reaches minScore.
func (m Matcher) Best(candidate models.Track, refs []models.Track, minScore float64) (Scored, bool, error) {
	c, err := NormalizeTrack(candidate)
	if err != nil {
		return Scored{}, false, fmt.Errorf("cannot match %q by %q: %w", candidate.Name, candidate.Artist, err)
	}

	var best Scored
	found := false
	for _, ref := range refs {
		r, err := NormalizeTrack(ref)
		if err != nil {
			continue
		}

		score := 1.0
		if !exactMatch(c, r) {
			score = Similarity(c, r)
		}
		if score+scoreTolerance < minScore {
			continue
		}
		if !found || score > best.Score {
			best, found = Scored{Track: ref, Score: score}, true
		}
	}

	return best, found, nil
}
