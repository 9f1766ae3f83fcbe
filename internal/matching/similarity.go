package matching

import (
	"strings"

	"github.com/desertthunder/sieve/internal/models"
	"golang.org/x/text/cases"
)

const (
	titleWeight  = 0.7
	artistWeight = 0.3
	titleBonus   = 0.1
	artistBonus  = 0.05
)

// Breakdown holds the parts of a [Similarity] score.
type Breakdown struct {
	TitleRatio      float64
	ArtistRatio     float64
	TitleContained  bool // One folded title contains the other
	ArtistContained bool
	Score           float64
}

// Similarity scores how alike two tracks are, from 0 to 1.
//
// The score is symmetric and ignores case. Tracks are compared as given; callers normalize first.
func Similarity(a, b models.Track) float64 {
	return Explain(a, b).Score
}

// Explain computes [Similarity] and keeps its parts.
func Explain(a, b models.Track) Breakdown {
	fold := cases.Fold()
	aName, bName := fold.String(a.Name), fold.String(b.Name)
	aArtist, bArtist := fold.String(a.Artist), fold.String(b.Artist)

	bd := Breakdown{
		TitleRatio:      Ratio(aName, bName),
		ArtistRatio:     Ratio(aArtist, bArtist),
		TitleContained:  contains(aName, bName),
		ArtistContained: contains(aArtist, bArtist),
	}

	score := titleWeight*bd.TitleRatio + artistWeight*bd.ArtistRatio
	if bd.TitleContained {
		score += titleBonus
	}
	if bd.ArtistContained {
		score += artistBonus
	}
	bd.Score = min(score, 1.0)

	return bd
}

func contains(a, b string) bool {
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// Ratio returns the Ratcliff/Obershelp similarity of a and b: twice the number of matching runes divided by
// the total number of runes. Two empty strings are identical (1.0).
//
// Matching runes are found by taking the longest common block (leftmost on ties) and recursing on both
// sides of it. The arguments are put in a fixed order first so that Ratio(a, b) == Ratio(b, a).
// Ratio is case-sensitive; [Similarity] folds case before calling it.
func Ratio(a, b string) float64 {
	if a > b {
		a, b = b, a
	}
	ra, rb := []rune(a), []rune(b)

	total := len(ra) + len(rb)
	if total == 0 {
		return 1.0
	}

	return 2.0 * float64(matchingRunes(ra, rb)) / float64(total)
}

type span struct{ alo, ahi, blo, bhi int }

// matchingRunes sums the sizes of the matching blocks of a and b.
func matchingRunes(a, b []rune) int {
	matched := 0
	queue := []span{{0, len(a), 0, len(b)}}

	for len(queue) > 0 {
		s := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		i, j, k := longestBlock(a, b, s)
		if k == 0 {
			continue
		}
		matched += k

		if s.alo < i && s.blo < j {
			queue = append(queue, span{s.alo, i, s.blo, j})
		}
		if i+k < s.ahi && j+k < s.bhi {
			queue = append(queue, span{i + k, s.ahi, j + k, s.bhi})
		}
	}

	return matched
}

// longestBlock finds the longest common run a[i:i+k] == b[j:j+k] inside s.
//
// Of equally long runs, the one starting earliest in a wins, then the one starting earliest in b.
func longestBlock(a, b []rune, s span) (besti, bestj, bestk int) {
	besti, bestj = s.alo, s.blo
	width := s.bhi - s.blo

	// prev[x+1] holds the length of the run ending at a[i-1], b[s.blo+x]
	prev := make([]int, width+1)
	cur := make([]int, width+1)

	for i := s.alo; i < s.ahi; i++ {
		for x := range width {
			j := s.blo + x
			if a[i] != b[j] {
				cur[x+1] = 0
				continue
			}
			k := prev[x] + 1
			cur[x+1] = k
			if k > bestk {
				besti, bestj, bestk = i-k+1, j-k+1, k
			}
		}
		prev, cur = cur, prev
	}

	return besti, bestj, bestk
}
