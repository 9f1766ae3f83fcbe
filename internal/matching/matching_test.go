package matching

import (
	"errors"
	"math"
	"testing"

	"github.com/desertthunder/sieve/internal/models"
	"github.com/desertthunder/sieve/internal/shared"
)

func TestCleanTitle(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Song Name", "Song Name"},
		{"Song Name (Remastered)", "Song Name"},
		{"Song Name [Official Video]", "Song Name"},
		{"Song Name - Remastered 2021", "Song Name"},
		{"Song Name - 2021 Mix", "Song Name"},
		{"Song Name (feat. Artist)", "Song Name"},
		{"Song Name feat Artist", "Song Name"},
		{"Song Name featuring Artist", "Song Name"},
		{"Song Name ft. Artist", "Song Name"},
		{"Song Name with Artist", "Song Name"},
		{"Song Name (Remastered) [feat. Artist] - 2021", "Song Name"},
		{"Song Name (Remastered 2021) [feat. Other Artist]", "Song Name"},
		{"  Song   Name  ", "Song Name"},
		{"Without Me", "Without Me"},
		{"Left Alone", "Left Alone"},
		{"Lift Me Up", "Lift Me Up"},
		{"Defeat Me", "Defeat Me"},
		{"Soft Rain", "Soft Rain"},
		{"Swift Feather", "Swift Feather"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := CleanTitle(tt.input); got != tt.expected {
				t.Errorf("CleanTitle(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestCleanArtist(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Artist Name", "Artist Name"},
		{"Artist Name (Official)", "Artist Name"},
		{"Artist Name [Records]", "Artist Name"},
		{"Artist Name (Official) [Records]", "Artist Name"},
		{"Artist feat. Other", "Artist feat. Other"},
		{"Artist - 2021", "Artist - 2021"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := CleanArtist(tt.input); got != tt.expected {
				t.Errorf("CleanArtist(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	t.Run("Cleans both fields", func(t *testing.T) {
		track, err := Normalize("Test Song (Remastered 2021) [feat. Another Artist]", "Test Artist (Official)")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if track.Name != "Test Song" || track.Artist != "Test Artist" {
			t.Errorf("unexpected normalized track %q by %q", track.Name, track.Artist)
		}
	})

	t.Run("Empty after cleaning", func(t *testing.T) {
		_, err := Normalize("(Intro)", "Artist")
		if !errors.Is(err, shared.ErrInvalidTrack) {
			t.Errorf("expected ErrInvalidTrack, got %v", err)
		}
	})

	t.Run("Keeps URL", func(t *testing.T) {
		in := models.MustTrack("Song (Live)", "Artist").WithURL("https://example.com/song")
		out, err := NormalizeTrack(in)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.URL != in.URL {
			t.Errorf("expected URL %q, got %q", in.URL, out.URL)
		}
	})

	t.Run("Idempotent", func(t *testing.T) {
		inputs := []string{
			"Song Name (Remastered 2021) [feat. Other Artist]",
			"A - feat. B) 2000",
			"X (feat. Y - 2000",
			"Track ft. Someone - Remastered",
			"Title [Live] (Edit) - 1999 Version",
			"with with with",
			"((nested)) [[x]]",
			"\tTabs\tand\nnewlines ",
			"Café del Mar (Energy 52 Remix)",
			"",
		}

		for _, in := range inputs {
			once := CleanTitle(in)
			if twice := CleanTitle(once); twice != once {
				t.Errorf("CleanTitle not idempotent for %q: %q then %q", in, once, twice)
			}

			once = CleanArtist(in)
			if twice := CleanArtist(once); twice != once {
				t.Errorf("CleanArtist not idempotent for %q: %q then %q", in, once, twice)
			}
		}
	})
}

func TestRatio(t *testing.T) {
	tests := []struct {
		a, b     string
		expected float64
	}{
		{"", "", 1.0},
		{"abc", "", 0.0},
		{"abc", "abc", 1.0},
		{"abcd", "bcde", 0.75},
		{"test song", "test song remix", 0.75},
		{"abc", "xyz", 0.0},
		{"ééé", "éé", 0.8},
	}

	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			got := Ratio(tt.a, tt.b)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("Ratio(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.expected)
			}
			if rev := Ratio(tt.b, tt.a); rev != got {
				t.Errorf("Ratio not symmetric: %v vs %v", got, rev)
			}
		})
	}
}

func TestSimilarity(t *testing.T) {
	base := models.MustTrack("Test Song", "Test Artist")

	t.Run("Self similarity", func(t *testing.T) {
		tracks := []models.Track{
			base,
			models.MustTrack("a", "b"),
			models.MustTrack("Björk", "Jóga"),
			models.MustTrack("Long Title With Many Words", "X"),
		}
		for _, track := range tracks {
			if s := Similarity(track, track); s < 0.9 {
				t.Errorf("Similarity(%v, itself) = %v, want >= 0.9", track, s)
			}
		}
	})

	t.Run("Partial match", func(t *testing.T) {
		s := Similarity(base, models.MustTrack("Test Song Remix", "Test Artist"))
		if s <= 0.7 || s >= 1.0 {
			t.Errorf("expected a medium score, got %v", s)
		}
	})

	t.Run("No match", func(t *testing.T) {
		s := Similarity(base, models.MustTrack("Completely Different", "Different Artist"))
		if s >= 0.5 {
			t.Errorf("expected a low score, got %v", s)
		}
	})

	t.Run("Case insensitive", func(t *testing.T) {
		s := Similarity(base, models.MustTrack("TEST SONG", "test artist"))
		if s != 1.0 {
			t.Errorf("expected 1.0, got %v", s)
		}
	})

	t.Run("Symmetric", func(t *testing.T) {
		pairs := [][2]models.Track{
			{base, models.MustTrack("Test Song Remix", "Test Artist")},
			{models.MustTrack("Bohemian Rhapsody", "Queen"), models.MustTrack("Bohemian Rapsody", "Queen")},
			{models.MustTrack("abab", "xy"), models.MustTrack("baba", "yx")},
			{models.MustTrack("Yesterday", "The Beatles"), models.MustTrack("Tomorrow", "Beatles")},
		}
		for _, p := range pairs {
			if ab, ba := Similarity(p[0], p[1]), Similarity(p[1], p[0]); ab != ba {
				t.Errorf("Similarity(%v, %v) = %v but reversed = %v", p[0], p[1], ab, ba)
			}
		}
	})

	t.Run("Bounded", func(t *testing.T) {
		s := Similarity(models.MustTrack("Song", "Artist"), models.MustTrack("Song", "Artist"))
		if s > 1.0 {
			t.Errorf("expected score clamped to 1.0, got %v", s)
		}
	})
}

func TestMatcher(t *testing.T) {
	m := Matcher{}

	t.Run("Empty reference set", func(t *testing.T) {
		ok, err := m.Matches(models.MustTrack("Song", "Artist"), nil)
		if err != nil || ok {
			t.Errorf("expected no match and no error, got %v, %v", ok, err)
		}
	})

	t.Run("Exact match short circuit", func(t *testing.T) {
		refs := []models.Track{
			models.MustTrack("Different Song", "Different Artist"),
			models.MustTrack("SONG", "artist"),
		}
		ok, err := m.Matches(models.MustTrack("Song", "Artist"), refs)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !ok {
			t.Error("expected exact case-insensitive match")
		}
	})

	t.Run("Fuzzy match after normalization", func(t *testing.T) {
		refs := []models.Track{models.MustTrack("Test Song (Remastered)", "Test Artist")}
		ok, err := m.Matches(models.MustTrack("Test Song", "Test Artist"), refs)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !ok {
			t.Error("expected fuzzy match")
		}
	})

	t.Run("No match", func(t *testing.T) {
		refs := []models.Track{
			models.MustTrack("Completely Different", "Different Artist"),
			models.MustTrack("Another Song", "Another Artist"),
		}
		ok, err := m.Matches(models.MustTrack("Test Song", "Test Artist"), refs)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ok {
			t.Error("expected no match")
		}
	})

	t.Run("Words containing credit keywords", func(t *testing.T) {
		refs := []models.Track{
			models.MustTrack("Lift Off", "Rihanna"),
			models.MustTrack("Left Behind", "Rihanna"),
		}
		ok, err := m.Matches(models.MustTrack("Lift Me Up", "Rihanna"), refs)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ok {
			t.Error("expected different songs by the same artist not to match")
		}
	})

	t.Run("Candidate that normalizes to nothing", func(t *testing.T) {
		refs := []models.Track{models.MustTrack("Song", "Artist")}
		_, err := m.Matches(models.Track{Name: "[Intro]", Artist: "Artist"}, refs)
		if !errors.Is(err, shared.ErrInvalidTrack) {
			t.Errorf("expected ErrInvalidTrack, got %v", err)
		}
	})

	t.Run("Threshold boundary", func(t *testing.T) {
		// identical titles: 0.7 + 0.1 bonus; artists share one rune and no substring
		candidate := models.MustTrack("Song", "abcde")
		atThreshold := models.MustTrack("Song", "avwxyzq") // artist ratio 2/12, score 0.85
		below := models.MustTrack("Song", "avwxyzqr")      // artist ratio 2/13, score ~0.846

		if s := Similarity(candidate, atThreshold); math.Abs(s-0.85) > 1e-9 {
			t.Fatalf("expected score 0.85, got %v", s)
		}

		ok, err := m.Matches(candidate, []models.Track{atThreshold})
		if err != nil || !ok {
			t.Errorf("expected a match at exactly 0.85, got %v, %v", ok, err)
		}

		ok, err = m.Matches(candidate, []models.Track{below})
		if err != nil || ok {
			t.Errorf("expected no match below 0.85, got %v, %v", ok, err)
		}
	})

	t.Run("Configured threshold", func(t *testing.T) {
		candidate := models.MustTrack("Song", "abcde")
		ref := models.MustTrack("Song", "avwxyzqr")

		ok, _ := NewMatcher(0.8).Matches(candidate, []models.Track{ref})
		if !ok {
			t.Error("expected a match with a lower threshold")
		}

		if NewMatcher(1.5).Threshold != DefaultThreshold {
			t.Error("expected out-of-range threshold to fall back to the default")
		}
	})

	t.Run("Best", func(t *testing.T) {
		refs := []models.Track{
			models.MustTrack("Another Song", "Another Artist"),
			models.MustTrack("Test Song Remix", "Test Artist"),
			models.MustTrack("Zzz", "Qqq"),
		}

		best, ok, err := m.Best(models.MustTrack("Test Song", "Test Artist"), refs, DefaultSearchThreshold)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !ok {
			t.Fatal("expected a closest track")
		}
		if best.Track.Name != "Test Song Remix" {
			t.Errorf("expected Test Song Remix, got %v", best.Track)
		}

		_, ok, _ = m.Best(models.MustTrack("Test Song", "Test Artist"), refs[2:], 0.9)
		if ok {
			t.Error("expected nothing above 0.9")
		}
	})
}

func TestExplain(t *testing.T) {
	a := models.MustTrack("Song Name", "The Band")
	b := models.MustTrack("song name extended", "band")

	bd := Explain(a, b)
	if !bd.TitleContained || !bd.ArtistContained {
		t.Errorf("expected both sides contained, got %+v", bd)
	}
	if bd.Score != Similarity(a, b) {
		t.Errorf("expected score %v to equal Similarity %v", bd.Score, Similarity(a, b))
	}
	if bd.TitleRatio <= 0 || bd.TitleRatio >= 1 {
		t.Errorf("unexpected title ratio %v", bd.TitleRatio)
	}
}
