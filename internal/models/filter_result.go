package models

import (
	"fmt"
	"math"
	"slices"

	"github.com/desertthunder/sieve/internal/shared"
)

// PlatformMatches counts removed tracks per reference platform.
//
// Platforms are combined independently; a track removed by one platform is not counted again by another.
type PlatformMatches struct {
	SoundCloud int
	Spotify    int
}

// Total returns the sum of all platform counters.
func (m PlatformMatches) Total() int {
	return m.SoundCloud + m.Spotify
}

// FilterResult is the immutable outcome of one filtering session.
//
// The zero value is a valid empty result. Use [NewFilterResult] or [PassThrough] to build one.
type FilterResult struct {
	originalCount int
	filtered      []Track
	removed       []Track
	matches       PlatformMatches
	errors        []string
}

// NewFilterResult validates and builds a [FilterResult].
//
// originalCount must equal len(filtered)+len(removed) and no counter may be negative.
// Error messages are deduplicated, keeping first-seen order; blank messages are dropped.
func NewFilterResult(originalCount int, filtered, removed []Track, matches PlatformMatches, errs []string) (FilterResult, error) {
	if originalCount < 0 {
		return FilterResult{}, fmt.Errorf("%w: original count cannot be negative", shared.ErrInvalidResult)
	}
	if matches.SoundCloud < 0 {
		return FilterResult{}, fmt.Errorf("%w: SoundCloud matches cannot be negative", shared.ErrInvalidResult)
	}
	if matches.Spotify < 0 {
		return FilterResult{}, fmt.Errorf("%w: Spotify matches cannot be negative", shared.ErrInvalidResult)
	}
	if want := originalCount - len(removed); len(filtered) != want {
		return FilterResult{}, fmt.Errorf(
			"%w: inconsistent track counts: expected %d filtered tracks, got %d",
			shared.ErrInvalidResult, want, len(filtered),
		)
	}

	return FilterResult{
		originalCount: originalCount,
		filtered:      slices.Clone(filtered),
		removed:       slices.Clone(removed),
		matches:       matches,
		errors:        dedupeErrors(nil, errs...),
	}, nil
}

// PassThrough returns a result in which every track survives and nothing matched.
func PassThrough(tracks []Track, errs ...string) FilterResult {
	return FilterResult{
		originalCount: len(tracks),
		filtered:      slices.Clone(tracks),
		errors:        dedupeErrors(nil, errs...),
	}
}

func dedupeErrors(dst []string, errs ...string) []string {
	for _, e := range errs {
		if e == "" || slices.Contains(dst, e) {
			continue
		}
		dst = append(dst, e)
	}
	return dst
}

// WithError returns a copy of r with msg appended to its errors, unless blank or already present.
func (r FilterResult) WithError(msg string) FilterResult {
	r.errors = dedupeErrors(slices.Clone(r.errors), msg)
	return r
}

func (r FilterResult) OriginalCount() int         { return r.originalCount }
func (r FilterResult) FilteredTracks() []Track    { return slices.Clone(r.filtered) }
func (r FilterResult) RemovedTracks() []Track     { return slices.Clone(r.removed) }
func (r FilterResult) Matches() PlatformMatches   { return r.matches }
func (r FilterResult) SoundCloudMatches() int     { return r.matches.SoundCloud }
func (r FilterResult) SpotifyMatches() int        { return r.matches.Spotify }
func (r FilterResult) TotalMatches() int          { return r.matches.Total() }
func (r FilterResult) Errors() []string           { return slices.Clone(r.errors) }
func (r FilterResult) HasErrors() bool            { return len(r.errors) > 0 }
func (r FilterResult) IsSuccessful() bool         { return len(r.errors) == 0 }
func (r FilterResult) FilteringApplied() bool     { return len(r.removed) > 0 }
func (r FilterResult) NoTracks() bool             { return r.originalCount == 0 }
func (r FilterResult) FilteredCount() int         { return len(r.filtered) }
func (r FilterResult) RemovedCount() int          { return len(r.removed) }

// RemovalPercentage returns the share of original tracks that were removed, from 0 to 100.
func (r FilterResult) RemovalPercentage() float64 {
	if r.originalCount == 0 {
		return 0
	}
	return float64(len(r.removed)) / float64(r.originalCount) * 100
}

func (r FilterResult) String() string {
	return fmt.Sprintf(
		"FilterResult: %d/%d tracks (%d removed, %d SoundCloud + %d Spotify matches)",
		len(r.filtered), r.originalCount, len(r.removed), r.matches.SoundCloud, r.matches.Spotify,
	)
}

// FilterSummary is the display view of a [FilterResult]: counts and percentages, no track payloads.
type FilterSummary struct {
	OriginalCount     int     `json:"original_count"`
	FilteredCount     int     `json:"filtered_count"`
	RemovedCount      int     `json:"removed_count"`
	RemovalPercentage float64 `json:"removal_percentage"`
	SoundCloudMatches int     `json:"soundcloud_matches"`
	SpotifyMatches    int     `json:"spotify_matches"`
	TotalMatches      int     `json:"total_matches"`
	HasErrors         bool    `json:"has_errors"`
	ErrorCount        int     `json:"error_count"`
}

// FilterReport is the persistence view of a [FilterResult], including track payloads.
type FilterReport struct {
	FilterSummary
	Errors         []string `json:"errors"`
	FilteredTracks []Track  `json:"filtered_tracks"`
	RemovedTracks  []Track  `json:"removed_tracks"`
}

// Summary returns the statistics view; the removal percentage is rounded to one decimal.
func (r FilterResult) Summary() FilterSummary {
	return FilterSummary{
		OriginalCount:     r.originalCount,
		FilteredCount:     len(r.filtered),
		RemovedCount:      len(r.removed),
		RemovalPercentage: math.Round(r.RemovalPercentage()*10) / 10,
		SoundCloudMatches: r.matches.SoundCloud,
		SpotifyMatches:    r.matches.Spotify,
		TotalMatches:      r.matches.Total(),
		HasErrors:         len(r.errors) > 0,
		ErrorCount:        len(r.errors),
	}
}

// Full returns the persistence view with every track and error.
func (r FilterResult) Full() FilterReport {
	report := FilterReport{
		FilterSummary:  r.Summary(),
		Errors:         r.Errors(),
		FilteredTracks: r.FilteredTracks(),
		RemovedTracks:  r.RemovedTracks(),
	}
	if report.Errors == nil {
		report.Errors = []string{}
	}
	if report.FilteredTracks == nil {
		report.FilteredTracks = []Track{}
	}
	if report.RemovedTracks == nil {
		report.RemovedTracks = []Track{}
	}
	return report
}

// FromReport rebuilds a [FilterResult] from its persisted view, re-checking every invariant.
func FromReport(report FilterReport) (FilterResult, error) {
	return NewFilterResult(
		report.OriginalCount,
		report.FilteredTracks,
		report.RemovedTracks,
		PlatformMatches{SoundCloud: report.SoundCloudMatches, Spotify: report.SpotifyMatches},
		report.Errors,
	)
}
