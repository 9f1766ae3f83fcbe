// Package matching decides whether two catalog entries name the same song.
//
// # Normalization
//
// [Normalize] strips catalog noise (parenthesized and bracketed qualifiers, remaster and year suffixes,
// featured-artist credits) from titles, and parenthesized or bracketed qualifiers from artists.
// Normalization is idempotent.
//
// # Scoring
//
// [Similarity] weighs a Ratcliff/Obershelp ratio of the titles at 0.7 and of the artists at 0.3, adds small
// bonuses when one title or artist contains the other, and clamps the total to 1.0.
//
// # Matching
//
// [Matcher] normalizes both sides, short-circuits on case-insensitive equality and otherwise compares the
// score against its threshold ([DefaultThreshold] unless configured).
package matching
