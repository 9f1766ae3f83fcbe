// Package models defines domain entities and persistence interfaces for the sieve recommendation pipeline.
//
// The package contains two categories of types:
//
// 1. Values: immutable structs passed between pipeline stages
//   - [Track] : Title/artist pair with case-insensitive identity
//   - [ReferenceTrack] : A liked item from the reference platform, converted to a [Track] right away
//   - [FilterResult] : Outcome of one filtering session with derived statistics
//   - [Playlist] : The daily recommendation artifact with metadata
//
// 2. Persistent Entities: Database-backed records
//   - [HistoryEntry] : A track recommended on a given day
//   - [FilterRun] : A stored [FilterResult] for later inspection
//
// Persistent entities implement the [Model] interface; [Repository] defines the data access contract.
package models
