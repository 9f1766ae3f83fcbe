// Package tasks runs the recommendation pipeline with real-time progress reporting.
//
// # Reference set
//
// [ReferenceFetcher] pages through the user's SoundCloud likes:
//
//  1. Validates the token with a profile request; only authentication failures and timeouts abort
//  2. Requests pages of min(page size, limit) likes until the limit, the last page or the page cap
//  3. Retries a 429 once after a fixed wait and transient failures with doubling backoff
//  4. Keeps the likes gathered so far when a later page exhausts its retries
//
// Likes that are not usable tracks are skipped. The first successful result is cached for the
// lifetime of the fetcher.
//
// # Filtering
//
// [FilterEngine.Run] removes candidates that match a liked track. It never fails: fetch errors,
// per-track errors and interruptions are recorded in the [models.FilterResult] and the affected
// candidates are kept. Matching runs on a pool of workers and preserves candidate order.
//
// # Daily playlists
//
// [DailyEngine.Generate] collects candidates per tag from a [services.CatalogService], drops tracks
// recorded in a [HistoryStore], shuffles, filters and records the selection.
//
// # Progress Reporting
//
// Long-running operations accept an optional channel of [ProgressUpdate]. Updates are sent with
// select and default so a slow reader never stalls the pipeline.
package tasks
