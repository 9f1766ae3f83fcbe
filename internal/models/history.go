package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/sieve/internal/shared"
)

// HistoryEntry records that a track was recommended on a given day.
type HistoryEntry struct {
	id        string
	sequence  int
	day       string
	track     Track
	createdAt time.Time
}

// NewHistoryEntry creates a [HistoryEntry] for track on day (formatted with [DayLayout]).
func NewHistoryEntry(sequence int, day string, track Track) *HistoryEntry {
	return &HistoryEntry{
		sequence:  sequence,
		day:       day,
		track:     track,
		createdAt: time.Now(),
	}
}

func (h *HistoryEntry) ID() string                { return h.id }
func (h *HistoryEntry) Sequence() int             { return h.sequence }
func (h *HistoryEntry) Day() string               { return h.day }
func (h *HistoryEntry) Track() Track              { return h.track }
func (h *HistoryEntry) CreatedAt() time.Time      { return h.createdAt }
func (h *HistoryEntry) SetID(id string)           { h.id = id }
func (h *HistoryEntry) SetSequence(seq int)       { h.sequence = seq }
func (h *HistoryEntry) SetCreatedAt(at time.Time) { h.createdAt = at }

// Validate checks that the entry has a parseable day and a complete track.
func (h *HistoryEntry) Validate() error {
	if h.id == "" {
		return fmt.Errorf("%w: history entry ID cannot be empty", shared.ErrInvalidInput)
	}
	if _, err := time.Parse(DayLayout, h.day); err != nil {
		return fmt.Errorf("%w: invalid history day %q", shared.ErrInvalidInput, h.day)
	}
	if strings.TrimSpace(h.track.Name) == "" || strings.TrimSpace(h.track.Artist) == "" {
		return fmt.Errorf("%w: history entry needs a name and an artist", shared.ErrInvalidTrack)
	}
	return nil
}

// FilterRun is a persisted [FilterResult].
type FilterRun struct {
	id        string
	sequence  int
	result    FilterResult
	createdAt time.Time
}

// NewFilterRun wraps result for storage.
func NewFilterRun(result FilterResult) *FilterRun {
	return &FilterRun{result: result, createdAt: time.Now()}
}

func (r *FilterRun) ID() string                { return r.id }
func (r *FilterRun) Sequence() int             { return r.sequence }
func (r *FilterRun) Result() FilterResult      { return r.result }
func (r *FilterRun) CreatedAt() time.Time      { return r.createdAt }
func (r *FilterRun) SetID(id string)           { r.id = id }
func (r *FilterRun) SetSequence(seq int)       { r.sequence = seq }
func (r *FilterRun) SetCreatedAt(at time.Time) { r.createdAt = at }

// Validate re-checks the count invariant of the wrapped result.
func (r *FilterRun) Validate() error {
	if r.id == "" {
		return fmt.Errorf("%w: filter run ID cannot be empty", shared.ErrInvalidInput)
	}
	_, err := FromReport(r.result.Full())
	return err
}

// Payload encodes the full report of the run as JSON.
func (r *FilterRun) Payload() ([]byte, error) {
	return json.Marshal(r.result.Full())
}

// DecodeFilterRun rebuilds a [FilterRun] from a stored JSON payload.
func DecodeFilterRun(id string, sequence int, payload []byte, createdAt time.Time) (*FilterRun, error) {
	var report FilterReport
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, fmt.Errorf("failed to decode filter run %s: %w", id, err)
	}

	result, err := FromReport(report)
	if err != nil {
		return nil, fmt.Errorf("stored filter run %s is invalid: %w", id, err)
	}

	return &FilterRun{id: id, sequence: sequence, result: result, createdAt: createdAt}, nil
}
