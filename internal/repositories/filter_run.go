package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/sieve/internal/models"
	"github.com/desertthunder/sieve/internal/shared"
)

// FilterRunRepository implements models.Repository[*models.FilterRun].
//
// Summary counts are stored in columns for listing; the full result is kept as a JSON payload.
type FilterRunRepository struct {
	db *sql.DB
}

// NewFilterRunRepository creates a new FilterRunRepository with the given database connection
func NewFilterRunRepository(db *sql.DB) *FilterRunRepository {
	return &FilterRunRepository{db: db}
}

// Create inserts a run with generated ID and sequence
func (r *FilterRunRepository) Create(run *models.FilterRun) error {
	sequence, err := NextSequence(r.db, "filter_runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	run.SetID(shared.GenerateID())
	run.SetSequence(sequence)

	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	payload, err := run.Payload()
	if err != nil {
		return fmt.Errorf("failed to encode filter run: %w", err)
	}

	result := run.Result()
	query := `
		INSERT INTO filter_runs (id, sequence, original_count, filtered_count, removed_count,
			soundcloud_matches, spotify_matches, error_count, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.Exec(query,
		run.ID(),
		sequence,
		result.OriginalCount(),
		result.FilteredCount(),
		result.RemovedCount(),
		result.SoundCloudMatches(),
		result.SpotifyMatches(),
		len(result.Errors()),
		string(payload),
		run.CreatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert filter run: %w", err)
	}

	return nil
}

// Get retrieves a run by ID
func (r *FilterRunRepository) Get(id string) (*models.FilterRun, error) {
	row := r.db.QueryRow("SELECT id, sequence, payload, created_at FROM filter_runs WHERE id = ?", id)

	run, err := scanFilterRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: filter run %s", ErrNotFound, id)
	}
	return run, err
}

// Delete removes a run by ID
func (r *FilterRunRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM filter_runs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete filter run: %w", err)
	}
	return checkAffected(result, "filter run", id)
}

// List retrieves the most recent runs, newest first. A limit <= 0 returns every run.
func (r *FilterRunRepository) List(limit int) ([]*models.FilterRun, error) {
	query := "SELECT id, sequence, payload, created_at FROM filter_runs ORDER BY sequence DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query filter runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.FilterRun
	for rows.Next() {
		run, err := scanFilterRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return runs, nil
}

func scanFilterRun(row rowScanner) (*models.FilterRun, error) {
	var (
		id        string
		sequence  int
		payload   string
		createdAt time.Time
	)

	err := row.Scan(&id, &sequence, &payload, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan filter run: %w", err)
	}

	return models.DecodeFilterRun(id, sequence, []byte(payload), createdAt)
}
