package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/sieve/internal/models"
	"github.com/desertthunder/sieve/internal/shared"
)

const historyColumns = "id, sequence, day, name, artist, url, position, created_at"

// DaySummary counts the tracks recommended on one day.
type DaySummary struct {
	Day    string
	Tracks int
}

// HistoryRepository implements models.Repository[*models.HistoryEntry] for recommendation history.
type HistoryRepository struct {
	db *sql.DB
}

// NewHistoryRepository creates a new HistoryRepository with the given database connection
func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Create inserts a single entry with generated ID and sequence
func (r *HistoryRepository) Create(entry *models.HistoryEntry) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := r.insert(tx, entry); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *HistoryRepository) insert(tx *sql.Tx, entry *models.HistoryEntry) error {
	sequence, err := nextSequence(tx, "history")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	entry.SetID(shared.GenerateID())
	entry.SetSequence(sequence)
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	track := entry.Track()
	query := `
		INSERT INTO history (id, sequence, day, name, artist, track_key, url, position, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = tx.Exec(query,
		entry.ID(),
		sequence,
		entry.Day(),
		track.Name,
		track.Artist,
		track.Key(),
		track.URL,
		track.Position,
		entry.CreatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert history entry: %w", err)
	}
	return nil
}

// Record replaces the entries of day with tracks in a single transaction.
func (r *HistoryRepository) Record(day string, tracks []models.Track) error {
	if _, err := time.Parse(models.DayLayout, day); err != nil {
		return fmt.Errorf("%w: invalid history day %q", shared.ErrInvalidInput, day)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM history WHERE day = ?", day); err != nil {
		return fmt.Errorf("failed to clear history for %s: %w", day, err)
	}

	for _, track := range tracks {
		if err := r.insert(tx, models.NewHistoryEntry(0, day, track)); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit history: %w", err)
	}
	return nil
}

// Get retrieves an entry by ID
func (r *HistoryRepository) Get(id string) (*models.HistoryEntry, error) {
	query := "SELECT " + historyColumns + " FROM history WHERE id = ?"

	entry, err := scanHistory(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: history entry %s", ErrNotFound, id)
	}
	return entry, err
}

// Delete removes an entry by ID
func (r *HistoryRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM history WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete history entry: %w", err)
	}
	return checkAffected(result, "history entry", id)
}

// List retrieves the most recent entries, newest first. A limit <= 0 returns every entry.
func (r *HistoryRepository) List(limit int) ([]*models.HistoryEntry, error) {
	query := "SELECT " + historyColumns + " FROM history ORDER BY sequence DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return r.query(query, args...)
}

// ByDay retrieves the entries of day in playlist order.
func (r *HistoryRepository) ByDay(day string) ([]*models.HistoryEntry, error) {
	query := "SELECT " + historyColumns + " FROM history WHERE day = ? ORDER BY position ASC, sequence ASC"
	return r.query(query, day)
}

// ListDays returns every recorded day with its track count, most recent day first.
func (r *HistoryRepository) ListDays() ([]DaySummary, error) {
	rows, err := r.db.Query("SELECT day, COUNT(*) FROM history GROUP BY day ORDER BY day DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query history days: %w", err)
	}
	defer rows.Close()

	var days []DaySummary
	for rows.Next() {
		var d DaySummary
		if err := rows.Scan(&d.Day, &d.Tracks); err != nil {
			return nil, fmt.Errorf("failed to scan history day: %w", err)
		}
		days = append(days, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return days, nil
}

// SeenKeys returns the [models.Track.Key] of every recorded track.
func (r *HistoryRepository) SeenKeys() (map[string]struct{}, error) {
	rows, err := r.db.Query("SELECT DISTINCT track_key FROM history")
	if err != nil {
		return nil, fmt.Errorf("failed to query history keys: %w", err)
	}
	defer rows.Close()

	keys := make(map[string]struct{})
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("failed to scan history key: %w", err)
		}
		keys[k] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return keys, nil
}

// Clear removes every entry and returns how many were deleted.
func (r *HistoryRepository) Clear() (int64, error) {
	result, err := r.db.Exec("DELETE FROM history")
	if err != nil {
		return 0, fmt.Errorf("failed to clear history: %w", err)
	}
	return result.RowsAffected()
}

func (r *HistoryRepository) query(query string, args ...any) ([]*models.HistoryEntry, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []*models.HistoryEntry
	for rows.Next() {
		entry, err := scanHistory(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return entries, nil
}

// scanHistory scans a row into a [models.HistoryEntry]. [sql.ErrNoRows] is returned unwrapped.
func scanHistory(row rowScanner) (*models.HistoryEntry, error) {
	var (
		id        string
		sequence  int
		day       string
		track     models.Track
		url       sql.NullString
		position  sql.NullInt64
		createdAt time.Time
	)

	err := row.Scan(&id, &sequence, &day, &track.Name, &track.Artist, &url, &position, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan history entry: %w", err)
	}

	track.URL = url.String
	track.Position = int(position.Int64)

	entry := models.NewHistoryEntry(sequence, day, track)
	entry.SetID(id)
	entry.SetCreatedAt(createdAt)
	return entry, nil
}
