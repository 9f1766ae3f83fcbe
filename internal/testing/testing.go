// package testing contains shared testing utilities
package testing

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/sieve/internal/models"
	"github.com/desertthunder/sieve/internal/shared"
)

// MockCatalog is a test double for [services.CatalogService] serving fixed tracks per tag.
type MockCatalog struct {
	mu     sync.Mutex
	Tracks map[string][]models.Track
	Errs   map[string]error
	Calls  []string
}

func (m *MockCatalog) TopTracksByTag(ctx context.Context, tag string, limit int) ([]models.Track, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, tag)
	m.mu.Unlock()

	if err := m.Errs[tag]; err != nil {
		return nil, err
	}
	tracks := m.Tracks[tag]
	if limit > 0 && len(tracks) > limit {
		tracks = tracks[:limit]
	}
	return tracks, nil
}

func (m *MockCatalog) Name() string { return "mock" }

// Tracks builds tracks "<prefix> 1" .. "<prefix> n" by "<prefix> Artist".
func Tracks(prefix string, n int) []models.Track {
	tracks := make([]models.Track, n)
	for i := range n {
		tracks[i] = models.MustTrack(fmt.Sprintf("%s %d", prefix, i+1), prefix+" Artist")
	}
	return tracks
}

// LikeItem builds a SoundCloud /me/likes collection item wrapping a track.
func LikeItem(id int, title, artist string) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(
		`{"kind":"like","track":{"kind":"track","id":%d,"title":%q,"user":{"username":%q},"permalink_url":"https://soundcloud.com/x/%d","duration":200000}}`,
		id, title, artist, id,
	))
}

// MustOpenDB opens an in-memory database with every migration applied and closes it when the test ends.
func MustOpenDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
