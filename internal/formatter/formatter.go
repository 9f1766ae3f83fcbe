// package formatter renders daily playlists as JSON, CSV, Markdown or plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/desertthunder/sieve/internal/models"
	"github.com/desertthunder/sieve/internal/shared"
)

// Format is an output format for [WritePlaylist].
type Format string

const (
	JSON     Format = "json"
	CSV      Format = "csv"
	Markdown Format = "md"
	Text     Format = "txt"
)

// fileStampLayout formats the generation time in output file names.
const fileStampLayout = "2006-01-02_150405"

// ParseFormat accepts a format name or common alias ("markdown", "text").
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return JSON, nil
	case "csv":
		return CSV, nil
	case "md", "markdown":
		return Markdown, nil
	case "txt", "text":
		return Text, nil
	default:
		return "", fmt.Errorf("%w: unknown output format %q", shared.ErrInvalidInput, s)
	}
}

// ToJSON encodes the playlist with its metadata, indented.
func ToJSON(playlist *models.Playlist) ([]byte, error) {
	data, err := json.MarshalIndent(playlist, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode playlist: %w", err)
	}
	return append(data, '\n'), nil
}

// ExportToCSV converts a playlist to CSV format with columns: Position, Name, Artist, URL
func ExportToCSV(playlist *models.Playlist) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"Position", "Name", "Artist", "URL"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range playlist.Tracks {
		record := []string{strconv.Itoa(track.Position), track.Name, track.Artist, track.URL}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a playlist to Markdown with a metadata header and linked tracks
func ExportToMarkdown(playlist *models.Playlist) ([]byte, error) {
	var buf bytes.Buffer
	meta := playlist.Metadata

	fmt.Fprintf(&buf, "# Daily Playlist %s\n\n", meta.Date)
	fmt.Fprintf(&buf, "**Tags**: %s\n", strings.Join(meta.TagsUsed, ", "))
	fmt.Fprintf(&buf, "**Tracks**: %d of %d requested (%d available)\n", meta.TracksFound, meta.TracksRequested, meta.TotalAvailableTracks)
	if s := meta.FilteringStats; s != nil {
		fmt.Fprintf(&buf, "**Filtered**: %d of %d removed (%.1f%%)\n", s.RemovedCount, s.OriginalCount, s.RemovalPercentage)
	}

	buf.WriteString("\n## Tracks\n\n")
	for _, track := range playlist.Tracks {
		if track.URL != "" {
			fmt.Fprintf(&buf, "%d. [%s - %s](%s)\n", track.Position, track.Artist, track.Name, track.URL)
		} else {
			fmt.Fprintf(&buf, "%d. %s - %s\n", track.Position, track.Artist, track.Name)
		}
	}

	return buf.Bytes(), nil
}

// ExportToText converts a playlist to plain text format
func ExportToText(playlist *models.Playlist) ([]byte, error) {
	var buf bytes.Buffer
	meta := playlist.Metadata

	fmt.Fprintf(&buf, "Daily Playlist: %s\n", meta.Date)
	fmt.Fprintf(&buf, "Tags: %s\n", strings.Join(meta.TagsUsed, ", "))
	fmt.Fprintf(&buf, "Tracks: %d\n\n", len(playlist.Tracks))

	for _, track := range playlist.Tracks {
		fmt.Fprintf(&buf, "%d. %s - %s\n", track.Position, track.Artist, track.Name)
	}

	return buf.Bytes(), nil
}

// Render encodes playlist in format.
func Render(playlist *models.Playlist, format Format) ([]byte, error) {
	switch format {
	case JSON:
		return ToJSON(playlist)
	case CSV:
		return ExportToCSV(playlist)
	case Markdown:
		return ExportToMarkdown(playlist)
	case Text:
		return ExportToText(playlist)
	default:
		return nil, fmt.Errorf("%w: unknown output format %q", shared.ErrInvalidInput, format)
	}
}

// FileName returns "playlist_<generated_at>.<format>".
func FileName(playlist *models.Playlist, format Format) string {
	return fmt.Sprintf("playlist_%s.%s", playlist.Metadata.GeneratedAt.Format(fileStampLayout), format)
}

// WritePlaylist renders playlist into dir (created if missing) and returns the written path.
func WritePlaylist(playlist *models.Playlist, dir string, format Format) (string, error) {
	data, err := Render(playlist, format)
	if err != nil {
		return "", err
	}

	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	path := filepath.Join(dir, FileName(playlist, format))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write playlist file: %w", err)
	}

	return path, nil
}
