// Package export renders an ordered track list into interchange and
// human-readable formats. Every format is a pure projection of the same
// entries: none may reorder, filter or drop fields the others keep.
package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnsupportedFormat is returned for formats outside the supported set.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Format identifies an output format.
type Format string

// Supported formats.
const (
	FormatM3U      Format = "m3u"
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatTXT      Format = "txt"
	FormatMarkdown Format = "markdown"
)

// ParseFormat validates a format string.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatM3U, FormatJSON, FormatCSV, FormatTXT, FormatMarkdown:
		return Format(strings.ToLower(s)), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// ContentType returns the MIME type for HTTP responses.
func (f Format) ContentType() string {
	switch f {
	case FormatM3U:
		return "audio/x-mpegurl"
	case FormatJSON:
		return "application/json"
	case FormatCSV:
		return "text/csv"
	case FormatMarkdown:
		return "text/markdown"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Entry is one exported track. DurationSeconds is zero when unknown;
// Location is an optional path or URI used by m3u.
type Entry struct {
	Position        int    `json:"position"`
	Title           string `json:"title"`
	Artist          string `json:"artist"`
	Album           string `json:"album,omitempty"`
	DurationSeconds int    `json:"duration_seconds"`
	Location        string `json:"location,omitempty"`
}

// Render serializes entries in the given format.
func Render(entries []Entry, f Format) ([]byte, error) {
	switch f {
	case FormatM3U:
		return renderM3U(entries), nil
	case FormatJSON:
		return renderJSON(entries)
	case FormatCSV:
		return renderCSV(entries)
	case FormatTXT:
		return renderTXT(entries), nil
	case FormatMarkdown:
		return renderMarkdown(entries), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
}

func renderM3U(entries []Entry) []byte {
	var sb strings.Builder
	sb.WriteString("#EXTM3U\n")
	for _, e := range entries {
		duration := e.DurationSeconds
		if duration == 0 {
			duration = -1 // m3u convention for unknown length
		}
		sb.WriteString(fmt.Sprintf("#EXTINF:%d,%s - %s\n", duration, e.Artist, e.Title))
		location := e.Location
		if location == "" {
			location = fmt.Sprintf("%s - %s", e.Artist, e.Title)
		}
		sb.WriteString(location)
		sb.WriteString("\n")
	}
	return []byte(sb.String())
}

func renderJSON(entries []Entry) ([]byte, error) {
	if entries == nil {
		entries = []Entry{}
	}
	out, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling entries: %w", err)
	}
	return append(out, '\n'), nil
}

func renderCSV(entries []Entry) ([]byte, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	if err := w.Write([]string{"position", "title", "artist", "album", "duration_seconds"}); err != nil {
		return nil, fmt.Errorf("writing csv header: %w", err)
	}
	for _, e := range entries {
		record := []string{
			strconv.Itoa(e.Position),
			e.Title,
			e.Artist,
			e.Album,
			strconv.Itoa(e.DurationSeconds),
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("writing csv record: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flushing csv: %w", err)
	}
	return []byte(sb.String()), nil
}

func renderTXT(entries []Entry) []byte {
	var sb strings.Builder
	for _, e := range entries {
		sb.WriteString(fmt.Sprintf("%d. %s - %s", e.Position, e.Artist, e.Title))
		if e.Album != "" {
			sb.WriteString(fmt.Sprintf(" (%s)", e.Album))
		}
		if e.DurationSeconds > 0 {
			sb.WriteString(" [" + formatDuration(e.DurationSeconds) + "]")
		}
		sb.WriteString("\n")
	}
	return []byte(sb.String())
}

func renderMarkdown(entries []Entry) []byte {
	var sb strings.Builder
	sb.WriteString("| # | Title | Artist | Album | Duration |\n")
	sb.WriteString("|---|-------|--------|-------|----------|\n")
	for _, e := range entries {
		duration := ""
		if e.DurationSeconds > 0 {
			duration = formatDuration(e.DurationSeconds)
		}
		sb.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s |\n",
			e.Position, escapePipes(e.Title), escapePipes(e.Artist), escapePipes(e.Album), duration))
	}
	return []byte(sb.String())
}

// formatDuration renders seconds as m:ss.
func formatDuration(secs int) string {
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

func escapePipes(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
