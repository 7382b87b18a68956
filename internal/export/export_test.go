package export

import (
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEntries() []Entry {
	return []Entry{
		{Position: 1, Title: "Feeling Good", Artist: "Nina Simone", Album: "I Put a Spell on You", DurationSeconds: 177},
		{Position: 2, Title: "Nude", Artist: "Radiohead", Album: "In Rainbows", DurationSeconds: 255},
		{Position: 3, Title: "Untitled", Artist: "Unknown", DurationSeconds: 0},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{input: "m3u", want: FormatM3U},
		{input: "JSON", want: FormatJSON},
		{input: "csv", want: FormatCSV},
		{input: "txt", want: FormatTXT},
		{input: "markdown", want: FormatMarkdown},
		{input: "xml", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderUnsupportedFormat(t *testing.T) {
	_, err := Render(sampleEntries(), Format("xml"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

// Every format must present the same tracks in the same order.
func TestFormatsAgreeOnOrder(t *testing.T) {
	entries := sampleEntries()
	formats := []Format{FormatM3U, FormatJSON, FormatCSV, FormatTXT, FormatMarkdown}

	for _, f := range formats {
		t.Run(string(f), func(t *testing.T) {
			out, err := Render(entries, f)
			require.NoError(t, err)

			body := string(out)
			first := strings.Index(body, "Feeling Good")
			second := strings.Index(body, "Nude")
			third := strings.Index(body, "Untitled")
			require.GreaterOrEqual(t, first, 0, "first track present")
			require.Greater(t, second, first, "order preserved")
			require.Greater(t, third, second, "order preserved")
		})
	}
}

func TestRenderM3U(t *testing.T) {
	out, err := Render(sampleEntries(), FormatM3U)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(out), "\n"), "\n")
	require.Equal(t, 7, len(lines))
	assert.Equal(t, "#EXTM3U", lines[0])
	assert.Equal(t, "#EXTINF:177,Nina Simone - Feeling Good", lines[1])
	assert.Equal(t, "Nina Simone - Feeling Good", lines[2])
	assert.Equal(t, "#EXTINF:-1,Unknown - Untitled", lines[5], "unknown duration renders as -1")
}

func TestRenderJSON(t *testing.T) {
	out, err := Render(sampleEntries(), FormatJSON)
	require.NoError(t, err)

	var decoded []Entry
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, sampleEntries(), decoded)
}

func TestRenderJSONEmpty(t *testing.T) {
	out, err := Render(nil, FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(out), "empty list renders as an array, not null")
}

func TestRenderCSV(t *testing.T) {
	out, err := Render(sampleEntries(), FormatCSV)
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(string(out))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, []string{"position", "title", "artist", "album", "duration_seconds"}, records[0])
	assert.Equal(t, []string{"1", "Feeling Good", "Nina Simone", "I Put a Spell on You", "177"}, records[1])
}

func TestRenderTXT(t *testing.T) {
	out, err := Render(sampleEntries(), FormatTXT)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(out), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "1. Nina Simone - Feeling Good (I Put a Spell on You) [2:57]", lines[0])
	assert.Equal(t, "3. Unknown - Untitled", lines[2], "no album or duration decorations when unknown")
}

func TestRenderMarkdown(t *testing.T) {
	entries := []Entry{
		{Position: 1, Title: "A|B", Artist: "Artist", Album: "Album", DurationSeconds: 61},
	}
	out, err := Render(entries, FormatMarkdown)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(out), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "| # | Title | Artist | Album | Duration |")
	assert.Equal(t, `| 1 | A\|B | Artist | Album | 1:01 |`, lines[2])
}

func TestContentTypes(t *testing.T) {
	assert.Equal(t, "audio/x-mpegurl", FormatM3U.ContentType())
	assert.Equal(t, "application/json", FormatJSON.ContentType())
	assert.Equal(t, "text/csv", FormatCSV.ContentType())
	assert.Equal(t, "text/markdown", FormatMarkdown.ContentType())
	assert.Equal(t, "text/plain; charset=utf-8", FormatTXT.ContentType())
}
