package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWhereClauseEmpty(t *testing.T) {
	where, args := ListenFilter{}.whereClause()
	assert.Empty(t, where)
	assert.Empty(t, args)
}

func TestWhereClauseSearch(t *testing.T) {
	where, args := ListenFilter{Search: "nina"}.whereClause()
	assert.Equal(t, " WHERE (l.title ILIKE $1 OR l.artist_name ILIKE $1 OR l.album_name ILIKE $1)", where)
	require.Len(t, args, 1, "one placeholder shared across the three columns")
	assert.Equal(t, "%nina%", args[0])
}

func TestWhereClauseCombined(t *testing.T) {
	loved := true
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	f := ListenFilter{
		Search: "good",
		Artist: "Nina Simone",
		Album:  "Pastel Blues",
		Source: "lastfm",
		Loved:  &loved,
		Start:  &start,
		End:    &end,
	}
	where, args := f.whereClause()

	assert.Contains(t, where, "l.title ILIKE $1")
	assert.Contains(t, where, "lower(l.artist_name) = lower($2)")
	assert.Contains(t, where, "lower(l.album_name) = lower($3)")
	assert.Contains(t, where, "l.source = $4")
	assert.Contains(t, where, "l.loved = $5")
	assert.Contains(t, where, "l.played_at >= $6")
	assert.Contains(t, where, "l.played_at < $7")

	require.Len(t, args, 7)
	assert.Equal(t, "%good%", args[0])
	assert.Equal(t, "Nina Simone", args[1])
	assert.Equal(t, true, args[4])
	assert.Equal(t, start, args[5])
	assert.Equal(t, end, args[6])
}

func TestWhereClauseDateBounds(t *testing.T) {
	start := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	where, args := ListenFilter{Start: &start}.whereClause()
	assert.Equal(t, " WHERE l.played_at >= $1", where, "start bound is inclusive")
	require.Len(t, args, 1)

	end := start.AddDate(0, 0, 1)
	where, _ = ListenFilter{End: &end}.whereClause()
	assert.Equal(t, " WHERE l.played_at < $1", where, "end bound is exclusive")
}
