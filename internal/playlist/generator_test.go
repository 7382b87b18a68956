package playlist

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func profile(id string, plays int, hour, loved float64, lastPlayed time.Time) TrackProfile {
	return TrackProfile{
		TrackID:      id,
		Title:        "Track " + id,
		Artist:       "Artist " + id,
		PlayCount:    plays,
		LovedShare:   loved,
		MeanHour:     hour,
		LastPlayedAt: lastPlayed,
	}
}

func TestGroupListeningEmpty(t *testing.T) {
	groups, outliers := GroupListening(nil, DefaultGeneratorConfig(), time.Now())
	assert.Nil(t, groups)
	assert.Nil(t, outliers)
}

func TestGroupListeningFewerThanClusters(t *testing.T) {
	now := time.Now()
	profiles := []TrackProfile{
		profile("a", 5, 9, 0, now),
		profile("b", 3, 22, 1, now),
	}

	groups, outliers := GroupListening(profiles, DefaultGeneratorConfig(), now)
	assert.Empty(t, groups)
	assert.Len(t, outliers, 2, "too few tracks to cluster, all become outliers")
}

func TestGroupListeningSingleCluster(t *testing.T) {
	now := time.Date(2026, 1, 30, 12, 0, 0, 0, time.UTC)
	profiles := []TrackProfile{
		profile("a", 2, 9, 0, now.AddDate(0, 0, -1)),
		profile("b", 8, 10, 0, now.AddDate(0, 0, -2)),
		profile("c", 5, 9, 0, now.AddDate(0, 0, -1)),
	}

	cfg := GeneratorConfig{NumClusters: 1, MinClusterSize: 1}
	groups, outliers := GroupListening(profiles, cfg, now)
	require.Len(t, groups, 1)
	assert.Empty(t, outliers)

	g := groups[0]
	require.Len(t, g.Tracks, 3)
	assert.Equal(t, "b", g.Tracks[0].TrackID, "most played first")
	assert.Equal(t, "c", g.Tracks[1].TrackID)
	assert.Equal(t, "a", g.Tracks[2].TrackID)
	assert.NotEmpty(t, g.Name)
	assert.Len(t, g.Centroid, len(featureNames))
}

// Clustering is not deterministic across runs, so check the structural
// invariants rather than exact cluster membership.
func TestGroupListeningInvariants(t *testing.T) {
	now := time.Date(2026, 1, 30, 12, 0, 0, 0, time.UTC)
	var profiles []TrackProfile
	// Two well-separated listening habits: morning heavy rotation and
	// late-night occasional plays.
	for i := 0; i < 6; i++ {
		profiles = append(profiles, profile(fmt.Sprintf("m%d", i), 20+i, 8, 0.8, now.AddDate(0, 0, -i)))
		profiles = append(profiles, profile(fmt.Sprintf("n%d", i), 2, 23, 0, now.AddDate(0, 0, -60-i)))
	}

	cfg := GeneratorConfig{NumClusters: 2, MinClusterSize: 2}
	groups, outliers := GroupListening(profiles, cfg, now)

	total := len(outliers)
	seen := map[string]bool{}
	for _, g := range groups {
		total += len(g.Tracks)
		for i, tr := range g.Tracks {
			assert.False(t, seen[tr.TrackID], "track %s appears once", tr.TrackID)
			seen[tr.TrackID] = true
			if i > 0 {
				assert.GreaterOrEqual(t, g.Tracks[i-1].PlayCount, tr.PlayCount, "tracks ordered by play count")
			}
		}
	}
	for _, o := range outliers {
		assert.False(t, seen[o.TrackID])
		seen[o.TrackID] = true
	}
	assert.Equal(t, len(profiles), total, "every track lands in a group or the outliers")

	for i := 1; i < len(groups); i++ {
		assert.GreaterOrEqual(t, len(groups[i-1].Tracks), len(groups[i].Tracks), "biggest groups first")
	}
}

func TestGroupListeningSmallClustersBecomeOutliers(t *testing.T) {
	now := time.Date(2026, 1, 30, 12, 0, 0, 0, time.UTC)
	profiles := []TrackProfile{
		profile("a", 4, 9, 0, now),
		profile("b", 5, 9, 0, now),
		profile("c", 6, 10, 0, now),
	}

	// Single cluster of three, but the minimum size is above that.
	cfg := GeneratorConfig{NumClusters: 1, MinClusterSize: 5}
	groups, outliers := GroupListening(profiles, cfg, now)
	assert.Empty(t, groups)
	assert.Len(t, outliers, 3)
}

func TestExtractFeatures(t *testing.T) {
	now := time.Date(2026, 1, 30, 12, 0, 0, 0, time.UTC)

	p := profile("a", 10, 23, 1, now)
	coords := extractFeatures(&p, 10, now)
	require.Len(t, coords, 4)
	assert.InDelta(t, 1.0, coords[0], 1e-9, "max plays normalizes to 1")
	assert.InDelta(t, 1.0, coords[1], 1e-9, "hour 23 normalizes to 1")
	assert.InDelta(t, 1.0, coords[2], 1e-9)
	assert.InDelta(t, 1.0, coords[3], 1e-9, "played just now is fully recent")

	old := profile("b", 5, 0, 0, now.AddDate(0, 0, -30))
	coords = extractFeatures(&old, 10, now)
	assert.InDelta(t, 0.5, coords[0], 1e-9)
	assert.Zero(t, coords[1])
	assert.Zero(t, coords[2])
	assert.InDelta(t, 0.5, coords[3], 1e-9, "30 days old halves the recency")
}

func TestGenerateGroupName(t *testing.T) {
	tests := []struct {
		name     string
		centroid map[string]float64
		want     string
	}{
		{
			name:     "morning heavy rotation",
			centroid: map[string]float64{"hour": 9.0 / 23, "intensity": 0.9, "loved": 0.1},
			want:     "Morning Heavy Rotation",
		},
		{
			name:     "small hours occasional",
			centroid: map[string]float64{"hour": 3.0 / 23, "intensity": 0.2, "loved": 0.0},
			want:     "Small Hours Occasional Spins",
		},
		{
			name:     "afternoon favorites",
			centroid: map[string]float64{"hour": 15.0 / 23, "intensity": 0.8, "loved": 0.9},
			want:     "Afternoon Heavy Rotation (Favorites)",
		},
		{
			name:     "late night",
			centroid: map[string]float64{"hour": 22.0 / 23, "intensity": 0.3, "loved": 0.2},
			want:     "Late Night Occasional Spins",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, generateGroupName(tt.centroid))
		})
	}
}
