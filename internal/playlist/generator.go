// Package playlist manages stored playlists and generates new ones by
// clustering listening behavior.
package playlist

import (
	"slices"
	"time"

	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
)

// GeneratorConfig holds clustering parameters.
type GeneratorConfig struct {
	NumClusters    int // Number of clusters to create (default: 4)
	MinClusterSize int // Minimum tracks per playlist (smaller clusters become outliers)
}

// DefaultGeneratorConfig returns the recommended default configuration.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		NumClusters:    4,
		MinClusterSize: 3,
	}
}

// TrackProfile is one track's listening behavior, the generator's input.
type TrackProfile struct {
	TrackID      string
	Title        string
	Artist       string
	PlayCount    int
	LovedShare   float64 // fraction of plays marked loved, 0..1
	MeanHour     float64 // average hour-of-day of plays, 0..23
	LastPlayedAt time.Time
}

// Group is a cluster of tracks with similar listening behavior.
type Group struct {
	Name     string
	Tracks   []TrackProfile     // ordered by play count, most played first
	Centroid map[string]float64 // normalized feature averages
}

// profileObservation wraps a TrackProfile to implement clusters.Observation.
type profileObservation struct {
	profile *TrackProfile
	coords  clusters.Coordinates
}

func (o profileObservation) Coordinates() clusters.Coordinates {
	return o.coords
}

func (o profileObservation) Distance(point clusters.Coordinates) float64 {
	return o.coords.Distance(point)
}

// featureNames defines the listening features used for clustering, in
// coordinate order.
var featureNames = []string{"intensity", "hour", "loved", "recency"}

// GroupListening clusters track profiles by listening similarity using
// k-means. Returns groups plus outlier tracks that didn't land in a
// large-enough cluster. now anchors the recency feature.
func GroupListening(profiles []TrackProfile, cfg GeneratorConfig, now time.Time) ([]Group, []TrackProfile) {
	if len(profiles) == 0 {
		return nil, nil
	}

	if cfg.NumClusters <= 0 {
		cfg.NumClusters = DefaultGeneratorConfig().NumClusters
	}

	// If fewer tracks than clusters, everything is an outlier
	if len(profiles) < cfg.NumClusters {
		return nil, slices.Clone(profiles)
	}

	maxPlays := 0
	for _, p := range profiles {
		if p.PlayCount > maxPlays {
			maxPlays = p.PlayCount
		}
	}

	// Build observations for k-means
	var obs clusters.Observations
	for i := range profiles {
		obs = append(obs, profileObservation{
			profile: &profiles[i],
			coords:  extractFeatures(&profiles[i], maxPlays, now),
		})
	}

	km := kmeans.New()
	result, err := km.Partition(obs, cfg.NumClusters)
	if err != nil {
		// On error, treat all as outliers
		return nil, slices.Clone(profiles)
	}

	var groups []Group
	var outliers []TrackProfile

	for _, cluster := range result {
		var tracks []TrackProfile
		for _, o := range cluster.Observations {
			if po, ok := o.(profileObservation); ok {
				tracks = append(tracks, *po.profile)
			}
		}

		if len(tracks) < cfg.MinClusterSize {
			outliers = append(outliers, tracks...)
			continue
		}

		// Most played first
		slices.SortFunc(tracks, func(a, b TrackProfile) int {
			if a.PlayCount != b.PlayCount {
				return b.PlayCount - a.PlayCount
			}
			return b.LastPlayedAt.Compare(a.LastPlayedAt)
		})

		centroid := make(map[string]float64, len(featureNames))
		for i, name := range featureNames {
			centroid[name] = cluster.Center[i]
		}

		groups = append(groups, Group{
			Name:     generateGroupName(centroid),
			Tracks:   tracks,
			Centroid: centroid,
		})
	}

	// Biggest groups first
	slices.SortFunc(groups, func(a, b Group) int {
		return len(b.Tracks) - len(a.Tracks)
	})

	return groups, outliers
}

// extractFeatures maps a profile onto the unit-ish feature cube.
func extractFeatures(p *TrackProfile, maxPlays int, now time.Time) clusters.Coordinates {
	intensity := 0.0
	if maxPlays > 0 {
		intensity = float64(p.PlayCount) / float64(maxPlays)
	}

	days := now.Sub(p.LastPlayedAt).Hours() / 24
	if days < 0 {
		days = 0
	}
	recency := 1 / (1 + days/30)

	return clusters.Coordinates{
		intensity,
		p.MeanHour / 23,
		p.LovedShare,
		recency,
	}
}
