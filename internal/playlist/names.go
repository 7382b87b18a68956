package playlist

// generateGroupName creates a descriptive playlist name from the
// normalized feature centroid.
//
// The time-of-day band comes from the mean listening hour, the
// intensity word from the normalized play count, and a "Favorites"
// suffix appears when most plays in the cluster are loved.
func generateGroupName(centroid map[string]float64) string {
	hour := centroid["hour"] * 23
	intensity := centroid["intensity"]
	loved := centroid["loved"]

	var band string
	switch {
	case hour < 6:
		band = "Small Hours"
	case hour < 12:
		band = "Morning"
	case hour < 18:
		band = "Afternoon"
	default:
		band = "Late Night"
	}

	var mood string
	if intensity > 0.5 {
		mood = "Heavy Rotation"
	} else {
		mood = "Occasional Spins"
	}

	name := band + " " + mood
	if loved > 0.5 {
		name += " (Favorites)"
	}
	return name
}
