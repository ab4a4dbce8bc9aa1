package vibe

import (
	"sort"
	"time"
)

// ComputeStats derives stats from locally cached entries, for guest mode
// where the server-backed stats endpoint is unavailable. Entries may be in
// any order; dates are compared at day granularity.
func ComputeStats(entries []VibeCheck) Stats {
	return computeStatsAt(entries, time.Now().UTC())
}

// computeStatsAt is the clock-injected implementation.
func computeStatsAt(entries []VibeCheck, now time.Time) Stats {
	stats := Stats{TotalChecks: len(entries)}
	if len(entries) == 0 {
		return stats
	}

	var scoreSum int
	byAesthetic := make(map[string]int)
	daySet := make(map[string]time.Time)

	for _, e := range entries {
		scoreSum += e.VibeScore
		byAesthetic[e.Aesthetic]++
		if d, ok := parseCheckDay(e.CheckDate); ok {
			daySet[d.Format("2006-01-02")] = d
		}
	}

	stats.AvgVibeScore = float64(scoreSum) / float64(len(entries))

	// Top aesthetic: most frequent, ties broken alphabetically for stability.
	best, bestCount := "", 0
	for name, count := range byAesthetic {
		if count > bestCount || (count == bestCount && name < best) {
			best, bestCount = name, count
		}
	}
	stats.TopAesthetic = best

	// Streaks over distinct check days, newest first.
	days := make([]time.Time, 0, len(daySet))
	for _, d := range daySet {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })

	longest, run := 0, 0
	for i, d := range days {
		if i == 0 || days[i-1].Sub(d) == 24*time.Hour {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	stats.LongestStreak = longest

	// The current streak only counts if the most recent check was today or
	// yesterday; otherwise the chain is broken.
	if len(days) > 0 {
		today := now.Truncate(24 * time.Hour)
		gap := today.Sub(days[0])
		if gap == 0 || gap == 24*time.Hour {
			current := 1
			for i := 1; i < len(days); i++ {
				if days[i-1].Sub(days[i]) != 24*time.Hour {
					break
				}
				current++
			}
			stats.CurrentStreak = current
		}
	}

	return stats
}

// Trend projects entries onto score-over-time points, oldest first.
func Trend(entries []VibeCheck) []TrendPoint {
	points := make([]TrendPoint, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		points = append(points, TrendPoint{
			CheckDate: entries[i].CheckDate,
			VibeScore: entries[i].VibeScore,
		})
	}
	return points
}

// parseCheckDay parses an ISO-8601 timestamp or bare date down to UTC day
// granularity.
func parseCheckDay(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05Z07:00", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Truncate(24 * time.Hour), true
		}
	}
	return time.Time{}, false
}
