package vibe

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/vibecheckapp/vibecheck-cli/internal/errors"
)

// MaxMoodTextChars is the maximum length of a mood submission, matching the
// server-side limit.
const MaxMoodTextChars = 500

// VibeCheck is one analysis result. The JSON shape mirrors the server
// response and is also what the local guest history cache persists.
type VibeCheck struct {
	ID             string `json:"id"`
	MoodText       string `json:"mood_text"`
	Aesthetic      string `json:"aesthetic"`
	ColorPrimary   string `json:"color_primary"`
	ColorSecondary string `json:"color_secondary"`
	ColorAccent    string `json:"color_accent"`
	VibeScore      int    `json:"vibe_score"`
	Emoji          string `json:"emoji"`
	Insight        string `json:"insight,omitempty"`
	CheckDate      string `json:"check_date"` // ISO-8601
}

// Stats summarizes a run of vibe checks. Matches the server stats shape so
// guest-mode stats computed locally render the same way.
type Stats struct {
	CurrentStreak int     `json:"current_streak"`
	LongestStreak int     `json:"longest_streak"`
	TotalChecks   int     `json:"total_checks"`
	AvgVibeScore  float64 `json:"avg_vibe_score"`
	TopAesthetic  string  `json:"top_aesthetic"`
}

// TrendPoint is one point of the score-over-time series.
type TrendPoint struct {
	CheckDate string `json:"check_date"`
	VibeScore int    `json:"vibe_score"`
}

// ValidateMoodText trims the submission and rejects empty or oversized input.
func ValidateMoodText(s string) (string, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return "", errors.NewInvalidRequest("mood_text is required")
	}
	if len(trimmed) > MaxMoodTextChars {
		return "", errors.NewInvalidRequest("mood_text exceeds 500 characters")
	}
	return trimmed, nil
}

// NewEntryID generates a ULID for locally created history entries.
func NewEntryID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Aesthetic is one preset from the fixed palette the analyzer maps moods onto.
type Aesthetic struct {
	Name           string
	Emoji          string
	ColorPrimary   string
	ColorSecondary string
	ColorAccent    string
}

// Aesthetics is the preset palette, keyed by aesthetic key.
var Aesthetics = map[string]Aesthetic{
	"chill":       {"Chill Vibes", "😌", "#6366f1", "#a5b4fc", "#e0e7ff"},
	"energetic":   {"High Energy", "⚡", "#f97316", "#fdba74", "#fff7ed"},
	"romantic":    {"Hopeless Romantic", "💕", "#ec4899", "#f9a8d4", "#fdf2f8"},
	"melancholy":  {"Melancholy Soul", "🌧️", "#64748b", "#94a3b8", "#f1f5f9"},
	"adventurous": {"Adventure Mode", "🏔️", "#22c55e", "#86efac", "#f0fdf4"},
	"creative":    {"Creative Flow", "🎨", "#8b5cf6", "#c4b5fd", "#f5f3ff"},
	"peaceful":    {"Inner Peace", "🧘", "#06b6d4", "#67e8f9", "#ecfeff"},
	"confident":   {"Main Character", "👑", "#eab308", "#fde047", "#fefce8"},
	"cozy":        {"Cozy Era", "☕", "#92400e", "#fbbf24", "#fffbeb"},
	"mysterious":  {"Dark Academia", "🌙", "#1e1b4b", "#4338ca", "#312e81"},
}
