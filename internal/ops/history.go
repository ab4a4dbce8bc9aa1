package ops

import (
	"context"

	"github.com/vibecheckapp/vibecheck-cli/internal/errors"
	"github.com/vibecheckapp/vibecheck-cli/internal/session"
)

// HistoryInput contains parameters for the History operation.
type HistoryInput struct {
	Limit  int
	Offset int
}

// HistoryOutput contains one page of vibe history. Source reports where the
// page came from: "local" for the guest cache, "remote" for the server.
type HistoryOutput struct {
	Entries    []HistoryEntry `json:"entries"`
	Pagination Pagination     `json:"pagination"`
	Source     string         `json:"source"`
}

// HistoryEntry wraps a check for list rendering.
type HistoryEntry struct {
	ID        string `json:"id"`
	MoodText  string `json:"mood_text"`
	Aesthetic string `json:"aesthetic"`
	VibeScore int    `json:"vibe_score"`
	Emoji     string `json:"emoji"`
	CheckDate string `json:"check_date"`
}

// History lists past checks, newest first. Guests read the local cache; the
// signed-in path pages through the server.
func History(ctx context.Context, env *Env, input HistoryInput) (*HistoryOutput, error) {
	limit := clampHistoryLimit(input.Limit)
	offset := input.Offset
	if offset < 0 {
		offset = 0
	}

	switch env.Session.Mode(ctx) {
	case session.ModeAuthenticated:
		page, err := env.API.History(ctx, limit, offset)
		if err != nil {
			return nil, err
		}
		entries := make([]HistoryEntry, 0, len(page.Data))
		for _, c := range page.Data {
			entries = append(entries, HistoryEntry{
				ID:        c.ID,
				MoodText:  c.MoodText,
				Aesthetic: c.Aesthetic,
				VibeScore: c.VibeScore,
				Emoji:     c.Emoji,
				CheckDate: c.CheckDate,
			})
		}
		return &HistoryOutput{
			Entries: entries,
			Pagination: Pagination{
				Limit:   page.Limit,
				Offset:  page.Offset,
				HasMore: page.Offset+len(page.Data) < page.Total,
				Total:   page.Total,
			},
			Source: "remote",
		}, nil

	case session.ModeGuest:
		all := env.History.ReadAll(ctx)
		total := len(all)
		start := offset
		if start > total {
			start = total
		}
		end := start + limit
		if end > total {
			end = total
		}
		entries := make([]HistoryEntry, 0, end-start)
		for _, c := range all[start:end] {
			entries = append(entries, HistoryEntry{
				ID:        c.ID,
				MoodText:  c.MoodText,
				Aesthetic: c.Aesthetic,
				VibeScore: c.VibeScore,
				Emoji:     c.Emoji,
				CheckDate: c.CheckDate,
			})
		}
		return &HistoryOutput{
			Entries: entries,
			Pagination: Pagination{
				Limit:   limit,
				Offset:  offset,
				HasMore: end < total,
				Total:   total,
			},
			Source: "local",
		}, nil

	default:
		return nil, errors.NewUnauthorized("")
	}
}
