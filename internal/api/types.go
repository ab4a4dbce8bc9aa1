package api

import "github.com/vibecheckapp/vibecheck-cli/internal/vibe"

// AuthUser is the account summary returned by the auth endpoints.
type AuthUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// AuthResponse is the token pair returned by login, register, and refresh.
type AuthResponse struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	User         AuthUser `json:"user"`
}

// HistoryPage is one page of the server-side vibe history.
type HistoryPage struct {
	Data   []vibe.VibeCheck `json:"data"`
	Total  int              `json:"total"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}

type checkVibeRequest struct {
	MoodText string `json:"mood_text"`
}

type guestCheckRequest struct {
	MoodText string `json:"mood_text"`
	DeviceID string `json:"device_id"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type trendResponse struct {
	Data []vibe.TrendPoint `json:"data"`
}

// errorResponse is the server's error envelope.
type errorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}
