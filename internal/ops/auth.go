package ops

import (
	"context"
	"strings"

	"github.com/vibecheckapp/vibecheck-cli/internal/errors"
	"github.com/vibecheckapp/vibecheck-cli/internal/session"
)

// MinPasswordChars matches the server's registration rule.
const MinPasswordChars = 8

// LoginInput contains credentials for the Login and Register operations.
type LoginInput struct {
	Email    string
	Password string
}

// AuthOutput contains the resulting session state after an auth operation.
type AuthOutput struct {
	Mode  string `json:"mode"`
	Email string `json:"email,omitempty"`
}

// Login signs in and stores the token pair.
func Login(ctx context.Context, env *Env, input LoginInput) (*AuthOutput, error) {
	email, password, err := validateCredentials(input)
	if err != nil {
		return nil, err
	}

	resp, err := env.API.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if err := env.Session.LoginSucceeded(ctx, resp.AccessToken, resp.RefreshToken); err != nil {
		return nil, errors.NewInternal(err)
	}
	return &AuthOutput{
		Mode:  session.ModeAuthenticated.String(),
		Email: resp.User.Email,
	}, nil
}

// Register creates an account and signs in. Guest-era local data (device id,
// usage count, cached history) is left as-is; nothing migrates to the new
// account.
func Register(ctx context.Context, env *Env, input LoginInput) (*AuthOutput, error) {
	email, password, err := validateCredentials(input)
	if err != nil {
		return nil, err
	}
	if len(password) < MinPasswordChars {
		return nil, errors.NewInvalidRequest("password must be at least 8 characters")
	}

	resp, err := env.API.Register(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if err := env.Session.LoginSucceeded(ctx, resp.AccessToken, resp.RefreshToken); err != nil {
		return nil, errors.NewInternal(err)
	}
	return &AuthOutput{
		Mode:  session.ModeAuthenticated.String(),
		Email: resp.User.Email,
	}, nil
}

// GuestOutput contains the result of entering guest mode.
type GuestOutput struct {
	Mode           string `json:"mode"`
	DeviceID       string `json:"device_id,omitempty"`
	QuotaRemaining int    `json:"quota_remaining"`
}

// Guest enters guest mode and resolves the device identity up front so the
// first submission does not pay for it.
func Guest(ctx context.Context, env *Env) (*GuestOutput, error) {
	if err := env.Session.ContinueAsGuest(ctx); err != nil {
		return nil, errors.NewInternal(err)
	}
	out := &GuestOutput{
		Mode:           session.ModeGuest.String(),
		QuotaRemaining: env.Quota.Remaining(ctx),
	}
	if id, err := env.Device.GetOrCreate(ctx); err == nil {
		out.DeviceID = id
	}
	return out, nil
}

// Logout revokes the refresh token server-side when possible and always
// clears the local session.
func Logout(ctx context.Context, env *Env) (*AuthOutput, error) {
	if err := env.API.Logout(ctx); err != nil {
		env.Log.Warn().Err(err).Msg("server-side logout failed, clearing local session anyway")
	}
	if err := env.Session.Logout(ctx); err != nil {
		return nil, errors.NewInternal(err)
	}
	return &AuthOutput{Mode: session.ModeUnauthenticated.String()}, nil
}

// DeleteAccount removes the account on the server and clears the local
// session.
func DeleteAccount(ctx context.Context, env *Env) (*AuthOutput, error) {
	if !env.Session.IsAuthenticated(ctx) {
		return nil, errors.NewUnauthorized("sign in before deleting the account")
	}
	if err := env.API.DeleteAccount(ctx); err != nil {
		return nil, err
	}
	if err := env.Session.Logout(ctx); err != nil {
		return nil, errors.NewInternal(err)
	}
	return &AuthOutput{Mode: session.ModeUnauthenticated.String()}, nil
}

// validateCredentials trims and checks the credential pair.
func validateCredentials(input LoginInput) (string, string, error) {
	email := strings.TrimSpace(input.Email)
	if email == "" || !strings.Contains(email, "@") {
		return "", "", errors.NewInvalidRequest("a valid email is required")
	}
	if input.Password == "" {
		return "", "", errors.NewInvalidRequest("password is required")
	}
	return email, input.Password, nil
}
