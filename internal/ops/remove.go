package ops

import (
	"context"
	"strings"

	"github.com/vibecheckapp/vibecheck-cli/internal/errors"
)

// RemoveInput contains parameters for the Remove operation.
type RemoveInput struct {
	ID string
}

// RemoveOutput contains the result of the Remove operation.
type RemoveOutput struct {
	ID      string `json:"id"`
	Removed bool   `json:"removed"`
}

// Remove deletes an entry from the local guest history cache. The server
// keeps no per-entry delete, so this only touches local state; a missing id
// reports removed=false rather than failing.
func Remove(ctx context.Context, env *Env, input RemoveInput) (*RemoveOutput, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	existed := false
	for _, e := range env.History.ReadAll(ctx) {
		if e.ID == id {
			existed = true
			break
		}
	}
	if err := env.History.Remove(ctx, id); err != nil {
		return nil, errors.NewInternal(err)
	}
	return &RemoveOutput{ID: id, Removed: existed}, nil
}
