package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrHandoffNotFound is returned when a handoff id was never stored, was
// already redeemed or has expired.
var ErrHandoffNotFound = errors.New("handoff not found")

// HandoffRepository passes a fetched quiz payload from the loader to the
// runner. Every stored payload can be taken exactly once.
type HandoffRepository interface {
	// Put stores payload and returns the id it can be redeemed with.
	Put(ctx context.Context, payload []byte) (string, error)
	// Take returns the payload for id and removes it.
	Take(ctx context.Context, id string) ([]byte, error)
}

// newHandoffID returns a fresh random id.
func newHandoffID() string {
	return uuid.NewString()
}

// parseHandoffID rejects ids that could not have been issued by Put so
// arbitrary client input never reaches the store.
func parseHandoffID(id string) (string, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return "", fmt.Errorf("%w: malformed id", ErrHandoffNotFound)
	}
	return u.String(), nil
}
