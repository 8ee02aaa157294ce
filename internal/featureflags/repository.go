package featureflags

import (
	"context"
	"errors"
)

// ErrFlagNotFound is returned when no flag is stored under a key.
var ErrFlagNotFound = errors.New("feature flag not found")

// Repository stores the runtime switches of the service, such as
// disable_predictions and force_simulated_model. Keys missing from the store
// fall back to the defaults in flags.go at the Service level.
type Repository interface {
	// GetFlag returns the stored flag or ErrFlagNotFound.
	GetFlag(ctx context.Context, key string) (*Flag, error)

	// GetAllFlags returns every stored flag keyed by name.
	GetAllFlags(ctx context.Context) (map[string]*Flag, error)

	// SetFlag upserts one flag, e.g. when an operator flips the kill switch.
	SetFlag(ctx context.Context, flag *Flag) error

	// SetFlags upserts a batch from the admin endpoint in one transaction.
	SetFlags(ctx context.Context, flags []*Flag) error

	DeleteFlag(ctx context.Context, key string) error
}
