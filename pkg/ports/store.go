package ports

import (
	"context"

	"github.com/aretw0/gantry/pkg/domain"
)

// RunStore persists run records. A record is saved once, with the terminal
// result, after the run finishes; in-flight runs are not visible here.
type RunStore interface {
	Save(ctx context.Context, result *domain.RunResult) error

	// Load returns domain.ErrRunNotFound for unknown IDs.
	Load(ctx context.Context, runID string) (*domain.RunResult, error)

	// List returns known run IDs, most recent first.
	List(ctx context.Context) ([]string, error)
}
