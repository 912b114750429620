// Package run persists completed extraction runs so their events can be
// re-read for map views and exports after the pipeline finishes.
package run

import (
	"context"

	"github.com/mapbook/mapbook/internal/domain"
)

// Repository stores and retrieves runs by ID.
type Repository interface {
	Save(ctx context.Context, r domain.Run) error
	Get(ctx context.Context, id string) (domain.Run, error)
	Delete(ctx context.Context, id string) error
}
