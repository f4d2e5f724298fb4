// Package storage defines the snapshot persistence boundary. A Store
// loads and saves the full state; a missing store is an empty snapshot,
// never an error.
package storage

import (
	"context"

	"github.com/fitslotdev/fitslot/internal/domain"
)

type Store interface {
	Load(ctx context.Context) (domain.Snapshot, error)
	Save(ctx context.Context, snap domain.Snapshot) error
}
