package ledger

import (
	"context"

	"github.com/shopspring/decimal"
)

// Backend is the remote record store the engine reconciles against. Every
// method may fail at any time; the engine treats the backend as unreliable
// and never lets a write failure corrupt already-applied local state.
type Backend interface {
	// List returns all rows owned by the given identity.
	List(ctx context.Context, owner string) ([]RemoteRow, error)

	// Create inserts a new row; the owner is inferred server-side from the
	// authenticated caller. A (nil, nil) return is a success signal whose
	// response carried no identifier - the engine falls back to a full
	// refresh in that case.
	Create(ctx context.Context, draft Draft) (*RemoteRow, error)

	// Update patches the row with the given remote identifier.
	Update(ctx context.Context, id string, patch Patch) error

	// Delete removes the row with the given remote identifier.
	Delete(ctx context.Context, id string) error

	// DeleteAllForOwner removes every row owned by the given identity.
	DeleteAllForOwner(ctx context.Context, owner string) error

	// FetchCeiling returns the budget ceiling stored for the identity.
	FetchCeiling(ctx context.Context, owner string) (decimal.Decimal, error)

	// StoreCeiling mirrors a locally-set ceiling to the backend.
	StoreCeiling(ctx context.Context, owner string, value decimal.Decimal) error
}
