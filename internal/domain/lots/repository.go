package lots

import (
	"context"
	"database/sql"
)

// Repository manages investment lot persistence.
type Repository interface {
	Create(ctx context.Context, lot *Lot) error
	GetByID(ctx context.Context, id int64) (*Lot, error)
	Update(ctx context.Context, lot *Lot) error

	// OpenLots returns the lots with shares remaining for one
	// (account, security) pair, ordered by acquisition date then id.
	OpenLots(ctx context.Context, accountID, securityID int64) ([]*Lot, error)

	// ListByAccount returns every lot (open or closed) held in an account.
	ListByAccount(ctx context.Context, accountID int64) ([]*Lot, error)

	WithTx(tx *sql.Tx) Repository
}
