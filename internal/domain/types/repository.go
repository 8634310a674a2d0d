package types

import (
	"context"
	"database/sql"
)

// Repository defines persistence over one reference table.
type Repository interface {
	// Insert stores a definition and assigns its file-local ID.
	Insert(ctx context.Context, def *Definition) error
	GetByName(ctx context.Context, name string) (*Definition, error)
	GetByID(ctx context.Context, id int64) (*Definition, error)
	List(ctx context.Context) ([]*Definition, error)

	// Category returns the behavior metadata of a transaction type. Only
	// meaningful for the transaction_type table.
	Category(ctx context.Context, id int64) (*Category, error)

	WithTx(tx *sql.Tx) Repository
}
