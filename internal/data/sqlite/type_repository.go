// Package sqlite provides SQLite implementations of the domain repositories.
// All statements run through a persistence.Querier so the same repository
// works against the connection or inside a transaction.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/oaif-format/oaif/internal/domain/types"
	"github.com/oaif-format/oaif/internal/platform/persistence"
)

// TypeRepository implements types.Repository over one reference table.
type TypeRepository struct {
	querier persistence.Querier
	table   string
	logger  *slog.Logger
}

// NewTypeRepository creates a repository over the named reference table. The
// table name is restricted to the known reference tables; it is interpolated
// into SQL and must never come from file data.
func NewTypeRepository(logger *slog.Logger, db *persistence.SQLiteDB, table string) (*TypeRepository, error) {
	switch table {
	case types.TableAccountType, types.TableTransactionType:
	default:
		return nil, fmt.Errorf("unknown reference table: %q", table)
	}
	return &TypeRepository{querier: db.DB(), table: table, logger: logger}, nil
}

// WithTx wraps the repository with a transaction.
func (r *TypeRepository) WithTx(tx *sql.Tx) types.Repository {
	return &TypeRepository{querier: tx, table: r.table, logger: r.logger}
}

// Insert stores a definition and assigns its file-local id.
func (r *TypeRepository) Insert(ctx context.Context, def *types.Definition) error {
	query := fmt.Sprintf(`INSERT INTO %s (name, is_standard, description) VALUES (?, ?, ?)`, r.table)

	res, err := r.querier.ExecContext(ctx, query, def.Name, def.IsStandard, def.Description)
	if err != nil {
		r.logger.Error("Failed to insert type definition", "table", r.table, "name", def.Name, "error", err)
		return fmt.Errorf("failed to insert type definition: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read inserted type id: %w", err)
	}
	def.ID = id
	return nil
}

// GetByName retrieves a definition by its canonical name.
func (r *TypeRepository) GetByName(ctx context.Context, name string) (*types.Definition, error) {
	query := fmt.Sprintf(`SELECT id, name, is_standard, description FROM %s WHERE name = ?`, r.table)
	return r.scanOne(ctx, query, name)
}

// GetByID retrieves a definition by its file-local id.
func (r *TypeRepository) GetByID(ctx context.Context, id int64) (*types.Definition, error) {
	query := fmt.Sprintf(`SELECT id, name, is_standard, description FROM %s WHERE id = ?`, r.table)
	return r.scanOne(ctx, query, id)
}

func (r *TypeRepository) scanOne(ctx context.Context, query string, arg interface{}) (*types.Definition, error) {
	var (
		def  types.Definition
		desc sql.NullString
	)
	err := r.querier.QueryRowContext(ctx, query, arg).Scan(&def.ID, &def.Name, &def.IsStandard, &desc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get type definition", "table", r.table, "error", err)
		return nil, fmt.Errorf("failed to get type definition: %w", err)
	}
	def.Description = desc.String
	return &def, nil
}

// List returns every definition of the table in id order.
func (r *TypeRepository) List(ctx context.Context) ([]*types.Definition, error) {
	query := fmt.Sprintf(`SELECT id, name, is_standard, description FROM %s ORDER BY id`, r.table)

	rows, err := r.querier.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list type definitions", "table", r.table, "error", err)
		return nil, fmt.Errorf("failed to list type definitions: %w", err)
	}
	defer rows.Close()

	var defs []*types.Definition
	for rows.Next() {
		var (
			def  types.Definition
			desc sql.NullString
		)
		if err := rows.Scan(&def.ID, &def.Name, &def.IsStandard, &desc); err != nil {
			return nil, fmt.Errorf("failed to scan type definition: %w", err)
		}
		def.Description = desc.String
		defs = append(defs, &def)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list type definitions: %w", err)
	}
	return defs, nil
}

// Category returns the behavior metadata of a transaction type.
func (r *TypeRepository) Category(ctx context.Context, id int64) (*types.Category, error) {
	if r.table != types.TableTransactionType {
		return &types.Category{}, nil
	}

	query := `SELECT affects_ar, affects_ap, affects_inventory FROM transaction_type WHERE id = ?`

	var cat types.Category
	err := r.querier.QueryRowContext(ctx, query, id).Scan(&cat.AffectsAR, &cat.AffectsAP, &cat.AffectsInventory)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.UnknownTypeError{ID: id}
		}
		r.logger.Error("Failed to get type category", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get type category: %w", err)
	}
	return &cat, nil
}
