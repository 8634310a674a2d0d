package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/oaif-format/oaif/internal/domain/extension"
	"github.com/oaif-format/oaif/internal/platform/persistence"
)

// ExtensionRepository implements extension.Repository for SQLite.
type ExtensionRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewExtensionRepository creates a new SQLite extension field repository.
func NewExtensionRepository(logger *slog.Logger, db *persistence.SQLiteDB) *ExtensionRepository {
	return &ExtensionRepository{querier: db.DB(), logger: logger}
}

// WithTx wraps the repository with a transaction.
func (r *ExtensionRepository) WithTx(tx *sql.Tx) extension.Repository {
	return &ExtensionRepository{querier: tx, logger: r.logger}
}

// Upsert writes a field, replacing any previous value under the same key.
func (r *ExtensionRepository) Upsert(ctx context.Context, f *extension.Field) error {
	query := `
		INSERT INTO extension_field (parent_table, parent_id, namespace, field_name, value_type, value)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (parent_table, parent_id, namespace, field_name)
		DO UPDATE SET value_type = excluded.value_type, value = excluded.value
	`

	_, err := r.querier.ExecContext(ctx, query,
		f.ParentTable, f.ParentID, f.Namespace, f.Name, string(f.ValueType), f.Value)
	if err != nil {
		r.logger.Error("Failed to upsert extension field",
			"parent_table", f.ParentTable, "parent_id", f.ParentID, "namespace", f.Namespace, "name", f.Name, "error", err)
		return fmt.Errorf("failed to upsert extension field: %w", err)
	}
	return nil
}

// ByParent returns the fields attached to one record, in key order.
func (r *ExtensionRepository) ByParent(ctx context.Context, parentTable string, parentID int64) ([]*extension.Field, error) {
	query := `
		SELECT parent_table, parent_id, namespace, field_name, value_type, value
		FROM extension_field
		WHERE parent_table = ? AND parent_id = ?
		ORDER BY namespace, field_name
	`

	rows, err := r.querier.QueryContext(ctx, query, parentTable, parentID)
	if err != nil {
		r.logger.Error("Failed to list extension fields", "parent_table", parentTable, "parent_id", parentID, "error", err)
		return nil, fmt.Errorf("failed to list extension fields: %w", err)
	}
	defer rows.Close()

	var fields []*extension.Field
	for rows.Next() {
		var (
			f         extension.Field
			valueType string
			value     sql.NullString
		)
		if err := rows.Scan(&f.ParentTable, &f.ParentID, &f.Namespace, &f.Name, &valueType, &value); err != nil {
			return nil, fmt.Errorf("failed to scan extension field: %w", err)
		}
		f.ValueType = extension.ValueType(valueType)
		f.Value = value.String
		fields = append(fields, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list extension fields: %w", err)
	}
	return fields, nil
}

// Delete removes one field. Deleting a missing field is not an error.
func (r *ExtensionRepository) Delete(ctx context.Context, parentTable string, parentID int64, namespace, name string) error {
	query := `DELETE FROM extension_field WHERE parent_table = ? AND parent_id = ? AND namespace = ? AND field_name = ?`

	_, err := r.querier.ExecContext(ctx, query, parentTable, parentID, namespace, name)
	if err != nil {
		r.logger.Error("Failed to delete extension field",
			"parent_table", parentTable, "parent_id", parentID, "namespace", namespace, "name", name, "error", err)
		return fmt.Errorf("failed to delete extension field: %w", err)
	}
	return nil
}
