// Package extension defines the typed key/value overlay that attaches
// arbitrary data to any entity without a schema change.
package extension

import (
	"context"
	"database/sql"
	"fmt"
)

// ValueType tags how a field's raw value should be interpreted by readers
// that understand its namespace. Readers that do not understand the namespace
// must carry the raw value through unchanged.
type ValueType string

const (
	TypeText    ValueType = "text"
	TypeInteger ValueType = "integer"
	TypeDecimal ValueType = "decimal"
	TypeBoolean ValueType = "boolean"
	TypeDate    ValueType = "date"
	TypeJSON    ValueType = "json"
)

// Valid reports whether t is one of the known value types.
func (t ValueType) Valid() bool {
	switch t {
	case TypeText, TypeInteger, TypeDecimal, TypeBoolean, TypeDate, TypeJSON:
		return true
	default:
		return false
	}
}

// Key identifies a field within one parent record.
type Key struct {
	Namespace string `json:"namespace"`
	Name      string `json:"name"`
}

// Field is one extension value attached to a parent record. Value holds the
// original payload verbatim so unknown namespaces round-trip losslessly.
// Extension fields never participate in integrity invariants.
type Field struct {
	ParentTable string    `json:"parent_table"`
	ParentID    int64     `json:"parent_id"`
	Namespace   string    `json:"namespace"`
	Name        string    `json:"name"`
	ValueType   ValueType `json:"value_type"`
	Value       string    `json:"value"`
}

// Key returns the field's key within its parent.
func (f *Field) Key() Key {
	return Key{Namespace: f.Namespace, Name: f.Name}
}

// ErrInvalidParentTable indicates an attempt to attach a field to a table
// that does not accept extensions.
type ErrInvalidParentTable struct {
	Table string
}

func (e ErrInvalidParentTable) Error() string {
	return fmt.Sprintf("extension fields cannot attach to table %q", e.Table)
}

// ErrInvalidValueType indicates an unrecognized value type tag.
type ErrInvalidValueType struct {
	ValueType ValueType
}

func (e ErrInvalidValueType) Error() string {
	return fmt.Sprintf("invalid extension value type: %q", string(e.ValueType))
}

// Repository manages extension field persistence.
type Repository interface {
	// Upsert writes a field, replacing any previous value under the same
	// (parent table, parent id, namespace, name).
	Upsert(ctx context.Context, f *Field) error
	ByParent(ctx context.Context, parentTable string, parentID int64) ([]*Field, error)
	Delete(ctx context.Context, parentTable string, parentID int64, namespace, name string) error

	WithTx(tx *sql.Tx) Repository
}
