package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/oaif-format/oaif/internal/domain/extension"
	"github.com/oaif-format/oaif/internal/domain/types"
)

// extensionParents is the set of tables extension fields may attach to.
var extensionParents = map[string]bool{
	"account":        true,
	"party":          true,
	"item":           true,
	"tax_code":       true,
	"security":       true,
	"txn_header":     true,
	"txn_line":       true,
	"txn_link":       true,
	"investment_lot": true,
}

// ExtensionService reads and writes namespaced extension fields. Fields are
// opaque to the integrity checks; writers own their namespaces and readers
// carry unknown namespaces through untouched.
type ExtensionService struct {
	repo extension.Repository
	log  *slog.Logger
}

// NewExtensionService creates an extension service.
func NewExtensionService(logger *slog.Logger, repo extension.Repository) *ExtensionService {
	return &ExtensionService{repo: repo, log: logger}
}

// SetField validates and upserts one field. The namespace must match one of
// the allowed shapes and the value type must be known.
func (s *ExtensionService) SetField(ctx context.Context, f *extension.Field) error {
	if !extensionParents[f.ParentTable] {
		return extension.ErrInvalidParentTable{Table: f.ParentTable}
	}
	if f.Name == "" {
		return fmt.Errorf("extension field name is empty")
	}
	if err := types.ValidateNamespace(f.Namespace); err != nil {
		return err
	}
	if !f.ValueType.Valid() {
		return extension.ErrInvalidValueType{ValueType: f.ValueType}
	}
	return s.repo.Upsert(ctx, f)
}

// Fields returns the extension fields of one record keyed by namespace and
// name.
func (s *ExtensionService) Fields(ctx context.Context, parentTable string, parentID int64) (map[extension.Key]*extension.Field, error) {
	list, err := s.repo.ByParent(ctx, parentTable, parentID)
	if err != nil {
		return nil, err
	}
	fields := make(map[extension.Key]*extension.Field, len(list))
	for _, f := range list {
		fields[f.Key()] = f
	}
	return fields, nil
}

// ListFields returns the extension fields of one record in key order.
func (s *ExtensionService) ListFields(ctx context.Context, parentTable string, parentID int64) ([]*extension.Field, error) {
	return s.repo.ByParent(ctx, parentTable, parentID)
}

// DeleteField removes one field. Deleting a missing field is a no-op.
func (s *ExtensionService) DeleteField(ctx context.Context, parentTable string, parentID int64, namespace, name string) error {
	return s.repo.Delete(ctx, parentTable, parentID, namespace, name)
}
