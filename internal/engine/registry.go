// Package engine composes the domain rules and the SQLite repositories into
// the services a ledger file exposes: type resolution, entity storage,
// transaction posting, cost-basis matching, extension fields and validation.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/oaif-format/oaif/internal/domain/types"
)

// TypeRegistry resolves between type names and file-local numeric ids for one
// reference table of one open file. Identifiers are never stable across files;
// the registry is the only unit allowed to translate them, and it is scoped to
// the handle that created it.
type TypeRegistry struct {
	table string
	repo  types.Repository
	log   *slog.Logger

	mu     sync.RWMutex
	byName map[string]*types.Definition
	byID   map[int64]*types.Definition
}

// NewTypeRegistry loads every definition from the given reference table and
// builds the in-memory resolution maps.
func NewTypeRegistry(ctx context.Context, logger *slog.Logger, repo types.Repository, table string) (*TypeRegistry, error) {
	r := &TypeRegistry{
		table:  table,
		repo:   repo,
		log:    logger,
		byName: make(map[string]*types.Definition),
		byID:   make(map[int64]*types.Definition),
	}

	defs, err := repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s registry: %w", table, err)
	}
	for _, def := range defs {
		r.byName[def.Name] = def
		r.byID[def.ID] = def
	}

	logger.Debug("Type registry loaded", "table", table, "definitions", len(defs))
	return r, nil
}

// Register binds a new type name to a fresh file-local id. The name must
// match one of the allowed namespace shapes, and registering a name that is
// already bound is an error: ids are permanent for the life of the file.
func (r *TypeRegistry) Register(ctx context.Context, name, description string) (*types.Definition, error) {
	class, err := types.Classify(name)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byName[name]; ok {
		return nil, types.DuplicateNameError{Name: name, ExistingID: existing.ID}
	}

	def := &types.Definition{
		Name:        name,
		IsStandard:  class == types.ClassStandard,
		Description: description,
	}
	if err := r.repo.Insert(ctx, def); err != nil {
		return nil, err
	}

	r.byName[def.Name] = def
	r.byID[def.ID] = def

	r.log.Info("Type registered", "table", r.table, "name", name, "id", def.ID)
	return def, nil
}

// IDOf resolves a type name to its file-local id. Strict: an unregistered
// name is an error.
func (r *TypeRegistry) IDOf(name string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.byName[name]
	if !ok {
		return 0, types.UnknownTypeError{Name: name}
	}
	return def.ID, nil
}

// NameOf resolves a file-local id to its type name. Strict: an unregistered
// id is an error.
func (r *TypeRegistry) NameOf(id int64) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.byID[id]
	if !ok {
		return "", types.UnknownTypeError{ID: id}
	}
	return def.Name, nil
}

// LookupName resolves a file-local id for readers that must keep going when
// the id is unregistered: unknown ids map to the passthrough marker instead
// of an error, so records from newer writers survive a round trip.
func (r *TypeRegistry) LookupName(id int64) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if def, ok := r.byID[id]; ok {
		return def.Name
	}
	return types.PassthroughName
}

// Definition returns the full definition behind a name, or nil when the name
// is unregistered.
func (r *TypeRegistry) Definition(name string) *types.Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byName[name]
}

// List returns every registered definition in id order.
func (r *TypeRegistry) List(ctx context.Context) ([]*types.Definition, error) {
	return r.repo.List(ctx)
}

// Category returns the behavior flags of a transaction type. Only meaningful
// for registries over the transaction_type table.
func (r *TypeRegistry) Category(ctx context.Context, id int64) (*types.Category, error) {
	r.mu.RLock()
	_, known := r.byID[id]
	r.mu.RUnlock()
	if !known {
		return nil, types.UnknownTypeError{ID: id}
	}
	return r.repo.Category(ctx, id)
}
