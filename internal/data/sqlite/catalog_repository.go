package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/oaif-format/oaif/internal/domain/entity"
	"github.com/oaif-format/oaif/internal/platform/persistence"
)

// CatalogRepository implements entity.CatalogRepository for SQLite: items,
// tax codes and securities.
type CatalogRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewCatalogRepository creates a new SQLite catalog repository.
func NewCatalogRepository(logger *slog.Logger, db *persistence.SQLiteDB) *CatalogRepository {
	return &CatalogRepository{querier: db.DB(), logger: logger}
}

// WithTx wraps the repository with a transaction.
func (r *CatalogRepository) WithTx(tx *sql.Tx) entity.CatalogRepository {
	return &CatalogRepository{querier: tx, logger: r.logger}
}

// CreateItem stores a new item and assigns its id.
func (r *CatalogRepository) CreateItem(ctx context.Context, it *entity.Item) error {
	query := `INSERT INTO item (name, parent_id, unit_price, is_active) VALUES (?, ?, ?, ?)`

	res, err := r.querier.ExecContext(ctx, query, it.Name, nullID(it.ParentID), it.UnitPrice.String(), it.IsActive)
	if err != nil {
		r.logger.Error("Failed to create item", "name", it.Name, "error", err)
		return fmt.Errorf("failed to create item: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read inserted item id: %w", err)
	}
	it.ID = id
	return nil
}

// GetItem retrieves an item by its id.
func (r *CatalogRepository) GetItem(ctx context.Context, id int64) (*entity.Item, error) {
	query := `SELECT id, name, parent_id, unit_price, is_active FROM item WHERE id = ?`

	var (
		it     entity.Item
		parent sql.NullInt64
		price  sql.NullString
	)
	err := r.querier.QueryRowContext(ctx, query, id).Scan(&it.ID, &it.Name, &parent, &price, &it.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entity.ErrItemNotFound{ItemID: id}
		}
		r.logger.Error("Failed to get item", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	it.ParentID = idOrZero(parent)

	p, err := parseDecimal(price)
	if err != nil {
		return nil, err
	}
	it.UnitPrice = p
	return &it, nil
}

// UpdateItem updates an existing item.
func (r *CatalogRepository) UpdateItem(ctx context.Context, it *entity.Item) error {
	query := `UPDATE item SET name = ?, parent_id = ?, unit_price = ?, is_active = ? WHERE id = ?`

	res, err := r.querier.ExecContext(ctx, query, it.Name, nullID(it.ParentID), it.UnitPrice.String(), it.IsActive, it.ID)
	if err != nil {
		r.logger.Error("Failed to update item", "id", it.ID, "error", err)
		return fmt.Errorf("failed to update item: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return entity.ErrItemNotFound{ItemID: it.ID}
	}
	return nil
}

// CreateTaxCode stores a new tax code and assigns its id.
func (r *CatalogRepository) CreateTaxCode(ctx context.Context, tc *entity.TaxCode) error {
	res, err := r.querier.ExecContext(ctx, `INSERT INTO tax_code (name, rate) VALUES (?, ?)`, tc.Name, tc.Rate.String())
	if err != nil {
		r.logger.Error("Failed to create tax code", "name", tc.Name, "error", err)
		return fmt.Errorf("failed to create tax code: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read inserted tax code id: %w", err)
	}
	tc.ID = id
	return nil
}

// GetTaxCode retrieves a tax code by its id.
func (r *CatalogRepository) GetTaxCode(ctx context.Context, id int64) (*entity.TaxCode, error) {
	var (
		tc   entity.TaxCode
		rate sql.NullString
	)
	err := r.querier.QueryRowContext(ctx, `SELECT id, name, rate FROM tax_code WHERE id = ?`, id).
		Scan(&tc.ID, &tc.Name, &rate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entity.ErrTaxCodeNotFound{TaxCodeID: id}
		}
		r.logger.Error("Failed to get tax code", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get tax code: %w", err)
	}
	rt, err := parseDecimal(rate)
	if err != nil {
		return nil, err
	}
	tc.Rate = rt
	return &tc, nil
}

// CreateSecurity stores a new security and assigns its id.
func (r *CatalogRepository) CreateSecurity(ctx context.Context, sec *entity.Security) error {
	res, err := r.querier.ExecContext(ctx,
		`INSERT INTO security (symbol, name, currency) VALUES (?, ?, ?)`,
		sec.Symbol, sec.Name, sec.Currency,
	)
	if err != nil {
		r.logger.Error("Failed to create security", "symbol", sec.Symbol, "error", err)
		return fmt.Errorf("failed to create security: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read inserted security id: %w", err)
	}
	sec.ID = id
	return nil
}

// GetSecurity retrieves a security by its id.
func (r *CatalogRepository) GetSecurity(ctx context.Context, id int64) (*entity.Security, error) {
	sec, err := r.scanSecurity(r.querier.QueryRowContext(ctx,
		`SELECT id, symbol, name, currency FROM security WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entity.ErrSecurityNotFound{SecurityID: id}
		}
		r.logger.Error("Failed to get security", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get security: %w", err)
	}
	return sec, nil
}

// GetSecurityBySymbol retrieves a security by its symbol. Returns nil, nil
// when no security has the symbol.
func (r *CatalogRepository) GetSecurityBySymbol(ctx context.Context, symbol string) (*entity.Security, error) {
	sec, err := r.scanSecurity(r.querier.QueryRowContext(ctx,
		`SELECT id, symbol, name, currency FROM security WHERE symbol = ?`, symbol))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get security by symbol", "symbol", symbol, "error", err)
		return nil, fmt.Errorf("failed to get security by symbol: %w", err)
	}
	return sec, nil
}

func (r *CatalogRepository) scanSecurity(row rowScanner) (*entity.Security, error) {
	var (
		sec  entity.Security
		name sql.NullString
	)
	if err := row.Scan(&sec.ID, &sec.Symbol, &name, &sec.Currency); err != nil {
		return nil, err
	}
	sec.Name = name.String
	return &sec, nil
}
