package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/oaif-format/oaif/internal/domain/entity"
	"github.com/oaif-format/oaif/internal/platform/persistence"
)

// AccountRepository implements entity.AccountRepository for SQLite.
type AccountRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewAccountRepository creates a new SQLite account repository.
func NewAccountRepository(logger *slog.Logger, db *persistence.SQLiteDB) *AccountRepository {
	return &AccountRepository{querier: db.DB(), logger: logger}
}

// WithTx wraps the repository with a transaction.
func (r *AccountRepository) WithTx(tx *sql.Tx) entity.AccountRepository {
	return &AccountRepository{querier: tx, logger: r.logger}
}

// Create stores a new account and assigns its id.
func (r *AccountRepository) Create(ctx context.Context, acc *entity.Account) error {
	query := `
		INSERT INTO account (account_type_id, code, name, parent_id, currency, balance, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	res, err := r.querier.ExecContext(ctx, query,
		acc.TypeID,
		acc.Code,
		acc.Name,
		nullID(acc.ParentID),
		acc.Currency,
		acc.Balance.String(),
		acc.IsActive,
	)
	if err != nil {
		r.logger.Error("Failed to create account", "name", acc.Name, "error", err)
		return fmt.Errorf("failed to create account: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read inserted account id: %w", err)
	}
	acc.ID = id
	return nil
}

// GetByID retrieves an account by its id.
func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*entity.Account, error) {
	query := `
		SELECT id, account_type_id, code, name, parent_id, currency, balance, is_active
		FROM account
		WHERE id = ?
	`

	acc, err := r.scanAccount(r.querier.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entity.ErrAccountNotFound{AccountID: id}
		}
		r.logger.Error("Failed to get account", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return acc, nil
}

// Update updates an existing account.
func (r *AccountRepository) Update(ctx context.Context, acc *entity.Account) error {
	query := `
		UPDATE account
		SET account_type_id = ?, code = ?, name = ?, parent_id = ?, currency = ?, balance = ?, is_active = ?
		WHERE id = ?
	`

	res, err := r.querier.ExecContext(ctx, query,
		acc.TypeID,
		acc.Code,
		acc.Name,
		nullID(acc.ParentID),
		acc.Currency,
		acc.Balance.String(),
		acc.IsActive,
		acc.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update account", "id", acc.ID, "error", err)
		return fmt.Errorf("failed to update account: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return entity.ErrAccountNotFound{AccountID: acc.ID}
	}
	return nil
}

// List returns every account in id order.
func (r *AccountRepository) List(ctx context.Context) ([]*entity.Account, error) {
	query := `
		SELECT id, account_type_id, code, name, parent_id, currency, balance, is_active
		FROM account
		ORDER BY id
	`

	rows, err := r.querier.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list accounts", "error", err)
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*entity.Account
	for rows.Next() {
		acc, err := r.scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

// UpdateBalance rewrites the cached balance of an account.
func (r *AccountRepository) UpdateBalance(ctx context.Context, id int64, balance decimal.Decimal) error {
	res, err := r.querier.ExecContext(ctx, `UPDATE account SET balance = ? WHERE id = ?`, balance.String(), id)
	if err != nil {
		r.logger.Error("Failed to update account balance", "id", id, "error", err)
		return fmt.Errorf("failed to update account balance: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return entity.ErrAccountNotFound{AccountID: id}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *AccountRepository) scanAccount(row rowScanner) (*entity.Account, error) {
	var (
		acc     entity.Account
		code    sql.NullString
		parent  sql.NullInt64
		balance sql.NullString
	)
	if err := row.Scan(&acc.ID, &acc.TypeID, &code, &acc.Name, &parent, &acc.Currency, &balance, &acc.IsActive); err != nil {
		return nil, err
	}
	acc.Code = code.String
	acc.ParentID = idOrZero(parent)

	bal, err := parseDecimal(balance)
	if err != nil {
		return nil, err
	}
	acc.Balance = bal
	return &acc, nil
}
