package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oaif-format/oaif/internal/domain/lots"
	"github.com/oaif-format/oaif/internal/platform/persistence"
)

// LotRepository implements lots.Repository for SQLite.
type LotRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewLotRepository creates a new SQLite lot repository.
func NewLotRepository(logger *slog.Logger, db *persistence.SQLiteDB) *LotRepository {
	return &LotRepository{querier: db.DB(), logger: logger}
}

// WithTx wraps the repository with a transaction.
func (r *LotRepository) WithTx(tx *sql.Tx) lots.Repository {
	return &LotRepository{querier: tx, logger: r.logger}
}

// Create stores a new lot and assigns its id.
func (r *LotRepository) Create(ctx context.Context, lot *lots.Lot) error {
	query := `
		INSERT INTO investment_lot (account_id, security_id, acquisition_date, acquisition_txn_id,
			shares_acquired, cost_per_share, shares_remaining, disposal_date, disposal_txn_id, realized_gain_loss)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	res, err := r.querier.ExecContext(ctx, query,
		lot.AccountID,
		lot.SecurityID,
		lot.AcquisitionDate.Format(DateFormat),
		nullID(lot.AcquisitionTxnID),
		lot.SharesAcquired.String(),
		lot.CostPerShare.String(),
		lot.SharesRemaining.String(),
		nullDate(lot.DisposalDate),
		nullID(lot.DisposalTxnID),
		lot.RealizedGainLoss.String(),
	)
	if err != nil {
		r.logger.Error("Failed to create investment lot", "account_id", lot.AccountID, "security_id", lot.SecurityID, "error", err)
		return fmt.Errorf("failed to create investment lot: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read inserted lot id: %w", err)
	}
	lot.ID = id
	return nil
}

// GetByID retrieves a lot by its id.
func (r *LotRepository) GetByID(ctx context.Context, id int64) (*lots.Lot, error) {
	query := lotSelect + ` WHERE id = ?`

	lot, err := scanLot(r.querier.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, lots.ErrLotNotFound{LotID: id}
		}
		r.logger.Error("Failed to get investment lot", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get investment lot: %w", err)
	}
	return lot, nil
}

// Update rewrites the mutable disposal-tracking columns of a lot.
func (r *LotRepository) Update(ctx context.Context, lot *lots.Lot) error {
	query := `
		UPDATE investment_lot
		SET shares_remaining = ?, disposal_date = ?, disposal_txn_id = ?, realized_gain_loss = ?
		WHERE id = ?
	`

	res, err := r.querier.ExecContext(ctx, query,
		lot.SharesRemaining.String(),
		nullDate(lot.DisposalDate),
		nullID(lot.DisposalTxnID),
		lot.RealizedGainLoss.String(),
		lot.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update investment lot", "id", lot.ID, "error", err)
		return fmt.Errorf("failed to update investment lot: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return lots.ErrLotNotFound{LotID: lot.ID}
	}
	return nil
}

// OpenLots returns the lots with shares remaining for one (account, security)
// pair. Shares are stored as TEXT, so openness is filtered in Go after the
// candidate rows come back in acquisition order.
func (r *LotRepository) OpenLots(ctx context.Context, accountID, securityID int64) ([]*lots.Lot, error) {
	query := lotSelect + ` WHERE account_id = ? AND security_id = ? ORDER BY acquisition_date, id`

	all, err := r.queryLots(ctx, query, accountID, securityID)
	if err != nil {
		return nil, err
	}

	open := make([]*lots.Lot, 0, len(all))
	for _, lot := range all {
		if lot.Open() {
			open = append(open, lot)
		}
	}
	return open, nil
}

// ListByAccount returns every lot held in an account, open or closed.
func (r *LotRepository) ListByAccount(ctx context.Context, accountID int64) ([]*lots.Lot, error) {
	query := lotSelect + ` WHERE account_id = ? ORDER BY acquisition_date, id`
	return r.queryLots(ctx, query, accountID)
}

const lotSelect = `
	SELECT id, account_id, security_id, acquisition_date, acquisition_txn_id,
		shares_acquired, cost_per_share, shares_remaining, disposal_date, disposal_txn_id, realized_gain_loss
	FROM investment_lot`

func (r *LotRepository) queryLots(ctx context.Context, query string, args ...interface{}) ([]*lots.Lot, error) {
	rows, err := r.querier.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list investment lots", "error", err)
		return nil, fmt.Errorf("failed to list investment lots: %w", err)
	}
	defer rows.Close()

	var result []*lots.Lot
	for rows.Next() {
		lot, err := scanLot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan investment lot: %w", err)
		}
		result = append(result, lot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list investment lots: %w", err)
	}
	return result, nil
}

func scanLot(row rowScanner) (*lots.Lot, error) {
	var (
		lot                         lots.Lot
		acqDate                     string
		dispDate                    sql.NullString
		acqTxnID, dispTxnID         sql.NullInt64
		acquired, costPer           sql.NullString
		remaining, realizedGainLoss sql.NullString
	)
	err := row.Scan(&lot.ID, &lot.AccountID, &lot.SecurityID, &acqDate, &acqTxnID,
		&acquired, &costPer, &remaining, &dispDate, &dispTxnID, &realizedGainLoss)
	if err != nil {
		return nil, err
	}

	if lot.AcquisitionDate, err = parseDate(acqDate); err != nil {
		return nil, err
	}
	if dispDate.Valid {
		d, err := parseDate(dispDate.String)
		if err != nil {
			return nil, err
		}
		lot.DisposalDate = &d
	}
	lot.AcquisitionTxnID = idOrZero(acqTxnID)
	lot.DisposalTxnID = idOrZero(dispTxnID)

	if lot.SharesAcquired, err = parseDecimal(acquired); err != nil {
		return nil, err
	}
	if lot.CostPerShare, err = parseDecimal(costPer); err != nil {
		return nil, err
	}
	if lot.SharesRemaining, err = parseDecimal(remaining); err != nil {
		return nil, err
	}
	if lot.RealizedGainLoss, err = parseDecimal(realizedGainLoss); err != nil {
		return nil, err
	}
	return &lot, nil
}

func nullDate(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Format(DateFormat)
}
