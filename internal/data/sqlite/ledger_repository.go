package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/oaif-format/oaif/internal/domain/ledger"
	"github.com/oaif-format/oaif/internal/platform/persistence"
)

// LedgerRepository implements ledger.Repository for SQLite.
type LedgerRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewLedgerRepository creates a new SQLite ledger repository.
func NewLedgerRepository(logger *slog.Logger, db *persistence.SQLiteDB) *LedgerRepository {
	return &LedgerRepository{querier: db.DB(), logger: logger}
}

// WithTx wraps the repository with a transaction.
func (r *LedgerRepository) WithTx(tx *sql.Tx) ledger.Repository {
	return &LedgerRepository{querier: tx, logger: r.logger}
}

// CreateHeader stores a new header and assigns its id.
func (r *LedgerRepository) CreateHeader(ctx context.Context, h *ledger.Header) error {
	query := `
		INSERT INTO txn_header (txn_type_id, txn_date, doc_number, memo, currency, exchange_rate,
			customer_id, vendor_id, employee_id, is_posted, is_voided, is_cleared, is_paid, total_amount)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	res, err := r.querier.ExecContext(ctx, query,
		h.TypeID,
		h.Date.Format(DateFormat),
		h.DocNumber,
		h.Memo,
		h.Currency,
		nullDecimal(h.ExchangeRate),
		nullID(h.CustomerID),
		nullID(h.VendorID),
		nullID(h.EmployeeID),
		h.Posted,
		h.Voided,
		h.Cleared,
		h.Paid,
		h.TotalAmount.String(),
	)
	if err != nil {
		r.logger.Error("Failed to create transaction header", "error", err)
		return fmt.Errorf("failed to create transaction header: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read inserted header id: %w", err)
	}
	h.ID = id
	return nil
}

// GetHeader retrieves a header by its id.
func (r *LedgerRepository) GetHeader(ctx context.Context, id int64) (*ledger.Header, error) {
	query := `
		SELECT id, txn_type_id, txn_date, doc_number, memo, currency, exchange_rate,
			customer_id, vendor_id, employee_id, is_posted, is_voided, is_cleared, is_paid, total_amount
		FROM txn_header
		WHERE id = ?
	`

	h, err := r.scanHeader(r.querier.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ledger.ErrHeaderNotFound{HeaderID: id}
		}
		r.logger.Error("Failed to get transaction header", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get transaction header: %w", err)
	}
	return h, nil
}

// UpdateHeaderFlags rewrites the status flags of a header.
func (r *LedgerRepository) UpdateHeaderFlags(ctx context.Context, h *ledger.Header) error {
	query := `
		UPDATE txn_header
		SET is_posted = ?, is_voided = ?, is_cleared = ?, is_paid = ?
		WHERE id = ?
	`

	res, err := r.querier.ExecContext(ctx, query, h.Posted, h.Voided, h.Cleared, h.Paid, h.ID)
	if err != nil {
		r.logger.Error("Failed to update header flags", "id", h.ID, "error", err)
		return fmt.Errorf("failed to update header flags: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ledger.ErrHeaderNotFound{HeaderID: h.ID}
	}
	return nil
}

// ListHeaders returns headers within a date range, newest first.
func (r *LedgerRepository) ListHeaders(ctx context.Context, from, to time.Time, limit, offset int) ([]*ledger.Header, error) {
	query := `
		SELECT id, txn_type_id, txn_date, doc_number, memo, currency, exchange_rate,
			customer_id, vendor_id, employee_id, is_posted, is_voided, is_cleared, is_paid, total_amount
		FROM txn_header
		WHERE txn_date >= ? AND txn_date <= ?
		ORDER BY txn_date DESC, id DESC
		LIMIT ? OFFSET ?
	`

	rows, err := r.querier.QueryContext(ctx, query, from.Format(DateFormat), to.Format(DateFormat), limit, offset)
	if err != nil {
		r.logger.Error("Failed to list headers", "error", err)
		return nil, fmt.Errorf("failed to list headers: %w", err)
	}
	defer rows.Close()

	var headers []*ledger.Header
	for rows.Next() {
		h, err := r.scanHeader(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan header: %w", err)
		}
		headers = append(headers, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list headers: %w", err)
	}
	return headers, nil
}

// ListPostedHeaderIDs returns the ids of all posted, non-voided headers.
func (r *LedgerRepository) ListPostedHeaderIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.querier.QueryContext(ctx,
		`SELECT id FROM txn_header WHERE is_posted = 1 AND is_voided = 0 ORDER BY id`)
	if err != nil {
		r.logger.Error("Failed to list posted header ids", "error", err)
		return nil, fmt.Errorf("failed to list posted header ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan header id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list posted header ids: %w", err)
	}
	return ids, nil
}

// CreateLine stores a new line and assigns its id.
func (r *LedgerRepository) CreateLine(ctx context.Context, l *ledger.Line) error {
	query := `
		INSERT INTO txn_line (header_id, line_number, account_id, item_id, description,
			amount, security_id, shares, price_per_share, lot_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	res, err := r.querier.ExecContext(ctx, query,
		l.HeaderID,
		l.LineNumber,
		nullID(l.AccountID),
		nullID(l.ItemID),
		l.Description,
		l.Amount.String(),
		nullID(l.SecurityID),
		nullDecimal(l.Shares),
		nullDecimal(l.PricePerShare),
		nullID(l.LotID),
	)
	if err != nil {
		r.logger.Error("Failed to create transaction line", "header_id", l.HeaderID, "line", l.LineNumber, "error", err)
		return fmt.Errorf("failed to create transaction line: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read inserted line id: %w", err)
	}
	l.ID = id
	return nil
}

// LinesByHeader returns the lines of one header in line-number order.
func (r *LedgerRepository) LinesByHeader(ctx context.Context, headerID int64) ([]*ledger.Line, error) {
	query := `
		SELECT id, header_id, line_number, account_id, item_id, description,
			amount, security_id, shares, price_per_share, lot_id
		FROM txn_line
		WHERE header_id = ?
		ORDER BY line_number
	`

	rows, err := r.querier.QueryContext(ctx, query, headerID)
	if err != nil {
		r.logger.Error("Failed to list lines", "header_id", headerID, "error", err)
		return nil, fmt.Errorf("failed to list lines: %w", err)
	}
	defer rows.Close()

	var lines []*ledger.Line
	for rows.Next() {
		var (
			l                     ledger.Line
			accountID, itemID     sql.NullInt64
			securityID, lotID     sql.NullInt64
			desc                  sql.NullString
			amount, shares, price sql.NullString
		)
		if err := rows.Scan(&l.ID, &l.HeaderID, &l.LineNumber, &accountID, &itemID, &desc,
			&amount, &securityID, &shares, &price, &lotID); err != nil {
			return nil, fmt.Errorf("failed to scan line: %w", err)
		}
		l.AccountID = idOrZero(accountID)
		l.ItemID = idOrZero(itemID)
		l.SecurityID = idOrZero(securityID)
		l.LotID = idOrZero(lotID)
		l.Description = desc.String

		if l.Amount, err = parseDecimal(amount); err != nil {
			return nil, err
		}
		if l.Shares, err = parseDecimal(shares); err != nil {
			return nil, err
		}
		if l.PricePerShare, err = parseDecimal(price); err != nil {
			return nil, err
		}
		lines = append(lines, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list lines: %w", err)
	}
	return lines, nil
}

// CreateLink stores a new settlement link and assigns its id.
func (r *LedgerRepository) CreateLink(ctx context.Context, lk *ledger.Link) error {
	query := `INSERT INTO txn_link (from_header_id, to_header_id, link_type, amount_applied) VALUES (?, ?, ?, ?)`

	res, err := r.querier.ExecContext(ctx, query, lk.FromHeaderID, lk.ToHeaderID, lk.LinkType, lk.AmountApplied.String())
	if err != nil {
		r.logger.Error("Failed to create link", "from", lk.FromHeaderID, "to", lk.ToHeaderID, "error", err)
		return fmt.Errorf("failed to create link: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read inserted link id: %w", err)
	}
	lk.ID = id
	return nil
}

// LinksFrom returns the links whose source is the given header.
func (r *LedgerRepository) LinksFrom(ctx context.Context, headerID int64) ([]*ledger.Link, error) {
	query := `SELECT id, from_header_id, to_header_id, link_type, amount_applied FROM txn_link WHERE from_header_id = ? ORDER BY id`

	rows, err := r.querier.QueryContext(ctx, query, headerID)
	if err != nil {
		r.logger.Error("Failed to list links", "from", headerID, "error", err)
		return nil, fmt.Errorf("failed to list links: %w", err)
	}
	defer rows.Close()

	var links []*ledger.Link
	for rows.Next() {
		var (
			lk     ledger.Link
			amount sql.NullString
		)
		if err := rows.Scan(&lk.ID, &lk.FromHeaderID, &lk.ToHeaderID, &lk.LinkType, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		if lk.AmountApplied, err = parseDecimal(amount); err != nil {
			return nil, err
		}
		links = append(links, &lk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}
	return links, nil
}

// AppliedFrom returns the cumulative amount applied across links from a header.
func (r *LedgerRepository) AppliedFrom(ctx context.Context, headerID int64) (decimal.Decimal, error) {
	links, err := r.LinksFrom(ctx, headerID)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, lk := range links {
		total = total.Add(lk.AmountApplied)
	}
	return total, nil
}

// SumLinesByAccount derives the true balance of one account from posted,
// non-voided lines. Decimal amounts are stored as TEXT, so the summation
// happens here rather than in SQL to avoid float drift.
func (r *LedgerRepository) SumLinesByAccount(ctx context.Context, accountID int64) (decimal.Decimal, error) {
	query := `
		SELECT l.amount
		FROM txn_line l
		JOIN txn_header h ON h.id = l.header_id
		WHERE l.account_id = ? AND h.is_posted = 1 AND h.is_voided = 0
	`
	return r.sumAmounts(ctx, query, accountID)
}

// TrialBalance returns the signed sum of every posted, non-voided line amount.
func (r *LedgerRepository) TrialBalance(ctx context.Context) (decimal.Decimal, error) {
	query := `
		SELECT l.amount
		FROM txn_line l
		JOIN txn_header h ON h.id = l.header_id
		WHERE h.is_posted = 1 AND h.is_voided = 0
	`
	return r.sumAmounts(ctx, query)
}

// TrialBalanceByAccount returns per-account debit/credit totals over posted,
// non-voided lines.
func (r *LedgerRepository) TrialBalanceByAccount(ctx context.Context) ([]*ledger.AccountTotal, error) {
	query := `
		SELECT a.id, a.name, l.amount
		FROM txn_line l
		JOIN txn_header h ON h.id = l.header_id
		JOIN account a ON a.id = l.account_id
		WHERE h.is_posted = 1 AND h.is_voided = 0
		ORDER BY a.id
	`

	rows, err := r.querier.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to compute trial balance by account", "error", err)
		return nil, fmt.Errorf("failed to compute trial balance by account: %w", err)
	}
	defer rows.Close()

	var (
		totals  []*ledger.AccountTotal
		current *ledger.AccountTotal
	)
	for rows.Next() {
		var (
			id     int64
			name   string
			amount sql.NullString
		)
		if err := rows.Scan(&id, &name, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan trial balance row: %w", err)
		}
		amt, err := parseDecimal(amount)
		if err != nil {
			return nil, err
		}

		if current == nil || current.AccountID != id {
			current = &ledger.AccountTotal{
				AccountID:   id,
				AccountName: name,
				Debits:      decimal.Zero,
				Credits:     decimal.Zero,
				Balance:     decimal.Zero,
			}
			totals = append(totals, current)
		}
		if amt.IsNegative() {
			current.Credits = current.Credits.Add(amt.Neg())
		} else {
			current.Debits = current.Debits.Add(amt)
		}
		current.Balance = current.Balance.Add(amt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to compute trial balance by account: %w", err)
	}
	return totals, nil
}

func (r *LedgerRepository) sumAmounts(ctx context.Context, query string, args ...interface{}) (decimal.Decimal, error) {
	rows, err := r.querier.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to sum line amounts", "error", err)
		return decimal.Zero, fmt.Errorf("failed to sum line amounts: %w", err)
	}
	defer rows.Close()

	sum := decimal.Zero
	for rows.Next() {
		var amount sql.NullString
		if err := rows.Scan(&amount); err != nil {
			return decimal.Zero, fmt.Errorf("failed to scan line amount: %w", err)
		}
		amt, err := parseDecimal(amount)
		if err != nil {
			return decimal.Zero, err
		}
		sum = sum.Add(amt)
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum line amounts: %w", err)
	}
	return sum, nil
}

func (r *LedgerRepository) scanHeader(row rowScanner) (*ledger.Header, error) {
	var (
		h                                ledger.Header
		date                             string
		docNumber, memo                  sql.NullString
		exchangeRate, totalAmount        sql.NullString
		customerID, vendorID, employeeID sql.NullInt64
	)
	err := row.Scan(&h.ID, &h.TypeID, &date, &docNumber, &memo, &h.Currency, &exchangeRate,
		&customerID, &vendorID, &employeeID, &h.Posted, &h.Voided, &h.Cleared, &h.Paid, &totalAmount)
	if err != nil {
		return nil, err
	}

	if h.Date, err = parseDate(date); err != nil {
		return nil, err
	}
	h.DocNumber = docNumber.String
	h.Memo = memo.String
	h.CustomerID = idOrZero(customerID)
	h.VendorID = idOrZero(vendorID)
	h.EmployeeID = idOrZero(employeeID)

	if h.ExchangeRate, err = parseDecimal(exchangeRate); err != nil {
		return nil, err
	}
	if h.TotalAmount, err = parseDecimal(totalAmount); err != nil {
		return nil, err
	}
	return &h, nil
}
