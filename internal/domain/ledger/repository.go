package ledger

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// AccountTotal is one row of the trial-balance report.
type AccountTotal struct {
	AccountID   int64           `json:"account_id"`
	AccountName string          `json:"account_name"`
	Debits      decimal.Decimal `json:"debits"`
	Credits     decimal.Decimal `json:"credits"`
	Balance     decimal.Decimal `json:"balance"`
}

// Repository manages header, line and link persistence.
type Repository interface {
	CreateHeader(ctx context.Context, h *Header) error
	GetHeader(ctx context.Context, id int64) (*Header, error)
	UpdateHeaderFlags(ctx context.Context, h *Header) error
	ListHeaders(ctx context.Context, from, to time.Time, limit, offset int) ([]*Header, error)

	// ListPostedHeaderIDs returns the ids of all posted, non-voided headers
	// in ascending order.
	ListPostedHeaderIDs(ctx context.Context) ([]int64, error)

	CreateLine(ctx context.Context, l *Line) error
	LinesByHeader(ctx context.Context, headerID int64) ([]*Line, error)

	CreateLink(ctx context.Context, lk *Link) error
	LinksFrom(ctx context.Context, headerID int64) ([]*Link, error)
	// AppliedFrom returns the cumulative AmountApplied across links whose
	// source is the given header.
	AppliedFrom(ctx context.Context, headerID int64) (decimal.Decimal, error)

	// SumLinesByAccount returns the signed sum of posted, non-voided line
	// amounts against one account, the derivable truth behind the cached
	// account balance.
	SumLinesByAccount(ctx context.Context, accountID int64) (decimal.Decimal, error)

	// TrialBalance returns the signed sum of every posted, non-voided line
	// amount in the file. Zero (within tolerance) means the books balance.
	TrialBalance(ctx context.Context) (decimal.Decimal, error)

	// TrialBalanceByAccount returns per-account debit/credit totals over
	// posted, non-voided lines.
	TrialBalanceByAccount(ctx context.Context) ([]*AccountTotal, error)

	WithTx(tx *sql.Tx) Repository
}
