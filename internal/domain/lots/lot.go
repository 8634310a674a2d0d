// Package lots defines investment cost-basis lots and disposal matching.
package lots

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Lot is a discrete acquisition batch of a security held in one account.
// It is created atomically with its acquisition transaction and consumed by
// disposal matching until SharesRemaining reaches zero, at which point the
// disposal metadata is stamped and the lot is closed.
type Lot struct {
	ID               int64           `json:"id"`
	AccountID        int64           `json:"account_id"`
	SecurityID       int64           `json:"security_id"`
	AcquisitionDate  time.Time       `json:"acquisition_date"`
	AcquisitionTxnID int64           `json:"acquisition_txn_id"`
	SharesAcquired   decimal.Decimal `json:"shares_acquired"`
	CostPerShare     decimal.Decimal `json:"cost_per_share"`
	SharesRemaining  decimal.Decimal `json:"shares_remaining"`
	DisposalDate     *time.Time      `json:"disposal_date,omitempty"`
	DisposalTxnID    int64           `json:"disposal_txn_id,omitempty"`
	RealizedGainLoss decimal.Decimal `json:"realized_gain_loss"`
}

// Open reports whether the lot still has shares to consume.
func (l *Lot) Open() bool {
	return l.SharesRemaining.IsPositive()
}

// CostBasis returns the remaining cost basis of the lot.
func (l *Lot) CostBasis() decimal.Decimal {
	return l.SharesRemaining.Mul(l.CostPerShare)
}

// DisposalPolicy selects which lots are consumed when shares are disposed.
type DisposalPolicy string

const (
	// FIFO consumes the oldest acquisitions first.
	FIFO DisposalPolicy = "FIFO"
	// LIFO consumes the newest acquisitions first.
	LIFO DisposalPolicy = "LIFO"
	// SpecificLot consumes lots in an ordering supplied by the caller.
	SpecificLot DisposalPolicy = "SPECIFIC_LOT"
)

// ParseDisposalPolicy parses a policy name.
func ParseDisposalPolicy(s string) (DisposalPolicy, error) {
	switch DisposalPolicy(s) {
	case FIFO, LIFO, SpecificLot:
		return DisposalPolicy(s), nil
	default:
		return "", fmt.Errorf("unknown disposal policy: %q", s)
	}
}

// Consumption records how much of one lot a disposal took.
type Consumption struct {
	LotID             int64           `json:"lot_id"`
	SharesTaken       decimal.Decimal `json:"shares_taken"`
	CostBasis         decimal.Decimal `json:"cost_basis"`
	ProceedsAllocated decimal.Decimal `json:"proceeds_allocated"`
}

// DisposalResult is the outcome of matching one disposal against open lots,
// in consumption order.
type DisposalResult struct {
	Consumed         []Consumption   `json:"consumed"`
	RealizedGainLoss decimal.Decimal `json:"realized_gain_loss"`
}

// InsufficientSharesError indicates a disposal larger than the open shares
// across candidate lots. The disposal is rejected outright; truncating it
// would corrupt cost-basis history.
type InsufficientSharesError struct {
	AccountID  int64
	SecurityID int64
	Requested  decimal.Decimal
	Available  decimal.Decimal
}

func (e InsufficientSharesError) Error() string {
	return fmt.Sprintf("cannot dispose %s shares of security %d in account %d: only %s remain open",
		e.Requested.String(), e.SecurityID, e.AccountID, e.Available.String())
}

// Is matches any InsufficientSharesError when the target carries no ids.
func (e InsufficientSharesError) Is(target error) bool {
	t, ok := target.(InsufficientSharesError)
	if !ok {
		return false
	}
	if t.AccountID != 0 && t.AccountID != e.AccountID {
		return false
	}
	return t.SecurityID == 0 || t.SecurityID == e.SecurityID
}

// ErrLotNotFound indicates a missing or closed lot.
type ErrLotNotFound struct {
	LotID int64
}

func (e ErrLotNotFound) Error() string {
	return fmt.Sprintf("investment lot not found: %d", e.LotID)
}

// Is matches any ErrLotNotFound when the target carries no ID.
func (e ErrLotNotFound) Is(target error) bool {
	t, ok := target.(ErrLotNotFound)
	if !ok {
		return false
	}
	return t.LotID == 0 || t.LotID == e.LotID
}
