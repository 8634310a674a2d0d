package engine

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/oaif-format/oaif/internal/domain/entity"
	"github.com/oaif-format/oaif/internal/domain/lots"
	"github.com/oaif-format/oaif/internal/domain/shared"
	"github.com/oaif-format/oaif/internal/platform/persistence"
)

// Acquisition describes one purchase of shares into an investment account.
type Acquisition struct {
	AccountID    int64           `json:"account_id"`
	SecurityID   int64           `json:"security_id"`
	Date         time.Time       `json:"date"`
	TxnID        int64           `json:"txn_id,omitempty"`
	Shares       decimal.Decimal `json:"shares"`
	CostPerShare decimal.Decimal `json:"cost_per_share"`
}

// Disposal describes one sale of shares out of an investment account. LotIDs
// supplies the consumption order for the SPECIFIC_LOT policy and is ignored
// otherwise.
type Disposal struct {
	AccountID  int64               `json:"account_id"`
	SecurityID int64               `json:"security_id"`
	Date       time.Time           `json:"date"`
	TxnID      int64               `json:"txn_id,omitempty"`
	Shares     decimal.Decimal     `json:"shares"`
	Proceeds   decimal.Decimal     `json:"proceeds"`
	Policy     lots.DisposalPolicy `json:"policy,omitempty"`
	LotIDs     []int64             `json:"lot_ids,omitempty"`
}

// CostBasisService tracks investment lots and matches disposals against them.
type CostBasisService struct {
	db            *persistence.SQLiteDB
	lots          lots.Repository
	catalog       entity.CatalogRepository
	accounts      entity.AccountRepository
	defaultPolicy lots.DisposalPolicy
	log           *slog.Logger
}

// NewCostBasisService creates a cost-basis service. defaultPolicy applies to
// disposals that do not name one.
func NewCostBasisService(
	logger *slog.Logger,
	db *persistence.SQLiteDB,
	lotRepo lots.Repository,
	catalog entity.CatalogRepository,
	accounts entity.AccountRepository,
	defaultPolicy lots.DisposalPolicy,
) *CostBasisService {
	return &CostBasisService{
		db:            db,
		lots:          lotRepo,
		catalog:       catalog,
		accounts:      accounts,
		defaultPolicy: defaultPolicy,
		log:           logger,
	}
}

// Acquire opens a new lot for a purchase. Shares and cost must be positive
// and the account and security must exist.
func (s *CostBasisService) Acquire(ctx context.Context, acq Acquisition) (*lots.Lot, error) {
	if !acq.Shares.IsPositive() {
		return nil, fmt.Errorf("acquired shares must be positive, got %s", acq.Shares.String())
	}
	if acq.CostPerShare.IsNegative() {
		return nil, fmt.Errorf("cost per share cannot be negative, got %s", acq.CostPerShare.String())
	}
	if _, err := s.accounts.GetByID(ctx, acq.AccountID); err != nil {
		return nil, err
	}
	if _, err := s.catalog.GetSecurity(ctx, acq.SecurityID); err != nil {
		return nil, err
	}

	lot := &lots.Lot{
		AccountID:        acq.AccountID,
		SecurityID:       acq.SecurityID,
		AcquisitionDate:  acq.Date,
		AcquisitionTxnID: acq.TxnID,
		SharesAcquired:   acq.Shares,
		CostPerShare:     acq.CostPerShare,
		SharesRemaining:  acq.Shares,
	}
	if err := s.lots.Create(ctx, lot); err != nil {
		return nil, err
	}

	s.log.Info("Lot acquired",
		"lot_id", lot.ID, "account_id", acq.AccountID, "security_id", acq.SecurityID, "shares", acq.Shares.String())
	return lot, nil
}

// Dispose matches a sale against open lots under the requested policy,
// consumes them in order, allocates the proceeds proportionally to the shares
// taken and returns the realized gain or loss. A sale larger than the open
// shares fails before any lot is touched.
func (s *CostBasisService) Dispose(ctx context.Context, d Disposal) (*lots.DisposalResult, error) {
	if !d.Shares.IsPositive() {
		return nil, fmt.Errorf("disposed shares must be positive, got %s", d.Shares.String())
	}
	policy := d.Policy
	if policy == "" {
		policy = s.defaultPolicy
	}

	var result *lots.DisposalResult
	err := s.db.ExecuteTx(ctx, func(tx *sql.Tx) error {
		repo := s.lots.WithTx(tx)

		candidates, err := s.candidateLots(ctx, repo, d, policy)
		if err != nil {
			return err
		}

		available := decimal.Zero
		for _, lot := range candidates {
			available = available.Add(lot.SharesRemaining)
		}
		if available.LessThan(d.Shares) {
			return lots.InsufficientSharesError{
				AccountID:  d.AccountID,
				SecurityID: d.SecurityID,
				Requested:  d.Shares,
				Available:  available,
			}
		}

		result, err = consumeLots(ctx, repo, candidates, d)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Disposal matched",
		"account_id", d.AccountID, "security_id", d.SecurityID, "policy", string(policy),
		"shares", d.Shares.String(), "gain_loss", result.RealizedGainLoss.String())
	return result, nil
}

// Holdings returns every lot held in an account.
func (s *CostBasisService) Holdings(ctx context.Context, accountID int64) ([]*lots.Lot, error) {
	return s.lots.ListByAccount(ctx, accountID)
}

// OpenPosition returns the open shares and remaining cost basis for one
// (account, security) pair.
func (s *CostBasisService) OpenPosition(ctx context.Context, accountID, securityID int64) (shares, costBasis decimal.Decimal, err error) {
	open, err := s.lots.OpenLots(ctx, accountID, securityID)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	shares, costBasis = decimal.Zero, decimal.Zero
	for _, lot := range open {
		shares = shares.Add(lot.SharesRemaining)
		costBasis = costBasis.Add(lot.CostBasis())
	}
	return shares, costBasis, nil
}

// candidateLots selects and orders the lots a disposal may consume.
func (s *CostBasisService) candidateLots(ctx context.Context, repo lots.Repository, d Disposal, policy lots.DisposalPolicy) ([]*lots.Lot, error) {
	switch policy {
	case lots.FIFO, lots.LIFO:
		open, err := repo.OpenLots(ctx, d.AccountID, d.SecurityID)
		if err != nil {
			return nil, err
		}
		if policy == lots.LIFO {
			for i, j := 0, len(open)-1; i < j; i, j = i+1, j-1 {
				open[i], open[j] = open[j], open[i]
			}
		}
		return open, nil

	case lots.SpecificLot:
		if len(d.LotIDs) == 0 {
			return nil, fmt.Errorf("SPECIFIC_LOT disposal names no lots")
		}
		selected := make([]*lots.Lot, 0, len(d.LotIDs))
		for _, id := range d.LotIDs {
			lot, err := repo.GetByID(ctx, id)
			if err != nil {
				return nil, err
			}
			if lot.AccountID != d.AccountID || lot.SecurityID != d.SecurityID {
				return nil, fmt.Errorf("lot %d does not hold security %d in account %d", id, d.SecurityID, d.AccountID)
			}
			if !lot.Open() {
				return nil, lots.ErrLotNotFound{LotID: id}
			}
			selected = append(selected, lot)
		}
		return selected, nil

	default:
		return nil, fmt.Errorf("unknown disposal policy: %q", string(policy))
	}
}

// consumeLots walks the ordered candidates, taking shares until the disposal
// is filled. Proceeds are allocated proportionally to shares taken; the last
// consumption absorbs the rounding remainder so the allocations sum exactly
// to the proceeds.
func consumeLots(ctx context.Context, repo lots.Repository, candidates []*lots.Lot, d Disposal) (*lots.DisposalResult, error) {
	result := &lots.DisposalResult{RealizedGainLoss: decimal.Zero}

	remaining := d.Shares
	allocated := decimal.Zero

	for _, lot := range candidates {
		if remaining.IsZero() {
			break
		}

		take := lot.SharesRemaining
		if take.GreaterThan(remaining) {
			take = remaining
		}
		remaining = remaining.Sub(take)

		costBasis := take.Mul(lot.CostPerShare)

		var proceeds decimal.Decimal
		if remaining.IsZero() {
			proceeds = d.Proceeds.Sub(allocated)
		} else {
			proceeds = d.Proceeds.Mul(take).Div(d.Shares).Round(shared.MoneyScale)
		}
		allocated = allocated.Add(proceeds)

		gain := proceeds.Sub(costBasis)
		result.Consumed = append(result.Consumed, lots.Consumption{
			LotID:             lot.ID,
			SharesTaken:       take,
			CostBasis:         costBasis,
			ProceedsAllocated: proceeds,
		})
		result.RealizedGainLoss = result.RealizedGainLoss.Add(gain)

		lot.SharesRemaining = lot.SharesRemaining.Sub(take)
		lot.RealizedGainLoss = lot.RealizedGainLoss.Add(gain)
		if lot.SharesRemaining.IsZero() {
			disposalDate := d.Date
			lot.DisposalDate = &disposalDate
			lot.DisposalTxnID = d.TxnID
		}
		if err := repo.Update(ctx, lot); err != nil {
			return nil, err
		}
	}
	return result, nil
}
