package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/oaif-format/oaif/internal/domain/entity"
	"github.com/oaif-format/oaif/internal/domain/ledger"
	"github.com/oaif-format/oaif/internal/domain/shared"
	"github.com/oaif-format/oaif/internal/platform/persistence"
)

// Transaction is a header together with its lines.
type Transaction struct {
	Header *ledger.Header `json:"header"`
	Lines  []*ledger.Line `json:"lines"`
}

// LedgerService posts, voids and links transactions. Every mutation runs in
// one SQLite transaction: the header, its lines and the balance cache updates
// land together or not at all.
type LedgerService struct {
	db           *persistence.SQLiteDB
	ledgerRepo   ledger.Repository
	accounts     entity.AccountRepository
	parties      entity.PartyRepository
	catalog      entity.CatalogRepository
	txnTypes     *TypeRegistry
	accountTypes *TypeRegistry
	tolerance    decimal.Decimal
	log          *slog.Logger
}

// NewLedgerService creates a ledger service over the given repositories.
func NewLedgerService(
	logger *slog.Logger,
	db *persistence.SQLiteDB,
	ledgerRepo ledger.Repository,
	accounts entity.AccountRepository,
	parties entity.PartyRepository,
	catalog entity.CatalogRepository,
	txnTypes *TypeRegistry,
	accountTypes *TypeRegistry,
	tolerance decimal.Decimal,
) *LedgerService {
	return &LedgerService{
		db:           db,
		ledgerRepo:   ledgerRepo,
		accounts:     accounts,
		parties:      parties,
		catalog:      catalog,
		txnTypes:     txnTypes,
		accountTypes: accountTypes,
		tolerance:    tolerance,
		log:          logger,
	}
}

// PostTransaction validates a draft header and its lines, then atomically
// posts them: the signed line amounts must sum to zero within tolerance, every
// reference must resolve, and the party slots must satisfy the type's
// category. Line numbers are assigned sequentially when the caller left them
// zero. Balance caches of the touched accounts and parties are updated in the
// same transaction.
func (s *LedgerService) PostTransaction(ctx context.Context, h *ledger.Header, lines []*ledger.Line) error {
	if len(lines) == 0 {
		return fmt.Errorf("transaction has no lines")
	}
	seen := make(map[int]bool, len(lines))
	for i, l := range lines {
		if l.LineNumber == 0 {
			l.LineNumber = i + 1
		}
		if err := l.Validate(); err != nil {
			return err
		}
		if seen[l.LineNumber] {
			return ledger.DuplicateLineNumberError{LineNumber: l.LineNumber}
		}
		seen[l.LineNumber] = true
	}

	sum := ledger.SumAmounts(lines)
	if !shared.WithinTolerance(sum, s.tolerance) {
		return ledger.UnbalancedTransactionError{Sum: sum}
	}

	if _, err := s.txnTypes.NameOf(h.TypeID); err != nil {
		return err
	}
	cat, err := s.txnTypes.Category(ctx, h.TypeID)
	if err != nil {
		return err
	}
	if err := s.checkParties(ctx, h, cat.AffectsAR, cat.AffectsAP); err != nil {
		return err
	}

	if err := h.Post(); err != nil {
		return err
	}
	h.TotalAmount = totalAmount(lines)

	err = s.db.ExecuteTx(ctx, func(tx *sql.Tx) error {
		ledgerRepo := s.ledgerRepo.WithTx(tx)
		accounts := s.accounts.WithTx(tx)

		accountDeltas, err := s.checkLineReferences(ctx, tx, lines)
		if err != nil {
			return err
		}

		if err := ledgerRepo.CreateHeader(ctx, h); err != nil {
			return err
		}
		for _, l := range lines {
			l.HeaderID = h.ID
			if err := ledgerRepo.CreateLine(ctx, l); err != nil {
				return err
			}
		}

		if err := s.applyBalanceDeltas(ctx, tx, accounts, accountDeltas, h, false); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		// The header mutated in memory before the write; undo so the
		// caller can retry after fixing the input.
		h.Posted = false
		h.ID = 0
		return err
	}

	s.log.Info("Transaction posted", "header_id", h.ID, "lines", len(lines), "total", h.TotalAmount.String())
	return nil
}

// VoidTransaction marks a posted transaction void, keeping it in the file for
// the audit trail, and backs its effect out of the balance caches.
func (s *LedgerService) VoidTransaction(ctx context.Context, headerID int64) error {
	h, err := s.ledgerRepo.GetHeader(ctx, headerID)
	if err != nil {
		return err
	}
	lines, err := s.ledgerRepo.LinesByHeader(ctx, headerID)
	if err != nil {
		return err
	}
	if err := h.Void(); err != nil {
		return err
	}

	err = s.db.ExecuteTx(ctx, func(tx *sql.Tx) error {
		ledgerRepo := s.ledgerRepo.WithTx(tx)
		accounts := s.accounts.WithTx(tx)

		if err := ledgerRepo.UpdateHeaderFlags(ctx, h); err != nil {
			return err
		}

		deltas := make(map[int64]decimal.Decimal)
		for _, l := range lines {
			if l.AccountID != 0 {
				deltas[l.AccountID] = deltas[l.AccountID].Add(l.Amount)
			}
		}
		return s.applyBalanceDeltas(ctx, tx, accounts, deltas, h, true)
	})
	if err != nil {
		return err
	}

	s.log.Info("Transaction voided", "header_id", headerID)
	return nil
}

// MarkPaid transitions a posted transaction to PAID.
func (s *LedgerService) MarkPaid(ctx context.Context, headerID int64) error {
	return s.transition(ctx, headerID, (*ledger.Header).MarkPaid)
}

// CloseTransaction transitions a posted transaction to CLOSED.
func (s *LedgerService) CloseTransaction(ctx context.Context, headerID int64) error {
	return s.transition(ctx, headerID, (*ledger.Header).Close)
}

func (s *LedgerService) transition(ctx context.Context, headerID int64, fn func(*ledger.Header) error) error {
	h, err := s.ledgerRepo.GetHeader(ctx, headerID)
	if err != nil {
		return err
	}
	if err := fn(h); err != nil {
		return err
	}
	return s.ledgerRepo.UpdateHeaderFlags(ctx, h)
}

// LinkTransactions records a settlement edge from one posted transaction to
// another. The cumulative amount applied from the source must not exceed its
// total.
func (s *LedgerService) LinkTransactions(ctx context.Context, fromID, toID int64, linkType string, amount decimal.Decimal) (*ledger.Link, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("applied amount must be positive, got %s", amount.String())
	}

	from, err := s.ledgerRepo.GetHeader(ctx, fromID)
	if err != nil {
		return nil, err
	}
	to, err := s.ledgerRepo.GetHeader(ctx, toID)
	if err != nil {
		return nil, err
	}
	for _, h := range []*ledger.Header{from, to} {
		if st := h.Status(); st == ledger.StatusDraft || st == ledger.StatusVoided {
			return nil, fmt.Errorf("cannot link header %d in state %s", h.ID, st)
		}
	}

	var link *ledger.Link
	err = s.db.ExecuteTx(ctx, func(tx *sql.Tx) error {
		ledgerRepo := s.ledgerRepo.WithTx(tx)

		applied, err := ledgerRepo.AppliedFrom(ctx, fromID)
		if err != nil {
			return err
		}
		if applied.Add(amount).GreaterThan(from.TotalAmount) {
			return ledger.OverappliedLinkError{
				FromHeaderID: fromID,
				Total:        from.TotalAmount,
				Applied:      applied.Add(amount),
			}
		}

		link = &ledger.Link{FromHeaderID: fromID, ToHeaderID: toID, LinkType: linkType, AmountApplied: amount}
		return ledgerRepo.CreateLink(ctx, link)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Transactions linked", "from", fromID, "to", toID, "amount", amount.String())
	return link, nil
}

// GetTransaction returns a header with its lines.
func (s *LedgerService) GetTransaction(ctx context.Context, headerID int64) (*Transaction, error) {
	h, err := s.ledgerRepo.GetHeader(ctx, headerID)
	if err != nil {
		return nil, err
	}
	lines, err := s.ledgerRepo.LinesByHeader(ctx, headerID)
	if err != nil {
		return nil, err
	}
	return &Transaction{Header: h, Lines: lines}, nil
}

// ListTransactions returns headers in a date range, newest first.
func (s *LedgerService) ListTransactions(ctx context.Context, from, to time.Time, limit, offset int) ([]*ledger.Header, error) {
	// A zero upper bound means no upper bound, not year one.
	if to.IsZero() {
		to = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
	}
	if limit <= 0 {
		limit = 50
	}
	return s.ledgerRepo.ListHeaders(ctx, from, to, limit, offset)
}

// TrialBalance returns the per-account debit/credit report plus the global
// signed sum over posted, non-voided lines.
func (s *LedgerService) TrialBalance(ctx context.Context) ([]*ledger.AccountTotal, decimal.Decimal, error) {
	rows, err := s.ledgerRepo.TrialBalanceByAccount(ctx)
	if err != nil {
		return nil, decimal.Zero, err
	}
	total, err := s.ledgerRepo.TrialBalance(ctx)
	if err != nil {
		return nil, decimal.Zero, err
	}
	return rows, total, nil
}

// checkParties enforces the party rules: at most one of customer, vendor and
// employee set; each populated slot resolves to a party of that kind; and the
// type's category is satisfied.
func (s *LedgerService) checkParties(ctx context.Context, h *ledger.Header, affectsAR, affectsAP bool) error {
	if len(h.PartyIDs()) > 1 {
		return ledger.InvalidPartyError{HeaderID: h.ID, Reason: "more than one of customer, vendor and employee is set"}
	}
	if affectsAR && h.CustomerID == 0 {
		return ledger.InvalidPartyError{HeaderID: h.ID, Reason: "transaction type requires a customer"}
	}
	if affectsAP && h.VendorID == 0 {
		return ledger.InvalidPartyError{HeaderID: h.ID, Reason: "transaction type requires a vendor"}
	}

	for _, slot := range []struct {
		id   int64
		kind entity.PartyKind
	}{
		{h.CustomerID, entity.PartyCustomer},
		{h.VendorID, entity.PartyVendor},
		{h.EmployeeID, entity.PartyEmployee},
	} {
		if slot.id == 0 {
			continue
		}
		p, err := s.parties.GetByID(ctx, slot.id)
		if err != nil {
			if errors.Is(err, entity.ErrPartyNotFound{}) {
				return ledger.MissingReferenceError{Kind: "party", ID: slot.id}
			}
			return err
		}
		if p.Kind != slot.kind {
			return ledger.InvalidPartyError{
				HeaderID: h.ID,
				Reason:   fmt.Sprintf("party %d is a %s, not a %s", slot.id, p.Kind, slot.kind),
			}
		}
	}
	return nil
}

// checkLineReferences verifies every account, item and security a line points
// at and accumulates the per-account balance deltas of the batch.
func (s *LedgerService) checkLineReferences(ctx context.Context, tx *sql.Tx, lines []*ledger.Line) (map[int64]decimal.Decimal, error) {
	accounts := s.accounts.WithTx(tx)
	catalog := s.catalog.WithTx(tx)

	deltas := make(map[int64]decimal.Decimal)
	for _, l := range lines {
		if l.AccountID != 0 {
			if _, err := accounts.GetByID(ctx, l.AccountID); err != nil {
				if errors.Is(err, entity.ErrAccountNotFound{}) {
					return nil, ledger.MissingReferenceError{Kind: "account", ID: l.AccountID, LineNumber: l.LineNumber}
				}
				return nil, err
			}
			deltas[l.AccountID] = deltas[l.AccountID].Add(l.Amount)
		}
		if l.ItemID != 0 {
			if _, err := catalog.GetItem(ctx, l.ItemID); err != nil {
				if errors.Is(err, entity.ErrItemNotFound{}) {
					return nil, ledger.MissingReferenceError{Kind: "item", ID: l.ItemID, LineNumber: l.LineNumber}
				}
				return nil, err
			}
		}
		if l.SecurityID != 0 {
			if _, err := catalog.GetSecurity(ctx, l.SecurityID); err != nil {
				if errors.Is(err, entity.ErrSecurityNotFound{}) {
					return nil, ledger.MissingReferenceError{Kind: "security", ID: l.SecurityID, LineNumber: l.LineNumber}
				}
				return nil, err
			}
		}
	}
	return deltas, nil
}

// applyBalanceDeltas folds the batch's per-account deltas into the account
// balance caches, and the receivable/payable slice of the batch into the
// header's party cache. Reverse backs the same deltas out for a void.
func (s *LedgerService) applyBalanceDeltas(
	ctx context.Context,
	tx *sql.Tx,
	accounts entity.AccountRepository,
	deltas map[int64]decimal.Decimal,
	h *ledger.Header,
	reverse bool,
) error {
	partyDelta := decimal.Zero
	partyID := int64(0)

	for accountID, delta := range deltas {
		if reverse {
			delta = delta.Neg()
		}
		acc, err := accounts.GetByID(ctx, accountID)
		if err != nil {
			return err
		}
		if err := accounts.UpdateBalance(ctx, accountID, acc.Balance.Add(delta)); err != nil {
			return err
		}

		// Party balances track the receivable/payable accounts hit by
		// the batch: a customer's balance follows AR debits, a vendor's
		// follows AP credits.
		switch s.accountTypes.LookupName(acc.TypeID) {
		case "ACCOUNTS_RECEIVABLE":
			if h.CustomerID != 0 {
				partyID = h.CustomerID
				partyDelta = partyDelta.Add(delta)
			}
		case "ACCOUNTS_PAYABLE":
			if h.VendorID != 0 {
				partyID = h.VendorID
				partyDelta = partyDelta.Sub(delta)
			}
		}
	}

	if partyID != 0 && !partyDelta.IsZero() {
		parties := s.parties.WithTx(tx)
		p, err := parties.GetByID(ctx, partyID)
		if err != nil {
			return err
		}
		p.Balance = p.Balance.Add(partyDelta)
		if err := parties.Update(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func totalAmount(lines []*ledger.Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		if l.Amount.IsPositive() {
			total = total.Add(l.Amount)
		}
	}
	return total
}
