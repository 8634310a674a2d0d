package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/shopspring/decimal"

	"github.com/oaif-format/oaif/internal/domain/entity"
	"github.com/oaif-format/oaif/internal/domain/ledger"
	"github.com/oaif-format/oaif/internal/domain/shared"
	"github.com/oaif-format/oaif/internal/domain/types"
)

// Severity ranks a validation issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue codes reported by the validator.
const (
	CodeUnbalanced       = "UNBALANCED"
	CodeMissingReference = "MISSING_REFERENCE"
	CodeInvalidParty     = "INVALID_PARTY"
	CodeUnknownType      = "UNKNOWN_TYPE"
	CodeCurrencyMismatch = "CURRENCY_MISMATCH"
	CodeLineNumbers      = "LINE_NUMBERS"
	CodeTrialBalance     = "TRIAL_BALANCE"
	CodeBalanceDrift     = "BALANCE_DRIFT"
)

// ValidationIssue is one finding against a header, a line or the file as a
// whole. File-level issues carry a zero HeaderID.
type ValidationIssue struct {
	HeaderID   int64    `json:"header_id,omitempty"`
	LineNumber int      `json:"line_number,omitempty"`
	Code       string   `json:"code"`
	Severity   Severity `json:"severity"`
	Message    string   `json:"message"`
}

// FileReport is the outcome of one full-file validation run. Validation is
// read-only: running it twice on the same file yields the same issues.
type FileReport struct {
	RunID          string            `json:"run_id"`
	StartedAt      time.Time         `json:"started_at"`
	Duration       time.Duration     `json:"duration"`
	HeadersChecked int               `json:"headers_checked"`
	TrialBalance   decimal.Decimal   `json:"trial_balance"`
	Issues         []ValidationIssue `json:"issues"`
}

// Valid reports whether the run found no error-severity issues.
func (r *FileReport) Valid() bool {
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			return false
		}
	}
	return true
}

// Validator checks headers and whole files against the integrity rules
// without mutating anything.
type Validator struct {
	ledgerRepo   ledger.Repository
	accounts     entity.AccountRepository
	parties      entity.PartyRepository
	catalog      entity.CatalogRepository
	txnTypes     *TypeRegistry
	tolerance    decimal.Decimal
	baseCurrency string
	workers      int
	log          *slog.Logger
}

// NewValidator creates a validator. workers bounds the validation pool for
// full-file runs.
func NewValidator(
	logger *slog.Logger,
	ledgerRepo ledger.Repository,
	accounts entity.AccountRepository,
	parties entity.PartyRepository,
	catalog entity.CatalogRepository,
	txnTypes *TypeRegistry,
	tolerance decimal.Decimal,
	baseCurrency string,
	workers int,
) *Validator {
	if workers < 1 {
		workers = 1
	}
	return &Validator{
		ledgerRepo:   ledgerRepo,
		accounts:     accounts,
		parties:      parties,
		catalog:      catalog,
		txnTypes:     txnTypes,
		tolerance:    tolerance,
		baseCurrency: baseCurrency,
		workers:      workers,
		log:          logger,
	}
}

// ValidateHeader checks one header and its lines: zero-sum balance, resolvable
// references, party slots, currency consistency and line numbering.
func (v *Validator) ValidateHeader(ctx context.Context, headerID int64) ([]ValidationIssue, error) {
	h, err := v.ledgerRepo.GetHeader(ctx, headerID)
	if err != nil {
		return nil, err
	}
	lines, err := v.ledgerRepo.LinesByHeader(ctx, headerID)
	if err != nil {
		return nil, err
	}
	return v.checkHeader(ctx, h, lines)
}

// ValidateFile runs every integrity check over the whole file: each posted,
// non-voided header in parallel, then the global trial balance and the
// account balance caches. Issues come back in a deterministic order.
func (v *Validator) ValidateFile(ctx context.Context) (*FileReport, error) {
	report := &FileReport{
		RunID:     uuid.New().String(),
		StartedAt: time.Now().UTC(),
	}
	logger := v.log.With("run_id", report.RunID)
	logger.Info("File validation started")

	ids, err := v.ledgerRepo.ListPostedHeaderIDs(ctx)
	if err != nil {
		return nil, err
	}
	report.HeadersChecked = len(ids)

	pool, err := ants.NewPool(v.workers)
	if err != nil {
		return nil, fmt.Errorf("failed to create validation pool: %w", err)
	}
	defer pool.Release()

	var (
		mu        sync.Mutex
		wg        sync.WaitGroup
		issues    []ValidationIssue
		poolErr   error
		headerErr error
	)

	for _, id := range ids {
		headerID := id
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()

			found, err := v.ValidateHeader(ctx, headerID)
			mu.Lock()
			defer mu.Unlock()
			if err != nil && headerErr == nil {
				headerErr = fmt.Errorf("header %d: %w", headerID, err)
				return
			}
			issues = append(issues, found...)
		})
		if err != nil {
			wg.Done()
			poolErr = fmt.Errorf("failed to submit validation task: %w", err)
			break
		}
	}
	wg.Wait()

	if poolErr != nil {
		return nil, poolErr
	}
	if headerErr != nil {
		return nil, headerErr
	}

	fileIssues, tb, err := v.checkFileInvariants(ctx)
	if err != nil {
		return nil, err
	}
	report.TrialBalance = tb
	issues = append(issues, fileIssues...)

	sortIssues(issues)
	report.Issues = issues
	report.Duration = time.Since(report.StartedAt)

	logger.Info("File validation finished",
		"headers", report.HeadersChecked, "issues", len(issues), "valid", report.Valid(), "duration", report.Duration)
	return report, nil
}

func (v *Validator) checkHeader(ctx context.Context, h *ledger.Header, lines []*ledger.Line) ([]ValidationIssue, error) {
	var issues []ValidationIssue
	add := func(line int, code string, sev Severity, format string, args ...interface{}) {
		issues = append(issues, ValidationIssue{
			HeaderID:   h.ID,
			LineNumber: line,
			Code:       code,
			Severity:   sev,
			Message:    fmt.Sprintf(format, args...),
		})
	}

	sum := ledger.SumAmounts(lines)
	if !shared.WithinTolerance(sum, v.tolerance) {
		add(0, CodeUnbalanced, SeverityError, "line amounts sum to %s", sum.String())
	}

	if v.baseCurrency != "" && h.Currency != v.baseCurrency && h.ExchangeRate.IsZero() {
		add(0, CodeCurrencyMismatch, SeverityError,
			"transaction currency %s differs from base currency %s with no exchange rate", h.Currency, v.baseCurrency)
	}

	// An unregistered type id is a warning, not an error: records written
	// by a newer system must survive a read/write cycle here.
	if v.txnTypes.LookupName(h.TypeID) == types.PassthroughName {
		add(0, CodeUnknownType, SeverityWarning, "transaction type id %d is not registered in this file", h.TypeID)
	} else {
		cat, err := v.txnTypes.Category(ctx, h.TypeID)
		if err != nil {
			return nil, err
		}
		if cat.AffectsAR && h.CustomerID == 0 {
			add(0, CodeInvalidParty, SeverityError, "transaction type requires a customer")
		}
		if cat.AffectsAP && h.VendorID == 0 {
			add(0, CodeInvalidParty, SeverityError, "transaction type requires a vendor")
		}
	}

	if len(h.PartyIDs()) > 1 {
		add(0, CodeInvalidParty, SeverityError, "more than one of customer, vendor and employee is set")
	}
	for _, id := range h.PartyIDs() {
		if _, err := v.parties.GetByID(ctx, id); err != nil {
			if errors.Is(err, entity.ErrPartyNotFound{}) {
				add(0, CodeMissingReference, SeverityError, "header references nonexistent party %d", id)
				continue
			}
			return nil, err
		}
	}

	seen := make(map[int]bool, len(lines))
	for _, l := range lines {
		if seen[l.LineNumber] {
			add(l.LineNumber, CodeLineNumbers, SeverityError, "duplicate line number %d", l.LineNumber)
		}
		seen[l.LineNumber] = true

		if l.AccountID != 0 {
			acc, err := v.accounts.GetByID(ctx, l.AccountID)
			switch {
			case errors.Is(err, entity.ErrAccountNotFound{}):
				add(l.LineNumber, CodeMissingReference, SeverityError, "line references nonexistent account %d", l.AccountID)
			case err != nil:
				return nil, err
			case acc.Currency != h.Currency && h.ExchangeRate.IsZero():
				add(l.LineNumber, CodeCurrencyMismatch, SeverityError,
					"account %d is denominated in %s but the transaction is in %s with no exchange rate",
					l.AccountID, acc.Currency, h.Currency)
			}
		}
		if l.ItemID != 0 {
			if _, err := v.catalog.GetItem(ctx, l.ItemID); err != nil {
				if errors.Is(err, entity.ErrItemNotFound{}) {
					add(l.LineNumber, CodeMissingReference, SeverityError, "line references nonexistent item %d", l.ItemID)
					continue
				}
				return nil, err
			}
		}
		if l.SecurityID != 0 {
			if _, err := v.catalog.GetSecurity(ctx, l.SecurityID); err != nil {
				if errors.Is(err, entity.ErrSecurityNotFound{}) {
					add(l.LineNumber, CodeMissingReference, SeverityError, "line references nonexistent security %d", l.SecurityID)
					continue
				}
				return nil, err
			}
		}
	}

	return issues, nil
}

// checkFileInvariants verifies the global trial balance and the account
// balance caches against their derived truth.
func (v *Validator) checkFileInvariants(ctx context.Context) ([]ValidationIssue, decimal.Decimal, error) {
	var issues []ValidationIssue

	tb, err := v.ledgerRepo.TrialBalance(ctx)
	if err != nil {
		return nil, decimal.Zero, err
	}
	if !shared.WithinTolerance(tb, v.tolerance) {
		issues = append(issues, ValidationIssue{
			Code:     CodeTrialBalance,
			Severity: SeverityError,
			Message:  fmt.Sprintf("posted lines sum to %s across the file", tb.String()),
		})
	}

	accounts, err := v.accounts.List(ctx)
	if err != nil {
		return nil, decimal.Zero, err
	}
	for _, acc := range accounts {
		derived, err := v.ledgerRepo.SumLinesByAccount(ctx, acc.ID)
		if err != nil {
			return nil, decimal.Zero, err
		}
		if !acc.Balance.Equal(derived) {
			issues = append(issues, ValidationIssue{
				Code:     CodeBalanceDrift,
				Severity: SeverityWarning,
				Message: fmt.Sprintf("account %d caches balance %s but posted lines derive %s",
					acc.ID, acc.Balance.String(), derived.String()),
			})
		}
	}

	return issues, tb, nil
}

func sortIssues(issues []ValidationIssue) {
	sort.Slice(issues, func(i, j int) bool {
		a, b := issues[i], issues[j]
		if a.HeaderID != b.HeaderID {
			return a.HeaderID < b.HeaderID
		}
		if a.LineNumber != b.LineNumber {
			return a.LineNumber < b.LineNumber
		}
		if a.Code != b.Code {
			return a.Code < b.Code
		}
		return a.Message < b.Message
	})
}
