package engine

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/oaif-format/oaif/internal/domain/entity"
	"github.com/oaif-format/oaif/internal/domain/ledger"
)

// EntityStore manages the reference records transactions point at: accounts,
// parties, items, tax codes and securities. Account parent edges are checked
// for cycles before any mutation lands.
type EntityStore struct {
	accounts     entity.AccountRepository
	parties      entity.PartyRepository
	catalog      entity.CatalogRepository
	ledgerRepo   ledger.Repository
	accountTypes *TypeRegistry
	log          *slog.Logger
}

// NewEntityStore creates an entity store over the given repositories.
func NewEntityStore(
	logger *slog.Logger,
	accounts entity.AccountRepository,
	parties entity.PartyRepository,
	catalog entity.CatalogRepository,
	ledgerRepo ledger.Repository,
	accountTypes *TypeRegistry,
) *EntityStore {
	return &EntityStore{
		accounts:     accounts,
		parties:      parties,
		catalog:      catalog,
		ledgerRepo:   ledgerRepo,
		accountTypes: accountTypes,
		log:          logger,
	}
}

// CreateAccount validates the account's type against the registry and its
// parent edge, then stores it.
func (s *EntityStore) CreateAccount(ctx context.Context, acc *entity.Account) error {
	if _, err := s.accountTypes.NameOf(acc.TypeID); err != nil {
		return err
	}
	if acc.ParentID != 0 {
		if _, err := s.accounts.GetByID(ctx, acc.ParentID); err != nil {
			return err
		}
	}
	if err := s.accounts.Create(ctx, acc); err != nil {
		return err
	}
	s.log.Info("Account created", "id", acc.ID, "name", acc.Name)
	return nil
}

// UpdateAccount stores changed account fields. A changed parent edge is
// rejected if it would close a cycle; the check runs before any write.
func (s *EntityStore) UpdateAccount(ctx context.Context, acc *entity.Account) error {
	if _, err := s.accountTypes.NameOf(acc.TypeID); err != nil {
		return err
	}
	if acc.ParentID != 0 {
		if err := s.checkParentCycle(ctx, acc.ID, acc.ParentID); err != nil {
			return err
		}
	}
	return s.accounts.Update(ctx, acc)
}

// GetAccount retrieves one account.
func (s *EntityStore) GetAccount(ctx context.Context, id int64) (*entity.Account, error) {
	return s.accounts.GetByID(ctx, id)
}

// ListAccounts returns every account in the file.
func (s *EntityStore) ListAccounts(ctx context.Context) ([]*entity.Account, error) {
	return s.accounts.List(ctx)
}

// ParentChain walks an account's ancestry from the account up to its root.
// The chain excludes the account itself.
func (s *EntityStore) ParentChain(ctx context.Context, id int64) ([]*entity.Account, error) {
	acc, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var chain []*entity.Account
	seen := map[int64]bool{acc.ID: true}
	for acc.ParentID != 0 {
		if seen[acc.ParentID] {
			return nil, entity.CycleDetectedError{EntityID: id, ParentID: acc.ParentID}
		}
		seen[acc.ParentID] = true

		acc, err = s.accounts.GetByID(ctx, acc.ParentID)
		if err != nil {
			return nil, err
		}
		chain = append(chain, acc)
	}
	return chain, nil
}

// checkParentCycle rejects a parent edge that would make the account its own
// ancestor. Walks the proposed ancestry with a visited set so an already
// corrupted chain cannot hang the check.
func (s *EntityStore) checkParentCycle(ctx context.Context, accountID, parentID int64) error {
	if parentID == accountID {
		return entity.CycleDetectedError{EntityID: accountID, ParentID: parentID}
	}

	seen := map[int64]bool{accountID: true}
	current := parentID
	for current != 0 {
		if seen[current] {
			return entity.CycleDetectedError{EntityID: accountID, ParentID: parentID}
		}
		seen[current] = true

		parent, err := s.accounts.GetByID(ctx, current)
		if err != nil {
			return err
		}
		current = parent.ParentID
	}
	return nil
}

// BalanceDrift is the outcome of re-deriving one account balance from its
// posted lines and comparing it with the stored cache.
type BalanceDrift struct {
	AccountID int64           `json:"account_id"`
	Cached    decimal.Decimal `json:"cached"`
	Derived   decimal.Decimal `json:"derived"`
	Drift     decimal.Decimal `json:"drift"`
}

// InSync reports whether the cache matches the derived truth exactly.
func (d BalanceDrift) InSync() bool {
	return d.Drift.IsZero()
}

// RecomputeBalance derives an account's true balance from its posted,
// non-voided lines and reports how far the cached column has drifted. The
// stored cache is left untouched; repairing it is the caller's decision.
func (s *EntityStore) RecomputeBalance(ctx context.Context, accountID int64) (*BalanceDrift, error) {
	acc, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	derived, err := s.ledgerRepo.SumLinesByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	return &BalanceDrift{
		AccountID: accountID,
		Cached:    acc.Balance,
		Derived:   derived,
		Drift:     acc.Balance.Sub(derived),
	}, nil
}

// RepairBalance rewrites the cached balance of one account from its derived
// truth and returns the drift that was repaired.
func (s *EntityStore) RepairBalance(ctx context.Context, accountID int64) (*BalanceDrift, error) {
	drift, err := s.RecomputeBalance(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if drift.InSync() {
		return drift, nil
	}
	if err := s.accounts.UpdateBalance(ctx, accountID, drift.Derived); err != nil {
		return nil, err
	}
	s.log.Warn("Account balance cache repaired",
		"account_id", accountID, "cached", drift.Cached.String(), "derived", drift.Derived.String())
	return drift, nil
}

// CreateParty stores a new customer, vendor or employee.
func (s *EntityStore) CreateParty(ctx context.Context, p *entity.Party) error {
	if !p.Kind.Valid() {
		return entity.ErrInvalidPartyKind{Kind: p.Kind}
	}
	return s.parties.Create(ctx, p)
}

// GetParty retrieves one party.
func (s *EntityStore) GetParty(ctx context.Context, id int64) (*entity.Party, error) {
	return s.parties.GetByID(ctx, id)
}

// ListParties returns the parties of one kind, or all parties when kind is
// empty.
func (s *EntityStore) ListParties(ctx context.Context, kind entity.PartyKind) ([]*entity.Party, error) {
	return s.parties.List(ctx, kind)
}

// CreateItem stores a new catalog item.
func (s *EntityStore) CreateItem(ctx context.Context, it *entity.Item) error {
	if it.Name == "" {
		return entity.ErrEmptyName
	}
	if it.ParentID != 0 {
		if _, err := s.catalog.GetItem(ctx, it.ParentID); err != nil {
			return err
		}
	}
	return s.catalog.CreateItem(ctx, it)
}

// GetItem retrieves one catalog item.
func (s *EntityStore) GetItem(ctx context.Context, id int64) (*entity.Item, error) {
	return s.catalog.GetItem(ctx, id)
}

// CreateTaxCode stores a new tax code.
func (s *EntityStore) CreateTaxCode(ctx context.Context, tc *entity.TaxCode) error {
	if tc.Name == "" {
		return entity.ErrEmptyName
	}
	return s.catalog.CreateTaxCode(ctx, tc)
}

// CreateSecurity stores a new security, rejecting duplicate symbols.
func (s *EntityStore) CreateSecurity(ctx context.Context, sec *entity.Security) error {
	existing, err := s.catalog.GetSecurityBySymbol(ctx, sec.Symbol)
	if err != nil {
		return err
	}
	if existing != nil {
		return entity.ErrDuplicateSymbol{Symbol: sec.Symbol, ExistingID: existing.ID}
	}
	return s.catalog.CreateSecurity(ctx, sec)
}

// GetSecurity retrieves one security.
func (s *EntityStore) GetSecurity(ctx context.Context, id int64) (*entity.Security, error) {
	return s.catalog.GetSecurity(ctx, id)
}

// ResolveAccountType returns the type name behind an account's type id,
// falling back to the passthrough marker for ids this file does not know.
func (s *EntityStore) ResolveAccountType(acc *entity.Account) string {
	return s.accountTypes.LookupName(acc.TypeID)
}
