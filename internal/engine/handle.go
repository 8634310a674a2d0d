package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/oaif-format/oaif/internal/data/sqlite"
	"github.com/oaif-format/oaif/internal/domain/lots"
	"github.com/oaif-format/oaif/internal/domain/shared"
	"github.com/oaif-format/oaif/internal/domain/types"
	"github.com/oaif-format/oaif/internal/platform/persistence"
)

// Options tunes an opened handle. Zero values fall back to the defaults.
type Options struct {
	ReadOnly              bool
	BalanceTolerance      decimal.Decimal
	DefaultDisposalPolicy lots.DisposalPolicy
	ValidationWorkers     int
}

func (o *Options) withDefaults() Options {
	opts := *o
	if opts.BalanceTolerance.IsZero() {
		opts.BalanceTolerance = decimal.RequireFromString(shared.DefaultBalanceTolerance)
	}
	if opts.DefaultDisposalPolicy == "" {
		opts.DefaultDisposalPolicy = lots.FIFO
	}
	if opts.ValidationWorkers < 1 {
		opts.ValidationWorkers = 4
	}
	return opts
}

// Handle is one open ledger file with its services. Type registries are
// built per handle because numeric type ids are local to the file; nothing
// learned from one handle may be used against another.
type Handle struct {
	db *persistence.SQLiteDB

	AccountTypes     *TypeRegistry
	TransactionTypes *TypeRegistry
	Entities         *EntityStore
	Ledger           *LedgerService
	CostBasis        *CostBasisService
	Extensions       *ExtensionService
	Validator        *Validator

	log *slog.Logger
}

// Open opens an existing ledger file and builds its services.
func Open(ctx context.Context, logger *slog.Logger, path string, opts Options) (*Handle, error) {
	db, err := persistence.Open(ctx, logger, path, opts.ReadOnly)
	if err != nil {
		return nil, err
	}
	h, err := newHandle(ctx, logger, db, opts)
	if err != nil {
		db.Close()
		return nil, err
	}
	return h, nil
}

// Create creates a fresh ledger file with its schema and standard types, then
// builds its services.
func Create(ctx context.Context, logger *slog.Logger, path string, meta persistence.CreateMeta, opts Options) (*Handle, error) {
	db, err := persistence.Create(ctx, logger, path, meta)
	if err != nil {
		return nil, err
	}
	h, err := newHandle(ctx, logger, db, opts)
	if err != nil {
		db.Close()
		return nil, err
	}
	return h, nil
}

func newHandle(ctx context.Context, logger *slog.Logger, db *persistence.SQLiteDB, opts Options) (*Handle, error) {
	opts = opts.withDefaults()

	metadata, err := db.Metadata(ctx)
	if err != nil {
		return nil, err
	}
	baseCurrency := metadata[persistence.MetaBaseCurrency]

	accountTypeRepo, err := sqlite.NewTypeRepository(logger, db, types.TableAccountType)
	if err != nil {
		return nil, err
	}
	txnTypeRepo, err := sqlite.NewTypeRepository(logger, db, types.TableTransactionType)
	if err != nil {
		return nil, err
	}

	accountTypes, err := NewTypeRegistry(ctx, logger, accountTypeRepo, types.TableAccountType)
	if err != nil {
		return nil, err
	}
	txnTypes, err := NewTypeRegistry(ctx, logger, txnTypeRepo, types.TableTransactionType)
	if err != nil {
		return nil, err
	}

	accounts := sqlite.NewAccountRepository(logger, db)
	parties := sqlite.NewPartyRepository(logger, db)
	catalog := sqlite.NewCatalogRepository(logger, db)
	ledgerRepo := sqlite.NewLedgerRepository(logger, db)
	lotRepo := sqlite.NewLotRepository(logger, db)
	extensionRepo := sqlite.NewExtensionRepository(logger, db)

	h := &Handle{
		db:               db,
		AccountTypes:     accountTypes,
		TransactionTypes: txnTypes,
		log:              logger,
	}
	h.Entities = NewEntityStore(logger, accounts, parties, catalog, ledgerRepo, accountTypes)
	h.Ledger = NewLedgerService(logger, db, ledgerRepo, accounts, parties, catalog, txnTypes, accountTypes, opts.BalanceTolerance)
	h.CostBasis = NewCostBasisService(logger, db, lotRepo, catalog, accounts, opts.DefaultDisposalPolicy)
	h.Extensions = NewExtensionService(logger, extensionRepo)
	h.Validator = NewValidator(logger, ledgerRepo, accounts, parties, catalog, txnTypes,
		opts.BalanceTolerance, baseCurrency, opts.ValidationWorkers)

	logger.Info("Ledger file opened", "path", db.Path(), "base_currency", baseCurrency)
	return h, nil
}

// Path returns the file path behind the handle.
func (h *Handle) Path() string {
	return h.db.Path()
}

// Metadata returns the file's metadata table.
func (h *Handle) Metadata(ctx context.Context) (map[string]string, error) {
	return h.db.Metadata(ctx)
}

// SetMetadata writes one metadata key.
func (h *Handle) SetMetadata(ctx context.Context, key, value string) error {
	if key == "" {
		return fmt.Errorf("metadata key is empty")
	}
	return h.db.SetMetadata(ctx, key, value)
}

// Close releases the underlying database.
func (h *Handle) Close() error {
	return h.db.Close()
}
