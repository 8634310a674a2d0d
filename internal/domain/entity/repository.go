package entity

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"
)

// AccountRepository defines account persistence operations.
type AccountRepository interface {
	Create(ctx context.Context, acc *Account) error
	GetByID(ctx context.Context, id int64) (*Account, error)
	Update(ctx context.Context, acc *Account) error
	List(ctx context.Context) ([]*Account, error)

	// UpdateBalance rewrites the cached balance of an account.
	UpdateBalance(ctx context.Context, id int64, balance decimal.Decimal) error

	WithTx(tx *sql.Tx) AccountRepository
}

// PartyRepository defines party persistence operations.
type PartyRepository interface {
	Create(ctx context.Context, p *Party) error
	GetByID(ctx context.Context, id int64) (*Party, error)
	Update(ctx context.Context, p *Party) error
	List(ctx context.Context, kind PartyKind) ([]*Party, error)

	WithTx(tx *sql.Tx) PartyRepository
}

// CatalogRepository defines persistence for items, tax codes and securities.
type CatalogRepository interface {
	CreateItem(ctx context.Context, it *Item) error
	GetItem(ctx context.Context, id int64) (*Item, error)
	UpdateItem(ctx context.Context, it *Item) error

	CreateTaxCode(ctx context.Context, tc *TaxCode) error
	GetTaxCode(ctx context.Context, id int64) (*TaxCode, error)

	CreateSecurity(ctx context.Context, sec *Security) error
	GetSecurity(ctx context.Context, id int64) (*Security, error)
	GetSecurityBySymbol(ctx context.Context, symbol string) (*Security, error)

	WithTx(tx *sql.Tx) CatalogRepository
}
