// Package entity defines the master-data records of an accounting file:
// accounts, parties, items, tax codes and securities.
package entity

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Common validation errors
var (
	ErrEmptyName             = fmt.Errorf("name cannot be empty")
	ErrInvalidCurrencyFormat = fmt.Errorf("currency must be a 3-letter code")
)

// Account is one node of the chart of accounts. ParentID forms a tree
// (0 = top-level). Balance is a cache of the sum of posted, non-voided line
// amounts against the account; it is never a source of truth and can be
// re-derived at any time.
type Account struct {
	ID       int64           `json:"id"`
	TypeID   int64           `json:"type_id"`
	Code     string          `json:"code,omitempty"`
	Name     string          `json:"name"`
	ParentID int64           `json:"parent_id,omitempty"`
	Currency string          `json:"currency"`
	Balance  decimal.Decimal `json:"balance"`
	IsActive bool            `json:"is_active"`
}

// NewAccount creates an account with the given parameters.
func NewAccount(typeID int64, name, code, currency string) (*Account, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	if len(currency) != 3 {
		return nil, ErrInvalidCurrencyFormat
	}
	return &Account{
		TypeID:   typeID,
		Code:     code,
		Name:     name,
		Currency: currency,
		Balance:  decimal.Zero,
		IsActive: true,
	}, nil
}

// ErrAccountNotFound indicates a missing account.
type ErrAccountNotFound struct {
	AccountID int64
}

func (e ErrAccountNotFound) Error() string {
	return fmt.Sprintf("account not found: %d", e.AccountID)
}

// Is matches any ErrAccountNotFound when the target carries no ID.
func (e ErrAccountNotFound) Is(target error) bool {
	t, ok := target.(ErrAccountNotFound)
	if !ok {
		return false
	}
	return t.AccountID == 0 || t.AccountID == e.AccountID
}

// CycleDetectedError indicates a parent assignment that would create a cycle
// in the account or item hierarchy. It is raised before any mutation happens.
type CycleDetectedError struct {
	EntityID int64
	ParentID int64
}

func (e CycleDetectedError) Error() string {
	return fmt.Sprintf("assigning parent %d to entity %d would create a cycle", e.ParentID, e.EntityID)
}
