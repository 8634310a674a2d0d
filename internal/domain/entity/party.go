package entity

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PartyKind discriminates the business role of a party record.
type PartyKind string

const (
	PartyCustomer PartyKind = "customer"
	PartyVendor   PartyKind = "vendor"
	PartyEmployee PartyKind = "employee"
)

// Valid reports whether k is one of the known party kinds.
func (k PartyKind) Valid() bool {
	switch k {
	case PartyCustomer, PartyVendor, PartyEmployee:
		return true
	default:
		return false
	}
}

// Party is a customer, vendor or employee. Balance is a cache in the same
// sense as Account.Balance.
type Party struct {
	ID       int64           `json:"id"`
	Kind     PartyKind       `json:"kind"`
	Name     string          `json:"name"`
	Email    string          `json:"email,omitempty"`
	Balance  decimal.Decimal `json:"balance"`
	IsActive bool            `json:"is_active"`
}

// NewParty creates an active party of the given kind.
func NewParty(kind PartyKind, name, email string) (*Party, error) {
	if !kind.Valid() {
		return nil, ErrInvalidPartyKind{Kind: kind}
	}
	if name == "" {
		return nil, ErrEmptyName
	}
	return &Party{
		Kind:     kind,
		Name:     name,
		Email:    email,
		Balance:  decimal.Zero,
		IsActive: true,
	}, nil
}

// ErrPartyNotFound indicates a missing party.
type ErrPartyNotFound struct {
	PartyID int64
}

func (e ErrPartyNotFound) Error() string {
	return fmt.Sprintf("party not found: %d", e.PartyID)
}

// Is matches any ErrPartyNotFound when the target carries no ID.
func (e ErrPartyNotFound) Is(target error) bool {
	t, ok := target.(ErrPartyNotFound)
	if !ok {
		return false
	}
	return t.PartyID == 0 || t.PartyID == e.PartyID
}

// ErrInvalidPartyKind indicates an unrecognized party kind.
type ErrInvalidPartyKind struct {
	Kind PartyKind
}

func (e ErrInvalidPartyKind) Error() string {
	return fmt.Sprintf("invalid party kind: %q", string(e.Kind))
}
