package entity

import "fmt"

// Security identifies a tradable instrument referenced by investment lines
// and lots.
type Security struct {
	ID       int64  `json:"id"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Currency string `json:"currency"`
}

// NewSecurity creates a security record.
func NewSecurity(symbol, name, currency string) (*Security, error) {
	if symbol == "" {
		return nil, ErrEmptyName
	}
	if len(currency) != 3 {
		return nil, ErrInvalidCurrencyFormat
	}
	return &Security{Symbol: symbol, Name: name, Currency: currency}, nil
}

// ErrDuplicateSymbol indicates a second security registered under an
// existing symbol.
type ErrDuplicateSymbol struct {
	Symbol     string
	ExistingID int64
}

func (e ErrDuplicateSymbol) Error() string {
	return fmt.Sprintf("security symbol %q already exists with id %d", e.Symbol, e.ExistingID)
}

// ErrSecurityNotFound indicates a missing security.
type ErrSecurityNotFound struct {
	SecurityID int64
}

func (e ErrSecurityNotFound) Error() string {
	return fmt.Sprintf("security not found: %d", e.SecurityID)
}

// Is matches any ErrSecurityNotFound when the target carries no ID.
func (e ErrSecurityNotFound) Is(target error) bool {
	t, ok := target.(ErrSecurityNotFound)
	if !ok {
		return false
	}
	return t.SecurityID == 0 || t.SecurityID == e.SecurityID
}
