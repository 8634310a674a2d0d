package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// UnbalancedTransactionError indicates a header whose signed line amounts do
// not sum to zero within the balance tolerance.
type UnbalancedTransactionError struct {
	HeaderID int64
	Sum      decimal.Decimal
}

func (e UnbalancedTransactionError) Error() string {
	return fmt.Sprintf("transaction does not balance: line amounts sum to %s", e.Sum.String())
}

// Is matches any UnbalancedTransactionError when the target carries no ID.
func (e UnbalancedTransactionError) Is(target error) bool {
	t, ok := target.(UnbalancedTransactionError)
	if !ok {
		return false
	}
	return t.HeaderID == 0 || t.HeaderID == e.HeaderID
}

// MissingReferenceError indicates a line referencing a nonexistent account,
// item, party or security.
type MissingReferenceError struct {
	Kind       string // "account", "item", "party", "security", "header", "lot"
	ID         int64
	LineNumber int
}

func (e MissingReferenceError) Error() string {
	if e.LineNumber > 0 {
		return fmt.Sprintf("line %d references nonexistent %s %d", e.LineNumber, e.Kind, e.ID)
	}
	return fmt.Sprintf("reference to nonexistent %s %d", e.Kind, e.ID)
}

// Is matches any MissingReferenceError, or one of the same kind when the
// target names a kind but no ID.
func (e MissingReferenceError) Is(target error) bool {
	t, ok := target.(MissingReferenceError)
	if !ok {
		return false
	}
	if t.Kind != "" && t.Kind != e.Kind {
		return false
	}
	return t.ID == 0 || t.ID == e.ID
}

// DuplicateLineNumberError indicates two lines of the same transaction
// carrying the same caller-supplied line number.
type DuplicateLineNumberError struct {
	LineNumber int
}

func (e DuplicateLineNumberError) Error() string {
	return fmt.Sprintf("line number %d appears more than once", e.LineNumber)
}

// Is matches any DuplicateLineNumberError, or one for a specific number.
func (e DuplicateLineNumberError) Is(target error) bool {
	t, ok := target.(DuplicateLineNumberError)
	if !ok {
		return false
	}
	return t.LineNumber == 0 || t.LineNumber == e.LineNumber
}

// InvalidPartyError indicates a violation of the single-party rule: more than
// one of customer/vendor/employee populated, or a required party missing for
// the transaction type's category.
type InvalidPartyError struct {
	HeaderID int64
	Reason   string
}

func (e InvalidPartyError) Error() string {
	return fmt.Sprintf("invalid party references: %s", e.Reason)
}

// Is matches any InvalidPartyError when the target carries no ID.
func (e InvalidPartyError) Is(target error) bool {
	t, ok := target.(InvalidPartyError)
	if !ok {
		return false
	}
	return t.HeaderID == 0 || t.HeaderID == e.HeaderID
}

// OverappliedLinkError indicates that the cumulative amount applied from a
// header would exceed its total amount.
type OverappliedLinkError struct {
	FromHeaderID int64
	Total        decimal.Decimal
	Applied      decimal.Decimal
}

func (e OverappliedLinkError) Error() string {
	return fmt.Sprintf("links from header %d would apply %s against a total of %s",
		e.FromHeaderID, e.Applied.String(), e.Total.String())
}

// Is matches any OverappliedLinkError when the target carries no ID.
func (e OverappliedLinkError) Is(target error) bool {
	t, ok := target.(OverappliedLinkError)
	if !ok {
		return false
	}
	return t.FromHeaderID == 0 || t.FromHeaderID == e.FromHeaderID
}

// ErrHeaderNotFound indicates a missing transaction header.
type ErrHeaderNotFound struct {
	HeaderID int64
}

func (e ErrHeaderNotFound) Error() string {
	return fmt.Sprintf("transaction header not found: %d", e.HeaderID)
}

// Is matches any ErrHeaderNotFound when the target carries no ID.
func (e ErrHeaderNotFound) Is(target error) bool {
	t, ok := target.(ErrHeaderNotFound)
	if !ok {
		return false
	}
	return t.HeaderID == 0 || t.HeaderID == e.HeaderID
}
