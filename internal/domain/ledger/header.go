// Package ledger defines the transaction graph: headers, signed line entries
// and settlement links between headers.
package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the derived lifecycle state of a header.
type Status string

const (
	StatusDraft  Status = "DRAFT"
	StatusPosted Status = "POSTED"
	StatusPaid   Status = "PAID"
	StatusClosed Status = "CLOSED"
	StatusVoided Status = "VOIDED"
)

// Header is a transaction header. It exclusively owns its lines: a line has
// exactly one parent header and is destroyed with it. At most one of
// CustomerID / VendorID / EmployeeID may be set.
//
// The lifecycle is DRAFT -> POSTED -> {PAID | CLOSED}, with VOIDED reachable
// from any non-terminal state and itself terminal. The state is derived from
// the stored flags rather than stored separately.
type Header struct {
	ID           int64           `json:"id"`
	TypeID       int64           `json:"type_id"`
	Date         time.Time       `json:"date"`
	DocNumber    string          `json:"doc_number,omitempty"`
	Memo         string          `json:"memo,omitempty"`
	Currency     string          `json:"currency"`
	ExchangeRate decimal.Decimal `json:"exchange_rate"` // zero = not set
	CustomerID   int64           `json:"customer_id,omitempty"`
	VendorID     int64           `json:"vendor_id,omitempty"`
	EmployeeID   int64           `json:"employee_id,omitempty"`
	Posted       bool            `json:"posted"`
	Voided       bool            `json:"voided"`
	Cleared      bool            `json:"cleared"`
	Paid         bool            `json:"paid"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
}

// Status derives the lifecycle state from the stored flags.
func (h *Header) Status() Status {
	switch {
	case h.Voided:
		return StatusVoided
	case !h.Posted:
		return StatusDraft
	case h.Paid:
		return StatusPaid
	case h.Cleared:
		return StatusClosed
	default:
		return StatusPosted
	}
}

// PartyIDs returns the populated party references in customer, vendor,
// employee order.
func (h *Header) PartyIDs() []int64 {
	var ids []int64
	for _, id := range []int64{h.CustomerID, h.VendorID, h.EmployeeID} {
		if id != 0 {
			ids = append(ids, id)
		}
	}
	return ids
}

// Post transitions DRAFT -> POSTED.
func (h *Header) Post() error {
	if s := h.Status(); s != StatusDraft {
		return InvalidTransitionError{HeaderID: h.ID, From: s, To: StatusPosted}
	}
	h.Posted = true
	return nil
}

// MarkPaid transitions POSTED -> PAID.
func (h *Header) MarkPaid() error {
	if s := h.Status(); s != StatusPosted {
		return InvalidTransitionError{HeaderID: h.ID, From: s, To: StatusPaid}
	}
	h.Paid = true
	return nil
}

// Close transitions POSTED -> CLOSED.
func (h *Header) Close() error {
	if s := h.Status(); s != StatusPosted {
		return InvalidTransitionError{HeaderID: h.ID, From: s, To: StatusClosed}
	}
	h.Cleared = true
	return nil
}

// Void transitions any non-terminal state to VOIDED. The header stays in the
// file for the audit trail; a correction must be entered as a new transaction.
func (h *Header) Void() error {
	switch h.Status() {
	case StatusVoided:
		return InvalidTransitionError{HeaderID: h.ID, From: StatusVoided, To: StatusVoided}
	case StatusPaid, StatusClosed:
		return InvalidTransitionError{HeaderID: h.ID, From: h.Status(), To: StatusVoided}
	}
	h.Voided = true
	return nil
}

// InvalidTransitionError indicates a state-machine violation on a header.
type InvalidTransitionError struct {
	HeaderID int64
	From     Status
	To       Status
}

func (e InvalidTransitionError) Error() string {
	return fmt.Sprintf("header %d: invalid transition %s -> %s", e.HeaderID, e.From, e.To)
}
