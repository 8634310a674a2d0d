package ledger

import (
	"github.com/shopspring/decimal"
)

// Link is a directed, weighted settlement edge between two headers, e.g. a
// payment applied to an invoice. A header may be the source or target of many
// links; the sum of AmountApplied across links from one header must not
// exceed that header's total amount.
type Link struct {
	ID            int64           `json:"id"`
	FromHeaderID  int64           `json:"from_header_id"`
	ToHeaderID    int64           `json:"to_header_id"`
	LinkType      string          `json:"link_type"`
	AmountApplied decimal.Decimal `json:"amount_applied"`
}
