package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Line is one signed entry of a header: positive = debit, negative = credit.
// At least one of AccountID / ItemID must be set (0 = unset). The investment
// fields are only populated on security lines.
type Line struct {
	ID            int64           `json:"id"`
	HeaderID      int64           `json:"header_id"`
	LineNumber    int             `json:"line_number"`
	AccountID     int64           `json:"account_id,omitempty"`
	ItemID        int64           `json:"item_id,omitempty"`
	Description   string          `json:"description,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	SecurityID    int64           `json:"security_id,omitempty"`
	Shares        decimal.Decimal `json:"shares,omitempty"`
	PricePerShare decimal.Decimal `json:"price_per_share,omitempty"`
	LotID         int64           `json:"lot_id,omitempty"`
}

// Validate checks the intrinsic shape of a line (references against the
// entity store are the ledger service's job).
func (l *Line) Validate() error {
	if l.AccountID == 0 && l.ItemID == 0 {
		return fmt.Errorf("line %d: at least one of account or item is required", l.LineNumber)
	}
	if l.LineNumber <= 0 {
		return fmt.Errorf("line %d: line number must be positive", l.LineNumber)
	}
	return nil
}

// SumAmounts returns the signed sum over a set of lines.
func SumAmounts(lines []*Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Amount)
	}
	return sum
}
