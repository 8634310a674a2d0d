package entity

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Item is a product or service referenced by transaction lines. ParentID
// forms a tree like the chart of accounts (0 = top-level).
type Item struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	ParentID  int64           `json:"parent_id,omitempty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	IsActive  bool            `json:"is_active"`
}

// TaxCode names a tax treatment with its rate.
type TaxCode struct {
	ID   int64           `json:"id"`
	Name string          `json:"name"`
	Rate decimal.Decimal `json:"rate"`
}

// ErrItemNotFound indicates a missing item.
type ErrItemNotFound struct {
	ItemID int64
}

func (e ErrItemNotFound) Error() string {
	return fmt.Sprintf("item not found: %d", e.ItemID)
}

// Is matches any ErrItemNotFound when the target carries no ID.
func (e ErrItemNotFound) Is(target error) bool {
	t, ok := target.(ErrItemNotFound)
	if !ok {
		return false
	}
	return t.ItemID == 0 || t.ItemID == e.ItemID
}

// ErrTaxCodeNotFound indicates a missing tax code.
type ErrTaxCodeNotFound struct {
	TaxCodeID int64
}

func (e ErrTaxCodeNotFound) Error() string {
	return fmt.Sprintf("tax code not found: %d", e.TaxCodeID)
}
