package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DateFormat is how dates are serialized in the container (ISO 8601 date).
const DateFormat = "2006-01-02"

// nullID maps the 0 sentinel used by the domain structs to SQL NULL.
func nullID(id int64) interface{} {
	if id == 0 {
		return nil
	}
	return id
}

// idOrZero maps SQL NULL back to the 0 sentinel.
func idOrZero(v sql.NullInt64) int64 {
	if !v.Valid {
		return 0
	}
	return v.Int64
}

// nullDecimal serializes a decimal, mapping zero-value "unset" fields to NULL.
func nullDecimal(d decimal.Decimal) interface{} {
	if d.IsZero() {
		return nil
	}
	return d.String()
}

// parseDecimal deserializes a decimal column, treating NULL and empty as zero.
func parseDecimal(v sql.NullString) (decimal.Decimal, error) {
	if !v.Valid || v.String == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(v.String)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal %q: %w", v.String, err)
	}
	return d, nil
}

// parseDate deserializes a date column.
func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}
