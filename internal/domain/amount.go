package domain

import (
	"bytes"
	"strconv"

	"github.com/shopspring/decimal"
)

// Amount is a whole number of currency units. It decodes leniently: JSON
// numbers and numeric strings are accepted, fractions are truncated, and
// anything else (null, "", "n/a", booleans) decodes as 0 instead of failing.
type Amount int64

// Int64 returns the amount as a plain integer.
func (a Amount) Int64() int64 { return int64(a) }

// IsZero lets `omitzero` drop an absent income on write-back.
func (a Amount) IsZero() bool { return a == 0 }

func (a *Amount) UnmarshalJSON(data []byte) error {
	*a = ParseAmount(string(bytes.Trim(bytes.TrimSpace(data), `"`)))
	return nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return strconv.AppendInt(nil, int64(a), 10), nil
}

// ParseAmount converts free-form numeric text to an Amount, returning 0 when
// the text is not a number.
func ParseAmount(s string) Amount {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	return Amount(d.IntPart())
}
