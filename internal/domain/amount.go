package domain

import "github.com/shopspring/decimal"

// Amount is a money value at the currency's fixed 3-decimal precision. It
// behaves like decimal.Decimal everywhere (arithmetic, SQL scan/value) but
// always renders JSON with exactly three decimal places, so "3.500" never
// degrades to "3.5" on the wire.
type Amount struct {
	decimal.Decimal
}

func NewAmount(d decimal.Decimal) Amount {
	return Amount{d.Round(3)}
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.StringFixed(3) + `"`), nil
}
