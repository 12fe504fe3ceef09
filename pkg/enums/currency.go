package enums

import "strings"

// Currency is an ISO 4217 code. The marketplace settles in a single currency
// per order; amounts are integer minor units everywhere.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
)

// String implements fmt.Stringer.
func (c Currency) String() string {
	return string(c)
}

// Lower returns the lowercase form payment providers expect.
func (c Currency) Lower() string {
	return strings.ToLower(string(c))
}

// IsValid reports whether the value is a supported Currency.
func (c Currency) IsValid() bool {
	switch c {
	case CurrencyUSD, CurrencyEUR, CurrencyGBP:
		return true
	}
	return false
}
