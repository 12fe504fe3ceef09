package types

import "strings"

// Address is the shipping address captured at settlement time from the
// payment confirmation. Stored as jsonb on the order; never updated after.
type Address struct {
	Name       string `json:"name,omitempty"`
	Line1      string `json:"line1,omitempty"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
}

// IsZero reports whether no address fields were captured.
func (a Address) IsZero() bool {
	return a == Address{}
}

// OneLine renders the address as a single display string.
func (a Address) OneLine() string {
	parts := []string{}
	for _, part := range []string{a.Line1, a.Line2, a.City, a.State, a.PostalCode, a.Country} {
		if strings.TrimSpace(part) != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, ", ")
}
