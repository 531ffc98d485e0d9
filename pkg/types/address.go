package types

import "strings"

// Address is the delivery address snapshot stored on an order.
type Address struct {
	Name   string `json:"name,omitempty"`
	Street string `json:"street,omitempty"`
	City   string `json:"city,omitempty"`
	State  string `json:"state,omitempty"`
	Zip    string `json:"zip,omitempty"`
	Phone  string `json:"phone,omitempty"`
}

// IsEmpty reports whether no component of the address is set.
func (a Address) IsEmpty() bool {
	return strings.TrimSpace(a.Street) == "" &&
		strings.TrimSpace(a.City) == "" &&
		strings.TrimSpace(a.Zip) == ""
}
