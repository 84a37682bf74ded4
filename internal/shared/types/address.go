package types

// Address represents a Brazilian postal address.
type Address struct {
	PostalCode string `json:"postal_code,omitempty"` // CEP, format 00000-000
	State      string `json:"state,omitempty"`       // UF, two letters
	City       string `json:"city,omitempty"`
	District   string `json:"district,omitempty"`
	Street     string `json:"street,omitempty"`
	Number     string `json:"number,omitempty"`
	Complement string `json:"complement,omitempty"`
}

// IsZero reports whether no address field is set.
func (a Address) IsZero() bool {
	return a == Address{}
}
