package entity

// Contact holds the customer's reachable details
type Contact struct {
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	TaxID   string `json:"taxId"`
}

// IsEmpty reports whether no contact field is filled
func (c Contact) IsEmpty() bool {
	return c.Address == "" && c.Phone == "" && c.Email == "" && c.TaxID == ""
}

// Customer is a billed party, identified by a stable "CUST-<n>" id
type Customer struct {
	ID      string  `json:"customerId"`
	Name    string  `json:"name"`
	Contact Contact `json:"contact"`
}
