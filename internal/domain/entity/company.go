package entity

// BankDetails printed in the payment block of a document
type BankDetails struct {
	AccountNumber string `json:"accountNumber" mapstructure:"account_number"`
	IFSC          string `json:"ifsc" mapstructure:"ifsc"`
	SwiftCode     string `json:"swiftCode" mapstructure:"swift_code"`
	BankName      string `json:"bankName" mapstructure:"bank_name"`
	Branch        string `json:"branch" mapstructure:"branch"`
	UPIID         string `json:"upiId" mapstructure:"upi_id"`
}

// IsEmpty reports whether no bank field is filled
func (b BankDetails) IsEmpty() bool {
	return b == BankDetails{}
}

// Company is read-only reference data for the issuing business
type Company struct {
	Name    string      `json:"name" mapstructure:"name"`
	Prefix  string      `json:"prefix" mapstructure:"prefix"`
	Address string      `json:"address" mapstructure:"address"`
	TaxID   string      `json:"taxId" mapstructure:"tax_id"`
	LogoRef string      `json:"logoRef" mapstructure:"logo_ref"`
	Bank    BankDetails `json:"bankDetails" mapstructure:"bank"`
}

// Snapshot copies the company as it is at bill creation
func (c Company) Snapshot() CompanySnapshot {
	return CompanySnapshot{
		Name:    c.Name,
		Prefix:  c.Prefix,
		Address: c.Address,
		TaxID:   c.TaxID,
		LogoRef: c.LogoRef,
		Bank:    c.Bank,
	}
}

// CompanySnapshot is the company data owned by one bill
type CompanySnapshot struct {
	Name    string      `json:"name"`
	Prefix  string      `json:"prefix"`
	Address string      `json:"address"`
	TaxID   string      `json:"taxId"`
	LogoRef string      `json:"logoRef"`
	Bank    BankDetails `json:"bankDetails"`
}
