package dto

import (
	"cartera/internal/core/types"
	"cartera/internal/domain/account"
	"cartera/internal/domain/client"
)

// CreateClientRequest for adding a directory entry.
type CreateClientRequest struct {
	Code    string `json:"code" binding:"required"`
	Name    string `json:"name" binding:"required"`
	TaxID   string `json:"taxId" binding:"required"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`

	SellerID      *string `json:"sellerId,omitempty"`
	DistributorID *string `json:"distributorId,omitempty"`

	CreditLimit      types.Money `json:"creditLimit"`
	PaymentTermsDays int         `json:"paymentTermsDays"`
}

// ToEntity converts the request to a domain client.
func (r *CreateClientRequest) ToEntity() (*client.Client, error) {
	c := client.New(r.Code, r.Name)
	c.TaxID = r.TaxID
	c.Email = r.Email
	c.Phone = r.Phone
	c.Address = r.Address
	c.City = r.City
	c.CreditLimit = r.CreditLimit
	c.PaymentTermsDays = r.PaymentTermsDays

	var err error
	if c.SellerID, err = parseOptionalID(r.SellerID, "sellerId"); err != nil {
		return nil, err
	}
	if c.DistributorID, err = parseOptionalID(r.DistributorID, "distributorId"); err != nil {
		return nil, err
	}
	return c, nil
}

// UpdateClientRequest for modifying a directory entry.
type UpdateClientRequest struct {
	Name    *string `json:"name,omitempty"`
	Email   *string `json:"email,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Address *string `json:"address,omitempty"`
	City    *string `json:"city,omitempty"`

	SellerID      *string `json:"sellerId,omitempty"`
	DistributorID *string `json:"distributorId,omitempty"`

	CreditLimit      *types.Money `json:"creditLimit,omitempty"`
	PaymentTermsDays *int         `json:"paymentTermsDays,omitempty"`
	Version          int          `json:"version" binding:"required,min=1"`
}

// ApplyTo overlays the request onto an existing client.
func (r *UpdateClientRequest) ApplyTo(c *client.Client) error {
	if r.Name != nil {
		c.Name = *r.Name
	}
	if r.Email != nil {
		c.Email = *r.Email
	}
	if r.Phone != nil {
		c.Phone = *r.Phone
	}
	if r.Address != nil {
		c.Address = *r.Address
	}
	if r.City != nil {
		c.City = *r.City
	}
	var err error
	if r.SellerID != nil {
		if c.SellerID, err = parseOptionalID(r.SellerID, "sellerId"); err != nil {
			return err
		}
	}
	if r.DistributorID != nil {
		if c.DistributorID, err = parseOptionalID(r.DistributorID, "distributorId"); err != nil {
			return err
		}
	}
	if r.CreditLimit != nil {
		c.CreditLimit = *r.CreditLimit
	}
	if r.PaymentTermsDays != nil {
		c.PaymentTermsDays = *r.PaymentTermsDays
	}
	c.SetVersion(r.Version)
	return nil
}

// ClientResponse represents a client in API responses.
type ClientResponse struct {
	ID      string `json:"id"`
	Code    string `json:"code"`
	Name    string `json:"name"`
	TaxID   string `json:"taxId"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`

	SellerID      *string `json:"sellerId,omitempty"`
	DistributorID *string `json:"distributorId,omitempty"`

	CreditLimit      types.Money `json:"creditLimit"`
	PaymentTermsDays int         `json:"paymentTermsDays"`
	Version          int         `json:"version"`
}

// FromClient creates a response from a domain client.
func FromClient(c *client.Client) *ClientResponse {
	return &ClientResponse{
		ID:               c.ID.String(),
		Code:             c.Code,
		Name:             c.Name,
		TaxID:            c.TaxID,
		Email:            c.Email,
		Phone:            c.Phone,
		Address:          c.Address,
		City:             c.City,
		SellerID:         optionalIDString(c.SellerID),
		DistributorID:    optionalIDString(c.DistributorID),
		CreditLimit:      c.CreditLimit,
		PaymentTermsDays: c.PaymentTermsDays,
		Version:          c.Version,
	}
}

// BranchRequest for creating or updating a branch.
type BranchRequest struct {
	Name    string `json:"name" binding:"required"`
	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`
	Contact string `json:"contact,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

// BranchResponse represents a branch in API responses.
type BranchResponse struct {
	ID       string `json:"id"`
	ClientID string `json:"clientId"`
	Name     string `json:"name"`
	Address  string `json:"address,omitempty"`
	City     string `json:"city,omitempty"`
	Contact  string `json:"contact,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

// FromBranch creates a response from a domain branch.
func FromBranch(b *client.Branch) *BranchResponse {
	return &BranchResponse{
		ID:       b.ID.String(),
		ClientID: b.ClientID.String(),
		Name:     b.Name,
		Address:  b.Address,
		City:     b.City,
		Contact:  b.Contact,
		Phone:    b.Phone,
	}
}

// CreateAccountRequest for adding a payment account.
type CreateAccountRequest struct {
	Code     string `json:"code" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Kind     string `json:"kind" binding:"required"`
	BankName string `json:"bankName,omitempty"`
	Number   string `json:"number,omitempty"`
	Holder   string `json:"holder,omitempty"`
}

// ToEntity converts the request to a domain account.
func (r *CreateAccountRequest) ToEntity() *account.Account {
	a := account.New(r.Code, r.Name, account.Kind(r.Kind))
	a.BankName = r.BankName
	a.Number = r.Number
	a.Holder = r.Holder
	return a
}

// AccountResponse represents a payment account in API responses.
type AccountResponse struct {
	ID       string `json:"id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	BankName string `json:"bankName,omitempty"`
	Number   string `json:"number,omitempty"`
	Holder   string `json:"holder,omitempty"`
	Active   bool   `json:"active"`
}

// FromAccount creates a response from a domain account.
func FromAccount(a *account.Account) *AccountResponse {
	return &AccountResponse{
		ID:       a.ID.String(),
		Code:     a.Code,
		Name:     a.Name,
		Kind:     string(a.Kind),
		BankName: a.BankName,
		Number:   a.Number,
		Holder:   a.Holder,
		Active:   a.Active,
	}
}
