package client

import (
	"context"

	"cartera/internal/core/apperror"
	"cartera/internal/core/entity"
	"cartera/internal/core/id"
	"cartera/internal/core/types"
)

// Client is a customer in the collections directory. Invoices reference a
// client and optionally one of its branches.
type Client struct {
	entity.Catalog

	TaxID   string `db:"tax_id" json:"taxId"`
	Email   string `db:"email" json:"email,omitempty"`
	Phone   string `db:"phone" json:"phone,omitempty"`
	Address string `db:"address" json:"address,omitempty"`
	City    string `db:"city" json:"city,omitempty"`

	// Default assignment copied onto new invoices.
	SellerID      *id.ID `db:"seller_id" json:"sellerId,omitempty"`
	DistributorID *id.ID `db:"distributor_id" json:"distributorId,omitempty"`

	CreditLimit      types.Money `db:"credit_limit" json:"creditLimit"`
	PaymentTermsDays int         `db:"payment_terms_days" json:"paymentTermsDays"`
}

// New creates a client with the given code and name.
func New(code, name string) *Client {
	return &Client{Catalog: entity.NewCatalog(code, name)}
}

// TableName returns the database table name.
func (c *Client) TableName() string {
	return "clients"
}

// Validate checks client business rules.
func (c *Client) Validate(ctx context.Context) error {
	if err := c.Catalog.Validate(ctx); err != nil {
		return err
	}
	if c.TaxID == "" {
		return apperror.NewValidation("client tax id is required")
	}
	if c.CreditLimit.IsNegative() {
		return apperror.NewValidation("credit limit cannot be negative")
	}
	if c.PaymentTermsDays < 0 {
		return apperror.NewValidation("payment terms cannot be negative")
	}
	return nil
}

// Branch is a delivery location of a client.
type Branch struct {
	entity.BaseEntity

	ClientID id.ID  `db:"client_id" json:"clientId"`
	Name     string `db:"name" json:"name"`
	Address  string `db:"address" json:"address,omitempty"`
	City     string `db:"city" json:"city,omitempty"`
	Contact  string `db:"contact" json:"contact,omitempty"`
	Phone    string `db:"phone" json:"phone,omitempty"`
}

// NewBranch creates a branch for the given client.
func NewBranch(clientID id.ID, name string) *Branch {
	return &Branch{
		BaseEntity: entity.NewBaseEntity(),
		ClientID:   clientID,
		Name:       name,
	}
}

// TableName returns the database table name.
func (b *Branch) TableName() string {
	return "client_branches"
}

// Validate checks branch business rules.
func (b *Branch) Validate(ctx context.Context) error {
	if id.IsNil(b.ClientID) {
		return apperror.NewValidation("branch must reference a client")
	}
	if b.Name == "" {
		return apperror.NewValidation("branch name is required")
	}
	return nil
}
