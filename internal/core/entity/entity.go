// Package entity provides base types shared by catalogs (reference data such
// as clients and payment accounts) and documents (business records such as
// invoices and payments).
package entity

import (
	"context"
	"time"

	"cartera/internal/core/apperror"
	"cartera/internal/core/id"
)

// Validatable is implemented by entities that support self-validation.
// Validation checks internal invariants (without database access).
type Validatable interface {
	// Validate checks entity invariants.
	// Returns nil if valid, AppError with details otherwise.
	Validate(ctx context.Context) error
}

// BaseEntity contains common fields for all entities.
type BaseEntity struct {
	// ID is the primary key (UUIDv7)
	ID id.ID `db:"id" json:"id"`

	// DeletionMark indicates soft-deleted entity
	DeletionMark bool `db:"deletion_mark" json:"deletionMark"`

	// Version for optimistic locking (incremented on each update)
	Version int `db:"version" json:"version"`
}

// NewBaseEntity creates a new BaseEntity with generated ID.
func NewBaseEntity() BaseEntity {
	return BaseEntity{
		ID:      id.New(),
		Version: 1,
	}
}

// Touch increments version (for optimistic locking).
func (b *BaseEntity) Touch() {
	b.Version++
}

// MarkDeleted sets the deletion mark.
func (b *BaseEntity) MarkDeleted() {
	b.DeletionMark = true
}

// SetVersion updates the version number (used by repository after sync).
func (b *BaseEntity) SetVersion(v int) {
	b.Version = v
}

// Document is the base type for business records with audit fields.
// Examples: Invoice, Payment, ImportBatch.
type Document struct {
	BaseEntity

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
	CreatedBy string    `db:"created_by" json:"createdBy,omitempty"`
	UpdatedBy string    `db:"updated_by" json:"updatedBy,omitempty"`
}

// NewDocument creates a new Document with generated ID and timestamps.
func NewDocument() Document {
	now := time.Now().UTC()
	return Document{
		BaseEntity: NewBaseEntity(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Touch updates the UpdatedAt timestamp and increments version.
func (d *Document) Touch() {
	d.UpdatedAt = time.Now().UTC()
	d.BaseEntity.Touch()
}

// Catalog is the base type for reference data.
// Examples: Client, PaymentAccount.
type Catalog struct {
	BaseEntity

	// Code is a human-readable identifier (unique)
	Code string `db:"code" json:"code"`

	// Name is the display name
	Name string `db:"name" json:"name"`
}

// NewCatalog creates a new Catalog with generated ID.
func NewCatalog(code, name string) Catalog {
	return Catalog{
		BaseEntity: NewBaseEntity(),
		Code:       code,
		Name:       name,
	}
}

// Validate implements Validatable.
func (c *Catalog) Validate(ctx context.Context) error {
	if c.Name == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	return nil
}
