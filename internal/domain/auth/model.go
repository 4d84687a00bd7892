package auth

import (
	"context"
	"net/mail"
	"slices"

	"golang.org/x/crypto/bcrypt"

	"cartera/internal/core/apperror"
	"cartera/internal/core/entity"
)

// User is an operator of the back office.
type User struct {
	entity.BaseEntity

	Email        string   `db:"email" json:"email"`
	Name         string   `db:"name" json:"name"`
	PasswordHash string   `db:"password_hash" json:"-"`
	Roles        []string `db:"roles" json:"roles"`
	Active       bool     `db:"active" json:"active"`
}

// NewUser creates an active user without a password set.
func NewUser(email, name string, roles []string) *User {
	return &User{
		BaseEntity: entity.NewBaseEntity(),
		Email:      email,
		Name:       name,
		Roles:      roles,
		Active:     true,
	}
}

// TableName returns the database table name.
func (u *User) TableName() string {
	return "users"
}

// Validate checks user business rules.
func (u *User) Validate(ctx context.Context) error {
	if _, err := mail.ParseAddress(u.Email); err != nil {
		return apperror.NewValidation("invalid email address").
			WithDetail("email", u.Email)
	}
	if u.Name == "" {
		return apperror.NewValidation("user name is required")
	}
	if len(u.Roles) == 0 {
		return apperror.NewValidation("user needs at least one role")
	}
	return nil
}

// HasRole reports whether the user holds the role.
func (u *User) HasRole(role string) bool {
	return slices.Contains(u.Roles, role)
}

// SetPassword hashes and stores the password.
func (u *User) SetPassword(plain string) error {
	if len(plain) < 8 {
		return apperror.NewValidation("password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return apperror.NewInternal(err)
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword verifies the password against the stored hash.
func (u *User) CheckPassword(plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plain)) == nil
}
