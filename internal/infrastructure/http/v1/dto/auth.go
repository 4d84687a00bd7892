package dto

import (
	"cartera/internal/domain/auth"
)

// LoginRequest carries login credentials.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the issued token and the authenticated user.
type LoginResponse struct {
	Token string        `json:"token"`
	User  *UserResponse `json:"user"`
}

// CreateUserRequest for provisioning a back-office user.
type CreateUserRequest struct {
	Email    string   `json:"email" binding:"required,email"`
	Name     string   `json:"name" binding:"required"`
	Password string   `json:"password" binding:"required,min=8"`
	Roles    []string `json:"roles" binding:"required,min=1"`
}

// ChangePasswordRequest for rotating the caller's password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8"`
}

// UserResponse represents a user in API responses.
type UserResponse struct {
	ID     string   `json:"id"`
	Email  string   `json:"email"`
	Name   string   `json:"name"`
	Roles  []string `json:"roles"`
	Active bool     `json:"active"`
}

// FromUser creates a response from a domain user.
func FromUser(u *auth.User) *UserResponse {
	return &UserResponse{
		ID:     u.ID.String(),
		Email:  u.Email,
		Name:   u.Name,
		Roles:  u.Roles,
		Active: u.Active,
	}
}
