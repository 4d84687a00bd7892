package handlers

import (
	"github.com/gin-gonic/gin"

	"cartera/internal/core/id"
	"cartera/internal/domain/auth"
	"cartera/internal/infrastructure/http/v1/dto"
)

// AuthHandler serves login and user management.
type AuthHandler struct {
	*BaseHandler
	service *auth.Service
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(service *auth.Service) *AuthHandler {
	return &AuthHandler{BaseHandler: NewBaseHandler(), service: service}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !h.BindJSON(c, &req) {
		return
	}

	token, u, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.LoginResponse{Token: token, User: dto.FromUser(u)})
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	userID, err := id.Parse(actor.UserID)
	if err != nil {
		h.Error(c, err)
		return
	}

	u, err := h.service.GetByID(c.Request.Context(), userID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromUser(u))
}

// ChangePassword handles POST /auth/change-password.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	var req dto.ChangePasswordRequest
	if !h.BindJSON(c, &req) {
		return
	}

	userID, err := id.Parse(actor.UserID)
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.ChangePassword(c.Request.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "password changed")
}

// CreateUser handles POST /users.
func (h *AuthHandler) CreateUser(c *gin.Context) {
	var req dto.CreateUserRequest
	if !h.BindJSON(c, &req) {
		return
	}

	u := auth.NewUser(req.Email, req.Name, req.Roles)
	if err := h.service.CreateUser(c.Request.Context(), u, req.Password); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, u.ID.String())
}

// GetUser handles GET /users/:id.
func (h *AuthHandler) GetUser(c *gin.Context) {
	userID, ok := h.ParseID(c)
	if !ok {
		return
	}

	u, err := h.service.GetByID(c.Request.Context(), userID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromUser(u))
}

// ListUsers handles GET /users.
func (h *AuthHandler) ListUsers(c *gin.Context) {
	filter, ok := h.ListFilter(c)
	if !ok {
		return
	}

	res, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromListResult(res, dto.FromUser))
}
