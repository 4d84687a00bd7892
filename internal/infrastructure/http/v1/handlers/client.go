package handlers

import (
	"github.com/gin-gonic/gin"

	"cartera/internal/domain/client"
	"cartera/internal/infrastructure/http/v1/dto"
)

// ClientHandler serves the client directory endpoints.
type ClientHandler struct {
	*BaseHandler
	service *client.Service
}

// NewClientHandler creates a new client handler.
func NewClientHandler(service *client.Service) *ClientHandler {
	return &ClientHandler{BaseHandler: NewBaseHandler(), service: service}
}

// Create handles POST /clients.
func (h *ClientHandler) Create(c *gin.Context) {
	var req dto.CreateClientRequest
	if !h.BindJSON(c, &req) {
		return
	}

	cl, err := req.ToEntity()
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Create(c.Request.Context(), cl); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, cl.ID.String())
}

// Get handles GET /clients/:id.
func (h *ClientHandler) Get(c *gin.Context) {
	clientID, ok := h.ParseID(c)
	if !ok {
		return
	}

	cl, err := h.service.GetByID(c.Request.Context(), clientID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromClient(cl))
}

// Update handles PUT /clients/:id.
func (h *ClientHandler) Update(c *gin.Context) {
	clientID, ok := h.ParseID(c)
	if !ok {
		return
	}

	var req dto.UpdateClientRequest
	if !h.BindJSON(c, &req) {
		return
	}

	cl, err := h.service.GetByID(c.Request.Context(), clientID)
	if err != nil {
		h.Error(c, err)
		return
	}
	if err := req.ApplyTo(cl); err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Update(c.Request.Context(), cl); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromClient(cl))
}

// List handles GET /clients.
func (h *ClientHandler) List(c *gin.Context) {
	filter, ok := h.ListFilter(c)
	if !ok {
		return
	}

	res, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromListResult(res, dto.FromClient))
}

// Delete handles DELETE /clients/:id.
func (h *ClientHandler) Delete(c *gin.Context) {
	clientID, ok := h.ParseID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), clientID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// AddBranch handles POST /clients/:id/branches.
func (h *ClientHandler) AddBranch(c *gin.Context) {
	clientID, ok := h.ParseID(c)
	if !ok {
		return
	}

	var req dto.BranchRequest
	if !h.BindJSON(c, &req) {
		return
	}

	b := client.NewBranch(clientID, req.Name)
	b.Address = req.Address
	b.City = req.City
	b.Contact = req.Contact
	b.Phone = req.Phone

	if err := h.service.AddBranch(c.Request.Context(), b); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, b.ID.String())
}

// ListBranches handles GET /clients/:id/branches.
func (h *ClientHandler) ListBranches(c *gin.Context) {
	clientID, ok := h.ParseID(c)
	if !ok {
		return
	}

	branches, err := h.service.Branches(c.Request.Context(), clientID)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]*dto.BranchResponse, 0, len(branches))
	for _, b := range branches {
		items = append(items, dto.FromBranch(b))
	}
	h.OK(c, items)
}

// DeleteBranch handles DELETE /branches/:id.
func (h *ClientHandler) DeleteBranch(c *gin.Context) {
	branchID, ok := h.ParseID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteBranch(c.Request.Context(), branchID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
