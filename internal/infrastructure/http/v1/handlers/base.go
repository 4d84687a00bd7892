// Package handlers provides the HTTP handlers of the v1 API.
package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"cartera/internal/core/apperror"
	"cartera/internal/core/appctx"
	"cartera/internal/core/id"
	"cartera/internal/domain"
	"cartera/internal/infrastructure/http/v1/dto"
)

// BaseHandler provides common handler utilities.
type BaseHandler struct{}

// NewBaseHandler creates a new base handler.
func NewBaseHandler() *BaseHandler {
	return &BaseHandler{}
}

// BindJSON binds and validates a JSON request body.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid request body").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// Error registers the error on the Gin context and aborts. The JSON response
// is produced by middleware.ErrorHandler.
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// ParseID parses the :id path parameter.
func (h *BaseHandler) ParseID(c *gin.Context) (id.ID, bool) {
	parsed, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return id.Nil(), false
	}
	return parsed, true
}

// ParseIntQuery parses an integer query parameter with a default.
func (h *BaseHandler) ParseIntQuery(c *gin.Context, key string, defaultVal int) int {
	val := c.Query(key)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}

// ParseDateQuery parses a "2006-01-02" query parameter.
func (h *BaseHandler) ParseDateQuery(c *gin.Context, key string) (*time.Time, bool) {
	val := c.Query(key)
	if val == "" {
		return nil, true
	}
	parsed, err := time.Parse("2006-01-02", val)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid date").
			WithDetail("param", key).
			WithDetail("value", val))
		return nil, false
	}
	return &parsed, true
}

// ListFilter builds the common list filter from query parameters.
func (h *BaseHandler) ListFilter(c *gin.Context) (domain.ListFilter, bool) {
	filter := domain.DefaultListFilter()
	filter.Search = c.Query("search")
	filter.Status = c.Query("status")
	filter.OrderBy = c.Query("orderBy")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.IncludeDeleted = c.Query("includeDeleted") == "true"

	for param, target := range map[string]**id.ID{
		"clientId":      &filter.ClientID,
		"sellerId":      &filter.SellerID,
		"distributorId": &filter.DistributorID,
	} {
		if val := c.Query(param); val != "" {
			parsed, err := id.Parse(val)
			if err != nil {
				h.Error(c, apperror.NewValidation("invalid id format").WithDetail("param", param))
				return filter, false
			}
			*target = &parsed
		}
	}

	var ok bool
	if filter.DateFrom, ok = h.ParseDateQuery(c, "dateFrom"); !ok {
		return filter, false
	}
	if filter.DateTo, ok = h.ParseDateQuery(c, "dateTo"); !ok {
		return filter, false
	}
	return filter, true
}

// Actor returns the authenticated actor, or aborts with 401.
func (h *BaseHandler) Actor(c *gin.Context) (*appctx.Actor, bool) {
	actor := appctx.GetActor(c.Request.Context())
	if actor == nil {
		h.Error(c, apperror.NewUnauthorized("authentication required"))
		return nil, false
	}
	return actor, true
}

// Created sends a 201 response with the new entity's id.
func (h *BaseHandler) Created(c *gin.Context, entityID string) {
	c.JSON(http.StatusCreated, dto.IDResponse{ID: entityID})
}

// OK sends a 200 response with data.
func (h *BaseHandler) OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// NoContent sends a 204 response.
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Success sends a 200 response with a message.
func (h *BaseHandler) Success(c *gin.Context, message string) {
	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true, Message: message})
}
