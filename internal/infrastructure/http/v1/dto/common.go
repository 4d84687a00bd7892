// Package dto provides data transfer objects for the HTTP API.
package dto

import (
	"cartera/internal/core/id"
	"cartera/internal/domain"
)

// IDResponse for create operations.
type IDResponse struct {
	ID string `json:"id"`
}

// NewIDResponse creates an ID response.
func NewIDResponse(i id.ID) IDResponse {
	return IDResponse{ID: i.String()}
}

// SuccessResponse for operations without data.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse for error details.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ListResponse wraps list results with pagination.
type ListResponse struct {
	Items      any   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// FromListResult maps a domain list result through the given converter.
func FromListResult[T, R any](res domain.ListResult[T], convert func(T) R) ListResponse {
	items := make([]R, 0, len(res.Items))
	for _, item := range res.Items {
		items = append(items, convert(item))
	}
	return ListResponse{
		Items:      items,
		TotalCount: res.TotalCount,
		Limit:      res.Limit,
		Offset:     res.Offset,
	}
}

// CountResponse reports how many records an operation affected.
type CountResponse struct {
	Count int `json:"count"`
}
