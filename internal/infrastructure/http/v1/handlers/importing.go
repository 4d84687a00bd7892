package handlers

import (
	"github.com/gin-gonic/gin"

	"cartera/internal/core/apperror"
	"cartera/internal/domain/importing"
)

// ImportHandler serves the bulk invoice import endpoint.
type ImportHandler struct {
	*BaseHandler
	importer *importing.Importer
}

// NewImportHandler creates a new import handler.
func NewImportHandler(importer *importing.Importer) *ImportHandler {
	return &ImportHandler{BaseHandler: NewBaseHandler(), importer: importer}
}

// Run handles POST /invoices/import. The CSV is uploaded as the multipart
// form file "file".
func (h *ImportHandler) Run(c *gin.Context) {
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		h.Error(c, apperror.NewValidation("csv file upload required").
			WithDetail("error", err.Error()))
		return
	}
	defer file.Close()

	res, err := h.importer.Run(c.Request.Context(), file)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, res)
}
