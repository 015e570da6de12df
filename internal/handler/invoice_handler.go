package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"parsemybill/internal/domain"
	"parsemybill/internal/export"
	"parsemybill/internal/service"
)

// InvoiceHandler handles the authenticated invoice CRUD endpoints.
type InvoiceHandler struct {
	invoiceService service.InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler.
func NewInvoiceHandler(invoiceService service.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService}
}

// List handles GET /api/v1/invoices?q=
func (h *InvoiceHandler) List(c *gin.Context) {
	session, ok := RequireSession(c)
	if !ok {
		return
	}

	query := c.Query("q")
	invoices, err := h.invoiceService.List(c.Request.Context(), session, query)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondList(c, invoices, ListMeta{Total: len(invoices), Query: query})
}

// Get handles GET /api/v1/invoices/:id
func (h *InvoiceHandler) Get(c *gin.Context) {
	session, ok := RequireSession(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	inv, err := h.invoiceService.Get(c.Request.Context(), session, id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, inv)
}

// Update handles PATCH /api/v1/invoices/:id
func (h *InvoiceHandler) Update(c *gin.Context) {
	session, ok := RequireSession(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var patch domain.InvoicePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	inv, err := h.invoiceService.Update(c.Request.Context(), session, id, &patch)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, inv)
}

// Delete handles DELETE /api/v1/invoices/:id
func (h *InvoiceHandler) Delete(c *gin.Context) {
	session, ok := RequireSession(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.invoiceService.Delete(c.Request.Context(), session, id); err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, gin.H{"deleted": true})
}

// Download handles GET /api/v1/invoices/:id/download
func (h *InvoiceHandler) Download(c *gin.Context) {
	session, ok := RequireSession(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	url, err := h.invoiceService.FreshDownloadURL(c.Request.Context(), session, id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, gin.H{"download_url": url})
}

// QRCode handles GET /api/v1/invoices/:id/qr?mode=link|data
func (h *InvoiceHandler) QRCode(c *gin.Context) {
	session, ok := RequireSession(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	// Ownership gate: the payload itself is public, but only the owner can
	// mint codes from this endpoint.
	if _, err := h.invoiceService.Get(c.Request.Context(), session, id); err != nil {
		HandleError(c, err)
		return
	}

	mode := service.QRMode(c.DefaultQuery("mode", string(service.QRModeLink)))
	png, err := h.invoiceService.QRCode(c.Request.Context(), id, mode)
	if err != nil {
		HandleError(c, err)
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}

// Export handles GET /api/v1/invoices/export?format=csv|xlsx
func (h *InvoiceHandler) Export(c *gin.Context) {
	session, ok := RequireSession(c)
	if !ok {
		return
	}

	invoices, err := h.invoiceService.List(c.Request.Context(), session, c.Query("q"))
	if err != nil {
		HandleError(c, err)
		return
	}

	format := c.DefaultQuery("format", "csv")
	stamp := time.Now().Format("20060102")

	switch format {
	case "csv":
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="invoices_%s.csv"`, stamp))
		c.Header("Content-Type", "text/csv; charset=utf-8")
		c.Status(http.StatusOK)

		if _, err := c.Writer.Write(export.BOM); err != nil {
			return
		}
		w := export.NewWriter(c.Writer)
		if err := w.WriteHeader(); err != nil {
			return
		}
		if err := w.WriteInvoices(invoices); err != nil {
			return
		}
		w.Flush()

	case "xlsx":
		data, err := export.WriteXLSX(invoices)
		if err != nil {
			HandleError(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="invoices_%s.xlsx"`, stamp))
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)

	default:
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "format must be csv or xlsx")
	}
}

// parseIDParam parses the :id path parameter or sends a 400.
func parseIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid invoice id")
		return uuid.Nil, false
	}
	return id, true
}
