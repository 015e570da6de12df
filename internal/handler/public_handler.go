package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"parsemybill/internal/domain"
	"parsemybill/internal/extract"
	"parsemybill/internal/service"
)

// PublicHandler serves the unauthenticated share and extract endpoints.
// These predate the envelope and keep their flat JSON shapes: a bare invoice
// on success, {"error": "..."} on failure.
type PublicHandler struct {
	invoiceService service.InvoiceService
	uploadService  service.UploadService
}

// NewPublicHandler creates a new PublicHandler.
func NewPublicHandler(invoiceService service.InvoiceService, uploadService service.UploadService) *PublicHandler {
	return &PublicHandler{invoiceService: invoiceService, uploadService: uploadService}
}

// GetInvoice handles GET /invoices/:id (public, shareable link).
func (h *PublicHandler) GetInvoice(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid invoice ID"})
		return
	}

	pub, err := h.invoiceService.GetPublic(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Invoice not found"})
			return
		}
		log.Printf("public invoice fetch %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch invoice"})
		return
	}

	c.JSON(http.StatusOK, pub)
}

type extractRequest struct {
	InvoiceID      string `json:"invoiceId" binding:"required"`
	InvoiceDataURI string `json:"invoiceDataUri" binding:"required"`
}

// ExtractInvoice handles POST /invoices/extract. The document arrives as a
// data URI; the extracted fields are merged into the named invoice and
// returned as {success, invoiceId, extractedData}.
func (h *PublicHandler) ExtractInvoice(c *gin.Context) {
	var req extractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invoiceId and invoiceDataUri are required"})
		return
	}

	id, err := uuid.Parse(req.InvoiceID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid invoice ID"})
		return
	}
	if _, err := extract.ParseDataURI(req.InvoiceDataURI); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid invoice data URI"})
		return
	}

	fields, err := h.uploadService.ExtractInto(c.Request.Context(), id, req.InvoiceDataURI)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Invoice not found"})
		case errors.Is(err, domain.ErrExtraction):
			log.Printf("public extract %s: %v", id, err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "Invoice extraction failed"})
		default:
			log.Printf("public extract %s: %v", id, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process invoice"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"invoiceId":     id,
		"extractedData": fields,
	})
}
