package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"parsemybill/internal/domain"
	"parsemybill/internal/service"
)

// UploadHandler handles the upload pipeline endpoint.
type UploadHandler struct {
	uploadService service.UploadService
}

// NewUploadHandler creates a new UploadHandler.
func NewUploadHandler(uploadService service.UploadService) *UploadHandler {
	return &UploadHandler{uploadService: uploadService}
}

// Upload handles POST /api/v1/invoices/upload (multipart form, field "file").
// The pipeline runs to completion within the request; state transitions are
// logged against the request id.
func (h *UploadHandler) Upload(c *gin.Context) {
	session, ok := RequireSession(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "multipart field 'file' is required")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "could not read uploaded file")
		return
	}
	defer func() { _ = file.Close() }()

	requestID, _ := c.Get("request_id")
	onState := func(state domain.UploadState) {
		log.Printf("[%s] upload pipeline: %s", requestID, state)
	}

	result, err := h.uploadService.Process(c.Request.Context(), session, service.UploadRequest{
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
		Body:        file,
	}, onState)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondCreated(c, result)
}
