package handler_test

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"parsemybill/internal/config"
	"parsemybill/internal/domain"
	"parsemybill/internal/handler"
	"parsemybill/internal/middleware"
	"parsemybill/internal/service"
	"parsemybill/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupPublicRouter() (*mocks.MockInvoiceRepo, *mocks.MockInvoiceExtractor, *gin.Engine) {
	repo := new(mocks.MockInvoiceRepo)
	storage := new(mocks.MockObjectStorage)
	extractor := new(mocks.MockInvoiceExtractor)

	cfg := config.S3Config{Bucket: "test-bucket", MaxFileSizeMB: 10}
	invoiceSvc := service.NewInvoiceService(repo, storage, cfg, "https://parsemybill.app")
	uploadSvc := service.NewUploadService(invoiceSvc, repo, extractor)
	publicH := handler.NewPublicHandler(invoiceSvc, uploadSvc)

	r := gin.New()
	public := r.Group("/invoices")
	public.Use(middleware.PublicCORS())
	public.GET("/:id", publicH.GetInvoice)
	public.POST("/extract", publicH.ExtractInvoice)
	public.OPTIONS("/:id", func(c *gin.Context) {})
	return repo, extractor, r
}

func TestPublicGetInvoice_StripsOwner(t *testing.T) {
	repo, _, r := setupPublicRouter()

	id := uuid.New()
	number := "INV-9"
	repo.On("GetByID", mock.Anything, id).Return(&domain.Invoice{
		ID:            id,
		UserID:        uuid.New(),
		FileName:      "shared.pdf",
		InvoiceNumber: &number,
	}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/invoices/"+id.String(), nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "shared.pdf", body["file_name"])
	assert.Equal(t, "INV-9", body["invoice_number"])
	// Flat shape: no envelope, no owner.
	assert.NotContains(t, body, "success")
	assert.NotContains(t, body, "user_id")
	// Absent extracted fields are absent keys, not nulls.
	assert.NotContains(t, body, "total_amount")
	assert.NotContains(t, body, "line_items")
}

func TestPublicGetInvoice_NotFound(t *testing.T) {
	repo, _, r := setupPublicRouter()

	id := uuid.New()
	repo.On("GetByID", mock.Anything, id).Return(nil, domain.ErrNotFound)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/invoices/"+id.String(), nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Invoice not found", body["error"])
}

func TestPublicGetInvoice_InvalidID(t *testing.T) {
	_, _, r := setupPublicRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/invoices/not-a-uuid", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Invalid invoice ID", body["error"])
}

func TestPublicExtract_MergesIntoInvoice(t *testing.T) {
	repo, extractor, r := setupPublicRouter()

	id := uuid.New()
	number := "INV-77"
	repo.On("GetByID", mock.Anything, id).Return(&domain.Invoice{ID: id}, nil)
	extractor.On("Extract", mock.Anything, mock.AnythingOfType("port.ExtractInput")).
		Return(&domain.ExtractedFields{InvoiceNumber: &number}, nil)
	repo.On("Update", mock.Anything, id, mock.MatchedBy(func(p *domain.InvoicePatch) bool {
		return p.InvoiceNumber != nil && *p.InvoiceNumber == "INV-77"
	})).Return(nil)

	dataURI := "data:application/pdf;base64," + base64.StdEncoding.EncodeToString([]byte("%PDF fake"))
	payload, _ := json.Marshal(map[string]string{
		"invoiceId":      id.String(),
		"invoiceDataUri": dataURI,
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/invoices/extract", strings.NewReader(string(payload)))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, id.String(), body["invoiceId"])
	extracted, ok := body["extractedData"].(map[string]interface{})
	require.True(t, ok, "extractedData should be an object")
	assert.Equal(t, "INV-77", extracted["invoiceNumber"])
	repo.AssertExpectations(t)
}

func TestPublicExtract_MissingBodyFields(t *testing.T) {
	_, _, r := setupPublicRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/invoices/extract", strings.NewReader(`{"invoiceId": ""}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPublicExtract_BadDataURI(t *testing.T) {
	_, _, r := setupPublicRouter()

	payload, _ := json.Marshal(map[string]string{
		"invoiceId":      uuid.NewString(),
		"invoiceDataUri": "https://example.com/invoice.pdf",
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/invoices/extract", strings.NewReader(string(payload)))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPublicCORS_Preflight(t *testing.T) {
	_, _, r := setupPublicRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/invoices/"+uuid.NewString(), nil)
	req.Header.Set("Origin", "https://anywhere.example")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
