package gemini_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parsemybill/internal/config"
	"parsemybill/internal/domain"
	"parsemybill/internal/extract/gemini"
	"parsemybill/internal/port"
)

func testDataURI() string {
	return "data:application/pdf;base64," + base64.StdEncoding.EncodeToString([]byte("%PDF-1.4 fake"))
}

func geminiReply(text string) string {
	resp := map[string]interface{}{
		"candidates": []map[string]interface{}{
			{
				"content": map[string]interface{}{
					"parts": []map[string]interface{}{{"text": text}},
				},
				"finishReason": "STOP",
			},
		},
	}
	b, _ := json.Marshal(resp)
	return string(b)
}

func newTestExtractor(t *testing.T, handler http.HandlerFunc) *gemini.Extractor {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg := &config.ExtractorConfig{APIKey: "test-key", Model: "gemini-2.0-flash", TimeoutSecs: 5}
	return gemini.NewExtractorWithEndpoint(cfg, srv.URL)
}

func TestExtract_AllFields(t *testing.T) {
	e := newTestExtractor(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Contains(t, body, "contents")
		assert.Contains(t, body, "generationConfig")

		_, _ = w.Write([]byte(geminiReply(`{
			"invoiceNumber": "INV-2025-001",
			"invoiceDate": "2025-03-15",
			"lineItems": [{"description": "Widgets", "amount": 50.0}],
			"totalAmount": 50.0
		}`)))
	})

	fields, err := e.Extract(context.Background(), port.ExtractInput{DataURI: testDataURI()})
	require.NoError(t, err)
	require.NotNil(t, fields.InvoiceNumber)
	assert.Equal(t, "INV-2025-001", *fields.InvoiceNumber)
	require.NotNil(t, fields.InvoiceDate)
	assert.Equal(t, "2025-03-15", *fields.InvoiceDate)
	require.Len(t, fields.LineItems, 1)
	assert.Equal(t, "Widgets", fields.LineItems[0].Description)
	require.NotNil(t, fields.TotalAmount)
	assert.Equal(t, 50.0, *fields.TotalAmount)
}

func TestExtract_PartialOutputStaysAbsent(t *testing.T) {
	e := newTestExtractor(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(geminiReply(`{"totalAmount": 12.5}`)))
	})

	fields, err := e.Extract(context.Background(), port.ExtractInput{DataURI: testDataURI()})
	require.NoError(t, err)
	assert.Nil(t, fields.InvoiceNumber)
	assert.Nil(t, fields.InvoiceDate)
	assert.Nil(t, fields.LineItems)
	require.NotNil(t, fields.TotalAmount)
	assert.Equal(t, 12.5, *fields.TotalAmount)
}

func TestExtract_NonConformingOutput(t *testing.T) {
	e := newTestExtractor(t, func(w http.ResponseWriter, r *http.Request) {
		// An unknown key is a schema violation, not something to pass through.
		_, _ = w.Write([]byte(geminiReply(`{"vendor": "Acme Corp"}`)))
	})

	_, err := e.Extract(context.Background(), port.ExtractInput{DataURI: testDataURI()})
	assert.ErrorIs(t, err, domain.ErrExtraction)
}

func TestExtract_APIError(t *testing.T) {
	e := newTestExtractor(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "quota exceeded"}}`, http.StatusTooManyRequests)
	})

	_, err := e.Extract(context.Background(), port.ExtractInput{DataURI: testDataURI()})
	assert.ErrorIs(t, err, domain.ErrExtraction)
}

func TestExtract_TruncatedOutput(t *testing.T) {
	e := newTestExtractor(t, func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]interface{}{
			"candidates": []map[string]interface{}{
				{
					"content":      map[string]interface{}{"parts": []map[string]interface{}{{"text": `{"invoi`}}},
					"finishReason": "MAX_TOKENS",
				},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	})

	_, err := e.Extract(context.Background(), port.ExtractInput{DataURI: testDataURI()})
	assert.ErrorIs(t, err, domain.ErrExtraction)
}

func TestExtract_BadDataURI(t *testing.T) {
	e := newTestExtractor(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no API call expected for an invalid data URI")
	})

	_, err := e.Extract(context.Background(), port.ExtractInput{DataURI: "not-a-data-uri"})
	assert.ErrorIs(t, err, domain.ErrExtraction)
}
