package extract_test

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parsemybill/internal/extract"
)

func TestParseDataURI_PDF(t *testing.T) {
	payload := []byte("%PDF-1.4 fake")
	uri := "data:application/pdf;base64," + base64.StdEncoding.EncodeToString(payload)

	doc, err := extract.ParseDataURI(uri)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", doc.ContentType)
	assert.Equal(t, payload, doc.Bytes)
}

func TestParseDataURI_Rejections(t *testing.T) {
	cases := []struct {
		name string
		uri  string
	}{
		{"not a data uri", "https://example.com/invoice.pdf"},
		{"missing payload", "data:application/pdf;base64"},
		{"not base64 encoding", "data:application/pdf;utf8,hello"},
		{"unsupported content type", "data:text/plain;base64,aGVsbG8="},
		{"invalid base64", "data:application/pdf;base64,!!!not-base64!!!"},
		{"empty payload", "data:application/pdf;base64,"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := extract.ParseDataURI(tc.uri)
			assert.Error(t, err)
		})
	}
}

func TestEncodeDataURI_RoundTrip(t *testing.T) {
	data := []byte{0x89, 'P', 'N', 'G'}
	uri := extract.EncodeDataURI("image/png", data)

	doc, err := extract.ParseDataURI(uri)
	require.NoError(t, err)
	assert.Equal(t, "image/png", doc.ContentType)
	assert.Equal(t, data, doc.Bytes)
}
