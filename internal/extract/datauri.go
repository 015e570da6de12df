package extract

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Document is a decoded invoice document: its MIME type and raw bytes.
type Document struct {
	ContentType string
	Bytes       []byte
}

// supportedContentTypes are the document types the extraction model accepts.
var supportedContentTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"image/webp":      true,
}

// ParseDataURI decodes a self-describing document blob of the form
// "data:<mimetype>;base64,<encoded_data>".
func ParseDataURI(uri string) (*Document, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return nil, fmt.Errorf("not a data URI")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, fmt.Errorf("malformed data URI: missing payload")
	}
	contentType, encoding, ok := strings.Cut(meta, ";")
	if !ok || encoding != "base64" {
		return nil, fmt.Errorf("malformed data URI: expected base64 encoding")
	}
	contentType = strings.TrimSpace(strings.ToLower(contentType))
	if !supportedContentTypes[contentType] {
		return nil, fmt.Errorf("unsupported document content type: %s", contentType)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decoding data URI payload: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("data URI payload is empty")
	}
	return &Document{ContentType: contentType, Bytes: data}, nil
}

// EncodeDataURI builds a data URI from a content type and raw bytes.
func EncodeDataURI(contentType string, data []byte) string {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
