package port

import (
	"context"

	"parsemybill/internal/domain"
)

// ExtractInput carries one invoice document for field extraction. The
// document travels as a self-describing data URI: a MIME type plus the
// base64-encoded bytes.
type ExtractInput struct {
	DataURI string
}

// InvoiceExtractor abstracts the hosted extraction model. Implementations
// make a single call-through with no retry and no local state; provider
// errors, including timeouts, surface to the caller wrapped in
// domain.ErrExtraction. A successful result conforms to the declared
// output schema: absent fields are genuinely absent.
type InvoiceExtractor interface {
	Extract(ctx context.Context, input ExtractInput) (*domain.ExtractedFields, error)
}
