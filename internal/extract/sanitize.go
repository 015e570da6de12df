package extract

import (
	"math"
	"strings"

	"parsemybill/internal/domain"
)

// Sanitize enforces the output schema's optionality discipline on raw model
// output: fields the model returned as empty strings or non-finite numbers
// are dropped so that "absent" always means the key is genuinely missing.
// It never fills in defaults for fields the model omitted.
func Sanitize(fields *domain.ExtractedFields) *domain.ExtractedFields {
	out := &domain.ExtractedFields{}

	if fields.InvoiceNumber != nil {
		if v := strings.TrimSpace(*fields.InvoiceNumber); v != "" {
			out.InvoiceNumber = &v
		}
	}
	if fields.InvoiceDate != nil {
		if v := strings.TrimSpace(*fields.InvoiceDate); v != "" {
			out.InvoiceDate = &v
		}
	}
	if fields.TotalAmount != nil && isFinite(*fields.TotalAmount) {
		v := *fields.TotalAmount
		out.TotalAmount = &v
	}

	var items []domain.LineItem
	for _, item := range fields.LineItems {
		desc := strings.TrimSpace(item.Description)
		if desc == "" || !isFinite(item.Amount) {
			continue
		}
		items = append(items, domain.LineItem{Description: desc, Amount: item.Amount})
	}
	if len(items) > 0 {
		out.LineItems = items
	}

	return out
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
