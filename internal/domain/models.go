package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// User represents an authenticated account. Every invoice belongs to
// exactly one user.
type User struct {
	ID            uuid.UUID `db:"id" json:"id"`
	Email         string    `db:"email" json:"email"`
	PasswordHash  string    `db:"password_hash" json:"-"`
	FullName      string    `db:"full_name" json:"full_name"`
	EmailVerified bool      `db:"email_verified" json:"email_verified"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// Session is the explicit per-request authentication context. It is created
// by the auth middleware from a validated token and passed to every
// owner-scoped operation; nothing below the middleware mutates it.
type Session struct {
	UserID uuid.UUID
	Email  string
}

// LineItem is a single extracted invoice line: a description and its cost.
type LineItem struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

// LineItems is an ordered sequence of line items, stored as a JSONB column.
// Re-ordering is a content change, not an identity change.
type LineItems []LineItem

// Value implements driver.Valuer for JSONB storage.
func (l LineItems) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner for JSONB storage.
func (l *LineItems) Scan(src interface{}) error {
	if src == nil {
		*l = nil
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("scanning line items: unsupported type %T", src)
	}
	return json.Unmarshal(data, l)
}

// Invoice is the stored record for one uploaded invoice document.
//
// The extracted fields (invoice_number, invoice_date, line_items,
// total_amount) are each optional: a field the model did not return is
// absent from storage and from JSON, never a sentinel value. Pointers and
// omitempty carry that discipline end to end.
type Invoice struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	UserID          uuid.UUID  `db:"user_id" json:"user_id"`
	FileName        string     `db:"file_name" json:"file_name"`
	FileDownloadURL string     `db:"file_download_url" json:"file_download_url"`
	FilePath        string     `db:"file_path" json:"file_path"`
	InvoiceNumber   *string    `db:"invoice_number" json:"invoice_number,omitempty"`
	InvoiceDate     *time.Time `db:"invoice_date" json:"invoice_date,omitempty"`
	LineItems       LineItems  `db:"line_items" json:"line_items,omitempty"`
	TotalAmount     *float64   `db:"total_amount" json:"total_amount,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// PublicInvoice is the externally shared view of an invoice. It carries
// every field of Invoice except the owner, which never leaves the service.
type PublicInvoice struct {
	ID              uuid.UUID  `json:"id"`
	FileName        string     `json:"file_name"`
	FileDownloadURL string     `json:"file_download_url"`
	FilePath        string     `json:"file_path"`
	InvoiceNumber   *string    `json:"invoice_number,omitempty"`
	InvoiceDate     *time.Time `json:"invoice_date,omitempty"`
	LineItems       LineItems  `json:"line_items,omitempty"`
	TotalAmount     *float64   `json:"total_amount,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Public strips the owner from an invoice for external sharing.
func (i *Invoice) Public() *PublicInvoice {
	return &PublicInvoice{
		ID:              i.ID,
		FileName:        i.FileName,
		FileDownloadURL: i.FileDownloadURL,
		FilePath:        i.FilePath,
		InvoiceNumber:   i.InvoiceNumber,
		InvoiceDate:     i.InvoiceDate,
		LineItems:       i.LineItems,
		TotalAmount:     i.TotalAmount,
		CreatedAt:       i.CreatedAt,
		UpdatedAt:       i.UpdatedAt,
	}
}

// MatchesQuery reports whether the invoice matches a free-text filter over
// file name, invoice number, and line item descriptions. Filtering happens
// in memory on top of the owner query, not in SQL.
func (i *Invoice) MatchesQuery(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	if strings.Contains(strings.ToLower(i.FileName), q) {
		return true
	}
	if i.InvoiceNumber != nil && strings.Contains(strings.ToLower(*i.InvoiceNumber), q) {
		return true
	}
	for _, item := range i.LineItems {
		if strings.Contains(strings.ToLower(item.Description), q) {
			return true
		}
	}
	return false
}

// ExtractedFields is the schema-conformant output of the extraction model.
// Field names follow the extraction wire format; every field is optional
// and independently omittable.
type ExtractedFields struct {
	InvoiceNumber *string    `json:"invoiceNumber,omitempty"`
	InvoiceDate   *string    `json:"invoiceDate,omitempty"`
	LineItems     []LineItem `json:"lineItems,omitempty"`
	TotalAmount   *float64   `json:"totalAmount,omitempty"`
}

// InvoicePatch is a partial update for an invoice. Only non-nil fields are
// applied; updated_at is refreshed on every patch, even an empty one.
type InvoicePatch struct {
	FileName      *string     `json:"file_name,omitempty"`
	InvoiceNumber *string     `json:"invoice_number,omitempty"`
	InvoiceDate   *time.Time  `json:"invoice_date,omitempty"`
	LineItems     *[]LineItem `json:"line_items,omitempty"`
	TotalAmount   *float64    `json:"total_amount,omitempty"`
}

// IsEmpty reports whether the patch carries no field changes.
func (p *InvoicePatch) IsEmpty() bool {
	return p.FileName == nil && p.InvoiceNumber == nil && p.InvoiceDate == nil &&
		p.LineItems == nil && p.TotalAmount == nil
}
