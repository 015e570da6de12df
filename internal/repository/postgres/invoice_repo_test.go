package postgres

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parsemybill/internal/domain"
)

func TestBuildInvoiceUpdate_EmptyPatchIsTimestampOnly(t *testing.T) {
	id := uuid.New()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	query, args := buildInvoiceUpdate(id, &domain.InvoicePatch{}, now)

	assert.Equal(t, "UPDATE invoices SET updated_at = $1 WHERE id = $2", query)
	require.Len(t, args, 2)
	assert.Equal(t, now, args[0])
	assert.Equal(t, id, args[1])
}

func TestBuildInvoiceUpdate_OnlyPatchedColumnsAppear(t *testing.T) {
	id := uuid.New()
	now := time.Now().UTC()
	number := "INV-100"
	total := 250.0

	query, args := buildInvoiceUpdate(id, &domain.InvoicePatch{
		InvoiceNumber: &number,
		TotalAmount:   &total,
	}, now)

	assert.Equal(t,
		"UPDATE invoices SET updated_at = $1, invoice_number = $2, total_amount = $3 WHERE id = $4",
		query)
	require.Len(t, args, 4)
	assert.Equal(t, number, args[1])
	assert.Equal(t, total, args[2])
	assert.Equal(t, id, args[3])
	assert.NotContains(t, query, "file_name")
	assert.NotContains(t, query, "invoice_date")
	assert.NotContains(t, query, "line_items")
}

// Two sequential disjoint patches must each touch only their own columns, so
// applying both leaves the union of the two in place.
func TestBuildInvoiceUpdate_DisjointPatchesDoNotOverlap(t *testing.T) {
	id := uuid.New()
	now := time.Now().UTC()

	number := "INV-7"
	first, firstArgs := buildInvoiceUpdate(id, &domain.InvoicePatch{InvoiceNumber: &number}, now)

	date := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	items := []domain.LineItem{{Description: "Widgets", Amount: 40}}
	second, secondArgs := buildInvoiceUpdate(id, &domain.InvoicePatch{
		InvoiceDate: &date,
		LineItems:   &items,
	}, now)

	assert.Equal(t, "UPDATE invoices SET updated_at = $1, invoice_number = $2 WHERE id = $3", first)
	require.Len(t, firstArgs, 3)
	assert.Equal(t, number, firstArgs[1])

	assert.Equal(t,
		"UPDATE invoices SET updated_at = $1, invoice_date = $2, line_items = $3 WHERE id = $4",
		second)
	require.Len(t, secondArgs, 4)
	assert.Equal(t, date, secondArgs[1])
	assert.Equal(t, domain.LineItems(items), secondArgs[2])

	// The second write names none of the first write's columns.
	assert.NotContains(t, second, "invoice_number")
	assert.NotContains(t, first, "invoice_date")
	assert.NotContains(t, first, "line_items")
}

func TestBuildInvoiceUpdate_FullPatchNumbersPlaceholdersInOrder(t *testing.T) {
	id := uuid.New()
	now := time.Now().UTC()
	name := "renamed.pdf"
	number := "INV-1"
	date := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	items := []domain.LineItem{{Description: "Consulting", Amount: 1200}}
	total := 1200.0

	query, args := buildInvoiceUpdate(id, &domain.InvoicePatch{
		FileName:      &name,
		InvoiceNumber: &number,
		InvoiceDate:   &date,
		LineItems:     &items,
		TotalAmount:   &total,
	}, now)

	assert.Equal(t,
		"UPDATE invoices SET updated_at = $1, file_name = $2, invoice_number = $3, invoice_date = $4, line_items = $5, total_amount = $6 WHERE id = $7",
		query)
	require.Len(t, args, 7)
	assert.Equal(t, []interface{}{now, name, number, date, domain.LineItems(items), total, id}, args)
}
