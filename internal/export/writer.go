package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"parsemybill/internal/domain"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// columns defines the export header row.
var columns = []string{
	"File Name",
	"Invoice Number",
	"Invoice Date",
	"Line Item Count",
	"Line Items",
	"Total Amount",
	"Download URL",
	"Created At",
	"Updated At",
}

// Writer wraps csv.Writer for exporting invoices as CSV.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteHeader writes the header row.
func (w *Writer) WriteHeader() error {
	return w.csv.Write(columns)
}

// WriteInvoices converts a batch of invoices to CSV rows and writes them.
func (w *Writer) WriteInvoices(invoices []domain.Invoice) error {
	for i := range invoices {
		if err := w.csv.Write(invoiceToRow(&invoices[i])); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

// invoiceToRow converts a single invoice to a row. Absent extracted fields
// produce empty cells, never placeholder text.
func invoiceToRow(inv *domain.Invoice) []string {
	row := make([]string, len(columns))

	row[0] = inv.FileName
	if inv.InvoiceNumber != nil {
		row[1] = *inv.InvoiceNumber
	}
	if inv.InvoiceDate != nil {
		row[2] = inv.InvoiceDate.Format("2006-01-02")
	}
	row[3] = strconv.Itoa(len(inv.LineItems))
	row[4] = formatLineItems(inv.LineItems)
	if inv.TotalAmount != nil {
		row[5] = strconv.FormatFloat(*inv.TotalAmount, 'f', 2, 64)
	}
	row[6] = inv.FileDownloadURL
	row[7] = inv.CreatedAt.Format(time.RFC3339)
	row[8] = inv.UpdatedAt.Format(time.RFC3339)

	return row
}

// formatLineItems renders line items as "description (amount); ..." in one
// cell, preserving order.
func formatLineItems(items domain.LineItems) string {
	if len(items) == 0 {
		return ""
	}
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, item.Description+" ("+strconv.FormatFloat(item.Amount, 'f', 2, 64)+")")
	}
	return strings.Join(parts, "; ")
}
