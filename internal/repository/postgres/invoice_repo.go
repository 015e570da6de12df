package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"parsemybill/internal/domain"
	"parsemybill/internal/port"
)

type invoiceRepo struct {
	db *sqlx.DB
}

// NewInvoiceRepo creates a new PostgreSQL-backed InvoiceRepository.
func NewInvoiceRepo(db *sqlx.DB) port.InvoiceRepository {
	return &invoiceRepo{db: db}
}

// Create inserts one invoice. This is the single serialization path for the
// optional-field discipline: nil pointers and nil line items become SQL NULL,
// never an empty-string or zero sentinel. The id is assigned here; created_at
// and updated_at are both set on the initial write.
func (r *invoiceRepo) Create(ctx context.Context, inv *domain.Invoice) error {
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	now := time.Now().UTC()
	inv.CreatedAt = now
	inv.UpdatedAt = now

	query := `INSERT INTO invoices
		(id, user_id, file_name, file_download_url, file_path,
		 invoice_number, invoice_date, line_items, total_amount,
		 created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.ExecContext(ctx, query,
		inv.ID, inv.UserID, inv.FileName, inv.FileDownloadURL, inv.FilePath,
		inv.InvoiceNumber, inv.InvoiceDate, inv.LineItems, inv.TotalAmount,
		inv.CreatedAt, inv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%w: invoiceRepo.Create: %v", domain.ErrPersistence, err)
	}
	return nil
}

func (r *invoiceRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	var inv domain.Invoice
	err := r.db.GetContext(ctx, &inv, "SELECT * FROM invoices WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%w: invoiceRepo.GetByID: %v", domain.ErrPersistence, err)
	}
	return &inv, nil
}

func (r *invoiceRepo) GetByIDForOwner(ctx context.Context, id, ownerID uuid.UUID) (*domain.Invoice, error) {
	var inv domain.Invoice
	err := r.db.GetContext(ctx, &inv,
		"SELECT * FROM invoices WHERE id = $1 AND user_id = $2", id, ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%w: invoiceRepo.GetByIDForOwner: %v", domain.ErrPersistence, err)
	}
	return &inv, nil
}

func (r *invoiceRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Invoice, error) {
	invoices := []domain.Invoice{}
	err := r.db.SelectContext(ctx, &invoices,
		"SELECT * FROM invoices WHERE user_id = $1 ORDER BY created_at DESC", ownerID)
	if err != nil {
		return nil, fmt.Errorf("%w: invoiceRepo.ListByOwner: %v", domain.ErrPersistence, err)
	}
	return invoices, nil
}

// Update applies a partial patch. Only fields present in the patch appear in
// the SET clause; updated_at is always refreshed, so an empty patch is a
// timestamp-only write.
func (r *invoiceRepo) Update(ctx context.Context, id uuid.UUID, patch *domain.InvoicePatch) error {
	query, args := buildInvoiceUpdate(id, patch, time.Now().UTC())

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: invoiceRepo.Update: %v", domain.ErrPersistence, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// buildInvoiceUpdate assembles the partial UPDATE for a patch. Placeholders
// are numbered in append order: $1 is always updated_at, the id is always
// last, and each set column sits between at the index of its argument.
func buildInvoiceUpdate(id uuid.UUID, patch *domain.InvoicePatch, now time.Time) (string, []interface{}) {
	sets := []string{"updated_at = $1"}
	args := []interface{}{now}

	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.FileName != nil {
		add("file_name", *patch.FileName)
	}
	if patch.InvoiceNumber != nil {
		add("invoice_number", *patch.InvoiceNumber)
	}
	if patch.InvoiceDate != nil {
		add("invoice_date", *patch.InvoiceDate)
	}
	if patch.LineItems != nil {
		add("line_items", domain.LineItems(*patch.LineItems))
	}
	if patch.TotalAmount != nil {
		add("total_amount", *patch.TotalAmount)
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE invoices SET %s WHERE id = $%d",
		strings.Join(sets, ", "), len(args))
	return query, args
}

func (r *invoiceRepo) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM invoices WHERE id = $1 AND user_id = $2", id, ownerID)
	if err != nil {
		return fmt.Errorf("%w: invoiceRepo.Delete: %v", domain.ErrPersistence, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
