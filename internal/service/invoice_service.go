package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"

	"parsemybill/internal/config"
	"parsemybill/internal/domain"
	"parsemybill/internal/port"
)

// dateLayouts are the formats accepted for extracted invoice dates. A value
// matching none of them is dropped, not stored raw.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"01/02/2006",
	"02/01/2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"02-01-2006",
}

// QRMode selects the payload encoded into an invoice QR code.
type QRMode string

const (
	// QRModeLink encodes the shareable invoice URL.
	QRModeLink QRMode = "link"
	// QRModeData encodes the invoice fields as JSON.
	QRModeData QRMode = "data"
)

// StoredFile describes an object persisted to storage for an invoice.
type StoredFile struct {
	FileName    string
	FilePath    string
	DownloadURL string
}

// InvoiceService owns the invoice lifecycle after authentication: storing
// uploaded files, persisting extraction results, and the read/update/delete
// surface over stored invoices.
type InvoiceService interface {
	StoreFile(ctx context.Context, session *domain.Session, fileName, contentType string, size int64, body io.Reader) (*StoredFile, error)
	Create(ctx context.Context, session *domain.Session, file *StoredFile, fields *domain.ExtractedFields) (*domain.Invoice, error)
	Get(ctx context.Context, session *domain.Session, id uuid.UUID) (*domain.Invoice, error)
	GetPublic(ctx context.Context, id uuid.UUID) (*domain.PublicInvoice, error)
	List(ctx context.Context, session *domain.Session, query string) ([]domain.Invoice, error)
	Update(ctx context.Context, session *domain.Session, id uuid.UUID, patch *domain.InvoicePatch) (*domain.Invoice, error)
	Delete(ctx context.Context, session *domain.Session, id uuid.UUID) error
	QRCode(ctx context.Context, id uuid.UUID, mode QRMode) ([]byte, error)
	// FreshDownloadURL presigns a short-lived URL for the stored document,
	// for buckets where the stored location is not publicly fetchable.
	FreshDownloadURL(ctx context.Context, session *domain.Session, id uuid.UUID) (string, error)
}

type invoiceService struct {
	repo    port.InvoiceRepository
	storage port.ObjectStorage
	s3cfg   config.S3Config
	baseURL string
}

// NewInvoiceService creates a new InvoiceService implementation.
func NewInvoiceService(repo port.InvoiceRepository, storage port.ObjectStorage, s3cfg config.S3Config, baseURL string) InvoiceService {
	return &invoiceService{
		repo:    repo,
		storage: storage,
		s3cfg:   s3cfg,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// StoreFile validates and uploads an invoice document. Objects are keyed
// under the owner so a bucket listing groups per user:
// users/{userID}/invoices/{epochMillis}_{fileName}.
func (s *invoiceService) StoreFile(ctx context.Context, session *domain.Session, fileName, contentType string, size int64, body io.Reader) (*StoredFile, error) {
	if session == nil {
		return nil, domain.ErrAuthentication
	}
	if fileName == "" {
		return nil, fmt.Errorf("%w: file name is required", domain.ErrValidation)
	}
	fileType, ok := domain.AllowedContentTypes[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFileType, contentType)
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(fileName)), ".")
	extType, ok := domain.AllowedExtensions[ext]
	if !ok {
		return nil, fmt.Errorf("%w: .%s extension", domain.ErrUnsupportedFileType, ext)
	}
	if extType != fileType {
		return nil, fmt.Errorf("%w: .%s extension does not match %s",
			domain.ErrUnsupportedFileType, ext, domain.AllowedFileTypes[fileType])
	}
	maxBytes := s.s3cfg.MaxFileSizeMB * 1024 * 1024
	if size > maxBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds %dMB limit", domain.ErrFileTooLarge, size, s.s3cfg.MaxFileSizeMB)
	}

	safeName := sanitizeFileName(fileName)
	key := fmt.Sprintf("users/%s/invoices/%d_%s", session.UserID, time.Now().UnixMilli(), safeName)

	out, err := s.storage.Upload(ctx, port.UploadInput{
		Bucket:      s.s3cfg.Bucket,
		Key:         key,
		Body:        body,
		ContentType: contentType,
		Size:        size,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpload, err)
	}

	return &StoredFile{
		FileName:    fileName,
		FilePath:    key,
		DownloadURL: out.Location,
	}, nil
}

// Create persists a new invoice from a stored file and its extracted fields.
// Extracted fields are optional one by one; file metadata is not.
func (s *invoiceService) Create(ctx context.Context, session *domain.Session, file *StoredFile, fields *domain.ExtractedFields) (*domain.Invoice, error) {
	if session == nil {
		return nil, domain.ErrAuthentication
	}
	if file == nil || file.FileName == "" || file.FilePath == "" || file.DownloadURL == "" {
		return nil, fmt.Errorf("%w: file name, path and download URL are required", domain.ErrValidation)
	}

	inv := &domain.Invoice{
		UserID:          session.UserID,
		FileName:        file.FileName,
		FileDownloadURL: file.DownloadURL,
		FilePath:        file.FilePath,
	}
	if fields != nil {
		inv.InvoiceNumber = fields.InvoiceNumber
		inv.InvoiceDate = parseInvoiceDate(fields.InvoiceDate)
		if len(fields.LineItems) > 0 {
			inv.LineItems = domain.LineItems(fields.LineItems)
		}
		if fields.TotalAmount != nil && !math.IsNaN(*fields.TotalAmount) && !math.IsInf(*fields.TotalAmount, 0) {
			inv.TotalAmount = fields.TotalAmount
		}
	}

	if err := s.repo.Create(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *invoiceService) Get(ctx context.Context, session *domain.Session, id uuid.UUID) (*domain.Invoice, error) {
	if session == nil {
		return nil, domain.ErrAuthentication
	}
	return s.repo.GetByIDForOwner(ctx, id, session.UserID)
}

// GetPublic fetches an invoice for the shareable link flow. The owner is
// stripped; everything else is returned as stored.
func (s *invoiceService) GetPublic(ctx context.Context, id uuid.UUID) (*domain.PublicInvoice, error) {
	inv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return inv.Public(), nil
}

// List returns the caller's invoices, newest first. A non-empty query is an
// in-memory free-text filter over file name, invoice number and line item
// descriptions.
func (s *invoiceService) List(ctx context.Context, session *domain.Session, query string) ([]domain.Invoice, error) {
	if session == nil {
		return nil, domain.ErrAuthentication
	}
	invoices, err := s.repo.ListByOwner(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(query) == "" {
		return invoices, nil
	}
	filtered := make([]domain.Invoice, 0, len(invoices))
	for _, inv := range invoices {
		if inv.MatchesQuery(query) {
			filtered = append(filtered, inv)
		}
	}
	return filtered, nil
}

// Update applies a partial patch to an owned invoice and returns the updated
// record. An empty patch still refreshes updated_at.
func (s *invoiceService) Update(ctx context.Context, session *domain.Session, id uuid.UUID, patch *domain.InvoicePatch) (*domain.Invoice, error) {
	if session == nil {
		return nil, domain.ErrAuthentication
	}
	// Ownership check first, so a non-owner patch reads as not found and
	// never touches the row.
	if _, err := s.repo.GetByIDForOwner(ctx, id, session.UserID); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, id, patch); err != nil {
		return nil, err
	}
	return s.repo.GetByIDForOwner(ctx, id, session.UserID)
}

// Delete removes the database row first, then the stored file. The two steps
// are not atomic: a storage failure after the row is gone leaves an orphaned
// object and is reported as such, with no attempt to restore the row.
func (s *invoiceService) Delete(ctx context.Context, session *domain.Session, id uuid.UUID) error {
	if session == nil {
		return domain.ErrAuthentication
	}
	inv, err := s.repo.GetByIDForOwner(ctx, id, session.UserID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id, session.UserID); err != nil {
		return err
	}
	if inv.FilePath != "" {
		if err := s.storage.Delete(ctx, s.s3cfg.Bucket, inv.FilePath); err != nil {
			return &domain.OrphanedFileError{FilePath: inv.FilePath, Err: err}
		}
	}
	return nil
}

// QRCode renders a PNG QR code for an invoice. Link mode encodes the
// shareable URL; data mode encodes the public invoice fields as JSON.
func (s *invoiceService) QRCode(ctx context.Context, id uuid.UUID, mode QRMode) ([]byte, error) {
	pub, err := s.GetPublic(ctx, id)
	if err != nil {
		return nil, err
	}

	var payload string
	switch mode {
	case QRModeLink, "":
		payload = fmt.Sprintf("%s/invoices/%s", s.baseURL, id)
	case QRModeData:
		data, err := json.Marshal(pub)
		if err != nil {
			return nil, fmt.Errorf("encoding invoice for QR: %w", err)
		}
		payload = string(data)
	default:
		return nil, fmt.Errorf("%w: unknown QR mode %q", domain.ErrValidation, mode)
	}

	png, err := qrcode.Encode(payload, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("rendering QR code: %w", err)
	}
	return png, nil
}

func (s *invoiceService) FreshDownloadURL(ctx context.Context, session *domain.Session, id uuid.UUID) (string, error) {
	if session == nil {
		return "", domain.ErrAuthentication
	}
	inv, err := s.repo.GetByIDForOwner(ctx, id, session.UserID)
	if err != nil {
		return "", err
	}
	url, err := s.storage.GetPresignedURL(ctx, s.s3cfg.Bucket, inv.FilePath, s.s3cfg.PresignExpiry)
	if err != nil {
		return "", fmt.Errorf("%w: presigning %s: %v", domain.ErrUpload, inv.FilePath, err)
	}
	return url, nil
}

// parseInvoiceDate normalizes an extracted date string to a calendar date.
// An unparseable value is omitted rather than stored raw.
func parseInvoiceDate(raw *string) *time.Time {
	if raw == nil {
		return nil
	}
	v := strings.TrimSpace(*raw)
	if v == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &d
		}
	}
	return nil
}

// sanitizeFileName strips path components and characters that do not belong
// in an object key.
func sanitizeFileName(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, " ", "_")
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "file"
	}
	return b.String()
}
