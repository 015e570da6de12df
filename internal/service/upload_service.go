package service

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"

	"parsemybill/internal/domain"
	"parsemybill/internal/extract"
	"parsemybill/internal/port"
)

// UploadRequest carries one invoice document through the pipeline.
type UploadRequest struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// UploadResult is the outcome of a completed pipeline run.
type UploadResult struct {
	Invoice *domain.Invoice         `json:"invoice"`
	Fields  *domain.ExtractedFields `json:"fields,omitempty"`
}

// StateFunc observes pipeline state transitions. It is called synchronously
// from the pipeline goroutine and must not block.
type StateFunc func(state domain.UploadState)

// UploadService runs the upload pipeline: store the file, extract its
// fields, persist the invoice. Steps run strictly in order; the first
// failure aborts the run with the failing step attached, and nothing
// uploaded or extracted before the failure is rolled back.
type UploadService interface {
	Process(ctx context.Context, session *domain.Session, req UploadRequest, onState StateFunc) (*UploadResult, error)
	// ExtractInto re-runs extraction against a document and merges the
	// result into an already stored invoice.
	ExtractInto(ctx context.Context, invoiceID uuid.UUID, dataURI string) (*domain.ExtractedFields, error)
}

type uploadService struct {
	invoices  InvoiceService
	repo      port.InvoiceRepository
	extractor port.InvoiceExtractor
}

// NewUploadService creates a new UploadService implementation.
func NewUploadService(invoices InvoiceService, repo port.InvoiceRepository, extractor port.InvoiceExtractor) UploadService {
	return &uploadService{
		invoices:  invoices,
		repo:      repo,
		extractor: extractor,
	}
}

func (s *uploadService) Process(ctx context.Context, session *domain.Session, req UploadRequest, onState StateFunc) (*UploadResult, error) {
	notify := func(state domain.UploadState) {
		if onState != nil {
			onState(state)
		}
	}

	// An anonymous caller is rejected before any step runs: no upload, no
	// extraction call, no state transitions past failed.
	if session == nil {
		notify(domain.UploadStateFailed)
		return nil, &domain.StepError{Step: domain.UploadStateIdle, Err: domain.ErrAuthentication}
	}

	fail := func(step domain.UploadState, err error) (*UploadResult, error) {
		notify(domain.UploadStateFailed)
		return nil, &domain.StepError{Step: step, Err: err}
	}

	// The bytes feed both the storage upload and the extraction input, so
	// the body is read exactly once.
	data, err := io.ReadAll(req.Body)
	if err != nil {
		return fail(domain.UploadStateUploading, fmt.Errorf("%w: reading file: %v", domain.ErrUpload, err))
	}
	if req.Size <= 0 {
		req.Size = int64(len(data))
	}

	notify(domain.UploadStateUploading)
	stored, err := s.invoices.StoreFile(ctx, session, req.FileName, req.ContentType, req.Size, bytes.NewReader(data))
	if err != nil {
		return fail(domain.UploadStateUploading, err)
	}

	notify(domain.UploadStateExtracting)
	fields, err := s.extractor.Extract(ctx, port.ExtractInput{
		DataURI: extract.EncodeDataURI(req.ContentType, data),
	})
	if err != nil {
		return fail(domain.UploadStateExtracting, err)
	}
	fields = extract.Sanitize(fields)

	notify(domain.UploadStateSaving)
	inv, err := s.invoices.Create(ctx, session, stored, fields)
	if err != nil {
		return fail(domain.UploadStateSaving, err)
	}

	notify(domain.UploadStateDone)
	return &UploadResult{Invoice: inv, Fields: fields}, nil
}

// ExtractInto extracts fields from the given data URI and writes them onto
// an existing invoice. Fields the model omitted are left untouched.
func (s *uploadService) ExtractInto(ctx context.Context, invoiceID uuid.UUID, dataURI string) (*domain.ExtractedFields, error) {
	if _, err := s.repo.GetByID(ctx, invoiceID); err != nil {
		return nil, err
	}

	fields, err := s.extractor.Extract(ctx, port.ExtractInput{DataURI: dataURI})
	if err != nil {
		return nil, err
	}
	fields = extract.Sanitize(fields)

	patch := &domain.InvoicePatch{
		InvoiceNumber: fields.InvoiceNumber,
		TotalAmount:   fields.TotalAmount,
	}
	if d := parseInvoiceDate(fields.InvoiceDate); d != nil {
		patch.InvoiceDate = d
	}
	if len(fields.LineItems) > 0 {
		items := fields.LineItems
		patch.LineItems = &items
	}
	if err := s.repo.Update(ctx, invoiceID, patch); err != nil {
		return nil, err
	}
	return fields, nil
}
