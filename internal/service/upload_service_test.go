package service_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"parsemybill/internal/config"
	"parsemybill/internal/domain"
	"parsemybill/internal/port"
	"parsemybill/internal/service"
	"parsemybill/mocks"
)

func setupUploadService() (*mocks.MockInvoiceRepo, *mocks.MockObjectStorage, *mocks.MockInvoiceExtractor, service.UploadService) {
	repo := new(mocks.MockInvoiceRepo)
	storage := new(mocks.MockObjectStorage)
	extractor := new(mocks.MockInvoiceExtractor)
	cfg := config.S3Config{Bucket: "test-bucket", MaxFileSizeMB: 10}
	invoiceSvc := service.NewInvoiceService(repo, storage, cfg, "https://parsemybill.app")
	return repo, storage, extractor, service.NewUploadService(invoiceSvc, repo, extractor)
}

func pdfRequest() service.UploadRequest {
	return service.UploadRequest{
		FileName:    "march.pdf",
		ContentType: "application/pdf",
		Size:        3,
		Body:        bytes.NewReader([]byte("pdf")),
	}
}

func TestProcess_HappyPath(t *testing.T) {
	repo, storage, extractor, svc := setupUploadService()
	session := testSession()

	storage.On("Upload", mock.Anything, mock.AnythingOfType("port.UploadInput")).
		Return(&port.UploadOutput{Location: "https://bucket/key"}, nil)
	extractor.On("Extract", mock.Anything, mock.AnythingOfType("port.ExtractInput")).
		Return(&domain.ExtractedFields{InvoiceNumber: strPtr("INV-7"), TotalAmount: floatPtr(42)}, nil)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Invoice")).Return(nil)

	var states []domain.UploadState
	result, err := svc.Process(context.Background(), session, pdfRequest(), func(s domain.UploadState) {
		states = append(states, s)
	})
	require.NoError(t, err)

	assert.Equal(t, []domain.UploadState{
		domain.UploadStateUploading,
		domain.UploadStateExtracting,
		domain.UploadStateSaving,
		domain.UploadStateDone,
	}, states)
	require.NotNil(t, result.Invoice)
	require.NotNil(t, result.Fields.InvoiceNumber)
	assert.Equal(t, "INV-7", *result.Fields.InvoiceNumber)
	repo.AssertExpectations(t)
}

func TestProcess_AnonymousRejectedBeforeAnyStep(t *testing.T) {
	repo, storage, extractor, svc := setupUploadService()

	var states []domain.UploadState
	_, err := svc.Process(context.Background(), nil, pdfRequest(), func(s domain.UploadState) {
		states = append(states, s)
	})

	var step *domain.StepError
	require.ErrorAs(t, err, &step)
	assert.ErrorIs(t, err, domain.ErrAuthentication)
	assert.Equal(t, []domain.UploadState{domain.UploadStateFailed}, states)

	storage.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
	extractor.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestProcess_ExtractionFailureAttributed(t *testing.T) {
	repo, storage, extractor, svc := setupUploadService()
	session := testSession()

	storage.On("Upload", mock.Anything, mock.AnythingOfType("port.UploadInput")).
		Return(&port.UploadOutput{Location: "https://bucket/key"}, nil)
	extractor.On("Extract", mock.Anything, mock.AnythingOfType("port.ExtractInput")).
		Return(nil, domain.ErrExtraction)

	var states []domain.UploadState
	_, err := svc.Process(context.Background(), session, pdfRequest(), func(s domain.UploadState) {
		states = append(states, s)
	})

	var step *domain.StepError
	require.ErrorAs(t, err, &step)
	assert.Equal(t, domain.UploadStateExtracting, step.Step)
	assert.ErrorIs(t, err, domain.ErrExtraction)
	assert.Equal(t, domain.UploadStateFailed, states[len(states)-1])

	// No invoice record for a failed run.
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestProcess_UploadFailureAttributed(t *testing.T) {
	repo, storage, extractor, svc := setupUploadService()
	session := testSession()

	storage.On("Upload", mock.Anything, mock.AnythingOfType("port.UploadInput")).
		Return(nil, errors.New("bucket gone"))

	var step *domain.StepError
	_, err := svc.Process(context.Background(), session, pdfRequest(), nil)
	require.ErrorAs(t, err, &step)
	assert.Equal(t, domain.UploadStateUploading, step.Step)
	assert.ErrorIs(t, err, domain.ErrUpload)

	extractor.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestProcess_SaveFailureAttributed(t *testing.T) {
	repo, storage, extractor, svc := setupUploadService()
	session := testSession()

	storage.On("Upload", mock.Anything, mock.AnythingOfType("port.UploadInput")).
		Return(&port.UploadOutput{Location: "https://bucket/key"}, nil)
	extractor.On("Extract", mock.Anything, mock.AnythingOfType("port.ExtractInput")).
		Return(&domain.ExtractedFields{}, nil)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Invoice")).Return(domain.ErrPersistence)

	var step *domain.StepError
	_, err := svc.Process(context.Background(), session, pdfRequest(), nil)
	require.ErrorAs(t, err, &step)
	assert.Equal(t, domain.UploadStateSaving, step.Step)
	assert.ErrorIs(t, err, domain.ErrPersistence)
}

func TestProcess_SanitizesModelOutput(t *testing.T) {
	repo, storage, extractor, svc := setupUploadService()
	session := testSession()

	storage.On("Upload", mock.Anything, mock.AnythingOfType("port.UploadInput")).
		Return(&port.UploadOutput{Location: "https://bucket/key"}, nil)
	// Empty strings from the model must not survive as values.
	extractor.On("Extract", mock.Anything, mock.AnythingOfType("port.ExtractInput")).
		Return(&domain.ExtractedFields{InvoiceNumber: strPtr("  "), InvoiceDate: strPtr("")}, nil)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Invoice")).Return(nil)

	result, err := svc.Process(context.Background(), session, pdfRequest(), nil)
	require.NoError(t, err)
	assert.Nil(t, result.Fields.InvoiceNumber)
	assert.Nil(t, result.Fields.InvoiceDate)
	assert.Nil(t, result.Invoice.InvoiceNumber)
	assert.Nil(t, result.Invoice.InvoiceDate)
}
