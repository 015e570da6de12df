package port

import (
	"context"

	"github.com/google/uuid"

	"parsemybill/internal/domain"
)

// UserRepository defines the contract for user persistence.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	SetEmailVerified(ctx context.Context, userID uuid.UUID) error
}

// InvoiceRepository defines the contract for invoice persistence. Owner-scoped
// methods include the owner in the query itself, so a non-owner id resolves
// to ErrNotFound rather than leaking the record's existence.
type InvoiceRepository interface {
	Create(ctx context.Context, inv *domain.Invoice) error
	// GetByID fetches without an owner scope; it backs the shareable link
	// flow and the server-side extract merge.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error)
	GetByIDForOwner(ctx context.Context, id, ownerID uuid.UUID) (*domain.Invoice, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Invoice, error)
	// Update applies a partial patch: only non-nil fields are written and
	// updated_at is refreshed on every call, including an empty patch.
	Update(ctx context.Context, id uuid.UUID, patch *domain.InvoicePatch) error
	Delete(ctx context.Context, id, ownerID uuid.UUID) error
}
