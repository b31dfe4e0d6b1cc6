package share

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository persists shared documents.
type Repository interface {
	Create(ctx context.Context, doc *Document) (*Document, error)
	GetByCode(ctx context.Context, code string) (*Document, error)
	// DeleteExpired removes documents whose expiry is at or before now and
	// reports how many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

// NewDocumentRepository returns the generic bun repository for share documents.
func NewDocumentRepository(db *bun.DB) repository.Repository[*Document] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Document]{
		NewRecord: func() *Document { return &Document{} },
		GetID: func(d *Document) uuid.UUID {
			return d.ID
		},
		SetID: func(d *Document, id uuid.UUID) {
			d.ID = id
		},
		GetIdentifier: func() string {
			return "code"
		},
		GetIdentifierValue: func(d *Document) string {
			return d.Code
		},
	})
}
